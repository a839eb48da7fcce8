// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/slaypay-sim/services/simulator/datatypes"
)

// distributionOnlyPreset has no pair overrides so every biased draw goes
// through the target distribution branch.
func distributionOnlyPreset(dist datatypes.TargetDistribution) datatypes.FailurePreset {
	return datatypes.FailurePreset{
		Name:               "TEST",
		TargetDistribution: dist,
		BankMethodPairs:    map[string]datatypes.PairOverride{},
	}
}

func TestGenerate_EventIsFullyPopulated(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(1)))
	preset := distributionOnlyPreset(datatypes.TargetDistribution{
		Success: 0.5, Failure: 0.2, Retried: 0.1, Cancelled: 0.1, Bounced: 0.1,
	})

	valid := make(map[string]bool)
	for _, s := range datatypes.Statuses {
		valid[s] = true
	}

	for i := 0; i < 2000; i++ {
		ev := gen.Generate(preset, BatchContext{IntroduceBias: true})

		require.True(t, valid[ev.Status], "unexpected status %q", ev.Status)
		require.GreaterOrEqual(t, ev.Latency, 0)
		assert.NotEmpty(t, ev.TransactionID)
		assert.NotEmpty(t, ev.UserID)
		assert.Contains(t, datatypes.Banks, ev.Bank)
		assert.Contains(t, datatypes.Methods, ev.Method)
		assert.False(t, ev.Timestamp.IsZero())
		assert.GreaterOrEqual(t, ev.Amount, 10)
		assert.LessOrEqual(t, ev.Amount, 49999)

		switch ev.Status {
		case datatypes.StatusFailure, datatypes.StatusBounced:
			require.NotNil(t, ev.ErrorCode, "failed event missing error code")
			assert.Contains(t, datatypes.ErrorCodes, *ev.ErrorCode)
		default:
			assert.Nil(t, ev.ErrorCode)
		}
	}
}

func TestGenerate_TargetDistributionConvergence(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(42)))
	dist := datatypes.TargetDistribution{
		Success: 0.92, Failure: 0.03, Retried: 0.03, Cancelled: 0.01, Bounced: 0.01,
	}
	preset := distributionOnlyPreset(dist)

	const trials = 10000
	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		ev := gen.Generate(preset, BatchContext{IntroduceBias: true})
		counts[ev.Status]++
	}

	const tolerance = 0.03
	want := map[string]float64{
		datatypes.StatusSuccess:   dist.Success,
		datatypes.StatusFailure:   dist.Failure,
		datatypes.StatusRetried:   dist.Retried,
		datatypes.StatusCancelled: dist.Cancelled,
		datatypes.StatusBounced:   dist.Bounced,
	}
	for status, target := range want {
		got := float64(counts[status]) / trials
		assert.InDelta(t, target, got, tolerance, "status %s proportion off target", status)
	}
}

func TestGenerate_BurstBranchFailureRate(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(7)))
	preset := distributionOnlyPreset(datatypes.TargetDistribution{Success: 1})

	const trials = 5000
	nonSuccess := 0
	for i := 0; i < trials; i++ {
		ev := gen.Generate(preset, BatchContext{IntroduceBias: true, InBurst: true})
		switch ev.Status {
		case datatypes.StatusFailure, datatypes.StatusCancelled:
			nonSuccess++
			// Burst failures draw from the elevated latency range.
			assert.GreaterOrEqual(t, ev.Latency, 800)
			assert.Less(t, ev.Latency, 2800)
		case datatypes.StatusSuccess:
		default:
			t.Fatalf("burst branch produced status %q", ev.Status)
		}
	}

	got := float64(nonSuccess) / trials
	assert.InDelta(t, 0.35, got, 0.03, "empirical burst failure rate")
}

func TestGenerate_PairOverrideElevatesFailures(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(11)))
	// Every pair is degraded so the pair branch always applies.
	pairs := make(map[string]datatypes.PairOverride)
	for _, bank := range datatypes.Banks {
		for _, method := range datatypes.Methods {
			pairs[datatypes.PairKey(bank, method)] = datatypes.PairOverride{
				FailureRate:       0.9,
				LatencyMultiplier: 4.0,
			}
		}
	}
	preset := datatypes.FailurePreset{
		Name:               "ALL_DEGRADED",
		TargetDistribution: datatypes.TargetDistribution{Success: 1},
		BankMethodPairs:    pairs,
	}

	const trials = 3000
	nonSuccess := 0
	for i := 0; i < trials; i++ {
		ev := gen.Generate(preset, BatchContext{IntroduceBias: true})
		if ev.Status != datatypes.StatusSuccess {
			nonSuccess++
			assert.GreaterOrEqual(t, ev.Latency, 500)
			assert.Less(t, ev.Latency, 2000)
		}
	}

	// Base rate 0.9, plus the 0.15 spike boost on high-latency draws.
	got := float64(nonSuccess) / trials
	assert.Greater(t, got, 0.85, "pair override failure rate too low")
}

func TestGenerate_RetryChainOverride(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(3)))
	preset := distributionOnlyPreset(datatypes.TargetDistribution{Success: 1})

	const trials = 2000
	retried := 0
	for i := 0; i < trials; i++ {
		ev := gen.Generate(preset, BatchContext{
			IntroduceBias: true,
			RetryChainID:  "TXN_1700000000000_42",
		})
		// Chain members always share the chain's transaction id.
		require.Equal(t, "TXN_1700000000000_42", ev.TransactionID)
		if ev.Status == datatypes.StatusRetried {
			retried++
			assert.GreaterOrEqual(t, ev.Latency, 300)
			assert.Less(t, ev.Latency, 900)
		}
	}

	got := float64(retried) / trials
	assert.InDelta(t, 0.6, got, 0.05, "chain retry override rate")
}

func TestGenerate_SeedPathUsesWeightTable(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(5)))
	preset := distributionOnlyPreset(datatypes.TargetDistribution{Success: 1})

	counts := make(map[string]int)
	for i := 0; i < 4000; i++ {
		ev := gen.Generate(preset, BatchContext{})
		counts[ev.Status]++
	}

	// 5 of 8 slots are success; bounced never appears on the seed path.
	assert.InDelta(t, 0.625, float64(counts[datatypes.StatusSuccess])/4000, 0.04)
	assert.Zero(t, counts[datatypes.StatusBounced])
}

func TestGenerate_TimestampAndUserOverrides(t *testing.T) {
	gen := NewGenerator(rand.New(rand.NewSource(9)))
	preset := distributionOnlyPreset(datatypes.TargetDistribution{Success: 1})

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ev := gen.Generate(preset, BatchContext{
		Timestamp:     ts,
		UserID:        "user_7@slaypay.com",
		IntroduceBias: true,
	})

	assert.Equal(t, ts, ev.Timestamp)
	assert.Equal(t, "user_7@slaypay.com", ev.UserID)
}
