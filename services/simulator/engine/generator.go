// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine implements the stochastic event generation pipeline:
// the per-event layered outcome decision, the burst window planner, and
// the retry chain tracker.
//
// All randomness flows through an injected *rand.Rand so tests can supply
// a seeded source and assert on the resulting sequences. Nothing in this
// package is safe for concurrent use; callers serialize batch generation.
package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/AleutianAI/slaypay-sim/services/simulator/datatypes"
)

// Latency ranges in milliseconds. Each is sampled as rand(spread)+floor.
const (
	baseLatencyFloor  = 100
	baseLatencySpread = 300

	pairFailLatencyFloor  = 500
	pairFailLatencySpread = 1500

	burstLatencyFloor  = 800
	burstLatencySpread = 2000

	baselineFailLatencyFloor  = 400
	baselineFailLatencySpread = 1200

	chainLatencyFloor  = 300
	chainLatencySpread = 600
)

// Outcome decision constants.
const (
	// A latency above this threshold boosts the pair failure rate:
	// latency spikes precede failures.
	latencySpikeThresholdMs = 800
	latencySpikeFailBoost   = 0.15

	// Flat failure probability inside a burst window, and the split of
	// burst failures into failure vs cancelled.
	burstFailureRate   = 0.35
	burstFailureShare  = 0.70
	chainRetryOverride = 0.60
)

// Secondary weighted split used when a pair-override Bernoulli trial
// fires: failure 0.45, retried 0.25, cancelled 0.15, bounced 0.15,
// expressed as cumulative thresholds.
const (
	pairSplitFailure   = 0.45
	pairSplitRetried   = 0.70
	pairSplitCancelled = 0.85
)

// Amount bounds in whole currency units.
const (
	amountFloor  = 10
	amountSpread = 49990
)

// BatchContext carries the per-event flags computed by the batch driver
// before the generator runs.
type BatchContext struct {
	// Timestamp is the synthetic event time. Zero means time.Now().
	Timestamp time.Time

	// UserID overrides the generated user id when non-empty.
	UserID string

	// IntroduceBias selects the preset-driven decision pipeline. When
	// false the generator uses the simple weight-table path used for
	// startup seed data.
	IntroduceBias bool

	// InBurst marks events whose timestamp falls inside the planned
	// burst window.
	InBurst bool

	// RetryChainID, when non-empty, is the shared transaction id of the
	// retry chain this event belongs to.
	RetryChainID string
}

// Generator produces synthetic payment events.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a Generator drawing from rng. A nil rng gets a
// time-seeded source.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// Generate produces one fully populated event under the given preset and
// batch context. Decision layers apply in priority order: bank+method
// pair override, then burst window, then the preset's target
// distribution, with a final retry-chain override.
func (g *Generator) Generate(preset datatypes.FailurePreset, bctx BatchContext) datatypes.PaymentEvent {
	ts := bctx.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	bank := datatypes.Banks[g.rng.Intn(len(datatypes.Banks))]
	method := datatypes.Methods[g.rng.Intn(len(datatypes.Methods))]

	status := datatypes.StatusSuccess
	latency := g.rng.Intn(baseLatencySpread) + baseLatencyFloor

	if bctx.IntroduceBias {
		if pair, ok := preset.BankMethodPairs[datatypes.PairKey(bank, method)]; ok {
			latency = int(g.rng.Float64()*float64(baseLatencySpread)*pair.LatencyMultiplier) + baseLatencyFloor

			failureRate := pair.FailureRate
			if latency > latencySpikeThresholdMs {
				failureRate += latencySpikeFailBoost
			}

			if g.rng.Float64() < failureRate {
				switch r := g.rng.Float64(); {
				case r < pairSplitFailure:
					status = datatypes.StatusFailure
				case r < pairSplitRetried:
					status = datatypes.StatusRetried
				case r < pairSplitCancelled:
					status = datatypes.StatusCancelled
				default:
					status = datatypes.StatusBounced
				}
				latency = g.rng.Intn(pairFailLatencySpread) + pairFailLatencyFloor
			}
		} else if bctx.InBurst {
			if g.rng.Float64() < burstFailureRate {
				if g.rng.Float64() < burstFailureShare {
					status = datatypes.StatusFailure
				} else {
					status = datatypes.StatusCancelled
				}
				latency = g.rng.Intn(burstLatencySpread) + burstLatencyFloor
			}
		} else {
			dist := preset.TargetDistribution
			switch r := g.rng.Float64(); {
			case r < dist.Failure:
				status = datatypes.StatusFailure
			case r < dist.Failure+dist.Retried:
				status = datatypes.StatusRetried
			case r < dist.Failure+dist.Retried+dist.Cancelled:
				status = datatypes.StatusCancelled
			case r < dist.Failure+dist.Retried+dist.Cancelled+dist.Bounced:
				status = datatypes.StatusBounced
			default:
				status = datatypes.StatusSuccess
			}
			if status != datatypes.StatusSuccess {
				latency = g.rng.Intn(baselineFailLatencySpread) + baselineFailLatencyFloor
			}
		}

		if bctx.RetryChainID != "" && g.rng.Float64() < chainRetryOverride {
			status = datatypes.StatusRetried
			latency = g.rng.Intn(chainLatencySpread) + chainLatencyFloor
		}
	} else {
		// Seed-data path: fixed 8-slot weight table, no preset influence.
		weights := []string{
			datatypes.StatusSuccess, datatypes.StatusSuccess, datatypes.StatusSuccess,
			datatypes.StatusSuccess, datatypes.StatusSuccess,
			datatypes.StatusFailure, datatypes.StatusRetried, datatypes.StatusCancelled,
		}
		status = weights[g.rng.Intn(len(weights))]
		if status == datatypes.StatusSuccess {
			latency = g.rng.Intn(baseLatencySpread) + baseLatencyFloor
		} else {
			latency = g.rng.Intn(500) + 200
		}
	}

	amount := g.rng.Intn(amountSpread) + amountFloor

	userID := bctx.UserID
	if userID == "" {
		userID = fmt.Sprintf("user_%d@slaypay.com", g.rng.Intn(1000))
	}

	txnID := bctx.RetryChainID
	if txnID == "" {
		txnID = g.NewTransactionID(ts)
	}

	return datatypes.PaymentEvent{
		TransactionID: txnID,
		Timestamp:     ts,
		UserID:        userID,
		Amount:        amount,
		Bank:          bank,
		Method:        method,
		Status:        status,
		Latency:       latency,
		ErrorCode:     g.errorCodeFor(bank, status),
	}
}

// errorCodeFor assigns a failure reason for failed and bounced events.
// Certain banks skew toward a characteristic code.
func (g *Generator) errorCodeFor(bank, status string) *string {
	if status != datatypes.StatusFailure && status != datatypes.StatusBounced {
		return nil
	}
	var code string
	switch {
	case bank == "HDFC" && g.rng.Float64() < 0.5:
		code = "BANK_TIMEOUT"
	case bank == "SBI" && g.rng.Float64() < 0.4:
		code = "NETWORK_ERROR"
	default:
		code = datatypes.ErrorCodes[g.rng.Intn(len(datatypes.ErrorCodes))]
	}
	return &code
}

// NewTransactionID mints a transaction id anchored to the event time.
func (g *Generator) NewTransactionID(ts time.Time) string {
	return fmt.Sprintf("TXN_%d_%d", ts.UnixMilli(), g.rng.Intn(10000))
}
