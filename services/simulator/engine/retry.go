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
	"fmt"
	"math/rand"
	"time"
)

// chainSize groups consecutive generation indices into retry chains.
const chainSize = 3

// RetryChainTracker assigns shared transaction ids to grouped event
// indices within a single batch. Chains never persist across batches;
// create a fresh tracker per batch.
type RetryChainTracker struct {
	rng    *rand.Rand
	chains map[int]string
}

// NewRetryChainTracker returns an empty tracker drawing from rng.
func NewRetryChainTracker(rng *rand.Rand) *RetryChainTracker {
	return &RetryChainTracker{
		rng:    rng,
		chains: make(map[int]string),
	}
}

// MaybeAssign selects the event at the given batch index into a retry
// chain with the given probability. Selected events in the same group of
// chainSize consecutive indices receive an identical transaction id,
// minted on first selection. Returns "" when the event is not chained.
func (t *RetryChainTracker) MaybeAssign(index int, probability float64, eventTime time.Time) string {
	if t.rng.Float64() >= probability {
		return ""
	}
	key := index / chainSize
	if id, ok := t.chains[key]; ok {
		return id
	}
	id := fmt.Sprintf("TXN_%d_%d", eventTime.UnixMilli(), t.rng.Intn(10000))
	t.chains[key] = id
	return id
}

// Len returns the number of chains minted so far.
func (t *RetryChainTracker) Len() int {
	return len(t.chains)
}
