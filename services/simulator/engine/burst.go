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
	"time"

	"github.com/AleutianAI/slaypay-sim/services/simulator/datatypes"
)

// burstWidth is the fixed length of a burst failure window.
const burstWidth = time.Minute

// BurstWindow is a synthetic interval of elevated failure valid for one
// generation batch. Windows are computed backward from the batch start,
// so End is chronologically before Start.
type BurstWindow struct {
	Start time.Time
	End   time.Time
}

// PlanBurstWindow decides, with probability preset.BurstProbability,
// whether the batch gets a burst window. The window ends at a random
// offset within 0.7 x spread before batchStart and covers one minute
// leading up to that point. Returns nil when no burst occurs.
func PlanBurstWindow(rng *rand.Rand, preset datatypes.FailurePreset, batchStart time.Time, spread time.Duration) *BurstWindow {
	if rng.Float64() >= preset.BurstProbability {
		return nil
	}
	offset := time.Duration(rng.Int63n(int64(float64(spread) * 0.7)))
	start := batchStart.Add(-offset)
	return &BurstWindow{
		Start: start,
		End:   start.Add(-burstWidth),
	}
}

// Contains reports whether t falls inside the window, bounds inclusive.
// A nil window contains nothing.
func (w *BurstWindow) Contains(t time.Time) bool {
	if w == nil {
		return false
	}
	return !t.Before(w.End) && !t.After(w.Start)
}
