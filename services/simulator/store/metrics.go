// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/AleutianAI/slaypay-sim/services/simulator/datatypes"
)

// topErrorCount caps the error-code histogram entries in a snapshot.
const topErrorCount = 5

// groupStats holds the running counters for one bank or one method.
type groupStats struct {
	total        int64
	success      int64
	failure      int64
	totalLatency int64
}

// MetricsAggregator maintains running transaction totals incrementally
// as events are stored. Only success and failure have explicit counters;
// retried, cancelled and bounced events count toward the total alone, so
// they dilute both reported rates.
type MetricsAggregator struct {
	mu           sync.RWMutex
	total        int64
	successCount int64
	failureCount int64
	totalLatency int64
	bankStats    map[string]*groupStats
	methodStats  map[string]*groupStats
	errorCodes   map[string]int64
}

// NewMetricsAggregator returns an aggregator with all counters at zero.
func NewMetricsAggregator() *MetricsAggregator {
	return &MetricsAggregator{
		bankStats:   make(map[string]*groupStats),
		methodStats: make(map[string]*groupStats),
		errorCodes:  make(map[string]int64),
	}
}

// Record folds one event into the running totals.
func (m *MetricsAggregator) Record(ev datatypes.PaymentEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	switch ev.Status {
	case datatypes.StatusSuccess:
		m.successCount++
	case datatypes.StatusFailure:
		m.failureCount++
	}
	m.totalLatency += int64(ev.Latency)

	recordGroup(m.bankStats, ev.Bank, ev)
	recordGroup(m.methodStats, ev.Method, ev)

	if ev.ErrorCode != nil && *ev.ErrorCode != "" {
		m.errorCodes[*ev.ErrorCode]++
	}
}

func recordGroup(groups map[string]*groupStats, key string, ev datatypes.PaymentEvent) {
	g, ok := groups[key]
	if !ok {
		g = &groupStats{}
		groups[key] = g
	}
	g.total++
	switch ev.Status {
	case datatypes.StatusSuccess:
		g.success++
	case datatypes.StatusFailure:
		g.failure++
	}
	g.totalLatency += int64(ev.Latency)
}

// GroupMetrics is the derived per-bank or per-method view. Rates are
// percentage strings with two decimals, matching the dashboard wire
// format.
type GroupMetrics struct {
	Name        string `json:"-"`
	Total       int64  `json:"total"`
	SuccessRate string `json:"successRate"`
	FailureRate string `json:"failureRate"`
	AvgLatency  int64  `json:"avgLatency"`
}

// BankMetrics is GroupMetrics keyed by bank on the wire.
type BankMetrics struct {
	Bank string `json:"bank"`
	GroupMetrics
}

// MethodMetrics is GroupMetrics keyed by method on the wire.
type MethodMetrics struct {
	Method string `json:"method"`
	GroupMetrics
}

// ErrorCount is one entry of the error-code histogram.
type ErrorCount struct {
	Code  string `json:"code"`
	Count int64  `json:"count"`
}

// MetricsSnapshot is a point-in-time derived read of the aggregated
// metrics. It is recomputed per call and never stored.
type MetricsSnapshot struct {
	TotalTransactions int64           `json:"totalTransactions"`
	SuccessCount      int64           `json:"successCount"`
	FailureCount      int64           `json:"failureCount"`
	SuccessRate       string          `json:"successRate"`
	FailureRate       string          `json:"failureRate"`
	AvgLatency        string          `json:"avgLatency"`
	ByBank            []BankMetrics   `json:"byBank"`
	ByMethod          []MethodMetrics `json:"byMethod"`
	TopErrors         []ErrorCount    `json:"topErrors"`
}

// Snapshot computes the derived rates on demand. Cost is proportional to
// the number of distinct banks, methods and error codes, never to the
// number of recorded events. Group lists are sorted by name and the
// error histogram descending by count for stable output.
func (m *MetricsAggregator) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		TotalTransactions: m.total,
		SuccessCount:      m.successCount,
		FailureCount:      m.failureCount,
		SuccessRate:       ratePercent(m.successCount, m.total) + "%",
		FailureRate:       ratePercent(m.failureCount, m.total) + "%",
		AvgLatency:        fmt.Sprintf("%dms", avg(m.totalLatency, m.total)),
		ByBank:            make([]BankMetrics, 0, len(m.bankStats)),
		ByMethod:          make([]MethodMetrics, 0, len(m.methodStats)),
		TopErrors:         make([]ErrorCount, 0, len(m.errorCodes)),
	}

	for _, g := range groupView(m.bankStats) {
		snap.ByBank = append(snap.ByBank, BankMetrics{Bank: g.Name, GroupMetrics: g})
	}
	for _, g := range groupView(m.methodStats) {
		snap.ByMethod = append(snap.ByMethod, MethodMetrics{Method: g.Name, GroupMetrics: g})
	}

	for code, count := range m.errorCodes {
		snap.TopErrors = append(snap.TopErrors, ErrorCount{Code: code, Count: count})
	}
	sort.Slice(snap.TopErrors, func(i, j int) bool {
		if snap.TopErrors[i].Count != snap.TopErrors[j].Count {
			return snap.TopErrors[i].Count > snap.TopErrors[j].Count
		}
		return snap.TopErrors[i].Code < snap.TopErrors[j].Code
	})
	if len(snap.TopErrors) > topErrorCount {
		snap.TopErrors = snap.TopErrors[:topErrorCount]
	}

	return snap
}

func groupView(groups map[string]*groupStats) []GroupMetrics {
	out := make([]GroupMetrics, 0, len(groups))
	for name, g := range groups {
		out = append(out, GroupMetrics{
			Name:        name,
			Total:       g.total,
			SuccessRate: ratePercent(g.success, g.total),
			FailureRate: ratePercent(g.failure, g.total),
			AvgLatency:  avg(g.totalLatency, g.total),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func ratePercent(count, total int64) string {
	if total == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(count)/float64(total)*100)
}

func avg(sum, total int64) int64 {
	if total == 0 {
		return 0
	}
	return int64(math.Round(float64(sum) / float64(total)))
}
