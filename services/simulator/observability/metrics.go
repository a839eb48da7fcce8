// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the simulator.
//
// # Description
//
// Counters and gauges covering the simulator pipeline:
//   - Generated and stored event counts (by preset / by status)
//   - Broadcast drops for slow or closed stream subscribers
//   - Live WebSocket subscriber count
//   - Agent proxy failures
//
// Metrics are exposed via the /metrics endpoint. All operations are
// thread-safe via Prometheus's internal locking.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const metricsNamespace = "slaypay"

// Subsystem for simulator metrics
const simulatorSubsystem = "simulator"

// SimulatorMetrics holds all Prometheus metrics for the event pipeline.
// Initialize once via Default(); registration happens lazily on first
// use so tests can share the instance.
type SimulatorMetrics struct {
	// EventsGenerated counts synthetic events produced per preset.
	EventsGenerated *prometheus.CounterVec

	// EventsStored counts events accepted into the log by status,
	// whichever endpoint they arrived through.
	EventsStored *prometheus.CounterVec

	// BroadcastsDropped counts per-subscriber deliveries dropped by the
	// non-blocking fan-out.
	BroadcastsDropped prometheus.Counter

	// StreamClients tracks the number of live stream subscribers.
	StreamClients prometheus.Gauge

	// AgentProxyFailures counts failed calls to the agent sidecar by route.
	AgentProxyFailures *prometheus.CounterVec
}

var (
	defaultMetrics *SimulatorMetrics
	metricsOnce    sync.Once
)

// Default returns the process-wide metrics instance, registering the
// collectors on first call.
func Default() *SimulatorMetrics {
	metricsOnce.Do(func() {
		defaultMetrics = &SimulatorMetrics{
			EventsGenerated: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: simulatorSubsystem,
					Name:      "events_generated_total",
					Help:      "Synthetic payment events generated, by preset",
				},
				[]string{"preset"},
			),

			EventsStored: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: simulatorSubsystem,
					Name:      "events_stored_total",
					Help:      "Events accepted into the event log, by status",
				},
				[]string{"status"},
			),

			BroadcastsDropped: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: simulatorSubsystem,
					Name:      "broadcasts_dropped_total",
					Help:      "Per-subscriber event deliveries dropped by the fan-out",
				},
			),

			StreamClients: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: metricsNamespace,
					Subsystem: simulatorSubsystem,
					Name:      "stream_clients",
					Help:      "Currently connected event stream subscribers",
				},
			),

			AgentProxyFailures: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: metricsNamespace,
					Subsystem: simulatorSubsystem,
					Name:      "agent_proxy_failures_total",
					Help:      "Failed agent sidecar calls, by route",
				},
				[]string{"route"},
			),
		}
	})
	return defaultMetrics
}
