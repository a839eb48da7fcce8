// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package simulation wires the generation engine to the event log, the
// metrics aggregator and the broadcast hub. The Service is the single
// stateful object owning all mutable simulator state; every event,
// generated or submitted, funnels through it in store -> metrics ->
// broadcast order so concurrent readers always observe a consistent
// view.
package simulation

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/AleutianAI/slaypay-sim/services/simulator/datatypes"
	"github.com/AleutianAI/slaypay-sim/services/simulator/engine"
	"github.com/AleutianAI/slaypay-sim/services/simulator/observability"
	"github.com/AleutianAI/slaypay-sim/services/simulator/store"
	"github.com/AleutianAI/slaypay-sim/services/simulator/stream"
)

// Batch generation limits.
const (
	// MaxBatchCount caps one simulate request.
	MaxBatchCount = 5000

	// DefaultBatchCount applies when the request omits count.
	DefaultBatchCount = 1000

	// batchTimeSpread is the interval event timestamps are spread
	// backward over from the batch start.
	batchTimeSpread = 5 * time.Minute

	// seedEventCount is how many unbiased sample events Seed generates.
	seedEventCount = 20
)

// BatchResult summarizes one generation batch.
type BatchResult struct {
	Generated int
	Preset    string
	Summary   map[string]int
	// Events holds the first events of the batch, capped at 10 for
	// response size.
	Events []datatypes.PaymentEvent
}

// batchResultEventCap limits BatchResult.Events.
const batchResultEventCap = 10

// Service owns the simulator's mutable state. Batch generation is a
// critical section with respect to the store and metrics: two batches
// never interleave their writes. Subscriber connect/disconnect stays
// concurrent with publishing via the hub's own locking.
type Service struct {
	catalog *datatypes.PresetCatalog
	gen     *engine.Generator
	store   *store.EventStore
	metrics *store.MetricsAggregator
	hub     *stream.Hub

	// mu serializes batch generation and single-event ingestion. rng is
	// only touched with mu held.
	mu  sync.Mutex
	rng *rand.Rand
}

// New builds a Service around the given catalog. A nil rng gets a
// time-seeded source; tests inject a seeded one.
func New(catalog *datatypes.PresetCatalog, rng *rand.Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		catalog: catalog,
		gen:     engine.NewGenerator(rng),
		store:   store.NewEventStore(store.DefaultCapacity),
		metrics: store.NewMetricsAggregator(),
		hub:     stream.NewHub(),
		rng:     rng,
	}
}

// Catalog returns the preset catalog.
func (s *Service) Catalog() *datatypes.PresetCatalog { return s.catalog }

// Store returns the bounded event log.
func (s *Service) Store() *store.EventStore { return s.store }

// Metrics returns the metrics aggregator.
func (s *Service) Metrics() *store.MetricsAggregator { return s.metrics }

// Hub returns the broadcast hub.
func (s *Service) Hub() *stream.Hub { return s.hub }

// RunBatch generates count events under the named preset (falling back
// to the active default for unknown names), pushing each through the
// store, the aggregator and the hub in order. Count is clamped to
// [1, MaxBatchCount]; zero or negative counts use DefaultBatchCount.
func (s *Service) RunBatch(count int, presetName string) BatchResult {
	if count <= 0 {
		count = DefaultBatchCount
	}
	if count > MaxBatchCount {
		count = MaxBatchCount
	}
	preset := s.catalog.Get(presetName)

	s.mu.Lock()
	defer s.mu.Unlock()

	slog.Info("Generating payment events", "count", count, "preset", preset.Name)

	batchStart := time.Now().UTC()
	window := engine.PlanBurstWindow(s.rng, preset, batchStart, batchTimeSpread)
	if window != nil {
		slog.Info("Burst failure period planned",
			"from", window.Start.Format(time.RFC3339),
			"to", window.End.Format(time.RFC3339))
	}
	chains := engine.NewRetryChainTracker(s.rng)

	result := BatchResult{
		Preset: preset.Name,
		Summary: map[string]int{
			datatypes.StatusSuccess:   0,
			datatypes.StatusFailure:   0,
			datatypes.StatusRetried:   0,
			datatypes.StatusCancelled: 0,
			datatypes.StatusBounced:   0,
		},
	}

	for i := 0; i < count; i++ {
		eventTime := batchStart.Add(-time.Duration(s.rng.Int63n(int64(batchTimeSpread))))
		ev := s.gen.Generate(preset, engine.BatchContext{
			Timestamp:     eventTime,
			UserID:        fmt.Sprintf("user_%d@slaypay.com", s.rng.Intn(500)),
			IntroduceBias: true,
			InBurst:       window.Contains(eventTime),
			RetryChainID:  chains.MaybeAssign(i, preset.RetryChainRate, eventTime),
		})

		s.ingest(ev)
		result.Generated++
		result.Summary[ev.Status]++
		if len(result.Events) < batchResultEventCap {
			result.Events = append(result.Events, ev)
		}
	}

	observability.Default().EventsGenerated.WithLabelValues(preset.Name).Add(float64(count))
	slog.Info("Batch generation complete",
		"generated", result.Generated,
		"success", result.Summary[datatypes.StatusSuccess],
		"failure", result.Summary[datatypes.StatusFailure],
		"retried", result.Summary[datatypes.StatusRetried],
		"cancelled", result.Summary[datatypes.StatusCancelled],
		"bounced", result.Summary[datatypes.StatusBounced])

	return result
}

// AddEvent accepts an externally submitted event, stamping the current
// time when the timestamp is missing, then stores, aggregates and
// broadcasts it. The stored event is returned.
func (s *Service) AddEvent(ev datatypes.PaymentEvent) datatypes.PaymentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	s.ingest(ev)
	return ev
}

// Seed generates a handful of unbiased sample events so the dashboard
// has data right after boot.
func (s *Service) Seed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	preset := s.catalog.ActiveDefault()
	for i := 0; i < seedEventCount; i++ {
		s.ingest(s.gen.Generate(preset, engine.BatchContext{}))
	}
	slog.Info("Generated initial sample data", "count", seedEventCount)
}

// ingest pushes one event through the pipeline. Store strictly before
// broadcast so a subscriber can always re-read what it was sent.
func (s *Service) ingest(ev datatypes.PaymentEvent) {
	s.store.Insert(ev)
	s.metrics.Record(ev)
	s.hub.Publish(ev)
	observability.Default().EventsStored.WithLabelValues(ev.Status).Inc()
}
