// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store holds the process-wide mutable simulator state: the
// bounded event log and the incremental metrics aggregator. Both types
// are safe for concurrent use; all mutation funnels through their
// methods.
package store

import (
	"sync"
	"time"

	"github.com/AleutianAI/slaypay-sim/services/simulator/datatypes"
)

// DefaultCapacity is the event log capacity used by the service.
const DefaultCapacity = 1000

// EventStore is a bounded, most-recent-first log of accepted events.
// Insert is O(1): once the store is full, each insert evicts the oldest
// entry. There is no update or delete-by-id operation.
type EventStore struct {
	mu   sync.RWMutex
	buf  []datatypes.PaymentEvent
	head int
	size int
}

// NewEventStore returns an empty store with the given capacity.
// Capacities below 1 fall back to DefaultCapacity.
func NewEventStore(capacity int) *EventStore {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &EventStore{buf: make([]datatypes.PaymentEvent, capacity)}
}

// Insert prepends an event, evicting the oldest entry when the store is
// at capacity.
func (s *EventStore) Insert(ev datatypes.PaymentEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.head = (s.head - 1 + len(s.buf)) % len(s.buf)
	s.buf[s.head] = ev
	if s.size < len(s.buf) {
		s.size++
	}
}

// Len returns the number of stored events.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Capacity returns the fixed store capacity.
func (s *EventStore) Capacity() int {
	return len(s.buf)
}

// Recent returns up to limit events, newest first. A limit above the
// capacity is clamped; a limit below 1 returns an empty slice.
func (s *EventStore) Recent(limit int) []datatypes.PaymentEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit > s.size {
		limit = s.size
	}
	if limit < 1 {
		return []datatypes.PaymentEvent{}
	}
	out := make([]datatypes.PaymentEvent, limit)
	for i := 0; i < limit; i++ {
		out[i] = s.buf[(s.head+i)%len(s.buf)]
	}
	return out
}

// Since returns all stored events with a timestamp strictly after t,
// preserving newest-first insertion order. Event timestamps are not
// monotonic in insertion order (batches spread them backward in time),
// so the whole log is scanned.
func (s *EventStore) Since(t time.Time) []datatypes.PaymentEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]datatypes.PaymentEvent, 0, s.size)
	for i := 0; i < s.size; i++ {
		ev := s.buf[(s.head+i)%len(s.buf)]
		if ev.Timestamp.After(t) {
			out = append(out, ev)
		}
	}
	return out
}
