// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package stream fans newly stored payment events out to live
// subscribers. The Hub is transport-agnostic: anything implementing
// Subscriber can join, and the WebSocket wrapper in wsclient.go is the
// production transport.
package stream

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/AleutianAI/slaypay-sim/services/simulator/datatypes"
	"github.com/AleutianAI/slaypay-sim/services/simulator/observability"
)

// Message envelope types on the event stream.
const (
	MessageTypeConnection   = "connection"
	MessageTypePaymentEvent = "payment_event"
)

// connectionAck is the greeting every subscriber receives on subscribe.
const connectionAck = "Connected to SlayPay event stream"

// Subscriber is one live consumer of the event stream.
//
// Send must not block: implementations deliver msg or report false
// immediately (e.g. a full buffer or closed connection). A false return
// marks a dropped message for that subscriber only.
type Subscriber interface {
	ID() string
	Send(msg []byte) bool
}

// Hub maintains the set of live subscribers and publishes each stored
// event to all of them. Subscribe and Unsubscribe may run concurrently
// with Publish.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]Subscriber
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]Subscriber)}
}

// Subscribe registers a subscriber and immediately delivers the
// connection acknowledgement message.
func (h *Hub) Subscribe(s Subscriber) {
	h.mu.Lock()
	h.subs[s.ID()] = s
	count := len(h.subs)
	h.mu.Unlock()

	observability.Default().StreamClients.Set(float64(count))
	slog.Info("Stream subscriber connected", "subscriber", s.ID(), "clients", count)

	ack, err := json.Marshal(map[string]any{
		"type":      MessageTypeConnection,
		"message":   connectionAck,
		"timestamp": time.Now().UTC(),
	})
	if err != nil {
		slog.Error("Failed to marshal connection ack", "error", err)
		return
	}
	if !s.Send(ack) {
		slog.Warn("Subscriber dropped connection ack", "subscriber", s.ID())
	}
}

// Unsubscribe removes a subscriber. Unknown ids are a no-op.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	if _, ok := h.subs[id]; ok {
		delete(h.subs, id)
	}
	count := len(h.subs)
	h.mu.Unlock()

	observability.Default().StreamClients.Set(float64(count))
	slog.Info("Stream subscriber disconnected", "subscriber", id, "clients", count)
}

// Publish serializes the event once and attempts non-blocking delivery
// to every current subscriber. A failed delivery is isolated to that
// subscriber and never surfaces to the caller; publish order matches the
// order events were stored.
func (h *Hub) Publish(ev datatypes.PaymentEvent) {
	msg, err := json.Marshal(map[string]any{
		"type": MessageTypePaymentEvent,
		"data": ev,
	})
	if err != nil {
		slog.Error("Failed to marshal payment event for broadcast", "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if !s.Send(msg) {
			observability.Default().BroadcastsDropped.Inc()
			slog.Warn("Dropped broadcast for slow or closed subscriber", "subscriber", s.ID())
		}
	}
}

// ClientCount returns the number of live subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
