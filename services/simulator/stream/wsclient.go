// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package stream

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// sendBufferSize bounds the per-client outbound queue. When the buffer
// is full the client is too slow and messages are dropped for it alone.
const sendBufferSize = 64

// writeTimeout bounds a single WebSocket write so a stalled peer cannot
// wedge the write pump.
const writeTimeout = 10 * time.Second

// WSClient adapts a gorilla WebSocket connection to the Subscriber
// interface. Writes go through a buffered channel drained by a single
// write pump goroutine, keeping Send non-blocking and serializing all
// connection writes.
type WSClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// NewWSClient wraps conn and starts its write pump.
func NewWSClient(conn *websocket.Conn) *WSClient {
	c := &WSClient{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	go c.writePump()
	return c
}

// ID returns the client's subscriber id.
func (c *WSClient) ID() string {
	return c.id
}

// Send queues msg for delivery. Returns false when the client buffer is
// full or the client is closed.
func (c *WSClient) Send(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close stops the write pump and closes the connection. Safe to call
// more than once only from the owning handler goroutine.
func (c *WSClient) Close() {
	close(c.done)
	c.conn.Close()
}

// writePump drains the send queue onto the connection until the client
// closes or a write fails.
func (c *WSClient) writePump() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				slog.Info("WebSocket write failed, stopping pump", "subscriber", c.id, "error", err)
				return
			}
		}
	}
}
