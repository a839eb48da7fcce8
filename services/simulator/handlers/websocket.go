// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/slaypay-sim/services/simulator/stream"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleEventStream upgrades the connection and subscribes it to the
// broadcast hub. The read loop only watches for disconnect; the stream
// is one-way, server to client.
func HandleEventStream(hub *stream.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("Failed to upgrade the websocket", "error", err)
			return
		}

		client := stream.NewWSClient(ws)
		hub.Subscribe(client)
		defer func() {
			hub.Unsubscribe(client.ID())
			client.Close()
		}()

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				slog.Info("WebSocket client disconnected", "error", err.Error())
				return
			}
		}
	}
}
