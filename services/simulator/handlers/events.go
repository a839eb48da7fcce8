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
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/slaypay-sim/services/simulator/datatypes"
	"github.com/AleutianAI/slaypay-sim/services/simulator/simulation"
)

// ListEvents returns the raw event list for agent consumption. With a
// since query parameter (ISO 8601) only events strictly newer than that
// instant are returned; an unparseable value is treated as absent.
func ListEvents(svc *simulation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var events []datatypes.PaymentEvent
		if raw := c.Query("since"); raw != "" {
			since, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				slog.Warn("Ignoring unparseable since parameter", "since", raw, "error", err)
				events = svc.Store().Recent(svc.Store().Capacity())
			} else {
				events = svc.Store().Since(since)
			}
		} else {
			events = svc.Store().Recent(svc.Store().Capacity())
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"count":   len(events),
			"events":  events,
		})
	}
}
