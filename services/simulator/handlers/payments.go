// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers contains the gin handlers for the simulator's HTTP
// and WebSocket boundary.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/slaypay-sim/services/simulator/datatypes"
	"github.com/AleutianAI/slaypay-sim/services/simulator/simulation"
)

// defaultRecentLimit applies when /payments/recent omits limit.
const defaultRecentLimit = 50

// SimulateRequest is the body of POST /payments/simulate. Both fields
// are optional.
type SimulateRequest struct {
	Count  int    `json:"count"`
	Preset string `json:"preset"`
}

// SimulatePayments generates a batch of synthetic payment events.
func SimulatePayments(svc *simulation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SimulateRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Invalid request body",
			})
			return
		}

		result := svc.RunBatch(req.Count, req.Preset)
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"generated": result.Generated,
			"preset":    result.Preset,
			"summary":   result.Summary,
			"events":    result.Events,
		})
	}
}

// SubmitPaymentEvent accepts a single externally submitted event. The
// event must carry transaction_id, amount, bank, method and status;
// anything missing is reported back in one 400 response and nothing is
// stored.
func SubmitPaymentEvent(svc *simulation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ev datatypes.PaymentEvent
		if err := c.ShouldBindJSON(&ev); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Invalid request body",
			})
			return
		}

		if missing := ev.MissingFields(); len(missing) > 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "Missing required fields: " + strings.Join(missing, ", "),
			})
			return
		}

		stored := svc.AddEvent(ev)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"event":   stored,
		})
	}
}

// RecentPayments returns the newest stored events, newest first. The
// limit query parameter defaults to 50 and is capped at the store
// capacity.
func RecentPayments(svc *simulation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultRecentLimit
		if raw := c.Query("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}
		if limit > svc.Store().Capacity() {
			limit = svc.Store().Capacity()
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"count":   svc.Store().Len(),
			"events":  svc.Store().Recent(limit),
		})
	}
}
