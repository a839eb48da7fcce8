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
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/slaypay-sim/services/simulator/observability"
)

// agentTimeout bounds each sidecar call so a hung agent never stalls
// the simulator.
const agentTimeout = 5 * time.Second

var agentClient = &http.Client{Timeout: agentTimeout}

func agentBaseURL() string {
	if url := os.Getenv("AGENT_SERVICE_URL"); url != "" {
		return url
	}
	return "http://localhost:3002"
}

// proxyAgent forwards a GET to the anomaly-detection agent sidecar. Any
// failure (connect, timeout, non-2xx) degrades to a success-shaped but
// empty payload with HTTP 200: the agent being down is an expected
// condition, never a server error.
func proxyAgent(route string, emptyKey string, emptyValue any) gin.HandlerFunc {
	return func(c *gin.Context) {
		unavailable := func() {
			observability.Default().AgentProxyFailures.WithLabelValues(route).Inc()
			c.JSON(http.StatusOK, gin.H{
				"success": false,
				"error":   "Agent service unavailable",
				emptyKey:  emptyValue,
			})
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet,
			agentBaseURL()+route, nil)
		if err != nil {
			slog.Error("Failed to build agent request", "route", route, "error", err)
			unavailable()
			return
		}

		resp, err := agentClient.Do(req)
		if err != nil {
			slog.Warn("Agent service unreachable", "route", route, "error", err)
			unavailable()
			return
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil || resp.StatusCode < 200 || resp.StatusCode >= 300 {
			slog.Warn("Agent service returned an error",
				"route", route, "status", resp.StatusCode, "error", err)
			unavailable()
			return
		}

		c.Data(http.StatusOK, "application/json", body)
	}
}

// AgentInsights proxies GET /agent/insights.
func AgentInsights() gin.HandlerFunc {
	return proxyAgent("/agent/insights", "insights", []any{})
}

// AgentStatus proxies GET /agent/status.
func AgentStatus() gin.HandlerFunc {
	return proxyAgent("/agent/status", "status", gin.H{"running": false})
}

// AgentDecisions proxies GET /agent/decisions.
func AgentDecisions() gin.HandlerFunc {
	return proxyAgent("/agent/decisions", "decisions", []any{})
}

// AgentWorkflowState proxies GET /agent/workflow_state.
func AgentWorkflowState() gin.HandlerFunc {
	return proxyAgent("/agent/workflow_state", "workflow", gin.H{})
}
