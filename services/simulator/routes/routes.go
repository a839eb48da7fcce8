// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/slaypay-sim/services/simulator/handlers"
	"github.com/AleutianAI/slaypay-sim/services/simulator/simulation"
)

// SetupRoutes registers the simulator's HTTP and WebSocket boundary on
// the router.
func SetupRoutes(router *gin.Engine, svc *simulation.Service) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	payments := router.Group("/payments")
	{
		payments.POST("/simulate", handlers.SimulatePayments(svc))
		payments.POST("/event", handlers.SubmitPaymentEvent(svc))
		payments.GET("/recent", handlers.RecentPayments(svc))
	}

	router.GET("/metrics/summary", handlers.MetricsSummary(svc))
	router.GET("/events", handlers.ListEvents(svc))
	router.GET("/ws", handlers.HandleEventStream(svc.Hub()))

	agent := router.Group("/agent")
	{
		agent.GET("/insights", handlers.AgentInsights())
		agent.GET("/status", handlers.AgentStatus())
		agent.GET("/decisions", handlers.AgentDecisions())
		agent.GET("/workflow_state", handlers.AgentWorkflowState())
	}
}
