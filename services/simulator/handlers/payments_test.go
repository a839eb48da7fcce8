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
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/slaypay-sim/services/simulator/datatypes"
	"github.com/AleutianAI/slaypay-sim/services/simulator/simulation"
)

func init() {
	// Reduce noise in test output.
	gin.SetMode(gin.TestMode)
}

func newTestService(t *testing.T, seed int64) *simulation.Service {
	t.Helper()
	t.Setenv("FAILURE_PRESET", "")
	return simulation.New(datatypes.NewPresetCatalog(), rand.New(rand.NewSource(seed)))
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func getJSON(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSimulatePayments(t *testing.T) {
	svc := newTestService(t, 1)
	router := gin.New()
	router.POST("/payments/simulate", SimulatePayments(svc))

	t.Run("outage preset degrades the batch", func(t *testing.T) {
		w := postJSON(router, "/payments/simulate",
			`{"count": 100, "preset": "OUTAGE_SIMULATION"}`)
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, float64(100), body["generated"])
		assert.Equal(t, "OUTAGE_SIMULATION", body["preset"])

		summary := body["summary"].(map[string]any)
		degraded := summary["failure"].(float64) + summary["retried"].(float64)
		assert.GreaterOrEqual(t, degraded, float64(25))

		events := body["events"].([]any)
		assert.Len(t, events, 10)
	})

	t.Run("empty body uses defaults", func(t *testing.T) {
		w := postJSON(router, "/payments/simulate", "")
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, float64(simulation.DefaultBatchCount), body["generated"])
	})

	t.Run("malformed json is rejected", func(t *testing.T) {
		w := postJSON(router, "/payments/simulate", `{"count": `)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSubmitPaymentEvent(t *testing.T) {
	svc := newTestService(t, 2)
	router := gin.New()
	router.POST("/payments/event", SubmitPaymentEvent(svc))

	t.Run("valid event is stored and echoed", func(t *testing.T) {
		w := postJSON(router, "/payments/event", `{
			"transaction_id": "TXN_manual_1",
			"amount": 750,
			"bank": "Axis",
			"method": "UPI",
			"status": "success"
		}`)
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, true, body["success"])
		event := body["event"].(map[string]any)
		assert.Equal(t, "TXN_manual_1", event["transaction_id"])
		assert.NotEmpty(t, event["timestamp"], "timestamp stamped on ingest")

		assert.Equal(t, 1, svc.Store().Len())
	})

	t.Run("missing bank is listed in the error", func(t *testing.T) {
		w := postJSON(router, "/payments/event", `{
			"transaction_id": "TXN_manual_2",
			"amount": 750,
			"method": "UPI",
			"status": "success"
		}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["error"], "Missing required fields:")
		assert.Contains(t, body["error"], "bank")

		// Nothing stored on validation failure.
		assert.Equal(t, 1, svc.Store().Len())
	})

	t.Run("multiple missing fields all listed", func(t *testing.T) {
		w := postJSON(router, "/payments/event", `{"amount": 10}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		body := decodeBody(t, w)
		for _, field := range []string{"transaction_id", "bank", "method", "status"} {
			assert.Contains(t, body["error"], field)
		}
	})
}

func TestRecentPayments(t *testing.T) {
	svc := newTestService(t, 3)
	router := gin.New()
	router.GET("/payments/recent", RecentPayments(svc))
	router.POST("/payments/simulate", SimulatePayments(svc))

	// Overfill the store past its capacity.
	w := postJSON(router, "/payments/simulate", `{"count": 1001}`)
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("default limit", func(t *testing.T) {
		body := decodeBody(t, getJSON(router, "/payments/recent"))
		assert.Equal(t, true, body["success"])
		assert.Len(t, body["events"].([]any), 50)
		assert.Equal(t, float64(svc.Store().Capacity()), body["count"])
	})

	t.Run("limit capped at store capacity", func(t *testing.T) {
		path := fmt.Sprintf("/payments/recent?limit=%d", svc.Store().Capacity()*2)
		body := decodeBody(t, getJSON(router, path))
		assert.Len(t, body["events"].([]any), svc.Store().Capacity())
	})

	t.Run("explicit limit", func(t *testing.T) {
		body := decodeBody(t, getJSON(router, "/payments/recent?limit=7"))
		assert.Len(t, body["events"].([]any), 7)
	})

	t.Run("garbage limit falls back to default", func(t *testing.T) {
		body := decodeBody(t, getJSON(router, "/payments/recent?limit=banana"))
		assert.Len(t, body["events"].([]any), 50)
	})
}
