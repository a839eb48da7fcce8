// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEvent() PaymentEvent {
	return PaymentEvent{
		TransactionID: "TXN_1700000000000_1",
		Timestamp:     time.Now().UTC(),
		UserID:        "user_1@slaypay.com",
		Amount:        1500,
		Bank:          "HDFC",
		Method:        "UPI",
		Status:        StatusSuccess,
		Latency:       180,
	}
}

func TestMissingFields(t *testing.T) {
	t.Run("complete event has none", func(t *testing.T) {
		assert.Empty(t, validEvent().MissingFields())
	})

	t.Run("single missing field is named", func(t *testing.T) {
		ev := validEvent()
		ev.Bank = ""
		assert.Equal(t, []string{"bank"}, ev.MissingFields())
	})

	t.Run("all required fields reported in order", func(t *testing.T) {
		missing := PaymentEvent{}.MissingFields()
		assert.Equal(t,
			[]string{"transaction_id", "amount", "bank", "method", "status"},
			missing)
	})

	t.Run("zero amount counts as missing", func(t *testing.T) {
		ev := validEvent()
		ev.Amount = 0
		assert.Equal(t, []string{"amount"}, ev.MissingFields())
	})

	t.Run("latency and timestamp are optional", func(t *testing.T) {
		ev := validEvent()
		ev.Latency = 0
		ev.Timestamp = time.Time{}
		ev.UserID = ""
		assert.Empty(t, ev.MissingFields())
	})
}

func TestPaymentEvent_WireFormat(t *testing.T) {
	ev := validEvent()
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	for _, key := range []string{
		"transaction_id", "timestamp", "user_id", "amount",
		"bank", "method", "status", "latency", "error_code",
	} {
		assert.Contains(t, decoded, key)
	}

	// error_code serializes as an explicit null when unset.
	assert.Nil(t, decoded["error_code"])

	code := "BANK_TIMEOUT"
	ev.ErrorCode = &code
	raw, err = json.Marshal(ev)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "BANK_TIMEOUT", decoded["error_code"])
}
