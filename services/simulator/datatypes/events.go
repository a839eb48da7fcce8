// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the wire types for the SlayPay payment
// simulator: synthetic payment events, failure presets, and the
// request/response payloads of the HTTP boundary.
package datatypes

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Transaction outcome statuses. Every stored event carries exactly one.
const (
	StatusSuccess   = "success"
	StatusFailure   = "failure"
	StatusRetried   = "retried"
	StatusCancelled = "cancelled"
	StatusBounced   = "bounced"
)

// Banks is the fixed set of simulated issuing banks.
var Banks = []string{"HDFC", "ICICI", "SBI", "Axis", "Kotak", "Yes"}

// Methods is the fixed set of simulated payment methods.
var Methods = []string{"UPI", "Card", "Netbanking", "Wallet"}

// ErrorCodes is the fixed set of failure reason codes.
var ErrorCodes = []string{
	"BANK_TIMEOUT",
	"INSUFFICIENT_FUNDS",
	"INVALID_CARD",
	"NETWORK_ERROR",
	"RATE_LIMIT",
	"GATEWAY_ERROR",
}

// Statuses lists every valid outcome status.
var Statuses = []string{
	StatusSuccess,
	StatusFailure,
	StatusRetried,
	StatusCancelled,
	StatusBounced,
}

// PaymentEvent is one synthetic payment transaction attempt.
//
// Events are immutable once stored. Members of a retry chain share a
// TransactionID. ErrorCode is nil unless the event failed or bounced;
// externally submitted events are not validated for that relationship.
type PaymentEvent struct {
	TransactionID string    `json:"transaction_id" validate:"required"`
	Timestamp     time.Time `json:"timestamp"`
	UserID        string    `json:"user_id"`
	Amount        int       `json:"amount" validate:"required"`
	Bank          string    `json:"bank" validate:"required"`
	Method        string    `json:"method" validate:"required"`
	Status        string    `json:"status" validate:"required"`
	Latency       int       `json:"latency"`
	ErrorCode     *string   `json:"error_code"`
}

var eventValidator = newEventValidator()

func newEventValidator() *validator.Validate {
	v := validator.New()
	// Report missing fields under their wire names, not Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// MissingFields returns the wire names of required fields that are absent
// or zero on a manually submitted event, in struct declaration order.
// An empty slice means the event is acceptable.
func (e PaymentEvent) MissingFields() []string {
	err := eventValidator.Struct(e)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{"transaction_id", "amount", "bank", "method", "status"}
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		}
	}
	return missing
}
