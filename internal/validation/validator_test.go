// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package validation

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tomtom215/signalmesh/internal/models"
)

type testSignal struct {
	Symbol string          `validate:"required,notblank"`
	Side   string          `validate:"required,tradeside"`
	Size   decimal.Decimal `validate:"posdecimal"`
}

func TestValidateStruct_ValidSignal(t *testing.T) {
	sig := testSignal{
		Symbol: "ETH-PERP",
		Side:   "buy",
		Size:   decimal.NewFromFloat(0.5),
	}

	if err := ValidateStruct(&sig); err != nil {
		t.Errorf("Expected valid signal to pass, got: %v", err)
	}
}

func TestValidateStruct_SideCaseInsensitive(t *testing.T) {
	for _, side := range []string{"buy", "BUY", "Sell", "SELL"} {
		sig := testSignal{Symbol: "ETH-PERP", Side: side, Size: decimal.NewFromInt(1)}
		if err := ValidateStruct(&sig); err != nil {
			t.Errorf("Expected side %q to pass, got: %v", side, err)
		}
	}
}

func TestValidateStruct_InvalidSide(t *testing.T) {
	sig := testSignal{Symbol: "ETH-PERP", Side: "hold", Size: decimal.NewFromInt(1)}

	err := ValidateStruct(&sig)
	if err == nil {
		t.Fatal("Expected error for side=hold, got nil")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "INVALID_SIGNAL" {
		t.Errorf("Expected code INVALID_SIGNAL, got %q", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "Side") {
		t.Errorf("Expected message to name the Side field, got %q", apiErr.Message)
	}
}

func TestValidateStruct_SizeBounds(t *testing.T) {
	tests := []struct {
		name string
		size decimal.Decimal
		ok   bool
	}{
		{"positive", decimal.NewFromFloat(0.001), true},
		{"large", decimal.NewFromInt(1000000), true},
		{"zero", decimal.Zero, false},
		{"negative", decimal.NewFromFloat(-0.5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := testSignal{Symbol: "ETH-PERP", Side: "sell", Size: tt.size}
			err := ValidateStruct(&sig)
			if tt.ok && err != nil {
				t.Errorf("Expected size %s to pass, got: %v", tt.size, err)
			}
			if !tt.ok && err == nil {
				t.Errorf("Expected size %s to fail, got nil", tt.size)
			}
		})
	}
}

func TestValidateStruct_BlankSymbol(t *testing.T) {
	sig := testSignal{Symbol: "   ", Side: "buy", Size: decimal.NewFromInt(1)}

	err := ValidateStruct(&sig)
	if err == nil {
		t.Fatal("Expected error for whitespace-only symbol, got nil")
	}
}

func TestValidateStruct_MultipleErrors(t *testing.T) {
	sig := testSignal{Symbol: "", Side: "maybe", Size: decimal.Zero}

	err := ValidateStruct(&sig)
	if err == nil {
		t.Fatal("Expected errors, got nil")
	}
	if len(err.Errors()) != 3 {
		t.Errorf("Expected 3 field errors, got %d: %v", len(err.Errors()), err)
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "INVALID_SIGNAL" {
		t.Errorf("Expected code INVALID_SIGNAL, got %q", apiErr.Code)
	}
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Error("Expected fields detail for multiple errors")
	}
}

// The real payload type must carry tags that agree with the custom validators.
func TestValidateStruct_SignalPayload(t *testing.T) {
	payload := models.SignalPayload{
		Symbol: "ETH-PERP",
		Side:   models.SideBuy,
		Size:   decimal.NewFromFloat(0.5),
	}
	if err := ValidateStruct(&payload); err != nil {
		t.Errorf("Expected valid payload to pass, got: %v", err)
	}

	bad := models.SignalPayload{
		Symbol: "ETH-PERP",
		Side:   models.Side("hold"),
		Size:   decimal.NewFromFloat(0.5),
	}
	if err := ValidateStruct(&bad); err == nil {
		t.Error("Expected invalid side on real payload to fail")
	}
}
