// Signalmesh - Webhook Trade Signal Fan-Out Across Decentralized Exchanges
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signalmesh

package dex

import (
	"strings"
	"testing"
)

// Well-known development key (hardhat/anvil account #0). Never funded on
// any network anyone cares about.
const (
	testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testKeyAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testVaultAddr  = "0x1234567890abcdef1234567890abcdef12345678"
)

func TestNewSigner_DerivesAddress(t *testing.T) {
	s, err := NewSigner(testPrivateKey, "", false)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	if got := s.Address().Hex(); got != testKeyAddress {
		t.Errorf("Expected address %s, got %s", testKeyAddress, got)
	}
	if s.Vault() != nil {
		t.Error("Expected nil vault when none configured")
	}
}

func TestNewSigner_AcceptsHexPrefix(t *testing.T) {
	s, err := NewSigner("0x"+testPrivateKey, "", false)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	if got := s.Address().Hex(); got != testKeyAddress {
		t.Errorf("Expected address %s, got %s", testKeyAddress, got)
	}
}

func TestNewSigner_RejectsMalformedInputs(t *testing.T) {
	if _, err := NewSigner("not-a-key", "", false); err == nil {
		t.Error("Expected error for malformed private key")
	}
	if _, err := NewSigner(testPrivateKey, "not-an-address", false); err == nil {
		t.Error("Expected error for malformed vault address")
	}
}

func TestNewSigner_ConfiguredVault(t *testing.T) {
	s, err := NewSigner(testPrivateKey, testVaultAddr, false)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	if s.Vault() == nil {
		t.Fatal("Expected configured vault")
	}
	if got := strings.ToLower(s.Vault().Hex()); got != testVaultAddr {
		t.Errorf("Expected vault %s, got %s", testVaultAddr, got)
	}
}

func TestSignAction_IsDeterministic(t *testing.T) {
	s, err := NewSigner(testPrivateKey, "", false)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}

	action := []byte(`{"type":"order","orders":[{"a":0,"b":true,"p":"50000","s":"0.1"}]}`)

	first, err := s.SignAction(action, 1700000000000)
	if err != nil {
		t.Fatalf("SignAction failed: %v", err)
	}
	second, err := s.SignAction(action, 1700000000000)
	if err != nil {
		t.Fatalf("SignAction failed: %v", err)
	}
	if first.R != second.R || first.S != second.S || first.V != second.V {
		t.Error("Expected identical signatures for identical action and nonce")
	}

	other, err := s.SignAction(action, 1700000000001)
	if err != nil {
		t.Fatalf("SignAction failed: %v", err)
	}
	if first.R == other.R && first.S == other.S {
		t.Error("Expected a different signature for a different nonce")
	}
}

func TestSignAction_SignatureShape(t *testing.T) {
	s, err := NewSigner(testPrivateKey, "", false)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}

	sig, err := s.SignAction([]byte(`{"type":"cancel"}`), 42)
	if err != nil {
		t.Fatalf("SignAction failed: %v", err)
	}

	if !strings.HasPrefix(sig.R, "0x") || len(sig.R) != 66 {
		t.Errorf("Expected 32-byte hex R, got %q", sig.R)
	}
	if !strings.HasPrefix(sig.S, "0x") || len(sig.S) != 66 {
		t.Errorf("Expected 32-byte hex S, got %q", sig.S)
	}
	if sig.V != 27 && sig.V != 28 {
		t.Errorf("Expected V of 27 or 28, got %d", sig.V)
	}
}

func TestSignAction_VaultChangesSignature(t *testing.T) {
	plain, err := NewSigner(testPrivateKey, "", false)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	vaulted, err := NewSigner(testPrivateKey, testVaultAddr, false)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}

	action := []byte(`{"type":"order"}`)
	a, err := plain.SignAction(action, 1)
	if err != nil {
		t.Fatalf("SignAction failed: %v", err)
	}
	b, err := vaulted.SignAction(action, 1)
	if err != nil {
		t.Fatalf("SignAction failed: %v", err)
	}
	if a.R == b.R && a.S == b.S {
		t.Error("Expected vault configuration to change the signature")
	}
}

func TestSignAction_NetworkSourceChangesSignature(t *testing.T) {
	mainnet, err := NewSigner(testPrivateKey, "", false)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	testnet, err := NewSigner(testPrivateKey, "", true)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}

	action := []byte(`{"type":"order"}`)
	a, err := mainnet.SignAction(action, 1)
	if err != nil {
		t.Fatalf("SignAction failed: %v", err)
	}
	b, err := testnet.SignAction(action, 1)
	if err != nil {
		t.Fatalf("SignAction failed: %v", err)
	}
	if a.R == b.R && a.S == b.S {
		t.Error("Expected network source to change the signature")
	}
}

func TestActionHash_InputsChangeHash(t *testing.T) {
	base := actionHash([]byte("action-a"), nil, 1)

	if got := actionHash([]byte("action-a"), nil, 1); got != base {
		t.Error("Expected identical inputs to hash identically")
	}
	if got := actionHash([]byte("action-b"), nil, 1); got == base {
		t.Error("Expected different action bytes to change the hash")
	}
	if got := actionHash([]byte("action-a"), nil, 2); got == base {
		t.Error("Expected a different nonce to change the hash")
	}

	s, err := NewSigner(testPrivateKey, testVaultAddr, false)
	if err != nil {
		t.Fatalf("NewSigner failed: %v", err)
	}
	if got := actionHash([]byte("action-a"), s.Vault(), 1); got == base {
		t.Error("Expected a vault to change the hash")
	}
}
