package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/mr-tron/base58"
)

func TestIsValidAddress(t *testing.T) {
	pubKey, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	valid := base58.Encode(pubKey)

	tests := []struct {
		name    string
		address string
		valid   bool
	}{
		{"generated key", valid, true},
		{"empty", "", false},
		{"too short", "abc", false},
		{"too long", strings.Repeat("1", 50), false},
		{"invalid charset", strings.Repeat("0", 44), false}, // 0 не входит в base58
		{"wrong decoded length", base58.Encode([]byte("short")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidAddress(tt.address); got != tt.valid {
				t.Errorf("IsValidAddress(%q) = %v, want %v", tt.address, got, tt.valid)
			}
		})
	}
}

func TestVerifySignedMessage_ValidSignature(t *testing.T) {
	pubKey, privKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	address := base58.Encode(pubKey)
	message := "Lil Gargs wallet verification\n\nDiscord ID: u1\nNonce: 12345"

	sig := ed25519.Sign(privKey, []byte(message))

	// base58 подпись (Phantom)
	ok, err := VerifySignedMessage(message, base58.Encode(sig), address)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected valid base58 signature")
	}

	// base64 подпись
	ok, err = VerifySignedMessage(message, base64.StdEncoding.EncodeToString(sig), address)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected valid base64 signature")
	}
}

func TestVerifySignedMessage_WrongKey(t *testing.T) {
	pubKey, _, _ := ed25519.GenerateKey(nil)
	_, otherPriv, _ := ed25519.GenerateKey(nil)
	address := base58.Encode(pubKey)
	message := "sign me"

	sig := ed25519.Sign(otherPriv, []byte(message))

	ok, err := VerifySignedMessage(message, base58.Encode(sig), address)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("signature from another key must not verify")
	}
}

func TestVerifySignedMessage_TamperedMessage(t *testing.T) {
	pubKey, privKey, _ := ed25519.GenerateKey(nil)
	address := base58.Encode(pubKey)

	sig := ed25519.Sign(privKey, []byte("original"))

	ok, err := VerifySignedMessage("tampered", base58.Encode(sig), address)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("signature over a different message must not verify")
	}
}

func TestVerifySignedMessage_MalformedInput(t *testing.T) {
	pubKey, _, _ := ed25519.GenerateKey(nil)
	address := base58.Encode(pubKey)

	tests := []struct {
		name      string
		message   string
		signature string
		address   string
	}{
		{"empty signature", "msg", "", address},
		{"empty message", "", "c2ln", address},
		{"garbage signature", "msg", "!!!not-an-encoding!!!", address},
		{"short signature", "msg", base58.Encode([]byte("short")), address},
		{"garbage address", "msg", base58.Encode(make([]byte, 64)), "0OIl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifySignedMessage(tt.message, tt.signature, tt.address)
			if ok {
				t.Fatal("malformed input must fail closed")
			}
			if err == nil {
				t.Fatal("malformed input should surface a decode error for observability")
			}
		})
	}
}
