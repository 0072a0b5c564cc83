package crypto

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestRoundTrip(t *testing.T) {
	s, err := NewSealer(testKey)
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}
	for _, plain := range []string{"", "api-token-123", strings.Repeat("x", 4096)} {
		enc, err := s.Encrypt(plain)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		got, err := s.Decrypt(enc)
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		if got != plain {
			t.Fatalf("round trip mismatch: %q != %q", got, plain)
		}
	}
}

func TestHeaderLayout(t *testing.T) {
	s, _ := NewSealer(testKey)
	enc, err := s.Encrypt("secret")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	raw, err := hex.DecodeString(enc)
	if err != nil {
		t.Fatalf("output must be hex: %v", err)
	}
	if len(raw) != NonceSize+TagSize+len("secret") {
		t.Fatalf("sealed length = %d, want %d", len(raw), NonceSize+TagSize+len("secret"))
	}
}

func TestNonceUnique(t *testing.T) {
	s, _ := NewSealer(testKey)
	a, _ := s.Encrypt("same")
	b, _ := s.Encrypt("same")
	if a == b {
		t.Fatalf("two seals of the same plaintext must differ")
	}
}

func TestTamperDetection(t *testing.T) {
	s, _ := NewSealer(testKey)
	enc, _ := s.Encrypt("secret")
	raw, _ := hex.DecodeString(enc)
	raw[len(raw)-1] ^= 0xff
	if _, err := s.Decrypt(hex.EncodeToString(raw)); !errors.Is(err, ErrInvalidCiphertext) {
		t.Fatalf("expected ErrInvalidCiphertext, got %v", err)
	}
}

func TestDecryptGarbage(t *testing.T) {
	s, _ := NewSealer(testKey)
	for _, in := range []string{"", "zz", "deadbeef"} {
		if _, err := s.Decrypt(in); !errors.Is(err, ErrInvalidCiphertext) {
			t.Fatalf("input %q: expected ErrInvalidCiphertext, got %v", in, err)
		}
	}
}

func TestBadKey(t *testing.T) {
	if _, err := NewSealer("abcd"); err == nil {
		t.Fatalf("short key must fail")
	}
	if _, err := NewSealer("not-hex"); err == nil {
		t.Fatalf("non-hex key must fail")
	}
}
