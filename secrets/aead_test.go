package secrets

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestAuthenticatedRoundTrip(t *testing.T) {
	m := newTestManager(t)
	sealed, err := m.SealAuthenticated("This is a secret message", fixedResourceID)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	opened, err := m.OpenAuthenticated(sealed, fixedResourceID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if opened != "This is a secret message" {
		t.Fatalf("unexpected plaintext %q", opened)
	}

	empty, err := m.SealAuthenticated("", fixedResourceID)
	if err != nil {
		t.Fatalf("seal empty: %v", err)
	}
	if got, err := m.OpenAuthenticated(empty, fixedResourceID); err != nil || got != "" {
		t.Fatalf("open empty: got %q, %v", got, err)
	}
}

func TestAuthenticatedRejectsWrongResource(t *testing.T) {
	m := newTestManager(t)
	sealed, err := m.SealAuthenticated("scoped", fixedResourceID)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := m.OpenAuthenticated(sealed, uuid.New()); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestAuthenticatedRejectsTampering(t *testing.T) {
	m := newTestManager(t)
	sealed, err := m.SealAuthenticated("tamper evident", fixedResourceID)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(sealed)
	for i := 1; i < len(raw); i++ {
		tampered := append([]byte(nil), raw...)
		tampered[i] ^= 0x01
		_, err := m.OpenAuthenticated(base64.StdEncoding.EncodeToString(tampered), fixedResourceID)
		if !errors.Is(err, ErrAuthentication) {
			t.Fatalf("byte %d flipped: expected ErrAuthentication, got %v", i, err)
		}
	}
}

func TestAuthenticatedFormatsAreSeparate(t *testing.T) {
	m := newTestManager(t)
	short := base64.StdEncoding.EncodeToString([]byte{0x02, 1, 2, 3})
	if _, err := m.OpenAuthenticated(short, fixedResourceID); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}

	legacy := make([]byte, 64)
	legacy[0] = 0x00
	if _, err := m.OpenAuthenticated(base64.StdEncoding.EncodeToString(legacy), fixedResourceID); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat for a non-v2 payload, got %v", err)
	}
	if _, err := m.OpenAuthenticated("%%%", fixedResourceID); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
}
