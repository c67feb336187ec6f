package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"

	"github.com/google/uuid"
)

// NewKeyID draws a random (version 4) key id from r, or crypto/rand when r is nil.
func NewKeyID(r io.Reader) (uuid.UUID, error) {
	if r == nil {
		r = rand.Reader
	}
	return uuid.NewRandomFromReader(r)
}

// EncodeKeyMaterial returns the standard base64 text form sealed by the secrets manager.
func EncodeKeyMaterial(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// DecodeKeyMaterial reverses EncodeKeyMaterial.
func DecodeKeyMaterial(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("empty key material")
	}
	return raw, nil
}
