package keystore

import "github.com/google/uuid"

// SealedKey is a persisted server key. Sealed is the encrypted, base64-encoded private
// key; PublicKey is the PEM public key and is empty for symmetric algorithms.
type SealedKey struct {
	ID            uuid.UUID
	EnvironmentID uuid.UUID
	Algorithm     string
	Sealed        string
	PublicKey     []byte
	CreatedAt     int64
}
