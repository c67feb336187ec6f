package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const (
	authenticatedVersion = 0x02
	aeadKeySize          = 32
	gcmNonceSize         = 12
	gcmTagSize           = 16
)

var aeadInfo = []byte("buraq-secrets-aead-v2")

func (m *Manager) aead(id uuid.UUID) (cipher.AEAD, error) {
	key := make([]byte, aeadKeySize)
	kdf := hkdf.New(sha256.New, m.DeriveResourceKey(id), id[:], aeadInfo)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive aead key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// SealAuthenticated encrypts plaintext with AES-256-GCM under a key derived from the
// resource key, returning base64(version ‖ nonce ‖ ciphertext ‖ tag).
func (m *Manager) SealAuthenticated(plaintext string, id uuid.UUID) (string, error) {
	gcm, err := m.aead(id)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(m.random, nonce); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRandom, err)
	}

	out := make([]byte, 1, 1+gcmNonceSize+len(plaintext)+gcmTagSize)
	out[0] = authenticatedVersion
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, []byte(plaintext), id[:])

	return base64.StdEncoding.EncodeToString(out), nil
}

// OpenAuthenticated reverses SealAuthenticated. Any tampering or a wrong resource id
// fails with ErrAuthentication.
func (m *Manager) OpenAuthenticated(encoded string, id uuid.UUID) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if len(raw) < 1+gcmNonceSize+gcmTagSize || raw[0] != authenticatedVersion {
		return "", ErrFormat
	}

	gcm, err := m.aead(id)
	if err != nil {
		return "", err
	}

	nonce := raw[1 : 1+gcmNonceSize]
	plain, err := gcm.Open(nil, nonce, raw[1+gcmNonceSize:], id[:])
	if err != nil {
		return "", ErrAuthentication
	}
	if !utf8.Valid(plain) {
		return "", ErrDecoding
	}
	return string(plain), nil
}
