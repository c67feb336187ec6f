package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"

	"github.com/buraq-dev/keycore/mac"
)

// IVSize is the length of the random IV prepended to every legacy payload.
const IVSize = 16

// MasterKeyEnv is the environment variable read by NewManagerFromEnv.
const MasterKeyEnv = "BURAQ_MASTER_KEY"

// Manager derives resource keys from a master key and encrypts secrets under them.
// A Manager is immutable and safe for concurrent use.
type Manager struct {
	masterKey []byte
	random    io.Reader
}

type envConfig struct {
	MasterKey string `envconfig:"MASTER_KEY" required:"true"`
}

// NewManager builds a Manager over masterKey. The slice is copied.
func NewManager(masterKey []byte) (*Manager, error) {
	return NewManagerWithRandom(masterKey, rand.Reader)
}

// NewManagerWithRandom is NewManager with an explicit IV source.
func NewManagerWithRandom(masterKey []byte, random io.Reader) (*Manager, error) {
	if len(masterKey) == 0 {
		return nil, fmt.Errorf("%w: empty master key", ErrConfiguration)
	}
	return newManager(masterKey, random), nil
}

func newManager(masterKey []byte, random io.Reader) *Manager {
	if random == nil {
		random = rand.Reader
	}
	key := make([]byte, len(masterKey))
	copy(key, masterKey)
	return &Manager{masterKey: key, random: random}
}

// NewManagerFromEnv reads BURAQ_MASTER_KEY once and builds a Manager from its UTF-8
// bytes. An unset variable is a fatal configuration error for the caller. A variable set
// to the empty string is accepted and yields an empty HMAC key.
func NewManagerFromEnv() (*Manager, error) {
	var cfg envConfig
	if err := envconfig.Process("BURAQ", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s not set: %v", ErrConfiguration, MasterKeyEnv, err)
	}
	return newManager([]byte(cfg.MasterKey), rand.Reader), nil
}

// DeriveResourceKey returns HMAC-SHA256(masterKey, id[:]). Identical inputs always yield
// the identical key.
func (m *Manager) DeriveResourceKey(id uuid.UUID) []byte {
	return mac.SHA256.Sign(m.masterKey, id[:])
}

// Encrypt returns base64(iv ‖ plaintext XOR keystream).
func (m *Manager) Encrypt(plaintext string, id uuid.UUID) (string, error) {
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(m.random, iv); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRandom, err)
	}

	data := []byte(plaintext)
	keystream := BuildKeystream(m.DeriveResourceKey(id), iv, len(data))

	out := make([]byte, IVSize+len(data))
	copy(out, iv)
	xorInto(out[IVSize:], data, keystream)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Without an authentication tag a wrong resource id is only
// detected when the recovered bytes happen not to be valid UTF-8.
func (m *Manager) Decrypt(encoded string, id uuid.UUID) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if len(raw) <= IVSize {
		return "", ErrFormat
	}

	iv, ciphertext := raw[:IVSize], raw[IVSize:]
	keystream := BuildKeystream(m.DeriveResourceKey(id), iv, len(ciphertext))

	plain := make([]byte, len(ciphertext))
	xorInto(plain, ciphertext, keystream)

	if !utf8.Valid(plain) {
		return "", ErrDecoding
	}
	return string(plain), nil
}

// BuildKeystream expands key and iv into exactly length pseudorandom bytes.
//
//	seed = HMAC-SHA256(key, iv)
//	repeat: out += seed; seed = HMAC-SHA256(seed, 0x00)
//
// The output is truncated to length.
func BuildKeystream(key, iv []byte, length int) []byte {
	if length <= 0 {
		return []byte{}
	}
	zero := []byte{0}
	out := make([]byte, 0, length+mac.SHA256.OutputSize())
	seed := mac.SHA256.Sign(key, iv)
	for len(out) < length {
		out = append(out, seed...)
		seed = mac.SHA256.Sign(seed, zero)
	}
	return out[:length]
}

func xorInto(dst, src, keystream []byte) {
	for i := range src {
		dst[i] = src[i] ^ keystream[i]
	}
}
