package mac

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// ErrGeneration is returned when the random source fails while generating a key.
var ErrGeneration = errors.New("mac key generation failed")

// KeyLength is a normalized symmetric key size.
type KeyLength uint16

const (
	Bits128 KeyLength = 128
	Bits192 KeyLength = 192
	Bits256 KeyLength = 256
	Bits384 KeyLength = 384
	Bits512 KeyLength = 512
)

// Bytes returns the length in bytes.
func (l KeyLength) Bytes() int {
	return int(l) / 8
}

// Bits returns the length in bits.
func (l KeyLength) Bits() int {
	return int(l)
}

// NearestKeyLength maps an arbitrary byte count to the smallest tier that holds it.
// Counts above 48 bytes map to 512 bits.
func NearestKeyLength(n int) KeyLength {
	switch {
	case n <= 16:
		return Bits128
	case n <= 24:
		return Bits192
	case n <= 32:
		return Bits256
	case n <= 48:
		return Bits384
	default:
		return Bits512
	}
}

// Key is an immutable (key bytes, hash family) pair.
type Key struct {
	key  []byte
	hash HashFunction
}

// NewKey copies key so later mutation of the caller's slice cannot change the Key.
func NewKey(key []byte, h HashFunction) Key {
	cp := make([]byte, len(key))
	copy(cp, key)
	return Key{key: cp, hash: h}
}

func (k Key) HashFunction() HashFunction {
	return k.hash
}

// Bytes returns a copy of the key material.
func (k Key) Bytes() []byte {
	cp := make([]byte, len(k.key))
	copy(cp, k.key)
	return cp
}

func (k Key) Len() int {
	return len(k.key)
}

func (k Key) Sign(data []byte) []byte {
	return k.hash.Sign(k.key, data)
}

func (k Key) Verify(data, mac []byte) bool {
	return k.hash.Verify(k.key, data, mac)
}

// GenerateKey fills length.Bytes() bytes from crypto/rand and wraps them with h.
func GenerateKey(h HashFunction, length KeyLength) (Key, error) {
	return GenerateKeyFrom(rand.Reader, h, length)
}

// GenerateKeyFrom is GenerateKey with an explicit random source.
func GenerateKeyFrom(r io.Reader, h HashFunction, length KeyLength) (Key, error) {
	if !h.Valid() {
		return Key{}, fmt.Errorf("%w: unknown hash function %d", ErrGeneration, uint8(h))
	}
	buf := make([]byte, length.Bytes())
	if _, err := io.ReadFull(r, buf); err != nil {
		return Key{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return Key{key: buf, hash: h}, nil
}
