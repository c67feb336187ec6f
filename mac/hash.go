package mac

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"golang.org/x/crypto/sha3"
)

// HashFunction selects the hash family used by HMAC.
type HashFunction uint8

const (
	SHA256 HashFunction = iota
	SHA512
	SHA3_256
	SHA3_512
	hashFunctionCount
)

// HashFunctions lists every supported family in declaration order.
func HashFunctions() []HashFunction {
	return []HashFunction{SHA256, SHA512, SHA3_256, SHA3_512}
}

// Valid reports whether h is one of the four supported families.
func (h HashFunction) Valid() bool {
	return h < hashFunctionCount
}

// Name returns the canonical family name ("SHA256", "SHA512", "SHA3_256", "SHA3_512").
func (h HashFunction) Name() string {
	switch h {
	case SHA256:
		return "SHA256"
	case SHA512:
		return "SHA512"
	case SHA3_256:
		return "SHA3_256"
	case SHA3_512:
		return "SHA3_512"
	default:
		return "UNKNOWN"
	}
}

func (h HashFunction) String() string {
	return h.Name()
}

// RecommendedKeyLength returns a key length equal to the family's output size.
func (h HashFunction) RecommendedKeyLength() KeyLength {
	switch h {
	case SHA512, SHA3_512:
		return Bits512
	default:
		return Bits256
	}
}

// OutputSize returns the MAC size in bytes: 32 for the 256-bit families, 64 otherwise.
func (h HashFunction) OutputSize() int {
	switch h {
	case SHA256, SHA3_256:
		return 32
	case SHA512, SHA3_512:
		return 64
	default:
		return 0
	}
}

func (h HashFunction) newHash() func() hash.Hash {
	switch h {
	case SHA256:
		return sha256.New
	case SHA512:
		return sha512.New
	case SHA3_256:
		return sha3.New256
	case SHA3_512:
		return sha3.New512
	default:
		return nil
	}
}

// Sign computes HMAC(key, data) with the receiver's hash family.
// It returns nil for a HashFunction outside the supported set.
func (h HashFunction) Sign(key, data []byte) []byte {
	newHash := h.newHash()
	if newHash == nil {
		return nil
	}
	m := hmac.New(newHash, key)
	m.Write(data)
	return m.Sum(nil)
}

// Verify recomputes the MAC and compares it with mac.
//
// The comparison is plain equality (bytes.Equal), not hmac.Equal.
func (h HashFunction) Verify(key, data, mac []byte) bool {
	computed := h.Sign(key, data)
	if computed == nil {
		return false
	}
	return bytes.Equal(computed, mac)
}

// Sign is the function form of [HashFunction.Sign].
func Sign(h HashFunction, key, data []byte) []byte {
	return h.Sign(key, data)
}

// Verify is the function form of [HashFunction.Verify].
func Verify(h HashFunction, key, data, mac []byte) bool {
	return h.Verify(key, data, mac)
}
