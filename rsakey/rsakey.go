package rsakey

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrUnsupportedBits is returned for bit lengths outside the supported tiers.
	ErrUnsupportedBits = errors.New("unsupported rsa key length")
	// ErrGeneration is returned when the underlying generator fails.
	ErrGeneration = errors.New("rsa key generation failed")
	// ErrInvalidPEM is returned when a PEM private key cannot be parsed.
	ErrInvalidPEM = errors.New("invalid pem private key")
)

const (
	pemTypePrivate    = "PRIVATE KEY"
	pemTypeRSAPrivate = "RSA PRIVATE KEY"
	pemTypePublic     = "PUBLIC KEY"
)

// Bits is a supported RSA modulus size.
type Bits int

const (
	Bits2048 Bits = 2048
	Bits3072 Bits = 3072
	Bits4096 Bits = 4096
	Bits8192 Bits = 8192
)

// All returns every supported tier in ascending order.
func All() []Bits {
	return []Bits{Bits2048, Bits3072, Bits4096, Bits8192}
}

// FromBits maps a raw bit count to a tier.
func FromBits(bits int) (Bits, bool) {
	switch Bits(bits) {
	case Bits2048, Bits3072, Bits4096, Bits8192:
		return Bits(bits), true
	default:
		return 0, false
	}
}

func (b Bits) Int() int {
	return int(b)
}

func (b Bits) Valid() bool {
	_, ok := FromBits(int(b))
	return ok
}

// Pair is a generated key pair with its PEM encodings.
type Pair struct {
	Private    *rsa.PrivateKey
	PrivatePEM []byte
	PublicPEM  []byte
}

// Public returns the public half of the pair.
func (p Pair) Public() *rsa.PublicKey {
	return &p.Private.PublicKey
}

// GeneratePair generates a key of the given tier from crypto/rand.
func GeneratePair(bits Bits) (Pair, error) {
	return GeneratePairFrom(rand.Reader, bits)
}

// GeneratePairFrom is GeneratePair with an explicit random source.
func GeneratePairFrom(r io.Reader, bits Bits) (Pair, error) {
	if !bits.Valid() {
		return Pair{}, fmt.Errorf("%w: %d", ErrUnsupportedBits, int(bits))
	}
	key, err := rsa.GenerateKey(r, bits.Int())
	if err != nil {
		return Pair{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	privPEM, err := EncodePrivateKey(key)
	if err != nil {
		return Pair{}, err
	}
	pubPEM, err := EncodePublicKey(&key.PublicKey)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Private: key, PrivatePEM: privPEM, PublicPEM: pubPEM}, nil
}

// EncodePrivateKey returns key as a PKCS#8 "PRIVATE KEY" PEM block.
func EncodePrivateKey(key crypto.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePrivate, Bytes: der}), nil
}

// EncodePublicKey returns key as a PKIX "PUBLIC KEY" PEM block.
func EncodePublicKey(key crypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePublic, Bytes: der}), nil
}

// ParsePrivateKey decodes a PKCS#8 or PKCS#1 PEM private key. Any key type that
// implements crypto.Signer is accepted.
func ParsePrivateKey(data []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no pem block found", ErrInvalidPEM)
	}

	var (
		parsed any
		err    error
	)
	switch block.Type {
	case pemTypeRSAPrivate:
		parsed, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	case pemTypePrivate:
		parsed, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	default:
		return nil, fmt.Errorf("%w: unexpected block type %q", ErrInvalidPEM, block.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPEM, err)
	}

	signer, ok := parsed.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("%w: key does not support signing", ErrInvalidPEM)
	}
	return signer, nil
}
