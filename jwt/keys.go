package jwt

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/buraq-dev/keycore/mac"
	"github.com/buraq-dev/keycore/rsakey"
)

// KeyPair holds generated or loaded key material.
//
// For HMAC algorithms PrivateKey is the shared secret and PublicKey is nil. For RSA
// algorithms both fields are PEM encoded (PKCS#8 private, PKIX public).
type KeyPair struct {
	PrivateKey []byte
	PublicKey  []byte
}

func (k KeyPair) HasPublicKey() bool {
	return len(k.PublicKey) > 0
}

// KeyBuilder generates key material per algorithm. The zero value reads from
// crypto/rand and is safe for concurrent use.
type KeyBuilder struct {
	Random io.Reader
}

// NewKeyBuilder returns a KeyBuilder backed by crypto/rand.
func NewKeyBuilder() KeyBuilder {
	return KeyBuilder{Random: rand.Reader}
}

func (b KeyBuilder) random() io.Reader {
	if b.Random == nil {
		return rand.Reader
	}
	return b.Random
}

// GenerateKey produces key material for alg using the algorithm's recommended
// parameters.
func (b KeyBuilder) GenerateKey(alg Algorithm) (KeyPair, error) {
	spec := alg.Spec()
	switch spec.Kind {
	case KindSymmetric:
		return b.GenerateHMACKey(spec.Hash, nil)
	case KindAsymmetric:
		return b.GenerateRSAKey(spec.RSABits)
	default:
		return KeyPair{}, unimplemented(alg)
	}
}

// GenerateKeyWithLength overrides the symmetric key length with the tier nearest to
// length bytes. Any length up to 16, zero included, selects the 128-bit tier; a negative
// length keeps the recommended length. Asymmetric algorithms ignore length.
func (b KeyBuilder) GenerateKeyWithLength(alg Algorithm, length int) (KeyPair, error) {
	spec := alg.Spec()
	if spec.Kind != KindSymmetric {
		return b.GenerateKey(alg)
	}
	kl := symmetricKeyLength(spec.Hash, length)
	return b.GenerateHMACKey(spec.Hash, &kl)
}

func symmetricKeyLength(h mac.HashFunction, length int) mac.KeyLength {
	if length < 0 {
		return h.RecommendedKeyLength()
	}
	return mac.NearestKeyLength(length)
}

// GenerateHMACKey draws a random key of the given length (recommended when nil) and
// returns HMAC(key, "") as the shared secret.
func (b KeyBuilder) GenerateHMACKey(h mac.HashFunction, length *mac.KeyLength) (KeyPair, error) {
	kl := h.RecommendedKeyLength()
	if length != nil {
		kl = *length
	}
	key, err := mac.GenerateKeyFrom(b.random(), h, kl)
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return KeyPair{PrivateKey: key.Sign(nil)}, nil
}

// GenerateRSAKey generates an RSA pair of the given tier.
func (b KeyBuilder) GenerateRSAKey(bits rsakey.Bits) (KeyPair, error) {
	pair, err := rsakey.GeneratePairFrom(b.random(), bits)
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return KeyPair{PrivateKey: pair.PrivatePEM, PublicKey: pair.PublicPEM}, nil
}

// FromPrivateKeyPEM loads an external private key, re-encodes it as PKCS#8 and derives
// its PKIX public key.
func FromPrivateKeyPEM(pemKey string) (KeyPair, error) {
	signer, err := rsakey.ParsePrivateKey([]byte(pemKey))
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	priv, err := rsakey.EncodePrivateKey(signer)
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	pub, err := rsakey.EncodePublicKey(signer.Public())
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return KeyPair{PrivateKey: priv, PublicKey: pub}, nil
}

func unimplemented(alg Algorithm) error {
	switch alg {
	case ES256, ES384:
		return fmt.Errorf("%w: ECDSA key generation is not implemented (%s)", ErrUnsupportedAlgorithm, alg)
	case EdDSA:
		return fmt.Errorf("%w: EdDSA key generation is not implemented", ErrUnsupportedAlgorithm)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
}
