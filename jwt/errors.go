package jwt

import "errors"

var (
	// ErrUnsupportedAlgorithm is returned for EC/EdDSA key generation or signing and for
	// values outside the algorithm set.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	// ErrKeyMismatch is returned when a signing key cannot be used with the algorithm.
	ErrKeyMismatch = errors.New("key incompatible with algorithm")
	// ErrInvalidKey is returned when an external PEM private key cannot be loaded.
	ErrInvalidKey = errors.New("invalid private key")
	// ErrGeneration is returned when key generation fails in the random source or the
	// RSA generator.
	ErrGeneration = errors.New("key generation failed")
	// ErrInvalidClaims is returned when claims are missing or unusable.
	ErrInvalidClaims = errors.New("invalid claims")
	// ErrInvalidToken is returned when a token fails parsing or validation.
	ErrInvalidToken = errors.New("invalid token")
)
