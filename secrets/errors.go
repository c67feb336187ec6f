package secrets

import "errors"

var (
	// ErrConfiguration is returned when the master key is missing or empty.
	ErrConfiguration = errors.New("secrets manager configuration invalid")
	// ErrEncoding is returned when an encrypted payload is not valid base64.
	ErrEncoding = errors.New("encrypted payload is not valid base64")
	// ErrFormat is returned when a decoded payload is too short to hold its header.
	ErrFormat = errors.New("encrypted payload is too short")
	// ErrDecoding is returned when decrypted bytes are not valid UTF-8.
	ErrDecoding = errors.New("decrypted payload is not valid utf-8")
	// ErrAuthentication is returned by OpenAuthenticated when the tag does not verify.
	ErrAuthentication = errors.New("encrypted payload failed authentication")
	// ErrRandom is returned when the random source cannot supply an IV or nonce.
	ErrRandom = errors.New("random source failure")
)
