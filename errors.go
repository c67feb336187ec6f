package keycore

import (
	"errors"

	"github.com/buraq-dev/keycore/jwt"
	"github.com/buraq-dev/keycore/keystore"
	"github.com/buraq-dev/keycore/secrets"
)

// Errors returned by the Engine. Sub-package sentinels are re-exported so callers can
// match with errors.Is against a single import.
var (
	ErrConfiguration  = secrets.ErrConfiguration
	ErrEncoding       = secrets.ErrEncoding
	ErrFormat         = secrets.ErrFormat
	ErrDecoding       = secrets.ErrDecoding
	ErrAuthentication = secrets.ErrAuthentication
	ErrRandom         = secrets.ErrRandom

	ErrUnsupportedAlgorithm = jwt.ErrUnsupportedAlgorithm
	ErrKeyMismatch          = jwt.ErrKeyMismatch
	ErrGeneration           = jwt.ErrGeneration
	ErrInvalidKey           = jwt.ErrInvalidKey
	ErrInvalidClaims        = jwt.ErrInvalidClaims
	ErrInvalidToken         = jwt.ErrInvalidToken

	ErrStoreUnavailable = keystore.ErrStoreUnavailable
	ErrKeyNotFound      = keystore.ErrNotFound
	ErrCorruptRecord    = keystore.ErrCorruptRecord

	// ErrEngineNotReady is returned by server key operations when no store is configured.
	ErrEngineNotReady = errors.New("engine has no key store configured")
)
