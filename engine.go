package keycore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/buraq-dev/keycore/internal"
	"github.com/buraq-dev/keycore/jwt"
	"github.com/buraq-dev/keycore/keystore"
	"github.com/buraq-dev/keycore/secrets"
)

// Engine is the keycore facade: secret encryption, key generation, sealed server keys
// and token issuance. Engine methods are safe for concurrent use after Build.
type Engine struct {
	config  Config
	secrets *secrets.Manager
	keys    jwt.KeyBuilder
	random  io.Reader
	store   *keystore.Store
	metrics *Metrics

	ownedRedis *redis.Client
}

// ServerKey describes a sealed server key without any private material.
type ServerKey struct {
	ID            uuid.UUID
	EnvironmentID uuid.UUID
	Algorithm     jwt.Algorithm
	PublicKey     []byte
	CreatedAt     time.Time
}

// Config returns a copy of the Engine configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// HasStore reports whether server key operations are available.
func (e *Engine) HasStore() bool {
	return e.store != nil
}

// MetricsSnapshot returns the current counters and histograms.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// Close releases the Redis client created from Config.Store.RedisAddr. Clients passed to
// Builder.WithRedis are left open.
func (e *Engine) Close() error {
	if e.ownedRedis == nil {
		return nil
	}
	return e.ownedRedis.Close()
}

// Ping checks the key store.
func (e *Engine) Ping(ctx context.Context) error {
	if e.store == nil {
		return ErrEngineNotReady
	}
	return e.store.Ping(ctx)
}

// EncryptSecret encrypts plaintext under the key derived for resourceID.
func (e *Engine) EncryptSecret(plaintext string, resourceID uuid.UUID) (string, error) {
	out, err := e.secrets.Encrypt(plaintext, resourceID)
	if err != nil {
		e.metrics.Inc(MetricSecretEncryptFailure)
		return "", generationError(err)
	}
	e.metrics.Inc(MetricSecretEncrypted)
	return out, nil
}

// DecryptSecret reverses EncryptSecret.
func (e *Engine) DecryptSecret(payload string, resourceID uuid.UUID) (string, error) {
	out, err := e.secrets.Decrypt(payload, resourceID)
	if err != nil {
		e.metrics.Inc(MetricSecretDecryptFailure)
		return "", err
	}
	e.metrics.Inc(MetricSecretDecrypted)
	return out, nil
}

// SealSecret is EncryptSecret using the authenticated payload format.
func (e *Engine) SealSecret(plaintext string, resourceID uuid.UUID) (string, error) {
	out, err := e.secrets.SealAuthenticated(plaintext, resourceID)
	if err != nil {
		e.metrics.Inc(MetricSecretEncryptFailure)
		return "", generationError(err)
	}
	e.metrics.Inc(MetricSecretEncrypted)
	return out, nil
}

// OpenSecret reverses SealSecret. A tampered payload or a wrong resourceID fails with
// ErrAuthentication.
func (e *Engine) OpenSecret(payload string, resourceID uuid.UUID) (string, error) {
	out, err := e.secrets.OpenAuthenticated(payload, resourceID)
	if err != nil {
		e.metrics.Inc(MetricSecretDecryptFailure)
		return "", err
	}
	e.metrics.Inc(MetricSecretDecrypted)
	return out, nil
}

// GenerateKey produces key material for alg.
func (e *Engine) GenerateKey(alg jwt.Algorithm) (jwt.KeyPair, error) {
	return e.generate(func() (jwt.KeyPair, error) {
		return e.keys.GenerateKey(alg)
	})
}

// GenerateKeyWithLength is GenerateKey with a symmetric key length override in bytes. A
// negative length keeps the recommended length.
func (e *Engine) GenerateKeyWithLength(alg jwt.Algorithm, length int) (jwt.KeyPair, error) {
	return e.generate(func() (jwt.KeyPair, error) {
		return e.keys.GenerateKeyWithLength(alg, length)
	})
}

func (e *Engine) generate(fn func() (jwt.KeyPair, error)) (jwt.KeyPair, error) {
	start := time.Now()
	pair, err := fn()
	e.metrics.Observe(MetricKeyGenerationLatency, time.Since(start))
	if err != nil {
		e.metrics.Inc(MetricKeyGenerationFailure)
		return jwt.KeyPair{}, err
	}
	e.metrics.Inc(MetricKeyGenerated)
	return pair, nil
}

// NewClaims returns claims for subject with the configured lifetime, issuer and
// audience.
func (e *Engine) NewClaims(subject string) *jwt.Claims {
	claims := jwt.NewClaims(subject, e.config.Token.Lifetime)
	if e.config.Token.Issuer != "" {
		claims.WithIssuer(e.config.Token.Issuer)
	}
	if e.config.Token.Audience != "" {
		claims.WithAudience(e.config.Token.Audience)
	}
	return claims
}

// IssueServerKey generates a key for alg, seals its private half under envID and stores
// it. The private key never leaves the Engine unsealed.
func (e *Engine) IssueServerKey(ctx context.Context, envID uuid.UUID, alg jwt.Algorithm) (*ServerKey, error) {
	if e.store == nil {
		return nil, ErrEngineNotReady
	}

	pair, err := e.GenerateKey(alg)
	if err != nil {
		return nil, err
	}
	return e.storeServerKey(ctx, envID, alg, pair)
}

// ImportServerKey seals and stores an externally generated PEM private key for an
// asymmetric alg.
func (e *Engine) ImportServerKey(ctx context.Context, envID uuid.UUID, alg jwt.Algorithm, pemKey string) (*ServerKey, error) {
	if e.store == nil {
		return nil, ErrEngineNotReady
	}
	switch alg.Spec().Kind {
	case jwt.KindAsymmetric:
	case jwt.KindSymmetric:
		return nil, fmt.Errorf("%w: %s does not use a pem private key", ErrKeyMismatch, alg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}

	pair, err := jwt.FromPrivateKeyPEM(pemKey)
	if err != nil {
		return nil, err
	}
	if err := jwt.CheckSigningKey(pair, alg); err != nil {
		return nil, err
	}
	return e.storeServerKey(ctx, envID, alg, pair)
}

func (e *Engine) storeServerKey(ctx context.Context, envID uuid.UUID, alg jwt.Algorithm, pair jwt.KeyPair) (*ServerKey, error) {
	log := loggerFromContext(ctx)

	sealed, err := e.secrets.Encrypt(internal.EncodeKeyMaterial(pair.PrivateKey), envID)
	if err != nil {
		return nil, generationError(err)
	}
	id, err := internal.NewKeyID(e.random)
	if err != nil {
		return nil, fmt.Errorf("%w: key id: %v", ErrGeneration, err)
	}

	record := &keystore.SealedKey{
		ID:            id,
		EnvironmentID: envID,
		Algorithm:     alg.String(),
		Sealed:        sealed,
		PublicKey:     pair.PublicKey,
		CreatedAt:     time.Now().Unix(),
	}

	start := time.Now()
	err = e.store.Save(ctx, record)
	e.metrics.Observe(MetricStoreLatency, time.Since(start))
	if err != nil {
		e.metrics.Inc(MetricStoreFailure)
		log.Warnf("storing server key for environment %s failed: %v", envID, err)
		return nil, err
	}

	e.metrics.Inc(MetricServerKeyStored)
	log.Infof("stored %s server key %s for environment %s", alg, id, envID)
	return toServerKey(record, alg), nil
}

// OpenServerKey loads and unseals a stored key.
func (e *Engine) OpenServerKey(ctx context.Context, envID, keyID uuid.UUID) (jwt.KeyPair, jwt.Algorithm, error) {
	if e.store == nil {
		return jwt.KeyPair{}, 0, ErrEngineNotReady
	}
	log := loggerFromContext(ctx)

	record, err := e.load(ctx, envID, keyID)
	if err != nil {
		return jwt.KeyPair{}, 0, err
	}

	alg, err := jwt.ParseAlgorithm(record.Algorithm)
	if err != nil {
		return jwt.KeyPair{}, 0, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}

	encoded, err := e.secrets.Decrypt(record.Sealed, envID)
	if err != nil {
		log.Warnf("unsealing server key %s failed: %v", keyID, err)
		return jwt.KeyPair{}, 0, err
	}
	priv, err := internal.DecodeKeyMaterial(encoded)
	if err != nil {
		log.Warnf("server key %s unsealed to invalid key material", keyID)
		return jwt.KeyPair{}, 0, fmt.Errorf("%w: %v", ErrDecoding, err)
	}

	e.metrics.Inc(MetricServerKeyOpened)
	log.Debugf("opened server key %s for environment %s", keyID, envID)
	return jwt.KeyPair{PrivateKey: priv, PublicKey: record.PublicKey}, alg, nil
}

// DeleteServerKey removes a stored key. A missing key returns ErrKeyNotFound.
func (e *Engine) DeleteServerKey(ctx context.Context, envID, keyID uuid.UUID) error {
	if e.store == nil {
		return ErrEngineNotReady
	}

	start := time.Now()
	existed, err := e.store.Delete(ctx, envID, keyID)
	e.metrics.Observe(MetricStoreLatency, time.Since(start))
	if err != nil {
		e.metrics.Inc(MetricStoreFailure)
		return err
	}
	if !existed {
		return ErrKeyNotFound
	}

	e.metrics.Inc(MetricServerKeyDeleted)
	loggerFromContext(ctx).Infof("deleted server key %s for environment %s", keyID, envID)
	return nil
}

// ListServerKeys returns the keys of envID ordered by creation time.
func (e *Engine) ListServerKeys(ctx context.Context, envID uuid.UUID) ([]ServerKey, error) {
	if e.store == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	records, err := e.store.ListByEnvironment(ctx, envID)
	e.metrics.Observe(MetricStoreLatency, time.Since(start))
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			e.metrics.Inc(MetricStoreFailure)
		}
		return nil, err
	}

	out := make([]ServerKey, 0, len(records))
	for _, record := range records {
		alg, err := jwt.ParseAlgorithm(record.Algorithm)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}
		out = append(out, *toServerKey(record, alg))
	}
	return out, nil
}

// SignToken signs claims with the stored key keyID. Config issuer and audience fill in
// when claims leave them empty. The token carries keyID as its "kid" header.
func (e *Engine) SignToken(ctx context.Context, envID, keyID uuid.UUID, claims *jwt.Claims) (string, error) {
	if claims == nil {
		e.metrics.Inc(MetricTokenIssueFailure)
		return "", fmt.Errorf("%w: nil claims", ErrInvalidClaims)
	}

	key, alg, err := e.OpenServerKey(ctx, envID, keyID)
	if err != nil {
		e.metrics.Inc(MetricTokenIssueFailure)
		return "", err
	}

	c := *claims
	if c.Issuer == "" {
		c.Issuer = e.config.Token.Issuer
	}
	if len(c.Audience) == 0 && e.config.Token.Audience != "" {
		c.Audience = []string{e.config.Token.Audience}
	}

	token, err := jwt.CreateJWTWithKeyID(&c, key, alg, keyID.String())
	if err != nil {
		e.metrics.Inc(MetricTokenIssueFailure)
		return "", err
	}
	e.metrics.Inc(MetricTokenIssued)
	loggerFromContext(ctx).Debugf("issued %s token with key %s", alg, keyID)
	return token, nil
}

// VerifyToken validates token against the stored key keyID. Empty fields of opts fall
// back to the configured issuer, audience and leeway.
func (e *Engine) VerifyToken(ctx context.Context, envID, keyID uuid.UUID, token string, opts jwt.ParseOptions) (*jwt.Claims, error) {
	key, alg, err := e.OpenServerKey(ctx, envID, keyID)
	if err != nil {
		e.metrics.Inc(MetricTokenRejected)
		return nil, err
	}

	if opts.Issuer == "" {
		opts.Issuer = e.config.Token.Issuer
	}
	if opts.Audience == "" {
		opts.Audience = e.config.Token.Audience
	}
	if opts.Leeway == 0 {
		opts.Leeway = e.config.Token.Leeway
	}
	opts.KeyID = keyID.String()

	claims, err := jwt.ParseJWT(token, key, alg, opts)
	if err != nil {
		e.metrics.Inc(MetricTokenRejected)
		loggerFromContext(ctx).Debugf("rejected token for key %s: %v", keyID, err)
		return nil, err
	}
	e.metrics.Inc(MetricTokenValidated)
	return claims, nil
}

func (e *Engine) load(ctx context.Context, envID, keyID uuid.UUID) (*keystore.SealedKey, error) {
	start := time.Now()
	record, err := e.store.Get(ctx, envID, keyID)
	e.metrics.Observe(MetricStoreLatency, time.Since(start))
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			e.metrics.Inc(MetricStoreFailure)
		}
		return nil, err
	}
	return record, nil
}

func toServerKey(record *keystore.SealedKey, alg jwt.Algorithm) *ServerKey {
	return &ServerKey{
		ID:            record.ID,
		EnvironmentID: record.EnvironmentID,
		Algorithm:     alg,
		PublicKey:     record.PublicKey,
		CreatedAt:     time.Unix(record.CreatedAt, 0),
	}
}

// generationError marks a failed IV or nonce draw as ErrGeneration while keeping
// ErrRandom matchable.
func generationError(err error) error {
	if errors.Is(err, ErrRandom) && !errors.Is(err, ErrGeneration) {
		return fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return err
}
