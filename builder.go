package keycore

import (
	"crypto/rand"
	"errors"
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/buraq-dev/keycore/jwt"
	"github.com/buraq-dev/keycore/keystore"
	"github.com/buraq-dev/keycore/secrets"
)

// Builder assembles an Engine. A Builder is single-use.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	random io.Reader

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The master key is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithMasterKey sets Config.MasterKey.
func (b *Builder) WithMasterKey(key []byte) *Builder {
	b.config.MasterKey = append([]byte(nil), key...)
	return b
}

// WithRedis installs the client backing the sealed key store. It takes precedence over
// Config.Store.RedisAddr and is not closed by Engine.Close.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRandom overrides crypto/rand for IVs, key ids and key generation.
func (b *Builder) WithRandom(r io.Reader) *Builder {
	b.random = r
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	if !enabled {
		b.config.Metrics.EnableLatencyHistograms = false
	}
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	random := b.random
	if random == nil {
		random = rand.Reader
	}

	manager, err := secrets.NewManagerWithRandom(cfg.MasterKey, random)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:  cfg,
		secrets: manager,
		keys:    jwt.KeyBuilder{Random: random},
		random:  random,
		metrics: NewMetrics(cfg.Metrics),
	}

	client := b.redis
	if client == nil && cfg.Store.RedisAddr != "" {
		owned := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr})
		e.ownedRedis = owned
		client = owned
	}
	if client != nil {
		e.store = keystore.NewStore(client, cfg.Store.Prefix)
	}

	b.built = true
	return e, nil
}
