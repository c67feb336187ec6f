package keycore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/buraq-dev/keycore/jwt"
)

// EnvPrefix is the environment variable prefix read by LoadConfig.
const EnvPrefix = "BURAQ"

const maxLeeway = 5 * time.Minute

// Config holds every setting of an Engine.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	// MasterKey is the root secret all resource keys derive from. It is never logged.
	MasterKey []byte
	Store     StoreConfig
	Token     TokenConfig
	Metrics   MetricsConfig
	LogLevel  string
}

// StoreConfig locates the Redis sealed key store. An empty RedisAddr leaves the store
// unconfigured unless a client is passed to Builder.WithRedis.
type StoreConfig struct {
	RedisAddr string
	Prefix    string
}

// TokenConfig carries defaults applied by Engine.NewClaims and Engine.VerifyToken.
type TokenConfig struct {
	Lifetime         time.Duration
	Issuer           string
	Audience         string
	Leeway           time.Duration
	DefaultAlgorithm jwt.Algorithm
}

// MetricsConfig toggles the in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

type envConfig struct {
	MasterKey      string        `envconfig:"MASTER_KEY" required:"true"`
	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	RedisPrefix    string        `envconfig:"REDIS_PREFIX" default:"bk"`
	TokenLifetime  time.Duration `envconfig:"TOKEN_LIFETIME" default:"15m"`
	TokenIssuer    string        `envconfig:"TOKEN_ISSUER"`
	TokenAudience  string        `envconfig:"TOKEN_AUDIENCE"`
	TokenAlgorithm string        `envconfig:"TOKEN_ALGORITHM" default:"RS256"`
	MetricsEnabled bool          `envconfig:"METRICS_ENABLED" default:"true"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
}

// DefaultConfig returns a Config with every default filled in and no master key.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Prefix: "bk",
		},
		Token: TokenConfig{
			Lifetime:         15 * time.Minute,
			DefaultAlgorithm: jwt.RS256,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
		LogLevel: "info",
	}
}

// LoadConfig reads BURAQ_* environment variables once. A missing BURAQ_MASTER_KEY is a
// fatal configuration error.
func LoadConfig() (Config, error) {
	var env envConfig
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	alg, err := jwt.ParseAlgorithm(env.TokenAlgorithm)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s_TOKEN_ALGORITHM: %v", ErrConfiguration, EnvPrefix, err)
	}

	cfg := defaultConfig()
	cfg.MasterKey = []byte(env.MasterKey)
	cfg.Store.RedisAddr = env.RedisAddr
	cfg.Store.Prefix = env.RedisPrefix
	cfg.Token.Lifetime = env.TokenLifetime
	cfg.Token.Issuer = env.TokenIssuer
	cfg.Token.Audience = env.TokenAudience
	cfg.Token.DefaultAlgorithm = alg
	cfg.Metrics.Enabled = env.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = env.MetricsEnabled
	cfg.LogLevel = env.LogLevel

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting. Every error wraps ErrConfiguration.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

func (c *Config) validate() error {
	if len(c.MasterKey) == 0 {
		return errors.New("master key is required")
	}

	if strings.TrimSpace(c.Store.Prefix) == "" {
		return errors.New("store prefix must not be blank")
	}
	if strings.ContainsAny(c.Store.Prefix, " \t\n") {
		return errors.New("store prefix must not contain whitespace")
	}

	if c.Token.Lifetime <= 0 {
		return errors.New("token lifetime must be > 0")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > maxLeeway {
		return fmt.Errorf("token leeway must be within [0, %s]", maxLeeway)
	}
	if c.Token.Issuer != "" && strings.TrimSpace(c.Token.Issuer) == "" {
		return errors.New("token issuer must not be blank")
	}
	if c.Token.Audience != "" && strings.TrimSpace(c.Token.Audience) == "" {
		return errors.New("token audience must not be blank")
	}
	if c.Token.DefaultAlgorithm.Spec().Kind == jwt.KindUnimplemented {
		return fmt.Errorf("default algorithm %s is not supported", c.Token.DefaultAlgorithm)
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("latency histograms require metrics to be enabled")
	}
	return nil
}

func cloneConfig(c Config) Config {
	out := c
	if c.MasterKey != nil {
		out.MasterKey = append([]byte(nil), c.MasterKey...)
	}
	return out
}
