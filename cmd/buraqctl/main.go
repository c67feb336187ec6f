package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/buraq-dev/keycore"
	"github.com/buraq-dev/keycore/jwt"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "buraqctl",
		Short: "buraqctl - key derivation, secret encryption and signing key tooling for buraq.",
		Long: `buraqctl drives the buraq key core from the command line.

Configuration is read from BURAQ_* environment variables. BURAQ_MASTER_KEY is required
for every command that touches secrets or stored keys; BURAQ_REDIS_ADDR enables the
sealed server key store.

Usage:
  buraqctl <command> [flags]
`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newKeygenCmd())
	rootCmd.AddCommand(newEncryptCmd())
	rootCmd.AddCommand(newDecryptCmd())
	rootCmd.AddCommand(newKeyCmd())
	rootCmd.AddCommand(newTokenCmd())
	rootCmd.AddCommand(newBenchCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openEngine builds an Engine from the environment and returns a context carrying a
// logger at the configured level.
func openEngine(cmd *cobra.Command) (*keycore.Engine, context.Context, error) {
	cfg, err := keycore.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := keycore.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	engine, err := keycore.New().WithConfig(cfg).Build()
	if err != nil {
		return nil, nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return engine, clog.WithLogger(ctx, logger), nil
}

func requireStore(engine *keycore.Engine) error {
	if !engine.HasStore() {
		return fmt.Errorf("%w: set %s_REDIS_ADDR", keycore.ErrEngineNotReady, keycore.EnvPrefix)
	}
	return nil
}

func parseUUIDFlag(name, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, fmt.Errorf("--%s is required", name)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("--%s: %v", name, err)
	}
	return id, nil
}

// parseAlgorithmFlag accepts algorithm names in any case ("rs256", "eddsa").
func parseAlgorithmFlag(value string) (jwt.Algorithm, error) {
	for _, alg := range jwt.Algorithms() {
		if strings.EqualFold(alg.String(), value) {
			return alg, nil
		}
	}
	return jwt.ParseAlgorithm(value)
}
