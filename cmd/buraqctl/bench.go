package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/chainguard-dev/clog"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/buraq-dev/keycore"
	"github.com/buraq-dev/keycore/jwt"
	"github.com/buraq-dev/keycore/metrics/export/prometheus"
)

func newBenchCmd() *cobra.Command {
	var (
		resources   int
		concurrency int
		ops         int
		algName     string
		metrics     bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure secret and token throughput",
		Long: `Runs concurrent encrypt/decrypt and sign/verify phases against one engine and
prints latency percentiles per phase.

An in-memory Redis is started when BURAQ_REDIS_ADDR is empty.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if resources <= 0 || concurrency <= 0 || ops <= 0 {
				return fmt.Errorf("resources, concurrency, and ops must be > 0")
			}
			alg, err := parseAlgorithmFlag(algName)
			if err != nil {
				return err
			}

			engine, ctx, cleanup, err := openBenchEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ids := make([]uuid.UUID, resources)
			for i := range ids {
				ids[i] = uuid.New()
			}

			env := uuid.New()
			key, err := engine.IssueServerKey(ctx, env, alg)
			if err != nil {
				return err
			}
			defer func() { _ = engine.DeleteServerKey(ctx, env, key.ID) }()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "resources=%d concurrency=%d ops=%d alg=%s\n", resources, concurrency, ops, alg)

			secretStats := runPhase(ops, concurrency, func(i int) error {
				id := ids[i%len(ids)]
				payload, err := engine.EncryptSecret(fmt.Sprintf("secret-%d", i), id)
				if err != nil {
					return err
				}
				_, err = engine.DecryptSecret(payload, id)
				return err
			})
			printStats(out, "secrets", secretStats)

			tokenStats := runPhase(ops, concurrency, func(i int) error {
				token, err := engine.SignToken(ctx, env, key.ID, engine.NewClaims(fmt.Sprintf("user-%d", i)))
				if err != nil {
					return err
				}
				_, err = engine.VerifyToken(ctx, env, key.ID, token, jwt.ParseOptions{})
				return err
			})
			printStats(out, "tokens", tokenStats)

			if metrics {
				fmt.Fprint(out, prometheus.NewPrometheusExporter(engine).Render())
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&resources, "resources", 1000, "number of distinct resource ids")
	cmd.Flags().IntVar(&concurrency, "concurrency", 64, "number of concurrent workers")
	cmd.Flags().IntVar(&ops, "ops", 20000, "operations per phase")
	cmd.Flags().StringVarP(&algName, "alg", "a", jwt.HS256.String(), "server key algorithm for the token phase")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "print the engine metrics in Prometheus text format")
	return cmd
}

// openBenchEngine is openEngine with a miniredis fallback for the key store.
func openBenchEngine(cmd *cobra.Command) (*keycore.Engine, context.Context, func(), error) {
	cfg, err := keycore.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := keycore.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	builder := keycore.New().WithConfig(cfg)
	cleanup := func() {}
	if cfg.Store.RedisAddr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to start miniredis: %w", err)
		}
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		builder = builder.WithRedis(client)
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
	}

	engine, err := builder.Build()
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	release := cleanup
	cleanup = func() {
		_ = engine.Close()
		release()
	}
	return engine, clog.WithLogger(ctx, logger), cleanup, nil
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func runPhase(ops, concurrency int, op func(i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]time.Duration, 0, ops/concurrency+1)
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					break
				}
				t0 := time.Now()
				if err := op(i); err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				local = append(local, time.Since(t0))
			}
			mu.Lock()
			latencies = append(latencies, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(w io.Writer, name string, s phaseStats) {
	fmt.Fprintf(w, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
