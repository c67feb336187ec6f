package otel

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/buraq-dev/keycore"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot keycore.MetricsSnapshot
}

func (f *fakeSource) MetricsSnapshot() keycore.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := keycore.MetricsSnapshot{
		Counters:   make(map[keycore.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[keycore.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		out.Histograms[k] = append([]uint64(nil), buckets...)
	}
	return out
}

func newTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func findSum(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok || len(sum.DataPoints) == 0 {
				t.Fatalf("metric %s has unexpected data %T", name, m.Data)
			}
			return sum.DataPoints[0].Value
		}
	}
	t.Fatalf("metric %s not collected", name)
	return 0
}

func findGauge(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			g, ok := m.Data.(metricdata.Gauge[int64])
			if !ok || len(g.DataPoints) == 0 {
				t.Fatalf("metric %s has unexpected data %T", name, m.Data)
			}
			return g.DataPoints[0].Value
		}
	}
	t.Fatalf("metric %s not collected", name)
	return 0
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader, provider := newTestMeter()
	meter := provider.Meter("keycore-test")

	src := &fakeSource{
		snapshot: keycore.MetricsSnapshot{
			Counters: map[keycore.MetricID]uint64{
				keycore.MetricTokenValidated: 3,
			},
			Histograms: map[keycore.MetricID][]uint64{
				keycore.MetricKeyGenerationLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := findSum(t, rm, "buraq_token_validated_total"); got != 3 {
		t.Fatalf("expected 3 validated tokens, got %d", got)
	}
	if got := findGauge(t, rm, "buraq_key_generation_latency_seconds_bucket_le_0_025"); got != 3 {
		t.Fatalf("expected cumulative bucket 3, got %d", got)
	}
	if got := findGauge(t, rm, "buraq_key_generation_latency_seconds_count"); got != 8 {
		t.Fatalf("expected count 8, got %d", got)
	}
}

func TestExporterFromEngine(t *testing.T) {
	reader, provider := newTestMeter()
	engine, err := keycore.New().WithMasterKey([]byte("otel-test")).Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}

	exp, err := NewOTelExporter(provider.Meter("keycore-engine"), engine)
	if err != nil {
		t.Fatalf("NewOTelExporter failed: %v", err)
	}
	defer exp.Close()

	id := uuid.New()
	payload, err := engine.EncryptSecret("value", id)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if _, err := engine.DecryptSecret(payload, id); err != nil {
		t.Fatalf("decrypt: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := findSum(t, rm, "buraq_secret_decrypted_total"); got != 1 {
		t.Fatalf("expected 1 decryption, got %d", got)
	}
}

func TestExporterRejectsNilInputs(t *testing.T) {
	_, provider := newTestMeter()
	meter := provider.Meter("keycore-test")

	if _, err := NewOTelExporterFromSource(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewOTelExporter(meter, nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource for nil engine, got %v", err)
	}
	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader, provider := newTestMeter()
	meter := provider.Meter("keycore-test")

	src := &fakeSource{
		snapshot: keycore.MetricsSnapshot{
			Counters: map[keycore.MetricID]uint64{
				keycore.MetricKeyGenerated: 1,
			},
			Histograms: map[keycore.MetricID][]uint64{
				keycore.MetricStoreLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[keycore.MetricKeyGenerated] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}

func TestExporterReadsFreshSnapshotEachCollection(t *testing.T) {
	reader, provider := newTestMeter()
	src := &fakeSource{
		snapshot: keycore.MetricsSnapshot{
			Counters:   map[keycore.MetricID]uint64{keycore.MetricServerKeyStored: 1},
			Histograms: map[keycore.MetricID][]uint64{keycore.MetricStoreLatency: {1}},
		},
	}
	exp, err := NewOTelExporterFromSource(provider.Meter("keycore-test"), src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer exp.Close()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := findGauge(t, rm, "buraq_store_latency_seconds_bucket_le_inf"); got != 1 {
		t.Fatalf("expected +Inf bucket 1, got %d", got)
	}

	src.mu.Lock()
	src.snapshot.Counters[keycore.MetricServerKeyStored] = 4
	src.snapshot.Histograms[keycore.MetricStoreLatency] = []uint64{1, 0, 0, 0, 0, 0, 2}
	src.mu.Unlock()

	rm = metricdata.ResourceMetrics{}
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := findSum(t, rm, "buraq_server_key_stored_total"); got != 4 {
		t.Fatalf("expected 4 stored keys, got %d", got)
	}
	if got := findGauge(t, rm, "buraq_store_latency_seconds_count"); got != 3 {
		t.Fatalf("expected count 3, got %d", got)
	}
	if got := findGauge(t, rm, "buraq_store_latency_seconds_bucket_le_0_001"); got != 1 {
		t.Fatalf("expected first bucket 1, got %d", got)
	}
}
