package keycore

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricSecretEncrypted)

	if got := m.Value(MetricSecretEncrypted); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricKeyGenerated)
	m.Observe(MetricKeyGenerationLatency, time.Second)
	if m.Enabled() || m.LatencyEnabled() || m.Value(MetricKeyGenerated) != 0 {
		t.Fatal("nil metrics must be inert")
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricTokenIssued)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricTokenIssued); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	observations := []time.Duration{
		500 * time.Microsecond,
		5 * time.Millisecond,
		20 * time.Millisecond,
		100 * time.Millisecond,
		200 * time.Millisecond,
		time.Second,
		3 * time.Second,
		10 * time.Second,
	}
	for _, d := range observations {
		m.Observe(MetricKeyGenerationLatency, d)
	}

	buckets := m.Snapshot().Histograms[MetricKeyGenerationLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsObserveIgnoresCounters(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Observe(MetricTokenIssued, time.Millisecond)

	snap := m.Snapshot()
	if _, ok := snap.Histograms[MetricTokenIssued]; ok {
		t.Fatal("counter ids must not produce histograms")
	}
	if _, ok := snap.Counters[MetricStoreLatency]; ok {
		t.Fatal("histogram ids must not appear as counters")
	}
	if len(snap.Histograms[MetricStoreLatency]) != 8 {
		t.Fatal("expected store latency histogram in snapshot")
	}
}

func TestMetricsLatencyDisabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricKeyGenerationLatency, time.Millisecond)
	if len(m.Snapshot().Histograms) != 0 {
		t.Fatal("expected no histograms when latency is disabled")
	}
}

func BenchmarkMetricsInc(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Inc(MetricSecretDecrypted)
		}
	})
}
