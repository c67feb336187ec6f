package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/buraq-dev/keycore"
)

type fakeSource struct {
	snapshot keycore.MetricsSnapshot
}

func (f fakeSource) MetricsSnapshot() keycore.MetricsSnapshot { return f.snapshot }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: keycore.MetricsSnapshot{
			Counters:   map[keycore.MetricID]uint64{},
			Histograms: map[keycore.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderDeterministicIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: keycore.MetricsSnapshot{
			Counters: map[keycore.MetricID]uint64{
				keycore.MetricTokenIssued: 7,
			},
			Histograms: map[keycore.MetricID][]uint64{
				keycore.MetricKeyGenerationLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
	})

	out := exp.Render()
	if !strings.Contains(out, "buraq_token_issued_total 7") {
		t.Fatalf("expected token issued counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "buraq_key_generation_latency_seconds_bucket{le=\"0.001\"} 1") {
		t.Fatalf("expected first histogram bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "buraq_key_generation_latency_seconds_bucket{le=\"+Inf\"} 36") {
		t.Fatalf("expected +Inf cumulative bucket in output, got:\n%s", out)
	}
	if strings.Contains(out, "buraq_store_latency_seconds") {
		t.Fatalf("expected absent histogram to be skipped, got:\n%s", out)
	}
	if out != exp.Render() {
		t.Fatal("expected deterministic output")
	}
}

func TestRenderFromEngine(t *testing.T) {
	engine, err := keycore.New().WithMasterKey([]byte("prometheus-test")).Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	if _, err := engine.EncryptSecret("s3cret", uuid.New()); err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	out := NewPrometheusExporter(engine).Render()
	if !strings.Contains(out, "buraq_secret_encrypted_total 1") {
		t.Fatalf("expected engine counter in output, got:\n%s", out)
	}
	if strings.Contains(out, "s3cret") {
		t.Fatal("metrics output must not contain secrets")
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: keycore.MetricsSnapshot{
			Counters:   map[keycore.MetricID]uint64{keycore.MetricKeyGenerated: 1},
			Histograms: map[keycore.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "buraq_key_generated_total 1") {
		t.Fatalf("unexpected body:\n%s", rec.Body.String())
	}
}

func TestRenderHistogramTrailer(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: keycore.MetricsSnapshot{
			Counters: map[keycore.MetricID]uint64{},
			Histograms: map[keycore.MetricID][]uint64{
				keycore.MetricStoreLatency: {2, 0, 1},
			},
		},
	})

	out := exp.Render()
	want := strings.Join([]string{
		"# HELP buraq_store_latency_seconds Key store round trip latency histogram.",
		"# TYPE buraq_store_latency_seconds histogram",
		`buraq_store_latency_seconds_bucket{le="0.001"} 2`,
		`buraq_store_latency_seconds_bucket{le="0.005"} 2`,
		`buraq_store_latency_seconds_bucket{le="0.025"} 3`,
	}, "\n")
	if !strings.Contains(out, want) {
		t.Fatalf("expected histogram header and buckets, got:\n%s", out)
	}
	if !strings.Contains(out, "buraq_store_latency_seconds_count 3\nburaq_store_latency_seconds_sum 0\n") {
		t.Fatalf("expected _count then _sum, got:\n%s", out)
	}
	if !strings.HasPrefix(out, "# HELP buraq_secret_encrypted_total ") {
		t.Fatalf("expected counters first, got:\n%s", out)
	}
}

func TestRenderNilExporter(t *testing.T) {
	var exp *PrometheusExporter
	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestEscapeHelp(t *testing.T) {
	if got := escapeHelp("a\\b\nc"); got != "a\\\\b\\nc" {
		t.Fatalf("unexpected escape %q", got)
	}
}
