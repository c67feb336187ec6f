package prometheus

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/buraq-dev/keycore"
	"github.com/buraq-dev/keycore/metrics/export/internaldefs"
)

const contentType = "text/plain; version=0.0.4; charset=utf-8"

type metricsSource interface {
	MetricsSnapshot() keycore.MetricsSnapshot
}

// family is one metric name with its HELP/TYPE header and samples.
type family struct {
	name    string
	help    string
	kind    string
	samples []sample
}

type sample struct {
	suffix string
	labels string
	value  uint64
}

// PrometheusExporter serves a keycore snapshot as a text exposition page. Each scrape
// reads a fresh snapshot; nothing is cached between scrapes.
type PrometheusExporter struct {
	source metricsSource
}

func NewPrometheusExporter(engine *keycore.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource is NewPrometheusExporter over any snapshot source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler writes the exposition page for every request.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_ = p.write(w)
	})
}

// Render returns the exposition page. A source with metrics disabled yields "".
func (p *PrometheusExporter) Render() string {
	var b strings.Builder
	_ = p.write(&b)
	return b.String()
}

func (p *PrometheusExporter) write(w io.Writer) error {
	for _, f := range p.families() {
		if err := writeFamily(w, f); err != nil {
			return err
		}
	}
	return nil
}

func (p *PrometheusExporter) families() []family {
	if p == nil || p.source == nil {
		return nil
	}
	snap := p.source.MetricsSnapshot()
	if len(snap.Counters) == 0 && len(snap.Histograms) == 0 {
		return nil
	}

	out := make([]family, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs))
	for _, def := range internaldefs.CounterDefs {
		out = append(out, family{
			name:    def.Name,
			help:    def.Help,
			kind:    "counter",
			samples: []sample{{value: snap.Counters[def.ID]}},
		})
	}
	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snap.Histograms[def.ID]
		if !ok {
			continue
		}
		out = append(out, histogramFamily(def, raw))
	}
	return out
}

// histogramFamily expands raw bucket counts into cumulative le buckets, _count and a
// zero _sum. Observed durations are not summed.
func histogramFamily(def internaldefs.HistogramDef, raw []uint64) family {
	cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw))
	f := family{name: def.Name, help: def.Help, kind: "histogram"}
	for i, le := range internaldefs.HistogramBounds {
		f.samples = append(f.samples, sample{
			suffix: "_bucket",
			labels: fmt.Sprintf("{le=%q}", le),
			value:  cumulative[i],
		})
	}
	f.samples = append(f.samples,
		sample{suffix: "_count", value: cumulative[len(cumulative)-1]},
		sample{suffix: "_sum"},
	)
	return f
}

func writeFamily(w io.Writer, f family) error {
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n", f.name, escapeHelp(f.help), f.name, f.kind); err != nil {
		return err
	}
	for _, s := range f.samples {
		if _, err := fmt.Fprintf(w, "%s%s%s %d\n", f.name, s.suffix, s.labels, s.value); err != nil {
			return err
		}
	}
	return nil
}

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

func escapeHelp(help string) string {
	return helpEscaper.Replace(help)
}
