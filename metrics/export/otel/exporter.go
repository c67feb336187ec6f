package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/buraq-dev/keycore"
	"github.com/buraq-dev/keycore/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() keycore.MetricsSnapshot
}

// observation reports one keycore metric from a snapshot.
type observation func(snap keycore.MetricsSnapshot, o metric.Observer)

// OTelExporter keeps one callback registered on the caller's Meter until Close.
type OTelExporter struct {
	source       metricsSource
	observations []observation
	registration metric.Registration
}

func NewOTelExporter(meter metric.Meter, engine *keycore.Engine) (*OTelExporter, error) {
	if engine == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, engine)
}

// NewOTelExporterFromSource creates the instruments for every keycore counter and
// histogram and registers a single callback that reads source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{source: source}
	var instruments []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := e.bindCounter(meter, def)
		if err != nil {
			return nil, err
		}
		instruments = append(instruments, ins)
	}
	for _, def := range internaldefs.HistogramDefs {
		ins, err := e.bindHistogram(meter, def)
		if err != nil {
			return nil, err
		}
		instruments = append(instruments, ins...)
	}

	reg, err := meter.RegisterCallback(e.collect, instruments...)
	if err != nil {
		return nil, fmt.Errorf("register keycore callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *OTelExporter) bindCounter(meter metric.Meter, def internaldefs.CounterDef) (metric.Observable, error) {
	counter, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", def.Name, err)
	}
	id := def.ID
	e.observations = append(e.observations, func(snap keycore.MetricsSnapshot, o metric.Observer) {
		o.ObserveInt64(counter, int64(snap.Counters[id]))
	})
	return counter, nil
}

// bindHistogram maps a keycore histogram onto gauges: one per cumulative le bucket
// (<name>_bucket_le_<bound>) plus <name>_count.
func (e *OTelExporter) bindHistogram(meter metric.Meter, def internaldefs.HistogramDef) ([]metric.Observable, error) {
	var buckets [8]metric.Int64ObservableGauge
	out := make([]metric.Observable, 0, len(buckets)+1)

	for i, suffix := range internaldefs.HistogramBoundSuffix {
		name := fmt.Sprintf("%s_bucket_le_%s", def.Name, suffix)
		g, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative bucket of "+def.Name+"."))
		if err != nil {
			return nil, fmt.Errorf("bucket gauge %s: %w", name, err)
		}
		buckets[i] = g
		out = append(out, g)
	}
	count, err := meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription(def.Help))
	if err != nil {
		return nil, fmt.Errorf("count gauge %s_count: %w", def.Name, err)
	}
	out = append(out, count)

	id := def.ID
	e.observations = append(e.observations, func(snap keycore.MetricsSnapshot, o metric.Observer) {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snap.Histograms[id]))
		for i, g := range buckets {
			o.ObserveInt64(g, int64(cumulative[i]))
		}
		o.ObserveInt64(count, int64(cumulative[len(cumulative)-1]))
	})
	return out, nil
}

func (e *OTelExporter) collect(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()
	for _, observe := range e.observations {
		observe(snap, o)
	}
	return nil
}

// Close unregisters the callback. The instruments stay on the Meter.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
