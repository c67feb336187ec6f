// Package prometheus exposes keycore counters and latency histograms as a Prometheus
// text page.
//
// Counters appear as buraq_*_total. Latency histograms appear as buraq_*_seconds with
// cumulative le buckets from 1ms to +Inf. A histogram the snapshot does not carry is
// left off the page, and an engine built without metrics renders an empty page.
//
// The exporter holds no registry. Mount [PrometheusExporter.Handler] wherever the
// scraper expects it.
package prometheus
