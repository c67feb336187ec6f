// Package otel reports keycore metrics through OpenTelemetry asynchronous instruments.
//
// Counters become Int64ObservableCounters under their buraq_*_total names. Each
// latency histogram becomes a set of Int64ObservableGauges, one per cumulative bucket
// and one for the count, since keycore keeps bucket counts rather than raw samples.
// Every collection cycle takes one snapshot and reports all instruments from it.
//
// The caller owns the MeterProvider; [OTelExporter.Close] only drops the callback.
package otel
