package internaldefs

import (
	"github.com/buraq-dev/keycore"
)

// CounterDef names one keycore counter.
type CounterDef struct {
	ID   keycore.MetricID
	Name string
	Help string
}

// HistogramDef names one keycore latency histogram.
type HistogramDef struct {
	ID   keycore.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: keycore.MetricSecretEncrypted, Name: "buraq_secret_encrypted_total", Help: "Secrets encrypted under a resource key."},
	{ID: keycore.MetricSecretEncryptFailure, Name: "buraq_secret_encrypt_failure_total", Help: "Failed secret encryptions."},
	{ID: keycore.MetricSecretDecrypted, Name: "buraq_secret_decrypted_total", Help: "Secrets decrypted under a resource key."},
	{ID: keycore.MetricSecretDecryptFailure, Name: "buraq_secret_decrypt_failure_total", Help: "Rejected secret payloads."},
	{ID: keycore.MetricKeyGenerated, Name: "buraq_key_generated_total", Help: "Generated signing keys."},
	{ID: keycore.MetricKeyGenerationFailure, Name: "buraq_key_generation_failure_total", Help: "Failed or unsupported key generations."},
	{ID: keycore.MetricTokenIssued, Name: "buraq_token_issued_total", Help: "Signed tokens."},
	{ID: keycore.MetricTokenIssueFailure, Name: "buraq_token_issue_failure_total", Help: "Failed token signings."},
	{ID: keycore.MetricTokenValidated, Name: "buraq_token_validated_total", Help: "Tokens that passed verification."},
	{ID: keycore.MetricTokenRejected, Name: "buraq_token_rejected_total", Help: "Tokens that failed verification."},
	{ID: keycore.MetricServerKeyStored, Name: "buraq_server_key_stored_total", Help: "Sealed server keys written to the store."},
	{ID: keycore.MetricServerKeyOpened, Name: "buraq_server_key_opened_total", Help: "Sealed server keys unsealed."},
	{ID: keycore.MetricServerKeyDeleted, Name: "buraq_server_key_deleted_total", Help: "Sealed server keys deleted."},
	{ID: keycore.MetricStoreFailure, Name: "buraq_store_failure_total", Help: "Key store round trips that failed."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: keycore.MetricKeyGenerationLatency, Name: "buraq_key_generation_latency_seconds", Help: "Key generation latency histogram."},
	{ID: keycore.MetricStoreLatency, Name: "buraq_store_latency_seconds", Help: "Key store round trip latency histogram."},
}

// HistogramBounds are the upper bounds of the eight keycore buckets in seconds.
var HistogramBounds = []string{
	"0.001",
	"0.005",
	"0.025",
	"0.1",
	"0.25",
	"1",
	"5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds rendered for use inside instrument names.
var HistogramBoundSuffix = []string{
	"0_001",
	"0_005",
	"0_025",
	"0_1",
	"0_25",
	"1",
	"5",
	"inf",
}

// NormalizeBuckets pads or truncates raw to eight buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
