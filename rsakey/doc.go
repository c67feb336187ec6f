// Package rsakey generates RSA key pairs at four fixed bit-length tiers and encodes them
// as PEM (PKCS#8 private keys, PKIX public keys).
//
// The public key is always derived from the freshly generated private key, so a [Pair]
// is consistent by construction. Generation at 4096 and 8192 bits is slow; callers that
// need bounded latency schedule it themselves.
package rsakey
