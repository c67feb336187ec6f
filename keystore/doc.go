// Package keystore persists sealed server keys in Redis.
//
// A [SealedKey] holds an opaque ciphertext produced by the secrets manager together with
// the public half of the key and a little metadata. The store never sees plaintext
// private key material and never decrypts anything.
//
// # Binary encoding
//
// Records are stored as a compact versioned binary blob (see [Encode]). Decoding rejects
// unknown versions and truncated input with [ErrCorruptRecord].
//
// # Layout
//
//	<prefix>:env:<environment-id>:key:<key-id>   record blob
//	<prefix>:env:<environment-id>:keys           set of key ids
//
// # What this package must NOT do
//
//   - Import keycore, secrets or jwt (no upward imports).
//   - Decrypt or interpret the sealed payload.
package keystore
