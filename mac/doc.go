// Package mac provides keyed-hash signing and verification over a closed set of four
// hash families: SHA-256, SHA-512, SHA3-256 and SHA3-512.
//
// # Architecture boundaries
//
// [HashFunction] is a closed variant. Every per-family behavior (name, recommended key
// length, output size, sign, verify) is a method switch over the four values, so adding
// a family is a compile-visible change in one file.
//
// [Key] pairs key bytes with a [HashFunction] and is immutable after construction. It is
// used both for ordinary MAC signing and as the primitive behind resource key derivation
// and keystream generation in package secrets.
//
// # What this package must NOT do
//
//   - Reject keys by length. Any byte length, including empty, is a valid HMAC key.
//   - Log or print key material.
//   - Import secrets, jwt or keycore (no upward imports).
//
// Verification compares with plain byte equality, not a constant-time comparison. This is
// pinned by tests and tracked as an open security-review item.
package mac
