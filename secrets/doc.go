// Package secrets encrypts opaque secrets under keys derived per resource from one
// process-wide master key.
//
// # Key derivation
//
// The resource key is HMAC-SHA256(masterKey, resourceID) where resourceID is the 16 raw
// bytes of a UUID. It is recomputed on every call and never stored.
//
// # Legacy payload format
//
// [Manager.Encrypt] produces base64(iv[16] ‖ ciphertext) where the ciphertext is the
// plaintext XORed with a hash-chain keystream (see [BuildKeystream]). The ciphertext has
// the same length as the plaintext and carries no authentication tag: a wrong resource
// id or a flipped bit decodes to different bytes and only fails when those bytes are not
// valid UTF-8. The layout is frozen for compatibility with stored data.
//
// # Authenticated variant
//
// [Manager.SealAuthenticated] and [Manager.OpenAuthenticated] are a separate format
// (HKDF-SHA256 subkey, AES-256-GCM) for callers that need tamper detection. The two
// formats are not interchangeable.
//
// # What this package must NOT do
//
//   - Persist or log the master key, resource keys or plaintexts.
//   - Read the environment anywhere except [NewManagerFromEnv].
package secrets
