// Package keycore is the key derivation, encryption and signing-key issuance core of the
// buraq secrets backend.
//
// An [Engine] is assembled through [Builder.Build] and is safe for concurrent use. It
// encrypts secrets under per-resource keys derived from a master key, generates JWT
// signing keys, seals server keys into a Redis-backed store and signs and verifies
// tokens with them.
//
// # Architecture boundaries
//
// keycore is the public surface. The primitives live in sub-packages: mac (HMAC),
// secrets (resource keys and payloads), rsakey (RSA pairs and PEM), jwt (algorithms,
// keys and tokens) and keystore (sealed key persistence). Sub-package sentinel errors
// are re-exported from this package.
//
// # What this package must NOT do
//
//   - Log or return plaintext secrets, master keys or private keys.
//   - Perform I/O outside the server key operations (construction is allocation-only
//     unless Config.Store.RedisAddr asks for a client).
package keycore
