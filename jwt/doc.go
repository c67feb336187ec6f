// Package jwt generates signing key material for a closed set of JWT algorithms and
// issues and validates signed tokens with standard registered claims.
//
// # Algorithm mapping
//
// [Algorithm] is a closed enum. [Algorithm.Spec] maps each value to a key-generation
// strategy with a switch:
//
//   - HS256, HS384 and HS512 generate an HMAC secret through package mac. HS384 uses the
//     SHA-256 family, so there are two effective hash strengths.
//   - RS*/PS* generate RSA keys through package rsakey: 256→2048, 384→3072, 512→4096 bits.
//   - ES256, ES384 and EdDSA are recognized and rejected with [ErrUnsupportedAlgorithm].
//
// # Tokens
//
// [CreateJWT] signs [Claims] with golang-jwt. Symmetric algorithms use the raw key bytes
// as the shared secret; asymmetric algorithms use the PEM private key. [ParseJWT] is the
// matching validator.
//
// # What this package must NOT do
//
//   - Persist keys or tokens.
//   - Include key material in error strings.
package jwt
