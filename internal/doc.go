// Package internal contains helpers private to keycore: key id generation and the
// text encoding applied to private key material before it is sealed.
//
// # What this package must NOT do
//
//   - Export types that appear in the public keycore API.
//   - Be imported by any package outside the keycore module.
package internal
