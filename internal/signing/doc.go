// Package signing implements the symmetric envelope authentication shared by
// bubot and the n8n workflow engine.
//
// An envelope is the exact byte sequence of a JSON body plus the lowercase hex
// HMAC-SHA256 of those bytes, keyed with a shared secret. The receiver always
// verifies the raw bytes it received and never re-serializes before
// verification.
//
// # Comparison
//
// Verify first compares signature lengths and returns false on mismatch. Equal
// length signatures are compared with crypto/subtle so the running time does
// not depend on the position of the first differing byte. The length check is
// itself observable; that is accepted.
//
// # Replay
//
// Envelopes carry no nonce or timestamp. A captured envelope stays valid for as
// long as the secret does.
package signing
