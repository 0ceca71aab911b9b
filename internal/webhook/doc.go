// Package webhook implements the inbound gate for n8n callbacks.
//
// Every request must carry an HMAC-SHA256 signature of its raw body in the
// configured header (x-bubot-sig by default). The body is verified before it
// is parsed, so nothing from an unauthenticated caller reaches a handler.
//
// # Request Flow
//
//  1. HTTP POST arrives at the configured path
//  2. Signature header extracted (401 if absent)
//  3. Body read up to max_body_size (413 if larger)
//  4. Shared secret resolved (500 "Configuration error" if unset)
//  5. Constant-time comparison of signatures (401 on mismatch)
//  6. Body parsed as {"action": ..., "data": ...}
//  7. Action routed to its callback handler
//  8. 200 {"status":"ok","action":...} returned
//
// # Error Responses
//
// - 400 Bad Request: "Missing action" or "Unknown action"
// - 401 Unauthorized: missing, malformed or mismatched signature
// - 404 Not Found: unknown path
// - 413 Payload Too Large: body exceeds max_body_size
// - 500 Internal Server Error: configuration, parse or handler failure
//
// Secrets, signatures and bodies are never logged.
package webhook
