package webhook

import (
	"context"
	"errors"

	"github.com/mattjoyce/bubot/internal/protocol"
)

// CallbackRouter runs the handler registered for an authenticated callback.
// body is the exact verified request body.
type CallbackRouter interface {
	Route(ctx context.Context, req protocol.CallbackRequest, body []byte) error
}

// SecretFunc resolves the shared secret for a request. It returns a
// protocol.ConfigurationError when no secret is configured.
type SecretFunc func() (string, error)

// Config holds webhook server configuration.
type Config struct {
	Listen string

	// Path is the URL path the engine posts to (e.g. "/webhook/n8n-router").
	Path string

	// SignatureHeader is the HTTP header containing the hex HMAC signature.
	SignatureHeader string

	// MaxBodySize is the maximum allowed request body size in bytes (default: 1MB)
	MaxBodySize int64
}

// Response bodies. Only these strings ever reach the client.
const (
	msgUnauthorized  = "Unauthorized"
	msgConfiguration = "Configuration error"
	msgMissingAction = "Missing action"
	msgUnknownAction = "Unknown action"
	msgInternal      = "Internal server error"
	msgPayloadTooBig = "payload too large"
	statusOK         = "ok"
)

const (
	DefaultPath        = "/webhook/n8n-router"
	DefaultMaxBodySize = 1048576 // 1 MB
)

var errBodyTooLarge = errors.New("request body exceeds limit")
