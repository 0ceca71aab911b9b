// Package n8n is the outbound side of the bridge: typed, signed calls to the
// workflow engine's webhook.
//
// Every call builds an ActionRequest, canonicalizes and signs it, and posts
// the signed bytes unchanged. No retries are attempted and no timeout is
// imposed; callers bound latency through the context.
package n8n

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattjoyce/bubot/internal/config"
	"github.com/mattjoyce/bubot/internal/log"
	"github.com/mattjoyce/bubot/internal/protocol"
	"github.com/mattjoyce/bubot/internal/signing"
)

// maxResponseBytes caps how much of an engine response is read.
const maxResponseBytes = 1 << 20

// Doer is the subset of *http.Client the client needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client issues signed action calls to the engine.
type Client struct {
	url             string
	secret          string
	signatureHeader string
	http            Doer
	logger          *slog.Logger
	newRequestID    func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// WithLogger sets the logger used for call diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithSignatureHeader overrides the header carrying the signature.
func WithSignatureHeader(h string) Option {
	return func(c *Client) { c.signatureHeader = h }
}

// New returns a client posting to url and signing with secret. Both are
// required.
func New(url, secret string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, &protocol.ConfigurationError{Key: config.EnvN8NURL}
	}
	if secret == "" {
		return nil, &protocol.ConfigurationError{Key: config.EnvWebhookSecret}
	}

	c := &Client{
		url:             url,
		secret:          secret,
		signatureHeader: protocol.SignatureHeader,
		http:            &http.Client{},
		logger:          log.Discard(),
		newRequestID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFromConfig builds a client from the engine URL and shared secret in cfg.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	url, err := cfg.EngineURL()
	if err != nil {
		return nil, err
	}
	secret, err := cfg.WebhookSecret()
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithSignatureHeader(cfg.Webhook.SignatureHeader)}, opts...)
	return New(url, secret, opts...)
}

// CallStudyPlanAdvanced asks the engine to build and store a study plan.
func (c *Client) CallStudyPlanAdvanced(ctx context.Context, userID string, p protocol.StudyPlanPayload) (*protocol.StudyPlanResult, error) {
	return call[protocol.StudyPlanResult](ctx, c, userID, p)
}

// CallStudySuggestions asks the engine for course suggestions.
func (c *Client) CallStudySuggestions(ctx context.Context, userID string, p protocol.StudySuggestionsPayload) (*protocol.StudySuggestionsResult, error) {
	return call[protocol.StudySuggestionsResult](ctx, c, userID, p)
}

// CallFeedbackSend routes feedback to a teacher through the engine.
func (c *Client) CallFeedbackSend(ctx context.Context, userID string, p protocol.FeedbackPayload) (*protocol.FeedbackResult, error) {
	return call[protocol.FeedbackResult](ctx, c, userID, p)
}

// Dispatch calls the typed method matching p and returns its result.
func (c *Client) Dispatch(ctx context.Context, userID string, p protocol.Payload) (any, error) {
	switch payload := p.(type) {
	case protocol.StudyPlanPayload:
		return c.CallStudyPlanAdvanced(ctx, userID, payload)
	case protocol.StudySuggestionsPayload:
		return c.CallStudySuggestions(ctx, userID, payload)
	case protocol.FeedbackPayload:
		return c.CallFeedbackSend(ctx, userID, payload)
	default:
		return nil, &protocol.ValidationError{Problem: protocol.ProblemUnknownAction}
	}
}

func call[R any](ctx context.Context, c *Client, userID string, p protocol.Payload) (*R, error) {
	req := protocol.NewActionRequest(userID, p)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// The signed bytes are the transmitted bytes.
	body, sig, err := signing.SignValue(req, c.secret)
	if err != nil {
		return nil, fmt.Errorf("sign %s request: %w", req.Action, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", req.Action, err)
	}
	requestID := c.newRequestID()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(c.signatureHeader, sig)
	httpReq.Header.Set("X-Request-Id", requestID)

	logger := log.WithRequest(log.WithAction(c.logger, string(req.Action)), requestID)
	start := time.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		logger.Warn("n8n call failed", "error", err)
		return nil, fmt.Errorf("n8n %s: %w", req.Action, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &protocol.ProtocolError{Action: req.Action, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	logger.Debug("n8n call completed",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &protocol.ProtocolError{
			Action:     req.Action,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}
	return protocol.DecodeResult[R](req.Action, resp.StatusCode, respBody)
}
