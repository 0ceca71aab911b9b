package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mattjoyce/bubot/internal/log"
	"github.com/mattjoyce/bubot/internal/protocol"
	"github.com/mattjoyce/bubot/internal/signing"
)

// Server represents the webhook HTTP server.
type Server struct {
	config Config
	secret SecretFunc
	router CallbackRouter
	logger *slog.Logger
	server *http.Server
}

// New creates a new webhook server instance.
func New(config Config, secret SecretFunc, router CallbackRouter, logger *slog.Logger) *Server {
	if config.MaxBodySize <= 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	if config.Path == "" {
		config.Path = DefaultPath
	}
	if config.SignatureHeader == "" {
		config.SignatureHeader = protocol.SignatureHeader
	}
	if logger == nil {
		logger = log.Discard()
	}

	return &Server{
		config: config,
		secret: secret,
		router: router,
		logger: logger,
	}
}

// Start starts the webhook HTTP server (blocking).
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Listen,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("webhook server starting", "listen", s.config.Listen, "path", s.config.Path)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("webhook server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown failed: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("webhook server error: %w", err)
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Post(s.config.Path, s.handleCallback)

	return r
}

// loggingMiddleware logs HTTP requests (excludes headers and payloads).
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("webhook request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// recoverMiddleware turns a panic into the generic 500 body.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error("webhook handler panic",
					"panic", fmt.Sprint(rec),
					"request_id", middleware.GetReqID(r.Context()),
				)
				s.respondError(w, http.StatusInternalServerError, msgInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// handleCallback authenticates and dispatches one engine callback. The raw
// body is verified before anything parses it.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.WithRequest(s.logger, middleware.GetReqID(ctx))

	signature := r.Header.Get(s.config.SignatureHeader)
	if signature == "" {
		err := fmt.Errorf("%w: %s header missing", protocol.ErrUnauthorized, s.config.SignatureHeader)
		logger.Warn("webhook request rejected", "reason", err)
		s.respondError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	body, err := s.readBody(r)
	if errors.Is(err, errBodyTooLarge) {
		s.respondError(w, http.StatusRequestEntityTooLarge, msgPayloadTooBig)
		return
	}
	if err != nil {
		logger.Error("failed to read webhook body", "error", err)
		s.respondError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	secret, err := s.secret()
	if err != nil {
		logger.Error("webhook secret unavailable; rejecting request", "error", err)
		s.respondError(w, http.StatusInternalServerError, msgConfiguration)
		return
	}

	if err := authenticate(body, secret, signature); err != nil {
		if errors.Is(err, protocol.ErrUnauthorized) {
			logger.Warn("webhook request rejected", "reason", err)
			s.respondError(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		logger.Error("webhook signature check failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	req, err := protocol.DecodeCallback(body)
	if err != nil {
		var ve *protocol.ValidationError
		if !errors.As(err, &ve) {
			logger.Error("authenticated webhook body is not valid JSON", "error", err)
			s.respondError(w, http.StatusInternalServerError, msgInternal)
			return
		}
		logger.Warn("webhook callback rejected", "problem", ve.Problem)
		if ve.Problem == protocol.ProblemUnknownAction {
			s.respondError(w, http.StatusBadRequest, msgUnknownAction)
		} else {
			s.respondError(w, http.StatusBadRequest, msgMissingAction)
		}
		return
	}

	if !req.Action.Valid() {
		logger.Warn("webhook callback rejected", "problem", protocol.ProblemUnknownAction)
		s.respondError(w, http.StatusBadRequest, msgUnknownAction)
		return
	}

	logger = log.WithAction(logger, string(req.Action))
	if err := s.router.Route(ctx, req, body); err != nil {
		logger.Error("webhook callback handler failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	logger.Info("webhook callback dispatched")
	s.respondJSON(w, http.StatusOK, protocol.AckResponse{Status: statusOK, Action: req.Action})
}

// authenticate checks signature against the raw body. Rejections wrap
// protocol.ErrUnauthorized; any other error is a server fault.
func authenticate(body []byte, secret, signature string) error {
	ok, err := signing.Verify(body, secret, signature)
	switch {
	case errors.Is(err, signing.ErrMalformedSignature):
		return fmt.Errorf("%w: malformed signature", protocol.ErrUnauthorized)
	case err != nil:
		return err
	case !ok:
		return fmt.Errorf("%w: signature mismatch", protocol.ErrUnauthorized)
	}
	return nil
}

// readBody reads at most MaxBodySize bytes.
func (s *Server) readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > s.config.MaxBodySize {
		return nil, errBodyTooLarge
	}
	return body, nil
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, protocol.ErrorResponse{Error: message})
}
