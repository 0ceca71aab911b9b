package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mattjoyce/bubot/internal/config"
	"github.com/mattjoyce/bubot/internal/protocol"
	"github.com/mattjoyce/bubot/internal/signing"
)

const testSecret = "test-secret"

// fakeRouter records routed callbacks.
type fakeRouter struct {
	routeFn func(ctx context.Context, req protocol.CallbackRequest) error
	calls   []protocol.CallbackRequest
	bodies  [][]byte
}

func (f *fakeRouter) Route(ctx context.Context, req protocol.CallbackRequest, body []byte) error {
	f.calls = append(f.calls, req)
	f.bodies = append(f.bodies, body)
	if f.routeFn != nil {
		return f.routeFn(ctx, req)
	}
	return nil
}

func staticSecret(secret string) SecretFunc {
	return func() (string, error) { return secret, nil }
}

func testServer(secret SecretFunc, router CallbackRouter) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(Config{Listen: "127.0.0.1:0"}, secret, router, logger)
}

func signedRequest(t *testing.T, body []byte, signature string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, DefaultPath, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(protocol.SignatureHeader, signature)
	}
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp protocol.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp.Error
}

func TestHandleCallback_ValidSignature(t *testing.T) {
	body := []byte(`{"action":"callback_study_plan","data":{"ok":true}}`)
	router := &fakeRouter{}
	server := testServer(staticSecret(testSecret), router)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, signedRequest(t, body, signing.Sign(body, testSecret)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp protocol.AckResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Action != protocol.CallbackStudyPlan {
		t.Errorf("response = %+v, want ok/callback_study_plan", resp)
	}

	if len(router.calls) != 1 {
		t.Fatalf("router called %d times, want 1", len(router.calls))
	}
	if got := string(router.calls[0].Data); got != `{"ok":true}` {
		t.Errorf("Data = %s, want {\"ok\":true}", got)
	}
	if !bytes.Equal(router.bodies[0], body) {
		t.Errorf("routed body = %s, want verified body %s", router.bodies[0], body)
	}
}

func TestHandleCallback_InvalidSignature(t *testing.T) {
	body := []byte(`{"action":"callback_study_plan","data":{"ok":true}}`)

	tests := []struct {
		name      string
		signature string
	}{
		{name: "not hex and wrong length", signature: "invalid-signature"},
		{name: "signed with other secret", signature: signing.Sign(body, "other-secret")},
		{name: "right length but not hex", signature: strings.Repeat("zz", signing.SignatureSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := &fakeRouter{}
			server := testServer(staticSecret(testSecret), router)

			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, signedRequest(t, body, tt.signature))

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if msg := decodeError(t, rec); msg != "Unauthorized" {
				t.Errorf("error = %q, want Unauthorized", msg)
			}
			if len(router.calls) != 0 {
				t.Errorf("router called for unauthenticated request")
			}
		})
	}
}

func TestHandleCallback_MissingSignature(t *testing.T) {
	router := &fakeRouter{}
	secretCalled := false
	server := testServer(func() (string, error) {
		secretCalled = true
		return testSecret, nil
	}, router)

	// Not JSON; rejection must happen before any parsing.
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, signedRequest(t, []byte("{not json"), ""))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if msg := decodeError(t, rec); msg != "Unauthorized" {
		t.Errorf("error = %q, want Unauthorized", msg)
	}
	if secretCalled {
		t.Error("secret resolved for request without signature")
	}
	if len(router.calls) != 0 {
		t.Error("router called for unsigned request")
	}
}

func TestHandleCallback_SecretNotConfigured(t *testing.T) {
	body := []byte(`{"action":"callback_feedback"}`)
	router := &fakeRouter{}
	server := testServer(func() (string, error) {
		return "", &protocol.ConfigurationError{Key: config.EnvWebhookSecret}
	}, router)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, signedRequest(t, body, signing.Sign(body, testSecret)))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if msg := decodeError(t, rec); msg != "Configuration error" {
		t.Errorf("error = %q, want Configuration error", msg)
	}
	if len(router.calls) != 0 {
		t.Error("router called without a secret")
	}
}

func TestHandleCallback_ActionErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{name: "missing action", body: `{"data":{}}`, wantStatus: http.StatusBadRequest, wantError: "Missing action"},
		{name: "empty action", body: `{"action":""}`, wantStatus: http.StatusBadRequest, wantError: "Missing action"},
		{name: "unknown action", body: `{"action":"callback_unknown"}`, wantStatus: http.StatusBadRequest, wantError: "Unknown action"},
		{name: "outbound action name", body: `{"action":"feedback_send"}`, wantStatus: http.StatusBadRequest, wantError: "Unknown action"},
		{name: "numeric action", body: `{"action":5}`, wantStatus: http.StatusBadRequest, wantError: "Unknown action"},
		{name: "object action", body: `{"action":{"x":1}}`, wantStatus: http.StatusBadRequest, wantError: "Unknown action"},
		{name: "null action", body: `{"action":null}`, wantStatus: http.StatusBadRequest, wantError: "Missing action"},
		{name: "array body", body: `[]`, wantStatus: http.StatusBadRequest, wantError: "Missing action"},
		{name: "signed garbage", body: `{not json`, wantStatus: http.StatusInternalServerError, wantError: "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := []byte(tt.body)
			router := &fakeRouter{}
			server := testServer(staticSecret(testSecret), router)

			rec := httptest.NewRecorder()
			server.Handler().ServeHTTP(rec, signedRequest(t, body, signing.Sign(body, testSecret)))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if msg := decodeError(t, rec); msg != tt.wantError {
				t.Errorf("error = %q, want %q", msg, tt.wantError)
			}
			if len(router.calls) != 0 {
				t.Error("router called for rejected callback")
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	body := []byte(`{"action":"callback_feedback"}`)

	if err := authenticate(body, testSecret, signing.Sign(body, testSecret)); err != nil {
		t.Fatalf("authenticate valid signature: %v", err)
	}

	for name, sig := range map[string]string{
		"malformed": "not-hex",
		"wrong key": signing.Sign(body, "other-secret"),
	} {
		err := authenticate(body, testSecret, sig)
		if !errors.Is(err, protocol.ErrUnauthorized) {
			t.Errorf("%s: err = %v, want ErrUnauthorized", name, err)
		}
		if err != nil && strings.Contains(err.Error(), testSecret) {
			t.Errorf("%s: error leaks secret: %v", name, err)
		}
	}
}

func TestHandleCallback_HandlerFailure(t *testing.T) {
	body := []byte(`{"action":"callback_feedback","data":{"sent":true}}`)
	router := &fakeRouter{
		routeFn: func(ctx context.Context, req protocol.CallbackRequest) error {
			return errors.New("database is locked: secret-detail")
		},
	}
	server := testServer(staticSecret(testSecret), router)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, signedRequest(t, body, signing.Sign(body, testSecret)))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if strings.Contains(rec.Body.String(), "secret-detail") {
		t.Error("handler error leaked into response")
	}
	if msg := decodeError(t, rec); msg != "Internal server error" {
		t.Errorf("error = %q, want Internal server error", msg)
	}
}

func TestHandleCallback_HandlerPanic(t *testing.T) {
	body := []byte(`{"action":"callback_feedback"}`)
	router := &fakeRouter{
		routeFn: func(ctx context.Context, req protocol.CallbackRequest) error {
			panic("boom")
		},
	}
	server := testServer(staticSecret(testSecret), router)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, signedRequest(t, body, signing.Sign(body, testSecret)))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if msg := decodeError(t, rec); msg != "Internal server error" {
		t.Errorf("error = %q, want Internal server error", msg)
	}
}

func TestHandleCallback_BodyTooLarge(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := &fakeRouter{}
	server := New(Config{MaxBodySize: 64}, staticSecret(testSecret), router, logger)

	body := []byte(`{"action":"callback_feedback","data":"` + strings.Repeat("x", 100) + `"}`)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, signedRequest(t, body, signing.Sign(body, testSecret)))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
	if len(router.calls) != 0 {
		t.Error("router called for oversized body")
	}
}

func TestHandleCallback_UnknownPathAndMethod(t *testing.T) {
	server := testServer(staticSecret(testSecret), &fakeRouter{})
	handler := server.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhook/other", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DefaultPath, nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandleCallback_CustomHeader(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := &fakeRouter{}
	server := New(Config{Path: "/hooks/n8n", SignatureHeader: "X-Custom-Sig"}, staticSecret(testSecret), router, logger)

	body := []byte(`{"action":"callback_feedback"}`)
	req := httptest.NewRequest(http.MethodPost, "/hooks/n8n", bytes.NewReader(body))
	req.Header.Set("X-Custom-Sig", signing.Sign(body, testSecret))

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestNew_AppliesDefaults(t *testing.T) {
	server := testServer(staticSecret(testSecret), &fakeRouter{})

	if server.config.MaxBodySize != DefaultMaxBodySize {
		t.Errorf("MaxBodySize = %d, want %d", server.config.MaxBodySize, DefaultMaxBodySize)
	}
	if server.config.Path != DefaultPath {
		t.Errorf("Path = %q, want %q", server.config.Path, DefaultPath)
	}
	if server.config.SignatureHeader != protocol.SignatureHeader {
		t.Errorf("SignatureHeader = %q, want %q", server.config.SignatureHeader, protocol.SignatureHeader)
	}
}

func TestNew_NilLoggerServes(t *testing.T) {
	body := []byte(`{"action":"callback_feedback"}`)
	server := New(Config{}, staticSecret(testSecret), &fakeRouter{}, nil)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, signedRequest(t, body, signing.Sign(body, testSecret)))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestFromGlobalConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Webhook.MaxBodySize = "2KB"

	got := FromGlobalConfig(cfg)
	if got.Listen != "127.0.0.1:8081" {
		t.Errorf("Listen = %q", got.Listen)
	}
	if got.Path != DefaultPath {
		t.Errorf("Path = %q, want %q", got.Path, DefaultPath)
	}
	if got.MaxBodySize != 2048 {
		t.Errorf("MaxBodySize = %d, want 2048", got.MaxBodySize)
	}
}
