package protocol

import (
	"errors"
	"fmt"
)

// ErrUnauthorized means a signature was missing or did not verify.
var ErrUnauthorized = errors.New("unauthorized")

// ConfigurationError reports a required setting that is absent. It marks a
// deployment defect, never a client fault.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("configuration error: %s %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s is not set", e.Key)
}

// Problems shared by the outbound and inbound envelope checks.
const (
	ProblemMissingAction = "missing action"
	ProblemUnknownAction = "unknown action"
)

// ValidationError names a specific problem with an action or payload. Problem
// never echoes caller-supplied content.
type ValidationError struct {
	Problem string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation error: %s: %v", e.Problem, e.Err)
	}
	return "validation error: " + e.Problem
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ProtocolError reports a failed exchange with the engine: a non-2xx answer or
// a 2xx body that is not the expected JSON shape.
type ProtocolError struct {
	Action     Action
	StatusCode int
	Body       string
	Err        error
}

func (e *ProtocolError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err == nil:
		return fmt.Sprintf("n8n %s failed: HTTP %d: %s", e.Action, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("n8n %s failed: HTTP %d: %v", e.Action, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("n8n %s failed: %v", e.Action, e.Err)
	}
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsConfiguration reports whether err is or wraps a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
