// Package assistant turns model completions into replies, running any engine
// action the completion asks for.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mattjoyce/bubot/internal/protocol"
)

//go:generate mockgen -destination=mocks/mock_assistant.go -package=mocks github.com/mattjoyce/bubot/internal/assistant Completer,StudyClient

// Completer produces the assistant's raw reply to a user message.
type Completer interface {
	Complete(ctx context.Context, userID, message string) (string, error)
}

// StudyClient is the typed engine client. *n8n.Client satisfies it.
type StudyClient interface {
	CallStudyPlanAdvanced(ctx context.Context, userID string, p protocol.StudyPlanPayload) (*protocol.StudyPlanResult, error)
	CallStudySuggestions(ctx context.Context, userID string, p protocol.StudySuggestionsPayload) (*protocol.StudySuggestionsResult, error)
	CallFeedbackSend(ctx context.Context, userID string, p protocol.FeedbackPayload) (*protocol.FeedbackResult, error)
}

// Responder runs the directive flow. Its replies never carry internal errors.
type Responder struct {
	completer Completer
	client    StudyClient
	logger    *slog.Logger
}

func NewResponder(completer Completer, client StudyClient, logger *slog.Logger) *Responder {
	return &Responder{completer: completer, client: client, logger: logger}
}

// Respond completes message and resolves the result for userID.
func (r *Responder) Respond(ctx context.Context, userID, message string) string {
	text, err := r.completer.Complete(ctx, userID, message)
	if err != nil {
		r.logger.Error("completion failed", "user_id", userID, "error", err)
		return apologyGeneric
	}
	return r.Resolve(ctx, userID, text)
}

// Resolve runs the directive embedded in completion, if any, and returns the
// user-facing reply. Text without a directive is returned unchanged.
func (r *Responder) Resolve(ctx context.Context, userID, completion string) string {
	d, prose, found, err := ParseDirective(completion)
	if !found {
		return completion
	}
	if err != nil {
		r.logFailure(d.Action, userID, err)
		return Apology(d.Action)
	}

	rendered, err := r.run(ctx, userID, d)
	if err != nil {
		r.logFailure(d.Action, userID, err)
		return Apology(d.Action)
	}
	return joinReply(prose, rendered)
}

func (r *Responder) run(ctx context.Context, userID string, d Directive) (string, error) {
	payload, err := d.TypedPayload()
	if err != nil {
		return "", err
	}

	switch p := payload.(type) {
	case protocol.StudyPlanPayload:
		res, err := r.client.CallStudyPlanAdvanced(ctx, userID, p)
		if err != nil {
			return "", err
		}
		return renderStudyPlan(res), nil
	case protocol.StudySuggestionsPayload:
		res, err := r.client.CallStudySuggestions(ctx, userID, p)
		if err != nil {
			return "", err
		}
		return renderSuggestions(res), nil
	case protocol.FeedbackPayload:
		res, err := r.client.CallFeedbackSend(ctx, userID, p)
		if err != nil {
			return "", err
		}
		return renderFeedback(res), nil
	default:
		return "", fmt.Errorf("unsupported payload %T", payload)
	}
}

func (r *Responder) logFailure(action protocol.Action, userID string, err error) {
	logger := r.logger.With("action", string(action), "user_id", userID)

	var (
		pe *protocol.ProtocolError
		ve *protocol.ValidationError
	)
	switch {
	case errors.As(err, &pe):
		logger.Error("engine call failed", "status", pe.StatusCode, "error", err)
	case errors.As(err, &ve):
		logger.Warn("directive rejected", "problem", ve.Problem)
	case protocol.IsConfiguration(err):
		logger.Error("engine client misconfigured", "error", err)
	default:
		logger.Error("engine call failed", "error", err)
	}
}
