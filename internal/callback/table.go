// Package callback routes authenticated engine callbacks to their handlers.
package callback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mattjoyce/bubot/internal/protocol"
	"github.com/mattjoyce/bubot/internal/state"
)

//go:generate mockgen -destination=mocks/mock_inbox.go -package=mocks github.com/mattjoyce/bubot/internal/callback Inbox

// ErrUnknownAction is returned by Route for an action outside the closed set.
var ErrUnknownAction = errors.New("unknown callback action")

// Inbox records accepted callbacks.
type Inbox interface {
	Record(ctx context.Context, action protocol.CallbackAction, data json.RawMessage, rawBody []byte) (state.InboxEntry, error)
}

// Callback is one authenticated callback as seen by a handler.
type Callback struct {
	Action protocol.CallbackAction
	Data   json.RawMessage
	Body   []byte
}

// Handler processes one callback action.
type Handler interface {
	Handle(ctx context.Context, cb Callback) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, cb Callback) error

func (f HandlerFunc) Handle(ctx context.Context, cb Callback) error {
	return f(ctx, cb)
}

// Table maps every callback action to exactly one handler.
type Table struct {
	handlers map[protocol.CallbackAction]Handler
	logger   *slog.Logger
}

// NewTable builds a table. Every action in protocol.CallbackActions must
// have a handler and no other keys are accepted.
func NewTable(handlers map[protocol.CallbackAction]Handler, logger *slog.Logger) (*Table, error) {
	for action := range handlers {
		if !action.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
		}
	}
	for _, action := range protocol.CallbackActions {
		if handlers[action] == nil {
			return nil, fmt.Errorf("no handler registered for %q", action)
		}
	}

	copied := make(map[protocol.CallbackAction]Handler, len(handlers))
	for k, v := range handlers {
		copied[k] = v
	}
	return &Table{handlers: copied, logger: logger}, nil
}

// NewDefaultTable wires the recording handlers for every action.
func NewDefaultTable(inbox Inbox, logger *slog.Logger) *Table {
	t, err := NewTable(map[protocol.CallbackAction]Handler{
		protocol.CallbackStudyPlan: StudyPlanHandler(inbox, logger),
		protocol.CallbackFeedback:  FeedbackHandler(inbox, logger),
	}, logger)
	if err != nil {
		// Unreachable: every action is registered above.
		panic(err)
	}
	return t
}

// Route invokes the handler for req.Action.
func (t *Table) Route(ctx context.Context, req protocol.CallbackRequest, body []byte) error {
	switch req.Action {
	case protocol.CallbackStudyPlan, protocol.CallbackFeedback:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}

	h := t.handlers[req.Action]
	if err := h.Handle(ctx, Callback{Action: req.Action, Data: req.Data, Body: body}); err != nil {
		return fmt.Errorf("handle %s: %w", req.Action, err)
	}
	return nil
}
