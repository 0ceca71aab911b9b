package callback

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/bubot/internal/callback/mocks"
	"github.com/mattjoyce/bubot/internal/protocol"
	"github.com/mattjoyce/bubot/internal/state"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultTableRecordsEveryAction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	inbox := mocks.NewMockInbox(ctrl)
	table := NewDefaultTable(inbox, discardLogger())

	t.Run("study plan", func(t *testing.T) {
		body := []byte(`{"action":"callback_study_plan","data":{"inserted":4,"summary":"ok"}}`)
		data := json.RawMessage(`{"inserted":4,"summary":"ok"}`)
		inbox.EXPECT().Record(ctx, protocol.CallbackStudyPlan, data, body).
			Return(state.InboxEntry{ID: "cb-1"}, nil)

		err := table.Route(ctx, protocol.CallbackRequest{Action: protocol.CallbackStudyPlan, Data: data}, body)
		require.NoError(t, err)
	})

	t.Run("feedback without data", func(t *testing.T) {
		body := []byte(`{"action":"callback_feedback"}`)
		inbox.EXPECT().Record(ctx, protocol.CallbackFeedback, gomock.Nil(), body).
			Return(state.InboxEntry{ID: "cb-2"}, nil)

		err := table.Route(ctx, protocol.CallbackRequest{Action: protocol.CallbackFeedback}, body)
		require.NoError(t, err)
	})

	t.Run("unexpected data shape is still recorded", func(t *testing.T) {
		body := []byte(`{"action":"callback_feedback","data":"sent"}`)
		data := json.RawMessage(`"sent"`)
		inbox.EXPECT().Record(ctx, protocol.CallbackFeedback, data, body).
			Return(state.InboxEntry{ID: "cb-3"}, nil)

		err := table.Route(ctx, protocol.CallbackRequest{Action: protocol.CallbackFeedback, Data: data}, body)
		require.NoError(t, err)
	})
}

func TestRouteRecordFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	inbox := mocks.NewMockInbox(ctrl)
	inbox.EXPECT().Record(gomock.Any(), protocol.CallbackFeedback, gomock.Any(), gomock.Any()).
		Return(state.InboxEntry{}, errors.New("database is locked"))

	table := NewDefaultTable(inbox, discardLogger())
	err := table.Route(context.Background(), protocol.CallbackRequest{Action: protocol.CallbackFeedback}, []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "callback_feedback")
}

func TestRouteUnknownAction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	table := NewDefaultTable(mocks.NewMockInbox(ctrl), discardLogger())
	err := table.Route(context.Background(), protocol.CallbackRequest{Action: "callback_other"}, nil)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestNewTableRequiresEveryAction(t *testing.T) {
	noop := HandlerFunc(func(context.Context, Callback) error { return nil })

	_, err := NewTable(map[protocol.CallbackAction]Handler{
		protocol.CallbackStudyPlan: noop,
	}, discardLogger())
	assert.Error(t, err)

	_, err = NewTable(map[protocol.CallbackAction]Handler{
		protocol.CallbackStudyPlan: noop,
		protocol.CallbackFeedback:  noop,
		"callback_extra":           noop,
	}, discardLogger())
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestCustomHandlerReceivesCallback(t *testing.T) {
	var got Callback
	record := HandlerFunc(func(_ context.Context, cb Callback) error {
		got = cb
		return nil
	})
	noop := HandlerFunc(func(context.Context, Callback) error { return nil })

	table, err := NewTable(map[protocol.CallbackAction]Handler{
		protocol.CallbackStudyPlan: record,
		protocol.CallbackFeedback:  noop,
	}, discardLogger())
	require.NoError(t, err)

	body := []byte(`{"action":"callback_study_plan","data":{"ok":true}}`)
	req := protocol.CallbackRequest{Action: protocol.CallbackStudyPlan, Data: json.RawMessage(`{"ok":true}`)}
	require.NoError(t, table.Route(context.Background(), req, body))

	assert.Equal(t, protocol.CallbackStudyPlan, got.Action)
	assert.JSONEq(t, `{"ok":true}`, string(got.Data))
	assert.Equal(t, body, got.Body)
}
