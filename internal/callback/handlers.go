package callback

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mattjoyce/bubot/internal/protocol"
)

// StudyPlanHandler records callback_study_plan notifications.
func StudyPlanHandler(inbox Inbox, logger *slog.Logger) Handler {
	return HandlerFunc(func(ctx context.Context, cb Callback) error {
		var data protocol.StudyPlanCallback
		if !decodeLenient(cb.Data, &data) {
			logger.Warn("study plan callback data has unexpected shape")
		}

		entry, err := inbox.Record(ctx, cb.Action, cb.Data, cb.Body)
		if err != nil {
			return fmt.Errorf("record study plan callback: %w", err)
		}

		logger.Info("study plan callback recorded",
			"callback_id", entry.ID,
			"user_id", data.UserID,
			"inserted", data.Inserted,
		)
		return nil
	})
}

// FeedbackHandler records callback_feedback notifications.
func FeedbackHandler(inbox Inbox, logger *slog.Logger) Handler {
	return HandlerFunc(func(ctx context.Context, cb Callback) error {
		var data protocol.FeedbackCallback
		if !decodeLenient(cb.Data, &data) {
			logger.Warn("feedback callback data has unexpected shape")
		}

		entry, err := inbox.Record(ctx, cb.Action, cb.Data, cb.Body)
		if err != nil {
			return fmt.Errorf("record feedback callback: %w", err)
		}

		logger.Info("feedback callback recorded",
			"callback_id", entry.ID,
			"user_id", data.UserID,
			"status", data.Status,
			"sent", data.Sent,
		)
		return nil
	})
}

// decodeLenient fills v from raw when raw is a JSON object. Absent or null
// data is fine; anything else reports false and leaves v zero.
func decodeLenient(raw json.RawMessage, v any) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return true
	}
	return json.Unmarshal(raw, v) == nil
}
