package state

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/mattjoyce/bubot/internal/protocol"
)

// timeLayout is fixed width so received_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// InboxEntry is one accepted callback.
type InboxEntry struct {
	ID         string                  `json:"id"`
	Action     protocol.CallbackAction `json:"action"`
	Data       json.RawMessage         `json:"data,omitempty"`
	BodyDigest string                  `json:"bodyDigest"`
	ReceivedAt time.Time               `json:"receivedAt"`
}

// Inbox persists authenticated callbacks in the callback_inbox table.
type Inbox struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

func NewInbox(db *sql.DB) *Inbox {
	return &Inbox{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Digest returns the hex BLAKE3-256 digest of a raw request body.
func Digest(body []byte) string {
	sum := blake3.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Record stores a callback. rawBody is the exact verified request body; only
// its digest is kept.
func (i *Inbox) Record(ctx context.Context, action protocol.CallbackAction, data json.RawMessage, rawBody []byte) (InboxEntry, error) {
	if action == "" {
		return InboxEntry{}, fmt.Errorf("callback action is empty")
	}
	if len(data) > 0 && !json.Valid(data) {
		return InboxEntry{}, fmt.Errorf("callback data for %q is invalid JSON", action)
	}

	entry := InboxEntry{
		ID:         i.newID(),
		Action:     action,
		Data:       data,
		BodyDigest: Digest(rawBody),
		ReceivedAt: i.now(),
	}

	var stored sql.NullString
	if len(data) > 0 {
		stored = sql.NullString{String: string(data), Valid: true}
	}

	_, err := i.db.ExecContext(ctx, `
INSERT INTO callback_inbox(id, action, data, body_digest, received_at)
VALUES(?, ?, ?, ?, ?);
`, entry.ID, string(entry.Action), stored, entry.BodyDigest, entry.ReceivedAt.Format(timeLayout))
	if err != nil {
		return InboxEntry{}, fmt.Errorf("insert callback: %w", err)
	}
	return entry, nil
}

// List returns up to limit entries, newest first.
func (i *Inbox) List(ctx context.Context, limit int) ([]InboxEntry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := i.db.QueryContext(ctx, `
SELECT id, action, data, body_digest, received_at
FROM callback_inbox
ORDER BY received_at DESC, id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query callback inbox: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []InboxEntry
	for rows.Next() {
		var (
			e          InboxEntry
			action     string
			data       sql.NullString
			receivedAt string
		)
		if err := rows.Scan(&e.ID, &action, &data, &e.BodyDigest, &receivedAt); err != nil {
			return nil, fmt.Errorf("scan callback: %w", err)
		}
		e.Action = protocol.CallbackAction(action)
		if data.Valid {
			e.Data = json.RawMessage(data.String)
		}
		e.ReceivedAt, err = time.Parse(timeLayout, receivedAt)
		if err != nil {
			return nil, fmt.Errorf("parse received_at for %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate callback inbox: %w", err)
	}
	return out, nil
}

// Count returns the number of stored callbacks.
func (i *Inbox) Count(ctx context.Context) (int, error) {
	var n int
	if err := i.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM callback_inbox;").Scan(&n); err != nil {
		return 0, fmt.Errorf("count callback inbox: %w", err)
	}
	return n, nil
}
