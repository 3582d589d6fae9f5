package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

type MessagesRepo struct {
	db *sql.DB
}

func NewMessagesRepo(db *sql.DB) *MessagesRepo {
	return &MessagesRepo{db: db}
}

func (r *MessagesRepo) AddMessage(ctx context.Context, msg core.ChatMessage) (core.ChatMessage, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Type == "" {
		msg.Type = "sms"
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, sender_id, receiver_id, content, type, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, msg.Type, msg.Timestamp,
	)
	if err != nil {
		return core.ChatMessage{}, fmt.Errorf("failed to insert message: %w", err)
	}
	return msg, nil
}

// ListMessages returns the last limit messages of a participant, oldest first.
// A non-positive limit returns the whole conversation.
func (r *MessagesRepo) ListMessages(ctx context.Context, participantID string, limit int) ([]core.ChatMessage, error) {
	if limit <= 0 {
		limit = -1
	}

	// Fetch the LAST 'limit' messages by ordering DESC
	query := `
		SELECT id, sender_id, receiver_id, content, type, timestamp
		FROM messages
		WHERE sender_id = ? OR receiver_id = ?
		ORDER BY seq DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, participantID, participantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []core.ChatMessage
	for rows.Next() {
		var m core.ChatMessage
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Type, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	log.FromCtx(ctx).Debug().Str("participant", participantID).Int("count", len(messages)).Msg("loaded messages")
	return messages, nil
}
