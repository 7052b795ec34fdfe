package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/settle-hub/settle-hub/internal/domain/message"
)

// MessageRepository implements message.Store.
type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

func (r *MessageRepository) Create(ctx context.Context, msg *message.StatusMessage) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO status_messages
		(message_id, room_id, session_id, kind, text, completed_count, total_count, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, msg.MessageID, msg.RoomID, msg.SessionID, msg.Kind, msg.Text, msg.CompletedCount, msg.TotalCount, msg.CreatedAt, msg.UpdatedAt)
	return err
}

func (r *MessageRepository) Update(ctx context.Context, messageID uuid.UUID, kind message.Kind, text string, completed, total int, updatedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE status_messages
		SET kind=$1, text=$2, completed_count=$3, total_count=$4, updated_at=$5
		WHERE message_id=$6
	`, kind, text, completed, total, updatedAt, messageID)
	return err
}

func (r *MessageRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*message.StatusMessage, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, message_id, room_id, session_id, kind, text, completed_count, total_count, created_at, updated_at
		FROM status_messages
		WHERE session_id=$1
		ORDER BY created_at DESC
		LIMIT 1
	`, sessionID)

	var m message.StatusMessage
	err := row.Scan(&m.ID, &m.MessageID, &m.RoomID, &m.SessionID, &m.Kind, &m.Text, &m.CompletedCount, &m.TotalCount, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
