package message

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_store.go -package=mocks . Store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines persistence for chat-visible status messages. Messages
// survive session reset; history stays frozen at its last rendered text.
type Store interface {
	Create(ctx context.Context, msg *StatusMessage) error

	// Update rewrites the message in place. The message id never changes.
	Update(ctx context.Context, messageID uuid.UUID, kind Kind, text string, completed, total int, updatedAt time.Time) error

	GetBySession(ctx context.Context, sessionID uuid.UUID) (*StatusMessage, error)
}
