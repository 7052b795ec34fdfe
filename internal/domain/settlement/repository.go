package settlement

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_store.go -package=mocks . Store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines persistence for payment sessions and their participant rows.
// Each call is individually transactionally safe; the per-room serialization
// in the manager is layered on top, not delegated here.
type Store interface {
	// CreateSession persists the session and its participant rows in one
	// transaction.
	CreateSession(ctx context.Context, session *Session, participants []*ParticipantPayment) error

	// GetActive returns the room's IN_PROGRESS session, or nil if none.
	GetActive(ctx context.Context, roomID string) (*Session, error)

	// GetLatest returns the room's active session, or failing that the most
	// recently created terminal one. Nil if the room has no session at all.
	GetLatest(ctx context.Context, roomID string) (*Session, error)

	GetByID(ctx context.Context, sessionID uuid.UUID) (*Session, error)

	// DeleteSession hard-deletes the session and its participant rows.
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error

	ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]*ParticipantPayment, error)
	GetParticipant(ctx context.Context, sessionID uuid.UUID, userID string) (*ParticipantPayment, error)

	// MarkCompleted flips one participant row PENDING -> COMPLETED.
	MarkCompleted(ctx context.Context, sessionID uuid.UUID, userID string, paidAt time.Time) error

	// CountCompleted counts COMPLETED rows from the authoritative row set.
	CountCompleted(ctx context.Context, sessionID uuid.UUID) (int, error)

	// FinalizeSession transitions the session to COMPLETED.
	FinalizeSession(ctx context.Context, sessionID uuid.UUID, completedAt time.Time) error
}
