package message

import (
	"time"

	"github.com/google/uuid"
)

// Kind describes what a status message announces.
type Kind string

const (
	KindSettlementStart    Kind = "SETTLEMENT_START"
	KindSettlementProgress Kind = "SETTLEMENT_PROGRESS"
)

// StatusMessage is the single chat-visible system message for a settlement
// session. It is created once at start and rewritten in place on every
// completion; the message id never changes.
type StatusMessage struct {
	ID             int64     `json:"id"`
	MessageID      uuid.UUID `json:"messageId"`
	RoomID         string    `json:"roomId"`
	SessionID      uuid.UUID `json:"sessionId"`
	Kind           Kind      `json:"kind"`
	Text           string    `json:"text"`
	CompletedCount int       `json:"completedCount"`
	TotalCount     int       `json:"totalCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
