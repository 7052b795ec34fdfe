package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/settle-hub/settle-hub/internal/domain/message"
	"github.com/settle-hub/settle-hub/internal/domain/settlement"
)

// Event names pushed to room subscribers. Names and payload field names are
// part of the client contract and must not change.
const (
	PaymentStarted        = "paymentStarted"
	PaymentCompleted      = "paymentCompleted"
	PaymentFullyCompleted = "paymentFullyCompleted"
	PaymentReset          = "paymentReset"
	NewMessage            = "newMessage"
	MessageUpdated        = "messageUpdated"
)

// PaymentStartedPayload carries the full session and participant snapshot.
type PaymentStartedPayload struct {
	Session      *settlement.Session              `json:"session"`
	Participants []*settlement.ParticipantPayment `json:"participants"`
}

// PaymentCompletedPayload announces one participant's completion.
type PaymentCompletedPayload struct {
	UserID           string `json:"user_id"`
	RemainingPending int    `json:"remaining_pending"`
}

// PaymentFullyCompletedPayload announces the terminal transition.
type PaymentFullyCompletedPayload struct {
	SessionID uuid.UUID `json:"session_id"`
}

// PaymentResetPayload announces a host-initiated reset.
type PaymentResetPayload struct {
	SessionID uuid.UUID `json:"session_id"`
}

// NewMessagePayload carries a freshly created status message.
type NewMessagePayload struct {
	Message *message.StatusMessage `json:"message"`
}

// MessageUpdatedPayload carries the in-place rewrite of a status message.
type MessageUpdatedPayload struct {
	MessageID      uuid.UUID `json:"message_id"`
	CompletedCount int       `json:"completed_count"`
	TotalCount     int       `json:"total_count"`
}

// Envelope is the wire form of one published event.
type Envelope struct {
	ID        uuid.UUID       `json:"id"`
	RoomID    string          `json:"roomId"`
	Name      string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
	Origin    string          `json:"origin,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEnvelope wraps a payload for publication.
func NewEnvelope(roomID, name string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:        uuid.New(),
		RoomID:    roomID,
		Name:      name,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Channel delivers named events to every client subscribed to a room.
// Delivery is fire-and-forget, at-least-once, unordered across independent
// publishes. Errors are for logging only; publication never gates state.
type Channel interface {
	Publish(ctx context.Context, roomID, name string, payload any) error
}
