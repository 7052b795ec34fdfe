package settlement

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status describes payment session state.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

// PaymentStatus describes one participant's payment state.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
)

var (
	ErrNoActiveSession = errors.New("no settlement session for room")
	ErrNotHost         = errors.New("caller is not the room host")
	ErrNotParticipant  = errors.New("caller is not a session participant")
	ErrInvalidAmount   = errors.New("amount per person must be positive")
	ErrNoMembers       = errors.New("room has no members")
)

// StoreAccount is the venue's bank account, copied onto the session at start
// and immutable afterwards.
type StoreAccount struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	HolderName    string `json:"holderName"`
}

// Session is one settlement attempt for a room. The participant set and
// amount are frozen at creation time.
type Session struct {
	ID                int64        `json:"id"`
	SessionID         uuid.UUID    `json:"sessionId"`
	RoomID            string       `json:"roomId"`
	HostID            string       `json:"hostId"`
	AmountPerPerson   int64        `json:"amountPerPerson"`
	TotalParticipants int          `json:"totalParticipants"`
	Status            Status       `json:"status"`
	StoreAccount      StoreAccount `json:"storeAccount"`
	CreatedAt         time.Time    `json:"createdAt"`
	Deadline          time.Time    `json:"deadline"`
	CompletedAt       *time.Time   `json:"completedAt,omitempty"`
}

// IsTerminal reports whether the session accepts no further completions.
func (s *Session) IsTerminal() bool {
	return s.Status == StatusCompleted
}

// ParticipantPayment is one participant's payment row within a session.
// Rows are created in bulk at start and only ever move PENDING -> COMPLETED.
type ParticipantPayment struct {
	ID          int64         `json:"id"`
	SessionID   uuid.UUID     `json:"sessionId"`
	UserID      string        `json:"userId"`
	DisplayName string        `json:"displayName"`
	IsHost      bool          `json:"isHost"`
	Status      PaymentStatus `json:"status"`
	PaidAt      *time.Time    `json:"paidAt,omitempty"`
}

// Snapshot summarizes an existing session for conflict responses.
type Snapshot struct {
	SessionID      uuid.UUID `json:"sessionId"`
	RoomID         string    `json:"roomId"`
	Status         Status    `json:"status"`
	CompletedCount int       `json:"completedCount"`
	TotalCount     int       `json:"totalCount"`
}

// AlreadyActiveError is returned when start hits a room with a non-terminal
// session. It carries a snapshot so the caller can resume or reset instead
// of retrying blindly.
type AlreadyActiveError struct {
	Snapshot Snapshot
}

func (e *AlreadyActiveError) Error() string {
	return fmt.Sprintf("settlement session already active for room %s (%d/%d completed)",
		e.Snapshot.RoomID, e.Snapshot.CompletedCount, e.Snapshot.TotalCount)
}

// AlreadyCompletedError is returned when a participant completes twice.
// It carries the existing row so the caller can show when they paid.
type AlreadyCompletedError struct {
	Payment *ParticipantPayment
}

func (e *AlreadyCompletedError) Error() string {
	return fmt.Sprintf("participant %s already completed payment", e.Payment.UserID)
}
