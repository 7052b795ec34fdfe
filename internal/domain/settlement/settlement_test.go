package settlement

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSessionIsTerminal(t *testing.T) {
	s := &Session{Status: StatusInProgress}
	assert.False(t, s.IsTerminal())

	s.Status = StatusCompleted
	assert.True(t, s.IsTerminal())
}

func TestAlreadyActiveErrorMessage(t *testing.T) {
	err := &AlreadyActiveError{Snapshot: Snapshot{
		SessionID:      uuid.New(),
		RoomID:         "room-1",
		Status:         StatusInProgress,
		CompletedCount: 2,
		TotalCount:     5,
	}}
	assert.Contains(t, err.Error(), "room-1")
	assert.Contains(t, err.Error(), "2/5")

	var target *AlreadyActiveError
	assert.True(t, errors.As(error(err), &target))
}

func TestAlreadyCompletedErrorMessage(t *testing.T) {
	paidAt := time.Now().UTC()
	err := &AlreadyCompletedError{Payment: &ParticipantPayment{
		UserID: "B",
		Status: PaymentStatusCompleted,
		PaidAt: &paidAt,
	}}
	assert.Contains(t, err.Error(), "B")
}
