package room

import (
	"context"
	"errors"

	"github.com/settle-hub/settle-hub/internal/domain/settlement"
)

var ErrRoomNotFound = errors.New("room not found")

// Member is one room member as seen by the settlement engine.
type Member struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	IsHost      bool   `json:"isHost"`
}

// Directory resolves room membership and host identity. The chat room and
// its membership live outside this service; the manager only consumes this
// contract.
type Directory interface {
	ListMembers(ctx context.Context, roomID string) ([]Member, error)
	IsHost(ctx context.Context, roomID, userID string) (bool, error)
}

// VenueAccounts resolves the booked venue's bank account for a room. The
// account is copied onto the session at start time.
type VenueAccounts interface {
	Account(ctx context.Context, roomID string) (settlement.StoreAccount, error)
}
