package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/settle-hub/settle-hub/internal/domain/message"
)

// MockStore is a mock implementation of message.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, msg *message.StatusMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockStore) Update(ctx context.Context, messageID uuid.UUID, kind message.Kind, text string, completed, total int, updatedAt time.Time) error {
	args := m.Called(ctx, messageID, kind, text, completed, total, updatedAt)
	return args.Error(0)
}

func (m *MockStore) GetBySession(ctx context.Context, sessionID uuid.UUID) (*message.StatusMessage, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*message.StatusMessage), args.Error(1)
}
