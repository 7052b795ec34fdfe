package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/settle-hub/settle-hub/internal/domain/settlement"
)

// MockStore is a mock implementation of settlement.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateSession(ctx context.Context, session *settlement.Session, participants []*settlement.ParticipantPayment) error {
	args := m.Called(ctx, session, participants)
	return args.Error(0)
}

func (m *MockStore) GetActive(ctx context.Context, roomID string) (*settlement.Session, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Session), args.Error(1)
}

func (m *MockStore) GetLatest(ctx context.Context, roomID string) (*settlement.Session, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Session), args.Error(1)
}

func (m *MockStore) GetByID(ctx context.Context, sessionID uuid.UUID) (*settlement.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.Session), args.Error(1)
}

func (m *MockStore) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockStore) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]*settlement.ParticipantPayment, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*settlement.ParticipantPayment), args.Error(1)
}

func (m *MockStore) GetParticipant(ctx context.Context, sessionID uuid.UUID, userID string) (*settlement.ParticipantPayment, error) {
	args := m.Called(ctx, sessionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settlement.ParticipantPayment), args.Error(1)
}

func (m *MockStore) MarkCompleted(ctx context.Context, sessionID uuid.UUID, userID string, paidAt time.Time) error {
	args := m.Called(ctx, sessionID, userID, paidAt)
	return args.Error(0)
}

func (m *MockStore) CountCompleted(ctx context.Context, sessionID uuid.UUID) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) FinalizeSession(ctx context.Context, sessionID uuid.UUID, completedAt time.Time) error {
	args := m.Called(ctx, sessionID, completedAt)
	return args.Error(0)
}
