package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/settle-hub/settle-hub/internal/domain/event"
	"github.com/settle-hub/settle-hub/internal/domain/message"
	"github.com/settle-hub/settle-hub/internal/domain/room"
	"github.com/settle-hub/settle-hub/internal/domain/settlement"
	"github.com/settle-hub/settle-hub/internal/infrastructure/metrics"
)

const publishTimeout = 5 * time.Second

// Manager owns the settlement state machine for every room: it enforces the
// single-active-session invariant, serializes same-room mutations, rewrites
// the live status message and publishes room events after each committed
// state change.
type Manager struct {
	store    settlement.Store
	messages message.Store
	rooms    room.Directory
	venues   room.VenueAccounts
	channel  event.Channel
	logger   zerolog.Logger
	window   time.Duration
	locks    *roomLocks
	now      func() time.Time
}

// NewManager creates a settlement manager. window is the display deadline
// added to each session's creation time.
func NewManager(
	store settlement.Store,
	messages message.Store,
	rooms room.Directory,
	venues room.VenueAccounts,
	channel event.Channel,
	window time.Duration,
	logger zerolog.Logger,
) *Manager {
	return &Manager{
		store:    store,
		messages: messages,
		rooms:    rooms,
		venues:   venues,
		channel:  channel,
		logger:   logger.With().Str("service", "settlement").Logger(),
		window:   window,
		locks:    newRoomLocks(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// StartInput starts a settlement session for a room.
type StartInput struct {
	RoomID          string
	CallerID        string
	AmountPerPerson int64
}

// ParticipantResult is returned to a participant who completed payment.
type ParticipantResult struct {
	Payment          *settlement.ParticipantPayment `json:"payment"`
	RemainingPending int                            `json:"remainingPending"`
	FullyCompleted   bool                           `json:"isFullyCompleted"`
}

// SessionView is the read model returned by Status.
type SessionView struct {
	Session          *settlement.Session              `json:"session"`
	Participants     []*settlement.ParticipantPayment `json:"participants"`
	CompletedCount   int                              `json:"completedCount"`
	RemainingPending int                              `json:"remainingPending"`
}

// Start creates a settlement session for the room. The caller must be the
// room host; membership and room size are snapshotted here and never
// re-derived, so the bill splits among whoever was present at start time.
func (s *Manager) Start(ctx context.Context, in StartInput) (*settlement.Session, error) {
	if in.AmountPerPerson <= 0 {
		metrics.OperationsTotal.WithLabelValues("start", "rejected").Inc()
		return nil, settlement.ErrInvalidAmount
	}
	isHost, err := s.rooms.IsHost(ctx, in.RoomID, in.CallerID)
	if err != nil {
		return nil, fmt.Errorf("host lookup failed: %w", err)
	}
	if !isHost {
		metrics.OperationsTotal.WithLabelValues("start", "rejected").Inc()
		return nil, settlement.ErrNotHost
	}

	lock := s.locks.get(in.RoomID)
	lock.Lock()

	session, participants, msg, err := s.startLocked(ctx, in)
	lock.Unlock()
	if err != nil {
		metrics.OperationsTotal.WithLabelValues("start", "rejected").Inc()
		return nil, err
	}
	metrics.OperationsTotal.WithLabelValues("start", "ok").Inc()

	// Fan-out happens after the lock is released; publication is best-effort
	// and must not hold up the next caller.
	s.publish(in.RoomID, event.PaymentStarted, event.PaymentStartedPayload{
		Session:      session,
		Participants: participants,
	})
	if msg != nil {
		s.publish(in.RoomID, event.NewMessage, event.NewMessagePayload{Message: msg})
	}

	s.logger.Info().
		Str("roomId", in.RoomID).
		Str("sessionId", session.SessionID.String()).
		Int("participants", session.TotalParticipants).
		Int64("amountPerPerson", session.AmountPerPerson).
		Msg("settlement started")
	return session, nil
}

func (s *Manager) startLocked(ctx context.Context, in StartInput) (*settlement.Session, []*settlement.ParticipantPayment, *message.StatusMessage, error) {
	// Any existing session conflicts, terminal or not: a COMPLETED session
	// stays queryable as history until the host resets, and the caller
	// branches on the snapshot (resume vs reset-then-retry).
	existing, err := s.store.GetLatest(ctx, in.RoomID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("session lookup failed: %w", err)
	}
	if existing != nil {
		snap, err := s.snapshot(ctx, existing)
		if err != nil {
			return nil, nil, nil, err
		}
		return nil, nil, nil, &settlement.AlreadyActiveError{Snapshot: snap}
	}

	members, err := s.rooms.ListMembers(ctx, in.RoomID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("member listing failed: %w", err)
	}
	if len(members) == 0 {
		return nil, nil, nil, settlement.ErrNoMembers
	}

	acct, err := s.venues.Account(ctx, in.RoomID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("venue account lookup failed: %w", err)
	}

	now := s.now()
	session := &settlement.Session{
		SessionID:         uuid.New(),
		RoomID:            in.RoomID,
		HostID:            in.CallerID,
		AmountPerPerson:   in.AmountPerPerson,
		TotalParticipants: len(members),
		Status:            settlement.StatusInProgress,
		StoreAccount:      acct,
		CreatedAt:         now,
		Deadline:          now.Add(s.window),
	}
	participants := make([]*settlement.ParticipantPayment, 0, len(members))
	for _, m := range members {
		participants = append(participants, &settlement.ParticipantPayment{
			SessionID:   session.SessionID,
			UserID:      m.UserID,
			DisplayName: m.DisplayName,
			IsHost:      m.IsHost,
			Status:      settlement.PaymentStatusPending,
		})
	}

	if err := s.store.CreateSession(ctx, session, participants); err != nil {
		return nil, nil, nil, fmt.Errorf("session create failed: %w", err)
	}

	// The session commit is durable at this point. A message store failure
	// leaves clients temporarily without the live entry, never the state
	// machine inconsistent.
	msg := &message.StatusMessage{
		MessageID:      uuid.New(),
		RoomID:         in.RoomID,
		SessionID:      session.SessionID,
		Kind:           message.KindSettlementStart,
		Text:           RenderStatusText(message.KindSettlementStart, 0, session.TotalParticipants, acct, session.AmountPerPerson, session.Deadline),
		CompletedCount: 0,
		TotalCount:     session.TotalParticipants,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		s.logger.Warn().Err(err).Str("roomId", in.RoomID).Msg("status message create failed")
		msg = nil
	}

	return session, participants, msg, nil
}

// Complete marks the caller's payment as done, recomputes aggregate
// progress from the authoritative row set and rewrites the status message
// in place. The last pending completion transitions the session to
// COMPLETED exactly once.
func (s *Manager) Complete(ctx context.Context, roomID, callerID string) (*ParticipantResult, error) {
	lock := s.locks.get(roomID)
	lock.Lock()

	result, msg, err := s.completeLocked(ctx, roomID, callerID)
	lock.Unlock()
	if err != nil {
		metrics.OperationsTotal.WithLabelValues("complete", "rejected").Inc()
		return nil, err
	}
	metrics.OperationsTotal.WithLabelValues("complete", "ok").Inc()

	if result.FullyCompleted {
		s.publish(roomID, event.PaymentFullyCompleted, event.PaymentFullyCompletedPayload{
			SessionID: result.Payment.SessionID,
		})
	} else {
		s.publish(roomID, event.PaymentCompleted, event.PaymentCompletedPayload{
			UserID:           callerID,
			RemainingPending: result.RemainingPending,
		})
	}
	if msg != nil {
		s.publish(roomID, event.MessageUpdated, event.MessageUpdatedPayload{
			MessageID:      msg.MessageID,
			CompletedCount: msg.CompletedCount,
			TotalCount:     msg.TotalCount,
		})
	}

	s.logger.Info().
		Str("roomId", roomID).
		Str("userId", callerID).
		Int("remainingPending", result.RemainingPending).
		Bool("fullyCompleted", result.FullyCompleted).
		Msg("payment completed")
	return result, nil
}

func (s *Manager) completeLocked(ctx context.Context, roomID, callerID string) (*ParticipantResult, *message.StatusMessage, error) {
	session, err := s.store.GetActive(ctx, roomID)
	if err != nil {
		return nil, nil, fmt.Errorf("active session lookup failed: %w", err)
	}
	if session == nil {
		return nil, nil, settlement.ErrNoActiveSession
	}

	payment, err := s.store.GetParticipant(ctx, session.SessionID, callerID)
	if err != nil {
		return nil, nil, fmt.Errorf("participant lookup failed: %w", err)
	}
	if payment == nil {
		return nil, nil, settlement.ErrNotParticipant
	}
	if payment.Status == settlement.PaymentStatusCompleted {
		return nil, nil, &settlement.AlreadyCompletedError{Payment: payment}
	}

	now := s.now()
	if err := s.store.MarkCompleted(ctx, session.SessionID, callerID, now); err != nil {
		return nil, nil, fmt.Errorf("mark completed failed: %w", err)
	}
	payment.Status = settlement.PaymentStatusCompleted
	payment.PaidAt = &now

	// Recount from the rows rather than a cached counter so concurrent
	// interleavings cannot drift the aggregate.
	completed, err := s.store.CountCompleted(ctx, session.SessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("completed recount failed: %w", err)
	}
	remaining := session.TotalParticipants - completed

	if remaining == 0 {
		if err := s.store.FinalizeSession(ctx, session.SessionID, now); err != nil {
			return nil, nil, fmt.Errorf("session finalize failed: %w", err)
		}
		session.Status = settlement.StatusCompleted
		session.CompletedAt = &now
	}

	msg := s.rewriteMessage(ctx, session, completed, now)

	return &ParticipantResult{
		Payment:          payment,
		RemainingPending: remaining,
		FullyCompleted:   remaining == 0,
	}, msg, nil
}

// rewriteMessage updates the session's live status message in place. The
// message id never changes; clients see one evolving chat entry. Failures
// are logged only, the committed payment state already stands.
func (s *Manager) rewriteMessage(ctx context.Context, session *settlement.Session, completed int, now time.Time) *message.StatusMessage {
	msg, err := s.messages.GetBySession(ctx, session.SessionID)
	if err != nil {
		s.logger.Warn().Err(err).Str("sessionId", session.SessionID.String()).Msg("status message lookup failed")
		return nil
	}
	if msg == nil {
		return nil
	}

	text := RenderStatusText(message.KindSettlementProgress, completed, session.TotalParticipants,
		session.StoreAccount, session.AmountPerPerson, session.Deadline)
	if err := s.messages.Update(ctx, msg.MessageID, message.KindSettlementProgress, text, completed, session.TotalParticipants, now); err != nil {
		s.logger.Warn().Err(err).Str("messageId", msg.MessageID.String()).Msg("status message update failed")
		return nil
	}
	msg.Kind = message.KindSettlementProgress
	msg.Text = text
	msg.CompletedCount = completed
	msg.TotalCount = session.TotalParticipants
	msg.UpdatedAt = now
	return msg
}

// Status returns the room's current (or most recent terminal) session with
// per-participant state and aggregate counts. Counts come through the same
// store recount used by Complete, so all views agree.
func (s *Manager) Status(ctx context.Context, roomID string) (*SessionView, error) {
	session, err := s.store.GetLatest(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("session lookup failed: %w", err)
	}
	if session == nil {
		return nil, settlement.ErrNoActiveSession
	}

	participants, err := s.store.ListParticipants(ctx, session.SessionID)
	if err != nil {
		return nil, fmt.Errorf("participant listing failed: %w", err)
	}
	completed, err := s.store.CountCompleted(ctx, session.SessionID)
	if err != nil {
		return nil, fmt.Errorf("completed recount failed: %w", err)
	}

	return &SessionView{
		Session:          session,
		Participants:     participants,
		CompletedCount:   completed,
		RemainingPending: session.TotalParticipants - completed,
	}, nil
}

// Reset hard-deletes the room's session and its participant rows, returning
// the room to the no-session state. Status message history is kept, frozen
// at its last rendered text.
func (s *Manager) Reset(ctx context.Context, roomID, callerID string) error {
	lock := s.locks.get(roomID)
	lock.Lock()

	sessionID, err := s.resetLocked(ctx, roomID, callerID)
	lock.Unlock()
	if err != nil {
		metrics.OperationsTotal.WithLabelValues("reset", "rejected").Inc()
		return err
	}
	metrics.OperationsTotal.WithLabelValues("reset", "ok").Inc()

	s.publish(roomID, event.PaymentReset, event.PaymentResetPayload{SessionID: sessionID})

	s.logger.Info().Str("roomId", roomID).Str("sessionId", sessionID.String()).Msg("settlement reset")
	return nil
}

func (s *Manager) resetLocked(ctx context.Context, roomID, callerID string) (uuid.UUID, error) {
	session, err := s.store.GetLatest(ctx, roomID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("session lookup failed: %w", err)
	}
	if session == nil {
		return uuid.Nil, settlement.ErrNoActiveSession
	}
	if session.HostID != callerID {
		return uuid.Nil, settlement.ErrNotHost
	}
	if err := s.store.DeleteSession(ctx, session.SessionID); err != nil {
		return uuid.Nil, fmt.Errorf("session delete failed: %w", err)
	}
	return session.SessionID, nil
}

func (s *Manager) snapshot(ctx context.Context, session *settlement.Session) (settlement.Snapshot, error) {
	completed, err := s.store.CountCompleted(ctx, session.SessionID)
	if err != nil {
		return settlement.Snapshot{}, fmt.Errorf("completed recount failed: %w", err)
	}
	return settlement.Snapshot{
		SessionID:      session.SessionID,
		RoomID:         session.RoomID,
		Status:         session.Status,
		CompletedCount: completed,
		TotalCount:     session.TotalParticipants,
	}, nil
}

// publish pushes one event to the room channel. Best-effort: failures are
// logged, never surfaced, and state is already durable by the time any
// publish runs.
func (s *Manager) publish(roomID, name string, payload any) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.channel.Publish(ctx, roomID, name, payload); err != nil {
		s.logger.Warn().Err(err).Str("roomId", roomID).Str("event", name).Msg("event publish failed")
		return
	}
	metrics.EventsPublished.WithLabelValues(name).Inc()
}
