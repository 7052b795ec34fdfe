package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/settle-hub/settle-hub/internal/domain/settlement"
)

// SessionRepository implements settlement.Store.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func (r *SessionRepository) CreateSession(ctx context.Context, session *settlement.Session, participants []*settlement.ParticipantPayment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO payment_sessions
		(session_id, room_id, host_id, amount_per_person, total_participants, status, bank_name, account_number, holder_name, created_at, deadline, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, session.SessionID, session.RoomID, session.HostID, session.AmountPerPerson, session.TotalParticipants, session.Status,
		session.StoreAccount.BankName, session.StoreAccount.AccountNumber, session.StoreAccount.HolderName,
		session.CreatedAt, session.Deadline, session.CompletedAt)
	if err != nil {
		return err
	}

	for _, p := range participants {
		_, err = tx.Exec(ctx, `
			INSERT INTO participant_payments
			(session_id, user_id, display_name, is_host, status, paid_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, p.SessionID, p.UserID, p.DisplayName, p.IsHost, p.Status, p.PaidAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *SessionRepository) GetActive(ctx context.Context, roomID string) (*settlement.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, session_id, room_id, host_id, amount_per_person, total_participants, status, bank_name, account_number, holder_name, created_at, deadline, completed_at
		FROM payment_sessions
		WHERE room_id=$1 AND status='IN_PROGRESS'
	`, roomID)
	return scanSession(row)
}

func (r *SessionRepository) GetLatest(ctx context.Context, roomID string) (*settlement.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, session_id, room_id, host_id, amount_per_person, total_participants, status, bank_name, account_number, holder_name, created_at, deadline, completed_at
		FROM payment_sessions
		WHERE room_id=$1
		ORDER BY (status='IN_PROGRESS') DESC, created_at DESC
		LIMIT 1
	`, roomID)
	return scanSession(row)
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID uuid.UUID) (*settlement.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, session_id, room_id, host_id, amount_per_person, total_participants, status, bank_name, account_number, holder_name, created_at, deadline, completed_at
		FROM payment_sessions
		WHERE session_id=$1
	`, sessionID)
	return scanSession(row)
}

func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	// participant_payments rows go with it via ON DELETE CASCADE
	_, err := r.pool.Exec(ctx, `
		DELETE FROM payment_sessions
		WHERE session_id=$1
	`, sessionID)
	return err
}

func (r *SessionRepository) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]*settlement.ParticipantPayment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, user_id, display_name, is_host, status, paid_at
		FROM participant_payments
		WHERE session_id=$1
		ORDER BY is_host DESC, user_id ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*settlement.ParticipantPayment
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SessionRepository) GetParticipant(ctx context.Context, sessionID uuid.UUID, userID string) (*settlement.ParticipantPayment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, session_id, user_id, display_name, is_host, status, paid_at
		FROM participant_payments
		WHERE session_id=$1 AND user_id=$2
	`, sessionID, userID)
	return scanParticipant(row)
}

func (r *SessionRepository) MarkCompleted(ctx context.Context, sessionID uuid.UUID, userID string, paidAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE participant_payments
		SET status='COMPLETED', paid_at=$1
		WHERE session_id=$2 AND user_id=$3 AND status='PENDING'
	`, paidAt, sessionID, userID)
	return err
}

func (r *SessionRepository) CountCompleted(ctx context.Context, sessionID uuid.UUID) (int, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(1)
		FROM participant_payments
		WHERE session_id=$1 AND status='COMPLETED'
	`, sessionID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SessionRepository) FinalizeSession(ctx context.Context, sessionID uuid.UUID, completedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE payment_sessions
		SET status='COMPLETED', completed_at=$1
		WHERE session_id=$2 AND status='IN_PROGRESS'
	`, completedAt, sessionID)
	return err
}

func scanSession(row pgx.Row) (*settlement.Session, error) {
	var s settlement.Session
	err := row.Scan(&s.ID, &s.SessionID, &s.RoomID, &s.HostID, &s.AmountPerPerson, &s.TotalParticipants, &s.Status,
		&s.StoreAccount.BankName, &s.StoreAccount.AccountNumber, &s.StoreAccount.HolderName,
		&s.CreatedAt, &s.Deadline, &s.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanParticipant(row pgx.Row) (*settlement.ParticipantPayment, error) {
	var p settlement.ParticipantPayment
	err := row.Scan(&p.ID, &p.SessionID, &p.UserID, &p.DisplayName, &p.IsHost, &p.Status, &p.PaidAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
