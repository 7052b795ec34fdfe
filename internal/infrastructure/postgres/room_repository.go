package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/settle-hub/settle-hub/internal/domain/room"
	"github.com/settle-hub/settle-hub/internal/domain/settlement"
)

// RoomRepository is the postgres-backed room.Directory and
// room.VenueAccounts. The membership tables are owned by the chat service;
// this repository only reads them.
type RoomRepository struct {
	pool *pgxpool.Pool
}

func NewRoomRepository(pool *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

func (r *RoomRepository) ListMembers(ctx context.Context, roomID string) ([]room.Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, display_name, is_host
		FROM room_members
		WHERE room_id=$1
		ORDER BY is_host DESC, user_id ASC
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []room.Member
	for rows.Next() {
		var m room.Member
		if err := rows.Scan(&m.UserID, &m.DisplayName, &m.IsHost); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *RoomRepository) IsHost(ctx context.Context, roomID, userID string) (bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT is_host
		FROM room_members
		WHERE room_id=$1 AND user_id=$2
	`, roomID, userID)
	var isHost bool
	err := row.Scan(&isHost)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return isHost, nil
}

func (r *RoomRepository) Account(ctx context.Context, roomID string) (settlement.StoreAccount, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT bank_name, account_number, holder_name
		FROM rooms
		WHERE room_id=$1
	`, roomID)
	var acct settlement.StoreAccount
	err := row.Scan(&acct.BankName, &acct.AccountNumber, &acct.HolderName)
	if err == pgx.ErrNoRows {
		return settlement.StoreAccount{}, room.ErrRoomNotFound
	}
	if err != nil {
		return settlement.StoreAccount{}, err
	}
	return acct, nil
}
