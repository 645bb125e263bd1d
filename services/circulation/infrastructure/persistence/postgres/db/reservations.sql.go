package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const reservationColumns = `id, item_id, member_id, tenant_id, status, created_at`

const insertReservation = `INSERT INTO reservations (id, item_id, member_id, tenant_id, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

type InsertReservationParams struct {
	ID        uuid.UUID
	ItemID    uuid.UUID
	MemberID  uuid.UUID
	TenantID  uuid.NullUUID
	Status    string
	CreatedAt time.Time
}

func (q *Queries) InsertReservation(ctx context.Context, arg InsertReservationParams) error {
	_, err := q.db.ExecContext(ctx, insertReservation,
		arg.ID,
		arg.ItemID,
		arg.MemberID,
		arg.TenantID,
		arg.Status,
		arg.CreatedAt,
	)
	return err
}

const getReservation = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

func (q *Queries) GetReservation(ctx context.Context, id uuid.UUID) (Reservation, error) {
	return scanReservation(q.db.QueryRowContext(ctx, getReservation, id))
}

const getReservationForUpdate = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`

func (q *Queries) GetReservationForUpdate(ctx context.Context, id uuid.UUID) (Reservation, error) {
	return scanReservation(q.db.QueryRowContext(ctx, getReservationForUpdate, id))
}

const headReservation = `SELECT ` + reservationColumns + ` FROM reservations
WHERE item_id = $1 AND status = 'active'
ORDER BY created_at, id
LIMIT 1`

func (q *Queries) HeadReservation(ctx context.Context, itemID uuid.UUID) (Reservation, error) {
	return scanReservation(q.db.QueryRowContext(ctx, headReservation, itemID))
}

const listActiveReservations = `SELECT ` + reservationColumns + ` FROM reservations
WHERE item_id = $1 AND status = 'active'
ORDER BY created_at, id`

func (q *Queries) ListActiveReservations(ctx context.Context, itemID uuid.UUID) ([]Reservation, error) {
	rows, err := q.db.QueryContext(ctx, listActiveReservations, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateReservationStatus = `UPDATE reservations SET status = $2 WHERE id = $1 AND status = 'active'`

type UpdateReservationStatusParams struct {
	ID     uuid.UUID
	Status string
}

func (q *Queries) UpdateReservationStatus(ctx context.Context, arg UpdateReservationStatusParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateReservationStatus, arg.ID, arg.Status)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanReservation(row scanner) (Reservation, error) {
	var r Reservation
	err := row.Scan(
		&r.ID,
		&r.ItemID,
		&r.MemberID,
		&r.TenantID,
		&r.Status,
		&r.CreatedAt,
	)
	return r, err
}
