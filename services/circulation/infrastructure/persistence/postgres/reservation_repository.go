package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	circdomain "github.com/ghuser/bookcirc/services/circulation/domain"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
	"github.com/ghuser/bookcirc/services/circulation/infrastructure/persistence/postgres/db"
)

const (
	pgUniqueViolation = "23505"

	activeReservationIndex = "uq_reservations_active_member"
)

// ReservationRepository implements repositories.ReservationRepository against PostgreSQL.
type ReservationRepository struct {
	q *db.Queries
}

// Create inserts an active reservation. The partial unique index on
// (item_id, member_id) WHERE status = 'active' turns a concurrent duplicate
// into duplicate_reservation.
func (r *ReservationRepository) Create(ctx context.Context, res *models.Reservation) error {
	if err := r.q.InsertReservation(ctx, db.InsertReservationParams{
		ID:        res.ID,
		ItemID:    res.ItemID,
		MemberID:  res.MemberID,
		TenantID:  res.TenantID,
		Status:    string(res.Status),
		CreatedAt: res.CreatedAt,
	}); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == activeReservationIndex {
			return circdomain.NewPolicyError(circdomain.ReasonDuplicateReservation,
				"member already holds an active reservation for this item",
				map[string]any{"item_id": res.ItemID})
		}
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	row, err := r.q.GetReservation(ctx, id)
	if err != nil {
		return nil, reservationErr(err)
	}
	return rowToReservation(row), nil
}

func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	row, err := r.q.GetReservationForUpdate(ctx, id)
	if err != nil {
		return nil, reservationErr(err)
	}
	return rowToReservation(row), nil
}

// Head returns nil without error when the item has no active reservation.
func (r *ReservationRepository) Head(ctx context.Context, itemID uuid.UUID) (*models.Reservation, error) {
	row, err := r.q.HeadReservation(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query reservation head: %w", err)
	}
	return rowToReservation(row), nil
}

func (r *ReservationRepository) ListActive(ctx context.Context, itemID uuid.UUID) ([]*models.Reservation, error) {
	rows, err := r.q.ListActiveReservations(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("query reservation queue: %w", err)
	}
	out := make([]*models.Reservation, len(rows))
	for i, row := range rows {
		out[i] = rowToReservation(row)
	}
	return out, nil
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReservationStatus) error {
	n, err := r.q.UpdateReservationStatus(ctx, db.UpdateReservationStatusParams{ID: id, Status: string(status)})
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	if n == 0 {
		return circdomain.ErrReservationClosed
	}
	return nil
}

func reservationErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return circdomain.ErrReservationNotFound
	}
	return fmt.Errorf("query reservation: %w", err)
}

func rowToReservation(row db.Reservation) *models.Reservation {
	return &models.Reservation{
		ID:        row.ID,
		ItemID:    row.ItemID,
		MemberID:  row.MemberID,
		TenantID:  row.TenantID,
		Status:    models.ReservationStatus(row.Status),
		CreatedAt: row.CreatedAt.UTC(),
	}
}
