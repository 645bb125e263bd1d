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

// pgCheckViolation is the SQLSTATE of a failed CHECK constraint.
const pgCheckViolation = "23514"

// ItemRepository implements repositories.ItemRepository against PostgreSQL.
type ItemRepository struct {
	q *db.Queries
}

// GetByID retrieves an Item by ID. Returns ErrItemNotFound if not found.
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	row, err := r.q.GetItem(ctx, id)
	if err != nil {
		return nil, itemErr(err)
	}
	return rowToItem(row), nil
}

// GetByIDForUpdate is GetByID holding a row lock until the transaction ends.
func (r *ItemRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	row, err := r.q.GetItemForUpdate(ctx, id)
	if err != nil {
		return nil, itemErr(err)
	}
	return rowToItem(row), nil
}

func (r *ItemRepository) FindByKey(ctx context.Context, norm string) ([]*models.Item, error) {
	rows, err := r.q.FindItemsByIsbnNorm(ctx, norm)
	if err != nil {
		return nil, fmt.Errorf("query items by isbn: %w", err)
	}
	return rowsToItems(rows), nil
}

func (r *ItemRepository) FindByKeySuffix(ctx context.Context, suffix string) ([]*models.Item, error) {
	rows, err := r.q.FindItemsByIsbnSuffix(ctx, suffix)
	if err != nil {
		return nil, fmt.Errorf("query items by isbn suffix: %w", err)
	}
	return rowsToItems(rows), nil
}

// UpdateAvailable stores the loanable count. The CHECK constraint on items
// rejects values outside [0, copies].
func (r *ItemRepository) UpdateAvailable(ctx context.Context, id uuid.UUID, available int) error {
	n, err := r.q.UpdateItemAvailable(ctx, db.UpdateItemAvailableParams{ID: id, Available: int32(available)})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation {
			return fmt.Errorf("%w: available %d rejected for item %s", circdomain.ErrInvariantViolation, available, id)
		}
		return fmt.Errorf("update item available: %w", err)
	}
	if n == 0 {
		return circdomain.ErrItemNotFound
	}
	return nil
}

func itemErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return circdomain.ErrItemNotFound
	}
	return fmt.Errorf("query item: %w", err)
}

// rowToItem maps a db.Item to a domain models.Item.
func rowToItem(row db.Item) *models.Item {
	item := &models.Item{
		ID:       row.ID,
		TenantID: row.TenantID,
		ISBN:     row.Isbn,
		Title:    row.Title,
		Copies:   int(row.Copies),
	}
	if row.Available.Valid {
		item.SetAvailable(int(row.Available.Int32))
	}
	return item
}

func rowsToItems(rows []db.Item) []*models.Item {
	items := make([]*models.Item, len(rows))
	for i, row := range rows {
		items[i] = rowToItem(row)
	}
	return items
}
