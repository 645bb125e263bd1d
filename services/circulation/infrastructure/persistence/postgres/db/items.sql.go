package db

import (
	"context"

	"github.com/google/uuid"
)

const itemColumns = `id, tenant_id, isbn, title, copies, available`

const getItem = `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

func (q *Queries) GetItem(ctx context.Context, id uuid.UUID) (Item, error) {
	return scanItem(q.db.QueryRowContext(ctx, getItem, id))
}

const getItemForUpdate = `SELECT ` + itemColumns + ` FROM items WHERE id = $1 FOR UPDATE`

func (q *Queries) GetItemForUpdate(ctx context.Context, id uuid.UUID) (Item, error) {
	return scanItem(q.db.QueryRowContext(ctx, getItemForUpdate, id))
}

const findItemsByIsbnNorm = `SELECT ` + itemColumns + ` FROM items WHERE isbn_norm = $1 ORDER BY id`

func (q *Queries) FindItemsByIsbnNorm(ctx context.Context, norm string) ([]Item, error) {
	return q.queryItems(ctx, findItemsByIsbnNorm, norm)
}

const findItemsByIsbnSuffix = `SELECT ` + itemColumns + ` FROM items
WHERE right(isbn_norm, char_length($1::text)) = $1::text
ORDER BY id`

func (q *Queries) FindItemsByIsbnSuffix(ctx context.Context, suffix string) ([]Item, error) {
	return q.queryItems(ctx, findItemsByIsbnSuffix, suffix)
}

const updateItemAvailable = `UPDATE items SET available = $2 WHERE id = $1`

type UpdateItemAvailableParams struct {
	ID        uuid.UUID
	Available int32
}

func (q *Queries) UpdateItemAvailable(ctx context.Context, arg UpdateItemAvailableParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateItemAvailable, arg.ID, arg.Available)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) queryItems(ctx context.Context, query string, args ...interface{}) ([]Item, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row scanner) (Item, error) {
	var i Item
	err := row.Scan(
		&i.ID,
		&i.TenantID,
		&i.Isbn,
		&i.Title,
		&i.Copies,
		&i.Available,
	)
	return i, err
}
