package db

import (
	"context"

	"github.com/google/uuid"
)

const getBranch = `SELECT id, name, code FROM branches WHERE id = $1`

func (q *Queries) GetBranch(ctx context.Context, id uuid.UUID) (Branch, error) {
	var b Branch
	err := q.db.QueryRowContext(ctx, getBranch, id).Scan(&b.ID, &b.Name, &b.Code)
	return b, err
}

// QueryBranches runs a statement selecting id, name, code from branches.
func (q *Queries) QueryBranches(ctx context.Context, query string, args ...interface{}) ([]Branch, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Branch
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.Name, &b.Code); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
