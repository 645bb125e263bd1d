package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/pkg/tenancy"
	circdomain "github.com/ghuser/bookcirc/services/circulation/domain"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
	"github.com/ghuser/bookcirc/services/circulation/infrastructure/persistence/postgres/db"
)

// TenantRepository implements repositories.TenantRepository against PostgreSQL.
type TenantRepository struct {
	q *db.Queries
}

func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	row, err := r.q.GetBranch(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, circdomain.ErrTenantNotFound
		}
		return nil, fmt.Errorf("query branch: %w", err)
	}
	return rowToTenant(row), nil
}

// List returns the branches scope admits, ordered by code.
func (r *TenantRepository) List(ctx context.Context, scope tenancy.Filter) ([]*models.Tenant, error) {
	ds := scope.Apply(dialect.From("branches").Select("id", "name", "code")).Order(goqu.I("code").Asc())
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build branch list: %w", err)
	}
	rows, err := r.q.QueryBranches(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query branches: %w", err)
	}
	out := make([]*models.Tenant, len(rows))
	for i, row := range rows {
		out[i] = rowToTenant(row)
	}
	return out, nil
}

func rowToTenant(row db.Branch) *models.Tenant {
	return &models.Tenant{ID: row.ID, Name: row.Name, Code: row.Code}
}
