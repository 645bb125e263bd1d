package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	circdomain "github.com/ghuser/bookcirc/services/circulation/domain"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
	"github.com/ghuser/bookcirc/services/circulation/infrastructure/persistence/postgres/db"
)

// MemberRepository implements repositories.MemberRepository against PostgreSQL.
type MemberRepository struct {
	q *db.Queries
}

func (r *MemberRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	row, err := r.q.GetMember(ctx, id)
	if err != nil {
		return nil, memberErr(err)
	}
	return rowToMember(row), nil
}

func (r *MemberRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	row, err := r.q.GetMemberForUpdate(ctx, id)
	if err != nil {
		return nil, memberErr(err)
	}
	return rowToMember(row), nil
}

func (r *MemberRepository) FindByKey(ctx context.Context, norm string) ([]*models.Member, error) {
	rows, err := r.q.FindMembersByNumberNorm(ctx, norm)
	if err != nil {
		return nil, fmt.Errorf("query members by number: %w", err)
	}
	return rowsToMembers(rows), nil
}

func (r *MemberRepository) FindByKeySuffix(ctx context.Context, suffix string) ([]*models.Member, error) {
	rows, err := r.q.FindMembersByNumberSuffix(ctx, suffix)
	if err != nil {
		return nil, fmt.Errorf("query members by number suffix: %w", err)
	}
	return rowsToMembers(rows), nil
}

func memberErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return circdomain.ErrMemberNotFound
	}
	return fmt.Errorf("query member: %w", err)
}

func rowToMember(row db.Member) *models.Member {
	return &models.Member{
		ID:        row.ID,
		TenantID:  row.TenantID,
		Number:    row.MemberNumber,
		Name:      row.Name,
		IsBlocked: row.IsBlocked,
		Note:      row.Note,
	}
}

func rowsToMembers(rows []db.Member) []*models.Member {
	members := make([]*models.Member, len(rows))
	for i, row := range rows {
		members[i] = rowToMember(row)
	}
	return members
}
