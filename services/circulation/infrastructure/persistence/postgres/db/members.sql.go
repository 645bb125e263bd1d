package db

import (
	"context"

	"github.com/google/uuid"
)

const memberColumns = `id, tenant_id, member_number, name, is_blocked, note`

const getMember = `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

func (q *Queries) GetMember(ctx context.Context, id uuid.UUID) (Member, error) {
	return scanMember(q.db.QueryRowContext(ctx, getMember, id))
}

const getMemberForUpdate = `SELECT ` + memberColumns + ` FROM members WHERE id = $1 FOR UPDATE`

func (q *Queries) GetMemberForUpdate(ctx context.Context, id uuid.UUID) (Member, error) {
	return scanMember(q.db.QueryRowContext(ctx, getMemberForUpdate, id))
}

const findMembersByNumberNorm = `SELECT ` + memberColumns + ` FROM members WHERE member_number_norm = $1 ORDER BY id`

func (q *Queries) FindMembersByNumberNorm(ctx context.Context, norm string) ([]Member, error) {
	return q.queryMembers(ctx, findMembersByNumberNorm, norm)
}

const findMembersByNumberSuffix = `SELECT ` + memberColumns + ` FROM members
WHERE right(member_number_norm, char_length($1::text)) = $1::text
ORDER BY id`

func (q *Queries) FindMembersByNumberSuffix(ctx context.Context, suffix string) ([]Member, error) {
	return q.queryMembers(ctx, findMembersByNumberSuffix, suffix)
}

func (q *Queries) queryMembers(ctx context.Context, query string, args ...interface{}) ([]Member, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func scanMember(row scanner) (Member, error) {
	var m Member
	err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.MemberNumber,
		&m.Name,
		&m.IsBlocked,
		&m.Note,
	)
	return m, err
}
