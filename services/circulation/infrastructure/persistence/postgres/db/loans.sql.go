package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

const loanColumns = `id, item_id, member_id, tenant_id, loan_date, due_date, return_date, fine_cents`

const insertLoan = `INSERT INTO loans (id, item_id, member_id, tenant_id, loan_date, due_date, return_date, fine_cents)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

type InsertLoanParams struct {
	ID         uuid.UUID
	ItemID     uuid.UUID
	MemberID   uuid.UUID
	TenantID   uuid.NullUUID
	LoanDate   time.Time
	DueDate    time.Time
	ReturnDate sql.NullTime
	FineCents  int64
}

func (q *Queries) InsertLoan(ctx context.Context, arg InsertLoanParams) error {
	_, err := q.db.ExecContext(ctx, insertLoan,
		arg.ID,
		arg.ItemID,
		arg.MemberID,
		arg.TenantID,
		arg.LoanDate,
		arg.DueDate,
		arg.ReturnDate,
		arg.FineCents,
	)
	return err
}

const getLoan = `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

func (q *Queries) GetLoan(ctx context.Context, id uuid.UUID) (Loan, error) {
	return scanLoan(q.db.QueryRowContext(ctx, getLoan, id))
}

const getLoanForUpdate = `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`

func (q *Queries) GetLoanForUpdate(ctx context.Context, id uuid.UUID) (Loan, error) {
	return scanLoan(q.db.QueryRowContext(ctx, getLoanForUpdate, id))
}

const findOpenLoan = `SELECT ` + loanColumns + ` FROM loans
WHERE item_id = $1 AND member_id = $2 AND return_date IS NULL
ORDER BY loan_date, id
LIMIT 1`

type FindOpenLoanParams struct {
	ItemID   uuid.UUID
	MemberID uuid.UUID
}

func (q *Queries) FindOpenLoan(ctx context.Context, arg FindOpenLoanParams) (Loan, error) {
	return scanLoan(q.db.QueryRowContext(ctx, findOpenLoan, arg.ItemID, arg.MemberID))
}

const countOpenLoansByItem = `SELECT count(*) FROM loans WHERE item_id = $1 AND return_date IS NULL`

func (q *Queries) CountOpenLoansByItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countOpenLoansByItem, itemID).Scan(&n)
	return n, err
}

const countOpenLoansByMember = `SELECT count(*), count(*) FILTER (WHERE due_date < $2::date)
FROM loans
WHERE member_id = $1 AND return_date IS NULL`

type CountOpenLoansByMemberParams struct {
	MemberID uuid.UUID
	AsOf     time.Time
}

type CountOpenLoansByMemberRow struct {
	Active  int64
	Overdue int64
}

func (q *Queries) CountOpenLoansByMember(ctx context.Context, arg CountOpenLoansByMemberParams) (CountOpenLoansByMemberRow, error) {
	var r CountOpenLoansByMemberRow
	err := q.db.QueryRowContext(ctx, countOpenLoansByMember, arg.MemberID, arg.AsOf).Scan(&r.Active, &r.Overdue)
	return r, err
}

const updateLoanDueDate = `UPDATE loans SET due_date = $2 WHERE id = $1 AND return_date IS NULL`

type UpdateLoanDueDateParams struct {
	ID      uuid.UUID
	DueDate time.Time
}

func (q *Queries) UpdateLoanDueDate(ctx context.Context, arg UpdateLoanDueDateParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateLoanDueDate, arg.ID, arg.DueDate)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const closeLoan = `UPDATE loans SET return_date = $2, fine_cents = $3 WHERE id = $1 AND return_date IS NULL`

type CloseLoanParams struct {
	ID         uuid.UUID
	ReturnDate time.Time
	FineCents  int64
}

// CloseLoan reports 0 rows when the loan is missing or already closed.
func (q *Queries) CloseLoan(ctx context.Context, arg CloseLoanParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, closeLoan, arg.ID, arg.ReturnDate, arg.FineCents)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// LoanRowColumns selects a LoanRow from loans l joined with items i and members m.
var LoanRowColumns = []interface{}{
	"l.id", "l.item_id", "l.member_id", "l.tenant_id", "l.loan_date", "l.due_date", "l.return_date", "l.fine_cents",
	"i.title", "i.isbn", "m.name", "m.member_number",
}

const listOverdueLoans = `SELECT l.id, l.item_id, l.member_id, l.tenant_id, l.loan_date, l.due_date, l.return_date, l.fine_cents,
       i.title, i.isbn, m.name, m.member_number
FROM loans l
JOIN items i ON i.id = l.item_id
JOIN members m ON m.id = l.member_id
WHERE l.return_date IS NULL AND l.due_date < $1::date
ORDER BY l.due_date, l.id`

func (q *Queries) ListOverdueLoans(ctx context.Context, asOf time.Time) ([]LoanRow, error) {
	return q.QueryLoanRows(ctx, listOverdueLoans, asOf)
}

// QueryLoanRows runs a statement selecting LoanRowColumns.
func (q *Queries) QueryLoanRows(ctx context.Context, query string, args ...interface{}) ([]LoanRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LoanRow
	for rows.Next() {
		var i LoanRow
		if err := rows.Scan(
			&i.ID,
			&i.ItemID,
			&i.MemberID,
			&i.TenantID,
			&i.LoanDate,
			&i.DueDate,
			&i.ReturnDate,
			&i.FineCents,
			&i.ItemTitle,
			&i.ItemIsbn,
			&i.MemberName,
			&i.MemberNumber,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// QueryCount runs a statement returning a single count.
func (q *Queries) QueryCount(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

func scanLoan(row scanner) (Loan, error) {
	var l Loan
	err := row.Scan(
		&l.ID,
		&l.ItemID,
		&l.MemberID,
		&l.TenantID,
		&l.LoanDate,
		&l.DueDate,
		&l.ReturnDate,
		&l.FineCents,
	)
	return l, err
}
