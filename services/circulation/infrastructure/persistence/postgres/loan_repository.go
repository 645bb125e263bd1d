package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // registers the postgres dialect
	"github.com/google/uuid"

	circdomain "github.com/ghuser/bookcirc/services/circulation/domain"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
	"github.com/ghuser/bookcirc/services/circulation/domain/repositories"
	"github.com/ghuser/bookcirc/services/circulation/infrastructure/persistence/postgres/db"
)

var dialect = goqu.Dialect("postgres")

// LoanRepository implements repositories.LoanRepository against PostgreSQL.
type LoanRepository struct {
	q *db.Queries
}

func (r *LoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	var returned sql.NullTime
	if loan.ReturnDate != nil {
		returned = sql.NullTime{Time: *loan.ReturnDate, Valid: true}
	}
	if err := r.q.InsertLoan(ctx, db.InsertLoanParams{
		ID:         loan.ID,
		ItemID:     loan.ItemID,
		MemberID:   loan.MemberID,
		TenantID:   loan.TenantID,
		LoanDate:   loan.LoanDate,
		DueDate:    models.Day(loan.DueDate),
		ReturnDate: returned,
		FineCents:  loan.FineCents,
	}); err != nil {
		return fmt.Errorf("insert loan: %w", err)
	}
	return nil
}

func (r *LoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	row, err := r.q.GetLoan(ctx, id)
	if err != nil {
		return nil, loanErr(err)
	}
	return rowToLoan(row), nil
}

func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	row, err := r.q.GetLoanForUpdate(ctx, id)
	if err != nil {
		return nil, loanErr(err)
	}
	return rowToLoan(row), nil
}

func (r *LoanRepository) FindOpen(ctx context.Context, itemID, memberID uuid.UUID) (*models.Loan, error) {
	row, err := r.q.FindOpenLoan(ctx, db.FindOpenLoanParams{ItemID: itemID, MemberID: memberID})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no open loan of item %s to member %s", circdomain.ErrLoanNotFound, itemID, memberID)
		}
		return nil, fmt.Errorf("query open loan: %w", err)
	}
	return rowToLoan(row), nil
}

func (r *LoanRepository) CountOpenByItem(ctx context.Context, itemID uuid.UUID) (int, error) {
	n, err := r.q.CountOpenLoansByItem(ctx, itemID)
	if err != nil {
		return 0, fmt.Errorf("count open loans: %w", err)
	}
	return int(n), nil
}

func (r *LoanRepository) CountOpenByMember(ctx context.Context, memberID uuid.UUID, asOf time.Time) (active, overdue int, err error) {
	row, err := r.q.CountOpenLoansByMember(ctx, db.CountOpenLoansByMemberParams{
		MemberID: memberID,
		AsOf:     models.Day(asOf),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("count member loans: %w", err)
	}
	return int(row.Active), int(row.Overdue), nil
}

func (r *LoanRepository) UpdateDueDate(ctx context.Context, id uuid.UUID, due time.Time) error {
	n, err := r.q.UpdateLoanDueDate(ctx, db.UpdateLoanDueDateParams{ID: id, DueDate: models.Day(due)})
	if err != nil {
		return fmt.Errorf("update due date: %w", err)
	}
	if n == 0 {
		return r.closedOrMissing(ctx, id)
	}
	return nil
}

// Close only touches an open row, so a second close of the same loan
// reports already_returned even without a prior lock.
func (r *LoanRepository) Close(ctx context.Context, id uuid.UUID, returnedAt time.Time, fineCents int64) error {
	n, err := r.q.CloseLoan(ctx, db.CloseLoanParams{ID: id, ReturnDate: returnedAt, FineCents: fineCents})
	if err != nil {
		return fmt.Errorf("close loan: %w", err)
	}
	if n == 0 {
		return r.closedOrMissing(ctx, id)
	}
	return nil
}

func (r *LoanRepository) closedOrMissing(ctx context.Context, id uuid.UUID) error {
	loan, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return loan.Close(time.Now(), 0)
}

// List builds the listing query with goqu; the tenant scope, status and
// search filters are all bound parameters.
func (r *LoanRepository) List(ctx context.Context, lq repositories.LoanQuery) ([]*models.LoanView, int, error) {
	base := dialect.
		From(goqu.T("loans").As("l")).
		Join(goqu.T("items").As("i"), goqu.On(goqu.I("i.id").Eq(goqu.I("l.item_id")))).
		Join(goqu.T("members").As("m"), goqu.On(goqu.I("m.id").Eq(goqu.I("l.member_id"))))
	base = lq.Scope.Apply(base)

	switch lq.Status {
	case models.LoanStatusOpen:
		base = base.Where(goqu.I("l.return_date").IsNull())
	case models.LoanStatusOverdue:
		base = base.Where(
			goqu.I("l.return_date").IsNull(),
			goqu.I("l.due_date").Lt(models.Day(lq.AsOf)),
		)
	case models.LoanStatusReturned:
		base = base.Where(goqu.I("l.return_date").IsNotNull())
	}

	if lq.Search != "" {
		pattern := "%" + escapeLike(lq.Search) + "%"
		base = base.Where(goqu.Or(
			goqu.I("i.title").ILike(pattern),
			goqu.I("i.isbn").ILike(pattern),
			goqu.I("m.name").ILike(pattern),
			goqu.I("m.member_number").ILike(pattern),
		))
	}

	countSQL, countArgs, err := base.Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build loan count: %w", err)
	}
	total, err := r.q.QueryCount(ctx, countSQL, countArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("count loans: %w", err)
	}

	page := base.
		Select(db.LoanRowColumns...).
		Order(goqu.I("l.loan_date").Desc(), goqu.I("l.id").Desc())
	if lq.Limit > 0 {
		page = page.Limit(uint(lq.Limit))
	}
	if lq.Offset > 0 {
		page = page.Offset(uint(lq.Offset))
	}
	pageSQL, args, err := page.Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, fmt.Errorf("build loan list: %w", err)
	}
	rows, err := r.q.QueryLoanRows(ctx, pageSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query loans: %w", err)
	}
	return rowsToLoanViews(rows), int(total), nil
}

func (r *LoanRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*models.LoanView, error) {
	rows, err := r.q.ListOverdueLoans(ctx, models.Day(asOf))
	if err != nil {
		return nil, fmt.Errorf("query overdue loans: %w", err)
	}
	return rowsToLoanViews(rows), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func loanErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return circdomain.ErrLoanNotFound
	}
	return fmt.Errorf("query loan: %w", err)
}

func rowToLoan(row db.Loan) *models.Loan {
	loan := &models.Loan{
		ID:        row.ID,
		ItemID:    row.ItemID,
		MemberID:  row.MemberID,
		TenantID:  row.TenantID,
		LoanDate:  row.LoanDate.UTC(),
		DueDate:   models.Day(row.DueDate),
		FineCents: row.FineCents,
	}
	if row.ReturnDate.Valid {
		t := row.ReturnDate.Time.UTC()
		loan.ReturnDate = &t
	}
	return loan
}

func rowsToLoanViews(rows []db.LoanRow) []*models.LoanView {
	views := make([]*models.LoanView, len(rows))
	for i, row := range rows {
		views[i] = &models.LoanView{
			Loan:         *rowToLoan(row.Loan),
			ItemTitle:    row.ItemTitle,
			ItemISBN:     row.ItemIsbn,
			MemberName:   row.MemberName,
			MemberNumber: row.MemberNumber,
		}
	}
	return views
}
