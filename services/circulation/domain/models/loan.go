package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/services/circulation/domain"
)

// Loan records one copy of an item lent to a member. A loan is OPEN while
// ReturnDate is nil and CLOSED afterwards. Loans are never deleted.
type Loan struct {
	ID         uuid.UUID
	ItemID     uuid.UUID
	MemberID   uuid.UUID
	TenantID   uuid.NullUUID
	LoanDate   time.Time
	DueDate    time.Time // day-granular, midnight UTC
	ReturnDate *time.Time
	FineCents  int64
}

// NewLoan opens a loan starting at loanDate.
func NewLoan(itemID, memberID uuid.UUID, tenant uuid.NullUUID, loanDate, dueDate time.Time) *Loan {
	return &Loan{
		ID:       uuid.New(),
		ItemID:   itemID,
		MemberID: memberID,
		TenantID: tenant,
		LoanDate: loanDate.UTC(),
		DueDate:  Day(dueDate),
	}
}

// IsOpen reports whether the loan has not been returned.
func (l *Loan) IsOpen() bool {
	return l.ReturnDate == nil
}

// DaysOverdue is the number of whole days past the due date at now, or 0.
func (l *Loan) DaysOverdue(now time.Time) int {
	if !l.IsOpen() {
		return 0
	}
	if d := DaysBetween(l.DueDate, now); d > 0 {
		return d
	}
	return 0
}

// IsOverdue reports whether an open loan's due date lies before today.
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.DaysOverdue(now) > 0
}

// IsDueToday reports whether an open loan falls due on now's calendar date.
func (l *Loan) IsDueToday(now time.Time) bool {
	return l.IsOpen() && Day(l.DueDate).Equal(Day(now))
}

// Close moves the loan from OPEN to CLOSED. It fails with already_returned
// when the loan is closed already.
func (l *Loan) Close(at time.Time, fineCents int64) error {
	if !l.IsOpen() {
		return domain.NewPolicyError(domain.ReasonAlreadyReturned, "loan has already been returned", map[string]any{
			"loan_id":     l.ID,
			"return_date": l.ReturnDate.UTC(),
		})
	}
	t := at.UTC()
	l.ReturnDate = &t
	l.FineCents = fineCents
	return nil
}

// MaxExtendDays caps a single extension at ten years.
const MaxExtendDays = 3650

// Extend pushes the due date back by days, counted from the current due date.
func (l *Loan) Extend(days int) error {
	if !l.IsOpen() {
		return domain.NewPolicyError(domain.ReasonAlreadyReturned, "cannot extend a returned loan", map[string]any{
			"loan_id": l.ID,
		})
	}
	if days <= 0 || days > MaxExtendDays {
		return fmt.Errorf("%w: extension must be between 1 and %d days, got %d", domain.ErrInvalidDays, MaxExtendDays, days)
	}
	if l.DueDate.IsZero() {
		return fmt.Errorf("%w: loan %s has no due date", domain.ErrInvalidDate, l.ID)
	}
	l.DueDate = Day(l.DueDate).AddDate(0, 0, days)
	return nil
}

// LoanStatus filters loan listings.
type LoanStatus string

const (
	LoanStatusAll      LoanStatus = "all"
	LoanStatusOpen     LoanStatus = "open"
	LoanStatusOverdue  LoanStatus = "overdue"
	LoanStatusReturned LoanStatus = "returned"
)

// ParseLoanStatus maps a query value to a LoanStatus; "" means all.
func ParseLoanStatus(s string) (LoanStatus, error) {
	switch LoanStatus(s) {
	case "", LoanStatusAll:
		return LoanStatusAll, nil
	case LoanStatusOpen, LoanStatusOverdue, LoanStatusReturned:
		return LoanStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown loan status %q", domain.ErrInvalidInput, s)
}

// LoanView is a loan joined with the item and member it references.
type LoanView struct {
	Loan
	ItemTitle    string
	ItemISBN     string
	MemberName   string
	MemberNumber string
}
