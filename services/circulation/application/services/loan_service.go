package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/bookcirc/pkg/logger"
	"github.com/ghuser/bookcirc/pkg/tenancy"
	circdomain "github.com/ghuser/bookcirc/services/circulation/domain"
	"github.com/ghuser/bookcirc/services/circulation/domain/events"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
	"github.com/ghuser/bookcirc/services/circulation/domain/repositories"
	domainsvcs "github.com/ghuser/bookcirc/services/circulation/domain/services"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// CheckoutCommand asks to lend an item to a member.
type CheckoutCommand struct {
	Item    Ref
	Member  Ref
	DueDate string // optional override, see models.ParseDueDate
	Tenant  string // write target for shared item and member, privileged callers only
}

// CheckoutResult is the committed outcome of a checkout.
type CheckoutResult struct {
	Loan                   *models.Loan
	Available              int
	FuzzyMatch             bool
	FulfilledReservationID *uuid.UUID
}

// ReturnCommand identifies the loan to close, by id or by (item, member).
type ReturnCommand struct {
	LoanID uuid.UUID
	Item   Ref
	Member Ref
}

// ReturnResult is the committed outcome of a return.
type ReturnResult struct {
	Loan      *models.Loan
	DaysLate  int
	FineCents int64
	Available int
}

// ExtendCommand pushes a loan's due date back. Days nil means the policy default.
type ExtendCommand struct {
	LoanID uuid.UUID
	Days   *int
}

// ExtendResult is the committed outcome of an extension.
type ExtendResult struct {
	Loan        *models.Loan
	PreviousDue time.Time
	DaysAdded   int
}

// CheckResult is a read-only snapshot of an open loan.
type CheckResult struct {
	Loan        *models.Loan
	Item        *models.Item
	Member      *models.Member
	Available   int
	DaysOverdue int
	FinePreview int64
	FuzzyMatch  bool
}

// ListLoansQuery filters the loan listing.
type ListLoansQuery struct {
	Tenant string
	Status string
	Search string
	Limit  int
	Offset int
}

// TenantOverdue summarises overdue loans of one branch.
type TenantOverdue struct {
	TenantID       uuid.NullUUID
	Loans          int
	MaxDaysOverdue int
}

// OverdueReport lists every overdue loan across branches.
type OverdueReport struct {
	AsOf     time.Time
	Loans    []*models.LoanView
	ByTenant []TenantOverdue
}

// LoanService runs the loan lifecycle: checkout, return and extend, each as
// one unit of work. Audit events are emitted after commit.
type LoanService struct {
	uow     repositories.UnitOfWork
	ledger  *Ledger
	audit   auditor
	metrics *metrics
	log     logger.Logger
	now     func() time.Time
}

// NewLoanService returns a LoanService over the given unit of work.
func NewLoanService(uow repositories.UnitOfWork, audit AuditPublisher, log logger.Logger, now func() time.Time) *LoanService {
	if now == nil {
		now = systemClock
	}
	return &LoanService{
		uow:     uow,
		ledger:  NewLedger(log),
		audit:   auditor{pub: audit, log: log},
		metrics: newMetrics(),
		log:     log,
		now:     now,
	}
}

// Checkout lends an item to a member. Inside one transaction it locks the
// member then the item, checks eligibility, stock and the reservation queue,
// inserts the loan, decrements availability and fulfils the member's
// reservation when they head the queue.
func (s *LoanService) Checkout(ctx context.Context, caller tenancy.Caller, policy models.PolicyConfig, cmd CheckoutCommand) (*CheckoutResult, error) {
	ctx, span := tracer.Start(ctx, "circulation.Checkout")
	defer span.End()

	now := s.now()
	today := models.Day(now)
	due := today.AddDate(0, 0, policy.DefaultLoanDays)
	if strings.TrimSpace(cmd.DueDate) != "" {
		d, err := models.ParseDueDate(cmd.DueDate)
		if err != nil {
			s.metrics.fail(ctx, span, "checkout", err)
			return nil, fmt.Errorf("checkout: %w", err)
		}
		if d.Before(today) {
			err := fmt.Errorf("%w: due date %s lies in the past", circdomain.ErrInvalidDate, models.FormatDate(d))
			s.metrics.fail(ctx, span, "checkout", err)
			return nil, fmt.Errorf("checkout: %w", err)
		}
		due = d
	}

	res := &CheckoutResult{}
	err := s.uow.Do(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		member, memberFuzzy, err := resolveMember(ctx, repos, caller, policy, cmd.Member, true)
		if err != nil {
			return err
		}
		item, itemFuzzy, err := resolveItem(ctx, repos, caller, policy, cmd.Item, true)
		if err != nil {
			return err
		}
		res.FuzzyMatch = memberFuzzy || itemFuzzy

		active, overdue, err := repos.Loans.CountOpenByMember(ctx, member.ID, now)
		if err != nil {
			return fmt.Errorf("count member loans: %w", err)
		}
		if err := domainsvcs.CheckEligibility(policy, domainsvcs.Eligibility{
			Member:       member,
			ActiveLoans:  active,
			OverdueLoans: overdue,
		}); err != nil {
			return err
		}

		available, err := s.ledger.Current(ctx, repos, item)
		if err != nil {
			return err
		}
		if available <= 0 {
			return circdomain.NewPolicyError(circdomain.ReasonOutOfStock, "no copy of this item is available",
				map[string]any{"item_id": item.ID, "copies": item.Copies, "available": 0})
		}

		head, err := repos.Reservations.Head(ctx, item.ID)
		if err != nil {
			return fmt.Errorf("load reservation head: %w", err)
		}
		fulfil, err := domainsvcs.CheckQueue(head, member.ID)
		if err != nil {
			return err
		}

		tenant, err := writeTenant(caller, cmd.Tenant, item, member)
		if err != nil {
			return err
		}

		// Adjust before inserting so a derived count does not see the new loan.
		if res.Available, err = s.ledger.Adjust(ctx, repos, item, -1); err != nil {
			return err
		}

		loan := models.NewLoan(item.ID, member.ID, tenant, now, due)
		if err := repos.Loans.Create(ctx, loan); err != nil {
			return fmt.Errorf("insert loan: %w", err)
		}
		res.Loan = loan

		if fulfil != nil {
			if err := fulfil.Fulfil(); err != nil {
				return err
			}
			err := repos.Reservations.UpdateStatus(ctx, fulfil.ID, fulfil.Status)
			if errors.Is(err, circdomain.ErrReservationClosed) {
				return circdomain.NewPolicyError(circdomain.ReasonQueueConflict,
					"the reservation at the head of the queue changed; retry the checkout",
					map[string]any{"head_reservation_id": fulfil.ID})
			}
			if err != nil {
				return fmt.Errorf("fulfil reservation: %w", err)
			}
			id := fulfil.ID
			res.FulfilledReservationID = &id
		}
		return nil
	})
	if err != nil {
		s.metrics.fail(ctx, span, "checkout", err)
		return nil, fmt.Errorf("checkout: %w", err)
	}

	add(ctx, s.metrics.checkouts)
	span.SetAttributes(attribute.String("loan.id", res.Loan.ID.String()))
	s.log.InfoContext(ctx, "loan checked out",
		"loan_id", res.Loan.ID,
		"item_id", res.Loan.ItemID,
		"member_id", res.Loan.MemberID,
		"due_date", models.FormatDate(res.Loan.DueDate),
		"available", res.Available,
	)
	s.audit.emit(ctx, events.TopicLoanCheckedOut, events.LoanCheckedOutEvent{
		Envelope:               events.NewEnvelope(caller.UserID, res.Loan.TenantID, now),
		LoanID:                 res.Loan.ID,
		ItemID:                 res.Loan.ItemID,
		MemberID:               res.Loan.MemberID,
		DueDate:                models.FormatDate(res.Loan.DueDate),
		Available:              res.Available,
		FuzzyMatch:             res.FuzzyMatch,
		FulfilledReservationID: res.FulfilledReservationID,
	})
	return res, nil
}

// Return closes an open loan and gives its copy back to the ledger.
// The fine is informational; it is 0 unless fines are enabled.
func (s *LoanService) Return(ctx context.Context, caller tenancy.Caller, policy models.PolicyConfig, cmd ReturnCommand) (*ReturnResult, error) {
	ctx, span := tracer.Start(ctx, "circulation.Return")
	defer span.End()

	now := s.now()
	res := &ReturnResult{}
	err := s.uow.Do(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		loan, err := s.loanForReturn(ctx, repos, caller, policy, cmd)
		if err != nil {
			return err
		}
		if !tenancy.CanAccess(caller, loan.TenantID) {
			return fmt.Errorf("%w: loan %s belongs to another branch", circdomain.ErrAccessDenied, loan.ID)
		}
		if !loan.IsOpen() {
			return loan.Close(now, 0)
		}

		item, err := repos.Items.GetByIDForUpdate(ctx, loan.ItemID)
		if err != nil {
			return fmt.Errorf("lock item: %w", err)
		}

		res.DaysLate = domainsvcs.DaysLate(loan.DueDate, now)
		res.FineCents = domainsvcs.ComputeFine(policy, loan.DueDate, now)

		// Adjust before closing so a derived count still sees this loan open.
		if res.Available, err = s.ledger.Adjust(ctx, repos, item, +1); err != nil {
			return err
		}

		if err := loan.Close(now, res.FineCents); err != nil {
			return err
		}
		if err := repos.Loans.Close(ctx, loan.ID, now, res.FineCents); err != nil {
			return fmt.Errorf("close loan: %w", err)
		}
		res.Loan = loan
		return nil
	})
	if err != nil {
		s.metrics.fail(ctx, span, "return", err)
		return nil, fmt.Errorf("return: %w", err)
	}

	add(ctx, s.metrics.returns)
	s.log.InfoContext(ctx, "loan returned",
		"loan_id", res.Loan.ID,
		"days_late", res.DaysLate,
		"fine_cents", res.FineCents,
		"available", res.Available,
	)
	s.audit.emit(ctx, events.TopicLoanReturned, events.LoanReturnedEvent{
		Envelope:  events.NewEnvelope(caller.UserID, res.Loan.TenantID, now),
		LoanID:    res.Loan.ID,
		ItemID:    res.Loan.ItemID,
		MemberID:  res.Loan.MemberID,
		DaysLate:  res.DaysLate,
		FineCents: res.FineCents,
		Available: res.Available,
	})
	return res, nil
}

func (s *LoanService) loanForReturn(ctx context.Context, repos repositories.Repositories, caller tenancy.Caller, policy models.PolicyConfig, cmd ReturnCommand) (*models.Loan, error) {
	if cmd.LoanID != uuid.Nil {
		return repos.Loans.GetByIDForUpdate(ctx, cmd.LoanID)
	}
	if cmd.Item.IsZero() || cmd.Member.IsZero() {
		return nil, fmt.Errorf("%w: loan id or item and member are required", circdomain.ErrMissingReference)
	}

	item, _, err := resolveItem(ctx, repos, caller, policy, cmd.Item, false)
	if err != nil {
		return nil, err
	}
	member, _, err := resolveMember(ctx, repos, caller, policy, cmd.Member, false)
	if err != nil {
		return nil, err
	}
	open, err := repos.Loans.FindOpen(ctx, item.ID, member.ID)
	if err != nil {
		return nil, err
	}
	return repos.Loans.GetByIDForUpdate(ctx, open.ID)
}

// Extend moves an open loan's due date back by days, counted from the
// current due date so consecutive extensions stack.
func (s *LoanService) Extend(ctx context.Context, caller tenancy.Caller, policy models.PolicyConfig, cmd ExtendCommand) (*ExtendResult, error) {
	ctx, span := tracer.Start(ctx, "circulation.Extend")
	defer span.End()

	days := policy.DefaultExtendDays
	if cmd.Days != nil {
		days = *cmd.Days
	}
	if days <= 0 || days > models.MaxExtendDays {
		err := fmt.Errorf("%w: extension must be between 1 and %d days, got %d", circdomain.ErrInvalidDays, models.MaxExtendDays, days)
		s.metrics.fail(ctx, span, "extend", err)
		return nil, fmt.Errorf("extend: %w", err)
	}

	res := &ExtendResult{DaysAdded: days}
	err := s.uow.Do(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		loan, err := repos.Loans.GetByIDForUpdate(ctx, cmd.LoanID)
		if err != nil {
			return err
		}

		tenant := loan.TenantID
		if !tenant.Valid {
			item, err := repos.Items.GetByID(ctx, loan.ItemID)
			if err != nil {
				return err
			}
			tenant = item.TenantID
		}
		if !tenancy.CanAccess(caller, tenant) {
			return fmt.Errorf("%w: loan %s belongs to another branch", circdomain.ErrAccessDenied, loan.ID)
		}

		res.PreviousDue = loan.DueDate
		if err := loan.Extend(days); err != nil {
			return err
		}
		if err := repos.Loans.UpdateDueDate(ctx, loan.ID, loan.DueDate); err != nil {
			return fmt.Errorf("update due date: %w", err)
		}
		res.Loan = loan
		return nil
	})
	if err != nil {
		s.metrics.fail(ctx, span, "extend", err)
		return nil, fmt.Errorf("extend: %w", err)
	}

	add(ctx, s.metrics.extensions)
	s.audit.emit(ctx, events.TopicLoanExtended, events.LoanExtendedEvent{
		Envelope:    events.NewEnvelope(caller.UserID, res.Loan.TenantID, s.now()),
		LoanID:      res.Loan.ID,
		PreviousDue: models.FormatDate(res.PreviousDue),
		DueDate:     models.FormatDate(res.Loan.DueDate),
		DaysAdded:   days,
	})
	return res, nil
}

// Check looks up the open loan of an item to a member without changing anything.
func (s *LoanService) Check(ctx context.Context, caller tenancy.Caller, policy models.PolicyConfig, item, member Ref) (*CheckResult, error) {
	ctx, span := tracer.Start(ctx, "circulation.Check")
	defer span.End()

	repos := s.uow.Read()
	it, itemFuzzy, err := resolveItem(ctx, repos, caller, policy, item, false)
	if err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}
	m, memberFuzzy, err := resolveMember(ctx, repos, caller, policy, member, false)
	if err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}

	loan, err := repos.Loans.FindOpen(ctx, it.ID, m.ID)
	if err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}
	if !tenancy.CanAccess(caller, loan.TenantID) {
		return nil, fmt.Errorf("check: %w", circdomain.ErrAccessDenied)
	}

	available, err := s.ledger.Current(ctx, repos, it)
	if err != nil {
		return nil, fmt.Errorf("check: %w", err)
	}

	now := s.now()
	return &CheckResult{
		Loan:        loan,
		Item:        it,
		Member:      m,
		Available:   available,
		DaysOverdue: loan.DaysOverdue(now),
		FinePreview: domainsvcs.ComputeFine(policy, loan.DueDate, now),
		FuzzyMatch:  itemFuzzy || memberFuzzy,
	}, nil
}

// List returns loans visible to the caller.
func (s *LoanService) List(ctx context.Context, caller tenancy.Caller, q ListLoansQuery) ([]*models.LoanView, int, error) {
	ctx, span := tracer.Start(ctx, "circulation.ListLoans")
	defer span.End()

	scope, err := tenancy.ScopeFilter(caller, q.Tenant, "l.tenant_id")
	if err != nil {
		return nil, 0, fmt.Errorf("list loans: %w", err)
	}
	status, err := models.ParseLoanStatus(q.Status)
	if err != nil {
		return nil, 0, fmt.Errorf("list loans: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	loans, total, err := s.uow.Read().Loans.List(ctx, repositories.LoanQuery{
		Scope:     scope,
		Status:    status,
		Search:    strings.TrimSpace(q.Search),
		AsOf:      s.now(),
		QueryOpts: repositories.QueryOpts{Limit: limit, Offset: offset},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list loans: %w", err)
	}
	return loans, total, nil
}

// Overdue reports every overdue loan across all branches. It is meant for
// the worker and the admin CLI, which run without a caller.
func (s *LoanService) Overdue(ctx context.Context) (*OverdueReport, error) {
	ctx, span := tracer.Start(ctx, "circulation.OverdueReport", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	now := s.now()
	loans, err := s.uow.Read().Loans.ListOverdue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("overdue report: %w", err)
	}

	byTenant := map[uuid.NullUUID]*TenantOverdue{}
	for _, l := range loans {
		t, ok := byTenant[l.TenantID]
		if !ok {
			t = &TenantOverdue{TenantID: l.TenantID}
			byTenant[l.TenantID] = t
		}
		t.Loans++
		if d := l.DaysOverdue(now); d > t.MaxDaysOverdue {
			t.MaxDaysOverdue = d
		}
	}

	report := &OverdueReport{AsOf: models.Day(now), Loans: loans}
	for _, t := range byTenant {
		report.ByTenant = append(report.ByTenant, *t)
	}
	sort.Slice(report.ByTenant, func(i, j int) bool {
		a, b := report.ByTenant[i].TenantID, report.ByTenant[j].TenantID
		if a.Valid != b.Valid {
			return !a.Valid
		}
		return a.UUID.String() < b.UUID.String()
	})
	return report, nil
}
