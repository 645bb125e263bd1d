package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/bookcirc/pkg/config"
	"github.com/ghuser/bookcirc/pkg/logger"
	"github.com/ghuser/bookcirc/pkg/tenancy"
	circdomain "github.com/ghuser/bookcirc/services/circulation/domain"
	"github.com/ghuser/bookcirc/services/circulation/domain/events"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
	"github.com/ghuser/bookcirc/services/circulation/domain/repositories"
	domainsvcs "github.com/ghuser/bookcirc/services/circulation/domain/services"
	"github.com/ghuser/bookcirc/services/circulation/infrastructure/persistence/memory"
)

var start = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

type fakeAudit struct {
	mu     sync.Mutex
	topics []string
	events []any
	err    error
}

func (a *fakeAudit) Publish(_ context.Context, topic string, event any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.topics = append(a.topics, topic)
	a.events = append(a.events, event)
	return nil
}

func (a *fakeAudit) Topics() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.topics...)
}

// clock advances one second per reading so FIFO order is deterministic.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	store   *memory.Store
	svc     *Services
	audit   *fakeAudit
	clock   *clock
	branchA uuid.NullUUID
	branchB uuid.NullUUID
	admin   tenancy.Caller
	staffA  tenancy.Caller
	staffB  tenancy.Caller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   memory.New(),
		audit:   &fakeAudit{},
		clock:   &clock{now: start},
		branchA: uuid.NullUUID{UUID: uuid.New(), Valid: true},
		branchB: uuid.NullUUID{UUID: uuid.New(), Valid: true},
	}
	f.admin = tenancy.Caller{UserID: "admin", Role: tenancy.RoleAdmin}
	f.staffA = tenancy.Caller{UserID: "staff-a", Role: tenancy.RoleStaff, HomeTenant: f.branchA}
	f.staffB = tenancy.Caller{UserID: "staff-b", Role: tenancy.RoleStaff, HomeTenant: f.branchB}
	f.store.PutTenant(models.Tenant{ID: f.branchA.UUID, Name: "North", Code: "N"})
	f.store.PutTenant(models.Tenant{ID: f.branchB.UUID, Name: "South", Code: "S"})

	f.svc = NewWith(Deps{
		UnitOfWork: f.store,
		Audit:      f.audit,
		Defaults:   defaultPolicy(),
		Logger:     logger.New(&config.Config{LogLevel: "error"}),
		Now:        f.clock.Now,
	})
	return f
}

func defaultPolicy() models.PolicyConfig {
	return models.PolicyConfig{DefaultLoanDays: 15, DefaultExtendDays: 15, FuzzySuffixLength: 6}
}

func (f *fixture) item(tenant uuid.NullUUID, isbn string, copies int) models.Item {
	avail := copies
	it := models.Item{ID: uuid.New(), TenantID: tenant, ISBN: isbn, Title: "Title " + isbn, Copies: copies, Available: &avail}
	f.store.PutItem(it)
	return it
}

func (f *fixture) member(tenant uuid.NullUUID, number string) models.Member {
	m := models.Member{ID: uuid.New(), TenantID: tenant, Number: number, Name: "Member " + number}
	f.store.PutMember(m)
	return m
}

func byID(id uuid.UUID) Ref { return Ref{ID: id} }

func (f *fixture) checkout(t *testing.T, caller tenancy.Caller, item models.Item, member models.Member) *CheckoutResult {
	t.Helper()
	res, err := f.svc.Loans.Checkout(context.Background(), caller, defaultPolicy(), CheckoutCommand{
		Item:   byID(item.ID),
		Member: byID(member.ID),
	})
	require.NoError(t, err)
	return res
}

func TestCheckoutReturnScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(f.branchA, "978-0-00-000001-1", 1)
	m1 := f.member(f.branchA, "M-1")
	m2 := f.member(f.branchA, "M-2")

	res := f.checkout(t, f.staffA, item, m1)
	assert.Equal(t, 0, res.Available)
	assert.Equal(t, models.Day(start).AddDate(0, 0, 15), res.Loan.DueDate)
	assert.Equal(t, f.branchA, res.Loan.TenantID)
	assert.False(t, res.FuzzyMatch)

	_, err := f.svc.Loans.Checkout(ctx, f.staffA, defaultPolicy(), CheckoutCommand{Item: byID(item.ID), Member: byID(m2.ID)})
	require.Error(t, err)
	assert.True(t, circdomain.HasReason(err, circdomain.ReasonOutOfStock), "got %v", err)

	ret, err := f.svc.Loans.Return(ctx, f.staffA, defaultPolicy(), ReturnCommand{LoanID: res.Loan.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, ret.Available)
	assert.Equal(t, int64(0), ret.FineCents)

	stored, _ := f.store.Item(item.ID)
	assert.Equal(t, 1, *stored.Available)
	assert.Equal(t, 0, f.store.OpenLoans(item.ID))
	assert.Equal(t, []string{events.TopicLoanCheckedOut, events.TopicLoanReturned}, f.audit.Topics())
}

func TestCheckout_ConcurrentSingleCopy(t *testing.T) {
	f := newFixture(t)
	item := f.item(uuid.NullUUID{}, "978-0-00-000002-2", 1)

	const n = 8
	members := make([]models.Member, n)
	for i := range members {
		members[i] = f.member(uuid.NullUUID{}, "C-"+string(rune('A'+i)))
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		outOfStock int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(m models.Member) {
			defer wg.Done()
			_, err := f.svc.Loans.Checkout(context.Background(), f.admin, defaultPolicy(), CheckoutCommand{
				Item: byID(item.ID), Member: byID(m.ID),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case circdomain.HasReason(err, circdomain.ReasonOutOfStock):
				outOfStock++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(members[i])
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, outOfStock)
	stored, _ := f.store.Item(item.ID)
	assert.Equal(t, 0, *stored.Available)
	assert.Equal(t, 1, f.store.OpenLoans(item.ID))
}

func TestCheckout_ReservationFIFO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(f.branchA, "978-0-00-000003-3", 1)
	m1 := f.member(f.branchA, "F-1")
	m2 := f.member(f.branchA, "F-2")

	r1, err := f.svc.Reservations.Create(ctx, f.staffA, defaultPolicy(), ReserveCommand{Item: byID(item.ID), Member: byID(m1.ID)})
	require.NoError(t, err)
	assert.Equal(t, 1, r1.Position)
	r2, err := f.svc.Reservations.Create(ctx, f.staffA, defaultPolicy(), ReserveCommand{Item: byID(item.ID), Member: byID(m2.ID)})
	require.NoError(t, err)
	assert.Equal(t, 2, r2.Position)

	_, err = f.svc.Loans.Checkout(ctx, f.staffA, defaultPolicy(), CheckoutCommand{Item: byID(item.ID), Member: byID(m2.ID)})
	require.Error(t, err)
	assert.True(t, circdomain.HasReason(err, circdomain.ReasonQueueConflict), "got %v", err)
	pe, ok := circdomain.AsPolicyError(err)
	require.True(t, ok)
	assert.Equal(t, r1.Reservation.ID, pe.Details["head_reservation_id"])

	res := f.checkout(t, f.staffA, item, m1)
	require.NotNil(t, res.FulfilledReservationID)
	assert.Equal(t, r1.Reservation.ID, *res.FulfilledReservationID)

	stored, _ := f.store.Reservation(r1.Reservation.ID)
	assert.Equal(t, models.ReservationFulfilled, stored.Status)

	queue, err := f.svc.Reservations.Queue(ctx, f.staffA, item.ID)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, r2.Reservation.ID, queue[0].Reservation.ID)
	assert.Equal(t, 1, queue[0].Position)
}

func TestCheckout_EligibilityPrecedence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(f.branchA, "978-0-00-000004-4", 3)
	other := f.item(f.branchA, "978-0-00-000005-5", 3)

	blocked := f.member(f.branchA, "B-1")
	blocked.IsBlocked = true
	blocked.Note = "lost card"
	f.store.PutMember(blocked)

	late := f.member(f.branchA, "L-1")
	overdue := models.NewLoan(other.ID, late.ID, f.branchA, start.AddDate(0, 0, -30), start.AddDate(0, 0, -5))
	f.store.PutLoan(*overdue)

	busy := f.member(f.branchA, "U-1")
	active := models.NewLoan(other.ID, busy.ID, f.branchA, start, start.AddDate(0, 0, 10))
	f.store.PutLoan(*active)

	strict := defaultPolicy()
	strict.BlockOnOverdue = true
	strict.MaxActiveLoans = 1

	tests := []struct {
		name   string
		member models.Member
		reason circdomain.Reason
	}{
		{"blocked member", blocked, circdomain.ReasonMemberBlocked},
		{"overdue loan blocks", late, circdomain.ReasonOverdueBlock},
		{"limit reached", busy, circdomain.ReasonLoanLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Loans.Checkout(ctx, f.staffA, strict, CheckoutCommand{Item: byID(item.ID), Member: byID(tt.member.ID)})
			require.Error(t, err)
			assert.True(t, circdomain.HasReason(err, tt.reason), "got %v", err)
		})
	}

	pe, ok := circdomain.AsPolicyError(func() error {
		_, err := f.svc.Loans.Checkout(ctx, f.staffA, strict, CheckoutCommand{Item: byID(item.ID), Member: byID(blocked.ID)})
		return err
	}())
	require.True(t, ok)
	assert.Equal(t, "lost card", pe.Details["note"])

	stored, _ := f.store.Item(item.ID)
	assert.Equal(t, 3, *stored.Available, "rejections must not touch the ledger")
}

func TestCheckout_AccessDenied(t *testing.T) {
	f := newFixture(t)
	item := f.item(f.branchB, "978-0-00-000006-6", 1)
	member := f.member(f.branchA, "A-1")

	_, err := f.svc.Loans.Checkout(context.Background(), f.staffA, defaultPolicy(), CheckoutCommand{
		Item: byID(item.ID), Member: byID(member.ID),
	})
	require.ErrorIs(t, err, circdomain.ErrAccessDenied)
	assert.Equal(t, 0, f.store.OpenLoans(item.ID))
}

func TestCheckout_NaturalKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(uuid.NullUUID{}, "978-3-16-148410-0", 2)
	member := f.member(f.branchA, "st-2024-0042")

	t.Run("exact match ignores formatting", func(t *testing.T) {
		res, err := f.svc.Loans.Checkout(ctx, f.staffA, defaultPolicy(), CheckoutCommand{
			Item:   Ref{Key: "978 3 16 148410 0"},
			Member: Ref{Key: "ST20240042"},
		})
		require.NoError(t, err)
		assert.False(t, res.FuzzyMatch)
		assert.Equal(t, item.ID, res.Loan.ItemID)
	})

	t.Run("suffix match is flagged", func(t *testing.T) {
		other := f.member(f.branchA, "ST-2024-0043")
		res, err := f.svc.Loans.Checkout(ctx, f.staffA, defaultPolicy(), CheckoutCommand{
			Item:   Ref{Key: "0-148410-0"},
			Member: byID(other.ID),
		})
		require.NoError(t, err)
		assert.True(t, res.FuzzyMatch)
		assert.Equal(t, item.ID, res.Loan.ItemID)
	})

	t.Run("ambiguous suffix is rejected", func(t *testing.T) {
		f.item(uuid.NullUUID{}, "979-1-11-148410-0", 1)
		_, err := f.svc.Loans.Checkout(ctx, f.staffA, defaultPolicy(), CheckoutCommand{
			Item:   Ref{Key: "0-148410-0"},
			Member: byID(member.ID),
		})
		require.ErrorIs(t, err, circdomain.ErrAmbiguousKey)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := f.svc.Loans.Checkout(ctx, f.staffA, defaultPolicy(), CheckoutCommand{
			Item:   Ref{Key: "nothing"},
			Member: byID(member.ID),
		})
		require.ErrorIs(t, err, circdomain.ErrItemNotFound)
	})

	t.Run("missing reference", func(t *testing.T) {
		_, err := f.svc.Loans.Checkout(ctx, f.staffA, defaultPolicy(), CheckoutCommand{Member: byID(member.ID)})
		require.ErrorIs(t, err, circdomain.ErrMissingReference)
	})
}

func TestCheckout_DueDateOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(f.branchA, "978-0-00-000007-7", 2)
	member := f.member(f.branchA, "D-1")

	res, err := f.svc.Loans.Checkout(ctx, f.staffA, defaultPolicy(), CheckoutCommand{
		Item: byID(item.ID), Member: byID(member.ID), DueDate: "30/03/2025",
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC), res.Loan.DueDate)

	_, err = f.svc.Loans.Checkout(ctx, f.staffA, defaultPolicy(), CheckoutCommand{
		Item: byID(item.ID), Member: byID(member.ID), DueDate: "next tuesday",
	})
	require.ErrorIs(t, err, circdomain.ErrInvalidDate)

	_, err = f.svc.Loans.Checkout(ctx, f.staffA, defaultPolicy(), CheckoutCommand{
		Item: byID(item.ID), Member: byID(member.ID), DueDate: "2025-01-01",
	})
	require.ErrorIs(t, err, circdomain.ErrInvalidDate)
}

func TestCheckout_HealsInvalidStoredAvailability(t *testing.T) {
	f := newFixture(t)
	item := f.item(f.branchA, "978-0-00-000008-8", 2)
	bad := 7
	item.Available = &bad
	f.store.PutItem(item)

	holder := f.member(f.branchA, "H-1")
	f.store.PutLoan(*models.NewLoan(item.ID, holder.ID, f.branchA, start, start.AddDate(0, 0, 15)))

	res := f.checkout(t, f.staffA, item, f.member(f.branchA, "H-2"))
	assert.Equal(t, 0, res.Available, "copies 2 minus two open loans")
}

func TestCheckout_AuditFailureKeepsCommit(t *testing.T) {
	f := newFixture(t)
	f.audit.err = errors.New("bus unavailable")
	item := f.item(f.branchA, "978-0-00-000009-9", 1)

	res := f.checkout(t, f.staffA, item, f.member(f.branchA, "X-1"))
	stored, ok := f.store.Loan(res.Loan.ID)
	require.True(t, ok)
	assert.True(t, stored.IsOpen())
	assert.Equal(t, 1, f.store.OpenLoans(item.ID))
}

func TestReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(f.branchA, "978-0-00-000010-5", 1)
	member := f.member(f.branchA, "R-1")
	res := f.checkout(t, f.staffA, item, member)

	t.Run("by natural keys", func(t *testing.T) {
		ret, err := f.svc.Loans.Return(ctx, f.staffA, defaultPolicy(), ReturnCommand{
			Item:   Ref{Key: item.ISBN},
			Member: Ref{Key: member.Number},
		})
		require.NoError(t, err)
		assert.Equal(t, res.Loan.ID, ret.Loan.ID)
		assert.Equal(t, 1, ret.Available)
	})

	t.Run("twice is already_returned", func(t *testing.T) {
		_, err := f.svc.Loans.Return(ctx, f.staffA, defaultPolicy(), ReturnCommand{LoanID: res.Loan.ID})
		require.Error(t, err)
		assert.True(t, circdomain.HasReason(err, circdomain.ReasonAlreadyReturned), "got %v", err)
		stored, _ := f.store.Item(item.ID)
		assert.Equal(t, 1, *stored.Available)
	})

	t.Run("other branch is denied", func(t *testing.T) {
		again := f.checkout(t, f.staffA, item, member)
		_, err := f.svc.Loans.Return(ctx, f.staffB, defaultPolicy(), ReturnCommand{LoanID: again.Loan.ID})
		require.ErrorIs(t, err, circdomain.ErrAccessDenied)
	})

	t.Run("unknown loan", func(t *testing.T) {
		_, err := f.svc.Loans.Return(ctx, f.staffA, defaultPolicy(), ReturnCommand{LoanID: uuid.New()})
		require.ErrorIs(t, err, circdomain.ErrLoanNotFound)
	})
}

func TestReturn_FineWhenEnabled(t *testing.T) {
	f := newFixture(t)
	item := f.item(f.branchA, "978-0-00-000011-2", 1)
	zero := 0
	item.Available = &zero
	f.store.PutItem(item)
	member := f.member(f.branchA, "FINE-1")
	loan := models.NewLoan(item.ID, member.ID, f.branchA, start.AddDate(0, 0, -20), start.AddDate(0, 0, -3))
	f.store.PutLoan(*loan)

	policy := defaultPolicy()
	policy.FinesEnabled = true
	policy.FinePerDayCents = 25

	ret, err := f.svc.Loans.Return(context.Background(), f.staffA, policy, ReturnCommand{LoanID: loan.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, ret.DaysLate)
	assert.Equal(t, int64(75), ret.FineCents)
	assert.Equal(t, 1, ret.Available)
}

func TestExtend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(f.branchA, "978-0-00-000012-9", 1)
	res := f.checkout(t, f.staffA, item, f.member(f.branchA, "E-1"))
	due := res.Loan.DueDate

	for i := 0; i < 2; i++ {
		_, err := f.svc.Loans.Extend(ctx, f.staffA, defaultPolicy(), ExtendCommand{LoanID: res.Loan.ID})
		require.NoError(t, err)
	}
	stored, _ := f.store.Loan(res.Loan.ID)
	assert.Equal(t, due.AddDate(0, 0, 30), stored.DueDate)

	zero := 0
	_, err := f.svc.Loans.Extend(ctx, f.staffA, defaultPolicy(), ExtendCommand{LoanID: res.Loan.ID, Days: &zero})
	require.ErrorIs(t, err, circdomain.ErrInvalidDays)

	_, err = f.svc.Loans.Extend(ctx, f.staffB, defaultPolicy(), ExtendCommand{LoanID: res.Loan.ID})
	require.ErrorIs(t, err, circdomain.ErrAccessDenied)

	_, err = f.svc.Loans.Return(ctx, f.staffA, defaultPolicy(), ReturnCommand{LoanID: res.Loan.ID})
	require.NoError(t, err)
	_, err = f.svc.Loans.Extend(ctx, f.staffA, defaultPolicy(), ExtendCommand{LoanID: res.Loan.ID})
	assert.True(t, circdomain.HasReason(err, circdomain.ReasonAlreadyReturned), "got %v", err)
}

func TestCheck_DryRun(t *testing.T) {
	f := newFixture(t)
	item := f.item(f.branchA, "978-0-00-000013-6", 1)
	zero := 0
	item.Available = &zero
	f.store.PutItem(item)
	member := f.member(f.branchA, "K-1")
	f.store.PutLoan(*models.NewLoan(item.ID, member.ID, f.branchA, start.AddDate(0, 0, -10), start.AddDate(0, 0, -2)))

	policy := defaultPolicy()
	policy.FinesEnabled = true
	policy.FinePerDayCents = 10

	snap, err := f.svc.Loans.Check(context.Background(), f.staffA, policy, Ref{Key: item.ISBN}, Ref{Key: member.Number})
	require.NoError(t, err)
	assert.Equal(t, 2, snap.DaysOverdue)
	assert.Equal(t, int64(20), snap.FinePreview)
	assert.Equal(t, 0, snap.Available)
	assert.Equal(t, 1, f.store.OpenLoans(item.ID), "check must not close the loan")
}

func TestList_TenantScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shared := uuid.NullUUID{}
	for _, tenant := range []uuid.NullUUID{f.branchA, f.branchB, shared} {
		it := f.item(tenant, "978-"+uuid.NewString()[:8], 1)
		m := f.member(tenant, uuid.NewString()[:8])
		f.store.PutLoan(*models.NewLoan(it.ID, m.ID, tenant, start, start.AddDate(0, 0, 15)))
	}

	tests := []struct {
		name      string
		caller    tenancy.Caller
		requested string
		want      int
	}{
		{"staff sees home and shared", f.staffA, "", 2},
		{"staff override ignored", f.staffA, f.branchB.UUID.String(), 2},
		{"staff all ignored", f.staffA, "all", 2},
		{"admin all", f.admin, "all", 3},
		{"admin specific branch", f.admin, f.branchB.UUID.String(), 2},
		{"admin without home sees shared only", f.admin, "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loans, total, err := f.svc.Loans.List(ctx, tt.caller, ListLoansQuery{Tenant: tt.requested})
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
			assert.Len(t, loans, tt.want)
		})
	}

	_, _, err := f.svc.Loans.List(ctx, f.admin, ListLoansQuery{Tenant: "branch-7"})
	require.ErrorIs(t, err, tenancy.ErrInvalidTenant)

	_, _, err = f.svc.Loans.List(ctx, f.admin, ListLoansQuery{Status: "lost"})
	require.ErrorIs(t, err, circdomain.ErrInvalidInput)
}

func TestList_PaginationAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(f.branchA, "978-0-00-000014-3", 10)
	for i := 0; i < 5; i++ {
		f.checkout(t, f.staffA, item, f.member(f.branchA, "P-"+string(rune('0'+i))))
	}
	late := f.member(f.branchA, "P-late")
	f.store.PutLoan(*models.NewLoan(item.ID, late.ID, f.branchA, start.AddDate(0, 0, -20), start.AddDate(0, 0, -1)))

	page, total, err := f.svc.Loans.List(ctx, f.staffA, ListLoansQuery{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Len(t, page, 2)

	overdue, total, err := f.svc.Loans.List(ctx, f.staffA, ListLoansQuery{Status: "overdue"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, late.ID, overdue[0].MemberID)

	found, _, err := f.svc.Loans.List(ctx, f.staffA, ListLoansQuery{Search: "p-LATE"})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestOverdueReport(t *testing.T) {
	f := newFixture(t)
	item := f.item(f.branchA, "978-0-00-000015-0", 5)
	for i, days := range []int{1, 4} {
		m := f.member(f.branchA, "O-"+string(rune('0'+i)))
		f.store.PutLoan(*models.NewLoan(item.ID, m.ID, f.branchA, start.AddDate(0, 0, -30), start.AddDate(0, 0, -days)))
	}
	shared := f.member(uuid.NullUUID{}, "O-shared")
	f.store.PutLoan(*models.NewLoan(item.ID, shared.ID, uuid.NullUUID{}, start.AddDate(0, 0, -30), start.AddDate(0, 0, -2)))

	report, err := f.svc.Loans.Overdue(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Loans, 3)
	require.Len(t, report.ByTenant, 2)
	assert.False(t, report.ByTenant[0].TenantID.Valid, "shared loans sort first")
	assert.Equal(t, 1, report.ByTenant[0].Loans)
	assert.Equal(t, 2, report.ByTenant[1].Loans)
	assert.Equal(t, 4, report.ByTenant[1].MaxDaysOverdue)
}

func TestReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item := f.item(f.branchA, "978-0-00-000016-7", 1)
	member := f.member(f.branchA, "Q-1")

	entry, err := f.svc.Reservations.Create(ctx, f.staffA, defaultPolicy(), ReserveCommand{Item: byID(item.ID), Member: byID(member.ID)})
	require.NoError(t, err)

	_, err = f.svc.Reservations.Create(ctx, f.staffA, defaultPolicy(), ReserveCommand{Item: byID(item.ID), Member: byID(member.ID)})
	require.Error(t, err)
	assert.True(t, circdomain.HasReason(err, circdomain.ReasonDuplicateReservation), "got %v", err)

	_, err = f.svc.Reservations.Cancel(ctx, f.staffB, entry.Reservation.ID)
	require.ErrorIs(t, err, circdomain.ErrAccessDenied)

	cancelled, err := f.svc.Reservations.Cancel(ctx, f.staffA, entry.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCancelled, cancelled.Status)

	again, err := f.svc.Reservations.Cancel(ctx, f.staffA, entry.Reservation.ID)
	require.NoError(t, err, "cancel is idempotent")
	assert.Equal(t, models.ReservationCancelled, again.Status)

	_, err = f.svc.Reservations.Cancel(ctx, f.staffA, uuid.New())
	require.ErrorIs(t, err, circdomain.ErrReservationNotFound)

	_, err = f.svc.Reservations.Queue(ctx, f.staffB, item.ID)
	require.ErrorIs(t, err, circdomain.ErrAccessDenied)

	count := 0
	for _, topic := range f.audit.Topics() {
		if topic == events.TopicReservationCancelled {
			count++
		}
	}
	assert.Equal(t, 1, count, "only the effective cancel is audited")
}

type memoryPolicyCache struct {
	settings map[string]string
	gets     int
	deletes  int
}

func (c *memoryPolicyCache) Get(context.Context) (map[string]string, error) {
	c.gets++
	if c.settings == nil {
		return nil, redis.Nil
	}
	return c.settings, nil
}

func (c *memoryPolicyCache) Set(_ context.Context, s map[string]string) error {
	c.settings = s
	return nil
}

func (c *memoryPolicyCache) Delete(context.Context) error {
	c.deletes++
	c.settings = nil
	return nil
}

func TestPolicyService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cache := &memoryPolicyCache{}
	svc := NewPolicyService(f.store, cache, defaultPolicy(), f.audit, logger.New(&config.Config{LogLevel: "error"}), f.clock.Now)

	err := f.store.Do(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		return repos.Settings.Save(ctx, map[string]string{
			models.SettingMaxActiveLoans:  "3",
			models.SettingDefaultLoanDays: "oops",
		})
	})
	require.NoError(t, err)

	p, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, p.MaxActiveLoans)
	assert.Equal(t, 15, p.DefaultLoanDays, "malformed row keeps the default")
	require.NotNil(t, cache.settings, "miss warms the cache")

	days := 21
	_, err = svc.Update(ctx, f.staffA, domainsvcs.PolicyPatch{DefaultLoanDays: &days})
	require.ErrorIs(t, err, circdomain.ErrAccessDenied)

	updated, err := svc.Update(ctx, f.admin, domainsvcs.PolicyPatch{DefaultLoanDays: &days})
	require.NoError(t, err)
	assert.Equal(t, 21, updated.DefaultLoanDays)
	assert.Equal(t, 3, updated.MaxActiveLoans)
	assert.Equal(t, 1, cache.deletes)

	p, err = svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, 21, p.DefaultLoanDays)

	negative := -1
	_, err = svc.Update(ctx, f.admin, domainsvcs.PolicyPatch{MaxActiveLoans: &negative})
	require.ErrorIs(t, err, circdomain.ErrInvalidPolicy)
}

func TestTenantService_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.Tenants.List(ctx, f.staffA, "all")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, f.branchA.UUID, got[0].ID)

	got, err = f.svc.Tenants.List(ctx, f.admin, "all")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

// staleHeadUoW hands Checkout a reservation head read before a concurrent
// cancel committed, the view a READ COMMITTED transaction can have.
type staleHeadUoW struct {
	*memory.Store
	head models.Reservation
}

func (u staleHeadUoW) Do(ctx context.Context, fn func(ctx context.Context, repos repositories.Repositories) error) error {
	return u.Store.Do(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		repos.Reservations = staleHead{ReservationRepository: repos.Reservations, head: u.head}
		return fn(ctx, repos)
	})
}

type staleHead struct {
	repositories.ReservationRepository
	head models.Reservation
}

func (s staleHead) Head(context.Context, uuid.UUID) (*models.Reservation, error) {
	h := s.head
	return &h, nil
}

func TestCheckout_HeadCancelledConcurrently(t *testing.T) {
	f := newFixture(t)
	item := f.item(f.branchA, "978-0-00-000077-7", 1)
	m1 := f.member(f.branchA, "M-77")

	r := models.NewReservation(item.ID, m1.ID, f.branchA, start)
	stale := *r
	r.Cancel()
	f.store.PutReservation(*r)

	svc := NewWith(Deps{
		UnitOfWork: staleHeadUoW{Store: f.store, head: stale},
		Audit:      f.audit,
		Defaults:   defaultPolicy(),
		Logger:     logger.New(&config.Config{LogLevel: "error"}),
		Now:        f.clock.Now,
	})
	_, err := svc.Loans.Checkout(context.Background(), f.staffA, defaultPolicy(), CheckoutCommand{
		Item:   byID(item.ID),
		Member: byID(m1.ID),
	})
	require.Error(t, err)
	assert.True(t, circdomain.HasReason(err, circdomain.ReasonQueueConflict), "got %v", err)

	got, ok := f.store.Reservation(r.ID)
	require.True(t, ok)
	assert.Equal(t, models.ReservationCancelled, got.Status, "a cancelled reservation stays cancelled")
	assert.Zero(t, f.store.OpenLoans(item.ID), "the checkout rolled back")
	stored, _ := f.store.Item(item.ID)
	require.NotNil(t, stored.Available)
	assert.Equal(t, 1, *stored.Available)
	assert.Empty(t, f.audit.Topics())
}
