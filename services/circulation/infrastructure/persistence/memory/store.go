// Package memory is an in-process implementation of the circulation
// repositories. Units of work are serialised by one mutex and roll back by
// restoring a snapshot, which gives the same all-or-nothing behaviour the
// PostgreSQL store gets from transactions. Used by tests and local tooling.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/pkg/tenancy"
	"github.com/ghuser/bookcirc/services/circulation/domain"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
	"github.com/ghuser/bookcirc/services/circulation/domain/repositories"
)

type state struct {
	items        map[uuid.UUID]models.Item
	members      map[uuid.UUID]models.Member
	loans        map[uuid.UUID]models.Loan
	reservations map[uuid.UUID]models.Reservation
	tenants      map[uuid.UUID]models.Tenant
	settings     map[string]string
}

func newState() *state {
	return &state{
		items:        map[uuid.UUID]models.Item{},
		members:      map[uuid.UUID]models.Member{},
		loans:        map[uuid.UUID]models.Loan{},
		reservations: map[uuid.UUID]models.Reservation{},
		tenants:      map[uuid.UUID]models.Tenant{},
		settings:     map[string]string{},
	}
}

// clone copies the maps. Stored values are never mutated in place, so
// sharing their pointer fields between snapshots is safe.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.members {
		c.members[k] = v
	}
	for k, v := range s.loans {
		c.loans[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	for k, v := range s.tenants {
		c.tenants[k] = v
	}
	for k, v := range s.settings {
		c.settings[k] = v
	}
	return c
}

// access runs f against the current state.
type access func(f func(st *state) error) error

// Store implements repositories.UnitOfWork in memory.
type Store struct {
	mu sync.Mutex
	st *state
}

// New returns an empty Store.
func New() *Store {
	return &Store{st: newState()}
}

var _ repositories.UnitOfWork = (*Store)(nil)

// Do runs fn while holding the store lock. Any error, or a context that
// expired while fn ran, restores the state fn started from.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos repositories.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	direct := func(f func(st *state) error) error { return f(s.st) }

	if err := fn(ctx, s.repos(direct)); err != nil {
		s.st = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// Read returns repositories that lock per call.
func (s *Store) Read() repositories.Repositories {
	return s.repos(func(f func(st *state) error) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return f(s.st)
	})
}

func (s *Store) repos(a access) repositories.Repositories {
	return repositories.Repositories{
		Items:        &itemRepo{a},
		Members:      &memberRepo{a},
		Loans:        &loanRepo{a},
		Reservations: &reservationRepo{a},
		Tenants:      &tenantRepo{a},
		Settings:     &settingsRepo{a},
	}
}

// PutItem stores or replaces an item.
func (s *Store) PutItem(item models.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.items[item.ID] = copyItem(item)
}

// PutMember stores or replaces a member.
func (s *Store) PutMember(m models.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.members[m.ID] = m
}

// PutTenant stores or replaces a branch.
func (s *Store) PutTenant(t models.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.tenants[t.ID] = t
}

// PutLoan stores or replaces a loan.
func (s *Store) PutLoan(l models.Loan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.loans[l.ID] = copyLoan(l)
}

// PutReservation stores or replaces a reservation.
func (s *Store) PutReservation(r models.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.reservations[r.ID] = r
}

// Item returns a copy of the stored item.
func (s *Store) Item(id uuid.UUID) (models.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.st.items[id]
	return copyItem(it), ok
}

// Loan returns a copy of the stored loan.
func (s *Store) Loan(id uuid.UUID) (models.Loan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.st.loans[id]
	return copyLoan(l), ok
}

// Reservation returns a copy of the stored reservation.
func (s *Store) Reservation(id uuid.UUID) (models.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.st.reservations[id]
	return r, ok
}

// OpenLoans counts open loans on an item.
func (s *Store) OpenLoans(itemID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countOpen(s.st, itemID)
}

func countOpen(st *state, itemID uuid.UUID) int {
	n := 0
	for _, l := range st.loans {
		if l.ItemID == itemID && l.ReturnDate == nil {
			n++
		}
	}
	return n
}

func copyItem(it models.Item) models.Item {
	if it.Available != nil {
		v := *it.Available
		it.Available = &v
	}
	return it
}

func copyLoan(l models.Loan) models.Loan {
	if l.ReturnDate != nil {
		t := *l.ReturnDate
		l.ReturnDate = &t
	}
	return l
}

// --- items ---

type itemRepo struct{ a access }

func (r *itemRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Item, error) {
	var out *models.Item
	err := r.a(func(st *state) error {
		it, ok := st.items[id]
		if !ok {
			return domain.ErrItemNotFound
		}
		c := copyItem(it)
		out = &c
		return nil
	})
	return out, err
}

func (r *itemRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	return r.GetByID(ctx, id)
}

func (r *itemRepo) FindByKey(_ context.Context, norm string) ([]*models.Item, error) {
	return r.find(func(it models.Item) bool { return models.NormalizeKey(it.ISBN) == norm })
}

func (r *itemRepo) FindByKeySuffix(_ context.Context, suffix string) ([]*models.Item, error) {
	return r.find(func(it models.Item) bool { return strings.HasSuffix(models.NormalizeKey(it.ISBN), suffix) })
}

func (r *itemRepo) find(match func(models.Item) bool) ([]*models.Item, error) {
	var out []*models.Item
	err := r.a(func(st *state) error {
		for _, it := range st.items {
			if match(it) {
				c := copyItem(it)
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, err
}

func (r *itemRepo) UpdateAvailable(_ context.Context, id uuid.UUID, available int) error {
	return r.a(func(st *state) error {
		it, ok := st.items[id]
		if !ok {
			return domain.ErrItemNotFound
		}
		v := available
		it.Available = &v
		st.items[id] = it
		return nil
	})
}

// --- members ---

type memberRepo struct{ a access }

func (r *memberRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Member, error) {
	var out *models.Member
	err := r.a(func(st *state) error {
		m, ok := st.members[id]
		if !ok {
			return domain.ErrMemberNotFound
		}
		out = &m
		return nil
	})
	return out, err
}

func (r *memberRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	return r.GetByID(ctx, id)
}

func (r *memberRepo) FindByKey(_ context.Context, norm string) ([]*models.Member, error) {
	return r.find(func(m models.Member) bool { return models.NormalizeKey(m.Number) == norm })
}

func (r *memberRepo) FindByKeySuffix(_ context.Context, suffix string) ([]*models.Member, error) {
	return r.find(func(m models.Member) bool { return strings.HasSuffix(models.NormalizeKey(m.Number), suffix) })
}

func (r *memberRepo) find(match func(models.Member) bool) ([]*models.Member, error) {
	var out []*models.Member
	err := r.a(func(st *state) error {
		for _, m := range st.members {
			if match(m) {
				c := m
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, err
}

// --- loans ---

type loanRepo struct{ a access }

func (r *loanRepo) Create(_ context.Context, loan *models.Loan) error {
	return r.a(func(st *state) error {
		if _, ok := st.items[loan.ItemID]; !ok {
			return domain.ErrItemNotFound
		}
		if _, ok := st.members[loan.MemberID]; !ok {
			return domain.ErrMemberNotFound
		}
		st.loans[loan.ID] = copyLoan(*loan)
		return nil
	})
}

func (r *loanRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Loan, error) {
	var out *models.Loan
	err := r.a(func(st *state) error {
		l, ok := st.loans[id]
		if !ok {
			return domain.ErrLoanNotFound
		}
		c := copyLoan(l)
		out = &c
		return nil
	})
	return out, err
}

func (r *loanRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Loan, error) {
	return r.GetByID(ctx, id)
}

func (r *loanRepo) FindOpen(_ context.Context, itemID, memberID uuid.UUID) (*models.Loan, error) {
	var out *models.Loan
	err := r.a(func(st *state) error {
		for _, l := range st.loans {
			if l.ItemID != itemID || l.MemberID != memberID || l.ReturnDate != nil {
				continue
			}
			if out == nil || l.LoanDate.Before(out.LoanDate) {
				c := copyLoan(l)
				out = &c
			}
		}
		if out == nil {
			return domain.ErrLoanNotFound
		}
		return nil
	})
	return out, err
}

func (r *loanRepo) CountOpenByItem(_ context.Context, itemID uuid.UUID) (int, error) {
	var n int
	err := r.a(func(st *state) error {
		n = countOpen(st, itemID)
		return nil
	})
	return n, err
}

func (r *loanRepo) CountOpenByMember(_ context.Context, memberID uuid.UUID, asOf time.Time) (int, int, error) {
	var active, overdue int
	today := models.Day(asOf)
	err := r.a(func(st *state) error {
		for _, l := range st.loans {
			if l.MemberID != memberID || l.ReturnDate != nil {
				continue
			}
			active++
			if models.Day(l.DueDate).Before(today) {
				overdue++
			}
		}
		return nil
	})
	return active, overdue, err
}

func (r *loanRepo) UpdateDueDate(_ context.Context, id uuid.UUID, due time.Time) error {
	return r.a(func(st *state) error {
		l, ok := st.loans[id]
		if !ok {
			return domain.ErrLoanNotFound
		}
		l.DueDate = models.Day(due)
		st.loans[id] = l
		return nil
	})
}

func (r *loanRepo) Close(_ context.Context, id uuid.UUID, returnedAt time.Time, fineCents int64) error {
	return r.a(func(st *state) error {
		l, ok := st.loans[id]
		if !ok {
			return domain.ErrLoanNotFound
		}
		if err := l.Close(returnedAt, fineCents); err != nil {
			return err
		}
		st.loans[id] = l
		return nil
	})
}

func (r *loanRepo) List(_ context.Context, q repositories.LoanQuery) ([]*models.LoanView, int, error) {
	var out []*models.LoanView
	today := models.Day(q.AsOf)
	search := strings.ToLower(strings.TrimSpace(q.Search))

	err := r.a(func(st *state) error {
		for _, l := range st.loans {
			if !q.Scope.Matches(l.TenantID) {
				continue
			}
			switch q.Status {
			case models.LoanStatusOpen:
				if l.ReturnDate != nil {
					continue
				}
			case models.LoanStatusReturned:
				if l.ReturnDate == nil {
					continue
				}
			case models.LoanStatusOverdue:
				if l.ReturnDate != nil || !models.Day(l.DueDate).Before(today) {
					continue
				}
			}
			v := view(st, l)
			if search != "" && !matchesSearch(v, search) {
				continue
			}
			out = append(out, v)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].LoanDate.Equal(out[j].LoanDate) {
			return out[i].LoanDate.After(out[j].LoanDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	total := len(out)
	if q.Offset > 0 {
		if q.Offset >= len(out) {
			out = nil
		} else {
			out = out[q.Offset:]
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, total, nil
}

func (r *loanRepo) ListOverdue(_ context.Context, asOf time.Time) ([]*models.LoanView, error) {
	var out []*models.LoanView
	today := models.Day(asOf)
	err := r.a(func(st *state) error {
		for _, l := range st.loans {
			if l.ReturnDate == nil && models.Day(l.DueDate).Before(today) {
				out = append(out, view(st, l))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, err
}

func view(st *state, l models.Loan) *models.LoanView {
	it := st.items[l.ItemID]
	m := st.members[l.MemberID]
	return &models.LoanView{
		Loan:         copyLoan(l),
		ItemTitle:    it.Title,
		ItemISBN:     it.ISBN,
		MemberName:   m.Name,
		MemberNumber: m.Number,
	}
}

func matchesSearch(v *models.LoanView, needle string) bool {
	for _, hay := range []string{v.ItemTitle, v.ItemISBN, v.MemberName, v.MemberNumber} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

// --- reservations ---

type reservationRepo struct{ a access }

func (r *reservationRepo) Create(_ context.Context, res *models.Reservation) error {
	return r.a(func(st *state) error {
		if _, ok := st.items[res.ItemID]; !ok {
			return domain.ErrItemNotFound
		}
		if _, ok := st.members[res.MemberID]; !ok {
			return domain.ErrMemberNotFound
		}
		for _, existing := range st.reservations {
			if existing.IsActive() && existing.ItemID == res.ItemID && existing.MemberID == res.MemberID {
				return domain.NewPolicyError(domain.ReasonDuplicateReservation,
					"member already holds an active reservation for this item",
					map[string]any{"reservation_id": existing.ID})
			}
		}
		st.reservations[res.ID] = *res
		return nil
	})
}

func (r *reservationRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Reservation, error) {
	var out *models.Reservation
	err := r.a(func(st *state) error {
		res, ok := st.reservations[id]
		if !ok {
			return domain.ErrReservationNotFound
		}
		out = &res
		return nil
	})
	return out, err
}

func (r *reservationRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	return r.GetByID(ctx, id)
}

func (r *reservationRepo) Head(ctx context.Context, itemID uuid.UUID) (*models.Reservation, error) {
	queue, err := r.ListActive(ctx, itemID)
	if err != nil || len(queue) == 0 {
		return nil, err
	}
	return queue[0], nil
}

func (r *reservationRepo) ListActive(_ context.Context, itemID uuid.UUID) ([]*models.Reservation, error) {
	var out []*models.Reservation
	err := r.a(func(st *state) error {
		for _, res := range st.reservations {
			if res.ItemID == itemID && res.IsActive() {
				c := res
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return models.QueueLess(out[i], out[j]) })
	return out, err
}

func (r *reservationRepo) UpdateStatus(_ context.Context, id uuid.UUID, status models.ReservationStatus) error {
	return r.a(func(st *state) error {
		res, ok := st.reservations[id]
		if !ok {
			return domain.ErrReservationNotFound
		}
		if !res.IsActive() {
			return domain.ErrReservationClosed
		}
		res.Status = status
		st.reservations[id] = res
		return nil
	})
}

// --- tenants ---

type tenantRepo struct{ a access }

func (r *tenantRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	var out *models.Tenant
	err := r.a(func(st *state) error {
		t, ok := st.tenants[id]
		if !ok {
			return domain.ErrTenantNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *tenantRepo) List(_ context.Context, scope tenancy.Filter) ([]*models.Tenant, error) {
	var out []*models.Tenant
	err := r.a(func(st *state) error {
		for _, t := range st.tenants {
			if scope.Matches(uuid.NullUUID{UUID: t.ID, Valid: true}) {
				c := t
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, err
}

// --- settings ---

type settingsRepo struct{ a access }

func (r *settingsRepo) Load(_ context.Context) (map[string]string, error) {
	out := map[string]string{}
	err := r.a(func(st *state) error {
		for k, v := range st.settings {
			out[k] = v
		}
		return nil
	})
	return out, err
}

func (r *settingsRepo) Save(_ context.Context, settings map[string]string) error {
	return r.a(func(st *state) error {
		for k, v := range settings {
			st.settings[k] = v
		}
		return nil
	})
}
