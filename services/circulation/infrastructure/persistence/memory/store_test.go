package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/bookcirc/pkg/tenancy"
	"github.com/ghuser/bookcirc/services/circulation/domain"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
	"github.com/ghuser/bookcirc/services/circulation/domain/repositories"
)

func seed(t *testing.T) (*Store, models.Item, models.Member) {
	t.Helper()
	s := New()
	avail := 1
	item := models.Item{ID: uuid.New(), ISBN: "978-0-00-000001-1", Title: "Dune", Copies: 1, Available: &avail}
	member := models.Member{ID: uuid.New(), Number: "M-0001", Name: "Ada"}
	s.PutItem(item)
	s.PutMember(member)
	return s, item, member
}

func TestStore_DoRollsBackOnError(t *testing.T) {
	s, item, member := seed(t)
	boom := errors.New("boom")

	err := s.Do(context.Background(), func(ctx context.Context, repos repositories.Repositories) error {
		require.NoError(t, repos.Items.UpdateAvailable(ctx, item.ID, 0))
		require.NoError(t, repos.Loans.Create(ctx, models.NewLoan(item.ID, member.ID, uuid.NullUUID{}, time.Now(), time.Now())))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, _ := s.Item(item.ID)
	assert.Equal(t, 1, *got.Available, "available must be restored")
	assert.Equal(t, 0, s.OpenLoans(item.ID), "loan insert must be rolled back")
}

func TestStore_DoRollsBackOnExpiredContext(t *testing.T) {
	s, item, _ := seed(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := s.Do(ctx, func(ctx context.Context, repos repositories.Repositories) error {
		require.NoError(t, repos.Items.UpdateAvailable(ctx, item.ID, 0))
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	got, _ := s.Item(item.ID)
	assert.Equal(t, 1, *got.Available)
}

func TestStore_DoCommits(t *testing.T) {
	s, item, _ := seed(t)

	err := s.Do(context.Background(), func(ctx context.Context, repos repositories.Repositories) error {
		return repos.Items.UpdateAvailable(ctx, item.ID, 0)
	})
	require.NoError(t, err)

	got, _ := s.Item(item.ID)
	assert.Equal(t, 0, *got.Available)
}

func TestStore_KeyLookup(t *testing.T) {
	s, item, member := seed(t)
	repos := s.Read()
	ctx := context.Background()

	items, err := repos.Items.FindByKey(ctx, models.NormalizeKey("9780000000011"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ID, items[0].ID)

	items, err = repos.Items.FindByKeySuffix(ctx, "000011")
	require.NoError(t, err)
	require.Len(t, items, 1)

	members, err := repos.Members.FindByKey(ctx, "M0001")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, member.ID, members[0].ID)
}

func TestStore_DuplicateActiveReservation(t *testing.T) {
	s, item, member := seed(t)
	ctx := context.Background()
	repos := s.Read()

	first := models.NewReservation(item.ID, member.ID, uuid.NullUUID{}, time.Now())
	require.NoError(t, repos.Reservations.Create(ctx, first))

	err := repos.Reservations.Create(ctx, models.NewReservation(item.ID, member.ID, uuid.NullUUID{}, time.Now()))
	assert.True(t, domain.HasReason(err, domain.ReasonDuplicateReservation), "got %v", err)

	require.NoError(t, repos.Reservations.UpdateStatus(ctx, first.ID, models.ReservationCancelled))
	err = repos.Reservations.UpdateStatus(ctx, first.ID, models.ReservationFulfilled)
	require.ErrorIs(t, err, domain.ErrReservationClosed, "terminal reservations never change status")
	assert.NoError(t, repos.Reservations.Create(ctx, models.NewReservation(item.ID, member.ID, uuid.NullUUID{}, time.Now())))
}

func TestStore_ListScopesByTenant(t *testing.T) {
	s, item, member := seed(t)
	ctx := context.Background()
	branchA := uuid.NullUUID{UUID: uuid.New(), Valid: true}
	branchB := uuid.NullUUID{UUID: uuid.New(), Valid: true}
	now := time.Now()

	for _, tenant := range []uuid.NullUUID{branchA, branchB, {}} {
		s.PutLoan(*models.NewLoan(item.ID, member.ID, tenant, now, now.AddDate(0, 0, 15)))
	}

	scope, err := tenancy.ScopeFilter(tenancy.Caller{Role: tenancy.RoleStaff, HomeTenant: branchB}, "all", "l.tenant_id")
	require.NoError(t, err)
	views, total, err := s.Read().Loans.List(ctx, repositories.LoanQuery{Scope: scope, Status: models.LoanStatusAll, AsOf: now})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, v := range views {
		assert.NotEqual(t, branchA, v.TenantID)
	}
}
