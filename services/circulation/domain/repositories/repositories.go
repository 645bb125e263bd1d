package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/pkg/tenancy"
	"github.com/ghuser/bookcirc/services/circulation/domain/models"
)

// QueryOpts contains pagination parameters for list queries.
type QueryOpts struct {
	Limit  int // Maximum number of records to return
	Offset int // Number of records to skip
}

// LoanQuery selects rows for the loan listing.
type LoanQuery struct {
	Scope  tenancy.Filter
	Status models.LoanStatus
	Search string    // free text over title, ISBN, member name and number
	AsOf   time.Time // "today" for the overdue filter
	QueryOpts
}

// ItemRepository reads catalog items and adjusts their availability.
// ForUpdate variants take a row lock held until the unit of work ends.
type ItemRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Item, error)

	// FindByKey returns items whose normalised ISBN equals norm.
	FindByKey(ctx context.Context, norm string) ([]*models.Item, error)
	// FindByKeySuffix returns items whose normalised ISBN ends with suffix.
	FindByKeySuffix(ctx context.Context, suffix string) ([]*models.Item, error)

	UpdateAvailable(ctx context.Context, id uuid.UUID, available int) error
}

// MemberRepository reads directory members.
type MemberRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Member, error)
	FindByKey(ctx context.Context, norm string) ([]*models.Member, error)
	FindByKeySuffix(ctx context.Context, suffix string) ([]*models.Member, error)
}

// LoanRepository persists loans. Loans are never deleted.
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Loan, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Loan, error)

	// FindOpen returns the oldest open loan of item to member.
	FindOpen(ctx context.Context, itemID, memberID uuid.UUID) (*models.Loan, error)

	CountOpenByItem(ctx context.Context, itemID uuid.UUID) (int, error)
	// CountOpenByMember returns the member's open loans and those of them due before asOf's date.
	CountOpenByMember(ctx context.Context, memberID uuid.UUID, asOf time.Time) (active, overdue int, err error)

	UpdateDueDate(ctx context.Context, id uuid.UUID, due time.Time) error
	// Close sets return_date and fine. It fails with already_returned if the row is closed.
	Close(ctx context.Context, id uuid.UUID, returnedAt time.Time, fineCents int64) error

	// List returns the page and the total count ignoring pagination.
	List(ctx context.Context, q LoanQuery) ([]*models.LoanView, int, error)
	// ListOverdue returns every open loan due before asOf's date, across all tenants.
	ListOverdue(ctx context.Context, asOf time.Time) ([]*models.LoanView, error)
}

// ReservationRepository persists holds.
type ReservationRepository interface {
	// Create inserts an active reservation. A second active reservation for the
	// same (item, member) fails with duplicate_reservation.
	Create(ctx context.Context, r *models.Reservation) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Reservation, error)

	// Head returns the earliest active reservation of the item, or nil.
	Head(ctx context.Context, itemID uuid.UUID) (*models.Reservation, error)
	// ListActive returns the item's active queue in FIFO order.
	ListActive(ctx context.Context, itemID uuid.UUID) ([]*models.Reservation, error)

	// UpdateStatus moves an active reservation to status. A reservation that
	// is already terminal is left untouched and ErrReservationClosed returned.
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReservationStatus) error
}

// TenantRepository reads branches.
type TenantRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	List(ctx context.Context, scope tenancy.Filter) ([]*models.Tenant, error)
}

// SettingsRepository stores circulation policy overrides as key/value rows.
type SettingsRepository interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, settings map[string]string) error
}

// Repositories groups the repositories bound to one unit of work.
type Repositories struct {
	Items        ItemRepository
	Members      MemberRepository
	Loans        LoanRepository
	Reservations ReservationRepository
	Tenants      TenantRepository
	Settings     SettingsRepository
}

// UnitOfWork runs fn atomically. Every repository reached through repos
// shares one transaction; fn returning an error rolls all writes back.
// Read returns repositories for single-statement reads outside a transaction.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Read() Repositories
}
