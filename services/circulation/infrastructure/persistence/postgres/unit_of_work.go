package postgres

import (
	"context"
	"database/sql"

	"github.com/ghuser/bookcirc/pkg/database"
	"github.com/ghuser/bookcirc/services/circulation/domain/repositories"
	"github.com/ghuser/bookcirc/services/circulation/infrastructure/persistence/postgres/db"
)

// UnitOfWork implements repositories.UnitOfWork with one database
// transaction per Do call.
type UnitOfWork struct {
	db *database.Database
}

// NewUnitOfWork returns a UnitOfWork over the shared connection pool.
func NewUnitOfWork(database *database.Database) *UnitOfWork {
	return &UnitOfWork{db: database}
}

// Do runs fn inside a READ COMMITTED transaction. Row locks taken by the
// ForUpdate reads are held until fn returns. A cancelled ctx rolls back.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos repositories.Repositories) error) error {
	return u.db.WithTx(ctx, func(tx *sql.Tx) error {
		return fn(ctx, repositoriesFor(tx))
	})
}

// Read returns repositories that run each statement on the pool.
func (u *UnitOfWork) Read() repositories.Repositories {
	return repositoriesFor(u.db.DB())
}

func repositoriesFor(conn db.DBTX) repositories.Repositories {
	q := db.New(conn)
	return repositories.Repositories{
		Items:        &ItemRepository{q: q},
		Members:      &MemberRepository{q: q},
		Loans:        &LoanRepository{q: q},
		Reservations: &ReservationRepository{q: q},
		Tenants:      &TenantRepository{q: q},
		Settings:     &SettingsRepository{q: q},
	}
}
