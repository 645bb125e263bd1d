package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// RunMigrations runs all pending goose migrations from the embedded FS against dbUrl.
func RunMigrations(ctx context.Context, dbUrl string, files fs.FS) error {
	db, err := sql.Open("pgx", dbUrl)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	return Up(ctx, db, files)
}

// Up applies pending migrations on an open connection.
func Up(ctx context.Context, db *sql.DB, files fs.FS) error {
	goose.SetBaseFS(files)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to up migrations: %w", err)
	}
	return nil
}

// Version returns the schema version currently applied.
func Version(ctx context.Context, db *sql.DB, files fs.FS) (int64, error) {
	goose.SetBaseFS(files)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// Latest returns the highest migration version embedded in files.
func Latest(files fs.FS) (int64, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return 0, fmt.Errorf("list migrations: %w", err)
	}
	var latest int64
	for _, name := range names {
		v, err := goose.NumericComponent(name)
		if err != nil {
			return 0, fmt.Errorf("migration %s: %w", name, err)
		}
		latest = max(latest, v)
	}
	return latest, nil
}

// SchemaCheck is a health checker that fails while the database lags the
// embedded migrations.
type SchemaCheck struct {
	db     *sql.DB
	latest int64
}

// NewSchemaCheck reads the target version from files once.
func NewSchemaCheck(db *sql.DB, files fs.FS) (*SchemaCheck, error) {
	latest, err := Latest(files)
	if err != nil {
		return nil, err
	}
	return &SchemaCheck{db: db, latest: latest}, nil
}

// Ping returns an error unless the applied version is at least the latest
// embedded one.
func (c *SchemaCheck) Ping(ctx context.Context) error {
	applied, err := goose.GetDBVersionContext(ctx, c.db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if applied < c.latest {
		return fmt.Errorf("schema at version %d, want %d", applied, c.latest)
	}
	return nil
}
