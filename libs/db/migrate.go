package db

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate applies all pending goose migrations from the given filesystem
// (services embed their migrations directory). Goose needs a *sql.DB, which
// we derive from the pgx pool.
func Migrate(ctx context.Context, pool *Pool, migrations fs.FS, dir string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetBaseFS(migrations)

	// Not closed here: the *sql.DB shares connections with the pgx pool the
	// service keeps using after migration.
	sqlDB := stdlib.OpenDBFromPool(pool.Pool)

	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
