package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/osse101/BrandishRaffle_Go/migrations"
)

// Migrate applies every pending embedded migration to the pool's database
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(GooseDialect); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToMigrate, err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToMigrate, err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToMigrate, err)
	}
	slog.Default().Info(LogMsgMigrationsApplied, "version", version)
	return nil
}

// MigrationStatus returns the current schema version
func MigrationStatus(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.SetDialect(GooseDialect); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db)
}

// LatestMigration returns the highest version among the embedded migrations,
// which is the schema version this binary expects.
func LatestMigration() (int64, error) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToReadMigrations, err)
	}

	var latest int64
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		v, err := goose.NumericComponent(e.Name())
		if err != nil {
			return 0, fmt.Errorf("%s: %w", ErrMsgFailedToReadMigrations, err)
		}
		latest = max(latest, v)
	}
	return latest, nil
}

// CheckSchema returns ErrSchemaBehind when the database has not been migrated
// to LatestMigration. A database goose has never touched counts as version 0.
func CheckSchema(ctx context.Context, pool *pgxpool.Pool) error {
	want, err := LatestMigration()
	if err != nil {
		return err
	}

	var have int64
	err = pool.QueryRow(ctx, queryAppliedVersion).Scan(&have)
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == pgCodeUndefinedTable:
		have = 0
	case err != nil:
		return fmt.Errorf("%s: %w", ErrMsgFailedToReadSchemaVersion, err)
	}

	return compareSchema(have, want)
}

func compareSchema(have, want int64) error {
	if have < want {
		return fmt.Errorf("%w: at version %d, binary expects %d", ErrSchemaBehind, have, want)
	}
	return nil
}

const (
	queryAppliedVersion  = `SELECT COALESCE(MAX(version_id), 0) FROM goose_db_version WHERE is_applied`
	pgCodeUndefinedTable = "42P01"
)
