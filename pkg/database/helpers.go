package database

import (
	"context"
	"fmt"
)

// TableExists reports whether a table is present in the public schema.
// The readiness probe uses it to tell "database up" apart from
// "migrations not run yet".
func (db *DB) TableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1
	)`
	if err := db.QueryRowContext(ctx, query, table).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return exists, nil
}

// ServerVersion returns the Postgres version string for diagnostics.
func (db *DB) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("failed to read server version: %w", err)
	}
	return version, nil
}
