package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InitSchema creates the Postgres cache tables used by the planner.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createRouteCacheQuery := `
	CREATE TABLE IF NOT EXISTS route_cache (
        coords_key TEXT PRIMARY KEY,
        distance_meters DOUBLE PRECISION NOT NULL,
        duration_seconds DOUBLE PRECISION NOT NULL,
        legs JSONB NOT NULL,
        geometry JSONB NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );
	`

	createLocationCacheQuery := `
	CREATE TABLE IF NOT EXISTS location_cache (
        query TEXT PRIMARY KEY,
        results JSONB NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_route_cache_created_at
    ON route_cache(created_at);
	`

	statements := []string{
		createRouteCacheQuery,
		createLocationCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// PruneCaches deletes cache rows older than maxAge and reports how many were removed.
func PruneCaches(ctx context.Context, db *sql.DB, maxAge time.Duration) (int64, error) {
	if db == nil {
		return 0, errors.New("prune caches: DB is nil")
	}
	if maxAge <= 0 {
		return 0, fmt.Errorf("prune caches: max age must be positive, got %s", maxAge)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("prune caches: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	secs := int64(maxAge / time.Second)
	var total int64
	for _, table := range []string{"route_cache", "location_cache"} {
		res, err := tx.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE created_at < now() - $1::bigint * interval '1 second'", secs)
		if err != nil {
			return 0, fmt.Errorf("prune caches: delete from %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("prune caches: rows affected %s: %w", table, err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("prune caches: commit tx: %w", err)
	}

	return total, nil
}
