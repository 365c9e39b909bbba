package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"ev-trip-planner/internal/domain"
	"ev-trip-planner/internal/platform/obs"
	"ev-trip-planner/internal/ports"
	"fmt"
	"strings"
	"time"
)

// SQLLocationCache is a Postgres-backed cache mapping search text to location matches.
type SQLLocationCache struct {
	DB     *sql.DB
	MaxAge time.Duration
}

func NewSQLLocationCache(db *sql.DB, maxAge time.Duration) *SQLLocationCache {
	return &SQLLocationCache{DB: db, MaxAge: maxAge}
}

type cachedLocation struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Fetch cached matches for a normalized query.
func (s *SQLLocationCache) Get(ctx context.Context, query string) (_ []ports.Location, _ bool, err error) {
	defer obs.Time(ctx, "location.cache.Get")(&err)

	if s.DB == nil {
		return nil, false, errors.New("location cache: db is nil")
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, false, nil
	}

	var raw []byte
	err = s.DB.QueryRowContext(ctx, `
	SELECT results
    FROM location_cache
    WHERE query = $1
        AND ($2::bigint = 0 OR created_at > now() - $2::bigint * interval '1 second');
	`, query, int64(s.MaxAge/time.Second)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get location cache: query location_cache table: %w", err)
	}

	var rows []cachedLocation
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false, fmt.Errorf("get location cache: decode results: %w", err)
	}

	out := make([]ports.Location, 0, len(rows))
	for _, r := range rows {
		out = append(out, ports.Location{
			DisplayName: r.DisplayName,
			Coordinate:  domain.Coordinate{Lat: r.Lat, Lon: r.Lon},
		})
	}

	return out, true, nil
}

// Store matches for a normalized query.
func (s *SQLLocationCache) Put(ctx context.Context, query string, results []ports.Location) error {
	if s.DB == nil {
		return errors.New("location cache: db is nil")
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return errors.New("insert location cache: empty query key")
	}

	rows := make([]cachedLocation, 0, len(results))
	for _, r := range results {
		rows = append(rows, cachedLocation{DisplayName: r.DisplayName, Lat: r.Coordinate.Lat, Lon: r.Coordinate.Lon})
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("insert location cache: encode results: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO location_cache (query, results, created_at)
    VALUES ($1, $2, now())
	ON CONFLICT (query) DO UPDATE
	SET results = EXCLUDED.results,
		created_at = EXCLUDED.created_at;
	`, query, raw)
	if err != nil {
		return fmt.Errorf("insert location cache query=%q: %w", query, err)
	}

	return nil
}
