package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"ev-trip-planner/internal/domain"
	"ev-trip-planner/internal/platform/obs"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// SQLRouteCache is a Postgres-backed cache of routing responses keyed by
// the normalized coordinate list of the request.
type SQLRouteCache struct {
	DB     *sql.DB
	MaxAge time.Duration
}

func NewSQLRouteCache(db *sql.DB, maxAge time.Duration) *SQLRouteCache {
	return &SQLRouteCache{DB: db, MaxAge: maxAge}
}

// Fetch a cached route. Entries older than MaxAge are treated as misses.
func (s *SQLRouteCache) Get(ctx context.Context, key string) (_ *domain.Route, _ bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if s.DB == nil {
		return nil, false, errors.New("route cache: db is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, errors.New("get route cache: key must not be empty")
	}

	q := `
	SELECT distance_meters, duration_seconds, legs, geometry
    FROM route_cache
    WHERE coords_key = $1
        AND ($2::bigint = 0 OR created_at > now() - $2::bigint * interval '1 second');
	`

	var (
		meters, seconds float64
		legsRaw, geoRaw []byte
	)
	err = s.DB.QueryRowContext(ctx, q, key, int64(s.MaxAge/time.Second)).Scan(&meters, &seconds, &legsRaw, &geoRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}

	var legs []domain.RouteLeg
	if err := json.Unmarshal(legsRaw, &legs); err != nil {
		return nil, false, fmt.Errorf("get route cache: decode legs: %w", err)
	}

	g, err := geojson.UnmarshalGeometry(geoRaw)
	if err != nil {
		return nil, false, fmt.Errorf("get route cache: decode geometry: %w", err)
	}
	line, ok := g.Geometry().(orb.LineString)
	if !ok {
		return nil, false, fmt.Errorf("get route cache: unexpected geometry type %q", g.Type)
	}

	return &domain.Route{
		Geometry:        line,
		DistanceMeters:  meters,
		DurationSeconds: seconds,
		Legs:            legs,
	}, true, nil
}

// Store a route, replacing any previous entry for the key.
func (s *SQLRouteCache) Put(ctx context.Context, key string, route *domain.Route) error {
	if s.DB == nil {
		return errors.New("route cache: db is nil")
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("insert route cache: key must not be empty")
	}
	if route == nil {
		return errors.New("insert route cache: route is nil")
	}

	legsRaw, err := json.Marshal(route.Legs)
	if err != nil {
		return fmt.Errorf("insert route cache: encode legs: %w", err)
	}
	geoRaw, err := geojson.NewGeometry(route.Geometry).MarshalJSON()
	if err != nil {
		return fmt.Errorf("insert route cache: encode geometry: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO route_cache (coords_key, distance_meters, duration_seconds, legs, geometry, created_at)
    VALUES ($1, $2, $3, $4, $5, now())
	ON CONFLICT (coords_key) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds,
		legs = EXCLUDED.legs,
		geometry = EXCLUDED.geometry,
		created_at = EXCLUDED.created_at;
	`, key, route.DistanceMeters, route.DurationSeconds, legsRaw, geoRaw)
	if err != nil {
		return fmt.Errorf("insert route cache key=%q: %w", key, err)
	}

	return nil
}
