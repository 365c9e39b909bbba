package ports

import (
	"context"
	"ev-trip-planner/internal/domain"
)

// Contract for retrieving a driving route through an ordered list of coordinates.
type RouteProvider interface {
	// Return the route through coords (at least two), with legs aligned to consecutive pairs.
	FetchRoute(ctx context.Context, coords []domain.Coordinate) (*domain.Route, error)
}

// Persistent lookaside cache for routes keyed by normalized coordinate lists.
type RouteCache interface {
	Get(ctx context.Context, key string) (*domain.Route, bool, error)
	Put(ctx context.Context, key string, route *domain.Route) error
}
