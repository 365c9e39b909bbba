package ports

import (
	"context"
	"ev-trip-planner/internal/domain"
)

// A free-text location match.
type Location struct {
	DisplayName string
	Coordinate  domain.Coordinate
}

// Contract for resolving free text into candidate coordinates.
type LocationSearcher interface {
	Search(ctx context.Context, query string) ([]Location, error)
}

// Persistent cache of search results keyed by normalized query text.
type LocationCache interface {
	Get(ctx context.Context, query string) ([]Location, bool, error)
	Put(ctx context.Context, query string, results []Location) error
}
