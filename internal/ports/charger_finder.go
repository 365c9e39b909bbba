package ports

import (
	"context"
	"ev-trip-planner/internal/domain"
)

// Contract for locating a charging station near a coordinate.
type ChargerFinder interface {
	// Return the nearest usable charger within radiusMeters.
	// A nil waypoint with a nil error means nothing was found.
	FindChargingStation(ctx context.Context, lat, lon float64, radiusMeters int) (*domain.Waypoint, error)
}
