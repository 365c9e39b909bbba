package chargers

import (
	"context"
	"ev-trip-planner/internal/domain"
	"sync"
)

// MockQuery records one FindChargingStation call.
type MockQuery struct {
	Lat, Lon     float64
	RadiusMeters int
}

// MockChargerFinder places a charger exactly at the queried point unless
// Empty is set, in which case it reports that nothing was found.
type MockChargerFinder struct {
	Empty bool
	Err   error
	Label string

	mu      sync.Mutex
	queries []MockQuery
}

func (m *MockChargerFinder) FindChargingStation(
	ctx context.Context,
	lat, lon float64,
	radiusMeters int,
) (*domain.Waypoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.queries = append(m.queries, MockQuery{Lat: lat, Lon: lon, RadiusMeters: radiusMeters})
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.Empty {
		return nil, nil
	}

	label := m.Label
	if label == "" {
		label = domain.DefaultChargerLabel
	}

	return &domain.Waypoint{
		Coordinate: domain.Coordinate{Lat: lat, Lon: lon},
		Label:      label,
		Kind:       domain.WaypointCharger,
	}, nil
}

func (m *MockChargerFinder) Queries() []MockQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockQuery(nil), m.queries...)
}
