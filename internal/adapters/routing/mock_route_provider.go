package routing

import (
	"context"
	"ev-trip-planner/internal/domain"
	"ev-trip-planner/internal/geo"
	"fmt"
	"math"
	"sync"
)

// StraightLineProvider is an offline RouteProvider that connects coordinates
// with straight lat/lon segments sampled every StepKm.
// Durations assume a constant average speed. It records every call.
type StraightLineProvider struct {
	StepKm     float64
	SpeedKmh   float64
	Err        error
	FailOnCall int // 1-based call number that returns Err; 0 means every call when Err is set

	mu    sync.Mutex
	calls [][]domain.Coordinate
}

func NewStraightLineProvider() *StraightLineProvider {
	return &StraightLineProvider{StepKm: 5, SpeedKmh: 50}
}

func (p *StraightLineProvider) FetchRoute(ctx context.Context, coords []domain.Coordinate) (*domain.Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.calls = append(p.calls, append([]domain.Coordinate(nil), coords...))
	n := len(p.calls)
	p.mu.Unlock()

	if p.Err != nil && (p.FailOnCall == 0 || p.FailOnCall == n) {
		return nil, &domain.RoutingError{Op: "mock route", Err: p.Err}
	}
	if len(coords) < 2 {
		return nil, fmt.Errorf("mock route: need at least two coordinates, got %d", len(coords))
	}

	route := &domain.Route{Geometry: domain.RouteGeometry{coords[0].Point()}}
	for i := 0; i+1 < len(coords); i++ {
		a, b := coords[i], coords[i+1]
		km := geo.DistanceKm(a, b)

		steps := int(math.Ceil(km / p.StepKm))
		if steps < 1 {
			steps = 1
		}
		for s := 1; s < steps; s++ {
			f := float64(s) / float64(steps)
			c := domain.Coordinate{Lat: a.Lat + (b.Lat-a.Lat)*f, Lon: a.Lon + (b.Lon-a.Lon)*f}
			route.Geometry = append(route.Geometry, c.Point())
		}
		route.Geometry = append(route.Geometry, b.Point())

		leg := domain.RouteLeg{
			DistanceMeters:  km * 1000,
			DurationSeconds: km / p.SpeedKmh * 3600,
		}
		route.Legs = append(route.Legs, leg)
		route.DistanceMeters += leg.DistanceMeters
		route.DurationSeconds += leg.DurationSeconds
	}

	return route, nil
}

// Calls returns a copy of the coordinate lists received so far.
func (p *StraightLineProvider) Calls() [][]domain.Coordinate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]domain.Coordinate(nil), p.calls...)
}
