package services

import (
	"context"
	"errors"
	"ev-trip-planner/internal/adapters/chargers"
	"ev-trip-planner/internal/adapters/routing"
	"ev-trip-planner/internal/domain"
	"ev-trip-planner/internal/geo"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlanner(t *testing.T, routes *routing.StraightLineProvider, finder *chargers.MockChargerFinder) *TripPlanner {
	t.Helper()
	p, err := NewTripPlanner(routes, finder, DefaultPlannerOptions())
	require.NoError(t, err)
	return p
}

func baseRequest(start, end domain.Coordinate) domain.TripPlanRequest {
	return domain.TripPlanRequest{
		Start:          start,
		End:            end,
		CurrentSoc:     80,
		TargetSoc:      10,
		AvgConsumption: 19.5,
		HomeRate:       0.16,
		PublicRate:     0.45,
	}
}

func TestPlanTripShortTripNeedsNoStops(t *testing.T) {
	start := domain.Coordinate{Lat: 59.3293, Lon: 18.0686}
	end := domain.Coordinate{Lat: 59.3293 + 5/111.19, Lon: 18.0686}

	routes := routing.NewStraightLineProvider()
	finder := &chargers.MockChargerFinder{}

	res, err := newPlanner(t, routes, finder).PlanTrip(context.Background(), baseRequest(start, end))
	require.NoError(t, err)

	assert.Len(t, routes.Calls(), 1)
	assert.Empty(t, finder.Queries())
	assert.Empty(t, res.Waypoints)
	assert.InDelta(t, 5, res.Stats.TotalDistanceKm, 0.05)
	assert.Equal(t, 0.0, res.Stats.PublicEnergyKwh)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "USD", res.Request.Currency)
}

func TestPlanTripLongTripDiscoversChargers(t *testing.T) {
	start := domain.Coordinate{Lat: 48.0, Lon: 2.0}
	end := domain.Coordinate{Lat: 52.5, Lon: 2.0}
	require.InDelta(t, 500, geo.DistanceKm(start, end), 1)

	req := baseRequest(start, end)
	req.CurrentSoc = 50
	// 39 kWh minus the 7.8 kWh reserve covers 150 km.
	req.AvgConsumption = 20.8

	routes := routing.NewStraightLineProvider()
	finder := &chargers.MockChargerFinder{Label: "Fastned"}

	res, err := newPlanner(t, routes, finder).PlanTrip(context.Background(), req)
	require.NoError(t, err)

	require.NotEmpty(t, res.Waypoints)
	assert.LessOrEqual(t, len(res.Waypoints), DefaultPlannerOptions().MaxStops)
	assert.Len(t, finder.Queries(), len(res.Waypoints))

	calls := routes.Calls()
	// One direct route per waypoint, one that proved reachable, one consolidated.
	assert.Len(t, calls, len(res.Waypoints)+2)

	final := calls[len(calls)-1]
	require.Len(t, final, len(res.Waypoints)+2)
	assert.Equal(t, start, final[0])
	assert.Equal(t, end, final[len(final)-1])
	for i, wp := range res.Waypoints {
		assert.Equal(t, domain.WaypointCharger, wp.Kind)
		assert.Equal(t, "Fastned", wp.Label)
		assert.Equal(t, wp.Coordinate, final[i+1])
	}

	// First stop sits near the search-trigger range, not beyond the hard-reserve range.
	first := geo.DistanceKm(start, res.Waypoints[0].Coordinate)
	assert.Greater(t, first, 130.0)
	assert.LessOrEqual(t, first, 150.0)

	for i := 1; i < len(res.Waypoints); i++ {
		assert.Greater(t, res.Waypoints[i].Coordinate.Lat, res.Waypoints[i-1].Coordinate.Lat)
	}

	require.Len(t, res.Route.Legs, len(res.Waypoints)+1)
	assert.InDelta(t, 500, res.Stats.TotalDistanceKm, 2)
}

func TestPlanTripFallsBackToPlannedStop(t *testing.T) {
	start := domain.Coordinate{Lat: 48.0, Lon: 2.0}
	end := domain.Coordinate{Lat: 52.5, Lon: 2.0}
	req := baseRequest(start, end)
	req.CurrentSoc = 50
	req.AvgConsumption = 20.8

	routes := routing.NewStraightLineProvider()
	finder := &chargers.MockChargerFinder{Empty: true}

	res, err := newPlanner(t, routes, finder).PlanTrip(context.Background(), req)
	require.NoError(t, err)

	require.NotEmpty(t, res.Waypoints)
	for _, wp := range res.Waypoints {
		assert.Equal(t, domain.WaypointStop, wp.Kind)
		assert.Equal(t, domain.FallbackStopLabel, wp.Label)
	}

	q := finder.Queries()[0]
	assert.Equal(t, res.Waypoints[0].Coordinate, domain.Coordinate{Lat: q.Lat, Lon: q.Lon})
	assert.Equal(t, 5000, q.RadiusMeters)
}

func TestPlanTripStopsAtMaxStops(t *testing.T) {
	start := domain.Coordinate{Lat: 48.0, Lon: 2.0}
	end := domain.Coordinate{Lat: 52.5, Lon: 2.0}
	req := baseRequest(start, end)
	req.AvgConsumption = 200

	routes := routing.NewStraightLineProvider()
	finder := &chargers.MockChargerFinder{}

	res, err := newPlanner(t, routes, finder).PlanTrip(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, res.Waypoints, DefaultPlannerOptions().MaxStops)
	assert.Len(t, routes.Calls(), DefaultPlannerOptions().MaxStops+1)
	assert.Equal(t, 0.0, res.Stats.ArrivalSoc)
}

func TestPlanTripZeroMaxStops(t *testing.T) {
	start := domain.Coordinate{Lat: 48.0, Lon: 2.0}
	end := domain.Coordinate{Lat: 52.5, Lon: 2.0}

	routes := routing.NewStraightLineProvider()
	finder := &chargers.MockChargerFinder{}
	opts := DefaultPlannerOptions()
	opts.MaxStops = 0
	p, err := NewTripPlanner(routes, finder, opts)
	require.NoError(t, err)

	res, err := p.PlanTrip(context.Background(), baseRequest(start, end))
	require.NoError(t, err)
	assert.Empty(t, res.Waypoints)
	assert.Len(t, routes.Calls(), 1)
	assert.Empty(t, finder.Queries())
}

func TestPlanTripZeroConsumptionIsAlwaysReachable(t *testing.T) {
	start := domain.Coordinate{Lat: 48.0, Lon: 2.0}
	end := domain.Coordinate{Lat: 52.5, Lon: 2.0}
	req := baseRequest(start, end)
	req.AvgConsumption = 0

	routes := routing.NewStraightLineProvider()
	finder := &chargers.MockChargerFinder{}

	res, err := newPlanner(t, routes, finder).PlanTrip(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, res.Waypoints)
	assert.Equal(t, 0.0, res.Stats.TotalCost)
}

func TestPlanTripRoutingErrorIsFatal(t *testing.T) {
	start := domain.Coordinate{Lat: 48.0, Lon: 2.0}
	end := domain.Coordinate{Lat: 52.5, Lon: 2.0}
	req := baseRequest(start, end)
	req.CurrentSoc = 50
	req.AvgConsumption = 20.8

	routes := routing.NewStraightLineProvider()
	routes.Err = errors.New("osrm down")
	routes.FailOnCall = 2
	finder := &chargers.MockChargerFinder{}

	res, err := newPlanner(t, routes, finder).PlanTrip(context.Background(), req)
	assert.Nil(t, res)

	var re *domain.RoutingError
	require.True(t, errors.As(err, &re), "expected RoutingError, got %v", err)
	assert.Len(t, routes.Calls(), 2)
}

func TestPlanTripDiscoveryErrorIsFatal(t *testing.T) {
	start := domain.Coordinate{Lat: 48.0, Lon: 2.0}
	end := domain.Coordinate{Lat: 52.5, Lon: 2.0}
	req := baseRequest(start, end)
	req.CurrentSoc = 50
	req.AvgConsumption = 20.8

	routes := routing.NewStraightLineProvider()
	finder := &chargers.MockChargerFinder{Err: &domain.DiscoveryError{Attempts: 3, Err: errors.New("status 429")}}

	res, err := newPlanner(t, routes, finder).PlanTrip(context.Background(), req)
	assert.Nil(t, res)

	var de *domain.DiscoveryError
	require.True(t, errors.As(err, &de), "expected DiscoveryError, got %v", err)
	assert.Len(t, routes.Calls(), 1)
}

func TestPlanTripRejectsInvalidInputBeforeNetwork(t *testing.T) {
	req := baseRequest(domain.Coordinate{Lat: 48, Lon: 2}, domain.Coordinate{Lat: 49, Lon: 2})
	req.AvgConsumption = math.Inf(1)

	routes := routing.NewStraightLineProvider()
	finder := &chargers.MockChargerFinder{}

	_, err := newPlanner(t, routes, finder).PlanTrip(context.Background(), req)
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Empty(t, routes.Calls())
	assert.Empty(t, finder.Queries())
}

func TestPlanTripHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	routes := routing.NewStraightLineProvider()
	finder := &chargers.MockChargerFinder{}

	_, err := newPlanner(t, routes, finder).PlanTrip(ctx, baseRequest(domain.Coordinate{Lat: 48, Lon: 2}, domain.Coordinate{Lat: 49, Lon: 2}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, routes.Calls())
}

type emptyGeometryProvider struct{}

func (emptyGeometryProvider) FetchRoute(context.Context, []domain.Coordinate) (*domain.Route, error) {
	return &domain.Route{DistanceMeters: 1000, Legs: []domain.RouteLeg{{DistanceMeters: 1000}}}, nil
}

func TestPlanTripEmptyGeometryIsRoutingError(t *testing.T) {
	p, err := NewTripPlanner(emptyGeometryProvider{}, &chargers.MockChargerFinder{}, DefaultPlannerOptions())
	require.NoError(t, err)

	_, err = p.PlanTrip(context.Background(), baseRequest(domain.Coordinate{Lat: 48, Lon: 2}, domain.Coordinate{Lat: 49, Lon: 2}))
	var re *domain.RoutingError
	assert.True(t, errors.As(err, &re))
}

func TestNewTripPlannerValidatesDependencies(t *testing.T) {
	_, err := NewTripPlanner(nil, &chargers.MockChargerFinder{}, DefaultPlannerOptions())
	assert.Error(t, err)

	opts := DefaultPlannerOptions()
	opts.SearchRadiusMeters = 0
	_, err = NewTripPlanner(routing.NewStraightLineProvider(), &chargers.MockChargerFinder{}, opts)
	assert.Error(t, err)
}
