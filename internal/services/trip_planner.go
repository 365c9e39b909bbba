package services

import (
	"context"
	"errors"
	"ev-trip-planner/internal/domain"
	"ev-trip-planner/internal/energy"
	"ev-trip-planner/internal/geo"
	"ev-trip-planner/internal/platform/obs"
	"ev-trip-planner/internal/ports"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type PlannerOptions struct {
	MaxStops           int
	StopChargeSoc      float64
	SearchRadiusMeters int
}

func DefaultPlannerOptions() PlannerOptions {
	return PlannerOptions{
		MaxStops:           energy.MaxIntermediateStops,
		StopChargeSoc:      energy.StopChargeSoc,
		SearchRadiusMeters: energy.ChargerSearchRadiusMeters,
	}
}

// TripPlanner inserts charging stops along a route until the destination is
// reachable on the remaining charge, then prices the consolidated trip.
// Provider calls are strictly sequential.
type TripPlanner struct {
	routes   ports.RouteProvider
	chargers ports.ChargerFinder
	opts     PlannerOptions
	now      func() time.Time
}

func NewTripPlanner(routes ports.RouteProvider, chargers ports.ChargerFinder, opts PlannerOptions) (*TripPlanner, error) {
	if routes == nil {
		return nil, errors.New("new trip planner: route provider is nil")
	}
	if chargers == nil {
		return nil, errors.New("new trip planner: charger finder is nil")
	}
	if opts.MaxStops < 0 {
		return nil, fmt.Errorf("new trip planner: max stops must be non-negative, got %d", opts.MaxStops)
	}
	if opts.SearchRadiusMeters <= 0 {
		return nil, fmt.Errorf("new trip planner: search radius must be positive, got %d", opts.SearchRadiusMeters)
	}
	opts.StopChargeSoc = energy.ClampSoc(opts.StopChargeSoc)

	return &TripPlanner{routes: routes, chargers: chargers, opts: opts, now: time.Now}, nil
}

// PlanTrip runs one planning simulation.
//
// Any routing or discovery failure ends the attempt and no partial plan is
// returned. Reaching MaxStops without resolving reachability is not an error;
// the best-effort plan is finalized as is.
func (p *TripPlanner) PlanTrip(ctx context.Context, req domain.TripPlanRequest) (_ *domain.TripPlanResult, err error) {
	defer obs.Time(ctx, "planner.PlanTrip")(&err)

	req, err = req.Normalize()
	if err != nil {
		return nil, err
	}

	current := req.Start
	soc := req.CurrentSoc
	waypoints := make([]domain.Waypoint, 0, p.opts.MaxStops)

	var direct *domain.Route

	for len(waypoints) < p.opts.MaxStops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		route, err := p.routes.FetchRoute(ctx, []domain.Coordinate{current, req.End})
		if err != nil {
			return nil, fmt.Errorf("plan trip: direct route from %s: %w", current, err)
		}
		if len(route.Geometry) == 0 {
			return nil, &domain.RoutingError{Op: "direct route", Err: errors.New("route geometry is empty")}
		}
		if len(waypoints) == 0 {
			direct = route
		}

		// Zero consumption never drains the battery.
		maxReachableKm := energy.ReserveRangeKm(soc, energy.HardReservePercent, req.AvgConsumption)
		if req.AvgConsumption == 0 || route.DistanceKm() <= maxReachableKm {
			break
		}

		searchKm := energy.ReserveRangeKm(soc, energy.SearchTriggerPercent, req.AvgConsumption)
		point, ok := geo.PointAtDistance(route.Geometry, searchKm)
		if !ok {
			return nil, &domain.RoutingError{Op: "direct route", Err: errors.New("route geometry is empty")}
		}

		wp, err := p.chargers.FindChargingStation(ctx, point.Lat, point.Lon, p.opts.SearchRadiusMeters)
		if err != nil {
			return nil, fmt.Errorf("plan trip: find charger near %s: %w", point, err)
		}
		if wp == nil {
			wp = &domain.Waypoint{Coordinate: point, Label: domain.FallbackStopLabel, Kind: domain.WaypointStop}
		}

		slog.InfoContext(ctx, "waypoint added",
			"req_id", obs.RequestID(ctx),
			"stop", len(waypoints)+1,
			"kind", wp.Kind,
			"label", wp.Label,
			"remaining_km", route.DistanceKm(),
			"reachable_km", maxReachableKm,
			"search_km", searchKm,
		)

		waypoints = append(waypoints, *wp)
		current = wp.Coordinate
		soc = p.opts.StopChargeSoc
	}

	final := direct
	if len(waypoints) > 0 || final == nil {
		coords := make([]domain.Coordinate, 0, len(waypoints)+2)
		coords = append(coords, req.Start)
		for _, wp := range waypoints {
			coords = append(coords, wp.Coordinate)
		}
		coords = append(coords, req.End)

		final, err = p.routes.FetchRoute(ctx, coords)
		if err != nil {
			return nil, fmt.Errorf("plan trip: consolidated route through %d stops: %w", len(waypoints), err)
		}
	}
	if len(final.Legs) != len(waypoints)+1 {
		return nil, &domain.RoutingError{
			Op:  "consolidated route",
			Err: fmt.Errorf("expected %d legs, got %d", len(waypoints)+1, len(final.Legs)),
		}
	}

	stats := CalculateTripStats(TripStatsInput{
		Legs:                 final.Legs,
		AvgConsumption:       req.AvgConsumption,
		CurrentSoc:           req.CurrentSoc,
		TargetSoc:            req.TargetSoc,
		HomeRate:             req.HomeRate,
		PublicRate:           req.PublicRate,
		TotalDurationSeconds: final.DurationSeconds,
		TotalDistanceKm:      final.DistanceKm(),
	})

	return &domain.TripPlanResult{
		ID:        uuid.NewString(),
		Request:   req,
		Route:     final,
		Waypoints: waypoints,
		Stats:     stats,
		PlannedAt: p.now().UTC(),
	}, nil
}
