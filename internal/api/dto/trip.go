package dto

import (
	"ev-trip-planner/internal/domain"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type Coordinate struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// Omitted numeric fields fall back to the planner form defaults.
type TripPlanRequest struct {
	Start          *Coordinate `json:"start"`
	End            *Coordinate `json:"end"`
	CurrentSoc     *float64    `json:"current_soc"`
	TargetSoc      *float64    `json:"target_soc"`
	AvgConsumption *float64    `json:"avg_consumption"`
	HomeRate       *float64    `json:"home_rate"`
	PublicRate     *float64    `json:"public_rate"`
	Currency       string      `json:"currency"`
}

func (r TripPlanRequest) ToDomain() (domain.TripPlanRequest, error) {
	start, err := r.Start.toDomain("start")
	if err != nil {
		return domain.TripPlanRequest{}, err
	}
	end, err := r.End.toDomain("end")
	if err != nil {
		return domain.TripPlanRequest{}, err
	}

	return domain.TripPlanRequest{
		Start:          start,
		End:            end,
		CurrentSoc:     orDefault(r.CurrentSoc, domain.DefaultCurrentSoc),
		TargetSoc:      orDefault(r.TargetSoc, domain.DefaultTargetSoc),
		AvgConsumption: orDefault(r.AvgConsumption, domain.DefaultAvgConsumption),
		HomeRate:       orDefault(r.HomeRate, domain.DefaultHomeRate),
		PublicRate:     orDefault(r.PublicRate, domain.DefaultPublicRate),
		Currency:       r.Currency,
	}, nil
}

func (c *Coordinate) toDomain(field string) (domain.Coordinate, error) {
	if c == nil || c.Lat == nil || c.Lon == nil {
		return domain.Coordinate{}, &domain.ValidationError{Field: field, Reason: "lat and lon are required"}
	}
	return domain.Coordinate{Lat: *c.Lat, Lon: *c.Lon}, nil
}

func orDefault(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

type CoordinateResponse struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type WaypointResponse struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label"`
	Kind  string  `json:"kind"`
}

type TripStatsResponse struct {
	DistanceKm          float64 `json:"distance_km"`
	Duration            string  `json:"duration"`
	DrivingSeconds      float64 `json:"driving_seconds"`
	ChargingSeconds     float64 `json:"charging_seconds"`
	ConsumptionKwh      float64 `json:"consumption_kwh"`
	PublicEnergyKwh     float64 `json:"public_energy_kwh"`
	HomeEnergyKwh       float64 `json:"home_energy_kwh"`
	Cost                float64 `json:"cost"`
	Currency            string  `json:"currency"`
	ArrivalSoc          float64 `json:"arrival_soc"`
	ChargingTimeMinutes int     `json:"charging_time_minutes"`
	CarbonSavedKg       float64 `json:"carbon_saved_kg"`
}

type TripPlanResponse struct {
	ID            string                     `json:"id"`
	PlannedAt     time.Time                  `json:"planned_at"`
	Start         CoordinateResponse         `json:"start"`
	End           CoordinateResponse         `json:"end"`
	Waypoints     []WaypointResponse         `json:"waypoints"`
	Stats         TripStatsResponse          `json:"stats"`
	RouteGeometry orb.LineString             `json:"route_geometry"`
	Map           *geojson.FeatureCollection `json:"map"`
}

func NewTripPlanResponse(res *domain.TripPlanResult) TripPlanResponse {
	out := TripPlanResponse{
		ID:        res.ID,
		PlannedAt: res.PlannedAt,
		Start:     CoordinateResponse{Lat: res.Request.Start.Lat, Lon: res.Request.Start.Lon},
		End:       CoordinateResponse{Lat: res.Request.End.Lat, Lon: res.Request.End.Lon},
		Waypoints: make([]WaypointResponse, 0, len(res.Waypoints)),
		Stats: TripStatsResponse{
			DistanceKm:          res.Stats.TotalDistanceKm,
			Duration:            res.Stats.Duration,
			DrivingSeconds:      res.Stats.DrivingSeconds,
			ChargingSeconds:     res.Stats.ChargingSeconds,
			ConsumptionKwh:      res.Stats.TotalConsumptionKwh,
			PublicEnergyKwh:     res.Stats.PublicEnergyKwh,
			HomeEnergyKwh:       res.Stats.HomeEnergyKwh,
			Cost:                res.Stats.TotalCost,
			Currency:            res.Request.Currency,
			ArrivalSoc:          res.Stats.ArrivalSoc,
			ChargingTimeMinutes: res.Stats.ChargingTimeMinutes,
			CarbonSavedKg:       res.Stats.CarbonSavedKg,
		},
		RouteGeometry: orb.LineString{},
	}
	for _, wp := range res.Waypoints {
		out.Waypoints = append(out.Waypoints, WaypointResponse{
			Lat:   wp.Coordinate.Lat,
			Lon:   wp.Coordinate.Lon,
			Label: wp.Label,
			Kind:  string(wp.Kind),
		})
	}
	if res.Route != nil && res.Route.Geometry != nil {
		out.RouteGeometry = res.Route.Geometry
	}
	out.Map = mapFeatures(res, out.RouteGeometry)

	return out
}

// mapFeatures renders the plan as GeoJSON: the route line, then start,
// every waypoint in order, then end.
func mapFeatures(res *domain.TripPlanResult, line orb.LineString) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	route := geojson.NewFeature(line)
	route.Properties["kind"] = "route"
	route.Properties["distance_km"] = res.Stats.TotalDistanceKm
	fc.Append(route)

	start := geojson.NewFeature(res.Request.Start.Point())
	start.Properties["kind"] = "start"
	fc.Append(start)

	for i, wp := range res.Waypoints {
		f := geojson.NewFeature(wp.Coordinate.Point())
		f.Properties["kind"] = string(wp.Kind)
		f.Properties["label"] = wp.Label
		f.Properties["order"] = i + 1
		fc.Append(f)
	}

	end := geojson.NewFeature(res.Request.End.Point())
	end.Properties["kind"] = "end"
	fc.Append(end)

	return fc
}
