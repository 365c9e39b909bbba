package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	DefaultCurrentSoc     = 80.0
	DefaultTargetSoc      = 10.0
	DefaultAvgConsumption = 19.5
	DefaultHomeRate       = 0.16
	DefaultPublicRate     = 0.45
	DefaultCurrency       = "USD"
)

var supportedCurrencies = map[string]struct{}{
	"USD": {}, "EUR": {}, "GBP": {}, "SEK": {}, "NOK": {},
}

// Input of one planning run.
// Consumption is kWh per 100 km; rates are price per kWh in Currency.
type TripPlanRequest struct {
	Start          Coordinate
	End            Coordinate
	CurrentSoc     float64
	TargetSoc      float64
	AvgConsumption float64
	HomeRate       float64
	PublicRate     float64
	Currency       string
}

// Normalize validates the request and clamps state-of-charge values to [0,100].
// It returns a copy; the receiver is left untouched.
func (r TripPlanRequest) Normalize() (TripPlanRequest, error) {
	if err := r.Start.Validate("start"); err != nil {
		return TripPlanRequest{}, err
	}
	if err := r.End.Validate("end"); err != nil {
		return TripPlanRequest{}, err
	}

	fields := []struct {
		name string
		v    float64
	}{
		{"current_soc", r.CurrentSoc},
		{"target_soc", r.TargetSoc},
		{"avg_consumption", r.AvgConsumption},
		{"home_rate", r.HomeRate},
		{"public_rate", r.PublicRate},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return TripPlanRequest{}, &ValidationError{Field: f.name, Reason: "must be a finite number"}
		}
		if f.v < 0 {
			return TripPlanRequest{}, &ValidationError{Field: f.name, Reason: fmt.Sprintf("must be non-negative, got %v", f.v)}
		}
	}

	out := r
	out.CurrentSoc = clampPercent(r.CurrentSoc)
	out.TargetSoc = clampPercent(r.TargetSoc)

	if out.Currency == "" {
		out.Currency = DefaultCurrency
	}
	if _, ok := supportedCurrencies[out.Currency]; !ok {
		return TripPlanRequest{}, &ValidationError{Field: "currency", Reason: fmt.Sprintf("unsupported currency %q", out.Currency)}
	}

	return out, nil
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

// Derived statistics for a planned trip.
// Recomputed in full on every planning run.
type TripStats struct {
	TotalDistanceKm     float64
	Duration            string
	DrivingSeconds      float64
	ChargingSeconds     float64
	TotalConsumptionKwh float64
	PublicEnergyKwh     float64
	HomeEnergyKwh       float64
	TotalCost           float64
	ArrivalSoc          float64
	ChargingTimeMinutes int
	CarbonSavedKg       float64
}

// Output of one successful planning run.
type TripPlanResult struct {
	ID        string
	Request   TripPlanRequest
	Route     *Route
	Waypoints []Waypoint
	Stats     TripStats
	PlannedAt time.Time
}
