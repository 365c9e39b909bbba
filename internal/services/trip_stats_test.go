package services

import (
	"ev-trip-planner/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
)

func legsKm(km ...float64) []domain.RouteLeg {
	legs := make([]domain.RouteLeg, 0, len(km))
	for _, k := range km {
		legs = append(legs, domain.RouteLeg{DistanceMeters: k * 1000, DurationSeconds: k / 100 * 3600})
	}
	return legs
}

func TestCalculateTripStatsNoChargingNeeded(t *testing.T) {
	in := TripStatsInput{
		Legs:                 legsKm(50, 60),
		AvgConsumption:       19.5,
		CurrentSoc:           80,
		TargetSoc:            10,
		HomeRate:             0.16,
		PublicRate:           0.45,
		TotalDurationSeconds: 3960,
		TotalDistanceKm:      110,
	}

	stats := CalculateTripStats(in)

	assert.Equal(t, 0.0, stats.PublicEnergyKwh)
	assert.Equal(t, 0, stats.ChargingTimeMinutes)
	assert.InDelta(t, 21.45, stats.TotalConsumptionKwh, 1e-9)
	assert.Equal(t, stats.TotalConsumptionKwh*0.16, stats.TotalCost)
	assert.Equal(t, stats.TotalConsumptionKwh, stats.HomeEnergyKwh)
	assert.Equal(t, "1h 6m", stats.Duration)
	assert.InDelta(t, (62.4-21.45)/78*100, stats.ArrivalSoc, 1e-9)
	assert.InDelta(t, 110*0.171-21.45*0.4, stats.CarbonSavedKg, 1e-9)
}

func TestCalculateTripStatsChargesBeforeFinalLeg(t *testing.T) {
	in := TripStatsInput{
		Legs:                 legsKm(200, 200),
		AvgConsumption:       19.5,
		CurrentSoc:           80,
		TargetSoc:            10,
		HomeRate:             0.16,
		PublicRate:           0.45,
		TotalDurationSeconds: 14400,
		TotalDistanceKm:      400,
	}

	stats := CalculateTripStats(in)

	// 62.4 kWh start, 39 kWh per leg, 46.8 kWh needed before the final leg.
	assert.InDelta(t, 23.4, stats.PublicEnergyKwh, 1e-9)
	assert.InDelta(t, 842.4, stats.ChargingSeconds, 1e-6)
	assert.Equal(t, 15, stats.ChargingTimeMinutes)
	assert.InDelta(t, 78, stats.TotalConsumptionKwh, 1e-9)
	assert.InDelta(t, 54.6, stats.HomeEnergyKwh, 1e-9)
	assert.InDelta(t, 23.4*0.45+54.6*0.16, stats.TotalCost, 1e-9)
	assert.InDelta(t, 10, stats.ArrivalSoc, 1e-9)
	assert.Equal(t, "4h 14m", stats.Duration)
}

func TestCalculateTripStatsIntermediateLegUsesHardReserve(t *testing.T) {
	in := TripStatsInput{
		Legs:            legsKm(200, 200, 100),
		AvgConsumption:  19.5,
		CurrentSoc:      80,
		TargetSoc:       30,
		TotalDistanceKm: 500,
	}

	stats := CalculateTripStats(in)

	// Before leg 2: need 39 + 7.8 (hard reserve) from 23.4 -> 23.4 charged.
	// Before leg 3: need 19.5 + 23.4 (target) from 7.8 -> 35.1 charged.
	assert.InDelta(t, 23.4+35.1, stats.PublicEnergyKwh, 1e-9)
	assert.InDelta(t, 30, stats.ArrivalSoc, 1e-9)
}

func TestCalculateTripStatsCapsChargeAtCapacity(t *testing.T) {
	in := TripStatsInput{
		Legs:            legsKm(500, 500),
		AvgConsumption:  19.5,
		CurrentSoc:      80,
		TargetSoc:       10,
		HomeRate:        0.16,
		PublicRate:      0.45,
		TotalDistanceKm: 1000,
	}

	stats := CalculateTripStats(in)

	assert.InDelta(t, 113.1, stats.PublicEnergyKwh, 1e-9)
	assert.Equal(t, 0.0, stats.ArrivalSoc)
	assert.GreaterOrEqual(t, stats.HomeEnergyKwh, 0.0)
}

func TestCalculateTripStatsZeroTargetSoc(t *testing.T) {
	for _, target := range []float64{0, -5} {
		in := TripStatsInput{
			Legs:            legsKm(100, 100),
			AvgConsumption:  19.5,
			CurrentSoc:      30,
			TargetSoc:       target,
			HomeRate:        0.16,
			PublicRate:      0.45,
			TotalDistanceKm: 200,
		}

		stats := CalculateTripStats(in)

		assert.InDelta(t, 15.6, stats.PublicEnergyKwh, 1e-9, "target %v", target)
		assert.GreaterOrEqual(t, stats.ArrivalSoc, 0.0)
		assert.InDelta(t, 0, stats.ArrivalSoc, 1e-9)
		assert.GreaterOrEqual(t, stats.TotalCost, 0.0)
		assert.GreaterOrEqual(t, stats.HomeEnergyKwh, 0.0)
	}
}

func TestCalculateTripStatsIsDeterministic(t *testing.T) {
	in := TripStatsInput{
		Legs:                 legsKm(123.4, 210.9, 87.3),
		AvgConsumption:       17.3,
		CurrentSoc:           64,
		TargetSoc:            15,
		HomeRate:             0.21,
		PublicRate:           0.52,
		TotalDurationSeconds: 15000,
		TotalDistanceKm:      421.6,
	}

	assert.Equal(t, CalculateTripStats(in), CalculateTripStats(in))
}

func TestCalculateTripStatsSingleLeg(t *testing.T) {
	stats := CalculateTripStats(TripStatsInput{
		Legs:            legsKm(5),
		AvgConsumption:  19.5,
		CurrentSoc:      80,
		TargetSoc:       10,
		HomeRate:        0.16,
		TotalDistanceKm: 5,
	})

	assert.Equal(t, 0.0, stats.PublicEnergyKwh)
	assert.InDelta(t, (62.4-0.975)/78*100, stats.ArrivalSoc, 1e-9)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0h 0m", formatDuration(0))
	assert.Equal(t, "0h 59m", formatDuration(3599))
	assert.Equal(t, "1h 0m", formatDuration(3600))
	assert.Equal(t, "26h 3m", formatDuration(26*3600+3*60+59))
	assert.Equal(t, "0h 0m", formatDuration(-10))
}
