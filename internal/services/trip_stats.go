package services

import (
	"ev-trip-planner/internal/domain"
	"ev-trip-planner/internal/energy"
	"fmt"
	"math"
)

const (
	iceEmissionsKgPerKm   = 0.171
	gridEmissionsKgPerKwh = 0.4
)

// Inputs of CalculateTripStats. Legs come from the consolidated route and are
// expected to number one more than the discovered waypoints.
type TripStatsInput struct {
	Legs                 []domain.RouteLeg
	AvgConsumption       float64
	CurrentSoc           float64
	TargetSoc            float64
	HomeRate             float64
	PublicRate           float64
	TotalDurationSeconds float64
	TotalDistanceKm      float64
}

// Replay the energy balance leg by leg and derive cost, duration and arrival charge.
//
// Before every leg but the first, the battery must hold that leg's energy plus
// a buffer: the target state-of-charge when the leg ends at the destination,
// the hard reserve otherwise. Missing energy is charged publicly, capped at
// full capacity. Whatever the trip consumed beyond public charging is billed
// at the home rate.
func CalculateTripStats(in TripStatsInput) domain.TripStats {
	targetSoc := energy.ClampSoc(in.TargetSoc)
	currentEnergy := energy.AvailableEnergyKwh(energy.ClampSoc(in.CurrentSoc), energy.BatteryCapacityKwh)

	publicEnergy := 0.0
	chargingSeconds := 0.0

	for i, leg := range in.Legs {
		currentEnergy -= energy.EnergyForKm(leg.DistanceMeters/1000, in.AvgConsumption)

		if i == len(in.Legs)-1 {
			break
		}

		next := in.Legs[i+1]
		bufferPercent := energy.HardReservePercent
		if i+1 == len(in.Legs)-1 {
			bufferPercent = targetSoc
		}
		required := energy.EnergyForKm(next.DistanceMeters/1000, in.AvgConsumption) +
			energy.AvailableEnergyKwh(bufferPercent, energy.BatteryCapacityKwh)

		if currentEnergy < required {
			charge := math.Min(required-currentEnergy, energy.BatteryCapacityKwh-currentEnergy)
			if charge > 0 {
				publicEnergy += charge
				chargingSeconds += charge / energy.PublicChargingPowerKw * 3600
				currentEnergy += charge
			}
		}
	}

	consumption := energy.EnergyForKm(in.TotalDistanceKm, in.AvgConsumption)
	homeEnergy := math.Max(0, consumption-publicEnergy)

	return domain.TripStats{
		TotalDistanceKm:     in.TotalDistanceKm,
		Duration:            formatDuration(in.TotalDurationSeconds + chargingSeconds),
		DrivingSeconds:      in.TotalDurationSeconds,
		ChargingSeconds:     chargingSeconds,
		TotalConsumptionKwh: consumption,
		PublicEnergyKwh:     publicEnergy,
		HomeEnergyKwh:       homeEnergy,
		TotalCost:           publicEnergy*in.PublicRate + homeEnergy*in.HomeRate,
		ArrivalSoc:          math.Max(0, currentEnergy) / energy.BatteryCapacityKwh * 100,
		ChargingTimeMinutes: int(math.Ceil(chargingSeconds / 60)),
		CarbonSavedKg:       math.Max(0, in.TotalDistanceKm*iceEmissionsKgPerKm-consumption*gridEmissionsKgPerKwh),
	}
}

// formatDuration renders seconds as "Xh Ym", truncating partial minutes.
func formatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	hours := int(seconds / 3600)
	minutes := int(math.Mod(seconds, 3600) / 60)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
