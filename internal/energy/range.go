// Package energy converts state-of-charge and consumption into range.
//
// All state-of-charge values are percentages of BatteryCapacityKwh.
package energy

import "math"

const (
	BatteryCapacityKwh        = 78.0
	HardReservePercent        = 10.0
	SearchTriggerPercent      = 12.5
	StopChargeSoc             = 80.0
	MaxIntermediateStops      = 5
	PublicChargingPowerKw     = 100.0
	ChargerSearchRadiusMeters = 5000
)

// AvailableEnergyKwh converts a state-of-charge percentage into kWh.
func AvailableEnergyKwh(socPercent, capacityKwh float64) float64 {
	return socPercent / 100 * capacityKwh
}

// RangeKm returns how far the given energy lasts at consumption kWh/100 km.
// Non-positive consumption yields 0.
func RangeKm(availableEnergyKwh, consumptionPer100km float64) float64 {
	if consumptionPer100km <= 0 {
		return 0
	}
	return math.Max(0, availableEnergyKwh/consumptionPer100km*100)
}

// EnergyForKm returns the kWh needed to drive distanceKm.
func EnergyForKm(distanceKm, consumptionPer100km float64) float64 {
	return distanceKm * consumptionPer100km / 100
}

// ReserveRangeKm is the distance drivable from socPercent while keeping
// reservePercent of the battery untouched.
func ReserveRangeKm(socPercent, reservePercent, consumptionPer100km float64) float64 {
	usable := AvailableEnergyKwh(socPercent, BatteryCapacityKwh) - AvailableEnergyKwh(reservePercent, BatteryCapacityKwh)
	return RangeKm(usable, consumptionPer100km)
}

// ClampSoc bounds a state-of-charge percentage to [0,100].
func ClampSoc(soc float64) float64 {
	return math.Max(0, math.Min(100, soc))
}
