// Package geo provides great-circle distance helpers over route geometry.
package geo

import (
	"ev-trip-planner/internal/domain"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for every haversine computation.
const EarthRadiusKm = 6371.0

// DistanceKm returns the haversine distance between two coordinates.
func DistanceKm(a, b domain.Coordinate) float64 {
	if a == b {
		return 0
	}

	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PathLengthKm sums the haversine length of every segment of the geometry.
func PathLengthKm(geometry domain.RouteGeometry) float64 {
	total := 0.0
	for i := 0; i+1 < len(geometry); i++ {
		total += DistanceKm(domain.FromPoint(geometry[i]), domain.FromPoint(geometry[i+1]))
	}
	return total
}

// PointAtDistance walks the geometry and returns the first point at which the
// accumulated distance reaches targetKm. A non-positive target yields the first
// point and a target beyond the path length yields the last one.
// ok is false only for empty geometry.
func PointAtDistance(geometry domain.RouteGeometry, targetKm float64) (domain.Coordinate, bool) {
	if len(geometry) == 0 {
		return domain.Coordinate{}, false
	}
	if targetKm <= 0 {
		return domain.FromPoint(geometry[0]), true
	}

	accumulated := 0.0
	for i := 0; i+1 < len(geometry); i++ {
		accumulated += DistanceKm(domain.FromPoint(geometry[i]), domain.FromPoint(geometry[i+1]))
		if accumulated >= targetKm {
			return domain.FromPoint(geometry[i+1]), true
		}
	}

	return domain.FromPoint(geometry[len(geometry)-1]), true
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
