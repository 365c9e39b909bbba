package domain

import "github.com/paulmach/orb"

// Ordered (longitude, latitude) points describing a driven path.
// Geometry is read-only once returned by a routing provider.
type RouteGeometry = orb.LineString

// Represents one segment of a multi-waypoint route.
type RouteLeg struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Represents a driving route through an ordered list of coordinates.
// Legs are aligned 1:1 with consecutive coordinate pairs of the request.
type Route struct {
	Geometry        RouteGeometry
	DistanceMeters  float64
	DurationSeconds float64
	Legs            []RouteLeg
}

// DistanceKm returns the total driven distance in kilometres.
func (r *Route) DistanceKm() float64 { return r.DistanceMeters / 1000 }
