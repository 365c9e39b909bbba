package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Immutable geographic coordinate in decimal degrees.
// Simulation state is latitude-first; providers expect longitude-first,
// so conversion happens only at adapter boundaries via Point/FromPoint.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Return the coordinate as an orb point ([lon, lat]).
func (c Coordinate) Point() orb.Point { return orb.Point{c.Lon, c.Lat} }

// Build a coordinate from a [lon, lat] point.
func FromPoint(p orb.Point) Coordinate { return Coordinate{Lat: p.Lat(), Lon: p.Lon()} }

// Validate reports whether both components are finite and within WGS84 bounds.
func (c Coordinate) Validate(field string) error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) {
		return &ValidationError{Field: field, Reason: "coordinate must be finite"}
	}
	if c.Lat < -90 || c.Lat > 90 {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("latitude %v out of range", c.Lat)}
	}
	if c.Lon < -180 || c.Lon > 180 {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("longitude %v out of range", c.Lon)}
	}
	return nil
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}
