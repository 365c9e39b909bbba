package domain

// WaypointKind tags a discovered stop as a real charger or a synthetic placeholder.
type WaypointKind string

const (
	WaypointCharger WaypointKind = "charger"
	WaypointStop    WaypointKind = "stop"
)

const (
	DefaultChargerLabel = "Charging Station"
	FallbackStopLabel   = "Planned Stop (No Charger)"
)

// Represents an intermediate stop inserted into a trip.
// Waypoints are appended in discovery order and never reordered.
type Waypoint struct {
	Coordinate Coordinate
	Label      string
	Kind       WaypointKind
}

func (w Waypoint) IsCharger() bool { return w.Kind == WaypointCharger }
