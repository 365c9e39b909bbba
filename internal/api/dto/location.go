package dto

import "ev-trip-planner/internal/ports"

type LocationResponse struct {
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

type ListLocationsResponse struct {
	Locations []LocationResponse `json:"locations"`
}

func NewListLocationsResponse(locs []ports.Location) ListLocationsResponse {
	res := ListLocationsResponse{Locations: make([]LocationResponse, 0, len(locs))}
	for _, l := range locs {
		res.Locations = append(res.Locations, LocationResponse{
			DisplayName: l.DisplayName,
			Lat:         l.Coordinate.Lat,
			Lon:         l.Coordinate.Lon,
		})
	}
	return res
}
