package api

import (
	"ev-trip-planner/internal/api/handlers"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(trips *handlers.TripHandler, locations *handlers.LocationHandler) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	router.HandleFunc("/trips/plan", trips.Plan).Methods(http.MethodPost)
	router.HandleFunc("/trips/last", trips.Last).Methods(http.MethodGet)
	if locations != nil {
		router.HandleFunc("/locations", locations.Search).Methods(http.MethodGet)
	}

	// CORS sits outside the router so preflight requests never reach method matching.
	return requestIDMiddleware(loggingMiddleware(corsMiddleware(router)))
}
