package handlers

import (
	"ev-trip-planner/internal/api/dto"
	"ev-trip-planner/internal/platform/obs"
	"ev-trip-planner/internal/ports"
	"log/slog"
	"net/http"
)

type LocationHandler struct {
	Searcher ports.LocationSearcher
}

// Search resolves ?q= into candidate coordinates for the trip form.
func (h *LocationHandler) Search(w http.ResponseWriter, r *http.Request) {
	locs, err := h.Searcher.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		slog.WarnContext(r.Context(), "location search failed", "req_id", obs.RequestID(r.Context()), "err", err)
		writeError(w, r, http.StatusBadGateway, "location search failed")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewListLocationsResponse(locs))
}
