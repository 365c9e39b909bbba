package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"ev-trip-planner/internal/api/dto"
	"ev-trip-planner/internal/domain"
	"ev-trip-planner/internal/platform/obs"
	"io"
	"log/slog"
	"net/http"
)

// TripSession is the planning surface the trip handlers depend on.
type TripSession interface {
	Plan(ctx context.Context, req domain.TripPlanRequest) (*domain.TripPlanResult, error)
	Last() (*domain.TripPlanResult, bool)
}

type TripHandler struct {
	Session TripSession
}

// Plan decodes a trip request, runs the planner and renders the result.
func (h *TripHandler) Plan(w http.ResponseWriter, r *http.Request) {
	var req dto.TripPlanRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	planReq, err := req.ToDomain()
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Session.Plan(r.Context(), planReq)
	if err != nil {
		h.writePlanError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewTripPlanResponse(res))
}

// Last returns the most recent successful plan.
func (h *TripHandler) Last(w http.ResponseWriter, r *http.Request) {
	res, ok := h.Session.Last()
	if !ok {
		writeError(w, r, http.StatusNotFound, "no trip has been planned yet")
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewTripPlanResponse(res))
}

func (h *TripHandler) writePlanError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *domain.ValidationError
		re *domain.RoutingError
		de *domain.DiscoveryError
	)

	switch {
	case errors.As(err, &ve):
		writeError(w, r, http.StatusBadRequest, ve.Error())
	case errors.Is(err, domain.ErrSuperseded):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.As(err, &re), errors.As(err, &de):
		slog.WarnContext(r.Context(), "plan trip failed", "req_id", obs.RequestID(r.Context()), "err", err)
		writeErrorDetail(w, r, http.StatusBadGateway, "could not calculate trip", err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		slog.InfoContext(r.Context(), "plan trip aborted", "req_id", obs.RequestID(r.Context()), "err", err)
		writeError(w, r, http.StatusServiceUnavailable, "request cancelled")
	default:
		slog.ErrorContext(r.Context(), "plan trip failed", "req_id", obs.RequestID(r.Context()), "err", err)
		writeError(w, r, http.StatusInternalServerError, "unable to calculate trip")
	}
}
