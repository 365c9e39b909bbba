package services

import (
	"context"
	"errors"
	"ev-trip-planner/internal/domain"
	"sync"
)

// Planner is the planning operation a PlanSession serializes.
type Planner interface {
	PlanTrip(ctx context.Context, req domain.TripPlanRequest) (*domain.TripPlanResult, error)
}

// PlanSession allows one plan in flight at a time with cancel-and-replace
// semantics and remembers the last successful plan.
// A failed or superseded attempt never clears the remembered plan.
type PlanSession struct {
	planner Planner

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelCauseFunc
	last   *domain.TripPlanResult
}

func NewPlanSession(planner Planner) *PlanSession {
	return &PlanSession{planner: planner}
}

// Plan cancels any in-flight plan and runs req. A request cancelled by a newer
// one returns domain.ErrSuperseded.
func (s *PlanSession) Plan(ctx context.Context, req domain.TripPlanRequest) (*domain.TripPlanResult, error) {
	ctx, cancel := context.WithCancelCause(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel(domain.ErrSuperseded)
	}
	s.seq++
	id := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.seq == id {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel(nil)
	}()

	res, err := s.planner.PlanTrip(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seq != id || errors.Is(context.Cause(ctx), domain.ErrSuperseded) {
		return nil, domain.ErrSuperseded
	}
	if err != nil {
		return nil, err
	}

	s.last = res
	return res, nil
}

// Last returns the most recent successful plan.
func (s *PlanSession) Last() (*domain.TripPlanResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.last != nil
}
