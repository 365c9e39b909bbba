package services

import (
	"context"
	"errors"
	"ev-trip-planner/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcPlanner func(ctx context.Context, req domain.TripPlanRequest) (*domain.TripPlanResult, error)

func (f funcPlanner) PlanTrip(ctx context.Context, req domain.TripPlanRequest) (*domain.TripPlanResult, error) {
	return f(ctx, req)
}

func TestPlanSessionKeepsLastSuccessfulPlan(t *testing.T) {
	fail := false
	session := NewPlanSession(funcPlanner(func(ctx context.Context, req domain.TripPlanRequest) (*domain.TripPlanResult, error) {
		if fail {
			return nil, &domain.RoutingError{Op: "failed to fetch route", Err: errors.New("boom")}
		}
		return &domain.TripPlanResult{ID: "first"}, nil
	}))

	_, ok := session.Last()
	assert.False(t, ok)

	res, err := session.Plan(context.Background(), domain.TripPlanRequest{})
	require.NoError(t, err)
	assert.Equal(t, "first", res.ID)

	fail = true
	_, err = session.Plan(context.Background(), domain.TripPlanRequest{})
	var re *domain.RoutingError
	require.True(t, errors.As(err, &re))

	last, ok := session.Last()
	require.True(t, ok)
	assert.Equal(t, "first", last.ID)
}

func TestPlanSessionCancelsInFlightPlan(t *testing.T) {
	started := make(chan struct{})
	session := NewPlanSession(funcPlanner(func(ctx context.Context, req domain.TripPlanRequest) (*domain.TripPlanResult, error) {
		if req.CurrentSoc == 1 {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &domain.TripPlanResult{ID: "second"}, nil
	}))

	firstErr := make(chan error, 1)
	go func() {
		_, err := session.Plan(context.Background(), domain.TripPlanRequest{CurrentSoc: 1})
		firstErr <- err
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first plan never started")
	}

	res, err := session.Plan(context.Background(), domain.TripPlanRequest{CurrentSoc: 2})
	require.NoError(t, err)
	assert.Equal(t, "second", res.ID)

	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, domain.ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("first plan was not cancelled")
	}

	last, ok := session.Last()
	require.True(t, ok)
	assert.Equal(t, "second", last.ID)
}

func TestPlanSessionCallerCancellationIsNotSuperseded(t *testing.T) {
	session := NewPlanSession(funcPlanner(func(ctx context.Context, req domain.TripPlanRequest) (*domain.TripPlanResult, error) {
		return nil, ctx.Err()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := session.Plan(ctx, domain.TripPlanRequest{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrSuperseded)
}
