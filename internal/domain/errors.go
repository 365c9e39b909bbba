package domain

import (
	"errors"
	"fmt"
)

// ErrSuperseded is returned when a newer planning request replaced an in-flight one.
var ErrSuperseded = errors.New("plan superseded by a newer request")

// ValidationError rejects a malformed request before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Reason
	}
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// RoutingError means the routing provider was unreachable or returned no usable route.
// It is fatal to the current planning attempt.
type RoutingError struct {
	Op  string
	Err error
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("routing: %s: %v", e.Op, e.Err)
}

func (e *RoutingError) Unwrap() error { return e.Err }

// DiscoveryError is raised once charger discovery has exhausted its retry budget.
type DiscoveryError struct {
	Attempts int
	Err      error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("charger discovery failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }
