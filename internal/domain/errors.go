package domain

import "errors"

// Sentinel errors shared by repositories, services and controllers.
// Controllers match them with errors.Is and translate each one to a single HTTP status.
var (
	// ErrInvalidInput is returned for malformed or out-of-range input (e.g. a non-positive ticket count).
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when an event, booking or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller may not act on the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrInsufficientCapacity is returned when an event cannot cover the requested tickets.
	ErrInsufficientCapacity = errors.New("not enough tickets available")
	// ErrRetryable signals transient storage contention; the operation had no effect and may be retried.
	ErrRetryable = errors.New("transient storage contention")
)
