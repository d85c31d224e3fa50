package domain

import "context"

// InventoryStore holds the atomic primitives behind the ledger. Each method is a single
// atomic unit: no other call on the same event observes an intermediate state.
// Transient contention is reported as ErrRetryable and leaves no partial effect.
type InventoryStore interface {
	// ReserveTickets decrements the event's availability by booking.TicketsBooked only if
	// enough tickets remain, and persists the booking together with the decrement.
	// On success booking.ID is set. Returns ErrNotFound or ErrInsufficientCapacity.
	ReserveTickets(ctx context.Context, booking *Booking) error
	// ReleaseBooking deletes the booking and credits its tickets back to the event.
	// A missing event is skipped silently. Returns ErrNotFound when the booking is gone.
	ReleaseBooking(ctx context.Context, bookingID string) (*Booking, error)
	// AdjustTickets adds delta to the event's availability if the result stays non-negative.
	// Returns ErrNotFound or ErrInsufficientCapacity.
	AdjustTickets(ctx context.Context, eventID string, delta int) (*Event, error)
}

// LedgerService reserves and releases tickets while keeping every event's inventory conserved.
type LedgerService interface {
	Reserve(ctx context.Context, eventID, userID string, ticketCount int) (*Booking, error)
	// Release cancels a booking. isAdmin bypasses the ownership check only.
	Release(ctx context.Context, bookingID, actingUserID string, isAdmin bool) (*Booking, error)
	AdjustCapacity(ctx context.Context, eventID string, delta int) (*Event, error)
}
