package domain

import (
	"context"
	"time"
)

// Booking message types published after a ledger change commits.
const (
	BookingMessageCreated   = "booking.created"
	BookingMessageCancelled = "booking.cancelled"
)

// BookingMessage describes a committed reservation or cancellation for downstream
// consumers (emails, analytics) so they never need to query the primary store.
type BookingMessage struct {
	Type          string    `json:"type"`
	BookingID     string    `json:"booking_id"`
	EventID       string    `json:"event_id"`
	EventTitle    string    `json:"event_title"`
	EventDate     time.Time `json:"event_date"`
	UserID        string    `json:"user_id"`
	UserEmail     string    `json:"user_email"`
	UserName      string    `json:"user_name"`
	TicketsBooked int       `json:"tickets_booked"`
	CancelledBy   string    `json:"cancelled_by,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// BookingEventPublisher publishes booking messages. Publishing is best-effort.
type BookingEventPublisher interface {
	Publish(ctx context.Context, msg *BookingMessage) error
}
