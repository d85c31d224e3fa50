package domain

import (
	"context"
	"time"
)

// Booking is a user's reservation of tickets for an event. It references the event
// without owning it: the booking outlives a deleted event.
// swagger:model Booking
type Booking struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	TicketsBooked int       `json:"tickets_booked"`
	BookingDate   time.Time `json:"booking_date"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewBooking returns a new Booking. ID is set by the InventoryStore when the reservation commits.
func NewBooking(eventID, userID string, ticketsBooked int, now time.Time) *Booking {
	return &Booking{
		EventID:       eventID,
		UserID:        userID,
		TicketsBooked: ticketsBooked,
		BookingDate:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// BookingWithEvent bundles a booking with its event. Event is nil when the event was deleted.
type BookingWithEvent struct {
	Booking *Booking `json:"booking"`
	Event   *Event   `json:"event"`
}

// BookingUserSummary is the subset of user fields shown to admins next to a booking.
type BookingUserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BookingEventSummary is the subset of event fields shown to admins next to a booking.
type BookingEventSummary struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
}

// BookingDetail is a booking populated with its user and event for the admin panel.
// User or Event is nil when the referenced record no longer exists.
type BookingDetail struct {
	Booking *Booking             `json:"booking"`
	User    *BookingUserSummary  `json:"user"`
	Event   *BookingEventSummary `json:"event"`
}

// BookingRepository defines read access to bookings. Bookings are only created and
// deleted through the InventoryStore.
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*Booking, error)
	ListByUserID(ctx context.Context, userID string) ([]*BookingWithEvent, error)
	ListAll(ctx context.Context, params PaginationParams) ([]*BookingDetail, int, error)
}

// BookingService defines the read side of bookings.
type BookingService interface {
	ListMyBookings(ctx context.Context, userID string) ([]*BookingWithEvent, error)
	ListAllBookings(ctx context.Context, params PaginationParams) ([]*BookingDetail, int, error)
}
