package domain

import (
	"context"
	"time"
)

// Event is a ticketed event. TicketAvailability is the number of tickets still for sale;
// it only changes through the InventoryStore.
// swagger:model Event
type Event struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Date               time.Time `json:"date"`
	Location           string    `json:"location"`
	TicketAvailability int       `json:"ticket_availability"`
	TicketPrice        float64   `json:"ticket_price"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields. ID is typically set by the repository on create.
func NewEvent(title string, date time.Time, location string, ticketAvailability int, ticketPrice float64, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Title:              title,
		Date:               date,
		Location:           location,
		TicketAvailability: ticketAvailability,
		TicketPrice:        ticketPrice,
		CreatedAt:          createdAt,
		UpdatedAt:          updatedAt,
	}
}

// EventUpdate holds the admin-editable fields of an event. Nil fields are left unchanged.
// Ticket availability is deliberately absent: it is adjusted through the ledger.
type EventUpdate struct {
	Title       *string
	Date        *time.Time
	Location    *string
	TicketPrice *float64
}

// IsEmpty reports whether no field is set.
func (u EventUpdate) IsEmpty() bool {
	return u.Title == nil && u.Date == nil && u.Location == nil && u.TicketPrice == nil
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// List returns events ordered by date ascending, plus the total count.
	List(ctx context.Context, params PaginationParams) ([]*Event, int, error)
	Update(ctx context.Context, id string, update EventUpdate, updatedAt time.Time) (*Event, error)
	Delete(ctx context.Context, id string) error
}

// CacheStamp is the cache generation observed on a miss. A Set made with a stamp
// that an Invalidate has since moved past is never served.
type CacheStamp int64

// NoCacheStamp tells Set to skip the write, e.g. when the cache was unreachable.
const NoCacheStamp CacheStamp = -1

// EventCache caches event reads. Implementations must tolerate being unavailable:
// a miss or a failed write is never an error for the caller.
type EventCache interface {
	GetEvent(ctx context.Context, id string) (*Event, CacheStamp, bool)
	// SetEvent stores event for readers of generation stamp, which must come from
	// the GetEvent miss that preceded loading it.
	SetEvent(ctx context.Context, stamp CacheStamp, event *Event)
	GetEventList(ctx context.Context, params PaginationParams) (*EventPage, CacheStamp, bool)
	SetEventList(ctx context.Context, stamp CacheStamp, params PaginationParams, page *EventPage)
	// Invalidate drops the cached event and every cached list page.
	Invalidate(ctx context.Context, eventID string)
}

// EventPage is one page of the public event listing.
type EventPage struct {
	Events []*Event `json:"events"`
	Total  int      `json:"total"`
}

// EventService defines the business logic for the event catalogue.
type EventService interface {
	ListEvents(ctx context.Context, params PaginationParams) (*EventPage, error)
	GetEvent(ctx context.Context, id string) (*Event, error)
	CreateEvent(ctx context.Context, event *Event) error
	UpdateEvent(ctx context.Context, id string, update EventUpdate) (*Event, error)
	DeleteEvent(ctx context.Context, id string) error
}
