// Package memory is an in-process implementation of the storage ports. It is used for
// local development (STORAGE_DRIVER=memory) and as the reference store in tests.
//
// Locking: every event carries its own mutex, held across the check-and-write of
// its ticket availability and the matching booking insert/delete. The store-wide
// RWMutex only guards the maps. Lock order is always event mutex, then store mutex.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"eventbooking/internal/domain"

	"github.com/google/uuid"
)

type eventRecord struct {
	mu      sync.Mutex
	event   domain.Event
	deleted bool
}

func (r *eventRecord) snapshot() (domain.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.event, !r.deleted
}

// Store keeps events, bookings and users in memory.
type Store struct {
	mu           sync.RWMutex
	events       map[string]*eventRecord
	bookings     map[string]domain.Booking
	users        map[string]domain.User
	usersByEmail map[string]string
	now          func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		events:       make(map[string]*eventRecord),
		bookings:     make(map[string]domain.Booking),
		users:        make(map[string]domain.User),
		usersByEmail: make(map[string]string),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Events returns the event repository view of the store.
func (s *Store) Events() domain.EventRepository { return &eventRepository{s: s} }

// Bookings returns the booking repository view of the store.
func (s *Store) Bookings() domain.BookingRepository { return &bookingRepository{s: s} }

// Users returns the user repository view of the store.
func (s *Store) Users() domain.UserRepository { return &userRepository{s: s} }

func (s *Store) eventRecord(id string) *eventRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.events[id]
}

// ReserveTickets implements domain.InventoryStore.
func (s *Store) ReserveTickets(ctx context.Context, booking *domain.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec := s.eventRecord(booking.EventID)
	if rec == nil {
		return domain.ErrNotFound
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return domain.ErrNotFound
	}
	if rec.event.TicketAvailability < booking.TicketsBooked {
		return domain.ErrInsufficientCapacity
	}

	booking.ID = uuid.NewString()
	s.mu.Lock()
	s.bookings[booking.ID] = *booking
	s.mu.Unlock()

	rec.event.TicketAvailability -= booking.TicketsBooked
	rec.event.UpdatedAt = s.now()
	return nil
}

// ReleaseBooking implements domain.InventoryStore.
func (s *Store) ReleaseBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	existing, ok := s.bookings[bookingID]
	var rec *eventRecord
	if ok {
		rec = s.events[existing.EventID]
	}
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}

	if rec != nil {
		rec.mu.Lock()
		defer rec.mu.Unlock()
	}

	// Re-check under the event lock: a concurrent release may have won.
	s.mu.Lock()
	booking, ok := s.bookings[bookingID]
	if ok {
		delete(s.bookings, bookingID)
	}
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}

	if rec != nil && !rec.deleted {
		rec.event.TicketAvailability += booking.TicketsBooked
		rec.event.UpdatedAt = s.now()
	}
	return &booking, nil
}

// AdjustTickets implements domain.InventoryStore.
func (s *Store) AdjustTickets(ctx context.Context, eventID string, delta int) (*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := s.eventRecord(eventID)
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return nil, domain.ErrNotFound
	}
	if rec.event.TicketAvailability+delta < 0 {
		return nil, domain.ErrInsufficientCapacity
	}
	rec.event.TicketAvailability += delta
	rec.event.UpdatedAt = s.now()
	e := rec.event
	return &e, nil
}

type eventRepository struct {
	s *Store
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	e.ID = uuid.NewString()
	r.s.mu.Lock()
	r.s.events[e.ID] = &eventRecord{event: *e}
	r.s.mu.Unlock()
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	rec := r.s.eventRecord(id)
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	e, ok := rec.snapshot()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (r *eventRepository) List(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	r.s.mu.RLock()
	recs := make([]*eventRecord, 0, len(r.s.events))
	for _, rec := range r.s.events {
		recs = append(recs, rec)
	}
	r.s.mu.RUnlock()

	events := make([]*domain.Event, 0, len(recs))
	for _, rec := range recs {
		if e, ok := rec.snapshot(); ok {
			events = append(events, &e)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date.Equal(events[j].Date) {
			return events[i].ID < events[j].ID
		}
		return events[i].Date.Before(events[j].Date)
	})
	return paginate(events, params), len(events), nil
}

func (r *eventRepository) Update(ctx context.Context, id string, update domain.EventUpdate, updatedAt time.Time) (*domain.Event, error) {
	rec := r.s.eventRecord(id)
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return nil, domain.ErrNotFound
	}
	if update.Title != nil {
		rec.event.Title = *update.Title
	}
	if update.Date != nil {
		rec.event.Date = *update.Date
	}
	if update.Location != nil {
		rec.event.Location = *update.Location
	}
	if update.TicketPrice != nil {
		rec.event.TicketPrice = *update.TicketPrice
	}
	rec.event.UpdatedAt = updatedAt
	e := rec.event
	return &e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	rec := r.s.eventRecord(id)
	if rec == nil {
		return domain.ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.deleted {
		return domain.ErrNotFound
	}
	rec.deleted = true
	r.s.mu.Lock()
	delete(r.s.events, id)
	r.s.mu.Unlock()
	return nil
}

type bookingRepository struct {
	s *Store
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (r *bookingRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.BookingWithEvent, error) {
	type pair struct {
		booking domain.Booking
		rec     *eventRecord
	}
	r.s.mu.RLock()
	var pairs []pair
	for _, b := range r.s.bookings {
		if b.UserID == userID {
			pairs = append(pairs, pair{booking: b, rec: r.s.events[b.EventID]})
		}
	}
	r.s.mu.RUnlock()

	out := make([]*domain.BookingWithEvent, 0, len(pairs))
	for _, p := range pairs {
		b := p.booking
		item := &domain.BookingWithEvent{Booking: &b}
		if p.rec != nil {
			if e, ok := p.rec.snapshot(); ok {
				item.Event = &e
			}
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i].Booking, out[j].Booking) })
	return out, nil
}

func (r *bookingRepository) ListAll(ctx context.Context, params domain.PaginationParams) ([]*domain.BookingDetail, int, error) {
	type row struct {
		booking domain.Booking
		user    *domain.User
		rec     *eventRecord
	}
	r.s.mu.RLock()
	rows := make([]row, 0, len(r.s.bookings))
	for _, b := range r.s.bookings {
		rw := row{booking: b, rec: r.s.events[b.EventID]}
		if u, ok := r.s.users[b.UserID]; ok {
			rw.user = &u
		}
		rows = append(rows, rw)
	}
	r.s.mu.RUnlock()

	details := make([]*domain.BookingDetail, 0, len(rows))
	for _, rw := range rows {
		b := rw.booking
		d := &domain.BookingDetail{Booking: &b}
		if rw.user != nil {
			d.User = &domain.BookingUserSummary{ID: rw.user.ID, Name: rw.user.Name, Email: rw.user.Email}
		}
		if rw.rec != nil {
			if e, ok := rw.rec.snapshot(); ok {
				d.Event = &domain.BookingEventSummary{ID: e.ID, Title: e.Title, Date: e.Date, Location: e.Location}
			}
		}
		details = append(details, d)
	}
	sort.Slice(details, func(i, j int) bool { return newerFirst(details[i].Booking, details[j].Booking) })
	return paginate(details, params), len(details), nil
}

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, taken := r.s.usersByEmail[email]; taken {
		return domain.ErrDuplicateEmail
	}
	u.ID = uuid.NewString()
	u.Email = email
	r.s.users[u.ID] = *u
	r.s.usersByEmail[email] = u.ID
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	id, ok := r.s.usersByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u := r.s.users[id]
	return &u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func newerFirst(a, b *domain.Booking) bool {
	if a.BookingDate.Equal(b.BookingDate) {
		return a.ID > b.ID
	}
	return a.BookingDate.After(b.BookingDate)
}

func paginate[T any](items []T, params domain.PaginationParams) []T {
	limit := params.Limit()
	if limit == 0 {
		return items
	}
	offset := params.Offset()
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
