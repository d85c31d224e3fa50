package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventbooking/internal/clock"
	"eventbooking/internal/domain"
)

const (
	defaultLedgerMaxAttempts = 3
	defaultLedgerBackoff     = 20 * time.Millisecond
)

type ledgerService struct {
	store       domain.InventoryStore
	bookings    domain.BookingRepository
	events      domain.EventRepository
	users       domain.UserRepository
	cache       domain.EventCache
	publisher   domain.BookingEventPublisher
	clock       clock.Clock
	logger      *slog.Logger
	maxAttempts int
	backoff     time.Duration
}

// LedgerOption configures optional ledger collaborators.
type LedgerOption func(*ledgerService)

// WithMaxAttempts bounds how many times a contended atomic unit is attempted.
func WithMaxAttempts(n int) LedgerOption {
	return func(s *ledgerService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithRetryBackoff sets the base delay between attempts; attempt k waits k*d.
func WithRetryBackoff(d time.Duration) LedgerOption {
	return func(s *ledgerService) {
		if d >= 0 {
			s.backoff = d
		}
	}
}

// WithEventCache makes the ledger invalidate cached events after every committed change.
func WithEventCache(cache domain.EventCache) LedgerOption {
	return func(s *ledgerService) {
		s.cache = cache
	}
}

// WithPublisher publishes booking messages after commits. The event and user
// repositories are used to enrich the message.
func WithPublisher(publisher domain.BookingEventPublisher, events domain.EventRepository, users domain.UserRepository) LedgerOption {
	return func(s *ledgerService) {
		s.publisher = publisher
		s.events = events
		s.users = users
	}
}

// NewLedgerService creates the LedgerService on top of an InventoryStore.
func NewLedgerService(store domain.InventoryStore, bookings domain.BookingRepository, clk clock.Clock, logger *slog.Logger, opts ...LedgerOption) domain.LedgerService {
	s := &ledgerService{
		store:       store,
		bookings:    bookings,
		clock:       clk,
		logger:      logger,
		maxAttempts: defaultLedgerMaxAttempts,
		backoff:     defaultLedgerBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ledgerService) Reserve(ctx context.Context, eventID, userID string, ticketCount int) (*domain.Booking, error) {
	if ticketCount <= 0 {
		return nil, fmt.Errorf("%w: tickets_booked must be a positive integer", domain.ErrInvalidInput)
	}
	if eventID == "" || userID == "" {
		return nil, fmt.Errorf("%w: event and user are required", domain.ErrInvalidInput)
	}

	var booking *domain.Booking
	err := s.withRetry(ctx, "reserve tickets", func() error {
		b := domain.NewBooking(eventID, userID, ticketCount, s.clock.Now())
		if err := s.store.ReserveTickets(ctx, b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tickets reserved",
		"booking_id", booking.ID, "event_id", eventID, "user_id", userID, "tickets", ticketCount)
	s.afterCommit(ctx, domain.BookingMessageCreated, booking, "")
	return booking, nil
}

func (s *ledgerService) Release(ctx context.Context, bookingID, actingUserID string, isAdmin bool) (*domain.Booking, error) {
	if bookingID == "" {
		return nil, domain.ErrNotFound
	}
	existing, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if !isAdmin && existing.UserID != actingUserID {
		return nil, domain.ErrForbidden
	}

	var released *domain.Booking
	err = s.withRetry(ctx, "release booking", func() error {
		b, err := s.store.ReleaseBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		released = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "booking released",
		"booking_id", released.ID, "event_id", released.EventID, "tickets", released.TicketsBooked,
		"acting_user_id", actingUserID, "admin", isAdmin)
	s.afterCommit(ctx, domain.BookingMessageCancelled, released, actingUserID)
	return released, nil
}

func (s *ledgerService) AdjustCapacity(ctx context.Context, eventID string, delta int) (*domain.Event, error) {
	if delta == 0 {
		return nil, fmt.Errorf("%w: delta must be non-zero", domain.ErrInvalidInput)
	}
	var event *domain.Event
	err := s.withRetry(ctx, "adjust tickets", func() error {
		e, err := s.store.AdjustTickets(ctx, eventID, delta)
		if err != nil {
			return err
		}
		event = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "capacity adjusted", "event_id", eventID, "delta", delta, "ticket_availability", event.TicketAvailability)
	if s.cache != nil {
		s.cache.Invalidate(ctx, eventID)
	}
	return event, nil
}

// withRetry runs fn until it succeeds, fails with a non-retryable error, or the
// attempt budget is spent. Each fn call is a complete atomic unit.
func (s *ledgerService) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrRetryable) {
			return err
		}
		if attempt == s.maxAttempts {
			break
		}
		s.logger.WarnContext(ctx, "ledger contention, retrying", "op", op, "attempt", attempt, "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.backoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// afterCommit runs the best-effort side effects of a committed ledger change.
func (s *ledgerService) afterCommit(ctx context.Context, msgType string, booking *domain.Booking, cancelledBy string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, booking.EventID)
	}
	if s.publisher == nil {
		return
	}
	msg := &domain.BookingMessage{
		Type:          msgType,
		BookingID:     booking.ID,
		EventID:       booking.EventID,
		UserID:        booking.UserID,
		TicketsBooked: booking.TicketsBooked,
		CancelledBy:   cancelledBy,
		OccurredAt:    s.clock.Now(),
	}
	if s.events != nil {
		if event, err := s.events.GetByID(ctx, booking.EventID); err == nil {
			msg.EventTitle = event.Title
			msg.EventDate = event.Date
		} else if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "load event for booking message", "event_id", booking.EventID, "err", err)
		}
	}
	if s.users != nil {
		if user, err := s.users.GetByID(ctx, booking.UserID); err == nil {
			msg.UserEmail = user.Email
			msg.UserName = user.Name
		} else {
			s.logger.WarnContext(ctx, "load user for booking message", "user_id", booking.UserID, "err", err)
		}
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "publish booking message", "type", msgType, "booking_id", booking.ID, "err", err)
	}
}
