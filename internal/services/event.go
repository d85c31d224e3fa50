package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"eventbooking/internal/clock"
	"eventbooking/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	cache          domain.EventCache
	clock          clock.Clock
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewEventService returns the event catalogue service. cache may be nil.
func NewEventService(eventRepo domain.EventRepository, cache domain.EventCache, clk clock.Clock, logger *slog.Logger, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		cache:          cache,
		clock:          clk,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *eventService) ListEvents(ctx context.Context, params domain.PaginationParams) (*domain.EventPage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	stamp := domain.NoCacheStamp
	if s.cache != nil {
		var page *domain.EventPage
		var ok bool
		if page, stamp, ok = s.cache.GetEventList(ctx, params); ok {
			return page, nil
		}
	}
	events, total, err := s.eventRepo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	page := &domain.EventPage{Events: events, Total: total}
	if s.cache != nil {
		s.cache.SetEventList(ctx, stamp, params, page)
	}
	return page, nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	stamp := domain.NoCacheStamp
	if s.cache != nil {
		var event *domain.Event
		var ok bool
		if event, stamp, ok = s.cache.GetEvent(ctx, id); ok {
			return event, nil
		}
	}
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if s.cache != nil {
		s.cache.SetEvent(ctx, stamp, event)
	}
	return event, nil
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event.Title = strings.TrimSpace(event.Title)
	event.Location = strings.TrimSpace(event.Location)
	if event.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if event.Date.IsZero() {
		return fmt.Errorf("%w: date is required", domain.ErrInvalidInput)
	}
	if event.TicketAvailability < 0 {
		return fmt.Errorf("%w: ticket_availability must not be negative", domain.ErrInvalidInput)
	}
	if err := validatePrice(event.TicketPrice); err != nil {
		return err
	}

	now := s.clock.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	s.invalidate(ctx, event.ID)
	s.logger.InfoContext(ctx, "event created", "event_id", event.ID, "ticket_availability", event.TicketAvailability)
	return nil
}

func (s *eventService) UpdateEvent(ctx context.Context, id string, update domain.EventUpdate) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if update.Title != nil {
		title := strings.TrimSpace(*update.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", domain.ErrInvalidInput)
		}
		update.Title = &title
	}
	if update.Location != nil {
		location := strings.TrimSpace(*update.Location)
		update.Location = &location
	}
	if update.Date != nil && update.Date.IsZero() {
		return nil, fmt.Errorf("%w: date must not be empty", domain.ErrInvalidInput)
	}
	if update.TicketPrice != nil {
		if err := validatePrice(*update.TicketPrice); err != nil {
			return nil, err
		}
	}
	if update.IsEmpty() {
		return s.GetEvent(ctx, id)
	}

	updated, err := s.eventRepo.Update(ctx, id, update, s.clock.Now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	s.invalidate(ctx, id)
	return updated, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.eventRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.invalidate(ctx, id)
	s.logger.InfoContext(ctx, "event deleted", "event_id", id)
	return nil
}

func (s *eventService) invalidate(ctx context.Context, id string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

func validatePrice(price float64) error {
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("%w: ticket_price must be a non-negative number", domain.ErrInvalidInput)
	}
	return nil
}
