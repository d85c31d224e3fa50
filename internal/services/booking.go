package services

import (
	"context"
	"fmt"
	"time"

	"eventbooking/internal/domain"
)

type bookingService struct {
	bookingRepo    domain.BookingRepository
	contextTimeout time.Duration
}

// NewBookingService returns the read side of bookings. Reservations and cancellations
// go through the LedgerService.
func NewBookingService(bookingRepo domain.BookingRepository, timeout time.Duration) domain.BookingService {
	return &bookingService{bookingRepo: bookingRepo, contextTimeout: timeout}
}

func (s *bookingService) ListMyBookings(ctx context.Context, userID string) ([]*domain.BookingWithEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	bookings, err := s.bookingRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	if bookings == nil {
		bookings = []*domain.BookingWithEvent{}
	}
	return bookings, nil
}

func (s *bookingService) ListAllBookings(ctx context.Context, params domain.PaginationParams) ([]*domain.BookingDetail, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	bookings, total, err := s.bookingRepo.ListAll(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list all bookings: %w", err)
	}
	if bookings == nil {
		bookings = []*domain.BookingDetail{}
	}
	return bookings, total, nil
}
