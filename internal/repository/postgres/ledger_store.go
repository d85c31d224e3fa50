package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventbooking/internal/domain"
)

// LedgerStore implements domain.InventoryStore with conditional updates inside a
// single transaction per operation.
type LedgerStore struct {
	DB  *sql.DB
	now func() time.Time
}

// NewLedgerStore returns a LedgerStore over db.
func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

var _ domain.InventoryStore = (*LedgerStore)(nil)

// ReserveTickets decrements availability only when enough tickets remain and
// inserts the booking in the same transaction.
func (s *LedgerStore) ReserveTickets(ctx context.Context, b *domain.Booking) error {
	return withTx(ctx, s.DB, func(tx *sql.Tx) error {
		var remaining int
		err := tx.QueryRowContext(ctx, `
			UPDATE events
			SET ticket_availability = ticket_availability - $2, updated_at = $3
			WHERE id = $1 AND ticket_availability >= $2
			RETURNING ticket_availability
		`, b.EventID, b.TicketsBooked, s.now()).Scan(&remaining)
		if errors.Is(err, sql.ErrNoRows) {
			return missingOrShort(ctx, tx, b.EventID)
		}
		if err != nil {
			return fmt.Errorf("decrement availability: %w", err)
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO bookings (event_id, user_id, tickets_booked, booking_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, b.EventID, b.UserID, b.TicketsBooked, b.BookingDate, b.CreatedAt, b.UpdatedAt).Scan(&b.ID)
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
}

// missingOrShort tells apart the two reasons the conditional update matched no row.
func missingOrShort(ctx context.Context, tx *sql.Tx, eventID string) error {
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists); err != nil {
		return fmt.Errorf("check event: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInsufficientCapacity
}

// ReleaseBooking deletes the booking and credits its tickets back in one
// transaction. A deleted event gets no credit.
func (s *LedgerStore) ReleaseBooking(ctx context.Context, bookingID string) (*domain.Booking, error) {
	var released *domain.Booking
	err := withTx(ctx, s.DB, func(tx *sql.Tx) error {
		b := &domain.Booking{}
		err := tx.QueryRowContext(ctx, `
			DELETE FROM bookings
			WHERE id = $1
			RETURNING id, event_id, user_id, tickets_booked, booking_date, created_at, updated_at
		`, bookingID).Scan(&b.ID, &b.EventID, &b.UserID, &b.TicketsBooked, &b.BookingDate, &b.CreatedAt, &b.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("delete booking: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE events
			SET ticket_availability = ticket_availability + $2, updated_at = $3
			WHERE id = $1
		`, b.EventID, b.TicketsBooked, s.now()); err != nil {
			return fmt.Errorf("credit availability: %w", err)
		}
		released = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// AdjustTickets adds delta to availability as long as the result stays non-negative.
func (s *LedgerStore) AdjustTickets(ctx context.Context, eventID string, delta int) (*domain.Event, error) {
	var event *domain.Event
	err := withTx(ctx, s.DB, func(tx *sql.Tx) error {
		e, err := scanEvent(tx.QueryRowContext(ctx, `
			UPDATE events
			SET ticket_availability = ticket_availability + $2, updated_at = $3
			WHERE id = $1 AND ticket_availability + $2 >= 0
			RETURNING `+eventColumns,
			eventID, delta, s.now()))
		if errors.Is(err, sql.ErrNoRows) {
			return missingOrShort(ctx, tx, eventID)
		}
		if err != nil {
			return fmt.Errorf("adjust availability: %w", err)
		}
		event = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}
