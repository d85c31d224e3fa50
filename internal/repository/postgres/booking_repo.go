package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventbooking/internal/domain"
)

const bookingColumns = `b.id, b.event_id, b.user_id, b.tickets_booked, b.booking_date, b.created_at, b.updated_at`

type bookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(db *sql.DB) domain.BookingRepository {
	return &bookingRepository{DB: db}
}

func scanBooking(row rowScanner, extra ...any) (*domain.Booking, error) {
	b := &domain.Booking{}
	dest := append([]any{&b.ID, &b.EventID, &b.UserID, &b.TicketsBooked, &b.BookingDate, &b.CreatedAt, &b.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`
	b, err := scanBooking(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, translateErr(err)
	}
	return b, nil
}

// ListByUserID returns the user's bookings newest first. Event is nil for deleted events.
func (r *bookingRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.BookingWithEvent, error) {
	query := `
		SELECT ` + bookingColumns + `,
			e.id, e.title, e.date, e.location, e.ticket_availability, e.ticket_price, e.created_at, e.updated_at
		FROM bookings b
		LEFT JOIN events e ON e.id = b.event_id
		WHERE b.user_id = $1
		ORDER BY b.booking_date DESC, b.id DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	out := make([]*domain.BookingWithEvent, 0)
	for rows.Next() {
		var (
			eID, eTitle, eLocation sql.NullString
			eDate, eCreated, eUpd  sql.NullTime
			eAvail                 sql.NullInt64
			ePrice                 sql.NullFloat64
		)
		b, err := scanBooking(rows, &eID, &eTitle, &eDate, &eLocation, &eAvail, &ePrice, &eCreated, &eUpd)
		if err != nil {
			return nil, err
		}
		item := &domain.BookingWithEvent{Booking: b}
		if eID.Valid {
			item.Event = &domain.Event{
				ID:                 eID.String,
				Title:              eTitle.String,
				Date:               eDate.Time,
				Location:           eLocation.String,
				TicketAvailability: int(eAvail.Int64),
				TicketPrice:        ePrice.Float64,
				CreatedAt:          eCreated.Time,
				UpdatedAt:          eUpd.Time,
			}
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ListAll returns every booking newest first with user and event summaries.
func (r *bookingRepository) ListAll(ctx context.Context, params domain.PaginationParams) ([]*domain.BookingDetail, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	query := `
		SELECT ` + bookingColumns + `,
			u.id, u.name, u.email,
			e.id, e.title, e.date, e.location
		FROM bookings b
		LEFT JOIN users u ON u.id = b.user_id
		LEFT JOIN events e ON e.id = b.event_id
		ORDER BY b.booking_date DESC, b.id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, query, limitArg(params), params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.BookingDetail, 0)
	for rows.Next() {
		var (
			uID, uName, uEmail     sql.NullString
			eID, eTitle, eLocation sql.NullString
			eDate                  sql.NullTime
		)
		b, err := scanBooking(rows, &uID, &uName, &uEmail, &eID, &eTitle, &eDate, &eLocation)
		if err != nil {
			return nil, 0, err
		}
		d := &domain.BookingDetail{Booking: b}
		if uID.Valid {
			d.User = &domain.BookingUserSummary{ID: uID.String, Name: uName.String, Email: uEmail.String}
		}
		if eID.Valid {
			d.Event = &domain.BookingEventSummary{ID: eID.String, Title: eTitle.String, Date: eDate.Time, Location: eLocation.String}
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}
