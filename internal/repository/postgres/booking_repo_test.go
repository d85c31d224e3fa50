package postgres

import (
	"context"
	"database/sql"
	"testing"

	"eventbooking/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingCols = []string{"id", "event_id", "user_id", "tickets_booked", "booking_date", "created_at", "updated_at"}

func TestBookingRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM bookings b WHERE b.id = \$1`).
		WithArgs("bk-1").
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow("bk-1", "ev-1", "user-1", 2, fixedNow, fixedNow, fixedNow))
	mock.ExpectQuery(`SELECT .* FROM bookings b WHERE b.id = \$1`).
		WithArgs("bk-2").
		WillReturnError(sql.ErrNoRows)

	repo := NewBookingRepository(db)
	b, err := repo.GetByID(context.Background(), "bk-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", b.UserID)
	assert.Equal(t, 2, b.TicketsBooked)

	_, err = repo.GetByID(context.Background(), "bk-2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_ListByUserID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := append(append([]string{}, bookingCols...), "e_id", "e_title", "e_date", "e_location", "e_avail", "e_price", "e_created", "e_updated")
	mock.ExpectQuery(`FROM bookings b\s+LEFT JOIN events e ON e.id = b.event_id\s+WHERE b.user_id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("bk-2", "ev-1", "user-1", 1, fixedNow, fixedNow, fixedNow, "ev-1", "Conf", fixedNow, "Berlin", 7, 10.0, fixedNow, fixedNow).
			AddRow("bk-1", "ev-gone", "user-1", 3, fixedNow, fixedNow, fixedNow, nil, nil, nil, nil, nil, nil, nil, nil))

	out, err := NewBookingRepository(db).ListByUserID(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.NotNil(t, out[0].Event)
	assert.Equal(t, "Conf", out[0].Event.Title)
	assert.Equal(t, 7, out[0].Event.TicketAvailability)
	assert.Nil(t, out[1].Event, "deleted event is reported as nil")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_ListAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := append(append([]string{}, bookingCols...), "u_id", "u_name", "u_email", "e_id", "e_title", "e_date", "e_location")
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`LEFT JOIN users u ON u.id = b.user_id`).
		WithArgs(20, 0).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("bk-1", "ev-1", "user-1", 2, fixedNow, fixedNow, fixedNow, "user-1", "Ada", "ada@example.com", "ev-1", "Conf", fixedNow, "Berlin"))

	out, total, err := NewBookingRepository(db).ListAll(context.Background(), domain.PaginationParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, out, 1)
	assert.Equal(t, "Ada", out[0].User.Name)
	assert.Equal(t, "Conf", out[0].Event.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}
