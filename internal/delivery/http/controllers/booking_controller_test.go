package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedgerService implements domain.LedgerService for handler tests.
type fakeLedgerService struct {
	reserveErr error
	releaseErr error
	adjustErr  error

	lastEventID, lastUserID string
	lastTickets             int
	lastBookingID           string
	lastActingUserID        string
	lastIsAdmin             bool
	lastDelta               int
}

func (f *fakeLedgerService) Reserve(ctx context.Context, eventID, userID string, ticketCount int) (*domain.Booking, error) {
	f.lastEventID, f.lastUserID, f.lastTickets = eventID, userID, ticketCount
	if f.reserveErr != nil {
		return nil, f.reserveErr
	}
	return &domain.Booking{ID: "bk-1", EventID: eventID, UserID: userID, TicketsBooked: ticketCount}, nil
}

func (f *fakeLedgerService) Release(ctx context.Context, bookingID, actingUserID string, isAdmin bool) (*domain.Booking, error) {
	f.lastBookingID, f.lastActingUserID, f.lastIsAdmin = bookingID, actingUserID, isAdmin
	if f.releaseErr != nil {
		return nil, f.releaseErr
	}
	return &domain.Booking{ID: bookingID, EventID: "ev-1", UserID: "u-1", TicketsBooked: 2}, nil
}

func (f *fakeLedgerService) AdjustCapacity(ctx context.Context, eventID string, delta int) (*domain.Event, error) {
	f.lastEventID, f.lastDelta = eventID, delta
	if f.adjustErr != nil {
		return nil, f.adjustErr
	}
	return &domain.Event{ID: eventID, TicketAvailability: 10 + delta}, nil
}

// fakeBookingService implements domain.BookingService for handler tests.
type fakeBookingService struct {
	mine       []*domain.BookingWithEvent
	all        []*domain.BookingDetail
	total      int
	err        error
	lastUserID string
	lastParams domain.PaginationParams
}

func (f *fakeBookingService) ListMyBookings(ctx context.Context, userID string) ([]*domain.BookingWithEvent, error) {
	f.lastUserID = userID
	return f.mine, f.err
}

func (f *fakeBookingService) ListAllBookings(ctx context.Context, params domain.PaginationParams) ([]*domain.BookingDetail, int, error) {
	f.lastParams = params
	return f.all, f.total, f.err
}

var (
	alice = &domain.Principal{UserID: "u-1", Email: "alice@example.com"}
	root  = &domain.Principal{UserID: "admin-1", Email: "admin@example.com", IsAdmin: true}
)

func TestBookingController_CreateBooking(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		ledgerErr  error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"created", `{"event_id":"ev-1","tickets_booked":2}`, nil, http.StatusCreated, "", ""},
		{"zero tickets", `{"event_id":"ev-1","tickets_booked":0}`, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest, "tickets_booked must be a positive integer"},
		{"fractional tickets", `{"event_id":"ev-1","tickets_booked":1.5}`, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest, ""},
		{"missing event", `{"tickets_booked":1}`, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest, "event_id is required"},
		{"unknown event", `{"event_id":"nope","tickets_booked":1}`, domain.ErrNotFound, http.StatusNotFound, helpers.ErrCodeNotFound, ""},
		{"sold out", `{"event_id":"ev-1","tickets_booked":5}`, domain.ErrInsufficientCapacity, http.StatusBadRequest, helpers.ErrCodeInsufficientCapacity, "not enough tickets available"},
		{"contention", `{"event_id":"ev-1","tickets_booked":1}`, fmt.Errorf("reserve tickets: %w", domain.ErrRetryable), http.StatusServiceUnavailable, helpers.ErrCodeRetryable, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &fakeLedgerService{reserveErr: tt.ledgerErr}
			ctrl := NewBookingController(testLogger, ledger, &fakeBookingService{})

			req := asUser(jsonRequest(http.MethodPost, "/api/bookings", tt.body), alice)
			rr := serve("POST /api/bookings", ctrl.CreateBooking, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode == "" {
				var booking domain.Booking
				assert.Nil(t, decodeEnvelope(t, rr, &booking))
				assert.Equal(t, "bk-1", booking.ID)
				assert.Equal(t, "u-1", ledger.lastUserID, "booking is made for the caller")
				assert.Equal(t, 2, ledger.lastTickets)
				return
			}
			apiErr := decodeEnvelope(t, rr, nil)
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, apiErr.Message)
			}
		})
	}
}

func TestBookingController_ListMyBookings(t *testing.T) {
	svc := &fakeBookingService{mine: []*domain.BookingWithEvent{
		{Booking: &domain.Booking{ID: "bk-1", EventID: "ev-gone"}},
	}}
	ctrl := NewBookingController(testLogger, &fakeLedgerService{}, svc)

	rr := serve("GET /api/bookings", ctrl.ListMyBookings, asUser(httptest.NewRequest(http.MethodGet, "/api/bookings", nil), alice))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u-1", svc.lastUserID)
	var data []*domain.BookingWithEvent
	assert.Nil(t, decodeEnvelope(t, rr, &data))
	require.Len(t, data, 1)
	assert.Nil(t, data[0].Event)
	assert.Contains(t, rr.Body.String(), `"event":null`)
}

func TestBookingController_CancelBooking(t *testing.T) {
	tests := []struct {
		name       string
		ledgerErr  error
		wantStatus int
	}{
		{"cancelled", nil, http.StatusOK},
		{"not owner", domain.ErrForbidden, http.StatusForbidden},
		{"already cancelled", domain.ErrNotFound, http.StatusNotFound},
		{"contention", domain.ErrRetryable, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &fakeLedgerService{releaseErr: tt.ledgerErr}
			ctrl := NewBookingController(testLogger, ledger, &fakeBookingService{})

			req := asUser(httptest.NewRequest(http.MethodDelete, "/api/bookings/bk-1", nil), alice)
			rr := serve("DELETE /api/bookings/{bookingID}", ctrl.CancelBooking, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "bk-1", ledger.lastBookingID)
			assert.Equal(t, "u-1", ledger.lastActingUserID)
			assert.False(t, ledger.lastIsAdmin, "the user route never bypasses ownership")
		})
	}
}

func TestAdminController_ListAllBookings(t *testing.T) {
	svc := &fakeBookingService{
		all: []*domain.BookingDetail{{
			Booking: &domain.Booking{ID: "bk-1"},
			User:    &domain.BookingUserSummary{ID: "u-1", Name: "Alice", Email: "alice@example.com"},
		}},
		total: 1,
	}
	ctrl := NewAdminController(testLogger, &fakeLedgerService{}, svc)

	rr := serve("GET /api/admin/bookings", ctrl.ListAllBookings, asUser(httptest.NewRequest(http.MethodGet, "/api/admin/bookings?page_size=5", nil), root))

	require.Equal(t, http.StatusOK, rr.Code)
	var data ListAllBookingsResponse
	assert.Nil(t, decodeEnvelope(t, rr, &data))
	require.Len(t, data.Bookings, 1)
	assert.Equal(t, "Alice", data.Bookings[0].User.Name)
	assert.Equal(t, helpers.PaginationMeta{Page: 1, PageSize: 5, Total: 1, TotalPages: 1}, data.Pagination)
}

func TestAdminController_CancelBooking(t *testing.T) {
	ledger := &fakeLedgerService{}
	ctrl := NewAdminController(testLogger, ledger, &fakeBookingService{})

	rr := serve("DELETE /api/admin/bookings/{bookingID}", ctrl.CancelBooking,
		asUser(httptest.NewRequest(http.MethodDelete, "/api/admin/bookings/bk-9", nil), root))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "bk-9", ledger.lastBookingID)
	assert.True(t, ledger.lastIsAdmin)
	var data CancelBookingResponse
	assert.Nil(t, decodeEnvelope(t, rr, &data))
	assert.Equal(t, "bk-9", data.Booking.ID)
}

func TestAdminController_AdjustCapacity(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		ledgerErr  error
		wantStatus int
		wantCode   string
	}{
		{"grow", `{"delta":5}`, nil, http.StatusOK, ""},
		{"zero delta", `{"delta":0}`, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"below zero", `{"delta":-50}`, domain.ErrInsufficientCapacity, http.StatusBadRequest, helpers.ErrCodeInsufficientCapacity},
		{"unknown event", `{"delta":1}`, domain.ErrNotFound, http.StatusNotFound, helpers.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &fakeLedgerService{adjustErr: tt.ledgerErr}
			ctrl := NewAdminController(testLogger, ledger, &fakeBookingService{})

			req := asUser(jsonRequest(http.MethodPost, "/api/admin/events/ev-1/capacity", tt.body), root)
			rr := serve("POST /api/admin/events/{eventID}/capacity", ctrl.AdjustCapacity, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode == "" {
				var event domain.Event
				assert.Nil(t, decodeEnvelope(t, rr, &event))
				assert.Equal(t, 15, event.TicketAvailability)
				assert.Equal(t, "ev-1", ledger.lastEventID)
				return
			}
			apiErr := decodeEnvelope(t, rr, nil)
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}
