package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/domain"
)

// CreateBookingRequest is the request body for POST /api/bookings.
type CreateBookingRequest struct {
	EventID       string `json:"event_id"`
	TicketsBooked int    `json:"tickets_booked"`
}

// Validate implements Validator.
func (c CreateBookingRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.EventID) == "" {
		errs = append(errs, "event_id is required")
	}
	if c.TicketsBooked <= 0 {
		errs = append(errs, "tickets_booked must be a positive integer")
	}
	return errs
}

// CancelBookingResponse is the data payload of a successful cancellation.
type CancelBookingResponse struct {
	Message string          `json:"message"`
	Booking *domain.Booking `json:"booking"`
}

type BookingController struct {
	Logger   *slog.Logger
	Ledger   domain.LedgerService
	Bookings domain.BookingService
}

func NewBookingController(logger *slog.Logger, ledger domain.LedgerService, bookings domain.BookingService) *BookingController {
	return &BookingController{
		Logger:   logger,
		Ledger:   ledger,
		Bookings: bookings,
	}
}

// CreateBooking godoc
// @Summary Book tickets
// @Description Reserve tickets_booked tickets of an event for the caller. Never overbooks.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param booking body CreateBookingRequest true "Booking data"
// @Success 201 {object} helpers.APIResponse{data=domain.Booking}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or insufficient_capacity"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: retryable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/bookings [post]
func (c *BookingController) CreateBooking(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req CreateBookingRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	booking, err := c.Ledger.Reserve(r.Context(), strings.TrimSpace(req.EventID), p.UserID, req.TicketsBooked)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, booking)
}

// ListMyBookings godoc
// @Summary List my bookings
// @Description The caller's bookings, newest first. event is null when the event was deleted.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse{data=[]domain.BookingWithEvent}
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/bookings [get]
func (c *BookingController) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	bookings, err := c.Bookings.ListMyBookings(r.Context(), p.UserID)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, bookings)
}

// CancelBooking godoc
// @Summary Cancel my booking
// @Description Cancel one of the caller's bookings and return its tickets to the event.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking ID"
// @Success 200 {object} helpers.APIResponse{data=CancelBookingResponse}
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: retryable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/bookings/{bookingID} [delete]
func (c *BookingController) CancelBooking(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	booking, err := c.Ledger.Release(r.Context(), r.PathValue("bookingID"), p.UserID, false)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CancelBookingResponse{Message: "booking cancelled", Booking: booking})
}
