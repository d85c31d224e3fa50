package controllers

import (
	"log/slog"
	"net/http"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/domain"
)

// AdjustCapacityRequest is the request body for POST /api/admin/events/{eventID}/capacity.
type AdjustCapacityRequest struct {
	Delta int `json:"delta"`
}

// Validate implements Validator.
func (a AdjustCapacityRequest) Validate() []string {
	if a.Delta == 0 {
		return []string{"delta must be a non-zero integer"}
	}
	return nil
}

// ListAllBookingsResponse is the data payload for GET /api/admin/bookings.
type ListAllBookingsResponse struct {
	Bookings   []*domain.BookingDetail `json:"bookings"`
	Pagination helpers.PaginationMeta  `json:"pagination"`
}

// AdminController serves the admin panel. Every route is behind RequireAdmin.
type AdminController struct {
	Logger   *slog.Logger
	Ledger   domain.LedgerService
	Bookings domain.BookingService
}

func NewAdminController(logger *slog.Logger, ledger domain.LedgerService, bookings domain.BookingService) *AdminController {
	return &AdminController{
		Logger:   logger,
		Ledger:   ledger,
		Bookings: bookings,
	}
}

// ListAllBookings godoc
// @Summary List all bookings
// @Description Admin only. Every booking with its user's name and email and its event's title, date and location, newest first.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse{data=ListAllBookingsResponse}
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/admin/bookings [get]
func (c *AdminController) ListAllBookings(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	bookings, total, err := c.Bookings.ListAllBookings(r.Context(), params)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListAllBookingsResponse{
		Bookings:   bookings,
		Pagination: helpers.NewPaginationMeta(params, total),
	})
}

// CancelBooking godoc
// @Summary Cancel any booking
// @Description Admin only. Cancels a booking regardless of owner and returns its tickets to the event.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking ID"
// @Success 200 {object} helpers.APIResponse{data=CancelBookingResponse}
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: retryable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/admin/bookings/{bookingID} [delete]
func (c *AdminController) CancelBooking(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	booking, err := c.Ledger.Release(r.Context(), r.PathValue("bookingID"), p.UserID, true)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CancelBookingResponse{Message: "booking cancelled by admin", Booking: booking})
}

// AdjustCapacity godoc
// @Summary Adjust ticket availability
// @Description Admin only. Adds delta (may be negative) to the event's ticket availability; the result never goes below zero.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body AdjustCapacityRequest true "Capacity change"
// @Success 200 {object} helpers.APIResponse{data=domain.Event}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or insufficient_capacity"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: retryable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/admin/events/{eventID}/capacity [post]
func (c *AdminController) AdjustCapacity(w http.ResponseWriter, r *http.Request) {
	var req AdjustCapacityRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Ledger.AdjustCapacity(r.Context(), r.PathValue("eventID"), req.Delta)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}
