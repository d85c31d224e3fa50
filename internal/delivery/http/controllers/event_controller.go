package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/domain"
)

// CreateEventRequest is the request body for POST /api/events.
type CreateEventRequest struct {
	Title              string     `json:"title"`
	Date               *time.Time `json:"date"`
	Location           string     `json:"location"`
	TicketAvailability *int       `json:"ticket_availability"`
	TicketPrice        float64    `json:"ticket_price"`
}

// Validate implements Validator. Returns error messages for required and range rules.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if c.Date == nil || c.Date.IsZero() {
		errs = append(errs, "date is required")
	}
	if c.TicketAvailability == nil {
		errs = append(errs, "ticket_availability is required")
	} else if *c.TicketAvailability < 0 {
		errs = append(errs, "ticket_availability must not be negative")
	}
	if c.TicketPrice < 0 {
		errs = append(errs, "ticket_price must not be negative")
	}
	return errs
}

// UpdateEventRequest is the request body for PUT /api/events/{eventID}. Omitted fields are unchanged.
type UpdateEventRequest struct {
	Title              *string    `json:"title"`
	Date               *time.Time `json:"date"`
	Location           *string    `json:"location"`
	TicketPrice        *float64   `json:"ticket_price"`
	TicketAvailability *int       `json:"ticket_availability" swaggerignore:"true"`
}

// Validate implements Validator.
func (u UpdateEventRequest) Validate() []string {
	var errs []string
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		errs = append(errs, "title must not be empty")
	}
	if u.Date != nil && u.Date.IsZero() {
		errs = append(errs, "date must not be empty")
	}
	if u.TicketPrice != nil && *u.TicketPrice < 0 {
		errs = append(errs, "ticket_price must not be negative")
	}
	if u.TicketAvailability != nil {
		errs = append(errs, "ticket_availability cannot be edited here; use POST /api/admin/events/{eventID}/capacity")
	}
	return errs
}

func (u UpdateEventRequest) toDomain() domain.EventUpdate {
	return domain.EventUpdate{
		Title:       u.Title,
		Date:        u.Date,
		Location:    u.Location,
		TicketPrice: u.TicketPrice,
	}
}

// ListEventsResponse is the data payload for GET /api/events.
type ListEventsResponse struct {
	Events     []*domain.Event        `json:"events"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// ListEvents godoc
// @Summary List events
// @Description Public, paginated list of events ordered by date ascending.
// @Tags events
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse{data=ListEventsResponse}
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	page, err := c.Service.ListEvents(r.Context(), params)
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListEventsResponse{
		Events:     page.Events,
		Pagination: helpers.NewPaginationMeta(params, page.Total),
	})
}

// GetEvent godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse{data=domain.Event}
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := c.Service.GetEvent(r.Context(), r.PathValue("eventID"))
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// CreateEvent godoc
// @Summary Create an event
// @Description Admin only. title, date and ticket_availability are required; id and timestamps are server-generated.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} helpers.APIResponse{data=domain.Event}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event := domain.NewEvent(req.Title, req.Date.UTC(), req.Location, *req.TicketAvailability, req.TicketPrice, time.Time{}, time.Time{})
	if err := c.Service.CreateEvent(r.Context(), event); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Admin only. Partial update of title, date, location and ticket_price. Ticket availability is changed through the capacity endpoint.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param event body UpdateEventRequest true "Fields to update"
// @Success 200 {object} helpers.APIResponse{data=domain.Event}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventID} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), r.PathValue("eventID"), req.toDomain())
	if err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Admin only. Existing bookings of the event are kept.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse{data=MessageResponse}
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /api/events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.DeleteEvent(r.Context(), r.PathValue("eventID")); err != nil {
		helpers.WriteDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, MessageResponse{Message: "event deleted"})
}
