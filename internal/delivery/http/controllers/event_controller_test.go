package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	listResult   *domain.EventPage
	listErr      error
	getResult    *domain.Event
	getErr       error
	createErr    error
	updateResult *domain.Event
	updateErr    error
	deleteErr    error

	lastListParams  domain.PaginationParams
	lastGetID       string
	lastCreateEvent *domain.Event
	lastUpdateID    string
	lastUpdate      domain.EventUpdate
	lastDeleteID    string
}

func (f *fakeEventService) ListEvents(ctx context.Context, params domain.PaginationParams) (*domain.EventPage, error) {
	f.lastListParams = params
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.listResult == nil {
		return &domain.EventPage{Events: []*domain.Event{}}, nil
	}
	return f.listResult, nil
}

func (f *fakeEventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	f.lastGetID = id
	return f.getResult, f.getErr
}

func (f *fakeEventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	f.lastCreateEvent = event
	if f.createErr != nil {
		return f.createErr
	}
	event.ID = "ev-1"
	return nil
}

func (f *fakeEventService) UpdateEvent(ctx context.Context, id string, update domain.EventUpdate) (*domain.Event, error) {
	f.lastUpdateID = id
	f.lastUpdate = update
	return f.updateResult, f.updateErr
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, id string) error {
	f.lastDeleteID = id
	return f.deleteErr
}

// serve routes one request through a mux so path values are populated.
func serve(pattern string, handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(method, target, body string) *http.Request {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func asUser(req *http.Request, p *domain.Principal) *http.Request {
	return req.WithContext(middleware.SetPrincipal(req.Context(), p))
}

// decodeEnvelope decodes the response envelope, unmarshalling data into dataDest when non-nil.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dataDest any) *helpers.APIError {
	t.Helper()
	var raw struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&raw))
	if dataDest != nil {
		require.NoError(t, json.Unmarshal(raw.Data, dataDest))
	}
	return raw.Error
}

func TestEventController_ListEvents(t *testing.T) {
	date := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	svc := &fakeEventService{listResult: &domain.EventPage{
		Events: []*domain.Event{{ID: "ev-1", Title: "Go Meetup", Date: date, TicketAvailability: 10}},
		Total:  21,
	}}
	ctrl := NewEventController(testLogger, svc)

	rr := serve("GET /api/events", ctrl.ListEvents, httptest.NewRequest(http.MethodGet, "/api/events?page=2&page_size=10", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var data ListEventsResponse
	assert.Nil(t, decodeEnvelope(t, rr, &data))
	require.Len(t, data.Events, 1)
	assert.Equal(t, "Go Meetup", data.Events[0].Title)
	assert.Equal(t, helpers.PaginationMeta{Page: 2, PageSize: 10, Total: 21, TotalPages: 3}, data.Pagination)
	assert.Equal(t, domain.PaginationParams{Page: 2, PageSize: 10}, svc.lastListParams)
}

func TestEventController_GetEvent(t *testing.T) {
	tests := []struct {
		name       string
		svc        *fakeEventService
		wantStatus int
		wantCode   string
	}{
		{"found", &fakeEventService{getResult: &domain.Event{ID: "ev-1", Title: "Go Meetup"}}, http.StatusOK, ""},
		{"not found", &fakeEventService{getErr: domain.ErrNotFound}, http.StatusNotFound, helpers.ErrCodeNotFound},
		{"storage failure", &fakeEventService{getErr: errors.New("db down")}, http.StatusInternalServerError, helpers.ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewEventController(testLogger, tt.svc)
			rr := serve("GET /api/events/{eventID}", ctrl.GetEvent, httptest.NewRequest(http.MethodGet, "/api/events/ev-1", nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			apiErr := decodeEnvelope(t, rr, nil)
			if tt.wantCode != "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
			}
			assert.Equal(t, "ev-1", tt.svc.lastGetID)
		})
	}
}

func TestEventController_CreateEvent(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "created",
			body:       `{"title":"Go Meetup","date":"2026-05-01T18:00:00Z","location":"Berlin","ticket_availability":50,"ticket_price":12.5}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing required fields",
			body:       `{"location":"Berlin"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
			wantMsg:    "title is required; date is required; ticket_availability is required",
		},
		{
			name:       "negative availability",
			body:       `{"title":"Go Meetup","date":"2026-05-01T18:00:00Z","ticket_availability":-1}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
			wantMsg:    "ticket_availability must not be negative",
		},
		{
			name:       "bad date format",
			body:       `{"title":"Go Meetup","date":"tomorrow","ticket_availability":1}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "service rejects input",
			body:       `{"title":"Go Meetup","date":"2026-05-01T18:00:00Z","ticket_availability":1}`,
			svcErr:     domain.ErrInvalidInput,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeEventService{createErr: tt.svcErr}
			ctrl := NewEventController(testLogger, svc)

			rr := serve("POST /api/events", ctrl.CreateEvent, jsonRequest(http.MethodPost, "/api/events", tt.body))

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode == "" {
				var event domain.Event
				assert.Nil(t, decodeEnvelope(t, rr, &event))
				assert.Equal(t, "ev-1", event.ID)
				assert.Equal(t, 50, event.TicketAvailability)
				assert.Equal(t, 12.5, event.TicketPrice)
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

func TestEventController_UpdateEvent(t *testing.T) {
	t.Run("partial update", func(t *testing.T) {
		svc := &fakeEventService{updateResult: &domain.Event{ID: "ev-1", Title: "GopherCon"}}
		ctrl := NewEventController(testLogger, svc)

		rr := serve("PUT /api/events/{eventID}", ctrl.UpdateEvent,
			jsonRequest(http.MethodPut, "/api/events/ev-1", `{"title":"GopherCon","ticket_price":30}`))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ev-1", svc.lastUpdateID)
		require.NotNil(t, svc.lastUpdate.Title)
		assert.Equal(t, "GopherCon", *svc.lastUpdate.Title)
		require.NotNil(t, svc.lastUpdate.TicketPrice)
		assert.Equal(t, 30.0, *svc.lastUpdate.TicketPrice)
		assert.Nil(t, svc.lastUpdate.Location)
	})

	t.Run("availability is not editable", func(t *testing.T) {
		svc := &fakeEventService{}
		ctrl := NewEventController(testLogger, svc)

		rr := serve("PUT /api/events/{eventID}", ctrl.UpdateEvent,
			jsonRequest(http.MethodPut, "/api/events/ev-1", `{"ticket_availability":1000}`))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		apiErr := decodeEnvelope(t, rr, nil)
		assert.Contains(t, apiErr.Message, "capacity")
		assert.Empty(t, svc.lastUpdateID)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &fakeEventService{updateErr: domain.ErrNotFound}
		ctrl := NewEventController(testLogger, svc)

		rr := serve("PUT /api/events/{eventID}", ctrl.UpdateEvent,
			jsonRequest(http.MethodPut, "/api/events/missing", `{"location":"Paris"}`))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestEventController_DeleteEvent(t *testing.T) {
	svc := &fakeEventService{}
	ctrl := NewEventController(testLogger, svc)

	rr := serve("DELETE /api/events/{eventID}", ctrl.DeleteEvent, httptest.NewRequest(http.MethodDelete, "/api/events/ev-1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ev-1", svc.lastDeleteID)

	svc.deleteErr = domain.ErrNotFound
	rr = serve("DELETE /api/events/{eventID}", ctrl.DeleteEvent, httptest.NewRequest(http.MethodDelete, "/api/events/ev-1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
