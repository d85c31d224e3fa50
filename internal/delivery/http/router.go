package http

import (
	"log/slog"
	"net/http"

	"eventbooking/internal/delivery/http/controllers"
	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"

	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterDeps holds what NewRouter wires into routes.
type RouterDeps struct {
	Logger      *slog.Logger
	Verifier    domain.TokenVerifier
	CORSOrigins []string

	Auth     *controllers.AuthController
	Events   *controllers.EventController
	Bookings *controllers.BookingController
	Admin    *controllers.AdminController
}

// NewRouter initializes the HTTP router with all application routes, wrapped
// in request logging and CORS.
func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(d.Verifier, d.Logger)
	admin := func(next http.HandlerFunc) http.HandlerFunc { return auth(middleware.RequireAdmin(next)) }

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth
	mux.HandleFunc("POST /api/auth/register", d.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", d.Auth.Login)
	mux.HandleFunc("GET /api/auth/me", auth(d.Auth.Me))

	// Events
	mux.HandleFunc("GET /api/events", d.Events.ListEvents)
	mux.HandleFunc("GET /api/events/{eventID}", d.Events.GetEvent)
	mux.HandleFunc("POST /api/events", admin(d.Events.CreateEvent))
	mux.HandleFunc("PUT /api/events/{eventID}", admin(d.Events.UpdateEvent))
	mux.HandleFunc("DELETE /api/events/{eventID}", admin(d.Events.DeleteEvent))

	// Bookings
	mux.HandleFunc("POST /api/bookings", auth(d.Bookings.CreateBooking))
	mux.HandleFunc("GET /api/bookings", auth(d.Bookings.ListMyBookings))
	mux.HandleFunc("DELETE /api/bookings/{bookingID}", auth(d.Bookings.CancelBooking))

	// Admin
	mux.HandleFunc("GET /api/admin/bookings", admin(d.Admin.ListAllBookings))
	mux.HandleFunc("DELETE /api/admin/bookings/{bookingID}", admin(d.Admin.CancelBooking))
	mux.HandleFunc("POST /api/admin/events/{eventID}/capacity", admin(d.Admin.AdjustCapacity))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.LoggingMiddleware(d.Logger, middleware.CORS(d.CORSOrigins, mux))
}
