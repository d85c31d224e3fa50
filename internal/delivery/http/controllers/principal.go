package controllers

import (
	"errors"
	"net/http"

	h "eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"
)

// requirePrincipal returns the authenticated caller, writing 401 when the route
// was reached without RequireAuth.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (*domain.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return nil, false
	}
	return p, true
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// MessageResponse is returned by endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}
