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

// fakeAuthService implements domain.AuthService for handler tests.
type fakeAuthService struct {
	registerErr error
	loginErr    error
	meResult    *domain.User
	meErr       error

	lastName, lastEmail, lastPassword string
	lastMeID                          string
}

func (f *fakeAuthService) Register(ctx context.Context, name, email, password string) (*domain.LoginResult, error) {
	f.lastName, f.lastEmail, f.lastPassword = name, email, password
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &domain.LoginResult{Token: "tok", TokenType: "Bearer", User: &domain.User{ID: "u-1", Name: name, Email: email}}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	f.lastEmail, f.lastPassword = email, password
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &domain.LoginResult{Token: "tok", TokenType: "Bearer", User: &domain.User{ID: "u-1", Email: email}}, nil
}

func (f *fakeAuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	f.lastMeID = userID
	return f.meResult, f.meErr
}

func (f *fakeAuthService) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, bool, error) {
	return nil, false, nil
}

func TestAuthController_Register(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"created", `{"name":"Ada","email":"ada@example.com","password":"secret1"}`, nil, http.StatusCreated, ""},
		{"missing fields", `{"email":"ada@example.com"}`, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"admin flag rejected", `{"name":"Ada","email":"ada@example.com","password":"secret1","is_admin":true}`, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"duplicate email", `{"name":"Ada","email":"ada@example.com","password":"secret1"}`, domain.ErrDuplicateEmail, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"short password", `{"name":"Ada","email":"ada@example.com","password":"123"}`, fmt.Errorf("%w: password too short", domain.ErrInvalidInput), http.StatusBadRequest, helpers.ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewAuthController(testLogger, &fakeAuthService{registerErr: tt.svcErr})

			rr := serve("POST /api/auth/register", ctrl.Register, jsonRequest(http.MethodPost, "/api/auth/register", tt.body))

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode == "" {
				var result domain.LoginResult
				assert.Nil(t, decodeEnvelope(t, rr, &result))
				assert.Equal(t, "tok", result.Token)
				assert.Equal(t, "Bearer", result.TokenType)
				return
			}
			apiErr := decodeEnvelope(t, rr, nil)
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantCode, apiErr.Code)
		})
	}
}

func TestAuthController_Login(t *testing.T) {
	svc := &fakeAuthService{}
	ctrl := NewAuthController(testLogger, svc)

	rr := serve("POST /api/auth/login", ctrl.Login, jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"secret1"}`))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ada@example.com", svc.lastEmail)

	svc.loginErr = domain.ErrInvalidCredentials
	rr = serve("POST /api/auth/login", ctrl.Login, jsonRequest(http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"nope"}`))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	apiErr := decodeEnvelope(t, rr, nil)
	assert.Equal(t, helpers.ErrCodeUnauthorized, apiErr.Code)

	rr = serve("POST /api/auth/login", ctrl.Login, jsonRequest(http.MethodPost, "/api/auth/login", `{"email":""}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuthController_Me(t *testing.T) {
	svc := &fakeAuthService{meResult: &domain.User{ID: "u-1", Name: "Ada", Email: "ada@example.com"}}
	ctrl := NewAuthController(testLogger, svc)

	req := asUser(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), &domain.Principal{UserID: "u-1"})
	rr := serve("GET /api/auth/me", ctrl.Me, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var user domain.User
	assert.Nil(t, decodeEnvelope(t, rr, &user))
	assert.Equal(t, "Ada", user.Name)
	assert.NotContains(t, rr.Body.String(), "password")

	rr = serve("GET /api/auth/me", ctrl.Me, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	svc.meErr = domain.ErrNotFound
	rr = serve("GET /api/auth/me", ctrl.Me, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
