package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User represents a registered user
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser returns a new User with the given fields. ID is typically set by the repository on create.
func NewUser(name, email, passwordHash, salt string, isAdmin bool, createdAt, updatedAt time.Time) *User {
	return &User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Salt:         salt,
		IsAdmin:      isAdmin,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// Principal is the authenticated caller carried by a bearer token.
type Principal struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// PasswordHasher handles salt generation, hashing, and verification.
// Implementations may use bcrypt, argon2, etc.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(user *User) (string, error)
}

// TokenVerifier verifies a token and returns the principal it identifies.
type TokenVerifier interface {
	Verify(token string) (*Principal, error)
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	// Create inserts the user. Returns ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	User      *User  `json:"user"`
}

// AuthService defines registration, login and the admin bootstrap.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*LoginResult, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Me(ctx context.Context, userID string) (*User, error)
	// EnsureAdmin creates an admin account unless a user with that email exists.
	// created reports whether a new account was inserted.
	EnsureAdmin(ctx context.Context, name, email, password string) (user *User, created bool, err error)
}
