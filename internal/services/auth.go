package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"eventbooking/internal/clock"
	"eventbooking/internal/domain"
)

const (
	minPasswordLen = 6
	tokenType      = "Bearer"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type authService struct {
	userRepo domain.UserRepository
	hasher   domain.PasswordHasher
	issuer   domain.TokenIssuer
	clock    clock.Clock
	logger   *slog.Logger
}

// NewAuthService creates an AuthService with the given repository and auth ports.
func NewAuthService(userRepo domain.UserRepository, hasher domain.PasswordHasher, issuer domain.TokenIssuer, clk clock.Clock, logger *slog.Logger) domain.AuthService {
	return &authService{
		userRepo: userRepo,
		hasher:   hasher,
		issuer:   issuer,
		clock:    clk,
		logger:   logger,
	}
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*domain.LoginResult, error) {
	user, err := s.createUser(ctx, name, email, password, false)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}
	return s.issue(user)
}

func (s *authService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, name, email, password string) (*domain.User, bool, error) {
	existing, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("get user: %w", err)
	}
	user, err := s.createUser(ctx, name, email, password, true)
	if err != nil {
		// Lost a race with another seeder.
		if errors.Is(err, domain.ErrDuplicateEmail) {
			existing, getErr := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
			if getErr != nil {
				return nil, false, fmt.Errorf("get user: %w", getErr)
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	s.logger.InfoContext(ctx, "admin account created", "user_id", user.ID)
	return user, true, nil
}

func (s *authService) createUser(ctx context.Context, name, email, password string, isAdmin bool) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if !emailRegexp.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	user := domain.NewUser(name, email, hash, salt, isAdmin, now, now)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *authService) issue(user *domain.User) (*domain.LoginResult, error) {
	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &domain.LoginResult{Token: token, TokenType: tokenType, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
