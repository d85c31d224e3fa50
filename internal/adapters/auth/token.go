package auth

import (
	"errors"
	"fmt"
	"time"

	"eventbooking/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by Verify for malformed, expired or badly signed tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

type jwtClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

// JWT issues and verifies HS256 bearer tokens.
type JWT struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewJWT returns a JWT signer; tokens expire after expiry.
func NewJWT(secret string, expiry time.Duration) *JWT {
	return &JWT{secret: []byte(secret), expiry: expiry, now: time.Now}
}

var (
	_ domain.TokenIssuer   = (*JWT)(nil)
	_ domain.TokenVerifier = (*JWT)(nil)
)

// Issue signs a token carrying the user's id, email and admin flag.
func (j *JWT) Issue(user *domain.User) (string, error) {
	now := j.now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.expiry)),
		},
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses token and returns the principal it identifies.
func (j *JWT) Verify(token string) (*domain.Principal, error) {
	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &domain.Principal{UserID: claims.Subject, Email: claims.Email, IsAdmin: claims.IsAdmin}, nil
}
