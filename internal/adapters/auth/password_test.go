package auth

import (
	"regexp"
	"strings"
	"testing"

	"eventbooking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_GenerateSalt(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	hexRe := regexp.MustCompile(`^[0-9a-f]{64}$`)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		salt, err := h.GenerateSalt()
		require.NoError(t, err)
		assert.Regexp(t, hexRe, salt)
		assert.False(t, seen[salt], "salts must not repeat")
		seen[salt] = true
	}
}

func TestBcryptHasher_Compare(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	salt, err := h.GenerateSalt()
	require.NoError(t, err)
	otherSalt, err := h.GenerateSalt()
	require.NoError(t, err)

	hash, err := h.Hash(salt, "correct horse")
	require.NoError(t, err)

	tests := []struct {
		name     string
		salt     string
		password string
		wantErr  error
	}{
		{"match", salt, "correct horse", nil},
		{"wrong password", salt, "battery staple", domain.ErrInvalidCredentials},
		{"wrong salt", otherSalt, "correct horse", domain.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Compare(hash, tt.salt, tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBcryptHasher_longPassword(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	long := strings.Repeat("p", 200)
	hash, err := h.Hash("salt", long)
	require.NoError(t, err)
	assert.NoError(t, h.Compare(hash, "salt", long))
	assert.ErrorIs(t, h.Compare(hash, "salt", long[:199]), domain.ErrInvalidCredentials)
}
