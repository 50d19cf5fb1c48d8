package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaker_GenerateAndParse(t *testing.T) {
	maker := NewJWTMaker("secret", time.Hour)

	token, err := maker.GenerateToken("4b7c8f5e-0000-4000-8000-000000000001", "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "4b7c8f5e-0000-4000-8000-000000000001", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, claims.UserID, claims.Subject)
}

func TestMaker_GenerateEmptyUser(t *testing.T) {
	maker := NewJWTMaker("secret", time.Hour)

	_, err := maker.GenerateToken("", "user@example.com")
	assert.Error(t, err)
}

func TestMaker_ParseInvalid(t *testing.T) {
	maker := NewJWTMaker("secret", time.Hour)
	other := NewJWTMaker("other-secret", time.Hour)

	foreign, err := other.GenerateToken("user-1", "a@b.c")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "empty", token: ""},
		{name: "wrong signature", token: foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.Nil(t, claims)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}

func TestMaker_ParseExpired(t *testing.T) {
	maker := NewJWTMaker("secret", time.Minute)
	issued := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	maker.now = func() time.Time { return issued }

	token, err := maker.GenerateToken("user-1", "a@b.c")
	require.NoError(t, err)

	maker.now = func() time.Time { return issued.Add(2 * time.Minute) }
	claims, err := maker.ParseToken(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
