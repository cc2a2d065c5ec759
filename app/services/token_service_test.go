package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercat-labs/loyalty-platform/config"
	"github.com/mercat-labs/loyalty-platform/models"
)

func newTestTokenService(t *testing.T, ttl time.Duration) TokenService {
	t.Helper()

	svc, err := NewTokenService(&config.JWTConfig{
		SecretKey:      "test-secret-key-at-least-32-bytes-long",
		AccessTokenTTL: ttl,
		Issuer:         "loyalty-platform-test",
		Audience:       "loyalty-platform-test",
	})
	require.NoError(t, err)

	return svc
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	_, err := NewTokenService(&config.JWTConfig{AccessTokenTTL: time.Hour})
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, models.RoleVendor)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, models.RoleVendor, claims.Role)
	assert.NotEmpty(t, claims.TokenID)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "not a JWT", token: "not-a-token"},
		{name: "truncated", token: "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)

	other, err := NewTokenService(&config.JWTConfig{
		SecretKey:      "a-completely-different-signing-secret",
		AccessTokenTTL: time.Hour,
	})
	require.NoError(t, err)

	token, err := other.GenerateToken(uuid.New(), models.RoleUser)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := newTestTokenService(t, -time.Minute)

	token, err := svc.GenerateToken(uuid.New(), models.RoleUser)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshToken(t *testing.T) {
	svc := newTestTokenService(t, time.Hour)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, models.RoleAdmin)
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(token)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(refreshed)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestRefreshTokenRejectsExpired(t *testing.T) {
	svc := newTestTokenService(t, -time.Minute)

	token, err := svc.GenerateToken(uuid.New(), models.RoleUser)
	require.NoError(t, err)

	_, err = svc.RefreshToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}
