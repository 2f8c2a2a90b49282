package auth_test

import (
	"testing"
	"time"

	"cleantrack/backend/internal/apperr"
	"cleantrack/backend/internal/auth"
	"cleantrack/backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

var officer = models.Identity{ID: "u2", Name: "Officer Johnson", Email: "officer@city.gov", Role: models.RoleOfficial}

func TestAccessToken_RoundTrip(t *testing.T) {
	token, err := auth.GenerateAccessToken("sid-1", officer, secret, time.Hour)
	require.NoError(t, err)

	claims, err := auth.ValidateAccessToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "sid-1", claims.SessionID)
	assert.Equal(t, "u2", claims.UserID)
	assert.Equal(t, models.RoleOfficial, claims.Role)
	assert.Equal(t, auth.Issuer, claims.Issuer)
}

func TestAccessToken_Rejected(t *testing.T) {
	token, err := auth.GenerateAccessToken("sid-1", officer, secret, time.Hour)
	require.NoError(t, err)

	_, err = auth.ValidateAccessToken(token, "other-secret")
	assert.Error(t, err, "wrong secret")

	expired, err := auth.GenerateAccessToken("sid-1", officer, secret, -time.Minute)
	require.NoError(t, err)
	_, err = auth.ValidateAccessToken(expired, secret)
	assert.Error(t, err, "expired")

	noSession, err := auth.GenerateAccessToken("", officer, secret, time.Hour)
	require.NoError(t, err)
	_, err = auth.ValidateAccessToken(noSession, secret)
	assert.Error(t, err, "tokens must name a session")

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := foreign.SignedString([]byte(secret))
	require.NoError(t, err)
	_, err = auth.ValidateAccessToken(signed, secret)
	assert.Error(t, err, "wrong issuer")

	_, err = auth.ValidateAccessToken("garbage", secret)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.NoError(t, auth.CheckPassword(hash, "password123"))
	assert.ErrorIs(t, auth.CheckPassword(hash, "wrong"), auth.ErrInvalidCredentials)
}

func TestValidateNewPassword(t *testing.T) {
	tests := []struct {
		name, password, confirm, field string
	}{
		{"empty", "", "", "password"},
		{"mismatch", "password123", "password124", "confirmPassword"},
		{"too short", "short", "short", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateNewPassword(tt.password, tt.confirm)
			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	assert.NoError(t, auth.ValidateNewPassword("password123", "password123"))
}
