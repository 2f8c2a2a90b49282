package auth

import (
	"errors"
	"time"

	"cleantrack/backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const Issuer = "cleantrack"

// Claims ties a token to a server-side session. The identity fields are a
// convenience copy; the session store stays authoritative.
type Claims struct {
	SessionID string      `json:"sid"`
	UserID    string      `json:"userId"`
	Name      string      `json:"name"`
	Role      models.Role `json:"role"`
	jwt.RegisteredClaims
}

func GenerateAccessToken(sid string, id models.Identity, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID: sid,
		UserID:    id.ID,
		Name:      id.Name,
		Role:      id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ValidateAccessToken(tokenString string, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(Issuer))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.SessionID != "" {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
