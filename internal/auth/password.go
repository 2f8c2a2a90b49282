// Package auth issues access tokens and hashes account passwords.
package auth

import (
	"errors"
	"strings"

	"cleantrack/backend/internal/apperr"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

var ErrInvalidCredentials = errors.New("invalid email or password")

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword returns ErrInvalidCredentials on mismatch.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// ValidateNewPassword applies the registration and password-change rules.
func ValidateNewPassword(password, confirm string) error {
	if strings.TrimSpace(password) == "" {
		return apperr.Validation("password", "is required")
	}
	if password != confirm {
		return apperr.Validation("confirmPassword", "passwords do not match")
	}
	if len(password) < MinPasswordLength {
		return apperr.Validation("password", "must be at least 8 characters long")
	}
	return nil
}
