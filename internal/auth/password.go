// Package auth holds account credential rules and session token helpers
// shared by the server and the CLI.
package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordBytes  = 72
	maxUsernameLength = 32
	maxEmailLength    = 254
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9._-]*[a-z0-9])?$`)

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrInvalidUsername  = errors.New("username may contain lowercase letters, digits, '.', '_' and '-'")
	ErrInvalidEmail     = errors.New("invalid email")
)

// NormalizeUsername lowercases and trims raw and checks it against the
// allowed username alphabet.
func NormalizeUsername(raw string) (string, error) {
	username := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case username == "":
		return "", ErrUsernameRequired
	case len(username) > maxUsernameLength:
		return "", fmt.Errorf("username must be at most %d characters", maxUsernameLength)
	case !usernamePattern.MatchString(username):
		return "", ErrInvalidUsername
	}
	return username, nil
}

// NormalizeEmail returns the bare address of raw. An empty input is
// allowed and stays empty.
func NormalizeEmail(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", nil
	}
	if len(value) > maxEmailLength {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

func ValidatePassword(password string) error {
	switch {
	case len(password) < minPasswordLength:
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	case len(password) > maxPasswordBytes:
		return fmt.Errorf("password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

// HashPassword validates password and returns its bcrypt hash.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func VerifyPassword(passwordHash, candidate string) bool {
	if strings.TrimSpace(passwordHash) == "" || candidate == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(candidate)) == nil
}
