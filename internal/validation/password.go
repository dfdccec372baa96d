// Package validation holds input checks shared by handlers and services.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	minPasswordLength = 12
	maxPasswordLength = 128
	maxEmailLength    = 254
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]*[a-zA-Z0-9])?)+$`)

// ValidatePassword enforces length and character-class rules.
func ValidatePassword(password string) error {
	length := len([]rune(password))
	if length < minPasswordLength || length > maxPasswordLength {
		return fmt.Errorf("password must be between %d and %d characters", minPasswordLength, maxPasswordLength)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return errors.New("password must contain upper and lower case letters, a digit and a special character")
	}
	return nil
}

// ValidateEmail checks address shape and length.
func ValidateEmail(email string) error {
	if len(email) > maxEmailLength {
		return fmt.Errorf("email must be at most %d characters", maxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email address")
	}
	return nil
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
