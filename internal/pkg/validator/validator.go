package validator

import (
	"errors"
	"net/mail"
	"strings"
)

func ValidateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("invalid email address")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

var planTypes = map[string]bool{
	"starter":      true,
	"professional": true,
	"enterprise":   true,
}

// ValidatePlan accepts an empty plan; provisioning defaults it to starter.
func ValidatePlan(plan string) error {
	if plan == "" {
		return nil
	}
	if !planTypes[strings.ToLower(plan)] {
		return errors.New("unknown plan type")
	}
	return nil
}
