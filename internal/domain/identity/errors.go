package identity

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized indicates a missing, malformed or expired credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidCredentials indicates an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUserNotFound indicates the user id or email is unknown.
	ErrUserNotFound = errors.New("user not found")
)

// ValidationError indicates malformed signup input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
