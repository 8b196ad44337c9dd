package service

import (
	"errors"
	"fmt"

	"github.com/johestephan/dokemon-api/internal/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrUserExists         = errors.New("user already exists")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotFoundOrInactive = errors.New("user not found or inactive")
	ErrLastAdmin          = config.ErrLastAdmin

	ErrUnauthenticated = errors.New("authentication required")
	ErrSessionExpired  = fmt.Errorf("session expired: %w", ErrUnauthenticated)
	ErrForbidden       = errors.New("admin privileges required")

	// ErrValidation is wrapped by every input validation failure.
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports user-correctable input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

// messages holds the client-facing text of each sentinel.
var messages = map[error]string{
	ErrInvalidCredentials: "Invalid username or password",
	ErrAccountDisabled:    "Account is disabled",
	ErrUserExists:         "User already exists",
	ErrWrongPassword:      "Current password is incorrect",
	ErrUserNotFound:       "User not found",
	ErrNotFoundOrInactive: "User not found or inactive",
	ErrLastAdmin:          "Cannot remove the last admin user",
	ErrSessionExpired:     "Session expired",
	ErrUnauthenticated:    "Authentication required",
	ErrForbidden:          "Admin privileges required",
}

// Message returns the text shown to API clients for err. Validation errors
// carry their own text; unknown errors yield "".
func Message(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Msg
	}
	// ErrSessionExpired wraps ErrUnauthenticated, so check it first.
	if errors.Is(err, ErrSessionExpired) {
		return messages[ErrSessionExpired]
	}
	for sentinel, msg := range messages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return ""
}
