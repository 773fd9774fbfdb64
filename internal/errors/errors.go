package errors

import (
	"errors"
	"fmt"
)

// Common error types for the dashboard
var (
	// Session errors
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed")
	ErrSuperseded           = errors.New("session superseded")
	ErrNotAuthenticated     = errors.New("not authenticated")

	// Transport errors
	ErrNetwork = errors.New("network error")

	// Storage errors
	ErrStorageCorrupt = errors.New("stored session corrupt")

	// General errors
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

// New returns an error that formats as the given text
func New(text string) error {
	return errors.New(text)
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
