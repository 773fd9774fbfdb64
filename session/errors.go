package session

import (
	"context"
	"fmt"

	"github.com/jrsteele09/engine-dashboard/apiclient"
	"github.com/jrsteele09/engine-dashboard/internal/errors"
)

const (
	LoginFailedMessage    = "Failed to login. Please check your credentials."
	RegisterFailedMessage = "Failed to create an account"
	NetworkMessage        = "Unable to reach the server. Check your connection."
)

// AuthError is a failed login or registration. Kind is one of
// errors.ErrAuthenticationFailed, errors.ErrRegistrationFailed or errors.ErrNetwork,
// and Message is safe to show to the user.
type AuthError struct {
	Kind       error
	Message    string
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *AuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// newAuthError classifies an API failure. Cancellation is passed through untouched.
func newAuthError(kind error, fallback string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, errors.ErrNetwork) {
		return &AuthError{Kind: errors.ErrNetwork, Message: NetworkMessage, Err: err}
	}

	ae := &AuthError{Kind: kind, Message: fallback, Err: err}
	var httpErr *apiclient.HTTPError
	if errors.As(err, &httpErr) {
		ae.StatusCode = httpErr.StatusCode
		if httpErr.Message != "" {
			ae.Message = httpErr.Message
		}
	}
	return ae
}

// UserMessage returns the text to show for err
func UserMessage(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Message
	}
	if errors.Is(err, errors.ErrNetwork) {
		return NetworkMessage
	}
	if msg := apiclient.Message(err); msg != "" {
		return msg
	}
	return "Something went wrong. Please try again."
}
