package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/engine-dashboard/internal/errors"
)

// HTTPError is a non-2xx reply from the API. Message is empty when the body carried
// no error text.
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("api responded %d: %s", e.StatusCode, e.Text())
}

// Text returns the server's message, or the status text when there was none
func (e *HTTPError) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

// Is matches a 404 reply to errors.ErrNotFound and a 401 reply to
// errors.ErrNotAuthenticated
func (e *HTTPError) Is(target error) bool {
	switch target {
	case errors.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case errors.ErrNotAuthenticated:
		return e.StatusCode == http.StatusUnauthorized
	}
	return false
}

// errorBody covers the two reply shapes: route handlers use "error", the JWT layer
// uses "msg".
type errorBody struct {
	Error string `json:"error"`
	Msg   string `json:"msg"`
}

func newHTTPError(resp *http.Response, body []byte) *HTTPError {
	e := &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       body,
	}

	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		switch {
		case strings.TrimSpace(eb.Error) != "":
			e.Message = eb.Error
		case strings.TrimSpace(eb.Msg) != "":
			e.Message = eb.Msg
		}
	}
	return e
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an API reply
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// Message returns the text of an API reply, or "" for other errors
func Message(err error) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Text()
	}
	return ""
}
