package server

import (
	"fmt"
	"net/http"
)

const (
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	Gray    = "\033[90m" // Bright black, often appears as gray

	ResetColor = "\033[0m" // Reset to default color
)

var methodColors = map[string]string{
	http.MethodGet:    Green,
	http.MethodPost:   Blue,
	http.MethodPut:    Cyan,
	http.MethodDelete: Yellow,
	http.MethodPatch:  Magenta,
}

// colourMethod pads the method for aligned route logs
func colourMethod(method string) string {
	colour, ok := methodColors[method]
	if !ok {
		colour = Gray
	}
	return fmt.Sprintf("[%s %-7s%s]", colour, method, ResetColor)
}

// colourStatus tints a response status by class
func colourStatus(status int) string {
	var colour string
	switch {
	case status >= 500:
		colour = Red
	case status >= 400:
		colour = Yellow
	case status >= 300:
		colour = Cyan
	default:
		colour = Green
	}
	return fmt.Sprintf("%s%d%s", colour, status, ResetColor)
}
