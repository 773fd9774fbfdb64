package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/engine-dashboard/apiclient"
	"github.com/jrsteele09/engine-dashboard/guard"
	"github.com/jrsteele09/engine-dashboard/internal/errors"
	"github.com/jrsteele09/engine-dashboard/session"
)

const (
	loginRequiredMessage    = "Please enter both username and password"
	registerRequiredMessage = "Please fill out all required fields"
	passwordMismatchMessage = "Passwords do not match"
	passwordTooShortMessage = "Password must be at least 6 characters"
	fieldTooLongMessage     = "Fields must be at most 128 characters"
	registrationNotice      = "Registration successful! You can now login."
	invalidFormMessage      = "Invalid form data"

	minPasswordLength  = 6
	maxAuthFieldLength = 128
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	Username string // Preserve username on error
	From     string // Page to return to after login
}

// RegisterPageData keeps the entered values when the form is shown again
type RegisterPageData struct {
	Username string
	Email    string
}

// RootHandler sends anonymous visitors to the login page. Signed in users never get
// here; the guard moves them to the dashboard first.
func (s *Server) RootHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirectSuccess(w, r, RouteLogin)
	}
}

// LoginPageHandler displays the login page (GET /login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("login.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := LoginPageData{From: r.URL.Query().Get(guard.FromParam)}
		s.renderPage(w, tmpl, http.StatusOK, s.newPage(r, "Login", "", data))
	}
}

// LoginSubmissionHandler processes the login form submission
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("login.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, invalidFormMessage, http.StatusBadRequest)
			return
		}

		data := LoginPageData{
			Username: strings.TrimSpace(r.FormValue("username")),
			From:     r.FormValue(guard.FromParam),
		}
		password := r.FormValue("password")

		fail := func(status int, msg string) {
			page := s.newPage(r, "Login", "", data)
			page.Error = msg
			page.Notice = ""
			s.renderPage(w, tmpl, status, page)
		}

		if data.Username == "" || password == "" {
			fail(http.StatusBadRequest, loginRequiredMessage)
			return
		}

		_, err := s.sessions.Login(r.Context(), data.Username, password)
		switch {
		case err == nil:
			redirectSuccess(w, r, guard.ReturnPath(data.From))
		case errors.Is(err, errors.ErrSuperseded):
			// A logout won the race; show the login page again
			redirectSuccess(w, r, RouteLogin)
		case errors.Is(err, errors.ErrNetwork):
			fail(http.StatusBadGateway, session.UserMessage(err))
		case errors.Is(err, errors.ErrAuthenticationFailed):
			fail(http.StatusUnauthorized, session.UserMessage(err))
		default:
			s.logger.Err(err).Str("user", data.Username).Msg("Login failed")
			fail(http.StatusInternalServerError, session.UserMessage(err))
		}
	}
}

// RegisterPageHandler displays the registration page (GET /register)
func (s *Server) RegisterPageHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("register.html")

	return func(w http.ResponseWriter, r *http.Request) {
		s.renderPage(w, tmpl, http.StatusOK, s.newPage(r, "Register", "", RegisterPageData{}))
	}
}

// RegisterSubmissionHandler creates the account and sends the user to the login
// page. Registering never signs the user in.
func (s *Server) RegisterSubmissionHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("register.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, invalidFormMessage, http.StatusBadRequest)
			return
		}

		data := RegisterPageData{
			Username: strings.TrimSpace(r.FormValue("username")),
			Email:    strings.TrimSpace(r.FormValue("email")),
		}
		password := r.FormValue("password")
		confirm := r.FormValue("confirm_password")

		fail := func(status int, msg string) {
			page := s.newPage(r, "Register", "", data)
			page.Error = msg
			s.renderPage(w, tmpl, status, page)
		}

		if msg := validateRegistration(data, password, confirm); msg != "" {
			fail(http.StatusBadRequest, msg)
			return
		}

		_, err := s.sessions.Register(r.Context(), apiclient.RegisterRequest{
			Username: data.Username,
			Email:    data.Email,
			Password: password,
		})
		if err != nil {
			var authErr *session.AuthError
			status := http.StatusBadRequest
			switch {
			case errors.Is(err, errors.ErrNetwork):
				status = http.StatusBadGateway
			case errors.As(err, &authErr) && authErr.StatusCode >= 400:
				status = authErr.StatusCode
			}
			fail(status, session.UserMessage(err))
			return
		}

		redirectWithNotice(w, r, RouteLogin, registrationNotice)
	}
}

// validateRegistration checks the form before anything is sent. It returns the
// message to show, or "" when the form is acceptable.
func validateRegistration(data RegisterPageData, password, confirm string) string {
	switch {
	case data.Username == "" || data.Email == "" || password == "":
		return registerRequiredMessage
	case len(data.Username) > maxAuthFieldLength || len(data.Email) > maxAuthFieldLength:
		return fieldTooLongMessage
	case password != confirm:
		return passwordMismatchMessage
	case len(password) < minPasswordLength:
		return passwordTooShortMessage
	}
	return ""
}

// LogoutHandler ends the session (POST /logout)
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.sessions.Logout(r.Context())
		redirectSuccess(w, r, RouteLogin)
	}
}
