package server

import (
	"bytes"
	"context"
	"html/template"
	"net/http"

	"github.com/jrsteele09/engine-dashboard/apiclient"
	"github.com/jrsteele09/engine-dashboard/guard"
	"github.com/jrsteele09/engine-dashboard/internal/errors"
	"github.com/jrsteele09/engine-dashboard/session"
)

const contentTypeHTML = "text/html; charset=utf-8"

// Page is the data every template receives
type Page struct {
	AppName string
	Title   string
	Nav     string
	Session session.Session
	Notice  string
	Error   string
	Data    any
}

func (p Page) CanManageEngines() bool {
	return p.Session.User != nil && p.Session.User.CanManageEngines()
}

func (p Page) CanDeleteEngines() bool {
	return p.Session.User != nil && p.Session.User.CanDeleteEngines()
}

// newPage starts a page with the current session and any notice or error carried in
// the query string
func (s *Server) newPage(r *http.Request, title, nav string, data any) Page {
	q := r.URL.Query()
	return Page{
		AppName: s.appName,
		Title:   title,
		Nav:     nav,
		Session: s.sessions.Current(),
		Notice:  q.Get("notice"),
		Error:   q.Get("error"),
		Data:    data,
	}
}

// renderPage executes into a buffer first so a template failure becomes a clean 500
func (s *Server) renderPage(w http.ResponseWriter, tmpl *template.Template, status int, page Page) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, page); err != nil {
		s.logger.Err(err).Str("page", page.Title).Msg("Failed to render template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorView struct {
	Status     int
	StatusText string
	Message    string
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	page := s.newPage(r, http.StatusText(status), "", errorView{
		Status:     status,
		StatusText: http.StatusText(status),
		Message:    message,
	})
	s.renderPage(w, s.errorPage, status, page)
}

func (s *Server) renderLoading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Refresh", "1")
	s.renderPage(w, s.loadingPage, http.StatusOK, s.newPage(r, "Loading", "", nil))
}

// apiFailure turns an API client error into a page. An unauthorized reply has
// already ended the session through the client's unauthorized handler, so the user
// is sent to login.
func (s *Server) apiFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := apiclient.StatusCode(err)
	switch {
	case errors.Is(err, context.Canceled):
		s.logger.Debug().Str("path", r.URL.Path).Msg("Request cancelled by client")
	case errors.Is(err, errors.ErrNotAuthenticated):
		location := guard.LoginPath
		if r.Method == http.MethodGet {
			location = guard.LoginLocation(r.URL.RequestURI())
		}
		redirectSuccess(w, r, location)
	case errors.Is(err, errors.ErrNotFound):
		s.renderError(w, r, http.StatusNotFound, apiclient.Message(err))
	case status == http.StatusForbidden:
		s.renderError(w, r, http.StatusForbidden, apiclient.Message(err))
	case errors.Is(err, errors.ErrNetwork), errors.Is(err, context.DeadlineExceeded):
		s.logger.Err(err).Str("path", r.URL.Path).Msg("API unreachable")
		s.renderError(w, r, http.StatusBadGateway, session.NetworkMessage)
	default:
		s.logger.Err(err).Str("path", r.URL.Path).Msg("API request failed")
		s.renderError(w, r, http.StatusBadGateway, apiclient.Message(err))
	}
}

// formError reports whether err is a rejection the user can fix on the form, and
// the message to show for it
func formError(err error) (string, bool) {
	switch apiclient.StatusCode(err) {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return apiclient.Message(err), true
	}
	return "", false
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithNotice redirects to path carrying a success message for the next page
func redirectWithNotice(w http.ResponseWriter, r *http.Request, path, notice string) {
	redirectSuccess(w, r, withParam(path, "notice", notice))
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	redirectSuccess(w, r, withParam(path, "error", errorMsg))
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
