package server

import (
	"net/http"
	"slices"
	"strings"

	"github.com/jrsteele09/engine-dashboard/apiclient"
)

const (
	alertFilterActive   = "active"
	alertFilterResolved = "resolved"
	alertFilterAll      = "all"

	alertActionRead    = "read"
	alertActionUnread  = "unread"
	alertActionResolve = "resolve"

	invalidAlertAction = "Unknown alert action"
)

// AlertsPageData is the filtered alert list
type AlertsPageData struct {
	Alerts  []apiclient.Alert
	Filter  string
	Filters []string
	Query   string
}

// alertFilter reads ?filter=active|resolved|all, also accepting ?resolved=true|false
func alertFilter(r *http.Request) string {
	q := r.URL.Query()
	switch f := q.Get("filter"); f {
	case alertFilterActive, alertFilterResolved, alertFilterAll:
		return f
	}
	switch strings.ToLower(q.Get("resolved")) {
	case "true":
		return alertFilterResolved
	case "false":
		return alertFilterActive
	}
	return alertFilterActive
}

// AlertsListHandler lists alerts (GET /dashboard/alerts). The API returns either
// open or resolved alerts, so "all" merges two listings, newest first.
func (s *Server) AlertsListHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("alerts.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := AlertsPageData{
			Filter:  alertFilter(r),
			Filters: []string{alertFilterActive, alertFilterResolved, alertFilterAll},
			Query:   strings.TrimSpace(r.URL.Query().Get("q")),
		}

		var alerts []apiclient.Alert
		for _, resolved := range []bool{false, true} {
			if (resolved && data.Filter == alertFilterActive) || (!resolved && data.Filter == alertFilterResolved) {
				continue
			}
			batch, err := s.api.ListAlerts(r.Context(), resolved)
			if err != nil {
				s.apiFailure(w, r, err)
				return
			}
			alerts = append(alerts, batch...)
		}
		if data.Filter == alertFilterAll {
			slices.SortStableFunc(alerts, func(a, b apiclient.Alert) int {
				return b.CreatedAt.Compare(a.CreatedAt.Time)
			})
		}
		data.Alerts = filterAlerts(alerts, data.Query)
		s.renderPage(w, tmpl, http.StatusOK, s.newPage(r, "Alerts", navAlerts, data))
	}
}

func filterAlerts(alerts []apiclient.Alert, query string) []apiclient.Alert {
	if query == "" {
		return alerts
	}
	q := strings.ToLower(query)
	return slices.DeleteFunc(alerts, func(a apiclient.Alert) bool {
		return !strings.Contains(strings.ToLower(a.Message), q) &&
			!strings.Contains(strings.ToLower(a.AlertType), q) &&
			!strings.Contains(strings.ToLower(a.EngineSerial), q)
	})
}

// AlertUpdateHandler marks an alert read or unread, or resolves it
// (POST /dashboard/alerts/{alertID})
func (s *Server) AlertUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "alertID")
		if !ok {
			s.renderError(w, r, http.StatusNotFound, "Alert not found")
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, invalidFormMessage, http.StatusBadRequest)
			return
		}
		back := withParam(RouteAlerts, "filter", alertFilterFromForm(r.FormValue("filter")))

		var update apiclient.AlertUpdate
		switch r.FormValue("action") {
		case alertActionRead:
			read := true
			update.IsRead = &read
		case alertActionUnread:
			read := false
			update.IsRead = &read
		case alertActionResolve:
			read := true
			update.IsRead = &read
			update.Resolved = true
		default:
			redirectWithError(w, r, back, invalidAlertAction)
			return
		}

		resp, err := s.api.UpdateAlert(r.Context(), id, update)
		if err != nil {
			if msg, ok := formError(err); ok {
				redirectWithError(w, r, back, msg)
				return
			}
			s.apiFailure(w, r, err)
			return
		}
		redirectWithNotice(w, r, back, fallback(resp.Message, "Alert updated"))
	}
}

func alertFilterFromForm(f string) string {
	switch f {
	case alertFilterResolved, alertFilterAll:
		return f
	}
	return alertFilterActive
}
