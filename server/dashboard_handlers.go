package server

import (
	"encoding/json"
	"net/http"
)

const (
	navDashboard   = "dashboard"
	navEngines     = "engines"
	navMaintenance = "maintenance"
	navAlerts      = "alerts"
)

// DashboardHandler renders the fleet summary (GET /dashboard)
func (s *Server) DashboardHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("dashboard.html")

	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := s.api.Dashboard(r.Context())
		if err != nil {
			s.apiFailure(w, r, err)
			return
		}
		s.renderPage(w, tmpl, http.StatusOK, s.newPage(r, "Dashboard", navDashboard, summary))
	}
}

// FallbackHandler sends unknown paths to the dashboard
func (s *Server) FallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirectSuccess(w, r, RouteDashboard)
	}
}

type healthResponse struct {
	Status        string `json:"status"`
	Session       string `json:"session"`
	Authenticated bool   `json:"authenticated"`
}

// HealthHandler reports liveness and whether the session has been restored. It
// bypasses the guard so it answers while the session is initializing.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := s.sessions.Current()
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(healthResponse{
			Status:        "ok",
			Session:       current.Status.String(),
			Authenticated: current.Authenticated(),
		})
		if err != nil {
			s.logger.Err(err).Msg("Failed to write health response")
		}
	}
}
