package apifake

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/jrsteele09/engine-dashboard/apiclient"
)

const (
	AlertMaintenanceDue = "maintenance_due"
	AlertAnomaly        = "anomaly"
)

type alert struct {
	apiclient.Alert
	resolverID int
}

func (a *alert) resolve(userID int) {
	a.Resolved = true
	a.resolverID = userID
	a.ResolvedAt = now()
}

// AddAlert raises an open alert against an engine and returns its id
func (s *Server) AddAlert(engineID int, alertType, message string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &alert{Alert: apiclient.Alert{
		ID:        s.id(),
		EngineID:  engineID,
		AlertType: alertType,
		Message:   message,
		CreatedAt: now(),
	}}
	s.alerts[a.ID] = a
	return a.ID
}

// Alert returns the stored alert with the given id
func (s *Server) Alert(id int) (apiclient.Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok {
		return apiclient.Alert{}, false
	}
	return a.Alert, true
}

// usernameOf resolves a user id; callers hold s.mu
func (s *Server) usernameOf(id int) string {
	for _, acc := range s.accounts {
		if acc.user.ID == id {
			return acc.user.Username
		}
	}
	return ""
}

// serialOf resolves an engine id; callers hold s.mu
func (s *Server) serialOf(id int) string {
	if e, ok := s.engines[id]; ok {
		return e.SerialNumber
	}
	return ""
}

// sortedAlerts returns alerts newest first; callers hold s.mu
func (s *Server) sortedAlerts(resolved bool) []*alert {
	out := []*alert{}
	for _, a := range s.alerts {
		if a.Resolved == resolved {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	resolved := strings.EqualFold(r.URL.Query().Get("resolved"), "true")

	s.mu.Lock()
	defer s.mu.Unlock()
	result := []apiclient.Alert{}
	for _, a := range s.sortedAlerts(resolved) {
		out := a.Alert
		out.EngineSerial = s.serialOf(a.EngineID)
		if resolved {
			out.ResolvedBy = apiclient.FlexString(s.usernameOf(a.resolverID))
		}
		result = append(result, out)
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUpdateAlert(w http.ResponseWriter, r *http.Request) {
	var in apiclient.AlertUpdate
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	userID := identity(r).UserID

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[pathID(r)]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	if in.IsRead != nil {
		a.IsRead = *in.IsRead
	}
	if in.Resolved {
		a.resolve(userID)
	}
	out := a.Alert
	out.ResolvedBy = apiclient.FlexString(strconv.Itoa(a.resolverID))
	writeJSON(w, http.StatusOK, apiclient.AlertResponse{Message: "Alert updated successfully", Alert: out})
}

const (
	attentionThreshold = 0.5
	criticalThreshold  = 0.8
)

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := apiclient.DashboardSummary{
		CriticalEngines:   []apiclient.CriticalEngine{},
		RecentAlerts:      []apiclient.Alert{},
		RecentMaintenance: []apiclient.Maintenance{},
	}
	for _, e := range s.sortedEngines() {
		resp.Summary.TotalEngines++
		switch e.Status {
		case apiclient.EngineStatusActive:
			resp.Summary.ActiveEngines++
		case apiclient.EngineStatusMaintenance:
			resp.Summary.MaintenanceEngines++
		}
		for _, c := range e.cycles {
			if c.FailureProbability != nil && *c.FailureProbability > attentionThreshold {
				resp.Summary.AttentionNeeded++
				break
			}
		}
		if len(e.cycles) == 0 {
			continue
		}
		last := e.cycles[len(e.cycles)-1]
		if last.FailureProbability != nil && *last.FailureProbability > criticalThreshold {
			resp.CriticalEngines = append(resp.CriticalEngines, apiclient.CriticalEngine{
				ID:                 e.ID,
				SerialNumber:       e.SerialNumber,
				AircraftID:         e.AircraftID,
				FailureProbability: *last.FailureProbability,
				CurrentCycle:       last.Cycle,
				RUL:                last.RUL,
			})
		}
	}
	sort.SliceStable(resp.CriticalEngines, func(i, j int) bool {
		return resp.CriticalEngines[i].FailureProbability > resp.CriticalEngines[j].FailureProbability
	})
	if len(resp.CriticalEngines) > 5 {
		resp.CriticalEngines = resp.CriticalEngines[:5]
	}

	for i, a := range s.sortedAlerts(false) {
		if i == 10 {
			break
		}
		out := a.Alert
		out.EngineSerial = s.serialOf(a.EngineID)
		resp.RecentAlerts = append(resp.RecentAlerts, out)
	}

	for i, m := range s.sortedMaintenance() {
		if i == 5 {
			break
		}
		out := *m
		out.EngineSerial = s.serialOf(m.EngineID)
		if id, err := strconv.Atoi(m.PerformedBy.String()); err == nil {
			out.PerformedBy = apiclient.FlexString(s.usernameOf(id))
		}
		resp.RecentMaintenance = append(resp.RecentMaintenance, out)
	}

	writeJSON(w, http.StatusOK, resp)
}
