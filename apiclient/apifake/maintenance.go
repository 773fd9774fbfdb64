package apifake

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/jrsteele09/engine-dashboard/apiclient"
)

func (s *Server) sortedMaintenance() []*apiclient.Maintenance {
	out := make([]*apiclient.Maintenance, 0, len(s.maintenance))
	for _, m := range s.maintenance {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate.Time) {
			return out[i].StartDate.After(out[j].StartDate.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func parseDate(s string) (apiclient.Time, error) {
	if s == "" {
		return apiclient.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return apiclient.Time{}, err
	}
	return apiclient.Time{Time: t}, nil
}

// resolveMaintenanceAlerts closes the engine's open maintenance_due alerts; callers
// hold s.mu
func (s *Server) resolveMaintenanceAlerts(engineID, userID int) {
	for _, a := range s.alerts {
		if a.EngineID == engineID && a.AlertType == AlertMaintenanceDue && !a.Resolved {
			a.resolve(userID)
		}
	}
}

func (s *Server) handleListMaintenance(w http.ResponseWriter, r *http.Request) {
	engineID, _ := strconv.Atoi(r.URL.Query().Get("engine_id"))
	kind := r.URL.Query().Get("type")

	s.mu.Lock()
	defer s.mu.Unlock()
	result := []apiclient.Maintenance{}
	for _, m := range s.sortedMaintenance() {
		if engineID > 0 && m.EngineID != engineID {
			continue
		}
		if kind != "" && m.MaintenanceType != kind {
			continue
		}
		result = append(result, *m)
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetMaintenance(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.maintenance[pathID(r)]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleCreateMaintenance(w http.ResponseWriter, r *http.Request) {
	var in apiclient.MaintenanceInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	for _, f := range []struct {
		name    string
		present bool
	}{
		{"engine_id", in.EngineID > 0},
		{"maintenance_type", in.MaintenanceType != ""},
		{"description", in.Description != ""},
		{"start_date", in.StartDate != ""},
	} {
		if !f.present {
			writeError(w, http.StatusBadRequest, "Missing required field: "+f.name)
			return
		}
	}
	start, err := parseDate(in.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format. Use ISO format (YYYY-MM-DD)")
		return
	}
	end, err := parseDate(in.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format. Use ISO format (YYYY-MM-DD)")
		return
	}
	userID := identity(r).UserID

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.engines[in.EngineID]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	cycles := e.TotalCycles
	m := &apiclient.Maintenance{
		ID:              s.id(),
		EngineID:        e.ID,
		MaintenanceType: in.MaintenanceType,
		Description:     in.Description,
		PerformedBy:     apiclient.FlexString(strconv.Itoa(userID)),
		StartDate:       start,
		EndDate:         end,
		CycleCount:      &cycles,
		PartsReplaced:   in.PartsReplaced,
		Notes:           in.Notes,
	}
	s.maintenance[m.ID] = m

	if end.IsZero() {
		e.Status = apiclient.EngineStatusMaintenance
	} else {
		e.Status = apiclient.EngineStatusActive
		s.resolveMaintenanceAlerts(e.ID, userID)
	}
	writeJSON(w, http.StatusCreated, apiclient.MaintenanceResponse{Message: "Maintenance record added successfully", Maintenance: *m})
}

func (s *Server) handleUpdateMaintenance(w http.ResponseWriter, r *http.Request) {
	var in apiclient.MaintenanceInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	end, err := parseDate(in.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format for end_date. Use ISO format (YYYY-MM-DD)")
		return
	}
	userID := identity(r).UserID

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.maintenance[pathID(r)]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	if in.Description != "" {
		m.Description = in.Description
	}
	if in.MaintenanceType != "" {
		m.MaintenanceType = in.MaintenanceType
	}
	if in.Notes != "" {
		m.Notes = in.Notes
	}
	if in.PartsReplaced != nil {
		m.PartsReplaced = in.PartsReplaced
	}
	if !end.IsZero() {
		m.EndDate = end
		if e, ok := s.engines[m.EngineID]; ok {
			e.Status = apiclient.EngineStatusActive
		}
		s.resolveMaintenanceAlerts(m.EngineID, userID)
	}
	writeJSON(w, http.StatusOK, apiclient.MaintenanceResponse{Message: "Maintenance record updated successfully", Maintenance: *m})
}

func (s *Server) handleDeleteMaintenance(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := pathID(r)
	if _, ok := s.maintenance[id]; !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	delete(s.maintenance, id)
	writeJSON(w, http.StatusOK, apiclient.MessageResponse{Message: "Maintenance record deleted successfully"})
}
