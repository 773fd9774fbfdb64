package apifake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/jrsteele09/engine-dashboard/apiclient"
	"github.com/jrsteele09/engine-dashboard/cyclegen"
	"github.com/jrsteele09/engine-dashboard/users"
)

// PredictionMinCycles is how many cycles an engine needs before predictions run
const PredictionMinCycles = 50

type engine struct {
	apiclient.Engine
	cycles []apiclient.EngineCycle
}

// AddEngine stores an engine directly, bypassing role checks
func (s *Server) AddEngine(in apiclient.EngineInput) apiclient.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.newEngine(in)
	return e.Engine
}

// newEngine stores a new engine; callers hold s.mu
func (s *Server) newEngine(in apiclient.EngineInput) *engine {
	status := in.Status
	if status == "" {
		status = apiclient.EngineStatusActive
	}
	e := &engine{Engine: apiclient.Engine{
		ID:           s.id(),
		SerialNumber: in.SerialNumber,
		Model:        in.Model,
		AircraftID:   in.AircraftID,
		Status:       status,
		CreatedAt:    now(),
		UpdatedAt:    now(),
	}}
	if in.InstallationDate != "" {
		if t, err := time.Parse(time.DateOnly, in.InstallationDate); err == nil {
			e.InstallationDate = apiclient.Time{Time: t}
		}
	}
	s.engines[e.ID] = e
	return e
}

// SetPrediction attaches prediction results to the latest cycle of an engine
func (s *Server) SetPrediction(engineID int, rul, failureProbability float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.engines[engineID]
	if !ok || len(e.cycles) == 0 {
		return fmt.Errorf("engine %d has no cycles", engineID)
	}
	last := &e.cycles[len(e.cycles)-1]
	last.RUL = &rul
	last.FailureProbability = &failureProbability
	return nil
}

// Cycles returns the stored cycles of an engine in cycle order
func (s *Server) Cycles(engineID int) []apiclient.EngineCycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.engines[engineID]
	if !ok {
		return nil
	}
	return slices.Clone(e.cycles)
}

// listed decorates an engine the way GET /engines does; callers hold s.mu
func (s *Server) listed(e *engine) apiclient.Engine {
	out := e.Engine
	out.Alerts = 0
	for _, a := range s.alerts {
		if a.EngineID == e.ID && !a.Resolved {
			out.Alerts++
		}
	}
	if len(e.cycles) > 0 {
		last := e.cycles[len(e.cycles)-1]
		cycle := last.Cycle
		out.LatestCycle = &cycle
		out.RUL = last.RUL
		out.FailureProbability = last.FailureProbability
		out.MaintenanceDue = last.FailureProbability != nil && *last.FailureProbability > apiclient.MaintenanceDueThreshold
	}
	return out
}

func (s *Server) sortedEngines() []*engine {
	out := make([]*engine, 0, len(s.engines))
	for _, e := range s.engines {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) handleListEngines(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := []apiclient.Engine{}
	for _, e := range s.sortedEngines() {
		result = append(result, s.listed(e))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetEngine(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.engines[pathID(r)]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}

	cycles := e.cycles
	if len(cycles) > PredictionMinCycles {
		cycles = cycles[len(cycles)-PredictionMinCycles:]
	}
	detail := apiclient.EngineDetail{
		Engine:             e.Engine,
		Cycles:             append([]apiclient.EngineCycle{}, cycles...),
		MaintenanceHistory: []apiclient.Maintenance{},
	}
	for _, m := range s.sortedMaintenance() {
		if m.EngineID == e.ID {
			detail.MaintenanceHistory = append(detail.MaintenanceHistory, *m)
		}
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleCreateEngine(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, "add engines", users.RoleAdmin, users.RoleEngineer) {
		return
	}
	var in apiclient.EngineInput
	if err := decodeBody(r, &in); err != nil || in.SerialNumber == "" {
		writeError(w, http.StatusBadRequest, "Serial number is required")
		return
	}
	if in.InstallationDate != "" {
		if _, err := time.Parse(time.DateOnly, in.InstallationDate); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format for installation_date. Use ISO format (YYYY-MM-DD)")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.engines {
		if e.SerialNumber == in.SerialNumber {
			writeError(w, http.StatusConflict, "Engine with this serial number already exists")
			return
		}
	}
	e := s.newEngine(in)
	writeJSON(w, http.StatusCreated, apiclient.EngineResponse{Message: "Engine added successfully", Engine: e.Engine})
}

func (s *Server) handleUpdateEngine(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, "update engines", users.RoleAdmin, users.RoleEngineer) {
		return
	}
	var in apiclient.EngineInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.engines[pathID(r)]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	if in.Status != "" && !slices.Contains(apiclient.EngineStatuses(), in.Status) {
		writeError(w, http.StatusBadRequest, "Invalid status. Must be one of: active, maintenance, retired")
		return
	}
	if in.InstallationDate != "" {
		t, err := time.Parse(time.DateOnly, in.InstallationDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format for installation_date. Use ISO format (YYYY-MM-DD)")
			return
		}
		e.InstallationDate = apiclient.Time{Time: t}
	}
	if in.Model != "" {
		e.Model = in.Model
	}
	if in.AircraftID != "" {
		e.AircraftID = in.AircraftID
	}
	if in.Status != "" {
		e.Status = in.Status
	}
	e.UpdatedAt = now()
	writeJSON(w, http.StatusOK, apiclient.EngineResponse{Message: "Engine updated successfully", Engine: e.Engine})
}

func (s *Server) handleDeleteEngine(w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, "delete engines", users.RoleAdmin) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := pathID(r)
	if _, ok := s.engines[id]; !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	delete(s.engines, id)
	for mid, m := range s.maintenance {
		if m.EngineID == id {
			delete(s.maintenance, mid)
		}
	}
	for aid, a := range s.alerts {
		if a.EngineID == id {
			delete(s.alerts, aid)
		}
	}
	writeJSON(w, http.StatusOK, apiclient.MessageResponse{Message: "Engine and all associated data deleted successfully"})
}

func (s *Server) handleAddCycle(w http.ResponseWriter, r *http.Request) {
	var raw map[string]json.RawMessage
	if err := decodeBody(r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, ok := raw["cycle"]; !ok {
		writeError(w, http.StatusBadRequest, "Cycle number is required")
		return
	}
	var cycle int
	if err := json.Unmarshal(raw["cycle"], &cycle); err != nil {
		writeError(w, http.StatusBadRequest, "Cycle must be a valid integer")
		return
	}
	if cycle <= 0 {
		writeError(w, http.StatusBadRequest, "Cycle must be a positive integer")
		return
	}
	vals := make(map[string]float64, len(raw))
	for k, v := range raw {
		var f float64
		if k != "cycle" && json.Unmarshal(v, &f) == nil {
			vals[k] = f
		}
	}
	reading := cyclegen.FromValues(cycle, vals)

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.engines[pathID(r)]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	for _, c := range e.cycles {
		if c.Cycle == cycle {
			writeError(w, http.StatusConflict, fmt.Sprintf("Cycle data for this engine already exists for cycle %d. Try using cycle %d.", cycle, e.TotalCycles+1))
			return
		}
	}

	stored := apiclient.EngineCycle{
		ID:         s.id(),
		EngineID:   e.ID,
		Cycle:      cycle,
		Timestamp:  now(),
		Settings:   map[string]float64{},
		SensorData: map[string]float64{},
	}
	for i, v := range reading.Settings {
		stored.Settings[cyclegen.SettingKey(i)] = v
	}
	for i, v := range reading.Sensors {
		stored.SensorData[cyclegen.SensorKey(i)] = v
	}
	e.cycles = append(e.cycles, stored)
	sort.Slice(e.cycles, func(i, j int) bool { return e.cycles[i].Cycle < e.cycles[j].Cycle })
	if cycle > e.TotalCycles {
		e.TotalCycles = cycle
	}

	msg := "Cycle data added and predictions updated"
	if n := len(e.cycles); n < PredictionMinCycles {
		msg = "Cycle data added. Need " + strconv.Itoa(PredictionMinCycles-n) + " more cycles for predictions"
	}
	writeJSON(w, http.StatusCreated, apiclient.CycleResponse{Message: msg, Cycle: stored})
}
