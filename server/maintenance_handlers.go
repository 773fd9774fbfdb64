package server

import (
	"html/template"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jrsteele09/engine-dashboard/apiclient"
)

const (
	maintenanceRequiredMessage   = "Please fill in all required fields"
	maintenanceSaveFailedMessage = "Failed to save maintenance record. Please try again."
	maintenanceDeleteFailed      = "Failed to delete maintenance record. Please try again."
	invalidMaintenanceType       = "Please choose a valid maintenance type"
	maintenanceDateMessage       = "Dates must be valid (YYYY-MM-DD)"
	maintenanceEndBeforeStart    = "End date cannot be before the start date"

	maintenanceStatusAll       = "all"
	maintenanceStatusActive    = "active"
	maintenanceStatusCompleted = "completed"
)

// MaintenancePageData is the filtered maintenance list
type MaintenancePageData struct {
	Records  []apiclient.Maintenance
	Engines  []apiclient.Engine
	Types    []string
	Statuses []string
	EngineID int
	Type     string
	Status   string
	Query    string
}

// MaintenanceFormData backs the create and edit forms. ID is zero when creating.
type MaintenanceFormData struct {
	ID      int
	Input   apiclient.MaintenanceInput
	Parts   string
	Engines []apiclient.Engine
	Types   []string
}

func (d MaintenanceFormData) Editing() bool {
	return d.ID > 0
}

// MaintenanceListHandler lists maintenance records (GET /dashboard/maintenance).
// engine_id and type are passed to the API; status and q are applied here.
func (s *Server) MaintenanceListHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("maintenance.html")

	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		engineID, _ := strconv.Atoi(q.Get("engine_id"))
		data := MaintenancePageData{
			Types:    apiclient.MaintenanceTypes(),
			Statuses: []string{maintenanceStatusAll, maintenanceStatusActive, maintenanceStatusCompleted},
			EngineID: engineID,
			Type:     q.Get("type"),
			Status:   q.Get("status"),
			Query:    strings.TrimSpace(q.Get("q")),
		}
		if data.Status != maintenanceStatusActive && data.Status != maintenanceStatusCompleted {
			data.Status = maintenanceStatusAll
		}

		records, err := s.api.ListMaintenance(r.Context(), apiclient.MaintenanceFilter{EngineID: engineID, Type: data.Type})
		if err != nil {
			s.apiFailure(w, r, err)
			return
		}
		engines, err := s.api.ListEngines(r.Context())
		if err != nil {
			s.apiFailure(w, r, err)
			return
		}
		data.Engines = engines
		data.Records = filterMaintenance(withEngineSerials(records, engines), data.Status, data.Query)
		s.renderPage(w, tmpl, http.StatusOK, s.newPage(r, "Maintenance", navMaintenance, data))
	}
}

// withEngineSerials fills in serials the maintenance endpoints leave out
func withEngineSerials(records []apiclient.Maintenance, engines []apiclient.Engine) []apiclient.Maintenance {
	serials := make(map[int]string, len(engines))
	for _, e := range engines {
		serials[e.ID] = e.SerialNumber
	}
	out := slices.Clone(records)
	for i := range out {
		if out[i].EngineSerial == "" {
			out[i].EngineSerial = serials[out[i].EngineID]
		}
	}
	return out
}

func filterMaintenance(records []apiclient.Maintenance, status, query string) []apiclient.Maintenance {
	q := strings.ToLower(query)
	return slices.DeleteFunc(records, func(m apiclient.Maintenance) bool {
		switch status {
		case maintenanceStatusActive:
			if m.Completed() {
				return true
			}
		case maintenanceStatusCompleted:
			if !m.Completed() {
				return true
			}
		}
		if q == "" {
			return false
		}
		return !strings.Contains(strings.ToLower(m.Description), q) &&
			!strings.Contains(strings.ToLower(m.EngineSerial), q) &&
			!strings.Contains(strings.ToLower(m.MaintenanceType), q)
	})
}

// MaintenanceNewHandler shows an empty maintenance form. ?engine_id= preselects
// the engine.
func (s *Server) MaintenanceNewHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("maintenance_form.html")

	return func(w http.ResponseWriter, r *http.Request) {
		engines, err := s.api.ListEngines(r.Context())
		if err != nil {
			s.apiFailure(w, r, err)
			return
		}
		engineID, _ := strconv.Atoi(r.URL.Query().Get("engine_id"))
		data := MaintenanceFormData{
			Input: apiclient.MaintenanceInput{
				EngineID:        engineID,
				MaintenanceType: apiclient.MaintenanceScheduled,
				StartDate:       time.Now().Format(time.DateOnly),
			},
			Engines: engines,
			Types:   apiclient.MaintenanceTypes(),
		}
		s.renderPage(w, tmpl, http.StatusOK, s.newPage(r, "Add Maintenance Record", navMaintenance, data))
	}
}

// MaintenanceCreateHandler processes the new maintenance form
func (s *Server) MaintenanceCreateHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("maintenance_form.html")

	return func(w http.ResponseWriter, r *http.Request) {
		s.saveMaintenance(w, r, tmpl, 0)
	}
}

// MaintenanceEditHandler shows the form for an existing record
func (s *Server) MaintenanceEditHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("maintenance_form.html")

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "maintenanceID")
		if !ok {
			s.renderError(w, r, http.StatusNotFound, "Maintenance record not found")
			return
		}
		record, err := s.api.GetMaintenance(r.Context(), id)
		if err != nil {
			s.apiFailure(w, r, err)
			return
		}
		engines, err := s.api.ListEngines(r.Context())
		if err != nil {
			s.apiFailure(w, r, err)
			return
		}
		data := MaintenanceFormData{
			ID: id,
			Input: apiclient.MaintenanceInput{
				EngineID:        record.EngineID,
				MaintenanceType: record.MaintenanceType,
				Description:     record.Description,
				StartDate:       record.StartDate.Date(),
				EndDate:         record.EndDate.Date(),
				Notes:           record.Notes,
			},
			Parts:   record.PartsReplaced.String(),
			Engines: engines,
			Types:   apiclient.MaintenanceTypes(),
		}
		s.renderPage(w, tmpl, http.StatusOK, s.newPage(r, "Edit Maintenance Record", navMaintenance, data))
	}
}

// MaintenanceUpdateHandler processes the edit form
func (s *Server) MaintenanceUpdateHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("maintenance_form.html")

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "maintenanceID")
		if !ok {
			s.renderError(w, r, http.StatusNotFound, "Maintenance record not found")
			return
		}
		s.saveMaintenance(w, r, tmpl, id)
	}
}

// saveMaintenance validates the form and creates (id 0) or updates the record
func (s *Server) saveMaintenance(w http.ResponseWriter, r *http.Request, tmpl *template.Template, id int) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, invalidFormMessage, http.StatusBadRequest)
		return
	}
	engineID, _ := strconv.Atoi(r.FormValue("engine_id"))
	data := MaintenanceFormData{
		ID: id,
		Input: apiclient.MaintenanceInput{
			EngineID:        engineID,
			MaintenanceType: r.FormValue("maintenance_type"),
			Description:     strings.TrimSpace(r.FormValue("description")),
			StartDate:       strings.TrimSpace(r.FormValue("start_date")),
			EndDate:         strings.TrimSpace(r.FormValue("end_date")),
			PartsReplaced:   apiclient.SplitParts(r.FormValue("parts_replaced")),
			Notes:           strings.TrimSpace(r.FormValue("notes")),
		},
		Parts: strings.TrimSpace(r.FormValue("parts_replaced")),
		Types: apiclient.MaintenanceTypes(),
	}
	title := "Add Maintenance Record"
	if data.Editing() {
		title = "Edit Maintenance Record"
	}

	fail := func(status int, msg string) {
		engines, err := s.api.ListEngines(r.Context())
		if err != nil {
			s.apiFailure(w, r, err)
			return
		}
		data.Engines = engines
		page := s.newPage(r, title, navMaintenance, data)
		page.Error = msg
		s.renderPage(w, tmpl, status, page)
	}

	if msg := validateMaintenance(data.Input); msg != "" {
		fail(http.StatusBadRequest, msg)
		return
	}

	var (
		resp apiclient.MaintenanceResponse
		err  error
	)
	if data.Editing() {
		resp, err = s.api.UpdateMaintenance(r.Context(), id, data.Input)
	} else {
		resp, err = s.api.CreateMaintenance(r.Context(), data.Input)
	}
	if err != nil {
		if msg, ok := formError(err); ok {
			fail(apiclient.StatusCode(err), fallback(msg, maintenanceSaveFailedMessage))
			return
		}
		s.apiFailure(w, r, err)
		return
	}
	redirectWithNotice(w, r, RouteMaintenance, fallback(resp.Message, "Maintenance record saved"))
}

// validateMaintenance returns the first problem with the form, or ""
func validateMaintenance(in apiclient.MaintenanceInput) string {
	if in.EngineID <= 0 || in.MaintenanceType == "" || in.Description == "" || in.StartDate == "" {
		return maintenanceRequiredMessage
	}
	if !slices.Contains(apiclient.MaintenanceTypes(), in.MaintenanceType) {
		return invalidMaintenanceType
	}
	start, err := time.Parse(time.DateOnly, in.StartDate)
	if err != nil {
		return maintenanceDateMessage
	}
	if in.EndDate != "" {
		end, err := time.Parse(time.DateOnly, in.EndDate)
		if err != nil {
			return maintenanceDateMessage
		}
		if end.Before(start) {
			return maintenanceEndBeforeStart
		}
	}
	return ""
}

// MaintenanceDeleteHandler removes a maintenance record
func (s *Server) MaintenanceDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "maintenanceID")
		if !ok {
			s.renderError(w, r, http.StatusNotFound, "Maintenance record not found")
			return
		}
		resp, err := s.api.DeleteMaintenance(r.Context(), id)
		if err != nil {
			if msg, ok := formError(err); ok {
				redirectWithError(w, r, RouteMaintenance, fallback(msg, maintenanceDeleteFailed))
				return
			}
			s.apiFailure(w, r, err)
			return
		}
		redirectWithNotice(w, r, RouteMaintenance, fallback(resp.Message, "Maintenance record deleted"))
	}
}
