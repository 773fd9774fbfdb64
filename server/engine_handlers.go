package server

import (
	"net/http"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/jrsteele09/engine-dashboard/apiclient"
)

const (
	serialRequiredMessage    = "Serial number is required"
	serialFormatMessage      = "Serial number can only contain letters, numbers, and hyphens"
	installDateFutureMessage = "Installation date cannot be in the future"
	installDateFormatMessage = "Installation date must be a valid date (YYYY-MM-DD)"
	invalidStatusMessage     = "Please choose a valid status"
	engineSaveFailedMessage  = "Failed to save engine. Please try again."
	engineDeleteFailed       = "Failed to delete engine. Please try again."
)

var serialPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// EngineModels are the models offered on the engine form
var EngineModels = []string{
	"CFM56-3", "CFM56-5B", "CFM56-7B", "GE90-115B", "GE9X",
	"Trent 1000", "Trent XWB", "PW1000G", "LEAP-1A", "LEAP-1B",
}

// EnginesPageData is the engine list with its search term
type EnginesPageData struct {
	Engines []apiclient.Engine
	Query   string
	Total   int
}

// EngineFormData backs the create and edit forms. ID is zero when creating.
type EngineFormData struct {
	ID       int
	Input    apiclient.EngineInput
	Models   []string
	Statuses []string
	Today    string
}

func (d EngineFormData) Editing() bool {
	return d.ID > 0
}

// EngineDetailData is one engine with the derived prediction panel
type EngineDetailData struct {
	apiclient.EngineDetail
	Current           *apiclient.EngineCycle
	CyclesNeeded      int
	RecentCycles      []apiclient.EngineCycle
	DueForMaintenance bool
}

// EnginesListHandler lists engines, optionally filtered by ?q= (GET /dashboard/engines)
func (s *Server) EnginesListHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("engines.html")

	return func(w http.ResponseWriter, r *http.Request) {
		engines, err := s.api.ListEngines(r.Context())
		if err != nil {
			s.apiFailure(w, r, err)
			return
		}
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		data := EnginesPageData{
			Engines: filterEngines(engines, query),
			Query:   query,
			Total:   len(engines),
		}
		s.renderPage(w, tmpl, http.StatusOK, s.newPage(r, "Engines", navEngines, data))
	}
}

// filterEngines keeps engines whose serial, model or aircraft contains query,
// ignoring case
func filterEngines(engines []apiclient.Engine, query string) []apiclient.Engine {
	if query == "" {
		return engines
	}
	q := strings.ToLower(query)
	return slices.DeleteFunc(slices.Clone(engines), func(e apiclient.Engine) bool {
		return !strings.Contains(strings.ToLower(e.SerialNumber), q) &&
			!strings.Contains(strings.ToLower(e.Model), q) &&
			!strings.Contains(strings.ToLower(e.AircraftID), q)
	})
}

// EngineDetailHandler shows one engine with its cycles and maintenance history
func (s *Server) EngineDetailHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("engine_detail.html")

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "engineID")
		if !ok {
			s.renderError(w, r, http.StatusNotFound, "Engine not found")
			return
		}
		detail, err := s.api.GetEngine(r.Context(), id)
		if err != nil {
			s.apiFailure(w, r, err)
			return
		}
		s.renderPage(w, tmpl, http.StatusOK, s.newPage(r, detail.SerialNumber, navEngines, newEngineDetailData(detail)))
	}
}

// predictionMinCycles is how many cycles the API needs before it predicts
const predictionMinCycles = 50

// recentCyclesShown caps the cycle table on the detail page
const recentCyclesShown = 10

func newEngineDetailData(detail apiclient.EngineDetail) EngineDetailData {
	data := EngineDetailData{EngineDetail: detail, DueForMaintenance: detail.MaintenanceDue}
	if latest, ok := detail.Latest(); ok {
		data.Current = &latest
		if latest.FailureProbability != nil && *latest.FailureProbability > apiclient.MaintenanceDueThreshold {
			data.DueForMaintenance = true
		}
	}
	if detail.TotalCycles < predictionMinCycles {
		data.CyclesNeeded = predictionMinCycles - detail.TotalCycles
	}

	// newest first
	recent := slices.Clone(detail.Cycles)
	slices.Reverse(recent)
	if len(recent) > recentCyclesShown {
		recent = recent[:recentCyclesShown]
	}
	data.RecentCycles = recent
	return data
}

// EngineNewHandler shows an empty engine form (GET /dashboard/engines/new)
func (s *Server) EngineNewHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("engine_form.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := newEngineFormData(0, apiclient.EngineInput{
			Status:           apiclient.EngineStatusActive,
			InstallationDate: time.Now().Format(time.DateOnly),
		})
		s.renderPage(w, tmpl, http.StatusOK, s.newPage(r, "Add Engine", navEngines, data))
	}
}

// EngineCreateHandler processes the new engine form
func (s *Server) EngineCreateHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("engine_form.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, invalidFormMessage, http.StatusBadRequest)
			return
		}
		data := newEngineFormData(0, engineInputFromForm(r))

		fail := func(status int, msg string) {
			page := s.newPage(r, "Add Engine", navEngines, data)
			page.Error = msg
			s.renderPage(w, tmpl, status, page)
		}

		if msg := validateEngine(data.Input, true, time.Now()); msg != "" {
			fail(http.StatusBadRequest, msg)
			return
		}

		resp, err := s.api.CreateEngine(r.Context(), data.Input)
		if err != nil {
			if msg, ok := formError(err); ok {
				fail(apiclient.StatusCode(err), fallback(msg, engineSaveFailedMessage))
				return
			}
			s.apiFailure(w, r, err)
			return
		}
		redirectWithNotice(w, r, RouteEngines, fallback(resp.Message, "Engine added successfully!"))
	}
}

// EngineEditHandler shows the form for an existing engine
func (s *Server) EngineEditHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("engine_form.html")

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "engineID")
		if !ok {
			s.renderError(w, r, http.StatusNotFound, "Engine not found")
			return
		}
		detail, err := s.api.GetEngine(r.Context(), id)
		if err != nil {
			s.apiFailure(w, r, err)
			return
		}
		var installed string
		if !detail.InstallationDate.IsZero() {
			installed = detail.InstallationDate.Date()
		}
		data := newEngineFormData(id, apiclient.EngineInput{
			SerialNumber:     detail.SerialNumber,
			Model:            detail.Model,
			AircraftID:       detail.AircraftID,
			Status:           detail.Status,
			InstallationDate: installed,
		})
		s.renderPage(w, tmpl, http.StatusOK, s.newPage(r, "Edit Engine", navEngines, data))
	}
}

// EngineUpdateHandler processes the edit form. The serial number cannot change.
func (s *Server) EngineUpdateHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("engine_form.html")

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "engineID")
		if !ok {
			s.renderError(w, r, http.StatusNotFound, "Engine not found")
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, invalidFormMessage, http.StatusBadRequest)
			return
		}
		data := newEngineFormData(id, engineInputFromForm(r))

		fail := func(status int, msg string) {
			page := s.newPage(r, "Edit Engine", navEngines, data)
			page.Error = msg
			s.renderPage(w, tmpl, status, page)
		}

		if msg := validateEngine(data.Input, false, time.Now()); msg != "" {
			fail(http.StatusBadRequest, msg)
			return
		}

		update := data.Input
		update.SerialNumber = ""
		resp, err := s.api.UpdateEngine(r.Context(), id, update)
		if err != nil {
			if msg, ok := formError(err); ok {
				fail(apiclient.StatusCode(err), fallback(msg, engineSaveFailedMessage))
				return
			}
			s.apiFailure(w, r, err)
			return
		}
		redirectWithNotice(w, r, enginePath(id), fallback(resp.Message, "Engine updated successfully!"))
	}
}

// EngineDeleteHandler removes an engine and everything recorded against it
func (s *Server) EngineDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "engineID")
		if !ok {
			s.renderError(w, r, http.StatusNotFound, "Engine not found")
			return
		}
		resp, err := s.api.DeleteEngine(r.Context(), id)
		if err != nil {
			if msg, ok := formError(err); ok {
				redirectWithError(w, r, enginePath(id), fallback(msg, engineDeleteFailed))
				return
			}
			s.apiFailure(w, r, err)
			return
		}
		redirectWithNotice(w, r, RouteEngines, fallback(resp.Message, "Engine deleted successfully"))
	}
}

func newEngineFormData(id int, in apiclient.EngineInput) EngineFormData {
	return EngineFormData{
		ID:       id,
		Input:    in,
		Models:   EngineModels,
		Statuses: apiclient.EngineStatuses(),
		Today:    time.Now().Format(time.DateOnly),
	}
}

func engineInputFromForm(r *http.Request) apiclient.EngineInput {
	return apiclient.EngineInput{
		SerialNumber:     strings.TrimSpace(r.FormValue("serial_number")),
		Model:            strings.TrimSpace(r.FormValue("model")),
		AircraftID:       strings.TrimSpace(r.FormValue("aircraft_id")),
		Status:           r.FormValue("status"),
		InstallationDate: strings.TrimSpace(r.FormValue("installation_date")),
	}
}

// validateEngine returns the first problem with the form, or ""
func validateEngine(in apiclient.EngineInput, creating bool, now time.Time) string {
	if creating {
		switch {
		case in.SerialNumber == "":
			return serialRequiredMessage
		case !serialPattern.MatchString(in.SerialNumber):
			return serialFormatMessage
		}
	}
	if in.Status != "" && !slices.Contains(apiclient.EngineStatuses(), in.Status) {
		return invalidStatusMessage
	}
	if in.InstallationDate != "" {
		installed, err := time.ParseInLocation(time.DateOnly, in.InstallationDate, now.Location())
		if err != nil {
			return installDateFormatMessage
		}
		if installed.After(now) {
			return installDateFutureMessage
		}
	}
	return ""
}

func fallback(msg, def string) string {
	if msg == "" {
		return def
	}
	return msg
}
