package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/engine-dashboard/apiclient"
	"github.com/jrsteele09/engine-dashboard/cyclegen"
)

const (
	defaultBatchCount = 10
	maxBatchCount     = 50

	cycleSaveFailedMessage = "Failed to add cycle data. Please try again."
	invalidCycleMessage    = "Cycle number must be a positive whole number"
	invalidBatchMessage    = "Number of cycles must be between 1 and 50"
	invalidModeMessage     = "Please choose a valid degradation mode"
	unknownSampleMessage   = "Unknown sample data set"

	actionSubmit    = "submit"
	actionRandomize = "randomize"
	actionSample    = "sample"
)

// CycleField is one numeric input on the cycle form
type CycleField struct {
	Key   string
	Value float64
	Trend string
}

// CycleFormData backs the single and batch cycle entry form
type CycleFormData struct {
	EngineID     int
	EngineSerial string
	NextCycle    int

	Cycle    int
	Settings []CycleField
	Sensors  []CycleField

	Batch      bool
	BatchStart int
	BatchCount int
	Mode       cyclegen.Mode
	Modes      []cyclegen.Mode
	Samples    []cyclegen.Sample
}

func trendName(t cyclegen.Trend) string {
	switch t {
	case cyclegen.TrendIncreasing:
		return "increasing"
	case cyclegen.TrendDecreasing:
		return "decreasing"
	case cyclegen.TrendStable:
		return "stable"
	}
	return ""
}

// setReading copies r into the form fields
func (d *CycleFormData) setReading(r cyclegen.Reading) {
	d.Cycle = r.Cycle
	d.Settings = make([]CycleField, cyclegen.SettingCount)
	for i, v := range r.Settings {
		d.Settings[i] = CycleField{Key: cyclegen.SettingKey(i), Value: v}
	}
	d.Sensors = make([]CycleField, cyclegen.SensorCount)
	for i, v := range r.Sensors {
		key := cyclegen.SensorKey(i)
		d.Sensors[i] = CycleField{Key: key, Value: v, Trend: trendName(cyclegen.TrendOf(key))}
	}
}

func (d CycleFormData) reading() cyclegen.Reading {
	r := cyclegen.Reading{Cycle: d.Cycle}
	for i, f := range d.Settings {
		r.Settings[i] = f.Value
	}
	for i, f := range d.Sensors {
		r.Sensors[i] = f.Value
	}
	return r
}

// BatchEnd is the last cycle number a batch would submit
func (d CycleFormData) BatchEnd() int {
	return d.BatchStart + d.BatchCount - 1
}

func newCycleFormData(detail apiclient.EngineDetail) CycleFormData {
	next := detail.NextCycle()
	base := cyclegen.Default()
	if latest, ok := detail.Latest(); ok {
		// continue from the engine's last reading so generated batches keep degrading
		base = latest.Reading()
	}
	base.Cycle = next

	d := CycleFormData{
		EngineID:     detail.ID,
		EngineSerial: detail.SerialNumber,
		NextCycle:    next,
		BatchStart:   next,
		BatchCount:   defaultBatchCount,
		Mode:         cyclegen.ModeNormal,
		Modes:        cyclegen.Modes(),
		Samples:      cyclegen.Samples(),
	}
	d.setReading(base)
	return d
}

// CycleFormHandler shows the cycle entry form for an engine
func (s *Server) CycleFormHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("cycle_form.html")

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
		s.renderPage(w, tmpl, http.StatusOK, s.newPage(r, "Add Cycle Data", navEngines, newCycleFormData(detail)))
	}
}

// CycleSubmissionHandler handles the cycle form. The action field selects between
// submitting, randomizing the values, and loading a sample data set.
func (s *Server) CycleSubmissionHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("cycle_form.html")

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
		detail, err := s.api.GetEngine(r.Context(), id)
		if err != nil {
			s.apiFailure(w, r, err)
			return
		}

		data := newCycleFormData(detail)
		msg := cycleFormFromRequest(r, &data)

		show := func(status int, errMsg string) {
			page := s.newPage(r, "Add Cycle Data", navEngines, data)
			page.Error = errMsg
			s.renderPage(w, tmpl, status, page)
		}
		if msg != "" {
			show(http.StatusBadRequest, msg)
			return
		}

		switch r.FormValue("action") {
		case actionRandomize:
			data.setReading(cyclegen.Randomize(data.reading(), s.rng))
			show(http.StatusOK, "")
			return
		case actionSample:
			sample, ok := cyclegen.SampleByName(r.FormValue("sample"))
			if !ok {
				show(http.StatusBadRequest, unknownSampleMessage)
				return
			}
			reading := sample.Reading
			reading.Cycle = data.Cycle
			data.setReading(reading)
			show(http.StatusOK, "")
			return
		}

		if data.Batch {
			readings := cyclegen.Batch(data.reading(), data.BatchStart, data.BatchCount, data.Mode, s.rng)
			_, err = s.api.AddCycles(r.Context(), id, readings)
		} else {
			_, err = s.api.AddCycle(r.Context(), id, data.reading())
		}
		if err != nil {
			if msg, ok := formError(err); ok {
				show(apiclient.StatusCode(err), fallback(msg, cycleSaveFailedMessage))
				return
			}
			s.apiFailure(w, r, err)
			return
		}

		notice := fmt.Sprintf("Successfully added cycle #%d", data.Cycle)
		if data.Batch {
			notice = fmt.Sprintf("Successfully added %d cycles (%d-%d)", data.BatchCount, data.BatchStart, data.BatchEnd())
		}
		s.logger.Info().Int("engine", id).Str("result", notice).Msg("Cycle data added")
		redirectWithNotice(w, r, routePath(RouteEngineCycles, id), notice)
	}
}

// cycleFormFromRequest overlays the submitted values on data and returns a message
// for the first invalid field, or ""
func cycleFormFromRequest(r *http.Request, data *CycleFormData) string {
	if v := strings.TrimSpace(r.FormValue("cycle")); v != "" {
		cycle, err := strconv.Atoi(v)
		if err != nil || cycle <= 0 {
			return invalidCycleMessage
		}
		data.Cycle = cycle
	}
	for _, fields := range [][]CycleField{data.Settings, data.Sensors} {
		for i := range fields {
			v := strings.TrimSpace(r.FormValue(fields[i].Key))
			if v == "" {
				continue
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Sprintf("Value for %s must be a number", fields[i].Key)
			}
			fields[i].Value = f
		}
	}

	data.Batch = r.FormValue("batch") == "on"
	if v := strings.TrimSpace(r.FormValue("batch_start")); v != "" {
		start, err := strconv.Atoi(v)
		if err != nil || start <= 0 {
			return invalidCycleMessage
		}
		data.BatchStart = start
	}
	if v := strings.TrimSpace(r.FormValue("batch_count")); v != "" {
		count, err := strconv.Atoi(v)
		if err != nil || count < 1 || count > maxBatchCount {
			return invalidBatchMessage
		}
		data.BatchCount = count
	}
	if v := r.FormValue("mode"); v != "" {
		mode, err := cyclegen.ParseMode(v)
		if err != nil {
			return invalidModeMessage
		}
		data.Mode = mode
	}
	return ""
}
