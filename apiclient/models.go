package apiclient

import (
	"net/url"
	"strconv"

	"github.com/jrsteele09/engine-dashboard/cyclegen"
	"github.com/jrsteele09/engine-dashboard/users"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message     string     `json:"message"`
	AccessToken string     `json:"access_token"`
	User        users.User `json:"user"`
}

type RegisterRequest struct {
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     users.Role `json:"role,omitempty"`
}

type RegisterResponse struct {
	Message string     `json:"message"`
	User    users.User `json:"user"`
}

// MessageResponse is the body of replies that only confirm an action
type MessageResponse struct {
	Message string `json:"message"`
}

const (
	EngineStatusActive      = "active"
	EngineStatusMaintenance = "maintenance"
	EngineStatusRetired     = "retired"
)

func EngineStatuses() []string {
	return []string{EngineStatusActive, EngineStatusMaintenance, EngineStatusRetired}
}

// MaintenanceDueThreshold is the failure probability above which an engine is
// flagged for maintenance
const MaintenanceDueThreshold = 0.7

// Engine is an engine as listed by GET /engines. The prediction fields are only
// present once the engine has cycle data.
type Engine struct {
	ID                 int      `json:"id"`
	SerialNumber       string   `json:"serial_number"`
	Model              string   `json:"model"`
	AircraftID         string   `json:"aircraft_id"`
	TotalCycles        int      `json:"total_cycles"`
	Status             string   `json:"status"`
	InstallationDate   Time     `json:"installation_date"`
	CreatedAt          Time     `json:"created_at"`
	UpdatedAt          Time     `json:"updated_at"`
	Alerts             int      `json:"alerts"`
	LatestCycle        *int     `json:"latest_cycle,omitempty"`
	RUL                *float64 `json:"rul,omitempty"`
	FailureProbability *float64 `json:"failure_probability,omitempty"`
	MaintenanceDue     bool     `json:"maintenance_due"`
}

// EngineDetail is GET /engines/{id}: the engine with its most recent cycles in
// chronological order and its maintenance history
type EngineDetail struct {
	Engine
	Cycles             []EngineCycle `json:"cycles"`
	MaintenanceHistory []Maintenance `json:"maintenance_history"`
}

// Latest returns the most recent cycle, if any
func (d EngineDetail) Latest() (EngineCycle, bool) {
	if len(d.Cycles) == 0 {
		return EngineCycle{}, false
	}
	return d.Cycles[len(d.Cycles)-1], true
}

// NextCycle is the cycle number the entry form proposes for new data
func (d EngineDetail) NextCycle() int {
	return d.TotalCycles + 1
}

// EngineCycle is a stored cycle with its predictions
type EngineCycle struct {
	ID                 int                `json:"id"`
	EngineID           int                `json:"engine_id"`
	Cycle              int                `json:"cycle"`
	Timestamp          Time               `json:"timestamp"`
	Settings           map[string]float64 `json:"settings"`
	SensorData         map[string]float64 `json:"sensor_data"`
	RUL                *float64           `json:"rul"`
	FailureProbability *float64           `json:"failure_probability"`
	AnomalyScore       *float64           `json:"anomaly_score"`
}

// Reading converts the stored cycle back into a submittable reading
func (c EngineCycle) Reading() cyclegen.Reading {
	vals := make(map[string]float64, len(c.Settings)+len(c.SensorData))
	for k, v := range c.Settings {
		vals[k] = v
	}
	for k, v := range c.SensorData {
		vals[k] = v
	}
	return cyclegen.FromValues(c.Cycle, vals)
}

// EngineInput is the body of engine create and update calls. Empty fields are left
// out so an update only touches what was filled in.
type EngineInput struct {
	SerialNumber     string `json:"serial_number,omitempty"`
	Model            string `json:"model,omitempty"`
	AircraftID       string `json:"aircraft_id,omitempty"`
	Status           string `json:"status,omitempty"`
	InstallationDate string `json:"installation_date,omitempty"`
}

type EngineResponse struct {
	Message string `json:"message"`
	Engine  Engine `json:"engine"`
}

type CycleResponse struct {
	Message string      `json:"message"`
	Cycle   EngineCycle `json:"cycle"`
}

// Maintenance is a maintenance record. PerformedBy is a user id on maintenance
// endpoints and a username on the dashboard.
type Maintenance struct {
	ID              int        `json:"id"`
	EngineID        int        `json:"engine_id"`
	EngineSerial    string     `json:"engine_serial,omitempty"`
	MaintenanceType string     `json:"maintenance_type"`
	Description     string     `json:"description"`
	PerformedBy     FlexString `json:"performed_by"`
	StartDate       Time       `json:"start_date"`
	EndDate         Time       `json:"end_date"`
	CycleCount      *int       `json:"cycle_count,omitempty"`
	PartsReplaced   Parts      `json:"parts_replaced"`
	Notes           string     `json:"notes"`
}

// Completed reports whether the work has an end date
func (m Maintenance) Completed() bool {
	return !m.EndDate.IsZero()
}

const (
	MaintenanceScheduled   = "scheduled"
	MaintenanceUnscheduled = "unscheduled"
	MaintenanceOverhaul    = "overhaul"
	MaintenanceInspection  = "inspection"
	MaintenanceRepair      = "repair"
)

func MaintenanceTypes() []string {
	return []string{MaintenanceScheduled, MaintenanceUnscheduled, MaintenanceOverhaul, MaintenanceInspection, MaintenanceRepair}
}

type MaintenanceInput struct {
	EngineID        int      `json:"engine_id,omitempty"`
	MaintenanceType string   `json:"maintenance_type,omitempty"`
	Description     string   `json:"description,omitempty"`
	StartDate       string   `json:"start_date,omitempty"`
	EndDate         string   `json:"end_date,omitempty"`
	PartsReplaced   []string `json:"parts_replaced,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

type MaintenanceResponse struct {
	Message     string      `json:"message"`
	Maintenance Maintenance `json:"maintenance"`
}

// MaintenanceFilter narrows GET /maintenance; zero values are not sent
type MaintenanceFilter struct {
	EngineID int
	Type     string
}

func (f MaintenanceFilter) values() url.Values {
	v := url.Values{}
	if f.EngineID > 0 {
		v.Set("engine_id", strconv.Itoa(f.EngineID))
	}
	if f.Type != "" {
		v.Set("type", f.Type)
	}
	return v
}

// Alert is an engine alert. ResolvedBy is a username in listings and a user id in
// update replies.
type Alert struct {
	ID           int        `json:"id"`
	EngineID     int        `json:"engine_id"`
	EngineSerial string     `json:"engine_serial,omitempty"`
	AlertType    string     `json:"alert_type"`
	Message      string     `json:"message"`
	CreatedAt    Time       `json:"created_at"`
	IsRead       bool       `json:"is_read"`
	Resolved     bool       `json:"resolved"`
	ResolvedBy   FlexString `json:"resolved_by"`
	ResolvedAt   Time       `json:"resolved_at"`
}

// AlertUpdate is the body of PUT /alerts/{id}. Resolving cannot be undone.
type AlertUpdate struct {
	IsRead   *bool `json:"is_read,omitempty"`
	Resolved bool  `json:"resolved,omitempty"`
}

type AlertResponse struct {
	Message string `json:"message"`
	Alert   Alert  `json:"alert"`
}

type Summary struct {
	TotalEngines       int `json:"total_engines"`
	ActiveEngines      int `json:"active_engines"`
	MaintenanceEngines int `json:"maintenance_engines"`
	AttentionNeeded    int `json:"attention_needed"`
}

type CriticalEngine struct {
	ID                 int      `json:"id"`
	SerialNumber       string   `json:"serial_number"`
	AircraftID         string   `json:"aircraft_id"`
	FailureProbability float64  `json:"failure_probability"`
	CurrentCycle       int      `json:"current_cycle"`
	RUL                *float64 `json:"rul"`
}

// DashboardSummary is GET /dashboard
type DashboardSummary struct {
	Summary           Summary          `json:"summary"`
	CriticalEngines   []CriticalEngine `json:"critical_engines"`
	RecentAlerts      []Alert          `json:"recent_alerts"`
	RecentMaintenance []Maintenance    `json:"recent_maintenance"`
}
