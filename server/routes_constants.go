package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes
	RouteRoot     = "/"
	RouteLogin    = "/login"
	RouteRegister = "/register"
	RouteLogout   = "/logout"

	// Dashboard Routes
	RouteDashboard = "/dashboard"

	// Engine Routes
	RouteEngines      = "/dashboard/engines"
	RouteEngineNew    = "/dashboard/engines/new"
	RouteEngine       = "/dashboard/engines/{engineID}"
	RouteEngineEdit   = "/dashboard/engines/{engineID}/edit"
	RouteEngineDelete = "/dashboard/engines/{engineID}/delete"
	RouteEngineCycles = "/dashboard/engines/{engineID}/cycles"

	// Maintenance Routes
	RouteMaintenance       = "/dashboard/maintenance"
	RouteMaintenanceNew    = "/dashboard/maintenance/new"
	RouteMaintenanceEdit   = "/dashboard/maintenance/{maintenanceID}/edit"
	RouteMaintenanceDelete = "/dashboard/maintenance/{maintenanceID}/delete"

	// Alert Routes
	RouteAlerts = "/dashboard/alerts"
	RouteAlert  = "/dashboard/alerts/{alertID}"

	// Health
	RouteHealth = "/healthz"
)
