package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// AUTH
	s.RegisterRouteHandler("GET "+RouteRoot+"{$}", ChainMiddleware(s.RootHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteRegister, ChainMiddleware(s.RegisterPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteRegister, ChainMiddleware(s.RegisterSubmissionHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare()...))

	// DASHBOARD
	s.RegisterRouteHandler("GET "+RouteDashboard, ChainMiddleware(s.DashboardHandler(), s.HTMLMiddleWare()...))

	// ENGINES
	s.RegisterRouteHandler("GET "+RouteEngines, ChainMiddleware(s.EnginesListHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteEngineNew, ChainMiddleware(s.EngineNewHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteEngineNew, ChainMiddleware(s.EngineCreateHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteEngine, ChainMiddleware(s.EngineDetailHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteEngineEdit, ChainMiddleware(s.EngineEditHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteEngineEdit, ChainMiddleware(s.EngineUpdateHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteEngineDelete, ChainMiddleware(s.EngineDeleteHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteEngineCycles, ChainMiddleware(s.CycleFormHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteEngineCycles, ChainMiddleware(s.CycleSubmissionHandler(), s.HTMLMiddleWare()...))

	// MAINTENANCE
	s.RegisterRouteHandler("GET "+RouteMaintenance, ChainMiddleware(s.MaintenanceListHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteMaintenanceNew, ChainMiddleware(s.MaintenanceNewHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteMaintenanceNew, ChainMiddleware(s.MaintenanceCreateHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("GET "+RouteMaintenanceEdit, ChainMiddleware(s.MaintenanceEditHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteMaintenanceEdit, ChainMiddleware(s.MaintenanceUpdateHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteMaintenanceDelete, ChainMiddleware(s.MaintenanceDeleteHandler(), s.HTMLMiddleWare()...))

	// ALERTS
	s.RegisterRouteHandler("GET "+RouteAlerts, ChainMiddleware(s.AlertsListHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteHandler("POST "+RouteAlert, ChainMiddleware(s.AlertUpdateHandler(), s.HTMLMiddleWare()...))

	// Anything else lands on the dashboard
	s.RegisterRouteHandler("/", ChainMiddleware(s.FallbackHandler(), s.HTMLMiddleWare()...))
}

// pathID reads a numeric path parameter
func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// routePath fills the {param} placeholders of a route constant in order
func routePath(route string, ids ...int) string {
	out := route
	for _, id := range ids {
		start := strings.Index(out, "{")
		end := strings.Index(out, "}")
		if start < 0 || end < start {
			break
		}
		out = out[:start] + strconv.Itoa(id) + out[end+1:]
	}
	return out
}

func enginePath(id int) string {
	return routePath(RouteEngine, id)
}

func withParam(path, key, value string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s%s=%s", path, sep, key, url.QueryEscape(value))
}
