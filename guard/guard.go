// Package guard decides whether a navigation renders, waits for the session, or
// redirects.
package guard

import (
	"net/url"
	"path"
	"strings"

	"github.com/jrsteele09/engine-dashboard/session"
	"github.com/jrsteele09/engine-dashboard/users"
)

const (
	RootPath     = "/"
	LoginPath    = "/login"
	RegisterPath = "/register"
	LandingPath  = "/dashboard"

	// FromParam carries the originally requested path through the login page
	FromParam = "from"
)

type Action int

const (
	Render Action = iota
	Loading
	Redirect
)

func (a Action) String() string {
	switch a {
	case Render:
		return "render"
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the outcome for one navigation. Location is only set for Redirect.
type Decision struct {
	Action   Action
	Location string
}

func render() Decision {
	return Decision{Action: Render}
}

func redirect(location string) Decision {
	return Decision{Action: Redirect, Location: location}
}

// Decide maps a session and a requested request URI (escaped path, optionally with
// a query) to a decision. Paths are classified in their decoded, cleaned form, the
// same form the router matches on. It never redirects while the session is still
// initializing.
func Decide(s session.Session, requested string) Decision {
	if !s.Ready() {
		return Decision{Action: Loading}
	}

	p := CanonicalPath(requested)
	switch {
	case IsProtected(p):
		if !s.Authenticated() {
			return redirect(LoginLocation(requested))
		}
		if roles := requiredRoles(p); roles != nil && !s.HasRole(roles...) {
			return redirect(LandingPath)
		}
	case IsPublicAuth(p):
		if s.Authenticated() {
			return redirect(LandingPath)
		}
	}
	return render()
}

// IsProtected reports whether path needs a logged in user
func IsProtected(path string) bool {
	return path == LandingPath || strings.HasPrefix(path, LandingPath+"/")
}

// IsPublicAuth reports whether path is only for anonymous users
func IsPublicAuth(path string) bool {
	switch path {
	case RootPath, LoginPath, RegisterPath:
		return true
	}
	return false
}

// LoginLocation is the login URL that returns to requested after a successful login
func LoginLocation(requested string) string {
	return LoginPath + "?" + url.Values{FromParam: []string{requested}}.Encode()
}

// ReturnPath validates a from parameter. Only local protected paths are accepted;
// anything else yields the landing path.
func ReturnPath(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.Contains(from, `\`) {
		return LandingPath
	}
	u, err := url.Parse(from)
	if err != nil || u.Scheme != "" || u.Host != "" || !IsProtected(CanonicalPath(u.EscapedPath())) {
		return LandingPath
	}
	return from
}

// requiredRoles returns the roles allowed on path, or nil when any user may view it
func requiredRoles(path string) []users.Role {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	// dashboard/engines/new, dashboard/engines/{id}/edit, dashboard/engines/{id}/delete
	if len(parts) < 3 || parts[0] != "dashboard" || parts[1] != "engines" {
		return nil
	}
	switch {
	case len(parts) == 3 && parts[2] == "new":
		return []users.Role{users.RoleAdmin, users.RoleEngineer}
	case len(parts) == 4 && parts[3] == "edit":
		return []users.Role{users.RoleAdmin, users.RoleEngineer}
	case len(parts) == 4 && parts[3] == "delete":
		return []users.Role{users.RoleAdmin}
	}
	return nil
}

// CanonicalPath strips the query and fragment from a request URI, decodes the
// path and cleans it. An undecodable path stays escaped, which never matches a
// protected or public route.
func CanonicalPath(requested string) string {
	p := requested
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if decoded, err := url.PathUnescape(p); err == nil {
		p = decoded
	}
	return path.Clean("/" + p)
}
