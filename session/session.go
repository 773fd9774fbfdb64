package session

import (
	"github.com/jrsteele09/engine-dashboard/users"
)

// Status tracks whether the persisted session has been consulted yet
type Status int

const (
	StatusInitializing Status = iota
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Session is a snapshot of who is logged in. User is set if and only if Token is.
type Session struct {
	User   *users.User
	Token  string
	Status Status
}

func (s Session) Ready() bool {
	return s.Status == StatusReady
}

// Authenticated reports whether a user is logged in
func (s Session) Authenticated() bool {
	return s.User != nil
}

// Username returns the logged in user's name, or "" when anonymous
func (s Session) Username() string {
	if s.User == nil {
		return ""
	}
	return s.User.Username
}

// HasRole reports whether the session belongs to a user with one of roles
func (s Session) HasRole(roles ...users.Role) bool {
	return s.User != nil && s.User.HasRole(roles...)
}

// clone copies the user so callers cannot mutate the manager's state
func (s Session) clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}
