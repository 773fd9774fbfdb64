package users

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the access level the engine-maintenance API assigns to an account
type Role string

const (
	RoleAdmin      Role = "admin"      // Full access including engine deletion
	RoleEngineer   Role = "engineer"   // Can add and edit engines
	RoleTechnician Role = "technician" // Records maintenance and cycle data
)

// DefaultRole is what the API assigns when registration omits a role
const DefaultRole = RoleTechnician

var validRoles = map[Role]struct{}{
	RoleAdmin:      {},
	RoleEngineer:   {},
	RoleTechnician: {},
}

// Roles lists the assignable roles in display order
func Roles() []Role {
	return []Role{RoleTechnician, RoleEngineer, RoleAdmin}
}

// ParseRole normalises a role name and rejects unknown values
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validRoles[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := validRoles[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

// User is the identity returned by the login endpoint and cached in the token store.
// It is replaced wholesale on login and never mutated in place.
type User struct {
	ID       int    `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
}

// Decode parses a serialized user record. A record without a username or with an
// unknown role is rejected.
func Decode(data []byte) (User, error) {
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return User{}, err
	}
	if u.Username == "" {
		return User{}, fmt.Errorf("user record has no username")
	}
	if !u.Role.Valid() {
		return User{}, fmt.Errorf("user record has unknown role %q", u.Role)
	}
	return u, nil
}

func (u User) Encode() ([]byte, error) {
	return json.Marshal(u)
}

func (u User) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// CanManageEngines reports whether the user may add or edit engines
func (u User) CanManageEngines() bool {
	return u.HasRole(RoleAdmin, RoleEngineer)
}

// CanDeleteEngines reports whether the user may delete engines
func (u User) CanDeleteEngines() bool {
	return u.HasRole(RoleAdmin)
}
