package users_test

import (
	"testing"

	"github.com/jrsteele09/engine-dashboard/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := users.ParseRole(" Engineer ")
	require.NoError(t, err)
	require.Equal(t, users.RoleEngineer, r)

	_, err = users.ParseRole("pilot")
	require.Error(t, err)
}

func TestDecode(t *testing.T) {
	u, err := users.Decode([]byte(`{"id":3,"username":"alice","email":"alice@example.com","role":"engineer"}`))
	require.NoError(t, err)
	require.Equal(t, users.User{ID: 3, Username: "alice", Email: "alice@example.com", Role: users.RoleEngineer}, u)

	tests := map[string]string{
		"not json":     `{"username":`,
		"no username":  `{"role":"admin"}`,
		"unknown role": `{"username":"bob","role":"pilot"}`,
		"json null":    `null`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := users.Decode([]byte(data))
			require.Error(t, err)
		})
	}
}

func TestRoleChecks(t *testing.T) {
	admin := users.User{Username: "a", Role: users.RoleAdmin}
	engineer := users.User{Username: "e", Role: users.RoleEngineer}
	technician := users.User{Username: "t", Role: users.RoleTechnician}

	assert.True(t, admin.CanManageEngines())
	assert.True(t, admin.CanDeleteEngines())
	assert.True(t, engineer.CanManageEngines())
	assert.False(t, engineer.CanDeleteEngines())
	assert.False(t, technician.CanManageEngines())
	assert.False(t, technician.CanDeleteEngines())
}
