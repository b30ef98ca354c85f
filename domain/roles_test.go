package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	for _, role := range AllRoles {
		assert.True(t, role.Valid(), "role %s", role)
	}
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
	assert.False(t, Role("Admin").Valid(), "role values are case sensitive")
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("wildlifeOfficer")
	assert.True(t, ok)
	assert.Equal(t, RoleWildlifeOfficer, role)

	_, ok = ParseRole("ranger")
	assert.False(t, ok)
}

func TestDefaultPreferences(t *testing.T) {
	prefs := DefaultPreferences("si")
	assert.Equal(t, "si", prefs.Language)
	assert.True(t, prefs.Notifications.Email)
	assert.True(t, prefs.Notifications.Push)
	assert.False(t, prefs.Notifications.SMS)

	assert.Equal(t, "en", DefaultPreferences("").Language)
}
