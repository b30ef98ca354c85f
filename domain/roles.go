package domain

// Role is the closed set of platform roles. An Account carries exactly one.
type Role string

const (
	RoleAdmin            Role = "admin"
	RoleVet              Role = "vet"
	RoleTourGuide        Role = "tourGuide"
	RoleSafariDriver     Role = "safariDriver"
	RoleWildlifeOfficer  Role = "wildlifeOfficer"
	RoleEmergencyOfficer Role = "emergencyOfficer"
	RoleCallOperator     Role = "callOperator"
	RoleTourist          Role = "tourist"
)

// AllRoles lists every valid role. Order here is not meaningful; resolution
// order is defined by the role directory and rule tables in internal/roles.
var AllRoles = []Role{
	RoleAdmin,
	RoleVet,
	RoleTourGuide,
	RoleSafariDriver,
	RoleWildlifeOfficer,
	RoleEmergencyOfficer,
	RoleCallOperator,
	RoleTourist,
}

// Valid reports whether r is a member of the closed role set.
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// ParseRole maps a provider-supplied role string onto the closed role set.
// The second return value is false for anything outside the set.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if r.Valid() {
		return r, true
	}
	return "", false
}
