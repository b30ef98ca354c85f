package roles

import "github.com/wildlanka/identity/domain"

// DirectoryEntry binds one specialized staff collection to the role its
// records grant and the field that collection keys staff email under.
type DirectoryEntry struct {
	Role       domain.Role
	Collection string
	EmailField string
}

// DefaultDirectory returns the specialized role directory in its fixed
// evaluation order. The order is load-bearing: the first collection with a
// matching record decides the role, so reordering entries is a behavior
// change requiring sign-off.
func DefaultDirectory() []DirectoryEntry {
	return []DirectoryEntry{
		{Role: domain.RoleAdmin, Collection: "admins", EmailField: "email"},
		{Role: domain.RoleEmergencyOfficer, Collection: "emergencyofficers", EmailField: "email"},
		{Role: domain.RoleCallOperator, Collection: "calloperators", EmailField: "email"},
		{Role: domain.RoleSafariDriver, Collection: "safaridrivers", EmailField: "email"},
		{Role: domain.RoleTourGuide, Collection: "tourguides", EmailField: "email"},
		{Role: domain.RoleVet, Collection: "vets", EmailField: "email"},
		{Role: domain.RoleWildlifeOfficer, Collection: "wildlifeofficers", EmailField: "email"},
		{Role: domain.RoleTourist, Collection: "tourists", EmailField: "email"},
	}
}
