package roles

import (
	"strings"

	"github.com/wildlanka/identity/domain"
)

// emailRule matches a pattern against a lower-cased email (or its domain
// part) and yields a role. Both tables below are evaluated top to bottom
// with short-circuit on first match; the tables are data to reproduce
// exactly, not to "fix" (e.g. "officer" deliberately maps only to
// wildlifeOfficer).
type emailRule struct {
	Pattern string
	Role    domain.Role
}

// domainRules match against the domain part of the email as a suffix.
// "wildlife.gov" must precede ".gov" so government wildlife addresses do not
// collapse into admin.
var domainRules = []emailRule{
	{Pattern: ".admin", Role: domain.RoleAdmin},
	{Pattern: ".vet", Role: domain.RoleVet},
	{Pattern: ".guide", Role: domain.RoleTourGuide},
	{Pattern: ".driver", Role: domain.RoleSafariDriver},
	{Pattern: ".wildlife", Role: domain.RoleWildlifeOfficer},
	{Pattern: ".emergency", Role: domain.RoleEmergencyOfficer},
	{Pattern: ".call", Role: domain.RoleCallOperator},
	{Pattern: "wildlife.gov", Role: domain.RoleWildlifeOfficer},
	{Pattern: ".gov", Role: domain.RoleAdmin},
}

// substringRules match anywhere in the lower-cased email.
var substringRules = []emailRule{
	{Pattern: "admin", Role: domain.RoleAdmin},
	{Pattern: "vet", Role: domain.RoleVet},
	{Pattern: "veterinar", Role: domain.RoleVet},
	{Pattern: "guide", Role: domain.RoleTourGuide},
	{Pattern: "driver", Role: domain.RoleSafariDriver},
	{Pattern: "wildlife", Role: domain.RoleWildlifeOfficer},
	{Pattern: "officer", Role: domain.RoleWildlifeOfficer},
	{Pattern: "emergency", Role: domain.RoleEmergencyOfficer},
	{Pattern: "call", Role: domain.RoleCallOperator},
	{Pattern: "operator", Role: domain.RoleCallOperator},
}

// matchDomainRule applies the ordered domain-suffix table to email.
func matchDomainRule(email string) (domain.Role, bool) {
	addr := strings.ToLower(email)
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return "", false
	}
	host := addr[at+1:]
	for _, rule := range domainRules {
		if strings.HasSuffix(host, rule.Pattern) {
			return rule.Role, true
		}
	}
	return "", false
}

// matchSubstringRule applies the ordered substring table to email.
func matchSubstringRule(email string) (domain.Role, bool) {
	addr := strings.ToLower(email)
	for _, rule := range substringRules {
		if strings.Contains(addr, rule.Pattern) {
			return rule.Role, true
		}
	}
	return "", false
}
