package reconcile

import (
	"strings"

	"github.com/wildlanka/identity/domain"
)

// fullName derives a display name: the provider's display name when present,
// otherwise given + family name, otherwise the email's local part.
func fullName(a *domain.Account) string {
	if a.Name != "" {
		return a.Name
	}
	parts := make([]string, 0, 2)
	if a.GivenName != "" {
		parts = append(parts, a.GivenName)
	}
	if a.FamilyName != "" {
		parts = append(parts, a.FamilyName)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	if at := strings.Index(a.Email, "@"); at > 0 {
		return a.Email[:at]
	}
	return a.Email
}

// optional profile fields counted toward completeness. Each contributes an
// equal share of the percentage.
func profileCompletion(a *domain.Account) int {
	fields := []string{
		a.Name,
		a.GivenName,
		a.FamilyName,
		a.PictureURL,
		a.Locale,
	}
	populated := 0
	for _, f := range fields {
		if f != "" {
			populated++
		}
	}
	return populated * 100 / len(fields)
}

// newAccountView builds the caller-facing view over a persisted account.
func newAccountView(a *domain.Account) *domain.AccountView {
	return &domain.AccountView{
		Account:                     *a,
		FullName:                    fullName(a),
		ProfileCompletionPercentage: profileCompletion(a),
		IsNewUser:                   a.LoginCount == 1,
	}
}
