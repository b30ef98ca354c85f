package api

import "github.com/wildlanka/identity/domain"

// AppMetadata mirrors the provider-side metadata block carried on the
// assertion. Only the role hint inside it is ever consulted, and only at
// account creation.
type AppMetadata struct {
	Role string `json:"role,omitempty"`
}

// LoginRequest is the body of POST /v1/auth/login: the verified identity
// assertion the upstream auth layer forwards after token validation.
type LoginRequest struct {
	SubjectID     string      `json:"subjectId"`
	Email         string      `json:"email"`
	Name          string      `json:"name,omitempty"`
	GivenName     string      `json:"givenName,omitempty"`
	FamilyName    string      `json:"familyName,omitempty"`
	Picture       string      `json:"picture,omitempty"`
	Locale        string      `json:"locale,omitempty"`
	EmailVerified *bool       `json:"emailVerified,omitempty"`
	AppMetadata   AppMetadata `json:"appMetadata,omitempty"`
}

// Assertion converts the request body into the domain assertion.
func (r *LoginRequest) Assertion() domain.IdentityAssertion {
	return domain.IdentityAssertion{
		SubjectID:     r.SubjectID,
		Email:         r.Email,
		Name:          r.Name,
		GivenName:     r.GivenName,
		FamilyName:    r.FamilyName,
		PictureURL:    r.Picture,
		Locale:        r.Locale,
		EmailVerified: r.EmailVerified,
		RoleHint:      r.AppMetadata.Role,
	}
}

// ErrorResponse is the JSON error body returned by all identity endpoints.
// Err carries storage-failure detail only in development builds.
type ErrorResponse struct {
	Message string `json:"message"`
	Err     string `json:"error,omitempty"`
}
