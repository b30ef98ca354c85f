package domain

// IdentityAssertion is the verified profile the external identity layer hands
// us once per login request. It is transient and never persisted as-is.
type IdentityAssertion struct {
	// SubjectID is the provider's stable, opaque identifier for one human.
	// It is the only field the reconciler keys accounts on.
	SubjectID string

	Email         string
	Name          string
	GivenName     string
	FamilyName    string
	PictureURL    string
	Locale        string
	EmailVerified *bool

	// RoleHint is the provider-side role claim (app_metadata.role). It is a
	// free-form string here; only values inside the closed role set are ever
	// honored, and only at account creation time.
	RoleHint string
}

// ClientContext carries the request-level metadata stamped onto the account's
// login telemetry on every reconcile.
type ClientContext struct {
	IP        string
	UserAgent string
}
