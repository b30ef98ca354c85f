package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LoginSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "identity_logins_success_total",
		Help: "Total number of successfully reconciled logins.",
	})
	LoginFailureTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "identity_logins_failure_total",
		Help: "Total number of login reconciliations that failed.",
	})
	AccountsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "identity_accounts_created_total",
		Help: "Total number of accounts created on first login.",
	})
	// RoleResolutionsTotal counts role decisions by the cascade source that
	// produced them (directory, existing_account, provider_hint,
	// email_domain, email_substring, default).
	RoleResolutionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "identity_role_resolutions_total",
		Help: "Total number of role resolutions, labeled by deciding source.",
	}, []string{"source", "role"})
)

// Register registers all custom metrics with reg. Call once at startup.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		LoginSuccessTotal,
		LoginFailureTotal,
		AccountsCreatedTotal,
		RoleResolutionsTotal,
	)
}
