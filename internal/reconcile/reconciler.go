package reconcile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wildlanka/identity/domain"
	autherrors "github.com/wildlanka/identity/errors"
	"github.com/wildlanka/identity/internal/audit"
	"github.com/wildlanka/identity/internal/metrics"
	"github.com/wildlanka/identity/internal/roles"
)

// RoleResolver is the decision function consulted exactly once per subject
// id, at account creation. Satisfied by *roles.Resolver.
type RoleResolver interface {
	Resolve(ctx context.Context, assertion domain.IdentityAssertion, existing *domain.Account) (domain.Role, roles.Source)
}

// Reconciler turns a verified login assertion into a created-or-updated
// Account. Role is resolved only on the create path; repeat logins merge
// profile fields and bump login telemetry without ever touching role.
type Reconciler struct {
	accounts domain.AccountRepository
	resolver RoleResolver

	now func() time.Time
}

// NewReconciler creates a Reconciler over the given account repository and
// role resolver.
func NewReconciler(accounts domain.AccountRepository, resolver RoleResolver) *Reconciler {
	return &Reconciler{
		accounts: accounts,
		resolver: resolver,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ReconcileLogin handles one authenticated request. It fails closed: any
// storage error surfaces as a typed persistence failure rather than a
// silently fabricated account.
func (r *Reconciler) ReconcileLogin(ctx context.Context, assertion domain.IdentityAssertion, client domain.ClientContext) (*domain.AccountView, error) {
	if assertion.SubjectID == "" {
		metrics.LoginFailureTotal.Inc()
		return nil, autherrors.NewAuthenticationRequired()
	}

	account, err := r.accounts.FindBySubjectID(ctx, assertion.SubjectID)
	switch {
	case err == nil:
		return r.mergeLogin(ctx, account, assertion, client)
	case errors.Is(err, domain.ErrAccountNotFound):
		return r.createAccount(ctx, assertion, client)
	default:
		log.Error().Err(err).Str("subject_id", assertion.SubjectID).Msg("Account lookup failed")
		metrics.LoginFailureTotal.Inc()
		return nil, autherrors.NewPersistenceFailure("Failed to load account", err)
	}
}

// GetAccount is the fetch-only profile operation: it never creates and
// returns a not-found error for unknown subject ids.
func (r *Reconciler) GetAccount(ctx context.Context, subjectID string) (*domain.AccountView, error) {
	if subjectID == "" {
		return nil, autherrors.NewAuthenticationRequired()
	}
	account, err := r.accounts.FindBySubjectID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, autherrors.NewNotFound()
		}
		log.Error().Err(err).Str("subject_id", subjectID).Msg("Account fetch failed")
		return nil, autherrors.NewPersistenceFailure("Failed to load account", err)
	}
	return newAccountView(account), nil
}

// createAccount handles the first login for a subject id: resolve the role,
// persist the new account, and absorb the concurrent-creation race by
// retrying exactly once as lookup-then-merge.
func (r *Reconciler) createAccount(ctx context.Context, assertion domain.IdentityAssertion, client domain.ClientContext) (*domain.AccountView, error) {
	role, source := r.resolver.Resolve(ctx, assertion, nil)

	now := r.now()
	account := &domain.Account{
		ID:                 uuid.NewString(),
		SubjectID:          assertion.SubjectID,
		Email:              strings.ToLower(assertion.Email),
		Name:               assertion.Name,
		GivenName:          assertion.GivenName,
		FamilyName:         assertion.FamilyName,
		PictureURL:         assertion.PictureURL,
		Locale:             assertion.Locale,
		Role:               role,
		Status:             domain.AccountStatusActive,
		LoginCount:         1,
		LastLoginAt:        &now,
		LastLoginIP:        client.IP,
		LastLoginUserAgent: client.UserAgent,
		Preferences:        domain.DefaultPreferences(assertion.Locale),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if assertion.EmailVerified != nil {
		account.EmailVerified = *assertion.EmailVerified
	}

	err := r.accounts.Create(ctx, account)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateAccount) {
			// A concurrent login for the same new subject id won the race.
			// The role was determined once by the winner; fall back to the
			// repeat-login path against the record that now exists.
			log.Info().Str("subject_id", assertion.SubjectID).Msg("Concurrent account creation detected, merging into winner")
			existing, lookupErr := r.accounts.FindBySubjectID(ctx, assertion.SubjectID)
			if lookupErr != nil {
				metrics.LoginFailureTotal.Inc()
				return nil, autherrors.NewPersistenceFailure("Failed to reconcile concurrent login", lookupErr)
			}
			return r.mergeLogin(ctx, existing, assertion, client)
		}
		log.Error().Err(err).Str("subject_id", assertion.SubjectID).Msg("Account creation failed")
		audit.Log("account.create", assertion.SubjectID, account.Email, string(role), string(source), false, err)
		metrics.LoginFailureTotal.Inc()
		return nil, autherrors.NewPersistenceFailure("Failed to create account", err)
	}

	log.Info().
		Str("subject_id", account.SubjectID).
		Str("email", account.Email).
		Str("role", string(account.Role)).
		Msg("Account created on first login")
	audit.Log("account.create", account.SubjectID, account.Email, string(role), string(source), true, nil)
	metrics.AccountsCreatedTotal.Inc()
	metrics.LoginSuccessTotal.Inc()

	return newAccountView(account), nil
}

// mergeLogin handles a repeat login: overwrite mutable profile fields with
// any values the assertion actually carries, bump the login telemetry, and
// leave role strictly alone.
func (r *Reconciler) mergeLogin(ctx context.Context, account *domain.Account, assertion domain.IdentityAssertion, client domain.ClientContext) (*domain.AccountView, error) {
	if assertion.Email != "" {
		account.Email = strings.ToLower(assertion.Email)
	}
	if assertion.Name != "" {
		account.Name = assertion.Name
	}
	if assertion.GivenName != "" {
		account.GivenName = assertion.GivenName
	}
	if assertion.FamilyName != "" {
		account.FamilyName = assertion.FamilyName
	}
	if assertion.PictureURL != "" {
		account.PictureURL = assertion.PictureURL
	}
	if assertion.Locale != "" {
		account.Locale = assertion.Locale
	}
	if assertion.EmailVerified != nil {
		account.EmailVerified = *assertion.EmailVerified
	}

	now := r.now()
	account.LoginCount++
	account.LastLoginAt = &now
	account.LastLoginIP = client.IP
	account.LastLoginUserAgent = client.UserAgent
	account.UpdatedAt = now

	if err := r.accounts.UpdateBySubjectID(ctx, account.SubjectID, account); err != nil {
		log.Error().Err(err).Str("subject_id", account.SubjectID).Msg("Account update failed")
		audit.Log("account.login", account.SubjectID, account.Email, string(account.Role), "", false, err)
		metrics.LoginFailureTotal.Inc()
		return nil, autherrors.NewPersistenceFailure("Failed to update account", err)
	}

	audit.Log("account.login", account.SubjectID, account.Email, string(account.Role), "", true, nil)
	metrics.LoginSuccessTotal.Inc()

	return newAccountView(account), nil
}
