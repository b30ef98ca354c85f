package roles

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/wildlanka/identity/cache"
	"github.com/wildlanka/identity/domain"
	"github.com/wildlanka/identity/internal/audit"
	"github.com/wildlanka/identity/internal/metrics"
)

// Source names the cascade priority that decided a role. Exposed so callers
// can log and meter decisions without re-deriving them.
type Source string

const (
	SourceDirectory       Source = "directory"
	SourceExistingAccount Source = "existing_account"
	SourceProviderHint    Source = "provider_hint"
	SourceEmailDomain     Source = "email_domain"
	SourceEmailSubstring  Source = "email_substring"
	SourceDefault         Source = "default"
)

// Resolver decides the single role for a first-time sign-in. It evaluates a
// strict priority cascade and returns on the first match:
//
//  1. specialized staff directory (pre-provisioned records beat everything)
//  2. role of an existing account matching email or subject id
//  3. provider role hint, if inside the closed role set
//  4. email domain-suffix rules
//  5. email substring rules
//  6. tourist
//
// The resolver never fails outward: directory lookup errors are logged and
// treated as non-matches, and the final fallback is always tourist.
type Resolver struct {
	directory []DirectoryEntry
	records   domain.RoleRecordStore
	accounts  domain.AccountRepository

	cache    cache.RoleDirectoryCache
	cacheTTL time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDirectory overrides the default specialized role directory. Intended
// for tests; production uses DefaultDirectory.
func WithDirectory(directory []DirectoryEntry) Option {
	return func(r *Resolver) { r.directory = directory }
}

// WithCache enables caching of positive directory matches.
func WithCache(c cache.RoleDirectoryCache, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

// NewResolver creates a Resolver over the given record store and account
// repository.
func NewResolver(records domain.RoleRecordStore, accounts domain.AccountRepository, opts ...Option) *Resolver {
	r := &Resolver{
		directory: DefaultDirectory(),
		records:   records,
		accounts:  accounts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the role for the asserted identity, along with the cascade
// source that decided it. existing may be nil; when it is, priority 2 does
// its own broader lookup by email or subject id.
func (r *Resolver) Resolve(ctx context.Context, assertion domain.IdentityAssertion, existing *domain.Account) (domain.Role, Source) {
	role, source := r.resolve(ctx, assertion, existing)

	log.Info().
		Str("subject_id", assertion.SubjectID).
		Str("email", assertion.Email).
		Str("role", string(role)).
		Str("source", string(source)).
		Msg("Role resolved")
	audit.Log("role.resolve", assertion.SubjectID, assertion.Email, string(role), string(source), true, nil)
	metrics.RoleResolutionsTotal.WithLabelValues(string(source), string(role)).Inc()

	return role, source
}

func (r *Resolver) resolve(ctx context.Context, assertion domain.IdentityAssertion, existing *domain.Account) (domain.Role, Source) {
	email := strings.ToLower(assertion.Email)

	// Priority 1: specialized staff directory.
	if role, ok := r.lookupDirectory(ctx, email); ok {
		return role, SourceDirectory
	}

	// Priority 2: an account already known under this email or subject id
	// keeps its role, unless that role is the tourist default.
	account := existing
	if account == nil {
		found, err := r.accounts.FindByEmailOrSubjectID(ctx, email, assertion.SubjectID)
		switch {
		case err == nil:
			account = found
		case !errors.Is(err, domain.ErrAccountNotFound):
			// A broken lookup must not abort resolution; absence of a prior
			// account is itself a valid cascade outcome.
			log.Warn().Err(err).Str("email", email).Msg("Existing-account lookup failed, continuing cascade")
		}
	}
	if account != nil && account.Role.Valid() && account.Role != domain.RoleTourist {
		return account.Role, SourceExistingAccount
	}

	// Priority 3: provider-asserted role hint, members of the closed set only.
	if assertion.RoleHint != "" {
		if role, ok := domain.ParseRole(assertion.RoleHint); ok {
			return role, SourceProviderHint
		}
		log.Warn().
			Str("subject_id", assertion.SubjectID).
			Str("role_hint", assertion.RoleHint).
			Msg("Ignoring provider role hint outside the closed role set")
	}

	// Priorities 4-5: email heuristics, strictly after all explicit signals.
	if role, ok := matchDomainRule(email); ok {
		return role, SourceEmailDomain
	}
	if role, ok := matchSubstringRule(email); ok {
		return role, SourceEmailSubstring
	}

	return domain.RoleTourist, SourceDefault
}

// lookupDirectory fans the existence queries out concurrently across all
// directory collections, then consumes the results in the directory's fixed
// order. A per-collection failure is logged and counts as no match.
func (r *Resolver) lookupDirectory(ctx context.Context, email string) (domain.Role, bool) {
	if email == "" {
		return "", false
	}

	if r.cache != nil {
		if role, ok := r.cache.Get(ctx, email); ok {
			return role, true
		}
	}

	matched := make([]bool, len(r.directory))
	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range r.directory {
		g.Go(func() error {
			ok, err := r.records.Exists(gctx, entry.Collection, entry.EmailField, email)
			if err != nil {
				log.Warn().Err(err).
					Str("collection", entry.Collection).
					Str("email", email).
					Msg("Specialized role lookup failed, treating as no match")
				return nil
			}
			matched[i] = ok
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors

	for i, entry := range r.directory {
		if matched[i] {
			if r.cache != nil {
				r.cache.Set(ctx, email, entry.Role, r.cacheTTL)
			}
			return entry.Role, true
		}
	}
	return "", false
}
