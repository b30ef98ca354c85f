package domain

import (
	"context"
	"errors"
)

var (
	// ErrAccountNotFound is returned by account lookups that match nothing.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateAccount is returned by Create when the store's uniqueness
	// constraint on subject_id or email rejects the insert. The reconciler
	// treats it as "a concurrent login won the creation race".
	ErrDuplicateAccount = errors.New("account already exists")
)

// AccountRepository is the persistence contract for accounts. Implementations
// must enforce uniqueness on subject_id and on email so the concurrent
// first-login race surfaces as ErrDuplicateAccount.
type AccountRepository interface {
	// FindBySubjectID matches on subject_id only, never falling back to email.
	FindBySubjectID(ctx context.Context, subjectID string) (*Account, error)

	// FindByEmailOrSubjectID is the broader lookup the role resolver uses:
	// a record matching either key counts as an existing account.
	FindByEmailOrSubjectID(ctx context.Context, email, subjectID string) (*Account, error)

	Create(ctx context.Context, account *Account) error

	// UpdateBySubjectID replaces the stored record for subjectID.
	// Returns ErrAccountNotFound when no record matches.
	UpdateBySubjectID(ctx context.Context, subjectID string, account *Account) error
}

// RoleRecordStore answers existence queries against the specialized staff
// collections (pre-provisioned admins, vets, guides, ...). The resolver only
// ever asks "is there a record with this email"; it never writes.
type RoleRecordStore interface {
	Exists(ctx context.Context, collection, emailField, email string) (bool, error)
}
