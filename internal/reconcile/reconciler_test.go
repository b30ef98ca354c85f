package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wildlanka/identity/domain"
	autherrors "github.com/wildlanka/identity/errors"
	"github.com/wildlanka/identity/internal/roles"
)

// --- Mock Implementations ---

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindBySubjectID(ctx context.Context, subjectID string) (*domain.Account, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByEmailOrSubjectID(ctx context.Context, email, subjectID string) (*domain.Account, error) {
	args := m.Called(ctx, email, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateBySubjectID(ctx context.Context, subjectID string, account *domain.Account) error {
	args := m.Called(ctx, subjectID, account)
	return args.Error(0)
}

type MockRoleResolver struct {
	mock.Mock
}

func (m *MockRoleResolver) Resolve(ctx context.Context, assertion domain.IdentityAssertion, existing *domain.Account) (domain.Role, roles.Source) {
	args := m.Called(ctx, assertion, existing)
	return args.Get(0).(domain.Role), args.Get(1).(roles.Source)
}

var testClient = domain.ClientContext{IP: "203.0.113.9", UserAgent: "safari-app/2.1"}

// --- Reconciler Tests ---

func TestReconcileLogin_MissingSubjectID(t *testing.T) {
	repo := new(MockAccountRepository)
	resolver := new(MockRoleResolver)
	rec := NewReconciler(repo, resolver)

	view, err := rec.ReconcileLogin(context.Background(), domain.IdentityAssertion{Email: "jane@example.com"}, testClient)

	require.Error(t, err)
	assert.Nil(t, view)

	var authErr *autherrors.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, autherrors.AuthenticationRequired, authErr.Code)
	assert.Equal(t, 401, authErr.Status)
	assert.Equal(t, "Authentication required", authErr.Message)

	// No store or resolver call may happen before the precondition check.
	repo.AssertNotCalled(t, "FindBySubjectID", mock.Anything, mock.Anything)
	resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcileLogin_FirstLogin(t *testing.T) {
	ctx := context.Background()
	assertion := domain.IdentityAssertion{
		SubjectID: "p|1",
		Email:     "A@wildlanka.vet",
		Name:      "Amara Silva",
		Locale:    "si",
	}

	repo := new(MockAccountRepository)
	resolver := new(MockRoleResolver)
	rec := NewReconciler(repo, resolver)

	repo.On("FindBySubjectID", ctx, "p|1").Return(nil, domain.ErrAccountNotFound).Once()
	resolver.On("Resolve", ctx, assertion, (*domain.Account)(nil)).Return(domain.RoleVet, roles.SourceEmailDomain).Once()
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Account")).Run(func(args mock.Arguments) {
		acct := args.Get(1).(*domain.Account)
		assert.NotEmpty(t, acct.ID)
		assert.Equal(t, "p|1", acct.SubjectID)
		assert.Equal(t, "a@wildlanka.vet", acct.Email) // lower-cased
		assert.Equal(t, domain.RoleVet, acct.Role)
		assert.Equal(t, domain.AccountStatusActive, acct.Status)
		assert.Equal(t, int64(1), acct.LoginCount)
		assert.Equal(t, testClient.IP, acct.LastLoginIP)
		assert.Equal(t, testClient.UserAgent, acct.LastLoginUserAgent)
		assert.True(t, acct.Preferences.Notifications.Email)
		assert.True(t, acct.Preferences.Notifications.Push)
		assert.False(t, acct.Preferences.Notifications.SMS)
		assert.Equal(t, "si", acct.Preferences.Language)
	}).Return(nil).Once()

	view, err := rec.ReconcileLogin(ctx, assertion, testClient)

	require.NoError(t, err)
	require.NotNil(t, view)
	assert.True(t, view.IsNewUser)
	assert.Equal(t, int64(1), view.LoginCount)
	assert.Equal(t, domain.RoleVet, view.Role)
	assert.Equal(t, "Amara Silva", view.FullName)

	repo.AssertExpectations(t)
	resolver.AssertExpectations(t)
}

func TestReconcileLogin_RepeatLogin(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	lastLogin := now.Add(-24 * time.Hour)

	existing := func() *domain.Account {
		return &domain.Account{
			ID:          "acc-1",
			SubjectID:   "p|1",
			Email:       "a@wildlanka.vet",
			Name:        "Amara Silva",
			Role:        domain.RoleVet,
			Status:      domain.AccountStatusActive,
			LoginCount:  1,
			LastLoginAt: &lastLogin,
		}
	}

	t.Run("role survives any later hint", func(t *testing.T) {
		repo := new(MockAccountRepository)
		resolver := new(MockRoleResolver)
		rec := NewReconciler(repo, resolver)

		repo.On("FindBySubjectID", ctx, "p|1").Return(existing(), nil).Once()
		repo.On("UpdateBySubjectID", ctx, "p|1", mock.AnythingOfType("*domain.Account")).Run(func(args mock.Arguments) {
			acct := args.Get(2).(*domain.Account)
			assert.Equal(t, domain.RoleVet, acct.Role) // untouched
			assert.Equal(t, int64(2), acct.LoginCount)
		}).Return(nil).Once()

		// The assertion now claims admin; the merge path must never even
		// consult the resolver.
		view, err := rec.ReconcileLogin(ctx, domain.IdentityAssertion{
			SubjectID: "p|1",
			Email:     "a@wildlanka.vet",
			RoleHint:  "admin",
		}, testClient)

		require.NoError(t, err)
		assert.Equal(t, domain.RoleVet, view.Role)
		assert.Equal(t, int64(2), view.LoginCount)
		assert.False(t, view.IsNewUser)
		resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("present assertion fields overwrite, absent ones are retained", func(t *testing.T) {
		repo := new(MockAccountRepository)
		resolver := new(MockRoleResolver)
		rec := NewReconciler(repo, resolver)

		repo.On("FindBySubjectID", ctx, "p|1").Return(existing(), nil).Once()
		repo.On("UpdateBySubjectID", ctx, "p|1", mock.AnythingOfType("*domain.Account")).Run(func(args mock.Arguments) {
			acct := args.Get(2).(*domain.Account)
			assert.Equal(t, "Dr. Amara Silva", acct.Name)    // overwritten
			assert.Equal(t, "a@wildlanka.vet", acct.Email)   // retained
			assert.NotNil(t, acct.LastLoginAt)
			assert.True(t, acct.LastLoginAt.After(lastLogin))
		}).Return(nil).Once()

		_, err := rec.ReconcileLogin(ctx, domain.IdentityAssertion{
			SubjectID: "p|1",
			Name:      "Dr. Amara Silva",
		}, testClient)

		require.NoError(t, err)
	})
}

func TestReconcileLogin_DuplicateCreateRace(t *testing.T) {
	ctx := context.Background()
	assertion := domain.IdentityAssertion{SubjectID: "p|new", Email: "new@example.com"}

	repo := new(MockAccountRepository)
	resolver := new(MockRoleResolver)
	rec := NewReconciler(repo, resolver)

	winner := &domain.Account{
		ID:         "acc-w",
		SubjectID:  "p|new",
		Email:      "new@example.com",
		Role:       domain.RoleTourist,
		Status:     domain.AccountStatusActive,
		LoginCount: 1,
	}

	// First lookup misses, create loses the race, second lookup finds the
	// winner and the call degrades into a merge.
	repo.On("FindBySubjectID", ctx, "p|new").Return(nil, domain.ErrAccountNotFound).Once()
	resolver.On("Resolve", ctx, assertion, (*domain.Account)(nil)).Return(domain.RoleTourist, roles.SourceDefault).Once()
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Account")).Return(domain.ErrDuplicateAccount).Once()
	repo.On("FindBySubjectID", ctx, "p|new").Return(winner, nil).Once()
	repo.On("UpdateBySubjectID", ctx, "p|new", mock.AnythingOfType("*domain.Account")).Return(nil).Once()

	view, err := rec.ReconcileLogin(ctx, assertion, testClient)

	require.NoError(t, err)
	assert.Equal(t, "acc-w", view.ID)
	assert.Equal(t, int64(2), view.LoginCount)
	repo.AssertExpectations(t)
}

func TestReconcileLogin_StorageFailures(t *testing.T) {
	ctx := context.Background()
	assertion := domain.IdentityAssertion{SubjectID: "p|1", Email: "jane@example.com"}

	t.Run("lookup failure surfaces as persistence failure", func(t *testing.T) {
		repo := new(MockAccountRepository)
		resolver := new(MockRoleResolver)
		rec := NewReconciler(repo, resolver)

		repo.On("FindBySubjectID", ctx, "p|1").Return(nil, errors.New("socket timeout")).Once()

		view, err := rec.ReconcileLogin(ctx, assertion, testClient)

		assert.Nil(t, view)
		var authErr *autherrors.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, autherrors.PersistenceFailure, authErr.Code)
		assert.Equal(t, 500, authErr.Status)
		assert.Contains(t, authErr.Detail, "socket timeout")
		// Failing closed: no account may be fabricated.
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("create failure is not retried as creation", func(t *testing.T) {
		repo := new(MockAccountRepository)
		resolver := new(MockRoleResolver)
		rec := NewReconciler(repo, resolver)

		repo.On("FindBySubjectID", ctx, "p|1").Return(nil, domain.ErrAccountNotFound).Once()
		resolver.On("Resolve", mock.Anything, mock.Anything, mock.Anything).Return(domain.RoleTourist, roles.SourceDefault).Once()
		repo.On("Create", ctx, mock.AnythingOfType("*domain.Account")).Return(errors.New("write concern error")).Once()

		_, err := rec.ReconcileLogin(ctx, assertion, testClient)

		var authErr *autherrors.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, autherrors.PersistenceFailure, authErr.Code)
		repo.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("update failure surfaces as persistence failure", func(t *testing.T) {
		repo := new(MockAccountRepository)
		resolver := new(MockRoleResolver)
		rec := NewReconciler(repo, resolver)

		repo.On("FindBySubjectID", ctx, "p|1").
			Return(&domain.Account{SubjectID: "p|1", Role: domain.RoleTourist, LoginCount: 3}, nil).Once()
		repo.On("UpdateBySubjectID", ctx, "p|1", mock.Anything).Return(errors.New("replica unavailable")).Once()

		_, err := rec.ReconcileLogin(ctx, assertion, testClient)

		var authErr *autherrors.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, autherrors.PersistenceFailure, authErr.Code)
	})
}

func TestGetAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the view for a known subject", func(t *testing.T) {
		repo := new(MockAccountRepository)
		rec := NewReconciler(repo, new(MockRoleResolver))

		repo.On("FindBySubjectID", ctx, "p|1").
			Return(&domain.Account{SubjectID: "p|1", Email: "jane@example.com", Role: domain.RoleTourist, LoginCount: 4}, nil).Once()

		view, err := rec.GetAccount(ctx, "p|1")

		require.NoError(t, err)
		assert.Equal(t, "jane", view.FullName)
		assert.False(t, view.IsNewUser)
	})

	t.Run("unknown subject yields not found, never creates", func(t *testing.T) {
		repo := new(MockAccountRepository)
		rec := NewReconciler(repo, new(MockRoleResolver))

		repo.On("FindBySubjectID", ctx, "p|ghost").Return(nil, domain.ErrAccountNotFound).Once()

		view, err := rec.GetAccount(ctx, "p|ghost")

		assert.Nil(t, view)
		var authErr *autherrors.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, autherrors.NotFound, authErr.Code)
		assert.Equal(t, 404, authErr.Status)
		assert.Equal(t, "User not found", authErr.Message)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
