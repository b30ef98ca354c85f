package mongodb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/wildlanka/identity/domain"
)

// setupAccountRepoTest connects to the Mongo instance named by TEST_MONGO_URI
// and returns a repository over a throwaway database. Tests are skipped when
// the env var is unset.
func setupAccountRepoTest(t *testing.T) (*AccountRepository, *mongo.Database, func()) {
	t.Helper()

	mongoURI := os.Getenv("TEST_MONGO_URI")
	if mongoURI == "" {
		t.Skip("TEST_MONGO_URI not set; skipping MongoDB integration tests")
	}
	dbName := fmt.Sprintf("test_identity_accounts_%d", time.Now().UnixNano())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(mongoURI).SetConnectTimeout(10 * time.Second))
	require.NoError(t, err, "mongo.Connect failed")
	require.NoError(t, client.Ping(ctx, nil), "mongo.Ping failed")

	db := client.Database(dbName)
	repo, err := NewAccountRepository(ctx, db)
	require.NoError(t, err)

	cleanup := func() {
		cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer ccancel()
		_ = db.Drop(cctx)
		_ = client.Disconnect(cctx)
	}
	return repo, db, cleanup
}

func newTestAccount(subjectID, email string, role domain.Role) *domain.Account {
	now := time.Now().UTC()
	return &domain.Account{
		ID:          uuid.NewString(),
		SubjectID:   subjectID,
		Email:       email,
		Role:        role,
		Status:      domain.AccountStatusActive,
		LoginCount:  1,
		LastLoginAt: &now,
		Preferences: domain.DefaultPreferences(""),
		CreatedAt:   now,
	}
}

func TestAccountRepository_CreateAndFind(t *testing.T) {
	repo, _, cleanup := setupAccountRepoTest(t)
	defer cleanup()
	ctx := context.Background()

	account := newTestAccount("p|int-1", "jane@example.com", domain.RoleTourist)
	require.NoError(t, repo.Create(ctx, account))

	t.Run("find by subject id", func(t *testing.T) {
		got, err := repo.FindBySubjectID(ctx, "p|int-1")
		require.NoError(t, err)
		assert.Equal(t, account.ID, got.ID)
		assert.Equal(t, domain.RoleTourist, got.Role)
		assert.Equal(t, "en", got.Preferences.Language)
	})

	t.Run("find by email or subject id", func(t *testing.T) {
		got, err := repo.FindByEmailOrSubjectID(ctx, "jane@example.com", "p|unknown")
		require.NoError(t, err)
		assert.Equal(t, account.ID, got.ID)
	})

	t.Run("unknown subject id yields not found", func(t *testing.T) {
		_, err := repo.FindBySubjectID(ctx, "p|ghost")
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestAccountRepository_DuplicateSubjectID(t *testing.T) {
	repo, _, cleanup := setupAccountRepoTest(t)
	defer cleanup()
	ctx := context.Background()

	first := newTestAccount("p|dup", "first@example.com", domain.RoleTourist)
	require.NoError(t, repo.Create(ctx, first))

	second := newTestAccount("p|dup", "second@example.com", domain.RoleTourist)
	err := repo.Create(ctx, second)
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)
}

func TestAccountRepository_UpdateBySubjectID(t *testing.T) {
	repo, _, cleanup := setupAccountRepoTest(t)
	defer cleanup()
	ctx := context.Background()

	account := newTestAccount("p|upd", "upd@example.com", domain.RoleVet)
	require.NoError(t, repo.Create(ctx, account))

	account.LoginCount = 2
	account.Name = "Dr. Amara Silva"
	require.NoError(t, repo.UpdateBySubjectID(ctx, "p|upd", account))

	got, err := repo.FindBySubjectID(ctx, "p|upd")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.LoginCount)
	assert.Equal(t, "Dr. Amara Silva", got.Name)
	assert.Equal(t, domain.RoleVet, got.Role)

	t.Run("unknown subject id yields not found", func(t *testing.T) {
		err := repo.UpdateBySubjectID(ctx, "p|ghost", account)
		assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	})
}

func TestRoleRecordRepository_Exists(t *testing.T) {
	_, db, cleanup := setupAccountRepoTest(t)
	defer cleanup()
	ctx := context.Background()

	_, err := db.Collection("vets").InsertOne(ctx, bson.M{"email": "doc@generic.com", "name": "Dr. Silva"})
	require.NoError(t, err)

	records := NewRoleRecordRepository(db)

	ok, err := records.Exists(ctx, "vets", "email", "doc@generic.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = records.Exists(ctx, "vets", "email", "nobody@generic.com")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = records.Exists(ctx, "admins", "email", "doc@generic.com")
	require.NoError(t, err)
	assert.False(t, ok)
}
