package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/wildlanka/identity/domain"
)

// AccountRepository implements domain.AccountRepository on MongoDB. The
// unique indexes on subject_id and email are what turn the concurrent
// first-login race into domain.ErrDuplicateAccount.
type AccountRepository struct {
	db       *mongo.Database
	accounts *mongo.Collection
}

// NewAccountRepository creates the repository and ensures its indexes.
func NewAccountRepository(ctx context.Context, db *mongo.Database) (*AccountRepository, error) {
	repo := &AccountRepository{
		db:       db,
		accounts: db.Collection(AccountsCollection),
	}
	if err := repo.createIndexes(ctx); err != nil {
		// Creation can fail against pre-existing compatible indexes; that is
		// not fatal for startup.
		log.Warn().Err(err).Msg("Failed to create account indexes (may already exist)")
	}
	return repo, nil
}

func (r *AccountRepository) createIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subject_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Case-insensitive unique email.
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(&options.Collation{Locale: "en", Strength: 2}),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}},
			Options: options.Index().SetUnique(false),
		},
	}

	_, err := r.accounts.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		log.Warn().Err(err).Msg("Error creating indexes for accounts collection")
		return fmt.Errorf("failed to create indexes for accounts collection: %w", err)
	}
	log.Info().Msg("Indexes for accounts collection ensured.")
	return nil
}

// FindBySubjectID matches on subject_id exactly, never by email.
func (r *AccountRepository) FindBySubjectID(ctx context.Context, subjectID string) (*domain.Account, error) {
	var account domain.Account
	err := r.accounts.FindOne(ctx, bson.M{"subject_id": subjectID}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		log.Error().Err(err).Str("subject_id", subjectID).Msg("Error getting account by subject id from MongoDB")
		return nil, err
	}
	return &account, nil
}

// FindByEmailOrSubjectID is the broader lookup used by the role resolver.
func (r *AccountRepository) FindByEmailOrSubjectID(ctx context.Context, email, subjectID string) (*domain.Account, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"email": strings.ToLower(email)},
		bson.M{"subject_id": subjectID},
	}}

	var account domain.Account
	err := r.accounts.FindOne(ctx, filter).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		log.Error().Err(err).Str("email", email).Msg("Error getting account by email or subject id from MongoDB")
		return nil, err
	}
	return &account, nil
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	account.UpdatedAt = time.Now().UTC()
	if account.Status == "" {
		account.Status = domain.AccountStatusActive
	}

	_, err := r.accounts.InsertOne(ctx, account)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateAccount
		}
		log.Error().Err(err).Str("subject_id", account.SubjectID).Msg("Error creating account in MongoDB")
		return err
	}
	return nil
}

// UpdateBySubjectID replaces the stored record for subjectID.
func (r *AccountRepository) UpdateBySubjectID(ctx context.Context, subjectID string, account *domain.Account) error {
	if subjectID == "" {
		return errors.New("subject id is required for update")
	}
	account.UpdatedAt = time.Now().UTC()

	result, err := r.accounts.ReplaceOne(ctx, bson.M{"subject_id": subjectID}, account)
	if err != nil {
		log.Error().Err(err).Str("subject_id", subjectID).Msg("Error updating account in MongoDB")
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// Ensure interface compliance
var _ domain.AccountRepository = (*AccountRepository)(nil)
