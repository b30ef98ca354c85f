package mongodb

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/wildlanka/identity/domain"
)

// RoleRecordRepository implements domain.RoleRecordStore over the specialized
// staff collections. Those collections are owned by the admin provisioning
// surface; this repository only ever reads.
type RoleRecordRepository struct {
	db *mongo.Database
}

// NewRoleRecordRepository creates a read-only view over db's staff collections.
func NewRoleRecordRepository(db *mongo.Database) *RoleRecordRepository {
	return &RoleRecordRepository{db: db}
}

// Exists reports whether collection holds a record whose emailField equals
// email (matched lower-cased, as the provisioning surface stores them).
func (r *RoleRecordRepository) Exists(ctx context.Context, collection, emailField, email string) (bool, error) {
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	err := r.db.Collection(collection).
		FindOne(ctx, bson.M{emailField: strings.ToLower(email)}, opts).
		Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var _ domain.RoleRecordStore = (*RoleRecordRepository)(nil)
