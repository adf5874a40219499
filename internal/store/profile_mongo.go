package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AnshRaj112/vitalcoach-backend/internal/apperr"
	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
)

// ProfilesCollection is the Mongo collection holding one document per user.
const ProfilesCollection = "profiles"

type MongoProfileStore struct {
	col *mongo.Collection
}

func NewMongoProfileStore(col *mongo.Collection) *MongoProfileStore {
	return &MongoProfileStore{col: col}
}

// EnsureIndexes creates the unique user_id index. Called on startup after
// Mongo has connected.
func (s *MongoProfileStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetName("idx_profile_user").SetUnique(true),
	})
	return err
}

func (s *MongoProfileStore) SaveProfile(ctx context.Context, p models.Profile) error {
	_, err := s.col.ReplaceOne(ctx, bson.M{"user_id": p.UserID}, p, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *MongoProfileStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	err := s.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFoundf("no profile found for user")
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}
