package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/poundtrades/catalog-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository is the seller directory: it resolves owner ids to contact
// emails for moderation notices.
type UserRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewUserRepository(db *mongo.Database, log *logger.Logger) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
		logger:     log,
	}
}

func (r *UserRepository) GetEmailByID(ctx context.Context, userID string) (string, error) {
	objID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return "", fmt.Errorf("invalid user ID format: %w", err)
	}

	var userDoc struct {
		Email string `bson:"email"`
	}

	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&userDoc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", fmt.Errorf("user %s not found", userID)
		}
		r.logger.Error("UserRepository.GetEmailByID: FindOne failed", "user_id", userID, "error", err.Error())
		return "", classify(err)
	}
	return userDoc.Email, nil
}
