package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/poundtrades/catalog-service/internal/listing/domain"
	"github.com/poundtrades/catalog-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type UnlockRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewUnlockRepository(db *mongo.Database, log *logger.Logger) *UnlockRepository {
	return &UnlockRepository{
		collection: db.Collection("unlocks"),
		logger:     log,
	}
}

// Add inserts unconditionally. Duplicate unlocks for one (user, listing) pair
// are tolerated; Exists only cares whether at least one row is present.
func (r *UnlockRepository) Add(ctx context.Context, unlock *domain.Unlock) error {
	unlock.CreatedAt = time.Now().UTC()

	doc := &unlockDocument{
		UserID:    unlock.UserID,
		ListingID: unlock.ListingID,
		Amount:    unlock.Amount,
		CreatedAt: unlock.CreatedAt,
	}

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		r.logger.Error("UnlockRepository.Add: InsertOne failed", "user_id", unlock.UserID, "listing_id", unlock.ListingID, "error", err.Error())
		return classify(err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted ID type %T", res.InsertedID)
	}
	unlock.ID = oid.Hex()
	return nil
}

func (r *UnlockRepository) Exists(ctx context.Context, userID, listingID string) (bool, error) {
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "listing_id": listingID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		r.logger.Error("UnlockRepository.Exists: FindOne failed", "user_id", userID, "listing_id", listingID, "error", err.Error())
		return false, classify(err)
	}
	return true, nil
}
