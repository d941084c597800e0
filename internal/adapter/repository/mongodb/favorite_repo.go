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
	"go.mongodb.org/mongo-driver/mongo/options"
)

type FavoriteRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewFavoriteRepository expects a unique index on (user_id, listing_id); see
// EnsureIndexes.
func NewFavoriteRepository(db *mongo.Database, log *logger.Logger) *FavoriteRepository {
	return &FavoriteRepository{
		collection: db.Collection("favorites"),
		logger:     log,
	}
}

// EnsureIndexes creates the unique (user_id, listing_id) index that backs the
// "toggle never duplicates" invariant.
func (r *FavoriteRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "listing_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return classify(err)
}

func (r *FavoriteRepository) Add(ctx context.Context, favorite *domain.Favorite) error {
	favorite.CreatedAt = time.Now().UTC()

	doc := &favoriteDocument{
		UserID:    favorite.UserID,
		ListingID: favorite.ListingID,
		CreatedAt: favorite.CreatedAt,
	}

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateFavorite
		}
		r.logger.Error("FavoriteRepository.Add: InsertOne failed", "user_id", favorite.UserID, "listing_id", favorite.ListingID, "error", err.Error())
		return classify(err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted ID type %T", res.InsertedID)
	}
	favorite.ID = oid.Hex()
	return nil
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, listingID string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "listing_id": listingID})
	if err != nil {
		r.logger.Error("FavoriteRepository.Remove: DeleteOne failed", "user_id", userID, "listing_id", listingID, "error", err.Error())
		return classify(err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrFavoriteNotFound
	}
	return nil
}

func (r *FavoriteRepository) FindByUserID(ctx context.Context, userID string) ([]*domain.Favorite, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		r.logger.Error("FavoriteRepository.FindByUserID: Find failed", "user_id", userID, "error", err.Error())
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	var docs []*favoriteDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, classify(err)
	}
	return toDomainFavorites(docs), nil
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID, listingID string) (bool, error) {
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "listing_id": listingID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		r.logger.Error("FavoriteRepository.Exists: FindOne failed", "user_id", userID, "listing_id", listingID, "error", err.Error())
		return false, classify(err)
	}
	return true, nil
}
