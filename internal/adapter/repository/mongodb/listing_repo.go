package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/poundtrades/catalog-service/internal/listing/domain"
	"github.com/poundtrades/catalog-service/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewListingRepository(db *mongo.Database, log *logger.Logger) *ListingRepository {
	return &ListingRepository{collection: db.Collection("listings"), logger: log}
}

func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	now := time.Now().UTC()
	listing.CreatedAt = now
	listing.UpdatedAt = now
	if listing.Status == "" {
		listing.Status = domain.StatusAvailable
	}

	doc, err := toListingDocument(listing)
	if err != nil {
		return err
	}

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		r.logger.Error("ListingRepository.Create: InsertOne failed", "owner_id", listing.OwnerID, "error", err.Error())
		return classify(err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return errors.New("failed to retrieve generated listing ID")
	}
	listing.ID = oid.Hex()
	return nil
}

func (r *ListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	listing.UpdatedAt = time.Now().UTC()
	doc, err := toListingDocument(listing)
	if err != nil {
		return err
	}

	res, err := r.collection.UpdateByID(ctx, doc.ID, bson.M{"$set": doc})
	if err != nil {
		r.logger.Error("ListingRepository.Update: UpdateByID failed", "listing_id", listing.ID, "error", err.Error())
		return classify(err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrListingNotFound
	}
	// DeletedCount == 0 is fine: delete is idempotent.
	_, err = r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		r.logger.Error("ListingRepository.Delete: DeleteOne failed", "listing_id", id, "error", err.Error())
		return classify(err)
	}
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrListingNotFound
	}
	var doc listingDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		r.logger.Error("ListingRepository.FindByID: FindOne failed", "listing_id", id, "error", err.Error())
		return nil, classify(err)
	}
	return toDomainListing(&doc), nil
}

func (r *ListingRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Listing, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue // dangling reference, treat as absent
		}
		oids = append(oids, oid)
	}
	if len(oids) == 0 {
		return []*domain.Listing{}, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		r.logger.Error("ListingRepository.FindByIDs: Find failed", "count", len(oids), "error", err.Error())
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	var docs []*listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify(err)
	}
	return toDomainListings(docs), nil
}

// FindByQuery translates a normalized query into a Mongo predicate. The
// favorites join (ScopeFavoritesOf) is resolved a layer up, through
// FindByIDs; this method handles All and ByOwner scopes.
func (r *ListingRepository) FindByQuery(ctx context.Context, q domain.Query) ([]*domain.Listing, error) {
	q = q.Normalize()
	query := bson.M{}

	if q.Term != "" {
		re := bson.M{"$regex": primitive.Regex{Pattern: regexQuote(q.Term), Options: "i"}}
		query["$or"] = bson.A{bson.M{"title": re}, bson.M{"description": re}}
	}
	if q.Category.ID != "" {
		query["category_id"] = q.Category.ID
	} else if q.Category.Name != "" {
		query["category_name"] = bson.M{"$regex": primitive.Regex{Pattern: "^" + regexQuote(q.Category.Name) + "$", Options: "i"}}
	}
	if q.Location != "" {
		query["location"] = bson.M{"$regex": primitive.Regex{Pattern: regexQuote(q.Location), Options: "i"}}
	}
	price := bson.M{}
	if q.MinPrice > 0 {
		price["$gte"] = q.MinPrice
	}
	if q.MaxPrice > 0 {
		price["$lte"] = q.MaxPrice
	}
	if len(price) > 0 {
		query["price"] = price
	}

	switch q.Scope.Kind {
	case domain.ScopeByOwner:
		// Owners see their own listings in every status.
		query["owner_id"] = q.Scope.UserID
	default:
		query["status"] = bson.M{"$in": availableLiterals}
	}

	findOptions := options.Find().SetSort(sortSpec(q.Sort))

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		r.logger.Error("ListingRepository.FindByQuery: Find failed", "query_key", q.Key(), "error", err.Error())
		return nil, classify(err)
	}
	defer cursor.Close(ctx)

	var docs []*listingDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify(err)
	}
	return toDomainListings(docs), nil
}

func (r *ListingRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{})
	return n, classify(err)
}

func (r *ListingRepository) CountByStatus(ctx context.Context, status domain.ListingStatus) (int64, error) {
	literals := statusLiterals(status)
	n, err := r.collection.CountDocuments(ctx, bson.M{"status": bson.M{"$in": literals}})
	return n, classify(err)
}

// availableLiterals covers both the canonical status and the legacy one still
// present in older rows.
var availableLiterals = bson.A{string(domain.StatusAvailable), "active"}

func statusLiterals(status domain.ListingStatus) bson.A {
	switch status {
	case domain.StatusAvailable:
		return availableLiterals
	case domain.StatusSuspended:
		return bson.A{string(domain.StatusSuspended), "removed", "inactive"}
	default:
		return bson.A{string(status)}
	}
}

func sortSpec(sort domain.SortOrder) bson.D {
	switch sort {
	case domain.SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case domain.SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "boosted", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	}
}
