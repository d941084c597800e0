package mongodb

import (
	"fmt"
	"time"

	"github.com/poundtrades/catalog-service/internal/listing/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// listingDocument is the stored form of a listing. Status is kept as the raw
// backend literal and mapped through domain.ParseStatus on the way out, so
// legacy rows with "active"/"removed" stay readable.
type listingDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID      string             `bson:"owner_id"`
	CategoryID   string             `bson:"category_id,omitempty"`
	CategoryName string             `bson:"category_name,omitempty"`
	Title        string             `bson:"title"`
	Description  string             `bson:"description"`
	Price        float64            `bson:"price"`
	Location     string             `bson:"location,omitempty"`
	Contact      string             `bson:"contact"`
	Photos       []string           `bson:"photos,omitempty"`
	Status       string             `bson:"status"`
	Boosted      bool               `bson:"boosted,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

type categoryDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
}

type favoriteDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	ListingID string             `bson:"listing_id"`
	CreatedAt time.Time          `bson:"created_at"`
}

type unlockDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	ListingID string             `bson:"listing_id"`
	Amount    float64            `bson:"amount"`
	CreatedAt time.Time          `bson:"created_at"`
}

func toListingDocument(l *domain.Listing) (*listingDocument, error) {
	if l == nil {
		return nil, nil
	}

	var docID primitive.ObjectID
	if l.ID != "" {
		var err error
		docID, err = primitive.ObjectIDFromHex(l.ID)
		if err != nil {
			return nil, fmt.Errorf("toListingDocument: invalid ID %q: %w", l.ID, err)
		}
	}

	return &listingDocument{
		ID:           docID,
		OwnerID:      l.OwnerID,
		CategoryID:   l.CategoryID,
		CategoryName: l.CategoryName,
		Title:        l.Title,
		Description:  l.Description,
		Price:        l.Price,
		Location:     l.Location,
		Contact:      l.Contact,
		Photos:       l.Photos,
		Status:       string(l.Status),
		Boosted:      l.Boosted,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}, nil
}

func toDomainListing(d *listingDocument) *domain.Listing {
	if d == nil {
		return nil
	}
	return &domain.Listing{
		ID:           d.ID.Hex(),
		OwnerID:      d.OwnerID,
		CategoryID:   d.CategoryID,
		CategoryName: d.CategoryName,
		Title:        d.Title,
		Description:  d.Description,
		Price:        d.Price,
		Location:     d.Location,
		Contact:      d.Contact,
		Photos:       d.Photos,
		Status:       domain.ParseStatus(d.Status),
		Boosted:      d.Boosted,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func toDomainListings(docs []*listingDocument) []*domain.Listing {
	out := make([]*domain.Listing, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDomainListing(doc))
	}
	return out
}

func toDomainCategory(d *categoryDocument) *domain.Category {
	if d == nil {
		return nil
	}
	return &domain.Category{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
	}
}

func toDomainFavorite(d *favoriteDocument) *domain.Favorite {
	if d == nil {
		return nil
	}
	return &domain.Favorite{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		ListingID: d.ListingID,
		CreatedAt: d.CreatedAt,
	}
}

func toDomainFavorites(docs []*favoriteDocument) []*domain.Favorite {
	out := make([]*domain.Favorite, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDomainFavorite(doc))
	}
	return out
}

func toDomainUnlock(d *unlockDocument) *domain.Unlock {
	if d == nil {
		return nil
	}
	return &domain.Unlock{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		ListingID: d.ListingID,
		Amount:    d.Amount,
		CreatedAt: d.CreatedAt,
	}
}
