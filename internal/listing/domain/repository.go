package domain

import "context"

type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	Update(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	FindByIDs(ctx context.Context, ids []string) ([]*Listing, error)
	FindByQuery(ctx context.Context, q Query) ([]*Listing, error)
	CountByStatus(ctx context.Context, status ListingStatus) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type CategoryRepository interface {
	FindAll(ctx context.Context) ([]*Category, error)
}

type FavoriteRepository interface {
	Add(ctx context.Context, favorite *Favorite) error
	Remove(ctx context.Context, userID, listingID string) error
	FindByUserID(ctx context.Context, userID string) ([]*Favorite, error)
	Exists(ctx context.Context, userID, listingID string) (bool, error)
}

type UnlockRepository interface {
	Add(ctx context.Context, unlock *Unlock) error
	Exists(ctx context.Context, userID, listingID string) (bool, error)
}

// Storage holds image blobs and hands back a stable dereferenceable URL.
type Storage interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
}

// Publisher emits change events onto the realtime feed.
type Publisher interface {
	PublishChange(ctx context.Context, event ChangeEvent) error
}

// UserDirectory resolves a user id to a contact email for moderation notices.
type UserDirectory interface {
	GetEmailByID(ctx context.Context, userID string) (string, error)
}

// Mailer sends moderation notices. Failures are logged, never fatal.
type Mailer interface {
	SendStatusChanged(toEmail, listingTitle string, status ListingStatus) error
}
