package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/poundtrades/catalog-service/internal/listing/domain"
	"github.com/redis/go-redis/v9"
)

// ListingCache is a read-through Redis cache for single-listing lookups.
// Query result sets are cached in-process by the catalog store; this layer
// only serves GetByID, where the hit rate across instances makes a shared
// cache worthwhile.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewListingCache(addr string) (*ListingCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &ListingCache{client: client, ttl: 1 * time.Hour}, nil
}

func (c *ListingCache) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	data, err := c.client.Get(ctx, "listing:"+id).Bytes()
	if err == redis.Nil {
		return nil, nil // cache miss
	}
	if err != nil {
		return nil, err
	}
	var listing domain.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

func (c *ListingCache) SetListing(ctx context.Context, listing *domain.Listing) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "listing:"+listing.ID, data, c.ttl).Err()
}

func (c *ListingCache) DeleteListing(ctx context.Context, id string) error {
	return c.client.Del(ctx, "listing:"+id).Err()
}
