package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/trailpoint/listing-service/internal/listing/domain"
	"github.com/trailpoint/listing-service/internal/platform/logger"
)

const listingKeyPrefix = "listing:"
const listingTTL = 1 * time.Hour

// ListingCache is a cache-aside layer over Redis for individual listings.
type ListingCache struct {
	client *redis.Client
	logger *logger.Logger
}

func NewListingCache(addr string, log *logger.Logger) (*ListingCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("redis ping failed for %s: %w", addr, err)
	}
	return &ListingCache{client: client, logger: log.Named("ListingCache")}, nil
}

// NewListingCacheWithClient wraps an existing client. Used by tests.
func NewListingCacheWithClient(client *redis.Client, log *logger.Logger) *ListingCache {
	return &ListingCache{client: client, logger: log.Named("ListingCache")}
}

// GetListing returns (nil, nil) on a cache miss.
func (c *ListingCache) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	data, err := c.client.Get(ctx, listingKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	var listing domain.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		c.logger.Warn("Dropping undecodable cache entry", zap.String("listing_id", id), zap.Error(err))
		return nil, nil
	}
	return &listing, nil
}

func (c *ListingCache) SetListing(ctx context.Context, listing *domain.Listing) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("marshal listing failed: %w", err)
	}
	return c.client.Set(ctx, listingKeyPrefix+listing.ID, data, listingTTL).Err()
}

func (c *ListingCache) DeleteListing(ctx context.Context, id string) error {
	return c.client.Del(ctx, listingKeyPrefix+id).Err()
}
