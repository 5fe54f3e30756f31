package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// ListingRepository defines persistence for listings. Implementations
// translate store-level "no documents" conditions to ErrListingNotFound.
type ListingRepository interface {
	Create(ctx context.Context, listing *Listing) error
	FindByID(ctx context.Context, id string) (*Listing, error)
	Delete(ctx context.Context, id string) (*Listing, error)

	// Partial updates used by owner/admin edit paths. Each returns the
	// updated listing or ErrListingNotFound.
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (*Listing, error)
	AddImages(ctx context.Context, id string, images []Image) (*Listing, error)
	RemoveImage(ctx context.Context, id, externalID string) (*Listing, error)

	// Feed executes a planned aggregation pipeline. The pipeline is produced
	// by the pagination planner and passed through unchanged.
	Feed(ctx context.Context, pipeline []bson.D) ([]FeedItem, error)

	// Like/unlike are single conditional atomic updates, not transactions.
	Like(ctx context.Context, id, userID string) (*LikeOutcome, error)
	Unlike(ctx context.Context, id, userID string) (*LikeOutcome, error)
}

// ImageStorage is the external image-storage collaborator. Descriptors are
// stored opaquely; removal is keyed by the descriptor's external id.
type ImageStorage interface {
	Upload(ctx context.Context, fileName string, data []byte) (*Image, error)
	Remove(ctx context.Context, externalID string) error
}

// ListingCache is a read-through cache for per-ID listing lookups.
// A (nil, nil) return is a cache miss.
type ListingCache interface {
	GetListing(ctx context.Context, id string) (*Listing, error)
	SetListing(ctx context.Context, listing *Listing) error
	DeleteListing(ctx context.Context, id string) error
}
