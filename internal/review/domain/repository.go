package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewRepository defines persistence for reviews plus the transactional
// rating-ledger paths. The three *WithRating methods are atomic across the
// review and its listing: either both writes commit or neither does.
type ReviewRepository interface {
	// CreateWithRating inserts the review and folds its rating into the
	// listing aggregate in one transaction. Returns ErrListingNotFound (and
	// persists nothing) when the listing is absent.
	CreateWithRating(ctx context.Context, review *Review) error

	// UpdateWithRating applies the partial edit and, only when the rating
	// actually changed, compensates the listing aggregate in the same
	// transaction. Returns the updated review.
	UpdateWithRating(ctx context.Context, id primitive.ObjectID, update ReviewUpdate) (*Review, error)

	// SoftDeleteWithRating flips the public flag of a currently-public review
	// and removes its contribution from the listing aggregate. A review that
	// is already non-public reports ErrReviewNotFound.
	SoftDeleteWithRating(ctx context.Context, id primitive.ObjectID) error

	// FindPublicByListing returns the currently-public reviews of a listing.
	// Order is not guaranteed.
	FindPublicByListing(ctx context.Context, listingID primitive.ObjectID) ([]*Review, error)
}
