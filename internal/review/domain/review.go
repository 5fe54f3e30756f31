package domain

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrReviewNotFound indicates the review is absent or already soft-deleted.
	ErrReviewNotFound = errors.New("review not found")
	// ErrListingNotFound indicates the review's listing does not exist; a
	// review must never be created orphaned.
	ErrListingNotFound = errors.New("listing not found")
	// ErrInvalidInput indicates a malformed parameter, rejected before any
	// store access.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRepository indicates a generic persistence failure, including an
	// aborted transaction. Callers may retry the whole operation since no
	// partial state is ever persisted.
	ErrRepository = errors.New("repository error")
)

// Review is one rating plus message bound to exactly one listing. IsPublic is
// the soft-delete flag: once false the review is excluded from every read
// path and from the listing aggregate, but the row is retained for audit.
type Review struct {
	ID           primitive.ObjectID
	ListingID    primitive.ObjectID
	ReviewerName string
	ReviewerID   string // optional; empty for anonymous reviewers
	Rating       int32
	Message      string
	IsPublic     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewReview validates and builds a review ready for insertion.
func NewReview(listingID, reviewerName, reviewerID, message string, rating int32) (*Review, error) {
	oid, err := primitive.ObjectIDFromHex(listingID)
	if err != nil {
		return nil, fmt.Errorf("%w: listingId must be a valid object id", ErrInvalidInput)
	}
	if reviewerName == "" {
		return nil, fmt.Errorf("%w: reviewerName cannot be empty", ErrInvalidInput)
	}
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	now := time.Now().UTC()
	return &Review{
		ID:           primitive.NewObjectID(),
		ListingID:    oid,
		ReviewerName: reviewerName,
		ReviewerID:   reviewerID,
		Rating:       rating,
		Message:      message,
		IsPublic:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ReviewUpdate is a partial edit; nil fields are left untouched.
type ReviewUpdate struct {
	Rating  *int32
	Message *string
}
