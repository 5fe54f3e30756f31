package usecase

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/trailpoint/listing-service/internal/platform/logger"
	"github.com/trailpoint/listing-service/internal/review/domain"
)

// EventPublisher publishes domain events; failures are logged and never
// escalate to failing the parent operation.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// ReviewUsecase implements the review mutations backed by the transactional
// rating ledger.
type ReviewUsecase struct {
	repo   domain.ReviewRepository
	events EventPublisher
	logger *logger.Logger
}

// NewReviewUsecase creates a new ReviewUsecase.
func NewReviewUsecase(repo domain.ReviewRepository, events EventPublisher, log *logger.Logger) *ReviewUsecase {
	return &ReviewUsecase{
		repo:   repo,
		events: events,
		logger: log.Named("ReviewUsecase"),
	}
}

// CreateReview creates a review and folds its rating into the listing
// aggregate atomically. A missing listing aborts the whole operation.
func (uc *ReviewUsecase) CreateReview(ctx context.Context, listingID, reviewerName, reviewerID, message string, rating int32) (*domain.Review, error) {
	uc.logger.Info("Creating review",
		zap.String("listing_id", listingID),
		zap.String("reviewer_name", reviewerName),
		zap.Int32("rating", rating))

	review, err := domain.NewReview(listingID, reviewerName, reviewerID, message, rating)
	if err != nil {
		uc.logger.Warn("Rejected review input", zap.Error(err))
		return nil, err
	}

	if err := uc.repo.CreateWithRating(ctx, review); err != nil {
		uc.logger.Error("Failed to create review", zap.String("listing_id", listingID), zap.Error(err))
		return nil, err
	}

	if err := uc.events.Publish(ctx, "review.created", map[string]interface{}{
		"review_id":  review.ID.Hex(),
		"listing_id": review.ListingID.Hex(),
		"rating":     review.Rating,
		"created_at": review.CreatedAt.Format(time.RFC3339Nano),
	}); err != nil {
		uc.logger.Warn("Failed to publish review.created event", zap.Error(err))
	}

	uc.logger.Info("Review created", zap.String("review_id", review.ID.Hex()))
	return review, nil
}

// GetReviewsByListing returns the currently-public reviews of a listing.
// Callers must not assume any particular order.
func (uc *ReviewUsecase) GetReviewsByListing(ctx context.Context, listingID string) ([]*domain.Review, error) {
	oid, err := primitive.ObjectIDFromHex(listingID)
	if err != nil {
		return nil, fmt.Errorf("%w: listingId must be a valid object id", domain.ErrInvalidInput)
	}
	reviews, err := uc.repo.FindPublicByListing(ctx, oid)
	if err != nil {
		uc.logger.Error("Failed to fetch reviews", zap.String("listing_id", listingID), zap.Error(err))
		return nil, err
	}
	return reviews, nil
}

// UpdateReview edits a review's rating and/or message. Only a changed rating
// triggers the compensating listing update; a message-only edit leaves the
// aggregate alone.
func (uc *ReviewUsecase) UpdateReview(ctx context.Context, reviewID string, rating *int32, message *string) (*domain.Review, error) {
	oid, err := primitive.ObjectIDFromHex(reviewID)
	if err != nil {
		return nil, fmt.Errorf("%w: reviewId must be a valid object id", domain.ErrInvalidInput)
	}
	if rating == nil && message == nil {
		return nil, fmt.Errorf("%w: rating or message must be supplied", domain.ErrInvalidInput)
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrInvalidInput)
	}

	review, err := uc.repo.UpdateWithRating(ctx, oid, domain.ReviewUpdate{Rating: rating, Message: message})
	if err != nil {
		uc.logger.Error("Failed to update review", zap.String("review_id", reviewID), zap.Error(err))
		return nil, err
	}

	if err := uc.events.Publish(ctx, "review.updated", map[string]interface{}{
		"review_id":  review.ID.Hex(),
		"listing_id": review.ListingID.Hex(),
		"rating":     review.Rating,
	}); err != nil {
		uc.logger.Warn("Failed to publish review.updated event", zap.Error(err))
	}

	uc.logger.Info("Review updated", zap.String("review_id", reviewID))
	return review, nil
}

// DeleteReview soft-deletes a review and removes its contribution from the
// listing aggregate atomically. Deleting an already non-public review
// reports not-found.
func (uc *ReviewUsecase) DeleteReview(ctx context.Context, reviewID string) error {
	oid, err := primitive.ObjectIDFromHex(reviewID)
	if err != nil {
		return fmt.Errorf("%w: reviewId must be a valid object id", domain.ErrInvalidInput)
	}

	if err := uc.repo.SoftDeleteWithRating(ctx, oid); err != nil {
		uc.logger.Error("Failed to delete review", zap.String("review_id", reviewID), zap.Error(err))
		return err
	}

	if err := uc.events.Publish(ctx, "review.deleted", map[string]interface{}{
		"review_id": reviewID,
	}); err != nil {
		uc.logger.Warn("Failed to publish review.deleted event", zap.Error(err))
	}

	uc.logger.Info("Review deleted", zap.String("review_id", reviewID))
	return nil
}
