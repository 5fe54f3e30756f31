package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/trailpoint/listing-service/internal/listing/domain"
	"github.com/trailpoint/listing-service/internal/platform/logger"
)

// LikeUsecase implements the idempotent per-user like toggle with an
// anonymous counter-only fallback.
type LikeUsecase struct {
	repo   domain.ListingRepository
	cache  domain.ListingCache
	logger *logger.Logger
}

// NewLikeUsecase creates a new LikeUsecase.
func NewLikeUsecase(repo domain.ListingRepository, cache domain.ListingCache, log *logger.Logger) *LikeUsecase {
	return &LikeUsecase{
		repo:   repo,
		cache:  cache,
		logger: log.Named("LikeUsecase"),
	}
}

// Like adds a like. With an identity the operation is idempotent: a second
// call reports AlreadyLiked without touching the counter. Anonymous calls
// always increment; without an identity there is nothing to dedupe on.
func (uc *LikeUsecase) Like(ctx context.Context, listingID, userID string) (*domain.LikeOutcome, error) {
	outcome, err := uc.repo.Like(ctx, listingID, userID)
	if err != nil {
		uc.logger.Error("Like failed", zap.String("listing_id", listingID), zap.Error(err))
		return nil, err
	}
	if !outcome.AlreadyLiked {
		uc.invalidate(ctx, listingID)
	}
	uc.logger.Debug("Like processed",
		zap.String("listing_id", listingID),
		zap.Bool("already_liked", outcome.AlreadyLiked),
		zap.Bool("anonymous", userID == ""))
	return outcome, nil
}

// Unlike removes a like. With an identity the removal is conditioned on the
// identity being in the liker set and the counter being positive. Anonymous
// unlike decrements only while the counter is positive; it may consume an
// increment made by a different anonymous caller, which is accepted.
func (uc *LikeUsecase) Unlike(ctx context.Context, listingID, userID string) (*domain.LikeOutcome, error) {
	outcome, err := uc.repo.Unlike(ctx, listingID, userID)
	if err != nil {
		uc.logger.Error("Unlike failed", zap.String("listing_id", listingID), zap.Error(err))
		return nil, err
	}
	if !outcome.NotPreviouslyLiked {
		uc.invalidate(ctx, listingID)
	}
	uc.logger.Debug("Unlike processed",
		zap.String("listing_id", listingID),
		zap.Bool("not_previously_liked", outcome.NotPreviouslyLiked),
		zap.Bool("anonymous", userID == ""))
	return outcome, nil
}

func (uc *LikeUsecase) invalidate(ctx context.Context, id string) {
	if err := uc.cache.DeleteListing(ctx, id); err != nil {
		uc.logger.Warn("Listing cache invalidation failed", zap.String("listing_id", id), zap.Error(err))
	}
}
