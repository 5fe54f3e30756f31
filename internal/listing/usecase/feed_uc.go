package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/trailpoint/listing-service/internal/listing/domain"
	"github.com/trailpoint/listing-service/internal/listing/pagination"
	"github.com/trailpoint/listing-service/internal/platform/logger"
)

// FeedUsecase plans and executes one cursor-paginated feed page.
type FeedUsecase struct {
	repo   domain.ListingRepository
	logger *logger.Logger
}

// NewFeedUsecase creates a new FeedUsecase.
func NewFeedUsecase(repo domain.ListingRepository, log *logger.Logger) *FeedUsecase {
	return &FeedUsecase{
		repo:   repo,
		logger: log.Named("FeedUsecase"),
	}
}

// GetFeed validates the filter, plans the aggregation pipeline and runs it
// with a one-row over-fetch. The page is truncated back to the requested
// size; the next cursor is derived from the last row of the truncated page,
// never from the sentinel row.
func (uc *FeedUsecase) GetFeed(ctx context.Context, filter domain.FeedFilter) (*domain.FeedPage, error) {
	if err := filter.Validate(); err != nil {
		uc.logger.Warn("Rejected feed filter", zap.Error(err))
		return nil, err
	}

	var cursor *pagination.Cursor
	if filter.Cursor != "" {
		var err error
		cursor, err = pagination.Decode(filter.Cursor)
		if err != nil {
			uc.logger.Warn("Rejected feed cursor", zap.Error(err))
			return nil, err
		}
	}

	pipeline, err := pagination.BuildPipeline(&filter, cursor)
	if err != nil {
		uc.logger.Warn("Failed to plan feed pipeline", zap.Error(err))
		return nil, err
	}

	rows, err := uc.repo.Feed(ctx, pipeline)
	if err != nil {
		uc.logger.Error("Feed query failed", zap.String("sort", string(filter.Sort)), zap.Error(err))
		return nil, fmt.Errorf("%w: feed query: %v", domain.ErrRepository, err)
	}

	hasNextPage := int64(len(rows)) > filter.Limit
	data := rows
	if hasNextPage {
		data = rows[:filter.Limit]
	}

	page := &domain.FeedPage{
		Data:        data,
		HasNextPage: hasNextPage,
	}
	if hasNextPage && len(data) > 0 {
		last := data[len(data)-1]
		token, err := pagination.Encode(pagination.FromFeedItem(&last, filter.Sort))
		if err != nil {
			uc.logger.Error("Failed to encode next cursor", zap.Error(err))
			return nil, err
		}
		page.NextCursor = &token
	}

	uc.logger.Debug("Feed page served",
		zap.String("sort", string(filter.Sort)),
		zap.Int("rows", len(data)),
		zap.Bool("has_next_page", hasNextPage))
	return page, nil
}
