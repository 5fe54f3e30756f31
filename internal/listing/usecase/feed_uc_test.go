package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trailpoint/listing-service/internal/listing/domain"
	"github.com/trailpoint/listing-service/internal/listing/pagination"
	"github.com/trailpoint/listing-service/internal/platform/logger"
)

func feedRows(n int) []domain.FeedItem {
	rows := make([]domain.FeedItem, n)
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := range rows {
		rows[i] = domain.FeedItem{
			ID:            primitive.NewObjectID(),
			Name:          "Place",
			AverageRating: float64(i % 5),
			LikesCount:    int64(i),
			CreatedAt:     base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return rows
}

func TestGetFeedFullPageEmitsCursor(t *testing.T) {
	repo := newFakeListingRepo()
	repo.feedFn = func(ctx context.Context, pipeline []bson.D) ([]domain.FeedItem, error) {
		return feedRows(6), nil // limit+1 rows: another page exists
	}
	uc := NewFeedUsecase(repo, logger.NewLogger())

	page, err := uc.GetFeed(context.Background(), domain.FeedFilter{Sort: domain.SortNewest, Limit: 5})
	require.NoError(t, err)

	assert.Len(t, page.Data, 5, "sentinel row is truncated away")
	assert.True(t, page.HasNextPage)
	require.NotNil(t, page.NextCursor)

	// The cursor must describe the last served row, not the sentinel.
	decoded, err := pagination.Decode(*page.NextCursor)
	require.NoError(t, err)
	assert.Equal(t, page.Data[4].ID.Hex(), decoded.ID)
}

func TestGetFeedShortPageHasNoCursor(t *testing.T) {
	repo := newFakeListingRepo()
	repo.feedFn = func(ctx context.Context, pipeline []bson.D) ([]domain.FeedItem, error) {
		return feedRows(3), nil
	}
	uc := NewFeedUsecase(repo, logger.NewLogger())

	page, err := uc.GetFeed(context.Background(), domain.FeedFilter{Sort: domain.SortNewest, Limit: 5})
	require.NoError(t, err)

	assert.Len(t, page.Data, 3)
	assert.False(t, page.HasNextPage)
	assert.Nil(t, page.NextCursor)
}

func TestGetFeedEmptyResult(t *testing.T) {
	repo := newFakeListingRepo()
	uc := NewFeedUsecase(repo, logger.NewLogger())

	page, err := uc.GetFeed(context.Background(), domain.FeedFilter{Sort: domain.SortNewest, Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.False(t, page.HasNextPage)
	assert.Nil(t, page.NextCursor)
}

func TestGetFeedRejectsInvalidFilter(t *testing.T) {
	uc := NewFeedUsecase(newFakeListingRepo(), logger.NewLogger())

	cases := []domain.FeedFilter{
		{Sort: domain.SortNewest, Limit: 0},
		{Sort: domain.SortNewest, Limit: 101},
		{Sort: domain.SortNewest, Limit: 20, MinRating: 5.5},
		{Sort: domain.SortNewest, Limit: 20, DistanceKm: 251},
		{Sort: domain.SortDistance, Limit: 20}, // distance sort without coordinates
	}
	for _, filter := range cases {
		_, err := uc.GetFeed(context.Background(), filter)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
}

func TestGetFeedRejectsBadCursor(t *testing.T) {
	uc := NewFeedUsecase(newFakeListingRepo(), logger.NewLogger())

	_, err := uc.GetFeed(context.Background(), domain.FeedFilter{
		Sort: domain.SortNewest, Limit: 20, Cursor: "!!definitely-not-a-token!!",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)
}

func TestGetFeedWrapsRepositoryErrors(t *testing.T) {
	repo := newFakeListingRepo()
	repo.feedFn = func(ctx context.Context, pipeline []bson.D) ([]domain.FeedItem, error) {
		return nil, errors.New("socket reset")
	}
	uc := NewFeedUsecase(repo, logger.NewLogger())

	_, err := uc.GetFeed(context.Background(), domain.FeedFilter{Sort: domain.SortNewest, Limit: 20})
	assert.ErrorIs(t, err, domain.ErrRepository)
}

func TestGetFeedPlansOverFetch(t *testing.T) {
	repo := newFakeListingRepo()
	uc := NewFeedUsecase(repo, logger.NewLogger())

	_, err := uc.GetFeed(context.Background(), domain.FeedFilter{Sort: domain.SortNewest, Limit: 7})
	require.NoError(t, err)

	require.NotEmpty(t, repo.lastPipeline)
	last := repo.lastPipeline[len(repo.lastPipeline)-1]
	require.Equal(t, "$limit", last[0].Key)
	assert.Equal(t, int64(8), last[0].Value)
}
