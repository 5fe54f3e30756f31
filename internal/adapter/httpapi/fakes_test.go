package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/trailpoint/listing-service/internal/listing/domain"
	"github.com/trailpoint/listing-service/internal/platform/logger"
	"github.com/trailpoint/listing-service/internal/platform/metrics"
	reviewdomain "github.com/trailpoint/listing-service/internal/review/domain"
)

// withURLParam binds a chi route parameter onto the request so handlers can be
// invoked without a full router.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func newTestMetrics() *metrics.MetricsManager {
	return metrics.NewMetricsManager("handler_test")
}

func testLogger() *logger.Logger {
	return logger.NewLogger()
}

// fakeListingRepo captures the planned feed pipeline and lets tests script the
// like/unlike outcomes.
type fakeListingRepo struct {
	listings map[string]*domain.Listing

	lastPipeline []bson.D
	feedRows     []domain.FeedItem

	likeFn   func(ctx context.Context, id, userID string) (*domain.LikeOutcome, error)
	unlikeFn func(ctx context.Context, id, userID string) (*domain.LikeOutcome, error)
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: map[string]*domain.Listing{}}
}

func (f *fakeListingRepo) Create(ctx context.Context, listing *domain.Listing) error {
	if listing.ID == "" {
		listing.ID = fmt.Sprintf("%024d", len(f.listings)+1)
	}
	f.listings[listing.ID] = listing
	return nil
}

func (f *fakeListingRepo) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return l, nil
}

func (f *fakeListingRepo) Delete(ctx context.Context, id string) (*domain.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	delete(f.listings, id)
	return l, nil
}

func (f *fakeListingRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) (*domain.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return l, nil
}

func (f *fakeListingRepo) AddImages(ctx context.Context, id string, images []domain.Image) (*domain.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	l.Images = append(l.Images, images...)
	return l, nil
}

func (f *fakeListingRepo) RemoveImage(ctx context.Context, id, externalID string) (*domain.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return l, nil
}

func (f *fakeListingRepo) Feed(ctx context.Context, pipeline []bson.D) ([]domain.FeedItem, error) {
	f.lastPipeline = pipeline
	return f.feedRows, nil
}

func (f *fakeListingRepo) Like(ctx context.Context, id, userID string) (*domain.LikeOutcome, error) {
	if f.likeFn != nil {
		return f.likeFn(ctx, id, userID)
	}
	return &domain.LikeOutcome{}, nil
}

func (f *fakeListingRepo) Unlike(ctx context.Context, id, userID string) (*domain.LikeOutcome, error) {
	if f.unlikeFn != nil {
		return f.unlikeFn(ctx, id, userID)
	}
	return &domain.LikeOutcome{}, nil
}

type fakeCache struct{}

func (fakeCache) GetListing(ctx context.Context, id string) (*domain.Listing, error) { return nil, nil }
func (fakeCache) SetListing(ctx context.Context, listing *domain.Listing) error      { return nil }
func (fakeCache) DeleteListing(ctx context.Context, id string) error                 { return nil }

// fakeReviewRepo answers the transactional contract in memory; the err fields
// inject failures per operation.
type fakeReviewRepo struct {
	updated *reviewdomain.Review

	createErr error
	updateErr error
	deleteErr error
}

func (f *fakeReviewRepo) CreateWithRating(ctx context.Context, review *reviewdomain.Review) error {
	return f.createErr
}

func (f *fakeReviewRepo) UpdateWithRating(ctx context.Context, id primitive.ObjectID, update reviewdomain.ReviewUpdate) (*reviewdomain.Review, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if f.updated != nil {
		return f.updated, nil
	}
	return &reviewdomain.Review{ID: id, ListingID: primitive.NewObjectID(), Rating: 4, IsPublic: true}, nil
}

func (f *fakeReviewRepo) SoftDeleteWithRating(ctx context.Context, id primitive.ObjectID) error {
	return f.deleteErr
}

func (f *fakeReviewRepo) FindPublicByListing(ctx context.Context, listingID primitive.ObjectID) ([]*reviewdomain.Review, error) {
	return nil, nil
}

type fakePublisher struct {
	subjects []string
}

func (f *fakePublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

type fakeStorage struct{}

func (fakeStorage) Upload(ctx context.Context, fileName string, data []byte) (*domain.Image, error) {
	return &domain.Image{URL: "http://minio/listings/" + fileName, ExternalID: "listings/" + fileName}, nil
}

func (fakeStorage) Remove(ctx context.Context, externalID string) error { return nil }

type fakeMailer struct{}

func (fakeMailer) SendListingCreated(toEmail, listingName string) error { return nil }

func (fakeMailer) SendSuggestion(listingID, listingName, field, suggestion, reporterName, reporterEmail string) error {
	return nil
}
