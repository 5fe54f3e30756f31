package usecase

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/trailpoint/listing-service/internal/listing/domain"
)

// fakeListingRepo is an in-memory ListingRepository stand-in. Behaviors are
// overridable per test via the function fields; unset fields use the map.
type fakeListingRepo struct {
	listings map[string]*domain.Listing

	feedFn   func(ctx context.Context, pipeline []bson.D) ([]domain.FeedItem, error)
	likeFn   func(ctx context.Context, id, userID string) (*domain.LikeOutcome, error)
	unlikeFn func(ctx context.Context, id, userID string) (*domain.LikeOutcome, error)

	lastPipeline []bson.D
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
	kept := l.Images[:0]
	for _, img := range l.Images {
		if img.ExternalID != externalID {
			kept = append(kept, img)
		}
	}
	l.Images = kept
	return l, nil
}

func (f *fakeListingRepo) Feed(ctx context.Context, pipeline []bson.D) ([]domain.FeedItem, error) {
	f.lastPipeline = pipeline
	if f.feedFn != nil {
		return f.feedFn(ctx, pipeline)
	}
	return nil, nil
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

// fakeCache records invalidations.
type fakeCache struct {
	store   map[string]*domain.Listing
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: map[string]*domain.Listing{}}
}

func (f *fakeCache) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	return f.store[id], nil
}

func (f *fakeCache) SetListing(ctx context.Context, listing *domain.Listing) error {
	f.store[listing.ID] = listing
	return nil
}

func (f *fakeCache) DeleteListing(ctx context.Context, id string) error {
	delete(f.store, id)
	f.deleted = append(f.deleted, id)
	return nil
}

// fakeStorage counts uploads and removals; removeErrs injects per-key failures.
type fakeStorage struct {
	uploads    int
	removed    []string
	removeErrs map[string]error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{removeErrs: map[string]error{}}
}

func (f *fakeStorage) Upload(ctx context.Context, fileName string, data []byte) (*domain.Image, error) {
	f.uploads++
	key := fmt.Sprintf("listings/%d-%s", f.uploads, fileName)
	return &domain.Image{URL: "http://minio/" + key, ExternalID: key, Format: "jpg"}, nil
}

func (f *fakeStorage) Remove(ctx context.Context, externalID string) error {
	if err := f.removeErrs[externalID]; err != nil {
		return err
	}
	f.removed = append(f.removed, externalID)
	return nil
}

// fakePublisher records published subjects.
type fakePublisher struct {
	subjects []string
}

func (f *fakePublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	f.subjects = append(f.subjects, subject)
	return nil
}

// fakeMailer records sent notifications.
type fakeMailer struct {
	created     []string
	suggestions []string
}

func (f *fakeMailer) SendListingCreated(toEmail, listingName string) error {
	f.created = append(f.created, toEmail)
	return nil
}

func (f *fakeMailer) SendSuggestion(listingID, listingName, field, suggestion, reporterName, reporterEmail string) error {
	f.suggestions = append(f.suggestions, listingID)
	return nil
}
