package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailpoint/listing-service/internal/listing/domain"
	"github.com/trailpoint/listing-service/internal/platform/logger"
)

func validCreateInput() CreateListingInput {
	return CreateListingInput{
		Author:      "user-1",
		Name:        "Kolsai Lakes",
		Description: "A chain of three alpine lakes in the northern Tian Shan.",
		Categories:  []string{"Nature"},
		Tags:        []string{"Lakes", "Trekking"},
		Latitude:    42.95,
		Longitude:   78.32,
		Difficulty:  domain.DifficultyModerate,
	}
}

func newListingUC(repo *fakeListingRepo, cache *fakeCache, storage *fakeStorage, events *fakePublisher, mail *fakeMailer) *ListingUsecase {
	return NewListingUsecase(repo, cache, storage, events, mail, logger.NewLogger())
}

func TestCreateListingUploadsImagesAndPublishes(t *testing.T) {
	repo := newFakeListingRepo()
	storage := newFakeStorage()
	events := &fakePublisher{}
	mail := &fakeMailer{}
	uc := newListingUC(repo, newFakeCache(), storage, events, mail)

	in := validCreateInput()
	in.AuthorEmail = "author@example.com"
	in.Images = []ImageUpload{
		{FileName: "a.jpg", Data: []byte("aaa")},
		{FileName: "b.jpg", Data: []byte("bbb")},
	}

	listing, err := uc.CreateListing(context.Background(), in)
	require.NoError(t, err)

	assert.NotEmpty(t, listing.ID)
	assert.Len(t, listing.Images, 2)
	assert.Equal(t, 2, storage.uploads)
	assert.Equal(t, []string{"listing.created"}, events.subjects)
	assert.Equal(t, []string{"author@example.com"}, mail.created)
	assert.Equal(t, "Point", listing.Location.Type)
	assert.Equal(t, []float64{78.32, 42.95}, listing.Location.Coordinates, "GeoJSON stores lng,lat")
}

func TestCreateListingValidation(t *testing.T) {
	uc := newListingUC(newFakeListingRepo(), newFakeCache(), newFakeStorage(), &fakePublisher{}, &fakeMailer{})

	cases := map[string]func(*CreateListingInput){
		"missing author":      func(in *CreateListingInput) { in.Author = "" },
		"short name":          func(in *CreateListingInput) { in.Name = "ab" },
		"short description":   func(in *CreateListingInput) { in.Description = "too short" },
		"no categories":       func(in *CreateListingInput) { in.Categories = nil },
		"unknown category":    func(in *CreateListingInput) { in.Categories = []string{"Spelunking"} },
		"unknown tag":         func(in *CreateListingInput) { in.Tags = []string{"not-a-real-tag"} },
		"latitude range":      func(in *CreateListingInput) { in.Latitude = 90.5 },
		"longitude range":     func(in *CreateListingInput) { in.Longitude = -181 },
		"bad difficulty":      func(in *CreateListingInput) { in.Difficulty = "Impossible" },
		"oversized season":    func(in *CreateListingInput) { in.BestSeason = strings.Repeat("x", 101) },
		"oversized advice":    func(in *CreateListingInput) { in.ExtraAdvice = strings.Repeat("x", 2001) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validCreateInput()
			mutate(&in)
			_, err := uc.CreateListing(context.Background(), in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestGetListingCacheAside(t *testing.T) {
	repo := newFakeListingRepo()
	cache := newFakeCache()
	uc := newListingUC(repo, cache, newFakeStorage(), &fakePublisher{}, &fakeMailer{})

	stored := &domain.Listing{ID: "abc", Name: "Charyn Canyon", LikedBy: []string{"user-7"}}
	repo.listings["abc"] = stored

	listing, liked, err := uc.GetListing(context.Background(), "abc", "user-7")
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, "Charyn Canyon", listing.Name)
	assert.Contains(t, cache.store, "abc", "miss populates the cache")

	// Second read is served from cache even after the repo forgets the row.
	delete(repo.listings, "abc")
	cached, liked2, err := uc.GetListing(context.Background(), "abc", "nobody")
	require.NoError(t, err)
	assert.False(t, liked2)
	assert.Equal(t, "Charyn Canyon", cached.Name)
}

func TestDeleteListingCollectsImageRemovalErrors(t *testing.T) {
	repo := newFakeListingRepo()
	storage := newFakeStorage()
	events := &fakePublisher{}
	uc := newListingUC(repo, newFakeCache(), storage, events, &fakeMailer{})

	repo.listings["abc"] = &domain.Listing{
		ID: "abc",
		Images: []domain.Image{
			{ExternalID: "listings/ok.jpg"},
			{ExternalID: "listings/stuck.jpg"},
		},
	}
	storage.removeErrs["listings/stuck.jpg"] = errors.New("bucket unreachable")

	result, err := uc.DeleteListing(context.Background(), "abc")
	require.NoError(t, err, "storage failures never fail the delete")

	assert.Equal(t, []string{"listings/ok.jpg"}, storage.removed)
	require.Len(t, result.RemovalErrors, 1)
	assert.Equal(t, "listings/stuck.jpg", result.RemovalErrors[0].ExternalID)
	assert.Equal(t, []string{"listing.deleted"}, events.subjects)
}

func TestDeleteListingNotFound(t *testing.T) {
	uc := newListingUC(newFakeListingRepo(), newFakeCache(), newFakeStorage(), &fakePublisher{}, &fakeMailer{})
	_, err := uc.DeleteListing(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)
}

func TestUpdateTitleAuthorization(t *testing.T) {
	repo := newFakeListingRepo()
	repo.listings["abc"] = &domain.Listing{ID: "abc", Author: "owner-1", Name: "Old"}
	uc := newListingUC(repo, newFakeCache(), newFakeStorage(), &fakePublisher{}, &fakeMailer{})

	t.Run("owner may rename", func(t *testing.T) {
		_, err := uc.UpdateTitle(context.Background(), "abc", "owner-1", false, "New Name")
		assert.NoError(t, err)
	})

	t.Run("admin may rename", func(t *testing.T) {
		_, err := uc.UpdateTitle(context.Background(), "abc", "someone-else", true, "New Name")
		assert.NoError(t, err)
	})

	t.Run("stranger is rejected", func(t *testing.T) {
		_, err := uc.UpdateTitle(context.Background(), "abc", "someone-else", false, "New Name")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("invalid title fails before authorization", func(t *testing.T) {
		_, err := uc.UpdateTitle(context.Background(), "abc", "owner-1", false, "ab")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestUpdateTipsRejectsEmptyPatch(t *testing.T) {
	repo := newFakeListingRepo()
	repo.listings["abc"] = &domain.Listing{ID: "abc", Author: "owner-1"}
	uc := newListingUC(repo, newFakeCache(), newFakeStorage(), &fakePublisher{}, &fakeMailer{})

	_, err := uc.UpdateTips(context.Background(), "abc", "owner-1", false, domain.TripTips{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSuggestEditSendsMail(t *testing.T) {
	repo := newFakeListingRepo()
	repo.listings["abc"] = &domain.Listing{ID: "abc", Name: "Big Almaty Lake"}
	mail := &fakeMailer{}
	uc := newListingUC(repo, newFakeCache(), newFakeStorage(), &fakePublisher{}, mail)

	err := uc.SuggestEdit(context.Background(), "abc", "description", "The road is closed in winter.", "Aigerim", "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, mail.suggestions)
}
