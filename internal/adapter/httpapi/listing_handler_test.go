package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trailpoint/listing-service/internal/listing/domain"
	"github.com/trailpoint/listing-service/internal/listing/usecase"
)

func newListingHandlerForTest(repo *fakeListingRepo) *ListingHandler {
	log := testLogger()
	listings := usecase.NewListingUsecase(repo, fakeCache{}, fakeStorage{}, &fakePublisher{}, fakeMailer{}, log)
	likes := usecase.NewLikeUsecase(repo, fakeCache{}, log)
	return NewListingHandler(listings, likes, newTestMetrics(), log)
}

func TestHandleUnlikeReportsOutcomesSeparately(t *testing.T) {
	cases := []struct {
		name               string
		outcome            domain.LikeOutcome
		notPreviouslyLiked bool
		countWasZero       bool
	}{
		{
			name:    "like removed",
			outcome: domain.LikeOutcome{},
		},
		{
			name:               "identity never liked",
			outcome:            domain.LikeOutcome{NotPreviouslyLiked: true},
			notPreviouslyLiked: true,
		},
		{
			name:         "counter already at the floor",
			outcome:      domain.LikeOutcome{CountWasZero: true},
			countWasZero: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeListingRepo()
			listing := &domain.Listing{Name: "Unlike Target"}
			require.NoError(t, repo.Create(context.Background(), listing))
			repo.unlikeFn = func(ctx context.Context, id, userID string) (*domain.LikeOutcome, error) {
				out := tc.outcome
				out.Listing = listing
				return &out, nil
			}
			handler := newListingHandlerForTest(repo)

			req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/listings/"+listing.ID+"/like", nil), "id", listing.ID)
			rr := httptest.NewRecorder()
			handler.HandleUnlike(rr, req)

			require.Equal(t, http.StatusOK, rr.Code)
			var body struct {
				NotPreviouslyLiked bool `json:"notPreviouslyLiked"`
				CountWasZero       bool `json:"countWasZero"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tc.notPreviouslyLiked, body.NotPreviouslyLiked)
			assert.Equal(t, tc.countWasZero, body.CountWasZero)
		})
	}
}
