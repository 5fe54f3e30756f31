package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trailpoint/listing-service/internal/platform/logger"
	"github.com/trailpoint/listing-service/internal/platform/metrics"
	"github.com/trailpoint/listing-service/internal/review/usecase"
)

// ReviewHandler serves review creation, listing, edit and deletion.
type ReviewHandler struct {
	reviews *usecase.ReviewUsecase
	metrics *metrics.MetricsManager
	logger  *logger.Logger
}

func NewReviewHandler(reviews *usecase.ReviewUsecase, mm *metrics.MetricsManager, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, metrics: mm, logger: log.Named("ReviewHandler")}
}

func (h *ReviewHandler) HandleCreateReview(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")
	var body struct {
		ReviewerName string `json:"reviewerName"`
		Message      string `json:"message"`
		Rating       int32  `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := h.reviews.CreateReview(r.Context(), listingID, body.ReviewerName, UserID(r.Context()), body.Message, body.Rating)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics.ReviewsCreatedTotal.Inc()
	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) HandleListReviews(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")

	reviews, err := h.reviews.GetReviewsByListing(r.Context(), listingID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) HandleUpdateReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewID")
	var body struct {
		Rating  *int32  `json:"rating"`
		Message *string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := h.reviews.UpdateReview(r.Context(), reviewID, body.Rating, body.Message)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics.ReviewsUpdatedTotal.Inc()
	writeJSON(w, http.StatusOK, review)
}

func (h *ReviewHandler) HandleDeleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "reviewID")

	if err := h.reviews.DeleteReview(r.Context(), reviewID); err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics.ReviewsDeletedTotal.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
