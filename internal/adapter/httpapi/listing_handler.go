package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/trailpoint/listing-service/internal/listing/domain"
	"github.com/trailpoint/listing-service/internal/listing/usecase"
	"github.com/trailpoint/listing-service/internal/platform/logger"
	"github.com/trailpoint/listing-service/internal/platform/metrics"
)

// maxUploadBytes bounds a single multipart request body.
const maxUploadBytes = 32 << 20

// ListingHandler serves the listing CRUD surface.
type ListingHandler struct {
	listings *usecase.ListingUsecase
	likes    *usecase.LikeUsecase
	metrics  *metrics.MetricsManager
	logger   *logger.Logger
}

func NewListingHandler(listings *usecase.ListingUsecase, likes *usecase.LikeUsecase, mm *metrics.MetricsManager, log *logger.Logger) *ListingHandler {
	return &ListingHandler{
		listings: listings,
		likes:    likes,
		metrics:  mm,
		logger:   log.Named("ListingHandler"),
	}
}

// readUploads drains the multipart file parts named "images".
func readUploads(r *http.Request) ([]usecase.ImageUpload, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File["images"]) == 0 {
		return nil, nil
	}
	uploads := make([]usecase.ImageUpload, 0, len(r.MultipartForm.File["images"]))
	for _, header := range r.MultipartForm.File["images"] {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, usecase.ImageUpload{FileName: header.Filename, Data: data})
	}
	return uploads, nil
}

// HandleCreateListing accepts a multipart form: scalar fields plus any number
// of "images" file parts.
func (h *ListingHandler) HandleCreateListing(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be multipart/form-data")
		return
	}

	lat, err := strconv.ParseFloat(r.FormValue("latitude"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "latitude must be a number")
		return
	}
	lng, err := strconv.ParseFloat(r.FormValue("longitude"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "longitude must be a number")
		return
	}
	permitsRequired, _ := strconv.ParseBool(r.FormValue("permitsRequired"))

	uploads, err := readUploads(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read image uploads")
		return
	}

	in := usecase.CreateListingInput{
		Author:             UserID(r.Context()),
		AuthorEmail:        r.FormValue("authorEmail"),
		Name:               r.FormValue("name"),
		Description:        r.FormValue("description"),
		Categories:         csv(r.FormValue("categories")),
		Tags:               csv(r.FormValue("tags")),
		Latitude:           lat,
		Longitude:          lng,
		PermitsRequired:    permitsRequired,
		PermitsDescription: r.FormValue("permitsDescription"),
		BestSeason:         r.FormValue("bestSeason"),
		Difficulty:         domain.Difficulty(r.FormValue("difficulty")),
		ExtraAdvice:        r.FormValue("extraAdvice"),
		PhysicalAddress:    r.FormValue("physicalAddress"),
		Images:             uploads,
	}

	listing, err := h.listings.CreateListing(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics.ListingsCreatedTotal.Inc()
	writeJSON(w, http.StatusCreated, listing)
}

type listingResponse struct {
	*domain.Listing
	LikedByUser bool `json:"likedByUser"`
}

func (h *ListingHandler) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	listing, liked, err := h.listings.GetListing(r.Context(), id, UserID(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listingResponse{Listing: listing, LikedByUser: liked})
}

// requireOwner loads the listing and enforces the owner-or-admin rule.
func (h *ListingHandler) requireOwner(r *http.Request, id string) error {
	if IsAdmin(r.Context()) {
		return nil
	}
	listing, _, err := h.listings.GetListing(r.Context(), id, "")
	if err != nil {
		return err
	}
	if listing.Author != UserID(r.Context()) {
		return domain.ErrForbidden
	}
	return nil
}

func (h *ListingHandler) HandleDeleteListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.requireOwner(r, id); err != nil {
		writeDomainError(w, err)
		return
	}
	result, err := h.listings.DeleteListing(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics.ListingsDeletedTotal.Inc()
	writeJSON(w, http.StatusOK, result)
}

func (h *ListingHandler) HandleUpdateTitle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	listing, err := h.listings.UpdateTitle(r.Context(), id, UserID(r.Context()), IsAdmin(r.Context()), body.Title)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ListingHandler) HandleUpdateDescription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	listing, err := h.listings.UpdateDescription(r.Context(), id, UserID(r.Context()), IsAdmin(r.Context()), body.Description)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ListingHandler) HandleUpdateTips(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var tips domain.TripTips
	if err := json.NewDecoder(r.Body).Decode(&tips); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	listing, err := h.listings.UpdateTips(r.Context(), id, UserID(r.Context()), IsAdmin(r.Context()), tips)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ListingHandler) HandleUpdateLocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Latitude == nil || body.Longitude == nil {
		writeError(w, http.StatusBadRequest, "latitude and longitude are required")
		return
	}

	listing, err := h.listings.UpdateLocation(r.Context(), id, UserID(r.Context()), IsAdmin(r.Context()), *body.Latitude, *body.Longitude)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ListingHandler) HandleUpdateTaxonomy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Categories []string `json:"categories"`
		Tags       []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	listing, err := h.listings.UpdateTagsAndCategories(r.Context(), id, UserID(r.Context()), IsAdmin(r.Context()), body.Categories, body.Tags)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ListingHandler) HandleAddImages(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be multipart/form-data")
		return
	}
	uploads, err := readUploads(r)
	if err != nil || len(uploads) == 0 {
		writeError(w, http.StatusBadRequest, "at least one 'images' file part is required")
		return
	}

	listing, err := h.listings.AddImages(r.Context(), id, UserID(r.Context()), IsAdmin(r.Context()), uploads)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// HandleRemoveImage takes the image's external id as a query parameter since
// object keys contain path separators.
func (h *ListingHandler) HandleRemoveImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	externalID := r.URL.Query().Get("externalId")
	if externalID == "" {
		writeError(w, http.StatusBadRequest, "externalId query parameter is required")
		return
	}

	listing, err := h.listings.RemoveImage(r.Context(), id, UserID(r.Context()), IsAdmin(r.Context()), externalID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *ListingHandler) HandleSuggestEdit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Field         string `json:"field"`
		Suggestion    string `json:"suggestion"`
		ReporterName  string `json:"reporterName"`
		ReporterEmail string `json:"reporterEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.listings.SuggestEdit(r.Context(), id, body.Field, body.Suggestion, body.ReporterName, body.ReporterEmail)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "suggestion sent"})
}

type likeResponse struct {
	Listing            *domain.Listing `json:"listing"`
	AlreadyLiked       bool            `json:"alreadyLiked,omitempty"`
	NotPreviouslyLiked bool            `json:"notPreviouslyLiked,omitempty"`
	CountWasZero       bool            `json:"countWasZero,omitempty"`
}

func (h *ListingHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	outcome, err := h.likes.Like(r.Context(), id, UserID(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics.LikesTotal.WithLabelValues("like").Inc()
	h.logger.Debug("Like processed", zap.String("listing_id", id), zap.Bool("already_liked", outcome.AlreadyLiked))
	writeJSON(w, http.StatusOK, likeResponse{Listing: outcome.Listing, AlreadyLiked: outcome.AlreadyLiked})
}

func (h *ListingHandler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	outcome, err := h.likes.Unlike(r.Context(), id, UserID(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.metrics.LikesTotal.WithLabelValues("unlike").Inc()
	writeJSON(w, http.StatusOK, likeResponse{
		Listing:            outcome.Listing,
		NotPreviouslyLiked: outcome.NotPreviouslyLiked,
		CountWasZero:       outcome.CountWasZero,
	})
}
