package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	listingdomain "github.com/trailpoint/listing-service/internal/listing/domain"
	reviewdomain "github.com/trailpoint/listing-service/internal/review/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Unknown errors
// become opaque 500s so internals never leak to clients.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, listingdomain.ErrInvalidInput),
		errors.Is(err, listingdomain.ErrInvalidCursor),
		errors.Is(err, reviewdomain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, listingdomain.ErrListingNotFound),
		errors.Is(err, reviewdomain.ErrListingNotFound),
		errors.Is(err, reviewdomain.ErrReviewNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, listingdomain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
