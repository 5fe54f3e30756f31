package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/trailpoint/listing-service/internal/listing/domain"
	"github.com/trailpoint/listing-service/internal/listing/usecase"
	"github.com/trailpoint/listing-service/internal/platform/logger"
	"github.com/trailpoint/listing-service/internal/platform/metrics"
)

// FeedHandler serves the filtered, cursor-paginated listing feed.
type FeedHandler struct {
	feed    *usecase.FeedUsecase
	metrics *metrics.MetricsManager
	logger  *logger.Logger
}

func NewFeedHandler(feed *usecase.FeedUsecase, mm *metrics.MetricsManager, log *logger.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, metrics: mm, logger: log.Named("FeedHandler")}
}

// csv splits a comma-separated query value into trimmed non-empty parts.
func csv(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HandleFeed parses query parameters into a FeedFilter and returns one page.
func (h *FeedHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.FeedFilter{
		Categories: csv(q.Get("categories")),
		Tags:       csv(q.Get("tags")),
		Sort:       domain.SortRatingDesc,
		Limit:      domain.DefaultFeedLimit,
		Cursor:     q.Get("cursor"),
	}

	if raw := q.Get("sort"); raw != "" {
		sort, ok := domain.ParseSortMode(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown sort value: "+raw)
			return
		}
		filter.Sort = sort
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		filter.Limit = limit
	}
	if raw := q.Get("minRating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "minRating must be a number")
			return
		}
		filter.MinRating = v
	}
	if raw := q.Get("distanceKm"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "distanceKm must be a number")
			return
		}
		filter.DistanceKm = v
	}
	if raw := q.Get("lat"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "lat must be a number")
			return
		}
		filter.Lat = &v
	}
	if raw := q.Get("lng"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "lng must be a number")
			return
		}
		filter.Lng = &v
	}
	if raw := q.Get("difficulty"); raw != "" {
		filter.Difficulty = domain.Difficulty(raw)
	}
	if raw := q.Get("verifiedOnly"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "verifiedOnly must be a boolean")
			return
		}
		filter.VerifiedOnly = v
	}

	page, err := h.feed.GetFeed(r.Context(), filter)
	if err != nil {
		h.logger.Debug("Feed query rejected", zap.Error(err))
		writeDomainError(w, err)
		return
	}

	h.metrics.FeedRequestsTotal.WithLabelValues(string(filter.Sort)).Inc()
	writeJSON(w, http.StatusOK, page)
}
