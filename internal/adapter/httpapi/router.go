package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/trailpoint/listing-service/internal/platform/logger"
	"github.com/trailpoint/listing-service/internal/platform/metrics"
)

// NewRouter assembles the full HTTP surface. JWTAuth runs on every route so
// anonymous and authenticated traffic share the same handlers; RequireAuth
// gates the mutating listing routes.
func NewRouter(
	feedHandler *FeedHandler,
	listingHandler *ListingHandler,
	reviewHandler *ReviewHandler,
	jwtSecret string,
	mm *metrics.MetricsManager,
	log *logger.Logger,
) *chi.Mux {
	mux := chi.NewRouter()

	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.RealIP)
	mux.Use(chimiddleware.Recoverer)
	mux.Use(observe(mm, log))
	mux.Use(JWTAuth(jwtSecret, log))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.Route("/api/listings", func(r chi.Router) {
		r.Get("/filter", feedHandler.HandleFeed)
		r.Get("/{id}", listingHandler.HandleGetListing)
		r.Get("/{id}/reviews", reviewHandler.HandleListReviews)
		r.Post("/{id}/reviews", reviewHandler.HandleCreateReview)
		r.Post("/{id}/suggest", listingHandler.HandleSuggestEdit)

		// Likes accept anonymous traffic; identity improves idempotency.
		r.Post("/{id}/like", listingHandler.HandleLike)
		r.Delete("/{id}/like", listingHandler.HandleUnlike)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth)

			r.Post("/", listingHandler.HandleCreateListing)
			r.Delete("/{id}", listingHandler.HandleDeleteListing)
			r.Patch("/{id}/title", listingHandler.HandleUpdateTitle)
			r.Patch("/{id}/description", listingHandler.HandleUpdateDescription)
			r.Patch("/{id}/tips", listingHandler.HandleUpdateTips)
			r.Patch("/{id}/location", listingHandler.HandleUpdateLocation)
			r.Patch("/{id}/taxonomy", listingHandler.HandleUpdateTaxonomy)
			r.Post("/{id}/images", listingHandler.HandleAddImages)
			r.Delete("/{id}/images", listingHandler.HandleRemoveImage)
		})
	})

	mux.Route("/api/reviews", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(RequireAuth)

			r.Patch("/{reviewID}", reviewHandler.HandleUpdateReview)
			r.Delete("/{reviewID}", reviewHandler.HandleDeleteReview)
		})
	})

	return mux
}

// observe records per-route latency and error counters and emits one access
// log line per request.
func observe(mm *metrics.MetricsManager, log *logger.Logger) func(http.Handler) http.Handler {
	accessLog := log.Named("http")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			elapsed := time.Since(start)

			mm.APILatency.WithLabelValues(route).Observe(elapsed.Seconds())
			if ww.Status() >= 400 {
				mm.APIErrorsTotal.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
			}

			accessLog.Debug("request handled",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", elapsed),
			)
		})
	}
}
