package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/trailpoint/listing-service/internal/platform/logger"
)

// MetricsManager holds custom Prometheus metrics.
type MetricsManager struct {
	Registry             *prometheus.Registry
	FeedRequestsTotal    *prometheus.CounterVec
	ListingsCreatedTotal prometheus.Counter
	ListingsDeletedTotal prometheus.Counter
	ReviewsCreatedTotal  prometheus.Counter
	ReviewsUpdatedTotal  prometheus.Counter
	ReviewsDeletedTotal  prometheus.Counter
	LikesTotal           *prometheus.CounterVec
	APIErrorsTotal       *prometheus.CounterVec
	APILatency           *prometheus.HistogramVec
}

// NewMetricsManager initializes and registers custom Prometheus metrics.
func NewMetricsManager(serviceName string) *MetricsManager {
	registry := prometheus.NewRegistry()

	feedRequestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "feed_requests_total",
		Help:      "Total number of feed queries by sort mode.",
	}, []string{"sort"})
	listingsCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "listings_created_total",
		Help:      "Total number of listings created.",
	})
	listingsDeletedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "listings_deleted_total",
		Help:      "Total number of listings deleted.",
	})
	reviewsCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "reviews_created_total",
		Help:      "Total number of reviews created.",
	})
	reviewsUpdatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "reviews_updated_total",
		Help:      "Total number of reviews updated.",
	})
	reviewsDeletedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "reviews_deleted_total",
		Help:      "Total number of reviews deleted.",
	})
	likesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "likes_total",
		Help:      "Total number of like and unlike operations.",
	}, []string{"action"})
	apiErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "api_errors_total",
		Help:      "Total number of API errors by route and status.",
	}, []string{"route", "status"})
	apiLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: serviceName,
		Name:      "api_request_latency_seconds",
		Help:      "Latency of API requests by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	registry.MustRegister(
		feedRequestsTotal,
		listingsCreatedTotal,
		listingsDeletedTotal,
		reviewsCreatedTotal,
		reviewsUpdatedTotal,
		reviewsDeletedTotal,
		likesTotal,
		apiErrorsTotal,
		apiLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &MetricsManager{
		Registry:             registry,
		FeedRequestsTotal:    feedRequestsTotal,
		ListingsCreatedTotal: listingsCreatedTotal,
		ListingsDeletedTotal: listingsDeletedTotal,
		ReviewsCreatedTotal:  reviewsCreatedTotal,
		ReviewsUpdatedTotal:  reviewsUpdatedTotal,
		ReviewsDeletedTotal:  reviewsDeletedTotal,
		LikesTotal:           likesTotal,
		APIErrorsTotal:       apiErrorsTotal,
		APILatency:           apiLatency,
	}
}

// StartMetricsServer starts an HTTP server exposing /metrics. Blocks until
// the server fails, so run it from a goroutine.
func StartMetricsServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
	return server.ListenAndServe()
}
