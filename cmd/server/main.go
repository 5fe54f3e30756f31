package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/trailpoint/listing-service/internal/adapter/httpapi"
	natsAdapter "github.com/trailpoint/listing-service/internal/adapter/messaging/nats"
	"github.com/trailpoint/listing-service/internal/adapter/repository/cache"
	mongoRepo "github.com/trailpoint/listing-service/internal/adapter/repository/mongodb"
	"github.com/trailpoint/listing-service/internal/adapter/storage/s3"
	"github.com/trailpoint/listing-service/internal/config"
	listingUsecase "github.com/trailpoint/listing-service/internal/listing/usecase"
	"github.com/trailpoint/listing-service/internal/mailer"
	"github.com/trailpoint/listing-service/internal/platform/logger"
	"github.com/trailpoint/listing-service/internal/platform/metrics"
	"github.com/trailpoint/listing-service/internal/platform/tracer"
	reviewUsecase "github.com/trailpoint/listing-service/internal/review/usecase"
)

const serviceName = "listing-service"

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("INFO: .env file not found or error loading: %v. Relying on OS environment variables.\n", err)
	}

	appLogger := logger.NewLogger()
	appLogger.Info("Application starting...", zap.String("service_name", serviceName))

	cfg, err := config.LoadConfig(appLogger)
	if err != nil {
		appLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	tp := tracer.InitTracer(serviceName, cfg.OTExporterOTLPEndpoint, appLogger)
	defer func() {
		ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := tp.Shutdown(ctxShutdown); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			appLogger.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()

	ctxPing, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := mongoClient.Ping(ctxPing, nil); err != nil {
		appLogger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}
	appLogger.Info("Successfully connected and pinged MongoDB.")
	db := mongoClient.Database(cfg.MongoDatabase)

	listingCache, err := cache.NewListingCache(cfg.RedisAddress, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	appLogger.Info("Redis cache initialized.")

	natsPublisher, err := natsAdapter.NewPublisher(cfg.NATSURL, appLogger, serviceName)
	if err != nil {
		appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
	}
	defer natsPublisher.Close()

	imageStorage, err := s3.NewS3Storage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize S3 storage", zap.Error(err))
	}

	smtpMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPassword, cfg.SuggestionsEmailTo)

	listingRepo, err := mongoRepo.NewListingRepository(db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize ListingRepository", zap.Error(err))
	}
	reviewRepo, err := mongoRepo.NewReviewRepository(mongoClient, db, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize ReviewRepository", zap.Error(err))
	}

	feedUC := listingUsecase.NewFeedUsecase(listingRepo, appLogger)
	listingUC := listingUsecase.NewListingUsecase(listingRepo, listingCache, imageStorage, natsPublisher, smtpMailer, appLogger)
	likeUC := listingUsecase.NewLikeUsecase(listingRepo, listingCache, appLogger)
	reviewUC := reviewUsecase.NewReviewUsecase(reviewRepo, natsPublisher, appLogger)

	metricsManager := metrics.NewMetricsManager(strings.ReplaceAll(serviceName, "-", "_"))
	go func() {
		if err := metrics.StartMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Metrics server stopped", zap.Error(err))
		}
	}()

	feedHandler := httpapi.NewFeedHandler(feedUC, metricsManager, appLogger)
	listingHandler := httpapi.NewListingHandler(listingUC, likeUC, metricsManager, appLogger)
	reviewHandler := httpapi.NewReviewHandler(reviewUC, metricsManager, appLogger)

	router := httpapi.NewRouter(feedHandler, listingHandler, reviewHandler, cfg.JWTSecret, metricsManager, appLogger)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutdown signal received, draining...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("HTTP server shutdown error", zap.Error(err))
	}
	appLogger.Info("Application stopped.")
}
