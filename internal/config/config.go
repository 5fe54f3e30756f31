package config

import (
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/trailpoint/listing-service/internal/platform/logger"
)

// Config holds all configuration for the service.
type Config struct {
	ServiceName            string `mapstructure:"SERVICE_NAME"`
	HTTPPort               string `mapstructure:"HTTP_PORT"`
	MongoURI               string `mapstructure:"MONGO_URI"`
	MongoDatabase          string `mapstructure:"MONGO_DATABASE"`
	RedisAddress           string `mapstructure:"REDIS_ADDRESS"`
	NATSURL                string `mapstructure:"NATS_URL"`
	JWTSecret              string `mapstructure:"JWT_SECRET"`
	MinioEndpoint          string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey         string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey         string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket            string `mapstructure:"MINIO_BUCKET"`
	MinioUseSSL            bool   `mapstructure:"MINIO_USE_SSL"`
	SMTPHost               string `mapstructure:"SMTP_HOST"`
	SMTPPort               int    `mapstructure:"SMTP_PORT"`
	SMTPEmail              string `mapstructure:"SMTP_EMAIL"`
	SMTPPassword           string `mapstructure:"SMTP_PASSWORD"`
	SuggestionsEmailTo     string `mapstructure:"SUGGESTIONS_EMAIL_TO"`
	PrometheusMetricsPort  string `mapstructure:"PROMETHEUS_METRICS_PORT"`
	LogLevel               string `mapstructure:"LOG_LEVEL"`
	LogFormat              string `mapstructure:"LOG_FORMAT"`
	OTExporterOTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// LoadConfig reads configuration from environment variables. Defaults suit a
// local docker-compose setup; production must override the secrets.
func LoadConfig(appLogger *logger.Logger) (*Config, error) {
	viper.SetDefault("SERVICE_NAME", "listing-service")
	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "trailpoint_listings")
	viper.SetDefault("REDIS_ADDRESS", "localhost:6379")
	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("JWT_SECRET", "change-me")
	viper.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	viper.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	viper.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	viper.SetDefault("MINIO_BUCKET", "listing-images")
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("SMTP_HOST", "smtp.gmail.com")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_EMAIL", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("SUGGESTIONS_EMAIL_TO", "")
	viper.SetDefault("PROMETHEUS_METRICS_PORT", "9090")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		appLogger.Error("Failed to unmarshal configuration", zap.Error(err))
		return nil, err
	}

	if cfg.JWTSecret == "change-me" || cfg.JWTSecret == "" {
		appLogger.Warn("JWT_SECRET is set to its default insecure value or is empty. Please set a strong secret in your environment.")
	}
	if cfg.MongoURI == "" {
		appLogger.Fatal("MONGO_URI is not set. This is required.")
	}
	if cfg.MongoDatabase == "" {
		appLogger.Fatal("MONGO_DATABASE is not set. This is required.")
	}

	appLogger.Debug("Configuration loaded",
		zap.String("service_name", cfg.ServiceName),
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("mongo_uri_present", cfg.MongoURI != ""),
		zap.String("mongo_database", cfg.MongoDatabase),
		zap.String("redis_address", cfg.RedisAddress),
		zap.String("nats_url", cfg.NATSURL),
		zap.String("minio_endpoint", cfg.MinioEndpoint),
		zap.String("prometheus_port", cfg.PrometheusMetricsPort),
		zap.String("log_level", cfg.LogLevel),
		zap.String("log_format", cfg.LogFormat),
		zap.String("otel_endpoint", cfg.OTExporterOTLPEndpoint),
	)

	return &cfg, nil
}
