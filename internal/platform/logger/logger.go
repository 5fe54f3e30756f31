package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a thin wrapper around zap so that application packages do not
// import the logging library's configuration surface directly.
type Logger struct {
	*zap.Logger
	config *LoggerConfig
}

var (
	globalLogger *Logger
	once         sync.Once
)

// NewLogger initializes the global logger based on environment configuration.
// It's designed to be called once. Subsequent calls return the existing instance.
func NewLogger() *Logger {
	once.Do(func() {
		cfg := DefaultConfig()

		var zapConfig zap.Config
		if cfg.Level == "debug" {
			zapConfig = zap.NewDevelopmentConfig()
			zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			zapConfig = zap.NewProductionConfig()
			zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		}

		if err := zapConfig.Level.UnmarshalText([]byte(cfg.Level)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Invalid LOG_LEVEL '%s', defaulting to 'info'. Error: %v\n", cfg.Level, err)
			zapConfig.Level.SetLevel(zapcore.InfoLevel)
		}

		if strings.ToLower(cfg.Format) == "console" || strings.ToLower(cfg.Format) == "text" {
			zapConfig.Encoding = "console"
			zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			zapConfig.Encoding = "json"
		}

		zapLogger, err := zapConfig.Build(zap.AddCallerSkip(1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error initializing zap logger: %v. Falling back to production defaults.\n", err)
			zapLogger, _ = zap.NewProduction()
		}

		globalLogger = &Logger{Logger: zapLogger, config: cfg}
		globalLogger.Info("Logger initialized", zap.String("level", cfg.Level), zap.String("format", cfg.Format))
	})
	return globalLogger
}

// Named adds a new path segment to the logger's name.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name), config: l.config}
}

// With adds structured context to the logger.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...), config: l.config}
}
