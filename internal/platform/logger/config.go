package logger

import (
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

// LoggerConfig holds configuration for the logger.
type LoggerConfig struct {
	Level  string
	Format string
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// DefaultConfig creates a new LoggerConfig with values read from environment variables.
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}
}

// ToZapLevel converts the string log level to zapcore.Level.
func (c *LoggerConfig) ToZapLevel() zapcore.Level {
	switch c.Level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	case "panic":
		return zapcore.PanicLevel
	default:
		return zapcore.InfoLevel
	}
}
