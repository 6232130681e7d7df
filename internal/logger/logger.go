package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Logger *zap.Logger

// InitLogger builds the process-wide logger from LOG_LEVEL and installs it
// as the zap global, so packages can log through zap.L().
func InitLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.StacktraceKey = ""
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(os.Getenv("LOG_LEVEL")))

	var err error
	Logger, err = cfg.Build()
	if err != nil {
		zap.L().Fatal("Error building logger", zap.Error(err))
	}

	zap.ReplaceGlobals(Logger)
}

// ParseLevel maps a LOG_LEVEL value to a zap level. Unknown or empty values
// fall back to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
