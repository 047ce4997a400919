package observability

import (
	"context"
	"fmt"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/studio-auth/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. LogFormat "json" selects the
// production encoder; "console" or "text" selects the development encoder.
func NewLogger(cfg config.ObservabilityConfig) (*zap.Logger, error) {
	levelName := cfg.LogLevel
	if levelName == "" {
		levelName = "info"
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelName, err)
	}

	var zcfg zap.Config
	switch strings.ToLower(cfg.LogFormat) {
	case "console", "text":
		zcfg = zap.NewDevelopmentConfig()
	case "", "json":
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "timestamp"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// RequestFields returns the fields identifying the request carried by ctx
func RequestFields(ctx context.Context) []zap.Field {
	if id := chimw.GetReqID(ctx); id != "" {
		return []zap.Field{zap.String("request_id", id)}
	}
	return nil
}
