package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/maxz000/zwift-watcher/internal/config"
)

// NewLogger builds a zap logger based on configuration settings. Every line
// carries a "service" field (cfg.ServiceName) so ingestion, HTTP, and
// diagnostics output can be told apart once aggregated; see Component for
// per-subsystem child loggers.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level := zap.InfoLevel
	if err := level.Set(cfg.Level); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "zwift-watcher"
	}

	// Sampling trades drop-risk for throughput, which only matters once the
	// ingestion loop is pushing a real sample rate through the logger; skip
	// it in development so nothing is silently discarded while debugging.
	var sampling *zap.SamplingConfig
	if !cfg.Development {
		sampling = &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		}
	}

	zapCfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: cfg.Development,
		Sampling:    sampling,
		Encoding:    "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stack",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields: map[string]any{
			"service": serviceName,
		},
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(serviceName), nil
}

// Component returns a child logger named "<base>.<name>", identifying which
// subsystem (ingest, httpapi, worldstate, ...) emitted a given line once
// ingestion, the world-state HTTP server, and the diagnostics server are all
// writing to the same stdout stream.
func Component(logger *zap.Logger, name string) *zap.Logger {
	return logger.Named(name)
}
