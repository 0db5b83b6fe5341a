// Package observability builds the zap loggers used across the levelup service.
package observability

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/levelup/internal/config"
)

// NewLogger builds a logger writing to stderr. The "json" format encodes one
// object per line; "console" is the human-readable development layout.
//
// Precondition: cfg has passed config validation.
// Postcondition: Returns a logger tagged with service=levelup, or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	core, err := newCore(cfg, zapcore.Lock(os.Stderr))
	if err != nil {
		return nil, err
	}
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service", "levelup")),
	), nil
}

func newCore(cfg config.LoggingConfig, out zapcore.WriteSyncer) (zapcore.Core, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var enc zapcore.Encoder
	switch cfg.Format {
	case "json":
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
	case "console":
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(ec)
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return zapcore.NewCore(enc, out, level), nil
}

// ForCharacter returns a child logger scoped to one component and character.
//
// Precondition: logger must be non-nil.
func ForCharacter(logger *zap.Logger, component, characterID string) *zap.Logger {
	return logger.Named(component).With(zap.String("character_id", characterID))
}
