// Package logging builds the process-wide zap logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a logger at level ("debug", "info", "warn", "error") writing to
// stdout. format "console" selects the human readable development encoder,
// anything else emits JSON.
func New(level, format string) (*zap.Logger, error) {
	return NewWithOutput(level, format, "stdout")
}

// NewWithOutput is New with explicit zap output paths.
func NewWithOutput(level, format string, paths ...string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if strings.EqualFold(format, "console") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = paths
	cfg.InitialFields = map[string]interface{}{"service": "moviesync"}

	return cfg.Build()
}
