// Package logger configures the global slog logger.
package logger

import (
	"log/slog"
	"os"

	"github.com/datableed/decision-engine/internal/config"
)

// Setup configures the global slog logger based on environment: JSON in
// production, text elsewhere.
func Setup(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// WithCharacter adds the character name to logger context.
func WithCharacter(logger *slog.Logger, character string) *slog.Logger {
	return logger.With("character", character)
}
