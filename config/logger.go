package config

import (
	"io"
	"log/slog"
)

// NewLogger returns a JSON logger in production and a text logger
// elsewhere, both at the configured level.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
