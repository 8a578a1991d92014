package app

import (
	"io"
	"log/slog"
	"net/http"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	httpServer *http.Server
}

// New is the constructor for the main application. It returns an App with
// its own isolated logger; plan loading and graph construction happen in
// Run so that a construction failure is an error, not a panic.
func New(outW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg, outW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
	}
}

// Logger returns the application's logger. This is primarily for testing.
func (a *App) Logger() *slog.Logger {
	return a.logger
}
