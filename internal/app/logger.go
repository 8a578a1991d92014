package app

import (
	"io"
	"log/slog"
)

// levelNames maps the config's level names onto slog levels. NewConfig
// rejects anything outside this set; the zero value of a missing key is
// slog.LevelInfo, so even an unvalidated Config degrades to info.
var levelNames = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// newLogger builds the app's isolated logger from its validated config.
// It never touches the global default, so every App instance gets its
// own sink.
func newLogger(cfg *Config, outW io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: levelNames[cfg.LogLevel]}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
