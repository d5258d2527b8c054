// Package logger holds the process wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// L is the global logger. It only reports warnings until Init is called.
var L = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

// ParseLevel parses debug, info, warn or error. Unknown levels default to info.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Init replaces the global logger, writing to w with the given level and
// format ("text" or "json").
// Call this once at startup, after loading the config.
func Init(w io.Writer, level, format string) {
	lvl, ok := ParseLevel(level)
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	L = slog.New(handler)
	slog.SetDefault(L)
	if !ok {
		L.Warn("invalid log level, defaulting to info", "configuredLevel", level)
	}
}
