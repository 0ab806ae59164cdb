// Package logging configures the process-wide slog logger.
//
// Output format follows LOG_FORMAT (text/json) and falls back to TTY
// detection: text for an interactive terminal, JSON for anything that
// looks like a log pipeline. LOG_LEVEL picks the minimum level.
package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// New builds a configured logger. Source locations are included and
// shortened to paths relative to the working directory.
func New() *slog.Logger {
	wd, _ := os.Getwd()

	opts := &slog.HandlerOptions{
		Level:       parseLevel(os.Getenv("LOG_LEVEL")),
		AddSource:   true,
		ReplaceAttr: relativeSource(wd),
	}

	format := os.Getenv("LOG_FORMAT")
	if format == "text" || (format == "" && isTerminal(os.Stdout)) {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// SetDefault builds a logger and installs it as the slog default.
func SetDefault() *slog.Logger {
	logger := New()
	slog.SetDefault(logger)
	return logger
}

// relativeSource rewrites source attrs so file paths are relative to
// wd, keeping log lines short without losing the location.
func relativeSource(wd string) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		src, ok := a.Value.Any().(*slog.Source)
		if a.Key != slog.SourceKey || !ok {
			return a
		}
		if rel, err := filepath.Rel(wd, src.File); err == nil {
			src.File = rel
		} else {
			src.File = filepath.Base(src.File)
		}
		return a
	}
}

func parseLevel(level string) slog.Level {
	if l, ok := levelNames[strings.ToLower(strings.TrimSpace(level))]; ok {
		return l
	}
	return slog.LevelInfo
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
