// Package pqreactorlog builds the log/slog logger pqreactor-loadtest (and
// pqreactor's own internal diagnostics, where wired in) use, switching
// between text and JSON handlers and among stderr, stdout, or a file
// destination based on plain string settings.
package pqreactorlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures New. Level is one of "debug", "info", "warn", "error"
// (case-insensitive); Format is "text" or "json"; Output is "stderr",
// "stdout", or a file path.
type Options struct {
	Level  string
	Format string
	Output string
}

// New builds a *slog.Logger from opts. It does not call slog.SetDefault;
// callers that want this logger to back the package-level slog functions
// must do that themselves, since a library should not silently mutate
// global state its caller didn't ask for.
func New(opts Options) (*slog.Logger, error) {
	level, err := parseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	w, err := openOutput(opts.Output)
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		handler = slog.NewTextHandler(w, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		return nil, fmt.Errorf("pqreactorlog: unknown log format %q (want \"text\" or \"json\")", opts.Format)
	}

	return slog.New(handler), nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("pqreactorlog: unknown log level %q", level)
	}
}

func openOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("pqreactorlog: opening log output %q: %w", output, err)
		}
		return f, nil
	}
}
