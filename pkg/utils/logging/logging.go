package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/masq"
)

// Format is the log output format
type Format int

const (
	FormatConsole Format = iota
	FormatJSON
)

var defaultLogger = New(os.Stdout, slog.LevelInfo, FormatConsole)

// New creates a logger writing to w. Console format uses clog for human
// readable output; JSON is for log collectors. Fields tagged `masq:"secret"`
// are redacted.
func New(w io.Writer, level slog.Leveler, format Format) *slog.Logger {
	filter := masq.New(masq.WithTag("secret"))

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: filter,
		})
	default:
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithReplaceAttr(filter),
			clog.WithSource(true),
		)
	}

	return slog.New(handler)
}

// Default returns the process-wide logger
func Default() *slog.Logger {
	return defaultLogger
}

// SetDefault replaces the process-wide logger
func SetDefault(logger *slog.Logger) {
	defaultLogger = logger
}

type ctxLoggerKey struct{}

// With embeds the logger into the context
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From extracts the logger from the context, falling back to the default
func From(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return defaultLogger
}
