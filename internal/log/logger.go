// Package log configures the process-wide slog logger and carries the
// request-scoped attributes that every log line should include.
package log

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// ParseLevel maps debug, info, warn and error to slog levels. Unknown values
// fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler builds a handler for format "text", "json" or "tint" (colored,
// for local development), wrapped so that request and owner ids stored in the
// context are attached to every record.
func NewHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	var h slog.Handler
	switch format {
	case "json":
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "tint":
		h = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return contextHandler{Handler: h}
}

// Setup installs a logger as the slog default and returns it tagged with
// component.
func Setup(w io.Writer, level, format, component string) *slog.Logger {
	logger := slog.New(NewHandler(w, ParseLevel(level), format))
	slog.SetDefault(logger)
	return logger.With(FieldComponent, component)
}

type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := RequestID(ctx); id != "" {
		r.AddAttrs(slog.String(FieldRequestID, id))
	}
	if owner := OwnerID(ctx); owner != "" {
		r.AddAttrs(slog.String(FieldOwnerID, owner))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{Handler: h.Handler.WithGroup(name)}
}
