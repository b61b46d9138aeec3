package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// cliHandler renders log records as short, human-readable lines on stderr:
// "LEVEL message key=value ...". It intentionally does not implement slog's
// grouping/WithAttrs nesting beyond flat key=value pairs, since the CLI never
// needs nested attribute groups.
type cliHandler struct {
	w     io.Writer
	level slog.Level
	attrs []slog.Attr
}

// NewCLIHandler returns a slog.Handler tuned for interactive terminal use,
// writing to stderr and filtering anything below level.
func NewCLIHandler(level slog.Level) slog.Handler {
	return &cliHandler{w: os.Stderr, level: level}
}

func (h *cliHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *cliHandler) Handle(_ context.Context, r slog.Record) error {
	line := fmt.Sprintf("%s %s", r.Level.String(), r.Message)
	for _, a := range h.attrs {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		return true
	})
	_, err := fmt.Fprintln(h.w, line)
	return err
}

func (h *cliHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &cliHandler{w: h.w, level: h.level, attrs: append(append([]slog.Attr{}, h.attrs...), attrs...)}
}

func (h *cliHandler) WithGroup(_ string) slog.Handler {
	return h
}
