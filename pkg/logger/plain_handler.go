package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// plainHandler prints the message prefixed by the intention icon followed by
// key=value pairs, without time or level decorations.
type plainHandler struct {
	w       io.Writer
	attrs   []slog.Attr
	mu      *sync.Mutex
	leveler slog.Leveler
}

func newPlainHandler(w io.Writer, leveler slog.Leveler) slog.Handler {
	return &plainHandler{w: w, leveler: leveler, mu: &sync.Mutex{}}
}

func (h *plainHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	if h.leveler == nil {
		return true
	}
	return lvl >= h.leveler.Level()
}

// hidden keys never reach the console
func hiddenOnConsole(key string) bool {
	switch key {
	case "intention", slog.TimeKey, slog.LevelKey, slog.MessageKey, "component", "session":
		return true
	}
	return false
}

// flatten expands group attributes one level deep
func flatten(attrs []slog.Attr) []slog.Attr {
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Value.Kind() == slog.KindGroup {
			out = append(out, a.Value.Group()...)
			continue
		}
		out = append(out, a)
	}
	return out
}

func (h *plainHandler) Handle(_ context.Context, r slog.Record) error {
	all := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	all = append(all, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		all = append(all, a)
		return true
	})
	all = flatten(all)

	var b strings.Builder
	for _, a := range all {
		if a.Key == "intention" {
			b.WriteString(iconFor(Intention(a.Value.String())))
			b.WriteByte(' ')
			break
		}
	}
	if r.Level >= slog.LevelWarn {
		b.WriteString(r.Level.String())
		b.WriteString(": ")
	}
	b.WriteString(r.Message)
	for _, a := range all {
		if hiddenOnConsole(a.Key) {
			continue
		}
		fmt.Fprintf(&b, " %s=%v", a.Key, a.Value)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.w, b.String())
	return err
}

func (h *plainHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

// WithGroup is a no-op for console output; grouped keys are printed flat.
func (h *plainHandler) WithGroup(string) slog.Handler {
	return h
}
