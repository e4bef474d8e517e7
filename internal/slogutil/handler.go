// Package slogutil provides the slog handler and logger constructors used by tsprune.
package slogutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Handler is a slog handler that formats records as:
// TIMESTAMP [level] Message | key=value key=value
//
// Console handlers drop the timestamp. With a base directory, "path"
// attributes under it are printed as ./-relative slash paths, the form
// reports use.
type Handler struct {
	w       io.Writer
	level   slog.Leveler
	attrs   []slog.Attr
	groups  []string
	colored bool
	console bool
	base    string
	mu      *sync.Mutex
}

// NewHandler creates a new text handler.
func NewHandler(w io.Writer, opts *slog.HandlerOptions) *Handler {
	level := slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level.Level()
	}
	return &Handler{
		w:     w,
		level: level,
		mu:    &sync.Mutex{},
	}
}

// WithColor returns a copy of the handler that colors the level tag.
// Coloring is still disabled when color.NoColor is set (non-tty output).
func (h *Handler) WithColor() *Handler {
	c := *h
	c.colored = true
	return &c
}

// ForConsole returns a copy of the handler that omits timestamps.
func (h *Handler) ForConsole() *Handler {
	c := *h
	c.console = true
	return &c
}

// WithBaseDir returns a copy of the handler that prints "path" attributes
// relative to dir.
func (h *Handler) WithBaseDir(dir string) *Handler {
	c := *h
	c.base = dir
	return &c
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes the log record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if !h.console {
		buf.WriteString(r.Time.UTC().Format(time.RFC3339))
		buf.WriteString(" ")
	}
	buf.WriteString(h.levelTag(r.Level))
	buf.WriteString(" ")

	buf.WriteString(r.Message)

	// Pre-set attrs first, then record attrs
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.resolveAttr(a))
		return true
	})

	if len(attrs) > 0 {
		buf.WriteString(" |")
		for _, a := range attrs {
			if a.Key == "" {
				continue
			}
			buf.WriteString(" ")
			buf.WriteString(a.Key)
			buf.WriteString("=")
			buf.WriteString(formatValue(a.Value))
		}
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// WithAttrs returns a new handler with the given attributes added.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)

	for _, a := range attrs {
		newAttrs = append(newAttrs, h.resolveAttr(a))
	}

	c := *h
	c.attrs = newAttrs
	return &c
}

// WithGroup returns a new handler with the given group name added.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name

	c := *h
	c.groups = newGroups
	return &c
}

// resolveAttr shortens paths and applies group prefixes to attribute keys.
func (h *Handler) resolveAttr(a slog.Attr) slog.Attr {
	if h.base != "" && a.Key == "path" && a.Value.Kind() == slog.KindString {
		a.Value = slog.StringValue(h.relative(a.Value.String()))
	}
	if len(h.groups) == 0 {
		return a
	}
	key := a.Key
	for i := len(h.groups) - 1; i >= 0; i-- {
		key = h.groups[i] + "." + key
	}
	return slog.Attr{Key: key, Value: a.Value}
}

func (h *Handler) relative(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(h.base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return "./" + filepath.ToSlash(rel)
}

func (h *Handler) levelTag(level slog.Level) string {
	tag := "[" + levelString(level) + "]"
	if !h.colored {
		return tag
	}
	switch {
	case level >= slog.LevelError:
		return color.RedString(tag)
	case level >= slog.LevelWarn:
		return color.YellowString(tag)
	case level < slog.LevelInfo:
		return color.HiBlackString(tag)
	}
	return tag
}

// levelString returns a lowercase string for the log level.
func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}

// formatValue formats a slog.Value for display.
func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	default:
		return fmt.Sprint(v.Any())
	}
}
