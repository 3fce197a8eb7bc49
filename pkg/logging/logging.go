// Package logging provides a compact colored slog handler for the regbits
// CLI. One line per record: timestamp, level, message, then key=value
// attributes.
package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var bufPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

type Options struct {
	Level      slog.Leveler
	UseColor   bool
	TimeFormat string
}

func DefaultOptions() Options {
	return Options{
		Level:      slog.LevelInfo,
		UseColor:   true,
		TimeFormat: time.TimeOnly,
	}
}

type Handler struct {
	opts   Options
	writer io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	groups []string

	colorTime  func(...any) string
	colorMsg   func(...any) string
	colorAttr  func(...any) string
	colorLevel map[slog.Level]func(...any) string
}

func NewHandler(w io.Writer, opts *Options) *Handler {
	if opts == nil {
		defaultOpts := DefaultOptions()
		opts = &defaultOpts
	}
	if opts.Level == nil {
		opts.Level = slog.LevelInfo
	}
	if opts.TimeFormat == "" {
		opts.TimeFormat = time.TimeOnly
	}

	h := &Handler{
		opts:   *opts,
		writer: w,
		mu:     &sync.Mutex{},
	}
	h.initColorFuncs()

	return h
}

func (h *Handler) initColorFuncs() {
	if !h.opts.UseColor {
		noColor := func(a ...any) string { return fmt.Sprint(a...) }
		h.colorTime = noColor
		h.colorMsg = noColor
		h.colorAttr = noColor
		h.colorLevel = map[slog.Level]func(...any) string{
			slog.LevelDebug: noColor,
			slog.LevelInfo:  noColor,
			slog.LevelWarn:  noColor,
			slog.LevelError: noColor,
		}
		return
	}

	h.colorTime = color.New(color.FgHiBlack).SprintFunc()
	h.colorMsg = color.New(color.FgCyan).SprintFunc()
	h.colorAttr = color.New(color.FgWhite).SprintFunc()
	h.colorLevel = map[slog.Level]func(...any) string{
		slog.LevelDebug: color.New(color.FgMagenta).SprintFunc(),
		slog.LevelInfo:  color.New(color.FgBlue).SprintFunc(),
		slog.LevelWarn:  color.New(color.FgYellow).SprintFunc(),
		slog.LevelError: color.New(color.FgRed, color.Bold).SprintFunc(),
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	buf := bufPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufPool.Put(buf)
	}()

	h.mu.Lock()
	defer h.mu.Unlock()

	if !r.Time.IsZero() {
		buf.WriteString(h.colorTime(r.Time.Format(h.opts.TimeFormat)))
		buf.WriteByte(' ')
	}

	levelStr := fmt.Sprintf("%-5s", strings.ToUpper(r.Level.String()))
	if colorFunc, ok := h.colorLevel[r.Level]; ok {
		levelStr = colorFunc(levelStr)
	}
	buf.WriteString(levelStr)
	buf.WriteByte(' ')

	buf.WriteString(h.colorMsg(r.Message))

	prefix := strings.Join(h.groups, ".")
	for _, attr := range h.attrs {
		h.writeAttr(buf, prefix, attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		h.writeAttr(buf, prefix, attr)
		return true
	})

	buf.WriteByte('\n')
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *Handler) writeAttr(buf *bytes.Buffer, prefix string, attr slog.Attr) {
	value := attr.Value.Resolve()

	if value.Kind() == slog.KindGroup {
		key := attr.Key
		if prefix != "" {
			key = prefix + "." + key
		}
		for _, groupAttr := range value.Group() {
			h.writeAttr(buf, key, groupAttr)
		}
		return
	}

	key := attr.Key
	if prefix != "" {
		key = prefix + "." + key
	}

	buf.WriteByte(' ')
	buf.WriteString(h.colorAttr(fmt.Sprintf("%s=%v", key, value.Any())))
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	newHandler := h.clone()
	newHandler.attrs = append(newHandler.attrs, attrs...)
	return newHandler
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	newHandler := h.clone()
	newHandler.groups = append(newHandler.groups, name)
	return newHandler
}

func (h *Handler) clone() *Handler {
	newHandler := &Handler{
		opts:   h.opts,
		writer: h.writer,
		mu:     &sync.Mutex{},
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
	newHandler.initColorFuncs()

	return newHandler
}
