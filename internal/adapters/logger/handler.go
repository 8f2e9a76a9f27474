package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"
	"go.trai.ch/bld/internal/ui/output"
	"go.trai.ch/bld/internal/ui/style"
)

// TargetKey is the attribute rendered as a "[target]" tag in front of the
// message instead of as key=value.
const TargetKey = "target"

// lineKind classifies a record for rendering.
type lineKind uint8

const (
	kindInfo lineKind = iota
	kindDebug
	kindCommand
	kindDone
	kindWarn
	kindError
)

type lineStyle struct {
	prefix string
	color  termenv.Color
}

var lineStyles = map[lineKind]lineStyle{
	kindInfo:    {},
	kindDebug:   {color: termenv.RGBColor(string(style.Iris))},
	kindCommand: {color: termenv.RGBColor(string(style.Slate))},
	kindDone:    {color: termenv.RGBColor(string(style.Green))},
	kindWarn:    {prefix: style.Warning + " ", color: termenv.RGBColor(string(style.Yellow))},
	kindError:   {prefix: style.Cross + " ", color: termenv.RGBColor(string(style.Red))},
}

// classify maps a record to its line kind. Command echoes and finished
// targets are recognised by the icon they start with.
//
//nolint:gocritic // slog.Record is passed by value throughout slog
func classify(r slog.Record) lineKind {
	switch {
	case r.Level >= slog.LevelError:
		return kindError
	case r.Level >= slog.LevelWarn:
		return kindWarn
	case r.Level < slog.LevelInfo:
		return kindDebug
	case strings.HasPrefix(r.Message, style.Prompt+" "):
		return kindCommand
	case strings.HasPrefix(r.Message, style.Check+" "):
		return kindDone
	default:
		return kindInfo
	}
}

// PrettyHandler is a slog.Handler for build progress. It writes one line per
// record: command echoes are dimmed, finished targets are green, warnings and
// errors carry an icon. A target attribute becomes a "[target]" tag.
type PrettyHandler struct {
	mu    *sync.Mutex
	out   *termenv.Output
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewPrettyHandler creates a new PrettyHandler writing to w.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	if w == nil {
		w = os.Stderr
	}

	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}

	return &PrettyHandler{
		mu:    &sync.Mutex{},
		out:   output.New(w),
		level: level,
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes the record. Lines from concurrent builds never interleave.
//
//nolint:gocritic // slog.Handler interface requires slog.Record by value
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	ls := lineStyles[classify(r)]

	var tag string
	rest := make([]string, 0, len(h.attrs)+r.NumAttrs())
	add := func(attr slog.Attr) {
		key := h.qualify(attr.Key)
		if key == TargetKey {
			tag = "[" + attr.Value.String() + "] "
			return
		}
		rest = append(rest, key+"="+attr.Value.String())
	}
	for _, attr := range h.attrs {
		add(attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		add(attr)
		return true
	})

	var b strings.Builder
	b.WriteString(ls.prefix)
	b.WriteString(tag)
	b.WriteString(r.Message)
	for _, a := range rest {
		b.WriteByte(' ')
		b.WriteString(a)
	}

	line := h.out.String(b.String())
	if ls.color != nil {
		line = line.Foreground(ls.color)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.WriteString(line.String() + "\n")
	return err
}

// WithAttrs returns a new Handler with the given attributes appended.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup returns a new Handler whose attribute keys are qualified by name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.group = name
	return &clone
}

func (h *PrettyHandler) qualify(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}
