// Package log is a thin layer over log/slog that stamps every record with
// the component that wrote it.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger bound to a component name.
type Logger struct {
	*slog.Logger
	component string
}

type Config struct {
	Level     slog.Level
	Component string
	// Format is "json" or "text"; anything else means text.
	Format string
	// Output defaults to stdout.
	Output io.Writer
	// Handler, when set, replaces the handler built from the fields above.
	Handler slog.Handler
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func New(cfg Config) *Logger {
	h := cfg.Handler
	if h == nil {
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		opts := &slog.HandlerOptions{Level: cfg.Level}
		if strings.EqualFold(cfg.Format, "json") {
			h = slog.NewJSONHandler(out, opts)
		} else {
			h = slog.NewTextHandler(out, opts)
		}
	}
	return bind(h, cfg.Component)
}

func bind(h slog.Handler, component string) *Logger {
	if ch, ok := h.(componentHandler); ok {
		h = ch.next
	}
	return &Logger{Logger: slog.New(componentHandler{next: h, component: component}), component: component}
}

// Discard drops everything. Tests use it to keep output quiet.
func Discard() *Logger {
	return bind(slog.NewTextHandler(io.Discard, nil), "discard")
}

// OrDefault rebinds l to component, falling back to slog.Default when l is
// nil.
func OrDefault(l *Logger, component string) *Logger {
	if l != nil {
		return l.WithComponent(component)
	}
	return bind(slog.Default().Handler(), component)
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), component: l.component}
}

// WithComponent keeps the attributes already attached to l and swaps the
// component name.
func (l *Logger) WithComponent(component string) *Logger {
	return bind(l.Logger.Handler(), component)
}

func (l *Logger) Component() string { return l.component }

func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}

// componentHandler adds the component attribute at emit time, so
// rebinding never stacks duplicate attributes.
type componentHandler struct {
	next      slog.Handler
	component string
}

func (h componentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h componentHandler) Handle(ctx context.Context, r slog.Record) error {
	r = r.Clone()
	r.AddAttrs(slog.String(FieldComponent, h.component))
	return h.next.Handle(ctx, r)
}

func (h componentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return componentHandler{next: h.next.WithAttrs(attrs), component: h.component}
}

func (h componentHandler) WithGroup(name string) slog.Handler {
	return componentHandler{next: h.next.WithGroup(name), component: h.component}
}
