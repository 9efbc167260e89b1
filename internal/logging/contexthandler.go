// Package logging wires log/slog with attributes carried in context.Context.
//
// Attributes are attached once where the context is created, for example the trace ID of a request or the week a
// plan is generated for, and every record logged with that context carries them:
//
//	ctx = logging.WithWeek(ctx, weekStart)
//	logger.LogAttrs(ctx, slog.LevelInfo, "generated plan")
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

type attrsKey struct{}

// contextAttrs is an immutable list. Children point to their parent so that deriving a context never mutates the
// attributes seen through the parent.
type contextAttrs struct {
	parent *contextAttrs
	attrs  []slog.Attr
}

func (c *contextAttrs) appendTo(dst []slog.Attr) []slog.Attr {
	if c == nil {
		return dst
	}
	return append(c.parent.appendTo(dst), c.attrs...)
}

// ContextHandler adds the [slog.Attr] stored in the context with [WithAttrs] to every record.
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler wraps h so that records are enriched with attributes from the context.
func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{next: h}
}

// Options configures the logger built by [New].
type Options struct {
	Level slog.Leveler
	// Observe is called with every attribute before it is written. The training binaries leave it nil, tests use it
	// to pick the listening address from the server logs.
	Observe func(slog.Attr)
}

// New builds the text logger used by the binaries and tests.
func New(w io.Writer, opts Options) *slog.Logger {
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	var replace func([]string, slog.Attr) slog.Attr
	if observe := opts.Observe; observe != nil {
		replace = func(_ []string, a slog.Attr) slog.Attr {
			observe(a)
			return a
		}
	}
	return slog.New(NewContextHandler(slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource:   false,
		Level:       level,
		ReplaceAttr: replace,
	})))
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle enriches the log record with [slog.Attr] stored in context with [WithAttrs].
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if c, ok := ctx.Value(attrsKey{}).(*contextAttrs); ok {
		r.AddAttrs(c.appendTo(nil)...)
	}
	if err := h.next.Handle(ctx, r); err != nil {
		return fmt.Errorf("handle log record: %w", err)
	}
	return nil
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewContextHandler(h.next.WithAttrs(attrs))
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return NewContextHandler(h.next.WithGroup(name))
}

// WithAttrs returns a child of ctx whose records also carry attrs.
func WithAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	parent, _ := ctx.Value(attrsKey{}).(*contextAttrs)
	return context.WithValue(ctx, attrsKey{}, &contextAttrs{parent: parent, attrs: attrs})
}

// WithWeek tags ctx with the plan week being worked on.
func WithWeek(ctx context.Context, weekStart time.Time) context.Context {
	return WithAttrs(ctx, slog.String("week_start", weekStart.Format(time.DateOnly)))
}

// WithGoal tags ctx with the goal being worked on.
func WithGoal(ctx context.Context, goalID int) context.Context {
	return WithAttrs(ctx, slog.Int("goal_id", goalID))
}
