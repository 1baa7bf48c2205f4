package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// ContextAttrs is a swappable set of attributes appended to every record.
// Handle reads the current set without locking, so the code that owns the
// state publishes a fresh snapshot with Set whenever it changes.
type ContextAttrs struct {
	v atomic.Pointer[[]slog.Attr]
}

// Set replaces the published attributes.
func (c *ContextAttrs) Set(attrs ...slog.Attr) {
	snapshot := append([]slog.Attr(nil), attrs...)
	c.v.Store(&snapshot)
}

// Get returns the published attributes.
func (c *ContextAttrs) Get() []slog.Attr {
	if p := c.v.Load(); p != nil {
		return *p
	}
	return nil
}

// ContextHandler wraps another handler and appends the current ContextAttrs.
type ContextHandler struct {
	inner slog.Handler
	attrs *ContextAttrs
}

// NewContextHandler returns a handler that adds attrs to each record. A nil
// attrs makes it a pass-through.
func NewContextHandler(inner slog.Handler, attrs *ContextAttrs) *ContextHandler {
	return &ContextHandler{inner: inner, attrs: attrs}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.attrs != nil {
		if extra := h.attrs.Get(); len(extra) > 0 {
			r = r.Clone()
			r.AddAttrs(extra...)
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), attrs: h.attrs}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), attrs: h.attrs}
}
