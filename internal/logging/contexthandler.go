package logging

import (
	"context"
	"log/slog"

	"github.com/cannonfire/planner/pkg/core"
)

// Attribute keys stamped on records by ContextHandler.
const (
	AttrRunID      = "runId"
	AttrGeneration = "generation"
)

// RunState reports where the search currently is. *session.Context
// implements it.
type RunState interface {
	Position() (run *core.Run, generation int)
}

// ContextHandler stamps every record with the run in progress: its runId,
// and the generation once one has been reported. Keys the caller already
// set, on the record or through With, are left alone.
type ContextHandler struct {
	inner slog.Handler
	state RunState

	// keys bound through WithAttrs at the top level
	hasRunID      bool
	hasGeneration bool
}

// NewContextHandler wraps inner. A nil state disables stamping.
func NewContextHandler(inner slog.Handler, state RunState) *ContextHandler {
	return &ContextHandler{
		inner: inner,
		state: state,
	}
}

// Enabled delegates to the inner handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds the run attributes missing from r and delegates.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.state == nil {
		return h.inner.Handle(ctx, r)
	}
	run, generation := h.state.Position()
	if run == nil {
		return h.inner.Handle(ctx, r)
	}

	hasRunID, hasGeneration := h.hasRunID, h.hasGeneration
	r.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case AttrRunID:
			hasRunID = true
		case AttrGeneration:
			hasGeneration = true
		}
		return !(hasRunID && hasGeneration)
	})

	if !hasRunID {
		r.AddAttrs(slog.String(AttrRunID, run.ID))
	}
	if !hasGeneration && generation >= 0 {
		r.AddAttrs(slog.Int(AttrGeneration, generation))
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a handler whose records also carry attrs.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.inner = h.inner.WithAttrs(attrs)
	for _, a := range attrs {
		switch a.Key {
		case AttrRunID:
			next.hasRunID = true
		case AttrGeneration:
			next.hasGeneration = true
		}
	}
	return &next
}

// WithGroup returns a handler that nests later attributes, including the
// run attributes, under name.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.inner = h.inner.WithGroup(name)
	next.hasRunID, next.hasGeneration = false, false
	return &next
}
