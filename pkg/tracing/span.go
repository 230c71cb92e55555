// Package tracing provides a lightweight span tree for timing the stages of
// a statistics run. Spans travel in a context.Context, form parent-child
// trees keyed by the run id, and are logged through slog once the run ends.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type contextKey string

const spanKey contextKey = "trace_span"

// Span represents a timed stage of a run.
type Span struct {
	Name      string
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Children  []*Span
	Attrs     map[string]any
	mu        sync.Mutex
}

// StartSpan creates a root span for the run runID and stores it in the
// returned context.
func StartSpan(ctx context.Context, name string, runID string) (context.Context, *Span) {
	span := &Span{
		Name:      name,
		RunID:     runID,
		StartTime: time.Now(),
		Attrs:     make(map[string]any),
	}
	return context.WithValue(ctx, spanKey, span), span
}

// StartChildSpan creates a child of the span in ctx. Without a parent it
// returns a detached span that is still safe to use.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	parent := SpanFromContext(ctx)
	child := &Span{
		Name:      name,
		StartTime: time.Now(),
		Attrs:     make(map[string]any),
	}

	if parent != nil {
		child.RunID = parent.RunID
		parent.mu.Lock()
		parent.Children = append(parent.Children, child)
		parent.mu.Unlock()
	}

	return context.WithValue(ctx, spanKey, child), child
}

// End records the span's end time and duration.
func (s *Span) End() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// SetAttr attaches a key-value attribute to the span.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.Attrs[key] = value
	s.mu.Unlock()
}

// SpanFromContext extracts the current Span from ctx, or nil if none.
func SpanFromContext(ctx context.Context) *Span {
	if span, ok := ctx.Value(spanKey).(*Span); ok {
		return span
	}
	return nil
}

// Walk visits s and its descendants depth-first.
func (s *Span) Walk(fn func(depth int, span *Span)) {
	s.walk(0, fn)
}

func (s *Span) walk(depth int, fn func(int, *Span)) {
	fn(depth, s)
	s.mu.Lock()
	children := append([]*Span(nil), s.Children...)
	s.mu.Unlock()
	for _, child := range children {
		child.walk(depth+1, fn)
	}
}

// Log writes the span tree to logger at INFO, one record per span.
func (s *Span) Log(logger *slog.Logger) {
	s.Walk(func(depth int, span *Span) {
		attrs := []any{
			"run_id", span.RunID,
			"span", span.Name,
			"duration_ms", span.Duration.Milliseconds(),
			"depth", depth,
		}
		span.mu.Lock()
		for k, v := range span.Attrs {
			attrs = append(attrs, k, v)
		}
		span.mu.Unlock()
		logger.Info("span", attrs...)
	})
}
