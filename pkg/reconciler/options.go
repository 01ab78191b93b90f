package reconciler

import (
	"log/slog"
	"time"

	"github.com/vango-dev/fibers/pkg/fiber"
	"github.com/vango-dev/fibers/pkg/metrics"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMinRemaining is the idle budget below which the work loop yields.
const DefaultMinRemaining = time.Millisecond

// Option configures a Root.
type Option func(*Root)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Root) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics records work loop and commit metrics to c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Root) {
		r.metrics = c
	}
}

// WithTracer traces each render pass as a span.
func WithTracer(t trace.Tracer) Option {
	return func(r *Root) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithMinRemaining sets the yield threshold.
func WithMinRemaining(d time.Duration) Option {
	return func(r *Root) {
		if d >= 0 {
			r.minRemaining = d
		}
	}
}

// WithDebugHooks makes a pass fail with E102 when a component calls
// UseState a different number of times than on its previous render.
func WithDebugHooks(enabled bool) Option {
	return func(r *Root) {
		r.debugHooks = enabled
	}
}

// WithDelegatedEvents excludes event keys for which handles returns true
// from per-node listener registration. The event system that serves
// those keys from the container supplies the predicate.
func WithDelegatedEvents(handles func(key string) bool) Option {
	return func(r *Root) {
		r.delegated = handles
	}
}

// WithOnCommit registers fn to run after every commit with the new current
// tree.
func WithOnCommit(fn func(current *fiber.Fiber)) Option {
	return func(r *Root) {
		if fn != nil {
			r.onCommit = append(r.onCommit, fn)
		}
	}
}
