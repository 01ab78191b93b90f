package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vango-dev/fibers/internal/errors"
	"github.com/vango-dev/fibers/pkg/element"
	"github.com/vango-dev/fibers/pkg/fiber"
	"github.com/vango-dev/fibers/pkg/idle"
	"github.com/vango-dev/fibers/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vango-dev/fibers/pkg/reconciler"

// Status is the outcome of a Resume call.
type Status uint8

const (
	// Exhausted means no units of work remain: the pass, if any, has
	// been committed.
	Exhausted Status = iota
	// Suspended means the deadline ran low with units of work remaining.
	Suspended
)

// String returns the string representation of the Status.
func (s Status) String() string {
	if s == Suspended {
		return "Suspended"
	}
	return "Exhausted"
}

// Root is the scheduler context for one host container.
type Root struct {
	container fiber.Node
	bridge    fiber.Bridge
	sched     fiber.IdleScheduler

	current   *fiber.Fiber
	wip       *fiber.Fiber
	next      *fiber.Fiber
	deletions []*fiber.Fiber

	// Render scope of the component fiber being invoked.
	wipFiber  *fiber.Fiber
	hookIndex int
	renderErr error

	// dirty is set when a state update arrives before the first commit.
	dirty   bool
	stopped bool

	pass   uint64
	units  int
	yields int
	span   trace.Span

	logger       *slog.Logger
	metrics      *metrics.Collector
	tracer       trace.Tracer
	minRemaining time.Duration
	debugHooks   bool
	delegated    func(key string) bool
	onCommit     []func(*fiber.Fiber)
}

// New creates a Root that renders into container through bridge, and arms
// its work loop on sched.
func New(container fiber.Node, bridge fiber.Bridge, sched fiber.IdleScheduler, opts ...Option) *Root {
	r := &Root{
		container:    container,
		bridge:       bridge,
		sched:        sched,
		logger:       slog.Default().With("component", "reconciler"),
		tracer:       otel.Tracer(tracerName),
		minRemaining: DefaultMinRemaining,
		delegated:    func(string) bool { return false },
	}
	for _, opt := range opts {
		opt(r)
	}
	if sched != nil {
		sched.RequestIdle(r.tick)
	}
	return r
}

// Render stages el as the new tree for the container. A pass already in
// flight is abandoned and the new pass starts from the root.
func (r *Root) Render(el *element.Element) {
	var children []*element.Element
	if el != nil {
		children = []*element.Element{el}
	}
	r.stage(element.Props{element.ChildrenKey: children})
}

// stage starts a new pass whose root carries props.
func (r *Root) stage(props element.Props) {
	if r.wip != nil {
		r.finishSpan(nil, "superseded")
		r.metrics.PassFinished(metrics.OutcomeSuperseded)
		r.logger.Debug("pass superseded", "pass", r.pass, "units", r.units)
	}

	r.pass++
	r.units, r.yields = 0, 0
	r.wip = &fiber.Fiber{
		Kind:      fiber.KindRoot,
		Props:     props,
		HostNode:  r.container,
		Alternate: r.current,
	}
	r.deletions = nil
	r.next = r.wip
	_, r.span = r.tracer.Start(context.Background(), "fibers.render",
		trace.WithAttributes(attribute.Int64("fibers.pass", int64(r.pass))))

	r.logger.Debug("pass staged", "pass", r.pass, "initial", r.current == nil)
}

// Resume runs units of work until none remain or d reports less than the
// minimum remaining time. A completed pass is committed before Resume
// returns Exhausted. A unit that fails aborts the pass and its error is
// returned; a component panic aborts the pass and is re-raised.
func (r *Root) Resume(d fiber.Deadline) (Status, error) {
	if r.next == nil && r.wip == nil {
		return Exhausted, nil
	}

	defer func() {
		if p := recover(); p != nil {
			r.abort(fmt.Errorf("panic: %v", p))
			panic(p)
		}
	}()

	for r.next != nil {
		pass := r.pass
		next, err := r.performUnitOfWork(r.next)
		if r.pass != pass || r.wip == nil {
			// The unit staged a new pass, which owns the cursor now, or
			// stopped the root.
			if err != nil {
				r.logger.Debug("superseded unit failed", "pass", pass, "error", err)
			}
			continue
		}
		if err != nil {
			r.abort(err)
			return Exhausted, err
		}
		r.next = next
		r.units++
		r.metrics.UnitProcessed()

		if r.next != nil {
			if remaining := d.TimeRemaining(); remaining < r.minRemaining {
				r.yields++
				r.metrics.Yielded()
				r.span.AddEvent("yield", trace.WithAttributes(attribute.Int("fibers.units", r.units)))
				r.logger.Debug("yield", "pass", r.pass, "units", r.units, "remaining", remaining)
				return Suspended, nil
			}
		}
	}

	if r.wip != nil {
		r.commitRoot()
	}
	return Exhausted, nil
}

// Flush runs the staged pass, if any, to completion and commits it.
func (r *Root) Flush() error {
	for {
		status, err := r.Resume(idle.Unbounded())
		if err != nil || status == Exhausted {
			return err
		}
	}
}

// tick is the idle callback. It re-arms itself until the Root is stopped.
func (r *Root) tick(d fiber.Deadline) {
	if r.stopped {
		return
	}
	defer r.sched.RequestIdle(r.tick)

	if _, err := r.Resume(d); err != nil {
		r.logger.Error("render pass failed", "error", err)
	}
}

// Stop disarms the work loop. A pass in flight is abandoned.
func (r *Root) Stop() {
	r.stopped = true
	if r.wip != nil {
		r.abort(errors.Newf(errors.CategoryScheduler, "root stopped"))
	}
}

// Current returns the committed tree, or nil before the first commit.
func (r *Root) Current() *fiber.Fiber { return r.current }

// WorkInProgress returns the tree being built, or nil between passes.
func (r *Root) WorkInProgress() *fiber.Fiber { return r.wip }

// Deletions returns the deletion list of the latest pass.
func (r *Root) Deletions() []*fiber.Fiber { return r.deletions }

// Pending reports whether a pass is staged or in flight.
func (r *Root) Pending() bool { return r.wip != nil }

// Container returns the host container node.
func (r *Root) Container() fiber.Node { return r.container }

// abort discards the work-in-progress tree. current is untouched.
func (r *Root) abort(cause error) {
	r.logger.Warn("pass aborted", "pass", r.pass, "units", r.units, "error", cause)
	r.metrics.PassFinished(metrics.OutcomeAborted)
	r.finishSpan(cause, "aborted")

	r.wip = nil
	r.next = nil
	r.deletions = nil
	r.wipFiber = nil
	r.hookIndex = 0
	r.renderErr = nil
}

func (r *Root) finishSpan(err error, outcome string) {
	if r.span == nil {
		return
	}
	r.span.SetAttributes(
		attribute.String("fibers.outcome", outcome),
		attribute.Int("fibers.units", r.units),
		attribute.Int("fibers.yields", r.yields),
		attribute.Int("fibers.deletions", len(r.deletions)),
	)
	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
	}
	r.span.End()
	r.span = nil
}
