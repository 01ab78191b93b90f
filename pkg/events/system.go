package events

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/vango-dev/fibers/pkg/element"
	"github.com/vango-dev/fibers/pkg/fiber"
	"github.com/vango-dev/fibers/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/vango-dev/fibers/pkg/events"

// Option configures a System.
type Option func(*System)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *System) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records dispatch metrics to c.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *System) {
		s.metrics = c
	}
}

// WithTracer traces each dispatched phase as a span.
func WithTracer(t trace.Tracer) Option {
	return func(s *System) {
		if t != nil {
			s.tracer = t
		}
	}
}

type registration struct {
	event   string
	phase   element.Phase
	handler *element.Handler
}

// listener is a handler collected from one fiber.
type listener struct {
	fiber   *fiber.Fiber
	handler *element.Handler
}

// System dispatches synthetic events for one render container.
type System struct {
	bridge    fiber.Bridge
	container fiber.Node
	regs      []registration

	// inflight holds the synthetic event created by the capture listener
	// until the bubble listener picks it up.
	inflight map[NativeEvent]*SyntheticEvent

	logger  *slog.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer
}

// New creates a System that resolves fibers through bridge.
func New(bridge fiber.Bridge, opts ...Option) *System {
	s := &System{
		bridge:   bridge,
		inflight: make(map[NativeEvent]*SyntheticEvent),
		logger:   slog.Default().With("component", "events"),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handles reports whether key is served by this System. Pass it to
// reconciler.WithDelegatedEvents.
func (s *System) Handles(key string) bool {
	return Handles(key)
}

// Listen attaches a capture and a bubble listener to container for every
// supported event. Listening again moves the listeners to the new
// container.
func (s *System) Listen(container fiber.Node) {
	s.Close()
	s.container = container

	for _, info := range supported {
		capture := element.On(func(e element.Event) { s.onCapture(e) })
		bubble := element.On(func(e element.Event) { s.onBubble(e) })
		s.bridge.AddListener(container, info.Native, capture, element.PhaseCapture)
		s.bridge.AddListener(container, info.Native, bubble, element.PhaseBubble)
		s.regs = append(s.regs,
			registration{info.Native, element.PhaseCapture, capture},
			registration{info.Native, element.PhaseBubble, bubble},
		)
	}
	s.logger.Debug("listening", "events", len(supported))
}

// Close removes the container listeners.
func (s *System) Close() {
	for _, r := range s.regs {
		s.bridge.RemoveListener(s.container, r.event, r.handler, r.phase)
	}
	s.regs = nil
	s.container = nil
	clear(s.inflight)
}

// Dispatch runs both phases for native in one call. It is for hosts that
// deliver events without capture and bubble propagation of their own.
func (s *System) Dispatch(native NativeEvent) {
	se := s.begin(native)
	if se == nil {
		return
	}
	s.run(se, element.PhaseCapture)
	s.run(se, element.PhaseBubble)
}

func (s *System) onCapture(e element.Event) {
	native, ok := e.(NativeEvent)
	if !ok {
		return
	}
	// Events stopped before reaching the container's bubble listener
	// never come back for their wrapper.
	for n, se := range s.inflight {
		if se.stopped || n.IsPropagationStopped() {
			delete(s.inflight, n)
		}
	}

	se := s.begin(native)
	if se == nil {
		return
	}
	s.run(se, element.PhaseCapture)
	if !se.stopped {
		s.inflight[native] = se
	}
}

func (s *System) onBubble(e element.Event) {
	native, ok := e.(NativeEvent)
	if !ok {
		return
	}
	se, ok := s.inflight[native]
	if ok {
		delete(s.inflight, native)
	} else {
		se = s.begin(native)
	}
	if se == nil {
		return
	}
	s.run(se, element.PhaseBubble)
}

// begin resolves the target fiber and builds the synthetic event. It
// returns nil for unsupported events and for targets no fiber manages.
func (s *System) begin(native NativeEvent) *SyntheticEvent {
	info, ok := Lookup(native.Type())
	if !ok {
		return nil
	}
	target := s.bridge.AssociatedFiber(native.TargetNode())
	if target == nil {
		return nil
	}
	s.metrics.Dispatched(info.Native)
	return newSynthetic(info, native, target)
}

// run invokes the handlers for one phase: capture handlers root to target,
// bubble handlers target to root.
func (s *System) run(se *SyntheticEvent, phase element.Phase) {
	name := se.info.Synthetic
	if phase == element.PhaseCapture {
		name = se.info.CaptureName()
	}
	listeners := collect(se.target, name)
	if len(listeners) == 0 {
		return
	}

	_, span := s.tracer.Start(context.Background(), "fibers.dispatch",
		trace.WithAttributes(
			attribute.String("fibers.event", se.info.Native),
			attribute.String("fibers.phase", phase.String()),
			attribute.Int("fibers.listeners", len(listeners)),
		))
	defer span.End()

	se.phase = phase
	invoked := 0
	for i := range listeners {
		l := listeners[i]
		if phase == element.PhaseCapture {
			l = listeners[len(listeners)-1-i]
		}
		if se.stopped {
			break
		}
		se.currentTarget = l.fiber
		l.handler.Invoke(se)
		se.currentTarget = nil
		invoked++
		s.metrics.HandlerInvoked(phase.String())
	}

	span.SetAttributes(attribute.Int("fibers.invoked", invoked), attribute.Bool("fibers.stopped", se.stopped))
	s.logger.Debug("dispatch",
		"event", se.info.Native,
		"phase", phase.String(),
		"listeners", len(listeners),
		"invoked", invoked,
		"stopped", se.stopped)
}

// collect walks from target to the root gathering handlers stored under
// name on fibers that own host nodes. The result is in target-to-root
// order.
func collect(target *fiber.Fiber, name string) []listener {
	var out []listener
	for f := range target.Ancestors() {
		if f.Kind != fiber.KindHost {
			continue
		}
		if h := handlerFor(f.Props, name); h != nil {
			out = append(out, listener{fiber: f, handler: h})
		}
	}
	return out
}

// handlerFor looks name up exactly, then case-insensitively. Among keys
// that differ only in case, the first in byte order wins.
func handlerFor(props element.Props, name string) *element.Handler {
	if v, ok := props[name]; ok {
		h, _ := element.ToHandler(v)
		return h
	}
	for _, key := range slices.Sorted(maps.Keys(props)) {
		if strings.EqualFold(key, name) {
			h, _ := element.ToHandler(props[key])
			return h
		}
	}
	return nil
}
