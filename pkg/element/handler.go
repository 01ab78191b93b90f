package element

import "strings"

// Phase is the propagation phase a listener is registered for.
type Phase uint8

const (
	PhaseBubble Phase = iota
	PhaseCapture
)

// String returns the string representation of the Phase.
func (p Phase) String() string {
	if p == PhaseCapture {
		return "capture"
	}
	return "bubble"
}

// Event is what a handler receives: a native host event or a synthetic
// event built by the event system.
type Event interface {
	Type() string
	StopPropagation()
	PreventDefault()
	IsPropagationStopped() bool
	IsDefaultPrevented() bool
}

// Handler is an event handler with pointer identity. Property diffs
// compare handlers by identity, never by behavior.
type Handler struct {
	fn func(Event)
}

// On wraps fn in a Handler.
func On(fn func(Event)) *Handler {
	return &Handler{fn: fn}
}

// Invoke calls the handler. A nil handler is a no-op.
func (h *Handler) Invoke(e Event) {
	if h == nil || h.fn == nil {
		return
	}
	h.fn(e)
}

// ToHandler converts a property value to a handler. It accepts *Handler,
// func(Event) and func(). ok is false for any other type.
func ToHandler(v any) (h *Handler, ok bool) {
	switch fn := v.(type) {
	case nil:
		return nil, true
	case *Handler:
		return fn, true
	case func(Event):
		if fn == nil {
			return nil, true
		}
		return On(fn), true
	case func():
		if fn == nil {
			return nil, true
		}
		return On(func(Event) { fn() }), true
	default:
		return nil, false
	}
}

// IsEventKey returns true if the key holds an event handler (starts with
// "on", case-insensitive).
func IsEventKey(key string) bool {
	return len(key) > 2 && strings.EqualFold(key[:2], "on")
}

// NativeEventName derives the native event name from an event key by
// case-folding and stripping the "on" prefix: "onClick" -> "click".
func NativeEventName(key string) string {
	return strings.ToLower(key[2:])
}

// CaptureSuffix marks a capture-phase event key, as in "onClickCapture".
const CaptureSuffix = "Capture"

// SplitEventKey derives the native event name and phase from an event key:
// "onClick" -> ("click", PhaseBubble), "onClickCapture" -> ("click",
// PhaseCapture).
func SplitEventKey(key string) (event string, phase Phase) {
	if base, ok := strings.CutSuffix(key, CaptureSuffix); ok && IsEventKey(base) {
		return NativeEventName(base), PhaseCapture
	}
	return NativeEventName(key), PhaseBubble
}
