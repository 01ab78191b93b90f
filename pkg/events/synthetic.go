package events

import (
	"github.com/vango-dev/fibers/pkg/element"
	"github.com/vango-dev/fibers/pkg/fiber"
)

// NativeEvent is a host event that can report its target node. Native
// events are tracked by identity while in flight, so implementations
// must be pointer types.
type NativeEvent interface {
	element.Event
	TargetNode() fiber.Node
}

// Optional native event capabilities.
type (
	mouseEvent interface {
		ClientPosition() (x, y float64, ok bool)
	}
	keyboardEvent interface{ KeyName() (string, bool) }
	inputEvent    interface{ InputValue() (string, bool) }
)

// SyntheticEvent is the event handed to handlers registered through
// element props.
type SyntheticEvent struct {
	info          Info
	native        NativeEvent
	target        *fiber.Fiber
	currentTarget *fiber.Fiber
	phase         element.Phase
	stopped       bool
	prevented     bool

	ClientX float64
	ClientY float64
	Key     string
	Value   string
}

func newSynthetic(info Info, native NativeEvent, target *fiber.Fiber) *SyntheticEvent {
	e := &SyntheticEvent{info: info, native: native, target: target}
	switch info.Kind {
	case KindMouse:
		if m, ok := native.(mouseEvent); ok {
			if x, y, ok := m.ClientPosition(); ok {
				e.ClientX, e.ClientY = x, y
			}
		}
	case KindKeyboard:
		if k, ok := native.(keyboardEvent); ok {
			e.Key, _ = k.KeyName()
		}
	case KindInput:
		if v, ok := native.(inputEvent); ok {
			e.Value, _ = v.InputValue()
		}
	}
	return e
}

// Type returns the native event name.
func (e *SyntheticEvent) Type() string { return e.info.Native }

// SyntheticName returns the bubble-phase handler key, e.g. "onClick".
func (e *SyntheticEvent) SyntheticName() string { return e.info.Synthetic }

// NativeEvent returns the wrapped host event.
func (e *SyntheticEvent) NativeEvent() NativeEvent { return e.native }

// Target returns the fiber that owns the native target node.
func (e *SyntheticEvent) Target() *fiber.Fiber { return e.target }

// CurrentTarget returns the fiber whose handler is running. It is nil
// outside handler calls.
func (e *SyntheticEvent) CurrentTarget() *fiber.Fiber { return e.currentTarget }

// Phase returns the phase being dispatched.
func (e *SyntheticEvent) Phase() element.Phase { return e.phase }

// StopPropagation stops the remaining handlers of this dispatch and the
// native event's propagation.
func (e *SyntheticEvent) StopPropagation() {
	e.stopped = true
	e.native.StopPropagation()
}

// PreventDefault forwards to the native event.
func (e *SyntheticEvent) PreventDefault() {
	e.prevented = true
	e.native.PreventDefault()
}

func (e *SyntheticEvent) IsPropagationStopped() bool { return e.stopped }
func (e *SyntheticEvent) IsDefaultPrevented() bool   { return e.prevented }

var _ element.Event = (*SyntheticEvent)(nil)
