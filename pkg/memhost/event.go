package memhost

import "github.com/vango-dev/fibers/pkg/element"

// EventKind classifies the payload an Event carries.
type EventKind uint8

const (
	BasicEvent EventKind = iota
	MouseEvent
	KeyboardEvent
	InputEvent
)

// EventPhase is the propagation phase a native event is in.
type EventPhase uint8

const (
	PhaseNone EventPhase = iota
	PhaseCapturing
	PhaseAtTarget
	PhaseBubbling
)

// Event is a native event. It satisfies element.Event.
type Event struct {
	typ  string
	kind EventKind

	ClientX float64
	ClientY float64
	Key     string
	Value   string

	target        *Node
	currentTarget *Node
	phase         EventPhase
	stopped       bool
	prevented     bool
}

// NewEvent creates a basic event.
func NewEvent(typ string) *Event {
	return &Event{typ: typ}
}

// NewMouseEvent creates a mouse event at the given client coordinates.
func NewMouseEvent(typ string, x, y float64) *Event {
	return &Event{typ: typ, kind: MouseEvent, ClientX: x, ClientY: y}
}

// NewKeyboardEvent creates a keyboard event for key.
func NewKeyboardEvent(typ, key string) *Event {
	return &Event{typ: typ, kind: KeyboardEvent, Key: key}
}

// NewInputEvent creates an input or change event carrying value.
func NewInputEvent(typ, value string) *Event {
	return &Event{typ: typ, kind: InputEvent, Value: value}
}

// WithTarget sets the target for events delivered without DispatchEvent.
func (e *Event) WithTarget(n *Node) *Event {
	e.target = n
	return e
}

func (e *Event) Type() string               { return e.typ }
func (e *Event) Kind() EventKind            { return e.kind }
func (e *Event) Target() *Node              { return e.target }
func (e *Event) CurrentTarget() *Node       { return e.currentTarget }
func (e *Event) Phase() EventPhase          { return e.phase }
func (e *Event) StopPropagation()           { e.stopped = true }
func (e *Event) PreventDefault()            { e.prevented = true }
func (e *Event) IsPropagationStopped() bool { return e.stopped }
func (e *Event) IsDefaultPrevented() bool   { return e.prevented }

// TargetNode returns the target as a host node reference.
func (e *Event) TargetNode() any {
	if e.target == nil {
		return nil
	}
	return e.target
}

// ClientPosition returns the pointer coordinates. ok is false for events
// that are not mouse events.
func (e *Event) ClientPosition() (x, y float64, ok bool) {
	return e.ClientX, e.ClientY, e.kind == MouseEvent
}

// KeyName returns the key of a keyboard event.
func (e *Event) KeyName() (string, bool) {
	return e.Key, e.kind == KeyboardEvent
}

// InputValue returns the value of an input or change event.
func (e *Event) InputValue() (string, bool) {
	return e.Value, e.kind == InputEvent
}

// DispatchEvent delivers ev to target. Capture listeners run from the body
// down to the target, then bubble listeners run from the target up to the
// body. Once StopPropagation is called no further node is visited; the
// remaining listeners of the current node still run. It returns false if
// a listener called PreventDefault.
func (d *Document) DispatchEvent(target *Node, ev *Event) bool {
	d.node(target)

	var path []*Node
	for n := target; n != nil; n = n.parent {
		path = append(path, n)
	}

	ev.target = target
	ev.stopped = false

	for i := len(path) - 1; i >= 0 && !ev.stopped; i-- {
		ev.phase = PhaseCapturing
		if i == 0 {
			ev.phase = PhaseAtTarget
		}
		invoke(path[i], ev, element.PhaseCapture)
	}
	for i := 0; i < len(path) && !ev.stopped; i++ {
		ev.phase = PhaseBubbling
		if i == 0 {
			ev.phase = PhaseAtTarget
		}
		invoke(path[i], ev, element.PhaseBubble)
	}

	ev.phase = PhaseNone
	ev.currentTarget = nil
	return !ev.prevented
}

func invoke(n *Node, ev *Event, phase element.Phase) {
	hs := n.listeners[listenerKey{ev.typ, phase}]
	if len(hs) == 0 {
		return
	}
	ev.currentTarget = n
	// Listeners added during dispatch wait for the next event.
	for _, h := range append([]*element.Handler(nil), hs...) {
		h.Invoke(ev)
	}
}

var _ element.Event = (*Event)(nil)
