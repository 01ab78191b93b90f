// Package fibers is the public surface of the fiber reconciler.
//
// Build elements with CreateElement (or H), define components with
// Define, keep local state with UseState, and mount a tree with Render:
//
//	counter := fibers.Define("Counter", func(s fibers.Scope, _ fibers.Props) *fibers.Element {
//	    n, setN := fibers.UseState(s, 0)
//	    return fibers.H("button", fibers.Props{
//	        "onClick": func() { setN(func(n int) int { return n + 1 }) },
//	    }, strconv.Itoa(n))
//	})
//	root := fibers.Render(fibers.H(counter, nil), container, doc, loop)
//	defer root.Stop()
package fibers

import (
	"github.com/vango-dev/fibers/pkg/element"
	"github.com/vango-dev/fibers/pkg/events"
	"github.com/vango-dev/fibers/pkg/fiber"
	"github.com/vango-dev/fibers/pkg/reconciler"
)

type (
	Element   = element.Element
	Props     = element.Props
	Scope     = element.Scope
	Component = element.Component
	Event     = element.Event
)

var (
	// CreateElement builds an element and reports invalid tags or children.
	CreateElement = element.CreateElement
	// H is CreateElement for literal trees; it panics on invalid input.
	H      = element.H
	Text   = element.Text
	Define = element.Define
)

// UseState returns the component's state at the next hook position and a
// setter that schedules a re-render. See reconciler.UseState.
func UseState[T any](s Scope, initial T) (T, func(update func(T) T)) {
	return reconciler.UseState(s, initial)
}

// Set returns an update that replaces the state with v.
func Set[T any](v T) func(T) T {
	return reconciler.Set(v)
}

// Root is a mounted tree: the reconciler root plus the event system
// delegating the container's listeners.
type Root struct {
	*reconciler.Root
	Events *events.System
}

// Render mounts el into container. Supported events are delegated to a
// single capture and bubble listener pair on the container; the first
// pass runs on sched. A nil sched leaves passes to Resume or Flush.
func Render(el *Element, container fiber.Node, bridge fiber.Bridge, sched fiber.IdleScheduler, opts ...reconciler.Option) *Root {
	sys := events.New(bridge)
	sys.Listen(container)

	opts = append([]reconciler.Option{reconciler.WithDelegatedEvents(sys.Handles)}, opts...)
	r := reconciler.New(container, bridge, sched, opts...)
	r.Render(el)
	return &Root{Root: r, Events: sys}
}

// Stop disarms the reconciler and removes the delegated listeners.
func (r *Root) Stop() {
	r.Root.Stop()
	r.Events.Close()
}
