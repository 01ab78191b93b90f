package reconciler

import (
	"github.com/vango-dev/fibers/internal/errors"
	"github.com/vango-dev/fibers/pkg/element"
	"github.com/vango-dev/fibers/pkg/fiber"
)

// scope is the element.Scope handed to one component invocation.
type scope struct {
	root  *Root
	fiber *fiber.Fiber
	done  bool
}

// RequestState implements element.Scope. The hook at the current position
// starts from the alternate's hook state with its queued updates applied
// in order, or from initial on first render.
func (s *scope) RequestState(initial any) (any, func(update func(any) any)) {
	r := s.root
	if s.done || r.wipFiber != s.fiber {
		comp := s.fiber.Tag.Component()
		panic(errors.New("E103").WithFunc(comp.Name, comp.Render))
	}

	hook := &fiber.Hook{State: initial}
	if alt := s.fiber.Alternate; alt != nil && r.hookIndex < len(alt.Hooks) {
		old := alt.Hooks[r.hookIndex]
		hook.State = old.State
		for _, update := range old.Queue {
			hook.State = update(hook.State)
		}
	}

	s.fiber.Hooks = append(s.fiber.Hooks, hook)
	r.hookIndex++

	set := func(update func(any) any) {
		if update == nil {
			return
		}
		hook.Queue = append(hook.Queue, update)
		r.scheduleUpdate()
	}
	return hook.State, set
}

// scheduleUpdate restages a pass from the current tree's props. Before
// the first commit the restage is deferred until that commit. An update
// during a component render fails that render with E107.
func (r *Root) scheduleUpdate() {
	if r.stopped {
		return
	}
	if f := r.wipFiber; f != nil {
		if r.renderErr == nil {
			comp := f.Tag.Component()
			r.renderErr = errors.New("E107").WithFunc(comp.Name, comp.Render)
		}
		return
	}
	if r.current == nil {
		r.dirty = true
		return
	}
	r.stage(r.current.Props)
}

// UseState returns the component's state at the next hook position and a
// setter that queues update and schedules a new render pass.
//
// UseState must be called unconditionally, in the same order on every
// render of a component. It panics with E103 when s is not a live render
// scope.
func UseState[T any](s element.Scope, initial T) (T, func(update func(T) T)) {
	if s == nil {
		panic(errors.New("E103"))
	}
	v, set := s.RequestState(initial)
	state, _ := v.(T)
	return state, func(update func(T) T) {
		if update == nil {
			return
		}
		set(func(prev any) any {
			p, _ := prev.(T)
			return update(p)
		})
	}
}

// Set returns an update that replaces the state with v.
func Set[T any](v T) func(T) T {
	return func(T) T { return v }
}
