package reconciler

import (
	"fmt"

	"github.com/vango-dev/fibers/internal/errors"
	"github.com/vango-dev/fibers/pkg/element"
	"github.com/vango-dev/fibers/pkg/fiber"
)

// performUnitOfWork reconciles f and returns the next fiber to visit.
func (r *Root) performUnitOfWork(f *fiber.Fiber) (*fiber.Fiber, error) {
	var err error
	if f.IsComponent() {
		err = r.updateComponent(f)
	} else {
		err = r.updateHost(f)
	}
	if err != nil {
		return nil, err
	}
	return f.Next(), nil
}

// updateComponent invokes the component and reconciles its single output.
func (r *Root) updateComponent(f *fiber.Fiber) error {
	r.wipFiber = f
	r.hookIndex = 0
	f.Hooks = nil

	pass := r.pass
	s := &scope{root: r, fiber: f}
	out := f.Tag.Render(s, f.Props)
	s.done = true
	r.wipFiber = nil
	if err := r.renderErr; err != nil {
		r.renderErr = nil
		return err
	}
	if r.pass != pass {
		// The component staged a new pass; this tree is abandoned.
		return nil
	}

	if r.debugHooks && f.Alternate != nil && len(f.Alternate.Hooks) != len(f.Hooks) {
		comp := f.Tag.Component()
		return errors.New("E102").
			WithFunc(comp.Name, comp.Render).
			WithDetailf("%d state hooks, previously %d", len(f.Hooks), len(f.Alternate.Hooks))
	}

	var children []*element.Element
	if out != nil {
		children = []*element.Element{out}
	}
	return r.reconcileChildren(f, children)
}

// updateHost ensures f owns a host node and reconciles its literal
// children. The root fiber already owns the container.
func (r *Root) updateHost(f *fiber.Fiber) error {
	if f.HostNode == nil && f.Kind != fiber.KindRoot {
		f.HostNode = r.createHostNode(f)
	}

	children, err := element.Validate(f.Props)
	if err != nil {
		if fe, ok := err.(*errors.Error); ok {
			if owner := nearestComponent(f); owner != nil {
				fe.WithComponent(owner.Name())
			}
		}
		return err
	}
	return r.reconcileChildren(f, children)
}

func nearestComponent(f *fiber.Fiber) *fiber.Fiber {
	for a := range f.Ancestors() {
		if a.IsComponent() {
			return a
		}
	}
	return nil
}

// createHostNode creates the node for a host or text fiber and applies its
// initial properties.
func (r *Root) createHostNode(f *fiber.Fiber) fiber.Node {
	var node fiber.Node
	if f.Kind == fiber.KindText {
		value := f.Props[element.NodeValueKey]
		node = r.bridge.CreateTextNode(textValue(value))
		r.applyProps(node, element.Props{element.NodeValueKey: value}, f.Props)
	} else {
		node = r.bridge.CreateElementNode(f.Tag.Name())
		r.applyProps(node, nil, f.Props)
	}
	r.bridge.AssociateFiber(node, f)
	return node
}

func textValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}

// reconcileChildren pairs children with the alternate's child chain by
// index and links the resulting fibers under parent. Old fibers with no
// same-tag successor are marked for deletion.
func (r *Root) reconcileChildren(parent *fiber.Fiber, children []*element.Element) error {
	var old *fiber.Fiber
	if parent.Alternate != nil {
		old = parent.Alternate.Child
	}
	parent.Child = nil

	var prev *fiber.Fiber
	for i := 0; i < len(children) || old != nil; i++ {
		var el *element.Element
		if i < len(children) {
			el = children[i]
		}

		same := old != nil && el != nil && old.Tag.Same(el.Tag)

		var nf *fiber.Fiber
		switch {
		case same:
			nf = &fiber.Fiber{
				Kind:      old.Kind,
				Tag:       el.Tag,
				Props:     el.Props,
				HostNode:  old.HostNode,
				Parent:    parent,
				Alternate: old,
				EffectTag: fiber.EffectUpdate,
			}
		case el != nil:
			nf = &fiber.Fiber{
				Kind:      fiber.KindOf(el),
				Tag:       el.Tag,
				Props:     el.Props,
				Parent:    parent,
				EffectTag: fiber.EffectPlacement,
			}
		}

		if old != nil && !same {
			old.EffectTag = fiber.EffectDeletion
			r.deletions = append(r.deletions, old)
		}

		if nf != nil {
			if prev == nil {
				parent.Child = nf
			} else {
				prev.Sibling = nf
			}
			prev = nf
		}

		if old != nil {
			old = old.Sibling
		}
	}
	return nil
}
