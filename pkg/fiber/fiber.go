package fiber

import (
	"iter"

	"github.com/vango-dev/fibers/pkg/element"
)

// Kind is the fiber variant. It is resolved once, when the fiber is
// created, from the element tag.
type Kind uint8

const (
	KindRoot      Kind = iota // The container fiber; owns the container node
	KindHost                  // Host element; owns a host node
	KindText                  // Text node; owns a host text node
	KindComponent             // Component; owns no host node
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "Root"
	case KindHost:
		return "Host"
	case KindText:
		return "Text"
	case KindComponent:
		return "Component"
	default:
		return "Unknown"
	}
}

// EffectTag classifies the host mutation a fiber requires at commit.
type EffectTag uint8

const (
	EffectNone      EffectTag = iota // Not yet classified
	EffectPlacement                  // Insert a new host node
	EffectUpdate                     // Patch properties of the existing node
	EffectDeletion                   // Remove the host node(s)
)

// String returns the string representation of the EffectTag.
func (e EffectTag) String() string {
	switch e {
	case EffectNone:
		return "None"
	case EffectPlacement:
		return "PLACEMENT"
	case EffectUpdate:
		return "UPDATE"
	case EffectDeletion:
		return "DELETION"
	default:
		return "Unknown"
	}
}

// Hook is a local-state cell owned by one component fiber.
type Hook struct {
	State any
	Queue []func(any) any
}

// Node is an opaque host node reference.
type Node = any

// Fiber is one position in the fiber tree.
type Fiber struct {
	Kind      Kind
	Tag       element.Tag
	Props     element.Props
	HostNode  Node
	Alternate *Fiber
	EffectTag EffectTag
	Hooks     []*Hook

	Parent  *Fiber
	Child   *Fiber
	Sibling *Fiber
}

// KindOf maps an element kind to the fiber kind.
func KindOf(el *element.Element) Kind {
	switch el.Kind() {
	case element.KindText:
		return KindText
	case element.KindComponent:
		return KindComponent
	default:
		return KindHost
	}
}

// NewRoot creates a root fiber for container whose single child is el.
func NewRoot(container Node, el *element.Element, alternate *Fiber) *Fiber {
	return &Fiber{
		Kind:      KindRoot,
		Props:     element.Props{element.ChildrenKey: []*element.Element{el}},
		HostNode:  container,
		Alternate: alternate,
	}
}

// IsComponent returns true for component fibers.
func (f *Fiber) IsComponent() bool {
	return f.Kind == KindComponent
}

// Name returns a short label for logs.
func (f *Fiber) Name() string {
	if f == nil {
		return "<nil>"
	}
	if f.Kind == KindRoot {
		return "#root"
	}
	return f.Tag.Name()
}

// Root walks Parent links to the top of the tree.
func (f *Fiber) Root() *Fiber {
	for f != nil && f.Parent != nil {
		f = f.Parent
	}
	return f
}

// Children iterates the direct children in order.
func (f *Fiber) Children() iter.Seq[*Fiber] {
	return func(yield func(*Fiber) bool) {
		if f == nil {
			return
		}
		for c := f.Child; c != nil; c = c.Sibling {
			if !yield(c) {
				return
			}
		}
	}
}

// Ancestors iterates from f (inclusive) up to the root.
func (f *Fiber) Ancestors() iter.Seq[*Fiber] {
	return func(yield func(*Fiber) bool) {
		for a := f; a != nil; a = a.Parent {
			if !yield(a) {
				return
			}
		}
	}
}

// Walk iterates the subtree rooted at f in depth-first pre-order.
func (f *Fiber) Walk() iter.Seq[*Fiber] {
	return func(yield func(*Fiber) bool) {
		f.walk(yield)
	}
}

func (f *Fiber) walk(yield func(*Fiber) bool) bool {
	if f == nil {
		return true
	}
	if !yield(f) {
		return false
	}
	for c := f.Child; c != nil; c = c.Sibling {
		if !c.walk(yield) {
			return false
		}
	}
	return true
}

// HostParent returns the nearest strict ancestor that owns a host node, or
// nil if there is none.
func (f *Fiber) HostParent() *Fiber {
	for p := f.Parent; p != nil; p = p.Parent {
		if p.HostNode != nil {
			return p
		}
	}
	return nil
}

// Next returns the fiber visited after f in depth-first pre-order: the
// child if any, otherwise the sibling of the nearest ancestor (f
// included) that has one. It returns nil when the tree is exhausted.
func (f *Fiber) Next() *Fiber {
	if f.Child != nil {
		return f.Child
	}
	for n := f; n != nil; n = n.Parent {
		if n.Sibling != nil {
			return n.Sibling
		}
	}
	return nil
}
