// Package element provides the immutable tree descriptions the reconciler
// consumes.
//
// An Element is a tag plus a property bag. The tag is either a host tag
// name ("div", "h1") or a component. Children live in the property bag
// under the "children" key, as an ordered []*Element.
//
// # Element API
//
//	counter := element.Define("Counter", func(s element.Scope, p element.Props) *element.Element {
//	    ...
//	})
//
//	tree := element.H("div", element.Props{"id": "app"},
//	    element.H("h1", nil, "Title"),
//	    element.H(counter, element.Props{"start": 1}),
//	)
//
// Primitive children (strings, numbers, booleans) become text elements.
// Anything else is a malformed description: CreateElement returns an E101
// error and H panics with it.
//
// # Event Keys
//
// Keys starting with "on" (case-insensitive) hold event handlers. Function
// values under those keys are wrapped in a *Handler when the element is
// created, so every CreateElement call produces handlers with a fresh
// identity, and re-using an element reuses its handlers.
package element
