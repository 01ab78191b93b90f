package fiber

import (
	"time"

	"github.com/vango-dev/fibers/pkg/element"
)

// Bridge translates fiber operations into host tree mutations. Any host
// tree implementation may satisfy it. Implementations panic with an E105
// error when handed a node they did not create.
type Bridge interface {
	CreateElementNode(tag string) Node
	CreateTextNode(value string) Node
	SetProperty(node Node, key string, value any)
	ClearProperty(node Node, key string)
	AddListener(node Node, event string, h *element.Handler, phase element.Phase)
	RemoveListener(node Node, event string, h *element.Handler, phase element.Phase)
	AppendChild(parent, child Node)
	RemoveChild(parent, child Node)

	// AssociateFiber records the fiber that currently manages node, so
	// the event system can find it from a native event target.
	AssociateFiber(node Node, f *Fiber)
	AssociatedFiber(node Node) *Fiber
}

// Deadline reports how much of the current idle period is left.
type Deadline interface {
	TimeRemaining() time.Duration
}

// IdleScheduler runs callbacks during host idle periods.
type IdleScheduler interface {
	RequestIdle(cb func(Deadline))
}
