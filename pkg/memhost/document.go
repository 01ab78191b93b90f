package memhost

import (
	"slices"

	"github.com/vango-dev/fibers/internal/errors"
	"github.com/vango-dev/fibers/pkg/element"
	"github.com/vango-dev/fibers/pkg/fiber"
	"github.com/vango-dev/fibers/pkg/protocol"
)

// NodeType distinguishes element nodes from text nodes.
type NodeType uint8

const (
	ElementNode NodeType = iota
	TextNode
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	if t == TextNode {
		return "Text"
	}
	return "Element"
}

type listenerKey struct {
	event string
	phase element.Phase
}

// Node is a host node owned by a Document.
type Node struct {
	doc       *Document
	id        uint64
	typ       NodeType
	tag       string
	text      string
	props     map[string]any
	listeners map[listenerKey][]*element.Handler
	parent    *Node
	children  []*Node
	fiber     *fiber.Fiber

	// Mutations recorded before the node became reachable from the body.
	// A node that is never attached never reaches the journal.
	announced bool
	pending   []protocol.Mutation
}

// ID returns the node's document-unique ID.
func (n *Node) ID() uint64 { return n.id }

// Type returns the node type.
func (n *Node) Type() NodeType { return n.typ }

// Tag returns the element tag, or "#text" for text nodes.
func (n *Node) Tag() string { return n.tag }

// Text returns a text node's value.
func (n *Node) Text() string { return n.text }

// Parent returns the parent node, or nil if the node is detached or is the
// document body.
func (n *Node) Parent() *Node { return n.parent }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// Prop returns a property value.
func (n *Node) Prop(key string) (any, bool) {
	v, ok := n.props[key]
	return v, ok
}

// Props returns a copy of the property map.
func (n *Node) Props() map[string]any {
	out := make(map[string]any, len(n.props))
	for k, v := range n.props {
		out[k] = v
	}
	return out
}

// Listeners returns the handlers registered for event in phase, in
// registration order.
func (n *Node) Listeners(event string, phase element.Phase) []*element.Handler {
	return slices.Clone(n.listeners[listenerKey{event, phase}])
}

// ListenerCount returns the total number of registered listeners.
func (n *Node) ListenerCount() int {
	total := 0
	for _, hs := range n.listeners {
		total += len(hs)
	}
	return total
}

// ListenerNames returns the registered listener events, sorted, with
// capture-phase listeners suffixed by element.CaptureSuffix.
func (n *Node) ListenerNames() []string {
	var out []string
	for _, k := range sortedListenerKeys(n.listeners) {
		if len(n.listeners[k]) == 0 {
			continue
		}
		name := k.event
		if k.phase == element.PhaseCapture {
			name += element.CaptureSuffix
		}
		out = append(out, name)
	}
	return out
}

// TextContent concatenates the text of all descendant text nodes.
func (n *Node) TextContent() string {
	if n.typ == TextNode {
		return n.text
	}
	var out []byte
	for _, c := range n.children {
		out = append(out, c.TextContent()...)
	}
	return string(out)
}

// Contains reports whether o is n or a descendant of n.
func (n *Node) Contains(o *Node) bool {
	for ; o != nil; o = o.parent {
		if o == n {
			return true
		}
	}
	return false
}

// FindByID returns the first node in n's subtree, in document order,
// whose id property equals id.
func (n *Node) FindByID(id string) *Node {
	if v, ok := n.props["id"]; ok && v == id {
		return n
	}
	for _, c := range n.children {
		if m := c.FindByID(id); m != nil {
			return m
		}
	}
	return nil
}

// Fiber returns the fiber associated with this node, if any.
func (n *Node) Fiber() *fiber.Fiber { return n.fiber }

// Document is an in-memory host tree.
type Document struct {
	body    *Node
	nextID  uint64
	nodes   map[uint64]*Node
	journal []protocol.Mutation
	seq     uint64
}

// New creates an empty document with a body node.
func New() *Document {
	d := &Document{nodes: make(map[uint64]*Node)}
	d.body = d.newNode(ElementNode, "body")
	d.body.announced = true
	d.nodes[d.body.id] = d.body
	return d
}

// Body returns the document body, the top of every propagation path.
func (d *Document) Body() *Node { return d.body }

// CreateContainer creates a div with the given id under the body. It is
// the usual render container.
func (d *Document) CreateContainer(id string) *Node {
	n := d.CreateElementNode("div").(*Node)
	if id != "" {
		d.SetProperty(n, "id", id)
	}
	d.AppendChild(d.body, n)
	return n
}

// NodeByID looks up a node attached under the body by ID.
func (d *Document) NodeByID(id uint64) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Len returns the number of nodes attached under the body, the body
// included.
func (d *Document) Len() int { return len(d.nodes) }

func (d *Document) newNode(typ NodeType, tag string) *Node {
	d.nextID++
	n := &Node{
		doc:   d,
		id:    d.nextID,
		typ:   typ,
		tag:   tag,
		props: make(map[string]any),
	}
	return n
}

// node asserts that v is a node of this document.
func (d *Document) node(v fiber.Node) *Node {
	n, ok := v.(*Node)
	if !ok || n == nil || n.doc != d {
		panic(errors.New("E105").WithDetailf("node has type %T", v))
	}
	return n
}

// record journals m, or buffers it on n while n is unannounced.
func (d *Document) record(n *Node, m protocol.Mutation) {
	if !n.announced {
		n.pending = append(n.pending, m)
		return
	}
	d.journal = append(d.journal, m)
}

// announce moves the buffered mutations of n's subtree into the journal.
func (d *Document) announce(n *Node) {
	if !n.announced {
		n.announced = true
		d.journal = append(d.journal, n.pending...)
		n.pending = nil
	}
	for _, c := range n.children {
		d.announce(c)
	}
}

func (d *Document) attached(n *Node) bool {
	return d.nodes[n.id] == n
}

// CreateElementNode implements fiber.Bridge.
func (d *Document) CreateElementNode(tag string) fiber.Node {
	n := d.newNode(ElementNode, tag)
	d.record(n, protocol.Mutation{Op: protocol.OpCreateElement, Node: n.id, Value: tag})
	return n
}

// CreateTextNode implements fiber.Bridge.
func (d *Document) CreateTextNode(value string) fiber.Node {
	n := d.newNode(TextNode, element.TextTag)
	n.text = value
	d.record(n, protocol.Mutation{Op: protocol.OpCreateText, Node: n.id, Value: value})
	return n
}

// SetProperty implements fiber.Bridge. Setting nodeValue on a text node
// replaces its text.
func (d *Document) SetProperty(node fiber.Node, key string, value any) {
	n := d.node(node)
	s := PropString(value)
	if n.typ == TextNode && key == element.NodeValueKey {
		n.text = s
	} else {
		n.props[key] = value
	}
	d.record(n, protocol.Mutation{Op: protocol.OpSetProperty, Node: n.id, Key: key, Value: s})
}

// ClearProperty implements fiber.Bridge. The property is reset to the
// empty string, not removed.
func (d *Document) ClearProperty(node fiber.Node, key string) {
	n := d.node(node)
	if n.typ == TextNode && key == element.NodeValueKey {
		n.text = ""
	} else {
		n.props[key] = ""
	}
	d.record(n, protocol.Mutation{Op: protocol.OpClearProperty, Node: n.id, Key: key})
}

// AddListener implements fiber.Bridge. Registering the same handler twice
// for the same event and phase is a no-op.
func (d *Document) AddListener(node fiber.Node, event string, h *element.Handler, phase element.Phase) {
	n := d.node(node)
	if h == nil {
		return
	}
	k := listenerKey{event, phase}
	if slices.Contains(n.listeners[k], h) {
		return
	}
	if n.listeners == nil {
		n.listeners = make(map[listenerKey][]*element.Handler)
	}
	n.listeners[k] = append(n.listeners[k], h)
	d.record(n, protocol.Mutation{
		Op:      protocol.OpAddListener,
		Node:    n.id,
		Key:     event,
		Capture: phase == element.PhaseCapture,
	})
}

// RemoveListener implements fiber.Bridge.
func (d *Document) RemoveListener(node fiber.Node, event string, h *element.Handler, phase element.Phase) {
	n := d.node(node)
	k := listenerKey{event, phase}
	hs := n.listeners[k]
	i := slices.Index(hs, h)
	if i < 0 {
		return
	}
	hs = slices.Delete(hs, i, i+1)
	if len(hs) == 0 {
		delete(n.listeners, k)
	} else {
		n.listeners[k] = hs
	}
	d.record(n, protocol.Mutation{
		Op:      protocol.OpRemoveListener,
		Node:    n.id,
		Key:     event,
		Capture: phase == element.PhaseCapture,
	})
}

// AppendChild implements fiber.Bridge. A child that already has a parent
// is moved. Appending under an announced parent announces the child's
// subtree.
func (d *Document) AppendChild(parent, child fiber.Node) {
	p, c := d.node(parent), d.node(child)
	if c.Contains(p) {
		panic(errors.New("E105").WithDetailf("node #%d cannot be appended to its own descendant #%d", c.id, p.id))
	}
	if old := c.parent; old != nil {
		old.children = slices.DeleteFunc(old.children, func(x *Node) bool { return x == c })
		d.dropAppends(old, c)
	}
	d.dropAppends(c, c)
	c.parent = p
	p.children = append(p.children, c)
	if d.attached(p) {
		d.track(c)
	} else {
		d.untrack(c)
	}

	m := protocol.Mutation{Op: protocol.OpAppendChild, Node: c.id, Parent: p.id}
	switch {
	case p.announced:
		d.announce(c)
		d.record(c, m)
	case c.announced:
		d.record(p, m)
	default:
		d.record(c, m)
	}
}

// RemoveChild implements fiber.Bridge. The removed subtree is no longer
// reachable through NodeByID.
func (d *Document) RemoveChild(parent, child fiber.Node) {
	p, c := d.node(parent), d.node(child)
	if c.parent != p {
		return
	}
	p.children = slices.DeleteFunc(p.children, func(x *Node) bool { return x == c })
	c.parent = nil
	d.untrack(c)
	if !p.announced {
		d.dropAppends(p, c)
		d.dropAppends(c, c)
		return
	}
	d.record(c, protocol.Mutation{Op: protocol.OpRemoveChild, Node: c.id, Parent: p.id})
}

// dropAppends discards c's buffered append from n's pending mutations.
func (d *Document) dropAppends(n, c *Node) {
	if n.announced {
		return
	}
	n.pending = slices.DeleteFunc(n.pending, func(m protocol.Mutation) bool {
		return m.Op == protocol.OpAppendChild && m.Node == c.id
	})
}

func (d *Document) track(n *Node) {
	d.nodes[n.id] = n
	for _, c := range n.children {
		d.track(c)
	}
}

func (d *Document) untrack(n *Node) {
	delete(d.nodes, n.id)
	for _, c := range n.children {
		d.untrack(c)
	}
}

// AssociateFiber implements fiber.Bridge.
func (d *Document) AssociateFiber(node fiber.Node, f *fiber.Fiber) {
	d.node(node).fiber = f
}

// AssociatedFiber implements fiber.Bridge.
func (d *Document) AssociatedFiber(node fiber.Node) *fiber.Fiber {
	n, ok := node.(*Node)
	if !ok || n == nil || n.doc != d {
		return nil
	}
	return n.fiber
}

// Seq returns the sequence number of the last frame built by DrainFrame.
func (d *Document) Seq() uint64 { return d.seq }

// Pending returns the number of journaled mutations not yet drained.
func (d *Document) Pending() int { return len(d.journal) }

// Drain returns and clears the mutation journal.
func (d *Document) Drain() []protocol.Mutation {
	out := d.journal
	d.journal = nil
	return out
}

// DrainFrame drains the journal into a sequenced frame. It returns nil when
// the journal is empty.
func (d *Document) DrainFrame() *protocol.MutationFrame {
	if len(d.journal) == 0 {
		return nil
	}
	d.seq++
	return &protocol.MutationFrame{Seq: d.seq, Mutations: d.Drain()}
}

// Replay returns the mutations that rebuild the subtree under root from
// nothing. Listener registrations are included so a remote mirror knows
// which events to forward.
func (d *Document) Replay(root *Node) []protocol.Mutation {
	var out []protocol.Mutation
	var walk func(n *Node, parent *Node)
	walk = func(n *Node, parent *Node) {
		if n.typ == TextNode {
			out = append(out, protocol.Mutation{Op: protocol.OpCreateText, Node: n.id, Value: n.text})
		} else {
			out = append(out, protocol.Mutation{Op: protocol.OpCreateElement, Node: n.id, Value: n.tag})
			for _, k := range sortedKeys(n.props) {
				out = append(out, protocol.Mutation{
					Op: protocol.OpSetProperty, Node: n.id, Key: k, Value: PropString(n.props[k]),
				})
			}
			for _, k := range sortedListenerKeys(n.listeners) {
				out = append(out, protocol.Mutation{
					Op: protocol.OpAddListener, Node: n.id, Key: k.event, Capture: k.phase == element.PhaseCapture,
				})
			}
		}
		for _, c := range n.children {
			walk(c, n)
		}
		if parent != nil {
			out = append(out, protocol.Mutation{Op: protocol.OpAppendChild, Node: n.id, Parent: parent.id})
		}
	}
	walk(root, nil)
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func sortedListenerKeys(m map[listenerKey][]*element.Handler) []listenerKey {
	keys := make([]listenerKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b listenerKey) int {
		if a.event != b.event {
			if a.event < b.event {
				return -1
			}
			return 1
		}
		return int(a.phase) - int(b.phase)
	})
	return keys
}

var _ fiber.Bridge = (*Document)(nil)
