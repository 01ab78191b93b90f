package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vango-dev/fibers/pkg/memhost"
)

// ErrNotFound is returned when a snapshot doesn't exist.
var ErrNotFound = errors.New("snapshot: not found")

// ErrInvalidName is returned for names that cannot be used as a storage key.
var ErrInvalidName = errors.New("snapshot: invalid name")

// Snapshot is a captured host tree.
type Snapshot struct {
	Name  string    `json:"name"`
	Taken time.Time `json:"taken"`
	Nodes int       `json:"nodes"`
	HTML  string    `json:"html"`
	Root  *Node     `json:"root"`
}

// Node is one captured host node.
type Node struct {
	ID        uint64            `json:"id"`
	Type      string            `json:"type"`
	Tag       string            `json:"tag,omitempty"`
	Text      string            `json:"text,omitempty"`
	Props     map[string]string `json:"props,omitempty"`
	Listeners []string          `json:"listeners,omitempty"`
	Fiber     string            `json:"fiber,omitempty"`
	Children  []*Node           `json:"children,omitempty"`
}

// Capture snapshots the subtree rooted at root.
func Capture(name string, root *memhost.Node) *Snapshot {
	s := &Snapshot{
		Name:  name,
		Taken: time.Now().UTC(),
	}
	if root == nil {
		return s
	}
	s.Root = captureNode(root, &s.Nodes)
	s.HTML = root.HTML()
	return s
}

func captureNode(n *memhost.Node, count *int) *Node {
	*count++
	out := &Node{
		ID:        n.ID(),
		Type:      n.Type().String(),
		Listeners: n.ListenerNames(),
	}
	if n.Type() == memhost.TextNode {
		out.Text = n.Text()
	} else {
		out.Tag = n.Tag()
	}
	if props := n.Props(); len(props) > 0 {
		out.Props = make(map[string]string, len(props))
		for k, v := range props {
			out.Props[k] = memhost.PropString(v)
		}
	}
	if f := n.Fiber(); f != nil {
		out.Fiber = f.Name()
	}
	for _, c := range n.Children() {
		out.Children = append(out.Children, captureNode(c, count))
	}
	return out
}

// Find returns the first node, in pre-order, for which match returns true.
func (s *Snapshot) Find(match func(*Node) bool) *Node {
	if s == nil || s.Root == nil {
		return nil
	}
	return s.Root.find(match)
}

func (n *Node) find(match func(*Node) bool) *Node {
	if match(n) {
		return n
	}
	for _, c := range n.Children {
		if found := c.find(match); found != nil {
			return found
		}
	}
	return nil
}

// Encode writes the snapshot as indented JSON.
func (s *Snapshot) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Decode reads a snapshot written by Encode.
func Decode(r io.Reader) (*Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return &s, nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
