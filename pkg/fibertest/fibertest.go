package fibertest

import (
	"strings"
	"testing"

	"github.com/vango-dev/fibers/pkg/element"
	"github.com/vango-dev/fibers/pkg/events"
	"github.com/vango-dev/fibers/pkg/memhost"
	"github.com/vango-dev/fibers/pkg/reconciler"
)

// H is element.H, re-exported so tests need one import.
var H = element.H

// Harness is a tree mounted into an in-memory document.
type Harness struct {
	t         testing.TB
	Doc       *memhost.Document
	Container *memhost.Node
	Root      *reconciler.Root

	// Events is nil when mounted with Native().
	Events *events.System
}

type mountConfig struct {
	native bool
	opts   []reconciler.Option
}

// Option configures Mount.
type Option func(*mountConfig)

// Native mounts without event delegation; listeners attach to each node.
func Native() Option {
	return func(c *mountConfig) { c.native = true }
}

// WithOptions passes reconciler options through to reconciler.New.
func WithOptions(opts ...reconciler.Option) Option {
	return func(c *mountConfig) { c.opts = append(c.opts, opts...) }
}

// Mode is a named listener strategy for table tests.
type Mode struct {
	Name    string
	Options []Option
}

// Modes returns the delegated and native mount modes.
func Modes() []Mode {
	return []Mode{
		{Name: "delegated"},
		{Name: "native", Options: []Option{Native()}},
	}
}

// Mount renders el into a container with id "root" and flushes the
// first pass. Render failures fail the test.
func Mount(t testing.TB, el *element.Element, opts ...Option) *Harness {
	t.Helper()
	var cfg mountConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	doc := memhost.New()
	container := doc.CreateContainer("root")
	h := &Harness{t: t, Doc: doc, Container: container}

	ropts := cfg.opts
	if !cfg.native {
		h.Events = events.New(doc)
		h.Events.Listen(container)
		ropts = append([]reconciler.Option{reconciler.WithDelegatedEvents(h.Events.Handles)}, ropts...)
	}
	h.Root = reconciler.New(container, doc, nil, ropts...)
	h.Root.Render(el)
	h.Flush()
	return h
}

// Flush runs any staged pass to completion.
func (h *Harness) Flush() {
	h.t.Helper()
	if err := h.Root.Flush(); err != nil {
		h.t.Fatalf("Flush() error = %v", err)
	}
}

// Find returns the node with the given id, or nil.
func (h *Harness) Find(id string) *memhost.Node {
	return h.Container.FindByID(id)
}

// MustFind returns the node with the given id and fails the test if
// there is none.
func (h *Harness) MustFind(id string) *memhost.Node {
	h.t.Helper()
	n := h.Find(id)
	if n == nil {
		h.t.Fatalf("no node with id %q in %s", id, truncate(h.HTML(), 500))
	}
	return n
}

// Dispatch delivers ev at the node with the given id and flushes. It
// returns false if a listener prevented the default action.
func (h *Harness) Dispatch(id string, ev *memhost.Event) bool {
	h.t.Helper()
	ok := h.Doc.DispatchEvent(h.MustFind(id), ev)
	h.Flush()
	return ok
}

// Click dispatches a click at the node with the given id.
func (h *Harness) Click(id string) bool {
	h.t.Helper()
	return h.Dispatch(id, memhost.NewMouseEvent("click", 0, 0))
}

// Input dispatches an input event carrying value.
func (h *Harness) Input(id, value string) bool {
	h.t.Helper()
	return h.Dispatch(id, memhost.NewInputEvent("input", value))
}

// KeyDown dispatches a keydown event for key.
func (h *Harness) KeyDown(id, key string) bool {
	h.t.Helper()
	return h.Dispatch(id, memhost.NewKeyboardEvent("keydown", key))
}

// HTML returns the container's serialized subtree.
func (h *Harness) HTML() string {
	return h.Container.HTML()
}

// ExpectContains asserts the container HTML contains expected.
func (h *Harness) ExpectContains(expected string) {
	h.t.Helper()
	if html := h.HTML(); !strings.Contains(html, expected) {
		h.t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts the container HTML does not contain unexpected.
func (h *Harness) ExpectNotContains(unexpected string) {
	h.t.Helper()
	if html := h.HTML(); strings.Contains(html, unexpected) {
		h.t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectText asserts the text content of the node with the given id.
func (h *Harness) ExpectText(id, want string) {
	h.t.Helper()
	if got := h.MustFind(id).TextContent(); got != want {
		h.t.Errorf("#%s text = %q, want %q", id, got, want)
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
