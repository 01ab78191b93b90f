package reconciler

import (
	"fmt"
	"testing"

	"github.com/vango-dev/fibers/internal/errors"
	"github.com/vango-dev/fibers/pkg/element"
	"github.com/vango-dev/fibers/pkg/fiber"
	"github.com/vango-dev/fibers/pkg/idle"
	"github.com/vango-dev/fibers/pkg/memhost"
	"github.com/vango-dev/fibers/pkg/protocol"
)

var h = element.H

type fixture struct {
	doc       *memhost.Document
	container *memhost.Node
	sched     *idle.Manual
	root      *Root
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	doc := memhost.New()
	container := doc.CreateContainer("root")
	sched := idle.NewManual()
	root := New(container, doc, sched, opts...)
	doc.Drain()
	return &fixture{doc: doc, container: container, sched: sched, root: root}
}

func (fx *fixture) render(t *testing.T, el *element.Element) {
	t.Helper()
	fx.root.Render(el)
	if err := fx.root.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
}

func (fx *fixture) child(i int) *memhost.Node {
	return fx.container.Children()[i]
}

func TestTreeShape(t *testing.T) {
	fx := newFixture(t)
	fx.render(t, h("div", element.Props{"id": "parent"},
		h("p", nil, "A"),
		h("span", nil, "B"),
	))

	if n := len(fx.container.Children()); n != 1 {
		t.Fatalf("container has %d children, want 1", n)
	}
	parent := fx.child(0)
	kids := parent.Children()
	if len(kids) != 2 {
		t.Fatalf("parent has %d children, want 2", len(kids))
	}
	if kids[0].Tag() != "p" || kids[1].Tag() != "span" {
		t.Errorf("children = [%s %s], want [p span]", kids[0].Tag(), kids[1].Tag())
	}
	if got := fx.container.HTML(); got != `<div id="root"><div id="parent"><p>A</p><span>B</span></div></div>` {
		t.Errorf("HTML = %s", got)
	}
}

func TestRenderTwiceIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	tree := func() *element.Element {
		return h("ul", element.Props{"className": "list", "tabIndex": 1},
			h("li", nil, "one"),
			h("li", element.Props{"hidden": false}, "two"),
		)
	}

	el := tree()
	fx.render(t, el)
	fx.doc.Drain()

	fx.render(t, el)
	if got := fx.doc.Drain(); len(got) != 0 {
		t.Errorf("same element: mutations = %v, want none", got)
	}

	fx.render(t, tree())
	if got := fx.doc.Drain(); len(got) != 0 {
		t.Errorf("equal element: mutations = %v, want none", got)
	}
}

func TestUpdatePreservesHostNode(t *testing.T) {
	fx := newFixture(t)
	fx.render(t, h("div", element.Props{"id": "a"}))
	before := fx.child(0)

	fx.render(t, h("div", element.Props{"id": "b"}))
	after := fx.child(0)

	if before != after {
		t.Error("host node was replaced, want the same node")
	}
	if v, _ := after.Prop("id"); v != "b" {
		t.Errorf("id = %v, want b", v)
	}

	f := fx.root.Current().Child
	if f.EffectTag != fiber.EffectUpdate {
		t.Errorf("EffectTag = %s, want UPDATE", f.EffectTag)
	}
	if f.HostNode != f.Alternate.HostNode {
		t.Error("UPDATE fiber should carry its alternate's host node")
	}
}

func TestTypeChangeReplacesNode(t *testing.T) {
	fx := newFixture(t)
	fx.render(t, h("div", nil, h("p", nil, "old")))
	div := fx.child(0)
	oldNode := div.Children()[0]

	fx.render(t, h("div", nil, h("section", nil, "new")))

	kids := div.Children()
	if len(kids) != 1 || kids[0].Tag() != "section" {
		t.Fatalf("children = %v, want [section]", kids)
	}
	if oldNode.Parent() != nil {
		t.Error("old node should be detached")
	}

	dels := fx.root.Deletions()
	if len(dels) != 1 || dels[0].Tag.Name() != "p" {
		t.Fatalf("Deletions = %v, want [p]", dels)
	}
	if dels[0].EffectTag != fiber.EffectDeletion {
		t.Errorf("EffectTag = %s, want DELETION", dels[0].EffectTag)
	}
	if kid := fx.root.Current().Child.Child; kid.EffectTag != fiber.EffectPlacement {
		t.Errorf("new fiber EffectTag = %s, want PLACEMENT", kid.EffectTag)
	}
}

func TestRemovedChildrenAreDeleted(t *testing.T) {
	fx := newFixture(t)
	fx.render(t, h("ul", nil, h("li", nil, "1"), h("li", nil, "2"), h("li", nil, "3")))
	fx.render(t, h("ul", nil, h("li", nil, "1")))

	if got := fx.container.HTML(); got != `<div id="root"><ul><li>1</li></ul></div>` {
		t.Errorf("HTML = %s", got)
	}
	if n := len(fx.root.Deletions()); n != 2 {
		t.Errorf("Deletions = %d, want 2", n)
	}
}

func TestDeletionListScope(t *testing.T) {
	fx := newFixture(t)
	passes := []*element.Element{
		h("div", nil, h("a", nil), h("b", nil), h("c", nil)),
		h("div", nil, h("a", nil), h("i", nil)),
		h("section", nil, h("a", nil)),
		h("section", nil),
		h("section", nil, h("b", nil), h("b", nil)),
	}
	for i, el := range passes {
		fx.render(t, el)

		committed := map[*fiber.Fiber]bool{}
		for f := range fx.root.Current().Walk() {
			committed[f] = true
		}
		for _, d := range fx.root.Deletions() {
			if d.EffectTag != fiber.EffectDeletion {
				t.Errorf("pass %d: deleted %s has EffectTag %s", i, d.Name(), d.EffectTag)
			}
			if committed[d] {
				t.Errorf("pass %d: deleted %s is in the committed tree", i, d.Name())
			}
		}
	}
	if got := fx.container.HTML(); got != `<div id="root"><section><b></b><b></b></section></div>` {
		t.Errorf("HTML = %s", got)
	}
}

func TestTextUpdateKeepsNode(t *testing.T) {
	fx := newFixture(t)
	fx.render(t, h("h1", nil, "Count: 1"))
	text := fx.child(0).Children()[0]
	fx.doc.Drain()

	fx.render(t, h("h1", nil, "Count: 2"))
	if fx.child(0).Children()[0] != text {
		t.Error("text node was replaced")
	}
	if text.Text() != "Count: 2" {
		t.Errorf("Text = %q, want %q", text.Text(), "Count: 2")
	}
	muts := fx.doc.Drain()
	if len(muts) != 1 || muts[0].Op != protocol.OpSetProperty || muts[0].Key != element.NodeValueKey {
		t.Errorf("mutations = %v, want one nodeValue update", muts)
	}
}

func TestRemovedPropertyIsCleared(t *testing.T) {
	fx := newFixture(t)
	fx.render(t, h("input", element.Props{"value": "x", "title": "t"}))
	fx.render(t, h("input", element.Props{"value": "x"}))

	v, ok := fx.child(0).Prop("title")
	if !ok || v != "" {
		t.Errorf("title = %v, %v, want empty string", v, ok)
	}
}

func TestListenerDiff(t *testing.T) {
	delegated := func(key string) bool { return key == "onClick" }
	fx := newFixture(t, WithDelegatedEvents(delegated))

	h1 := element.On(func(element.Event) {})
	h2 := element.On(func(element.Event) {})
	click := element.On(func(element.Event) {})

	fx.render(t, h("div", element.Props{"onScroll": h1, "onClick": click}))
	node := fx.child(0)
	if got := node.Listeners("scroll", element.PhaseBubble); len(got) != 1 || got[0] != h1 {
		t.Errorf("scroll listeners = %v, want [h1]", got)
	}
	if got := node.Listeners("click", element.PhaseBubble); len(got) != 0 {
		t.Errorf("delegated click got %d native listeners, want 0", len(got))
	}

	fx.render(t, h("div", element.Props{"onScroll": h2, "onFocusCapture": h1}))
	if got := node.Listeners("scroll", element.PhaseBubble); len(got) != 1 || got[0] != h2 {
		t.Errorf("scroll listeners = %v, want [h2]", got)
	}
	if got := node.Listeners("focus", element.PhaseCapture); len(got) != 1 {
		t.Errorf("focus capture listeners = %d, want 1", len(got))
	}

	fx.render(t, h("div", nil))
	if n := node.ListenerCount(); n != 0 {
		t.Errorf("ListenerCount = %d, want 0", n)
	}
}

func TestListenerDiffOrder(t *testing.T) {
	fx := newFixture(t)
	old := element.On(func(element.Event) {})
	fx.render(t, h("div", element.Props{"onScroll": old, "title": "a", "lang": "en"}))
	fx.doc.Drain()

	fx.render(t, h("div", element.Props{"onScroll": element.On(func(element.Event) {}), "title": "b"}))

	var ops []protocol.MutationOp
	for _, m := range fx.doc.Drain() {
		ops = append(ops, m.Op)
	}
	want := []protocol.MutationOp{
		protocol.OpRemoveListener,
		protocol.OpClearProperty,
		protocol.OpSetProperty,
		protocol.OpAddListener,
	}
	if fmt.Sprint(ops) != fmt.Sprint(want) {
		t.Errorf("ops = %v, want %v", ops, want)
	}
}

func TestResumeYields(t *testing.T) {
	fx := newFixture(t)
	// root, div, p, "A", span, "B"
	fx.root.Render(h("div", nil, h("p", nil, "A"), h("span", nil, "B")))

	var statuses []Status
	for i := 0; i < 5; i++ {
		status, err := fx.root.Resume(idle.Steps(2))
		if err != nil {
			t.Fatalf("Resume() error = %v", err)
		}
		statuses = append(statuses, status)
		if status == Exhausted {
			break
		}
		if fx.root.Current() != nil {
			t.Fatal("tree committed before the pass finished")
		}
		if len(fx.container.Children()) != 0 {
			t.Fatal("host tree mutated before commit")
		}
	}

	want := []Status{Suspended, Suspended, Exhausted}
	if fmt.Sprint(statuses) != fmt.Sprint(want) {
		t.Errorf("statuses = %v, want %v", statuses, want)
	}
	if fx.root.Pending() {
		t.Error("pass should be committed")
	}
	if len(fx.container.Children()) != 1 {
		t.Error("tree should be placed after commit")
	}
}

func TestIdleTicksDriveThePass(t *testing.T) {
	fx := newFixture(t)
	fx.root.Render(h("div", nil, h("p", nil, "A"), h("span", nil, "B")))

	fx.sched.TickN(2, func() fiber.Deadline { return idle.Steps(2) })
	if fx.root.Current() != nil {
		t.Fatal("committed after 4 of 6 units")
	}
	fx.sched.Tick(idle.Steps(2))
	if fx.root.Current() == nil {
		t.Fatal("not committed after 6 units")
	}
	if fx.sched.Pending() != 1 {
		t.Errorf("Pending = %d, want the loop re-armed", fx.sched.Pending())
	}
}

func TestRenderSupersedesPassInFlight(t *testing.T) {
	fx := newFixture(t)
	fx.root.Render(h("div", nil, h("p", nil, "stale")))
	if status, _ := fx.root.Resume(idle.Steps(1)); status != Suspended {
		t.Fatalf("status = %s, want Suspended", status)
	}

	fx.render(t, h("main", nil, "fresh"))
	if got := fx.container.HTML(); got != `<div id="root"><main>fresh</main></div>` {
		t.Errorf("HTML = %s", got)
	}
}

func TestAbandonedPassesLeaveNoHostNodes(t *testing.T) {
	fx := newFixture(t)
	tree := func() *element.Element {
		return h("div", nil, h("p", nil, "a"), h("p", nil, "b"))
	}
	fx.render(t, tree())
	fx.doc.Drain()
	before := fx.doc.Len()

	for i := 0; i < 20; i++ {
		fx.root.Render(h("ul", nil, h("li", nil, fmt.Sprint(i)), h("li", nil, "x")))
		if status, _ := fx.root.Resume(idle.Steps(4)); status != Suspended {
			t.Fatalf("status = %s, want Suspended", status)
		}
	}
	fx.render(t, tree())

	if got := fx.doc.Len(); got != before {
		t.Errorf("Len() = %d, want %d", got, before)
	}
	if got := fx.doc.Drain(); len(got) != 0 {
		t.Errorf("mutations = %v, want none", got)
	}
}

func TestMalformedChildAbortsPass(t *testing.T) {
	fx := newFixture(t)
	fx.render(t, h("div", nil, "ok"))
	good := fx.root.Current()

	bad := &element.Element{
		Tag:   element.HostTag("div"),
		Props: element.Props{element.ChildrenKey: "oops"},
	}
	fx.root.Render(bad)
	err := fx.root.Flush()
	if !errors.HasCode(err, "E101") {
		t.Fatalf("Flush() error = %v, want E101", err)
	}
	if fx.root.WorkInProgress() != nil {
		t.Error("work in progress should be discarded")
	}
	if fx.root.Current() != good {
		t.Error("current should be the last good commit")
	}
}

func TestComponentPanicAbortsPass(t *testing.T) {
	fx := newFixture(t)
	fail := false
	comp := element.Define("Flaky", func(s element.Scope, p element.Props) *element.Element {
		if fail {
			panic("render failed")
		}
		return h("p", nil, "fine")
	})

	fx.render(t, h(comp, nil))
	good := fx.root.Current()
	html := fx.container.HTML()

	fail = true
	fx.root.Render(h(comp, nil))
	func() {
		defer func() {
			if r := recover(); r != "render failed" {
				t.Errorf("recover() = %v, want the component panic", r)
			}
		}()
		_ = fx.root.Flush()
	}()

	if fx.root.WorkInProgress() != nil {
		t.Error("work in progress should be discarded")
	}
	if fx.root.Current() != good || fx.container.HTML() != html {
		t.Error("current tree should be untouched")
	}

	fail = false
	fx.render(t, h(comp, nil))
	if fx.root.Current() == good {
		t.Error("a new render should commit after the failure")
	}
}

func TestCommitWithoutHostParentPanics(t *testing.T) {
	doc := memhost.New()
	root := New(nil, doc, nil)
	root.Render(h("div", nil))

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.HasCode(err, "E104") {
			t.Errorf("recover() = %v, want E104", r)
		}
	}()
	_ = root.Flush()
}

func TestOnCommit(t *testing.T) {
	var commits []*fiber.Fiber
	fx := newFixture(t, WithOnCommit(func(current *fiber.Fiber) {
		commits = append(commits, current)
	}))
	fx.render(t, h("div", nil))
	fx.render(t, h("div", nil))

	if len(commits) != 2 || commits[1] != fx.root.Current() {
		t.Errorf("commits = %d, want 2 ending at current", len(commits))
	}
}

func TestAlternateChainIsTrimmed(t *testing.T) {
	fx := newFixture(t)
	for i := 0; i < 3; i++ {
		fx.render(t, h("div", element.Props{"id": i}))
	}
	for f := range fx.root.Current().Walk() {
		if f.Alternate != nil && f.Alternate.Alternate != nil {
			t.Errorf("%s keeps a two-deep alternate chain", f.Name())
		}
	}
}

func TestNodeFiberIsRefreshedOnUpdate(t *testing.T) {
	fx := newFixture(t)
	fx.render(t, h("button", element.Props{"id": 1}))
	fx.render(t, h("button", element.Props{"id": 2}))

	node := fx.child(0)
	if got := fx.doc.AssociatedFiber(node); got != fx.root.Current().Child {
		t.Error("host node should point at the committed fiber")
	}
}

func TestStop(t *testing.T) {
	fx := newFixture(t)
	fx.root.Render(h("div", nil))
	fx.root.Stop()

	if fx.root.Pending() {
		t.Error("Stop should abandon the pass")
	}
	fx.sched.Tick(idle.Unbounded())
	if fx.sched.Pending() != 0 {
		t.Error("stopped root should not re-arm")
	}
}

func TestPropsEqual(t *testing.T) {
	hd := element.On(func(element.Event) {})
	m := map[string]int{"a": 1}
	s := []int{1, 2}
	type pair struct{ a, b int }

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"strings", "a", "a", true},
		{"different types", 1, "1", false},
		{"handler identity", hd, hd, true},
		{"different handlers", hd, element.On(func(element.Event) {}), false},
		{"nil", nil, nil, true},
		{"nil vs value", "x", nil, false},
		{"same map", m, m, true},
		{"equal maps", m, map[string]int{"a": 1}, false},
		{"same slice", s, s, true},
		{"funcs", func() {}, func() {}, false},
		{"structs", pair{1, 2}, pair{1, 2}, true},
		{"uint", uint(3), uint(3), true},
	}
	for _, tt := range tests {
		if got := propsEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: propsEqual = %v, want %v", tt.name, got, tt.want)
		}
	}
}
