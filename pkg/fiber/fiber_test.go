package fiber

import (
	"slices"
	"testing"

	"github.com/vango-dev/fibers/pkg/element"
)

// link builds parent/child/sibling links for a test tree.
func link(parent *Fiber, children ...*Fiber) *Fiber {
	var prev *Fiber
	for i, c := range children {
		c.Parent = parent
		if i == 0 {
			parent.Child = c
		} else {
			prev.Sibling = c
		}
		prev = c
	}
	return parent
}

func host(name string) *Fiber {
	return &Fiber{Kind: KindHost, Tag: element.HostTag(name), HostNode: name}
}

func names(seq func(func(*Fiber) bool)) []string {
	var out []string
	for f := range seq {
		out = append(out, f.Name())
	}
	return out
}

// root
// └── div
//
//	├── comp (no host node)
//	│   └── span
//	└── p
func testTree() (root, div, comp, span, p *Fiber) {
	root = &Fiber{Kind: KindRoot, HostNode: "container"}
	div = host("div")
	comp = &Fiber{Kind: KindComponent, Tag: element.ComponentTag(element.Define("comp", nil))}
	span = host("span")
	p = host("p")
	link(root, div)
	link(div, comp, p)
	link(comp, span)
	return
}

func TestWalkPreOrder(t *testing.T) {
	root, _, _, _, _ := testTree()

	got := names(root.Walk())
	want := []string{"#root", "div", "comp", "span", "p"}
	if !slices.Equal(got, want) {
		t.Errorf("Walk() = %v, want %v", got, want)
	}
}

func TestNextMatchesWalk(t *testing.T) {
	root, _, _, _, _ := testTree()

	var got []string
	for f := root; f != nil; f = f.Next() {
		got = append(got, f.Name())
	}
	want := names(root.Walk())
	if !slices.Equal(got, want) {
		t.Errorf("Next() order = %v, want %v", got, want)
	}
}

func TestChildren(t *testing.T) {
	_, div, _, _, _ := testTree()

	if got, want := names(div.Children()), []string{"comp", "p"}; !slices.Equal(got, want) {
		t.Errorf("Children() = %v, want %v", got, want)
	}

	var empty *Fiber
	if got := names(empty.Children()); len(got) != 0 {
		t.Errorf("nil Children() = %v, want none", got)
	}
}

func TestAncestors(t *testing.T) {
	_, _, _, span, _ := testTree()

	got := names(span.Ancestors())
	want := []string{"span", "comp", "div", "#root"}
	if !slices.Equal(got, want) {
		t.Errorf("Ancestors() = %v, want %v", got, want)
	}

	// Early exit must stop iteration.
	count := 0
	for range span.Ancestors() {
		count++
		break
	}
	if count != 1 {
		t.Errorf("iterations after break = %d, want 1", count)
	}
}

func TestHostParentSkipsComponents(t *testing.T) {
	root, div, _, span, _ := testTree()

	if got := span.HostParent(); got != div {
		t.Errorf("span.HostParent() = %v, want div", got.Name())
	}
	if got := div.HostParent(); got != root {
		t.Errorf("div.HostParent() = %v, want #root", got.Name())
	}
	if got := root.HostParent(); got != nil {
		t.Errorf("root.HostParent() = %v, want nil", got.Name())
	}
	if got := span.Root(); got != root {
		t.Errorf("span.Root() = %v, want #root", got.Name())
	}
}

func TestKindOf(t *testing.T) {
	comp := element.Define("C", func(element.Scope, element.Props) *element.Element { return nil })
	tests := []struct {
		el   *element.Element
		want Kind
	}{
		{element.H("div", nil), KindHost},
		{element.Text("x"), KindText},
		{element.H(comp, nil), KindComponent},
	}
	for _, tt := range tests {
		if got := KindOf(tt.el); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.el.Tag, got, tt.want)
		}
	}
}

func TestNewRoot(t *testing.T) {
	el := element.H("div", nil)
	prev := &Fiber{Kind: KindRoot}
	root := NewRoot("container", el, prev)

	if root.Kind != KindRoot || root.HostNode != "container" || root.Alternate != prev {
		t.Errorf("NewRoot() = %+v", root)
	}
	kids := root.Props.Children()
	if len(kids) != 1 || kids[0] != el {
		t.Errorf("root children = %v, want [el]", kids)
	}
}

func TestEffectTagString(t *testing.T) {
	tests := map[EffectTag]string{
		EffectNone:      "None",
		EffectPlacement: "PLACEMENT",
		EffectUpdate:    "UPDATE",
		EffectDeletion:  "DELETION",
		EffectTag(99):   "Unknown",
	}
	for tag, want := range tests {
		if got := tag.String(); got != want {
			t.Errorf("EffectTag(%d).String() = %q, want %q", tag, got, want)
		}
	}
}
