package element

import (
	"testing"

	"github.com/vango-dev/fibers/internal/errors"
)

func TestCreateElementHost(t *testing.T) {
	el, err := CreateElement("div", Props{"id": "app"}, "hello", H("span", nil))
	if err != nil {
		t.Fatalf("CreateElement() error = %v", err)
	}

	if el.Kind() != KindHost {
		t.Errorf("Kind = %v, want Host", el.Kind())
	}
	if el.Tag.Name() != "div" {
		t.Errorf("Tag = %v, want div", el.Tag.Name())
	}
	if el.Props["id"] != "app" {
		t.Errorf("id = %v, want app", el.Props["id"])
	}

	kids := el.Children()
	if len(kids) != 2 {
		t.Fatalf("len(children) = %d, want 2", len(kids))
	}
	if kids[0].Kind() != KindText || kids[0].Props[NodeValueKey] != "hello" {
		t.Errorf("child 0 = %+v, want text hello", kids[0])
	}
	if kids[1].Tag.Name() != "span" {
		t.Errorf("child 1 tag = %v, want span", kids[1].Tag.Name())
	}
}

func TestCreateElementCopiesProps(t *testing.T) {
	props := Props{"class": "a"}
	el := H("div", props)
	props["class"] = "b"

	if el.Props["class"] != "a" {
		t.Errorf("class = %v, want a (props must be copied)", el.Props["class"])
	}
}

func TestCreateElementPrimitiveChildren(t *testing.T) {
	el := H("p", nil, 1, int64(2), 2.5, true, nil, (*Element)(nil), []*Element{Text("x"), nil})

	want := []string{"1", "2", "2.5", "true", "x"}
	kids := el.Children()
	if len(kids) != len(want) {
		t.Fatalf("len(children) = %d, want %d", len(kids), len(want))
	}
	for i, w := range want {
		if got := kids[i].Props[NodeValueKey]; got != w {
			t.Errorf("child %d = %v, want %v", i, got, w)
		}
	}
}

func TestCreateElementMalformedChild(t *testing.T) {
	_, err := CreateElement("div", nil, make(chan int))
	if err == nil {
		t.Fatal("expected error for channel child")
	}
	if !errors.HasCode(err, "E101") {
		t.Errorf("error = %v, want E101", err)
	}
}

func TestCreateElementInvalidTag(t *testing.T) {
	tests := []struct {
		name string
		tag  any
	}{
		{"empty string", ""},
		{"int", 42},
		{"nil component", (*Component)(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateElement(tt.tag, nil)
			if !errors.HasCode(err, "E106") {
				t.Errorf("error = %v, want E106", err)
			}
		})
	}
}

func TestHPanicsOnMalformed(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("H should panic")
		}
		if err, ok := r.(error); !ok || !errors.HasCode(err, "E101") {
			t.Errorf("panic = %v, want E101 error", r)
		}
	}()
	H("div", nil, struct{}{})
}

func TestEventPropsAreWrapped(t *testing.T) {
	calls := 0
	el := H("button", Props{
		"onClick":   func() { calls++ },
		"onKeyDown": func(Event) { calls++ },
		"onBlur":    nil,
	})

	click, ok := el.Props["onClick"].(*Handler)
	if !ok {
		t.Fatalf("onClick = %T, want *Handler", el.Props["onClick"])
	}
	click.Invoke(nil)
	el.Props["onKeyDown"].(*Handler).Invoke(nil)
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if _, ok := el.Props["onBlur"]; ok {
		t.Error("nil handler should be dropped")
	}

	again := H("button", Props{"onClick": click})
	if again.Props["onClick"] != click {
		t.Error("*Handler values must keep their identity")
	}
}

func TestEventPropWrongType(t *testing.T) {
	_, err := CreateElement("button", Props{"onClick": "alert(1)"})
	if !errors.HasCode(err, "E101") {
		t.Errorf("error = %v, want E101", err)
	}
}

func TestComponentIdentity(t *testing.T) {
	render := func(Scope, Props) *Element { return nil }
	comp := Define("Widget", render)

	a := H(comp, nil)
	b := H(comp, Props{"x": 1})
	if !a.Tag.Same(b.Tag) {
		t.Error("same *Component should give the same tag")
	}
	if a.Kind() != KindComponent {
		t.Errorf("Kind = %v, want Component", a.Kind())
	}

	other := Define("Widget", render)
	if a.Tag.Same(H(other, nil).Tag) {
		t.Error("distinct *Component values must not compare the same")
	}

	if H("div", nil).Tag.Same(a.Tag) {
		t.Error("host and component tags must differ")
	}
}

func makeRender(label string) RenderFunc {
	return func(Scope, Props) *Element { return Text(label) }
}

func TestBareFuncComponentIdentity(t *testing.T) {
	first := H(makeRender("a"), nil)
	second := H(makeRender("b"), nil)

	if !first.Tag.Same(second.Tag) {
		t.Error("closures of the same function literal should share a component identity")
	}
	if got := second.Tag.Render(nil, nil).Props[NodeValueKey]; got != "b" {
		t.Errorf("render = %v, want the latest closure's output b", got)
	}
}

func TestValidate(t *testing.T) {
	if kids, err := Validate(Props{}); err != nil || kids != nil {
		t.Errorf("Validate(empty) = %v, %v", kids, err)
	}
	if _, err := Validate(Props{ChildrenKey: []string{"a"}}); !errors.HasCode(err, "E101") {
		t.Errorf("Validate([]string) = %v, want E101", err)
	}
	if _, err := Validate(Props{ChildrenKey: []*Element{nil}}); !errors.HasCode(err, "E101") {
		t.Errorf("Validate(nil child) = %v, want E101", err)
	}
	if _, err := Validate(Props{ChildrenKey: []*Element{{}}}); !errors.HasCode(err, "E101") {
		t.Errorf("Validate(tagless child) = %v, want E101", err)
	}
}

func TestEventKeys(t *testing.T) {
	tests := []struct {
		key     string
		isEvent bool
		native  string
	}{
		{"onClick", true, "click"},
		{"onclick", true, "click"},
		{"ONKEYDOWN", true, "keydown"},
		{"onClickCapture", true, "clickcapture"},
		{"on", false, ""},
		{"one", true, "e"},
		{"class", false, ""},
	}
	for _, tt := range tests {
		if got := IsEventKey(tt.key); got != tt.isEvent {
			t.Errorf("IsEventKey(%q) = %v, want %v", tt.key, got, tt.isEvent)
		}
		if tt.isEvent {
			if got := NativeEventName(tt.key); got != tt.native {
				t.Errorf("NativeEventName(%q) = %q, want %q", tt.key, got, tt.native)
			}
		}
	}
}

func TestSplitEventKey(t *testing.T) {
	tests := []struct {
		key   string
		event string
		phase Phase
	}{
		{"onClick", "click", PhaseBubble},
		{"onClickCapture", "click", PhaseCapture},
		{"onKeyDownCapture", "keydown", PhaseCapture},
		{"onCapture", "capture", PhaseBubble},
		{"onscroll", "scroll", PhaseBubble},
	}
	for _, tt := range tests {
		event, phase := SplitEventKey(tt.key)
		if event != tt.event || phase != tt.phase {
			t.Errorf("SplitEventKey(%q) = %q, %v, want %q, %v", tt.key, event, phase, tt.event, tt.phase)
		}
	}
}
