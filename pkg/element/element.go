package element

import (
	"fmt"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/vango-dev/fibers/internal/errors"
)

const (
	// ChildrenKey is the structural property holding the ordered child list.
	ChildrenKey = "children"

	// TextTag is the host tag used for text elements.
	TextTag = "#text"

	// NodeValueKey holds a text element's content.
	NodeValueKey = "nodeValue"
)

// Kind is the element type discriminator.
type Kind uint8

const (
	KindHost      Kind = iota // <div>, <button>, etc.
	KindText                  // Text node
	KindComponent             // Component function
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
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

// Props holds attributes, event handlers and the children list.
type Props map[string]any

// Children returns the element children stored under ChildrenKey.
// It returns nil when the key is absent or holds something else.
func (p Props) Children() []*Element {
	children, _ := p[ChildrenKey].([]*Element)
	return children
}

// Scope is handed to a component while it renders. It is only valid for
// the duration of that render.
type Scope interface {
	// RequestState returns the hook at the next hook position and a setter
	// that enqueues an update function and schedules a new render pass.
	RequestState(initial any) (any, func(update func(any) any))
}

// RenderFunc renders a component to exactly one element. A nil return
// renders nothing.
type RenderFunc func(s Scope, props Props) *Element

// Component is a named render function. Two elements have the same
// component type exactly when they reference the same *Component.
type Component struct {
	Name   string
	Render RenderFunc
}

// Define creates a component.
func Define(name string, render RenderFunc) *Component {
	return &Component{Name: name, Render: render}
}

// Tag identifies what an element or fiber renders: a host tag name or a
// component.
type Tag struct {
	name   string
	comp   *Component
	render RenderFunc
}

// HostTag returns the tag for a host element.
func HostTag(name string) Tag {
	return Tag{name: name}
}

// ComponentTag returns the tag for a component.
func ComponentTag(c *Component) Tag {
	return Tag{name: c.Name, comp: c, render: c.Render}
}

// Kind returns the kind of element this tag produces.
func (t Tag) Kind() Kind {
	switch {
	case t.comp != nil:
		return KindComponent
	case t.name == TextTag:
		return KindText
	default:
		return KindHost
	}
}

// IsComponent returns true if the tag refers to a component.
func (t Tag) IsComponent() bool {
	return t.comp != nil
}

// Name returns the host tag name, or the component name.
func (t Tag) Name() string {
	return t.name
}

// Component returns the component, or nil for host tags.
func (t Tag) Component() *Component {
	return t.comp
}

// Render invokes the component render function.
func (t Tag) Render(s Scope, props Props) *Element {
	return t.render(s, props)
}

// Same reports whether two tags denote the same host tag or component.
func (t Tag) Same(o Tag) bool {
	if t.comp != nil || o.comp != nil {
		return t.comp == o.comp
	}
	return t.name == o.name
}

// String returns a debug representation.
func (t Tag) String() string {
	if t.comp != nil {
		return "<" + t.name + " component>"
	}
	return t.name
}

// Element is an immutable description of a desired tree node.
type Element struct {
	Tag   Tag
	Props Props
}

// Kind returns the element kind.
func (e *Element) Kind() Kind {
	return e.Tag.Kind()
}

// Children returns the element's children.
func (e *Element) Children() []*Element {
	if e == nil {
		return nil
	}
	return e.Props.Children()
}

// funcComponents gives bare render functions a stable component identity,
// keyed by code pointer.
var funcComponents sync.Map // uintptr -> *Component

func componentForFunc(fn RenderFunc) *Component {
	pc := reflect.ValueOf(fn).Pointer()
	if c, ok := funcComponents.Load(pc); ok {
		return c.(*Component)
	}
	name := "anonymous"
	if f := runtime.FuncForPC(pc); f != nil {
		name = f.Name()
		if i := strings.LastIndex(name, "."); i >= 0 && !strings.HasPrefix(name[i+1:], "func") {
			name = name[i+1:]
		}
	}
	c, _ := funcComponents.LoadOrStore(pc, &Component{Name: name, Render: fn})
	return c.(*Component)
}

// tagOf resolves a tag argument.
func tagOf(tag any) (Tag, error) {
	switch v := tag.(type) {
	case string:
		if v == "" {
			return Tag{}, errors.New("E106").WithDetail("empty tag name")
		}
		return HostTag(v), nil
	case Tag:
		return v, nil
	case *Component:
		if v == nil || v.Render == nil {
			return Tag{}, errors.New("E106").WithDetail("nil component")
		}
		return ComponentTag(v), nil
	case RenderFunc:
		if v == nil {
			return Tag{}, errors.New("E106").WithDetail("nil render function")
		}
		c := componentForFunc(v)
		return Tag{name: c.Name, comp: c, render: v}, nil
	case func(Scope, Props) *Element:
		if v == nil {
			return Tag{}, errors.New("E106").WithDetail("nil render function")
		}
		return tagOf(RenderFunc(v))
	default:
		return Tag{}, errors.New("E106").WithDetailf("tag has type %T", tag)
	}
}

// CreateElement builds an element from a tag (string, *Component, Tag or
// render function), a property bag and a list of children. The property
// bag is copied; the caller may reuse it.
func CreateElement(tag any, props Props, children ...any) (*Element, error) {
	t, err := tagOf(tag)
	if err != nil {
		return nil, err
	}

	out := make(Props, len(props)+1)
	for key, value := range props {
		if key == ChildrenKey {
			continue
		}
		if IsEventKey(key) {
			h, ok := ToHandler(value)
			if !ok {
				return nil, errors.New("E101").
					WithDetailf("event property %q has type %T", key, value)
			}
			if h == nil {
				continue
			}
			out[key] = h
			continue
		}
		out[key] = value
	}

	kids := make([]*Element, 0, len(children))
	for i, child := range children {
		var err error
		kids, err = appendChild(kids, i, child)
		if err != nil {
			if t.IsComponent() {
				err.(*errors.Error).WithComponent(t.Name())
			}
			return nil, err
		}
	}
	out[ChildrenKey] = kids

	return &Element{Tag: t, Props: out}, nil
}

// appendChild converts a single child argument.
func appendChild(kids []*Element, index int, child any) ([]*Element, error) {
	switch v := child.(type) {
	case nil:
		return kids, nil
	case *Element:
		if v == nil {
			return kids, nil
		}
		return append(kids, v), nil
	case []*Element:
		for _, c := range v {
			if c != nil {
				kids = append(kids, c)
			}
		}
		return kids, nil
	case string:
		return append(kids, Text(v)), nil
	case bool:
		return append(kids, Text(strconv.FormatBool(v))), nil
	case int:
		return append(kids, Text(strconv.Itoa(v))), nil
	case int64:
		return append(kids, Text(strconv.FormatInt(v, 10))), nil
	case int32, int16, int8, uint, uint64, uint32, uint16, uint8:
		return append(kids, Text(fmt.Sprintf("%d", v))), nil
	case float64:
		return append(kids, Text(strconv.FormatFloat(v, 'f', -1, 64))), nil
	case float32:
		return append(kids, Text(strconv.FormatFloat(float64(v), 'f', -1, 32))), nil
	default:
		return nil, errors.New("E101").WithDetailf("child %d has type %T", index, child)
	}
}

// H is CreateElement for tree literals. It panics with the E101/E106
// error on a malformed description.
func H(tag any, props Props, children ...any) *Element {
	el, err := CreateElement(tag, props, children...)
	if err != nil {
		panic(err)
	}
	return el
}

// Text creates a text element.
func Text(value string) *Element {
	return &Element{
		Tag: HostTag(TextTag),
		Props: Props{
			NodeValueKey: value,
			ChildrenKey:  []*Element{},
		},
	}
}

// Validate checks a child list taken from an element built by hand rather
// than by CreateElement.
func Validate(props Props) ([]*Element, error) {
	raw, ok := props[ChildrenKey]
	if !ok || raw == nil {
		return nil, nil
	}
	children, ok := raw.([]*Element)
	if !ok {
		return nil, errors.New("E101").WithDetailf("children has type %T, want []*Element", raw)
	}
	for i, c := range children {
		if c == nil {
			return nil, errors.New("E101").WithDetailf("child %d is nil", i)
		}
		if c.Tag.name == "" && c.Tag.comp == nil {
			return nil, errors.New("E101").WithDetailf("child %d has no tag", i)
		}
	}
	return children, nil
}
