// Package demo holds the sample components mounted by the fibers CLI and
// the inspection server.
package demo

import (
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/vango-dev/fibers/pkg/element"
	"github.com/vango-dev/fibers/pkg/events"
	"github.com/vango-dev/fibers/pkg/reconciler"
)

var h = element.H

// Counter renders a heading that counts clicks, starting at 1.
var Counter = element.Define("Counter", func(s element.Scope, _ element.Props) *element.Element {
	count, setCount := reconciler.UseState(s, 1)
	return h("h1", element.Props{
		"id":      "count",
		"onClick": func() { setCount(func(c int) int { return c + 1 }) },
	}, "Count: "+strconv.Itoa(count))
})

// TodoList renders an input, an add button and the list of added items.
// Enter in the input also adds the draft.
var TodoList = element.Define("TodoList", func(s element.Scope, p element.Props) *element.Element {
	items, setItems := reconciler.UseState(s, []string(nil))
	draft, setDraft := reconciler.UseState(s, "")

	add := func() {
		if draft == "" {
			return
		}
		setItems(func(xs []string) []string { return append(slices.Clip(xs), draft) })
		setDraft(reconciler.Set(""))
	}

	lis := make([]*element.Element, len(items))
	for i, item := range items {
		lis[i] = h("li", nil, item)
	}

	title, _ := p["title"].(string)
	if title == "" {
		title = "Todo"
	}

	return h("section", element.Props{"id": "todo"},
		h("h2", nil, title),
		h("input", element.Props{
			"id":    "draft",
			"value": draft,
			"onInput": func(e element.Event) {
				v := inputValue(e)
				setDraft(reconciler.Set(v))
			},
			"onKeyDown": func(e element.Event) {
				if keyName(e) == "Enter" {
					add()
				}
			},
		}),
		h("button", element.Props{"id": "add", "onClick": add}, "Add"),
		h("ul", element.Props{"id": "items"}, lis),
		h("p", element.Props{"id": "summary"}, fmt.Sprintf("%d items", len(items))),
	)
})

// App nests a Counter and a TodoList.
var App = element.Define("App", func(element.Scope, element.Props) *element.Element {
	return h("main", element.Props{"id": "app"},
		h(Counter, nil),
		h(TodoList, element.Props{"title": "Things"}),
	)
})

func inputValue(e element.Event) string {
	switch ev := e.(type) {
	case *events.SyntheticEvent:
		return ev.Value
	case interface{ InputValue() (string, bool) }:
		v, _ := ev.InputValue()
		return v
	}
	return ""
}

func keyName(e element.Event) string {
	switch ev := e.(type) {
	case *events.SyntheticEvent:
		return ev.Key
	case interface{ KeyName() (string, bool) }:
		k, _ := ev.KeyName()
		return k
	}
	return ""
}

var apps = map[string]*element.Component{
	"counter": Counter,
	"todo":    TodoList,
	"app":     App,
}

// Lookup returns a root element for the named demo.
func Lookup(name string) (*element.Element, bool) {
	c, ok := apps[name]
	if !ok {
		return nil, false
	}
	return h(c, nil), true
}

// Names returns the demo names, sorted.
func Names() []string {
	names := make([]string, 0, len(apps))
	for name := range apps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
