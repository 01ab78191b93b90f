package reconciler

import (
	"maps"
	"reflect"
	"slices"

	"github.com/vango-dev/fibers/pkg/element"
	"github.com/vango-dev/fibers/pkg/fiber"
)

// applyProps patches node from old to next and returns the number of
// bridge calls made. Stale listeners are removed first, then vanished
// plain properties are cleared, changed ones set, and new listeners added.
// Keys are visited in sorted order so the host sees a stable sequence.
func (r *Root) applyProps(node fiber.Node, old, next element.Props) int {
	n := 0
	oldKeys := slices.Sorted(maps.Keys(old))
	nextKeys := slices.Sorted(maps.Keys(next))

	for _, key := range oldKeys {
		if !r.isListenerKey(key) {
			continue
		}
		if v, ok := next[key]; !ok || !propsEqual(old[key], v) {
			event, phase := element.SplitEventKey(key)
			r.bridge.RemoveListener(node, event, handlerOf(old[key]), phase)
			n++
		}
	}

	for _, key := range oldKeys {
		if !isPlainKey(key) {
			continue
		}
		if _, ok := next[key]; !ok {
			r.bridge.ClearProperty(node, key)
			n++
		}
	}

	for _, key := range nextKeys {
		if !isPlainKey(key) {
			continue
		}
		if v, ok := old[key]; !ok || !propsEqual(v, next[key]) {
			r.bridge.SetProperty(node, key, next[key])
			n++
		}
	}

	for _, key := range nextKeys {
		if !r.isListenerKey(key) {
			continue
		}
		if v, ok := old[key]; !ok || !propsEqual(v, next[key]) {
			event, phase := element.SplitEventKey(key)
			r.bridge.AddListener(node, event, handlerOf(next[key]), phase)
			n++
		}
	}

	return n
}

// isListenerKey reports whether key needs a per-node listener: an event
// key not served by delegation.
func (r *Root) isListenerKey(key string) bool {
	return element.IsEventKey(key) && !r.delegated(key)
}

func isPlainKey(key string) bool {
	return key != element.ChildrenKey && !element.IsEventKey(key)
}

func handlerOf(v any) *element.Handler {
	h, _ := element.ToHandler(v)
	return h
}

// propsEqual compares two prop values by value for scalars and by
// identity for handlers, maps, slices and funcs.
func propsEqual(a, b any) bool {
	// Fast path for common types
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case *element.Handler:
		bv, ok := b.(*element.Handler)
		return ok && av == bv
	case nil:
		return b == nil
	}

	if b == nil {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Func:
		// Closures are never comparable; treat every func as changed.
		return false
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Len() == vb.Len() && (va.Len() == 0 || va.Pointer() == vb.Pointer())
	}
	if va.Comparable() && vb.Comparable() {
		return va.Equal(vb)
	}
	return false
}
