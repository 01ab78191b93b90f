// Package fibertest provides helpers for testing components against an
// in-memory host.
//
// Mount renders an element into a fresh memhost document, flushes the
// first pass and returns a Harness. Event helpers dispatch a native
// event at the node with a given id and flush the pass it schedules:
//
//	func TestCounter(t *testing.T) {
//	    h := fibertest.Mount(t, fibertest.H(Counter, nil))
//	    h.Click("count")
//	    h.ExpectText("count", "Count: 2")
//	}
//
// # Delegation
//
// By default supported events are delegated to the container through an
// events.System, the way the server and CLI mount trees. Native() mounts
// with per-node listeners instead, which is useful for checking that a
// component behaves the same either way:
//
//	for _, mode := range fibertest.Modes() {
//	    h := fibertest.Mount(t, el, mode.Options...)
//	    ...
//	}
//
// # Assertions
//
//	h.ExpectContains("Count: 2")
//	h.ExpectNotContains("error")
//	h.ExpectText("summary", "2 items")
package fibertest
