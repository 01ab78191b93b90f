// Package idle provides the scheduling primitives the reconciler runs on.
//
// Manual is a deterministic scheduler: callbacks run only when the caller
// ticks it with an explicit deadline. It is what the tests use.
//
// Loop is a single-goroutine event loop. Tasks submitted from any
// goroutine run on the loop goroutine in submission order; idle callbacks
// run once per frame with a fixed budget, after the frame's tasks. Every
// piece of state the reconciler and the event system touch can therefore
// be confined to one goroutine without locks.
package idle
