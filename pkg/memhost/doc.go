// Package memhost is an in-memory host tree that satisfies fiber.Bridge.
//
// A Document owns element and text nodes, their properties, and their
// native listeners. Nodes carry sequential IDs so the tree can be mirrored
// remotely: every mutation applied through the bridge is appended to a
// journal that can be drained into a protocol.MutationFrame.
//
// DispatchEvent propagates a native event the way a browser does: capture
// listeners from the top of the tree down to the target, then bubble
// listeners from the target back up, stopping at the first node boundary
// after StopPropagation.
//
// A Document is not safe for concurrent use. Callers that share one across
// goroutines confine it to a single goroutine (see idle.Loop).
package memhost
