// Package events implements synthetic event dispatch over the fiber tree.
//
// A System attaches one capture-phase and one bubble-phase listener to the
// render container for each supported native event. When a native event
// reaches the container, the System resolves the fiber that owns the
// native target, collects handlers from that fiber and its host
// ancestors, and invokes them: capture handlers (onClickCapture) from the
// root down to the target, then bubble handlers (onClick) from the target
// up to the root. One SyntheticEvent is shared by both phases, and
// StopPropagation halts the remaining handlers.
//
// Handlers for supported events are never registered on individual host
// nodes. Pass Handles to reconciler.WithDelegatedEvents so the reconciler
// skips those keys.
package events
