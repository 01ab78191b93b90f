// Package reconciler implements an incremental fiber reconciler.
//
// A Root owns the two fiber trees rooted at one host container: current,
// which matches the host tree, and the work-in-progress tree being built.
// Render stages a new pass. Each unit of work reconciles one fiber against
// its alternate, classifies its children with effect tags, and returns the
// next fiber in depth-first pre-order. Resume runs units until the
// deadline's remaining time drops below a threshold, then suspends with the
// cursor preserved. When no units remain the pass is committed: deletions
// first, then placements and updates in pre-order, and the new tree becomes
// current.
//
// Children are paired with the alternate's children by position only; there
// are no keys. Reordering siblings therefore looks like updates at the
// shifted positions plus a placement or deletion at the tail, and placements
// append to the host parent.
//
// Components keep local state in hooks via UseState. A state setter queues
// an update and restages a pass from the current tree's props.
//
// A Root is single-threaded. All calls, including handler-triggered state
// updates, must come from the goroutine that drives its IdleScheduler.
package reconciler
