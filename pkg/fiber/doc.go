// Package fiber defines the fiber tree: the durable unit of reconciliation
// work and of the rendered result.
//
// Fibers are linked as a first-child/next-sibling tree through Parent,
// Child and Sibling. Parent owns Child; Sibling and Parent links are
// non-owning. Children, Ancestors and Walk adapt the links to iterators.
//
// The package also holds the two contracts the reconciler consumes from the
// host platform: Bridge (node creation and mutation) and IdleScheduler
// (cooperative time slices).
package fiber
