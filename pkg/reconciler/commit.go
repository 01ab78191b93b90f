package reconciler

import (
	"time"

	"github.com/vango-dev/fibers/internal/errors"
	"github.com/vango-dev/fibers/pkg/fiber"
	"github.com/vango-dev/fibers/pkg/metrics"
)

// commitRoot applies the finished tree's effects and promotes it to
// current.
func (r *Root) commitRoot() {
	start := time.Now()
	mutations := 0

	for _, d := range r.deletions {
		r.commitDeletion(d)
		r.metrics.EffectApplied(fiber.EffectDeletion.String())
	}

	for f := range r.wip.Walk() {
		mutations += r.commitWork(f)
	}

	r.current = r.wip
	r.wip = nil
	r.next = nil

	elapsed := time.Since(start)
	r.metrics.CommitObserved(elapsed)
	r.metrics.MutationsApplied(mutations)
	r.metrics.PassFinished(metrics.OutcomeCommitted)
	r.finishSpan(nil, "committed")
	r.logger.Debug("commit",
		"pass", r.pass,
		"units", r.units,
		"deletions", len(r.deletions),
		"mutations", mutations,
		"duration", elapsed)

	for _, fn := range r.onCommit {
		fn(r.current)
	}

	if r.dirty {
		r.dirty = false
		r.stage(r.current.Props)
	}
}

// commitWork applies one fiber's effect and returns the number of
// property and listener mutations issued.
func (r *Root) commitWork(f *fiber.Fiber) int {
	if f.Alternate != nil {
		// The tree before current is no longer reachable.
		f.Alternate.Alternate = nil
	}
	if f.Kind == fiber.KindRoot {
		return 0
	}

	parent := f.HostParent()
	if parent == nil {
		panic(errors.New("E104").WithDetailf("fiber %s (%s)", f.Name(), f.Kind))
	}

	switch f.EffectTag {
	case fiber.EffectPlacement:
		if f.HostNode != nil {
			r.bridge.AppendChild(parent.HostNode, f.HostNode)
		}
		r.metrics.EffectApplied(f.EffectTag.String())
	case fiber.EffectUpdate:
		r.metrics.EffectApplied(f.EffectTag.String())
		if f.HostNode != nil {
			n := r.applyProps(f.HostNode, f.Alternate.Props, f.Props)
			r.bridge.AssociateFiber(f.HostNode, f)
			return n
		}
	}
	return 0
}

// commitDeletion removes the host nodes owned by f, or by its nearest
// host descendants when f owns none.
func (r *Root) commitDeletion(f *fiber.Fiber) {
	if f.HostNode != nil {
		parent := f.HostParent()
		if parent == nil {
			panic(errors.New("E104").WithDetailf("deleted fiber %s (%s)", f.Name(), f.Kind))
		}
		r.bridge.RemoveChild(parent.HostNode, f.HostNode)
		return
	}
	for c := range f.Children() {
		r.commitDeletion(c)
	}
}
