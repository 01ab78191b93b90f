package idle

import "github.com/vango-dev/fibers/pkg/fiber"

// Manual is an IdleScheduler driven by explicit ticks.
type Manual struct {
	queue []func(fiber.Deadline)
	ticks int
}

// NewManual creates a manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

// RequestIdle implements fiber.IdleScheduler.
func (m *Manual) RequestIdle(cb func(fiber.Deadline)) {
	m.queue = append(m.queue, cb)
}

// Pending returns the number of callbacks waiting for the next tick.
func (m *Manual) Pending() int {
	return len(m.queue)
}

// Ticks returns the number of ticks run so far.
func (m *Manual) Ticks() int {
	return m.ticks
}

// Tick runs every callback queued before the tick with deadline d.
// Callbacks requested during the tick wait for the next one. It returns
// the number of callbacks run.
func (m *Manual) Tick(d fiber.Deadline) int {
	m.ticks++
	queue := m.queue
	m.queue = nil
	for _, cb := range queue {
		cb(d)
	}
	return len(queue)
}

// TickN runs n ticks, each with a deadline from next.
func (m *Manual) TickN(n int, next func() fiber.Deadline) {
	for i := 0; i < n; i++ {
		m.Tick(next())
	}
}

var _ fiber.IdleScheduler = (*Manual)(nil)
