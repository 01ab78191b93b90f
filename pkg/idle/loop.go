package idle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vango-dev/fibers/internal/errors"
	"github.com/vango-dev/fibers/pkg/fiber"
)

// Default frame timing.
const (
	DefaultFrameInterval = 16 * time.Millisecond
	DefaultFrameBudget   = 10 * time.Millisecond
)

type loopState int32

const (
	stateAwake loopState = iota
	stateRunning
	stateTerminated
)

// Loop is a single-goroutine event loop with idle callbacks.
type Loop struct {
	mu      sync.Mutex
	ingress []func()
	idle    []func(fiber.Deadline)

	wake     chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	state    atomic.Int32

	frameInterval time.Duration
	frameBudget   time.Duration
	logger        *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithFrameInterval sets how often idle callbacks are run.
func WithFrameInterval(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.frameInterval = d
		}
	}
}

// WithFrameBudget sets the deadline handed to idle callbacks.
func WithFrameBudget(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.frameBudget = d
		}
	}
}

// WithLogger sets the loop's logger.
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoop creates a loop. Call Run to start it.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{
		wake:          make(chan struct{}, 1),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
		frameInterval: DefaultFrameInterval,
		frameBudget:   DefaultFrameBudget,
		logger:        slog.Default().With("component", "idle"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run processes tasks and idle callbacks on the calling goroutine until
// Stop is called or ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	if !l.state.CompareAndSwap(int32(stateAwake), int32(stateRunning)) {
		if loopState(l.state.Load()) == stateTerminated {
			return errors.New("E110")
		}
		return errors.New("E111")
	}
	defer close(l.done)
	defer l.state.Store(int32(stateTerminated))

	ticker := time.NewTicker(l.frameInterval)
	defer ticker.Stop()

	l.logger.Debug("loop started", "frame_interval", l.frameInterval, "frame_budget", l.frameBudget)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stop:
			return nil
		case <-l.wake:
			l.runTasks()
		case <-ticker.C:
			l.runTasks()
			l.runIdle()
		}
	}
}

// Stop terminates the loop. Queued tasks that have not run are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		l.state.Store(int32(stateTerminated))
		l.ingress = nil
		l.mu.Unlock()
		close(l.stop)
	})
}

// Done is closed when Run returns.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Submit queues fn to run on the loop goroutine.
func (l *Loop) Submit(fn func()) error {
	l.mu.Lock()
	if loopState(l.state.Load()) == stateTerminated {
		l.mu.Unlock()
		return errors.New("E110")
	}
	l.ingress = append(l.ingress, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Submit(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return errors.New("E110")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequestIdle implements fiber.IdleScheduler. cb runs in the next frame.
func (l *Loop) RequestIdle(cb func(fiber.Deadline)) {
	l.mu.Lock()
	l.idle = append(l.idle, cb)
	l.mu.Unlock()
}

func (l *Loop) runTasks() {
	l.mu.Lock()
	tasks := l.ingress
	l.ingress = nil
	l.mu.Unlock()

	for _, task := range tasks {
		l.safeExecute(task)
	}
}

func (l *Loop) runIdle() {
	l.mu.Lock()
	callbacks := l.idle
	l.idle = nil
	l.mu.Unlock()

	if len(callbacks) == 0 {
		return
	}
	deadline := Budget(l.frameBudget)
	for _, cb := range callbacks {
		l.safeExecute(func() { cb(deadline) })
	}
}

// safeExecute runs a task, logging instead of crashing on panic.
func (l *Loop) safeExecute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked", "panic", fmt.Sprint(r))
		}
	}()
	fn()
}

var _ fiber.IdleScheduler = (*Loop)(nil)
