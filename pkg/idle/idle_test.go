package idle

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vango-dev/fibers/internal/errors"
	"github.com/vango-dev/fibers/pkg/fiber"
)

func TestSteps(t *testing.T) {
	d := Steps(3)
	want := []bool{true, true, false, false}
	for i, w := range want {
		if got := d.TimeRemaining() > time.Millisecond; got != w {
			t.Errorf("call %d: remaining above 1ms = %v, want %v", i+1, got, w)
		}
	}
}

func TestFixedAndUnbounded(t *testing.T) {
	if got := Fixed(5 * time.Millisecond).TimeRemaining(); got != 5*time.Millisecond {
		t.Errorf("Fixed = %v, want 5ms", got)
	}
	if got := Unbounded().TimeRemaining(); got < time.Hour {
		t.Errorf("Unbounded = %v, want effectively infinite", got)
	}
	if got := Until(time.Now().Add(-time.Second)).TimeRemaining(); got != 0 {
		t.Errorf("expired Until = %v, want 0", got)
	}
}

func TestManualTickRunsOnlyQueuedCallbacks(t *testing.T) {
	m := NewManual()
	var runs int
	var rearm func(fiber.Deadline)
	rearm = func(fiber.Deadline) {
		runs++
		m.RequestIdle(rearm)
	}
	m.RequestIdle(rearm)

	if n := m.Tick(Unbounded()); n != 1 {
		t.Fatalf("Tick ran %d callbacks, want 1", n)
	}
	if runs != 1 {
		t.Errorf("runs = %d, want 1", runs)
	}
	if m.Pending() != 1 {
		t.Errorf("Pending = %d, want 1", m.Pending())
	}

	m.TickN(2, Unbounded)
	if runs != 3 || m.Ticks() != 3 {
		t.Errorf("runs = %d, ticks = %d, want 3, 3", runs, m.Ticks())
	}
}

func TestLoopSubmitAndIdle(t *testing.T) {
	l := NewLoop(WithFrameInterval(time.Millisecond), WithFrameBudget(time.Millisecond))
	go l.Run(context.Background())
	defer l.Stop()

	var order []string
	idleRan := make(chan time.Duration, 1)

	if err := l.Do(context.Background(), func() {
		order = append(order, "task")
		l.RequestIdle(func(d fiber.Deadline) {
			idleRan <- d.TimeRemaining()
		})
	}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	select {
	case remaining := <-idleRan:
		if remaining > time.Millisecond {
			t.Errorf("idle deadline = %v, want <= 1ms", remaining)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("idle callback did not run")
	}

	if len(order) != 1 {
		t.Errorf("order = %v, want [task]", order)
	}
}

func TestLoopRecoversPanics(t *testing.T) {
	l := NewLoop()
	go l.Run(context.Background())
	defer l.Stop()

	_ = l.Submit(func() { panic("boom") })

	var ran atomic.Bool
	if err := l.Do(context.Background(), func() { ran.Store(true) }); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !ran.Load() {
		t.Error("task after panic did not run")
	}
}

func TestLoopLifecycleErrors(t *testing.T) {
	l := NewLoop()
	started := make(chan error, 1)
	go func() { started <- l.Run(context.Background()) }()

	// Wait for the first Run to own the loop.
	if err := l.Do(context.Background(), func() {}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if err := l.Run(context.Background()); !errors.HasCode(err, "E111") {
		t.Errorf("second Run error = %v, want E111", err)
	}

	l.Stop()
	if err := <-started; err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
	if err := l.Submit(func() {}); !errors.HasCode(err, "E110") {
		t.Errorf("Submit after Stop error = %v, want E110", err)
	}
	if err := l.Run(context.Background()); !errors.HasCode(err, "E110") {
		t.Errorf("Run after Stop error = %v, want E110", err)
	}
}

func TestLoopContextCancel(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-errc:
		if err != context.Canceled {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	<-l.Done()
}
