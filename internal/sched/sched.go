// internal/sched/sched.go
// Package sched provides the timer abstraction the keyer runs on: a real
// single-goroutine event loop and a virtual clock for tests and replay.
package sched

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLoopStopped is returned when work is posted to a loop that has exited.
var ErrLoopStopped = errors.New("event loop stopped")

// Handle identifies a scheduled callback.
type Handle interface {
	// Active reports whether the callback is still waiting to run.
	Active() bool
}

// Scheduler runs callbacks after a delay. Implementations are single-threaded:
// Schedule, Cancel and the callbacks all run on the same logical queue.
type Scheduler interface {
	Now() time.Time
	Schedule(d time.Duration, fn func()) Handle
	// Cancel stops h. Cancelling nil, a fired or an already cancelled
	// handle is a no-op.
	Cancel(h Handle)
}

// Loop is a single-goroutine event queue. Everything posted to it, including
// timer callbacks, runs on the goroutine that called Run.
type Loop struct {
	queue    chan func()
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a loop with a queue of the given depth.
func NewLoop(depth int) *Loop {
	if depth < 1 {
		depth = 1
	}
	return &Loop{
		queue:   make(chan func(), depth),
		stopped: make(chan struct{}),
	}
}

// Post enqueues fn. It blocks while the queue is full and fails once the
// loop has stopped. Safe to call from any goroutine.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.stopped:
		return ErrLoopStopped
	default:
	}
	select {
	case l.queue <- fn:
		return nil
	case <-l.stopped:
		return ErrLoopStopped
	}
}

// Call posts fn and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := l.Post(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes posted work until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stopOnce.Do(func() { close(l.stopped) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

// Now returns the wall clock.
func (l *Loop) Now() time.Time {
	return time.Now()
}

type loopTimer struct {
	timer *time.Timer
	// Only touched on the loop goroutine.
	done bool
}

func (t *loopTimer) Active() bool { return !t.done }

// Schedule arms fn to run on the loop after d. Must be called on the loop.
func (l *Loop) Schedule(d time.Duration, fn func()) Handle {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		// A cancel can land between AfterFunc firing and the post running.
		_ = l.Post(func() {
			if t.done {
				return
			}
			t.done = true
			fn()
		})
	})
	return t
}

// Cancel stops h. Must be called on the loop.
func (l *Loop) Cancel(h Handle) {
	t, ok := h.(*loopTimer)
	if !ok || t == nil || t.done {
		return
	}
	t.done = true
	t.timer.Stop()
}
