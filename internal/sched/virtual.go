// internal/sched/virtual.go
package sched

import (
	"time"
)

// Virtual is a deterministic clock. Time only moves when Advance or
// AdvanceTo is called, and due callbacks run synchronously in deadline order
// (scheduling order for equal deadlines). Not safe for concurrent use.
type Virtual struct {
	now    time.Time
	seq    uint64
	timers []*virtualTimer
}

type virtualTimer struct {
	deadline time.Time
	seq      uint64
	fn       func()
	done     bool
}

func (t *virtualTimer) Active() bool { return !t.done }

// NewVirtual creates a clock that starts at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the virtual time.
func (v *Virtual) Now() time.Time {
	return v.now
}

// Schedule arms fn to run once the clock reaches Now()+d.
func (v *Virtual) Schedule(d time.Duration, fn func()) Handle {
	v.seq++
	t := &virtualTimer{deadline: v.now.Add(d), seq: v.seq, fn: fn}
	v.timers = append(v.timers, t)
	return t
}

// Cancel removes h from the pending set.
func (v *Virtual) Cancel(h Handle) {
	t, ok := h.(*virtualTimer)
	if !ok || t == nil || t.done {
		return
	}
	t.done = true
	v.remove(t)
}

// Pending returns the number of callbacks still waiting.
func (v *Virtual) Pending() int {
	return len(v.timers)
}

// Advance moves the clock forward by d, running every callback that falls due.
func (v *Virtual) Advance(d time.Duration) {
	v.AdvanceTo(v.now.Add(d))
}

// AdvanceTo moves the clock to t. Callbacks scheduled by callbacks run too if
// they fall due before t. Moving backwards is a no-op.
func (v *Virtual) AdvanceTo(t time.Time) {
	for {
		next := v.next()
		if next == nil || next.deadline.After(t) {
			break
		}
		v.remove(next)
		if next.deadline.After(v.now) {
			v.now = next.deadline
		}
		next.done = true
		next.fn()
	}
	if t.After(v.now) {
		v.now = t
	}
}

func (v *Virtual) next() *virtualTimer {
	var best *virtualTimer
	for _, t := range v.timers {
		if best == nil || t.deadline.Before(best.deadline) ||
			(t.deadline.Equal(best.deadline) && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (v *Virtual) remove(t *virtualTimer) {
	for i, x := range v.timers {
		if x == t {
			v.timers = append(v.timers[:i], v.timers[i+1:]...)
			return
		}
	}
}
