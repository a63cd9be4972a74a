package campaign

import (
	"sync"
	"time"
)

// Status is the transient send state shown by interactive surfaces.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// DefaultResetInterval is how long a success or error status is displayed
// before the tracker returns to idle.
const DefaultResetInterval = 2 * time.Second

// Tracker holds the idle → loading → success|error → idle cycle. It is safe
// for concurrent use and is never persisted.
type Tracker struct {
	mu       sync.Mutex
	status   Status
	interval time.Duration
	timer    *time.Timer
	gen      uint64
	onChange func(Status)
}

// NewTracker returns an idle tracker. A non-positive interval uses
// DefaultResetInterval. onChange may be nil; it is called outside the lock.
func NewTracker(interval time.Duration, onChange func(Status)) *Tracker {
	if interval <= 0 {
		interval = DefaultResetInterval
	}
	return &Tracker{status: StatusIdle, interval: interval, onChange: onChange}
}

// Status returns the current status.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Interval returns the reset interval.
func (t *Tracker) Interval() time.Duration {
	return t.interval
}

// Loading marks a send as in flight and cancels any pending reset.
func (t *Tracker) Loading() {
	t.set(StatusLoading, false)
}

// Succeed marks the send successful and schedules the reset to idle.
func (t *Tracker) Succeed() {
	t.set(StatusSuccess, true)
}

// Fail marks the send failed and schedules the reset to idle.
func (t *Tracker) Fail() {
	t.set(StatusError, true)
}

// Reset returns to idle immediately.
func (t *Tracker) Reset() {
	t.set(StatusIdle, false)
}

func (t *Tracker) set(s Status, scheduleReset bool) {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.status = s
	t.gen++
	if scheduleReset {
		gen := t.gen
		t.timer = time.AfterFunc(t.interval, func() { t.expire(gen) })
	}
	cb := t.onChange
	t.mu.Unlock()

	if cb != nil {
		cb(s)
	}
}

// expire resets to idle unless a newer transition happened since gen.
func (t *Tracker) expire(gen uint64) {
	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.status = StatusIdle
	t.gen++
	cb := t.onChange
	t.mu.Unlock()

	if cb != nil {
		cb(StatusIdle)
	}
}
