// Package timer implements the resumable countdown behind auto-dismissing
// toasts.
//
// A Timer fires its callback after a given amount of running time. Pausing
// freezes the countdown and resuming continues from what was left, so a
// toast that the pointer hovers over for a while still gets its full
// visible duration.
//
//	t := timer.New(dismiss, 5*time.Second,
//	    timer.WithClock(clk),
//	    timer.WithDispatcher(lp),
//	)
//	t.Pause()  // pointer entered
//	t.Resume() // pointer left
//	t.Clear()  // toast unmounted
package timer

import (
	"sync"
	"time"

	"github.com/vango-dev/toastkit/pkg/clock"
	"github.com/vango-dev/toastkit/pkg/loop"
)

// Timer is a pausable one-shot countdown. The callback runs at most once.
type Timer struct {
	mu sync.Mutex

	clock      clock.Clock
	dispatcher loop.Dispatcher
	callback   func()

	remaining time.Duration
	started   time.Time
	pending   clock.Timer

	// gen invalidates wakeups scheduled before the last pause or clear.
	gen uint64

	running bool
	fired   bool
	cleared bool
}

// Option configures a Timer.
type Option func(*Timer)

// WithClock sets the time source. Default: clock.Real().
func WithClock(c clock.Clock) Option {
	return func(t *Timer) {
		if c != nil {
			t.clock = c
		}
	}
}

// WithDispatcher routes the callback through d so it runs on the caller's
// event loop. Default: the callback runs on the clock's timer goroutine.
func WithDispatcher(d loop.Dispatcher) Option {
	return func(t *Timer) {
		if d != nil {
			t.dispatcher = d
		}
	}
}

// New creates a running Timer that calls callback after d of running time.
// A non-positive d fires on the next scheduling opportunity, never from
// inside New.
func New(callback func(), d time.Duration, opts ...Option) *Timer {
	if d < 0 {
		d = 0
	}
	t := &Timer{
		clock:      clock.Real(),
		dispatcher: loop.Inline{},
		callback:   callback,
		remaining:  d,
	}
	for _, opt := range opts {
		opt(t)
	}

	t.mu.Lock()
	t.resumeLocked()
	t.mu.Unlock()
	return t
}

// Pause stops the countdown and records the running time consumed so far.
// Pausing a paused, cleared or fired timer does nothing.
func (t *Timer) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running || t.fired || t.cleared {
		return
	}
	t.stopLocked()
	t.remaining -= t.clock.Now().Sub(t.started)
	if t.remaining < 0 {
		t.remaining = 0
	}
	t.running = false
}

// Resume continues the countdown from the remaining duration.
// Resuming a running, cleared or fired timer does nothing.
func (t *Timer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resumeLocked()
}

// Clear cancels the timer permanently. The callback will never run.
// Clear is safe to call repeatedly and after the timer fired.
func (t *Timer) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cleared {
		return
	}
	t.stopLocked()
	t.cleared = true
	t.running = false
}

// Remaining returns the running time left before the callback fires.
func (t *Timer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fired || t.cleared {
		return 0
	}
	if !t.running {
		return t.remaining
	}
	left := t.remaining - t.clock.Now().Sub(t.started)
	if left < 0 {
		return 0
	}
	return left
}

// Running reports whether the countdown is currently advancing.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Fired reports whether the callback has been invoked.
func (t *Timer) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// Cleared reports whether Clear was called before the timer fired.
func (t *Timer) Cleared() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cleared && !t.fired
}

func (t *Timer) resumeLocked() {
	if t.running || t.fired || t.cleared {
		return
	}
	t.running = true
	t.started = t.clock.Now()
	t.gen++
	gen := t.gen
	t.pending = t.clock.AfterFunc(t.remaining, func() {
		t.dispatcher.Dispatch(func() { t.expire(gen) })
	})
}

func (t *Timer) stopLocked() {
	t.gen++
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

// expire runs on the dispatcher. Wakeups from an older generation lost a
// race with Pause or Clear and are ignored.
func (t *Timer) expire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.running || t.fired || t.cleared {
		t.mu.Unlock()
		return
	}
	t.fired = true
	t.running = false
	t.remaining = 0
	t.pending = nil
	cb := t.callback
	t.mu.Unlock()

	if cb != nil {
		cb()
	}
}
