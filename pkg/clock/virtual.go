package clock

import (
	"container/heap"
	"sync"
	"time"
)

// Virtual is a Clock whose time only moves when Advance or AdvanceTo is
// called. Due timers fire in deadline order; timers sharing a deadline fire
// in creation order. While a timer callback runs, Now reports that timer's
// deadline.
type Virtual struct {
	mu     sync.Mutex
	now    time.Time
	nextID uint64
	timers timerHeap
}

// NewVirtual returns a virtual clock starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the current virtual time.
func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// AfterFunc schedules fn to run once virtual time reaches Now()+d.
func (v *Virtual) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.nextID++
	t := &virtualTimer{
		clock:    v,
		id:       v.nextID,
		deadline: v.now.Add(d),
		fn:       fn,
	}
	heap.Push(&v.timers, t)
	return t
}

// Advance moves virtual time forward by d, firing every timer that falls
// due on the way. Timers scheduled by callbacks are fired too when their
// deadline is within the window.
func (v *Virtual) Advance(d time.Duration) {
	if d < 0 {
		d = 0
	}
	v.AdvanceTo(v.Now().Add(d))
}

// AdvanceTo moves virtual time forward to target. A target in the past
// only fires timers that are already due.
func (v *Virtual) AdvanceTo(target time.Time) {
	for {
		v.mu.Lock()
		if len(v.timers) == 0 || v.timers[0].deadline.After(target) {
			if target.After(v.now) {
				v.now = target
			}
			v.mu.Unlock()
			return
		}
		t := heap.Pop(&v.timers).(*virtualTimer)
		t.index = -1
		if t.deadline.After(v.now) {
			v.now = t.deadline
		}
		fn := t.fn
		t.fired = true
		v.mu.Unlock()

		fn()
	}
}

// Next returns the deadline of the earliest pending timer.
func (v *Virtual) Next() (time.Time, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.timers) == 0 {
		return time.Time{}, false
	}
	return v.timers[0].deadline, true
}

// Pending returns the number of timers that have neither fired nor been
// stopped.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.timers)
}

type virtualTimer struct {
	clock    *Virtual
	id       uint64
	deadline time.Time
	fn       func()
	index    int
	fired    bool
	stopped  bool
}

func (t *virtualTimer) Stop() bool {
	v := t.clock
	v.mu.Lock()
	defer v.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	if t.index >= 0 {
		heap.Remove(&v.timers, t.index)
		t.index = -1
	}
	return true
}

type timerHeap []*virtualTimer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].id < h[j].id
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*virtualTimer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
