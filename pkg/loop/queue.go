package loop

import (
	"log/slog"
	"sync"
)

// Queue is a Dispatcher that holds functions until Drain is called.
// It gives tests and simulations full control over when a "later turn"
// happens.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	logger  *slog.Logger
}

// NewQueue creates an empty Queue. A nil logger means slog.Default().
func NewQueue(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{logger: logger}
}

// Dispatch appends fn to the queue.
func (q *Queue) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Drain runs queued functions in FIFO order until the queue is empty,
// including functions queued by the functions it runs. It returns the
// number of functions executed.
func (q *Queue) Drain() int {
	n := 0
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return n
		}
		fn := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		execute(q.logger, fn)
		n++
	}
}

// Len returns the number of queued functions.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Inline is a Dispatcher that runs fn immediately on the caller's
// goroutine. It exists for adapters that have no loop of their own.
type Inline struct{}

// Dispatch calls fn.
func (Inline) Dispatch(fn func()) {
	if fn != nil {
		fn()
	}
}
