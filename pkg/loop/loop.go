// Package loop provides the single-writer event loop that toast state is
// mutated on.
//
// Every completion callback, subscriber notification and timer wakeup is
// handed to a Dispatcher and runs on a later turn, never inside the call
// that caused it. Two dispatchers are provided:
//
//   - Loop runs queued functions on its own goroutine, for applications.
//   - Queue holds functions until Drain is called, for tests and
//     deterministic simulations.
//
// Both recover panics raised by queued functions and log them, so one
// misbehaving callback cannot stop the loop.
package loop

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Dispatcher queues a function to run on a later turn of an event loop.
// Functions queued by one goroutine run in the order they were queued.
type Dispatcher interface {
	Dispatch(fn func())
}

// Loop is a goroutine-backed event loop. The queue is unbounded so timer
// wakeups are never dropped under load.
type Loop struct {
	mu      sync.Mutex
	pending []func()

	wake chan struct{}
	done chan struct{}

	closed    atomic.Bool
	closeOnce sync.Once
	running   atomic.Bool

	logger *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for panic reports.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Loop. Call Run or Start to begin processing.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dispatch queues fn to run on the loop goroutine. Safe to call from any
// goroutine, including from inside a dispatched function. Functions
// dispatched after Close are discarded.
func (l *Loop) Dispatch(fn func()) {
	if fn == nil || l.closed.Load() {
		return
	}

	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
		// A wakeup is already pending
	}
}

// Run processes dispatched functions until ctx is cancelled or Close is
// called. It returns ctx.Err() on cancellation and nil after Close.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		panic("loop: Run called twice")
	}

	for {
		select {
		case <-l.wake:
			l.runPending()

		case <-l.done:
			return nil

		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		}
	}
}

// Start runs the loop on a new goroutine.
func (l *Loop) Start() {
	go func() {
		_ = l.Run(context.Background())
	}()
}

// Close stops the loop. Functions still queued are discarded.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// Done is closed once the loop has been closed.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// runPending drains the queue, including functions queued while draining.
func (l *Loop) runPending() {
	for {
		if l.closed.Load() {
			return
		}

		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			execute(l.logger, fn)
		}
	}
}

// execute runs fn with panic recovery.
func execute(logger *slog.Logger, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			logger.Error("dispatch panic",
				"panic", r,
				"stack", string(stack))
		}
	}()
	fn()
}
