package loop

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestLoopRunsInDispatchOrder(t *testing.T) {
	l := New()
	l.Start()
	defer l.Close()

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})

	for i := 0; i < 100; i++ {
		i := i
		l.Dispatch(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			if i == 99 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not run dispatched functions")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d, functions ran out of order", i, v)
		}
	}
}

func TestLoopDispatchFromInsideLoop(t *testing.T) {
	l := New()
	l.Start()
	defer l.Close()

	done := make(chan struct{})
	l.Dispatch(func() {
		l.Dispatch(func() { close(done) })
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("nested dispatch never ran")
	}
}

func TestLoopRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	var bufMu sync.Mutex
	logger := slog.New(slog.NewTextHandler(&lockedWriter{w: &buf, mu: &bufMu}, nil))

	l := New(WithLogger(logger))
	l.Start()
	defer l.Close()

	done := make(chan struct{})
	l.Dispatch(func() { panic("boom") })
	l.Dispatch(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop stopped after a panic")
	}

	bufMu.Lock()
	defer bufMu.Unlock()
	if !strings.Contains(buf.String(), "dispatch panic") {
		t.Errorf("panic was not logged, log = %q", buf.String())
	}
}

func TestLoopRunReturnsOnCancel(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	select {
	case <-l.Done():
	default:
		t.Error("Done() not closed after cancel")
	}
}

func TestLoopDispatchAfterCloseIsDiscarded(t *testing.T) {
	l := New()
	l.Close()
	l.Close()

	ran := false
	l.Dispatch(func() { ran = true })
	if err := l.Run(context.Background()); err != nil {
		t.Fatalf("Run() after Close = %v, want nil", err)
	}
	if ran {
		t.Error("function dispatched after Close ran")
	}
}

func TestQueueDrain(t *testing.T) {
	q := NewQueue(nil)
	var got []string

	q.Dispatch(func() {
		got = append(got, "a")
		q.Dispatch(func() { got = append(got, "c") })
	})
	q.Dispatch(func() { got = append(got, "b") })

	if q.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", q.Len())
	}
	if len(got) != 0 {
		t.Fatal("Dispatch ran a function synchronously")
	}

	if n := q.Drain(); n != 3 {
		t.Errorf("Drain() = %d, want 3", n)
	}
	if strings.Join(got, "") != "abc" {
		t.Errorf("order = %v, want [a b c]", got)
	}
	if q.Len() != 0 {
		t.Errorf("Len() after drain = %d, want 0", q.Len())
	}
}

func TestQueueDrainSurvivesPanic(t *testing.T) {
	var buf bytes.Buffer
	q := NewQueue(slog.New(slog.NewTextHandler(&buf, nil)))

	ran := false
	q.Dispatch(func() { panic("bad callback") })
	q.Dispatch(func() { ran = true })
	q.Drain()

	if !ran {
		t.Error("function after panic did not run")
	}
	if !strings.Contains(buf.String(), "bad callback") {
		t.Errorf("panic value not logged: %q", buf.String())
	}
}

func TestInlineRunsImmediately(t *testing.T) {
	ran := false
	Inline{}.Dispatch(func() { ran = true })
	if !ran {
		t.Error("Inline did not run fn")
	}
	Inline{}.Dispatch(nil)
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
