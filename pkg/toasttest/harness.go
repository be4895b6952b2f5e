// Package toasttest drives a toast channel in virtual time.
//
// A Harness wires a Provider to a virtual clock and a manual dispatch
// queue on a private registry, so a test decides exactly when time passes
// and when the event loop turns:
//
//	h := toasttest.Start(t, &toast.Config{AutoDismiss: true})
//	id := h.Toasts.Success("Saved")
//	h.Advance(toast.DefaultTransitionDuration) // entered
//	h.Advance(toast.DefaultAutoDismissTimeout) // countdown expired
//	if h.Toasts.Has(id) {
//	    t.Fatal("toast still on the stack")
//	}
//
// Advance fires timers in deadline order and drains the queue after every
// firing, so chains of timers (enter transition, then countdown, then exit
// transition) resolve within one call when they fall inside the window.
package toasttest

import (
	"fmt"
	"testing"
	"time"

	"github.com/vango-dev/toastkit/pkg/clock"
	"github.com/vango-dev/toastkit/pkg/loop"
	"github.com/vango-dev/toastkit/pkg/toast"
)

// Epoch is the virtual time every Harness starts at.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Harness is a toast channel on virtual time.
type Harness struct {
	Clock    *clock.Virtual
	Queue    *loop.Queue
	Registry *toast.Registry
	Provider *toast.Provider

	// Toasts is the channel's Handle.
	Toasts *toast.Handle

	// Stage is the channel's visible state.
	Stage *toast.Stage
}

// New builds a Harness for cfg. Clock and Dispatcher in cfg are replaced;
// unless cfg sets IDs, toasts are numbered toast-1, toast-2, ...
func New(cfg *toast.Config) (*Harness, error) {
	if cfg == nil {
		cfg = toast.DefaultConfig()
	} else {
		cfg = cfg.Clone()
	}

	h := &Harness{
		Clock:    clock.NewVirtual(Epoch),
		Queue:    loop.NewQueue(cfg.Logger),
		Registry: toast.NewRegistry(),
	}
	cfg.Clock = h.Clock
	cfg.Dispatcher = h.Queue
	if cfg.IDs == nil {
		cfg.IDs = toast.Sequence("toast")
	}

	p, err := h.Registry.Provide(cfg)
	if err != nil {
		return nil, fmt.Errorf("toasttest: %w", err)
	}
	h.Provider = p
	h.Toasts = p.Handle()
	h.Stage = p.Stage()
	return h, nil
}

// Start is New for tests: it fails tb on error and closes the Harness
// when the test ends.
func Start(tb testing.TB, cfg *toast.Config) *Harness {
	tb.Helper()
	h, err := New(cfg)
	if err != nil {
		tb.Fatalf("toasttest: %v", err)
	}
	tb.Cleanup(h.Close)
	return h
}

// Now returns the current virtual time.
func (h *Harness) Now() time.Time {
	return h.Clock.Now()
}

// Elapsed returns the virtual time passed since Epoch.
func (h *Harness) Elapsed() time.Duration {
	return h.Clock.Now().Sub(Epoch)
}

// Settle runs the event loop until nothing is queued, without moving
// time. It returns the number of functions run.
func (h *Harness) Settle() int {
	return h.Queue.Drain()
}

// Advance moves virtual time forward by d, firing due timers one deadline
// at a time and settling the loop after each.
func (h *Harness) Advance(d time.Duration) {
	if d < 0 {
		d = 0
	}
	h.AdvanceTo(h.Clock.Now().Add(d))
}

// AdvanceTo is Advance with an absolute target.
func (h *Harness) AdvanceTo(target time.Time) {
	h.Settle()
	for {
		next, ok := h.Clock.Next()
		if !ok || next.After(target) {
			break
		}
		h.Clock.AdvanceTo(next)
		h.Settle()
	}
	h.Clock.AdvanceTo(target)
	h.Settle()
}

// RunUntilIdle advances until no timers remain, up to limit of virtual
// time. It reports whether the channel went idle within the limit.
func (h *Harness) RunUntilIdle(limit time.Duration) bool {
	deadline := h.Clock.Now().Add(limit)
	h.Settle()
	for {
		next, ok := h.Clock.Next()
		if !ok {
			return true
		}
		if next.After(deadline) {
			h.AdvanceTo(deadline)
			return false
		}
		h.AdvanceTo(next)
	}
}

// Phase returns the transition phase of a visible toast.
func (h *Harness) Phase(id toast.ID) (toast.Phase, bool) {
	v, ok := h.Stage.View(id)
	return v.Phase, ok
}

// IDs returns the IDs on the stack in order.
func (h *Harness) IDs() []toast.ID {
	recs := h.Toasts.Toasts()
	ids := make([]toast.ID, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}

// VisibleIDs returns the IDs on the stage in display order, including
// toasts still exiting.
func (h *Harness) VisibleIDs() []toast.ID {
	views := h.Stage.Views()
	ids := make([]toast.ID, len(views))
	for i, v := range views {
		ids[i] = v.Record.ID
	}
	return ids
}

// Close closes the Provider and runs what it left queued.
func (h *Harness) Close() {
	h.Provider.Close()
	h.Settle()
}
