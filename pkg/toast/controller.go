package toast

import (
	"sync"
	"time"

	"github.com/vango-dev/toastkit/pkg/clock"
	"github.com/vango-dev/toastkit/pkg/loop"
	"github.com/vango-dev/toastkit/pkg/timer"
)

// Phase is a toast's transition state.
type Phase uint8

const (
	PhaseEntering Phase = iota
	PhaseEntered
	PhaseExiting
	PhaseExited
)

// String returns the transition label the presentation layer maps to CSS.
func (p Phase) String() string {
	switch p {
	case PhaseEntering:
		return "entering"
	case PhaseEntered:
		return "entered"
	case PhaseExiting:
		return "exiting"
	case PhaseExited:
		return "exited"
	default:
		return "unknown"
	}
}

// ControllerConfig configures a Controller.
type ControllerConfig struct {
	ID ID

	// AutoDismiss and DefaultTimeout decide the countdown.
	AutoDismiss    AutoDismiss
	DefaultTimeout time.Duration

	// Transition is the length of the enter and exit transitions.
	Transition time.Duration

	// PauseOnHover pauses the countdown while the pointer is over the toast.
	PauseOnHover bool

	Clock      clock.Clock
	Dispatcher loop.Dispatcher

	// OnDismiss requests removal of the toast. auto is true when the
	// countdown expired. Called at most once.
	OnDismiss func(id ID, auto bool)

	// OnPhase is called after every phase change.
	OnPhase func(id ID, phase Phase)
}

// Controller drives one toast through entering, entered, exiting and
// exited, and owns its dismissal timer. Its methods are safe to call from
// any goroutine; timer callbacks arrive on the configured dispatcher.
type Controller struct {
	mu sync.Mutex

	id           ID
	phase        Phase
	mounted      bool
	autoDismiss  AutoDismiss
	defTimeout   time.Duration
	transition   time.Duration
	pauseOnHover bool
	hovering     bool
	requested    bool

	clock      clock.Clock
	dispatcher loop.Dispatcher

	dismissal *timer.Timer
	trans     *timer.Timer

	onDismiss func(ID, bool)
	onPhase   func(ID, Phase)
}

// NewController creates a controller in the entering phase. Nothing runs
// until Mount is called.
func NewController(cfg ControllerConfig) *Controller {
	c := &Controller{
		id:           cfg.ID,
		phase:        PhaseEntering,
		autoDismiss:  cfg.AutoDismiss,
		defTimeout:   cfg.DefaultTimeout,
		transition:   cfg.Transition,
		pauseOnHover: cfg.PauseOnHover,
		clock:        cfg.Clock,
		dispatcher:   cfg.Dispatcher,
		onDismiss:    cfg.OnDismiss,
		onPhase:      cfg.OnPhase,
	}
	if c.clock == nil {
		c.clock = clock.Real()
	}
	if c.dispatcher == nil {
		c.dispatcher = loop.Inline{}
	}
	if c.defTimeout <= 0 {
		c.defTimeout = DefaultAutoDismissTimeout
	}
	return c
}

// ID returns the toast ID.
func (c *Controller) ID() ID {
	return c.id
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Running reports whether the countdown is advancing. It is false when
// auto-dismiss is off, while entering, and while paused by hover.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dismissal != nil && c.dismissal.Running()
}

// Remaining returns the countdown time left, or 0 without a countdown.
func (c *Controller) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dismissal == nil {
		return 0
	}
	return c.dismissal.Remaining()
}

// Mount starts the enter transition. Repeated calls do nothing.
func (c *Controller) Mount() {
	c.mu.Lock()
	if c.mounted || c.phase != PhaseEntering {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.trans = c.newTimer(c.entered, c.transition)
	c.mu.Unlock()

	c.notify(PhaseEntering)
}

// Dismiss requests removal, as when the user clicks the close button.
// The countdown is cleared and the exit transition starts.
func (c *Controller) Dismiss() {
	c.dismiss(false)
}

// Exit starts the exit transition without requesting removal, for toasts
// that already left the stack.
func (c *Controller) Exit() {
	c.mu.Lock()
	if !c.beginExitLocked() {
		c.mu.Unlock()
		return
	}
	c.requested = true
	c.mu.Unlock()

	c.notify(PhaseExiting)
}

// PointerEnter pauses the countdown when pause-on-hover is enabled.
// Repeated calls without PointerLeave do nothing.
func (c *Controller) PointerEnter() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hovering {
		return
	}
	c.hovering = true
	if c.pauseOnHover && c.dismissal != nil {
		c.dismissal.Pause()
	}
}

// PointerLeave resumes a countdown paused by PointerEnter.
func (c *Controller) PointerLeave() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.hovering {
		return
	}
	c.hovering = false
	if c.pauseOnHover && c.dismissal != nil {
		c.dismissal.Resume()
	}
}

// SetAutoDismiss changes the countdown policy. Any change restarts the
// countdown from its full duration; disabling clears it without
// dismissing. An unchanged policy leaves the running countdown alone.
func (c *Controller) SetAutoDismiss(ad AutoDismiss) {
	c.mu.Lock()
	defer c.mu.Unlock()

	same := ad.Enabled() == c.autoDismiss.Enabled() &&
		ad.Timeout(c.defTimeout) == c.autoDismiss.Timeout(c.defTimeout)
	c.autoDismiss = ad
	if same {
		return
	}

	c.clearDismissalLocked()
	if c.phase == PhaseEntered && !c.requested {
		c.startDismissalLocked()
	}
}

// Unmount releases every timer. No callbacks run afterwards.
func (c *Controller) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearDismissalLocked()
	c.clearTransitionLocked()
	c.mounted = false
	c.requested = true
	c.phase = PhaseExited
}

func (c *Controller) entered() {
	c.mu.Lock()
	if c.phase != PhaseEntering || !c.mounted {
		c.mu.Unlock()
		return
	}
	c.trans = nil
	c.phase = PhaseEntered
	c.startDismissalLocked()
	c.mu.Unlock()

	c.notify(PhaseEntered)
}

func (c *Controller) expired() {
	c.dismiss(true)
}

func (c *Controller) dismiss(auto bool) {
	c.mu.Lock()
	if c.requested || !c.beginExitLocked() {
		c.mu.Unlock()
		return
	}
	c.requested = true
	c.mu.Unlock()

	if c.onDismiss != nil {
		c.onDismiss(c.id, auto)
	}
	c.notify(PhaseExiting)
}

func (c *Controller) exited() {
	c.mu.Lock()
	if c.phase != PhaseExiting {
		c.mu.Unlock()
		return
	}
	c.trans = nil
	c.phase = PhaseExited
	c.mounted = false
	c.mu.Unlock()

	c.notify(PhaseExited)
}

// beginExitLocked moves to exiting and schedules exited. It reports false
// when the toast is already exiting or gone.
func (c *Controller) beginExitLocked() bool {
	if c.phase >= PhaseExiting {
		return false
	}
	c.clearDismissalLocked()
	c.clearTransitionLocked()
	c.phase = PhaseExiting
	c.trans = c.newTimer(c.exited, c.transition)
	return true
}

func (c *Controller) startDismissalLocked() {
	if !c.autoDismiss.Enabled() {
		return
	}
	c.dismissal = c.newTimer(c.expired, c.autoDismiss.Timeout(c.defTimeout))
	if c.hovering && c.pauseOnHover {
		c.dismissal.Pause()
	}
}

func (c *Controller) clearDismissalLocked() {
	if c.dismissal != nil {
		c.dismissal.Clear()
		c.dismissal = nil
	}
}

func (c *Controller) clearTransitionLocked() {
	if c.trans != nil {
		c.trans.Clear()
		c.trans = nil
	}
}

func (c *Controller) newTimer(fn func(), d time.Duration) *timer.Timer {
	return timer.New(fn, d,
		timer.WithClock(c.clock),
		timer.WithDispatcher(c.dispatcher),
	)
}

func (c *Controller) notify(p Phase) {
	if c.onPhase != nil {
		c.onPhase(c.id, p)
	}
}
