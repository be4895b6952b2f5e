package toast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/toastkit/pkg/clock"
	"github.com/vango-dev/toastkit/pkg/loop"
)

// View is what the presentation layer renders for one toast.
type View struct {
	Record Record
	Phase  Phase

	// Running is false while the countdown is paused or absent.
	Running bool

	// Remaining is the countdown time left, 0 without a countdown.
	Remaining time.Duration
}

// Stage tracks the toasts that are visible, which includes toasts already
// removed from the stack whose exit transition is still running. It owns
// one Controller per visible toast.
type Stage struct {
	mu     sync.Mutex
	order  []*slot
	live   map[ID]*slot
	closed bool

	manager      *Manager
	placement    Placement
	newestOnTop  bool
	timeout      time.Duration
	transition   time.Duration
	pauseOnHover bool

	clock      clock.Clock
	dispatcher loop.Dispatcher
	observer   Observer
	logger     *slog.Logger

	unsubscribe func()
	subs        broadcast[[]View]
}

// slot is one visible toast. Slots are compared by pointer so a toast
// re-added under the ID of one that is still exiting gets its own slot.
type slot struct {
	rec  Record
	ctl  *Controller
	gone bool
}

// NewStage attaches a Stage to m and mounts a controller for every toast
// already on the stack. cfg supplies timing, placement and hover policy.
func NewStage(m *Manager, cfg *Config) *Stage {
	cfg = cfg.withDefaults()
	s := &Stage{
		live:         make(map[ID]*slot),
		manager:      m,
		placement:    cfg.Placement,
		newestOnTop:  cfg.NewestOnTop,
		timeout:      cfg.AutoDismissTimeout,
		transition:   cfg.TransitionDuration,
		pauseOnHover: cfg.PauseOnHover,
		clock:        cfg.Clock,
		dispatcher:   m.dispatcher,
		observer:     cfg.Observer,
		logger:       cfg.Logger.With("channel", m.Channel(), "component", "stage"),
	}
	s.unsubscribe = m.Subscribe(s.sync)
	s.sync(m.Toasts())
	return s
}

// Placement returns the configured placement.
func (s *Stage) Placement() Placement {
	return s.placement
}

// HasToasts reports whether anything is visible. The container uses it to
// decide whether to intercept pointer events.
func (s *Stage) HasToasts() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order) > 0
}

// Views returns the visible toasts in display order.
func (s *Stage) Views() []View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewsLocked()
}

// View returns the visible toast with the given ID. An exiting toast is
// still returned until its exit transition completes.
func (s *Stage) View(id ID) (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.findLocked(id)
	if sl == nil {
		return View{}, false
	}
	return s.viewLocked(sl), true
}

// Subscribe registers fn to receive the views after every visible change:
// stack mutations, phase changes and hover. fn runs on the dispatcher.
func (s *Stage) Subscribe(fn func([]View)) (unsubscribe func()) {
	return s.subs.subscribe(fn)
}

// PointerEnter reports that the pointer moved over a toast.
func (s *Stage) PointerEnter(id ID) {
	if ctl := s.controller(id); ctl != nil {
		ctl.PointerEnter()
		s.notify()
	}
}

// PointerLeave reports that the pointer left a toast.
func (s *Stage) PointerLeave(id ID) {
	if ctl := s.controller(id); ctl != nil {
		ctl.PointerLeave()
		s.notify()
	}
}

// Dismiss is the close button: it requests removal of the toast from the
// stack and starts its exit transition.
func (s *Stage) Dismiss(id ID) {
	if ctl := s.controller(id); ctl != nil {
		ctl.Dismiss()
	}
}

// Close detaches from the manager and unmounts every controller. Pending
// timers are released and no further callbacks run.
func (s *Stage) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	slots := s.order
	s.order = nil
	s.live = make(map[ID]*slot)
	s.mu.Unlock()

	s.unsubscribe()
	for _, sl := range slots {
		sl.ctl.Unmount()
	}
	s.subs.clear()
}

// sync reconciles the visible toasts with a manager snapshot.
func (s *Stage) sync(stack []Record) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	present := make(map[ID]Record, len(stack))
	for _, rec := range stack {
		present[rec.ID] = rec
	}

	var exits, updates []*slot
	for _, sl := range s.order {
		if sl.gone {
			continue
		}
		rec, ok := present[sl.rec.ID]
		if !ok {
			sl.gone = true
			delete(s.live, sl.rec.ID)
			exits = append(exits, sl)
			continue
		}
		sl.rec = rec
		updates = append(updates, sl)
	}

	var added []*slot
	for _, rec := range stack {
		if _, ok := s.live[rec.ID]; ok {
			continue
		}
		sl := &slot{rec: rec}
		sl.ctl = s.newController(sl)
		s.live[rec.ID] = sl
		added = append(added, sl)
	}
	if s.newestOnTop {
		s.order = append(added, s.order...)
	} else {
		s.order = append(s.order, added...)
	}
	s.mu.Unlock()

	for _, sl := range updates {
		sl.ctl.SetAutoDismiss(sl.rec.AutoDismiss)
	}
	for _, sl := range exits {
		sl.ctl.Exit()
	}
	for _, sl := range added {
		sl.ctl.Mount()
	}
	s.notify()
}

func (s *Stage) newController(sl *slot) *Controller {
	return NewController(ControllerConfig{
		ID:             sl.rec.ID,
		AutoDismiss:    sl.rec.AutoDismiss,
		DefaultTimeout: s.timeout,
		Transition:     s.transition,
		PauseOnHover:   s.pauseOnHover,
		Clock:          s.clock,
		Dispatcher:     s.dispatcher,
		OnDismiss: func(id ID, auto bool) {
			if auto {
				s.observer.ToastAutoDismissed(s.manager.Channel(), id)
			}
			s.manager.Remove(id, nil)
		},
		OnPhase: func(id ID, phase Phase) {
			s.phaseChanged(sl, phase)
		},
	})
}

func (s *Stage) phaseChanged(sl *slot, phase Phase) {
	s.observer.ToastPhase(s.manager.Channel(), sl.rec.ID, phase)
	if phase == PhaseExited {
		s.mu.Lock()
		for i, cur := range s.order {
			if cur == sl {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		if s.live[sl.rec.ID] == sl {
			delete(s.live, sl.rec.ID)
		}
		s.mu.Unlock()
		s.logger.Debug("toast exited", "toast_id", string(sl.rec.ID))
	}
	s.notify()
}

// controller returns the controller of the visible toast with the given
// ID, preferring a live toast over an exiting one.
func (s *Stage) controller(id ID) *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl := s.findLocked(id); sl != nil {
		return sl.ctl
	}
	return nil
}

func (s *Stage) findLocked(id ID) *slot {
	if sl, ok := s.live[id]; ok {
		return sl
	}
	for _, sl := range s.order {
		if sl.rec.ID == id {
			return sl
		}
	}
	return nil
}

func (s *Stage) viewsLocked() []View {
	out := make([]View, len(s.order))
	for i, sl := range s.order {
		out[i] = s.viewLocked(sl)
	}
	return out
}

func (s *Stage) viewLocked(sl *slot) View {
	return View{
		Record:    sl.rec.clone(),
		Phase:     sl.ctl.Phase(),
		Running:   sl.ctl.Running(),
		Remaining: sl.ctl.Remaining(),
	}
}

// notify publishes the current views on a later turn.
func (s *Stage) notify() {
	s.mu.Lock()
	if s.closed || s.subs.len() == 0 {
		s.mu.Unlock()
		return
	}
	views := s.viewsLocked()
	s.mu.Unlock()

	s.dispatcher.Dispatch(func() {
		s.subs.publish(views)
	})
}
