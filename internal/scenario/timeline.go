package scenario

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/vango-dev/toastkit/pkg/clock"
	"github.com/vango-dev/toastkit/pkg/toast"
)

// EventKind classifies timeline entries.
type EventKind string

const (
	EventStep          EventKind = "step"
	EventAdded         EventKind = "added"
	EventUpdated       EventKind = "updated"
	EventRemoved       EventKind = "removed"
	EventPhase         EventKind = "phase"
	EventAutoDismissed EventKind = "auto-dismissed"
)

// Event is one timeline entry.
type Event struct {
	// At is the time since the run started.
	At      time.Duration
	Kind    EventKind
	Channel string
	ID      toast.ID

	// Phase is set for EventPhase.
	Phase toast.Phase

	// Detail is the step action or the toast content.
	Detail string
}

func (e Event) String() string {
	label := string(e.Kind)
	if e.Kind == EventPhase {
		label = e.Phase.String()
	}
	s := fmt.Sprintf("%8.3fs %-14s %s", e.At.Seconds(), label, e.ID)
	if e.Detail != "" {
		s += " " + e.Detail
	}
	return s
}

var (
	stepColor    = color.New(color.FgHiBlack)
	addedColor   = color.New(color.FgGreen, color.Bold)
	updatedColor = color.New(color.FgBlue)
	removedColor = color.New(color.FgRed)
	phaseColor   = color.New(color.FgCyan)
	autoColor    = color.New(color.FgYellow, color.Bold)
)

func (e Event) color() *color.Color {
	switch e.Kind {
	case EventStep:
		return stepColor
	case EventAdded:
		return addedColor
	case EventUpdated:
		return updatedColor
	case EventRemoved:
		return removedColor
	case EventAutoDismissed:
		return autoColor
	default:
		return phaseColor
	}
}

// Recorder is a toast.Observer that collects a timeline and, when it has
// a writer, prints each entry as it happens.
type Recorder struct {
	toast.NopObserver

	mu      sync.Mutex
	clock   clock.Clock
	start   time.Time
	out     io.Writer
	events  []Event
	stopped bool
}

// NewRecorder creates a Recorder printing to out, which may be nil.
func NewRecorder(out io.Writer) *Recorder {
	return &Recorder{out: out, clock: clock.Real()}
}

// Start sets the time source and makes now the zero of the timeline.
func (r *Recorder) Start(clk clock.Clock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = clk
	r.start = clk.Now()
}

// Events returns a copy of the timeline so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Stop ends the timeline. Events reported afterwards, such as the
// removals of a provider teardown, are ignored.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
}

// Step records a scripted action.
func (r *Recorder) Step(st Step) {
	r.record(Event{Kind: EventStep, ID: st.TargetID(), Detail: string(st.Action())})
}

func (r *Recorder) ToastAdded(channel string, rec toast.Record) {
	r.record(Event{Kind: EventAdded, Channel: channel, ID: rec.ID, Detail: describe(rec)})
}

func (r *Recorder) ToastUpdated(channel string, rec toast.Record) {
	r.record(Event{Kind: EventUpdated, Channel: channel, ID: rec.ID, Detail: describe(rec)})
}

func (r *Recorder) ToastRemoved(channel string, rec toast.Record) {
	r.record(Event{Kind: EventRemoved, Channel: channel, ID: rec.ID})
}

func (r *Recorder) ToastPhase(channel string, id toast.ID, phase toast.Phase) {
	r.record(Event{Kind: EventPhase, Channel: channel, ID: id, Phase: phase})
}

func (r *Recorder) ToastAutoDismissed(channel string, id toast.ID) {
	r.record(Event{Kind: EventAutoDismissed, Channel: channel, ID: id})
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}

	e.At = r.clock.Now().Sub(r.start)
	r.events = append(r.events, e)
	if r.out != nil {
		fmt.Fprintln(r.out, e.color().Sprint(e.String()))
	}
}

func describe(rec toast.Record) string {
	s := fmt.Sprintf("%q", fmt.Sprint(rec.Content))
	if rec.Appearance != "" {
		s = string(rec.Appearance) + " " + s
	}
	if rec.AutoDismiss.Enabled() {
		s += " (" + rec.AutoDismiss.String() + ")"
	}
	return s
}
