package toast

import (
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/vango-dev/toastkit/pkg/loop"
)

// Manager owns the ordered stack of one channel. It is the only writer of
// that stack; everything else reads snapshots.
//
// All methods are safe for concurrent use. Mutations take effect before
// the method returns; callbacks and subscribers run later on the
// dispatcher, in mutation order, even when the mutations come from
// different goroutines.
type Manager struct {
	mu      sync.Mutex
	entries []*entry
	closed  bool

	channel     string
	newestOnTop bool
	autoDismiss bool

	ids        IDGenerator
	dispatcher loop.Dispatcher
	observer   Observer
	logger     *slog.Logger

	// owned is the loop started when the Config had no Dispatcher.
	owned *loop.Loop

	subs broadcast[[]Record]
}

// entry is a record plus removal bookkeeping.
type entry struct {
	rec Record

	// dismissing is set while OnDismiss runs so the record's dismissal
	// path is taken only once.
	dismissing bool
}

// NewManager creates a standalone Manager. Most code should use Provide,
// which also wires a Stage. Unset fields fall back to their defaults;
// without a Dispatcher the Manager starts its own loop.Loop and stops it
// on Close.
//
// The Dispatcher must queue functions rather than run them inside
// Dispatch: the Manager dispatches while holding its lock.
func NewManager(cfg *Config) *Manager {
	cfg = cfg.withDefaults()
	logger := cfg.Logger.With("channel", cfg.Channel)

	m := &Manager{
		channel:     cfg.Channel,
		newestOnTop: cfg.NewestOnTop,
		autoDismiss: cfg.AutoDismiss,
		ids:         cfg.IDs,
		dispatcher:  cfg.Dispatcher,
		observer:    cfg.Observer,
		logger:      logger,
	}
	if m.dispatcher == nil {
		m.owned = loop.New(loop.WithLogger(logger))
		m.owned.Start()
		m.dispatcher = m.owned
	}
	return m
}

// Channel returns the channel name.
func (m *Manager) Channel() string {
	return m.channel
}

// Add puts a new toast on the stack and returns its ID. cb, if non-nil,
// receives the ID once subscribers have seen the new stack.
//
// Adding with WithID for an ID that is already live is a no-op and
// returns "".
func (m *Manager) Add(content any, cb Callback, opts ...Option) ID {
	d := applyOptions(Record{Content: content}, opts)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.logger.Warn("toast add on closed provider", "error", ErrProviderClosed)
		return ""
	}

	id := d.id
	if d.hasID {
		if m.findLocked(id) >= 0 {
			m.mu.Unlock()
			m.logger.Debug("toast add ignored, id already live", "toast_id", string(id))
			return ""
		}
	} else {
		id = m.ids.NewID()
		for m.findLocked(id) >= 0 {
			id = m.ids.NewID()
		}
	}

	rec := d.rec
	rec.ID = id
	rec.AutoDismiss = rec.AutoDismiss.resolve(m.autoDismiss)

	e := &entry{rec: rec}
	if m.newestOnTop {
		m.entries = append([]*entry{e}, m.entries...)
	} else {
		m.entries = append(m.entries, e)
	}
	m.commitLocked(id, cb)
	m.mu.Unlock()

	m.observer.ToastAdded(m.channel, rec.clone())
	return id
}

// Update shallow-merges opts into an existing toast. The toast keeps its
// ID and its position. Updating an unknown ID is a no-op.
func (m *Manager) Update(id ID, cb Callback, opts ...Option) {
	m.mu.Lock()
	idx := m.findLocked(id)
	if m.closed || idx < 0 || m.entries[idx].dismissing {
		m.mu.Unlock()
		m.logger.Debug("toast update ignored, id not live", "toast_id", string(id))
		return
	}

	e := m.entries[idx]
	d := applyOptions(e.rec.clone(), opts)
	rec := d.rec
	rec.ID = id
	rec.AutoDismiss = rec.AutoDismiss.resolve(m.autoDismiss)
	e.rec = rec
	m.commitLocked(id, cb)
	m.mu.Unlock()

	m.observer.ToastUpdated(m.channel, rec.clone())
}

// Remove takes a toast off the stack. The toast's OnDismiss runs first,
// synchronously and exactly once, while the toast is still present; cb
// runs after subscribers have seen the stack without it. Removing an
// unknown ID is a no-op.
func (m *Manager) Remove(id ID, cb Callback) {
	m.mu.Lock()
	idx := m.findLocked(id)
	if m.closed || idx < 0 || m.entries[idx].dismissing {
		m.mu.Unlock()
		m.logger.Debug("toast remove ignored, id not live", "toast_id", string(id))
		return
	}
	e := m.entries[idx]
	e.dismissing = true
	onDismiss := e.rec.OnDismiss
	m.mu.Unlock()

	if onDismiss != nil {
		m.protect("on dismiss", func() { onDismiss(id) })
	}

	m.mu.Lock()
	rec := e.rec
	// The entry may have moved while the lock was released.
	for i, cur := range m.entries {
		if cur == e {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
	m.commitLocked(id, cb)
	m.mu.Unlock()

	m.observer.ToastRemoved(m.channel, rec.clone())
}

// RemoveAll removes every toast through its own dismissal path, so each
// OnDismiss still runs once. Safe on an empty stack.
func (m *Manager) RemoveAll() {
	m.mu.Lock()
	ids := make([]ID, 0, len(m.entries))
	for _, e := range m.entries {
		ids = append(ids, e.rec.ID)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Remove(id, nil)
	}
}

// Has reports whether id is live.
func (m *Manager) Has(id ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findLocked(id) >= 0
}

// Len returns the number of live toasts.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Toasts returns a snapshot of the stack in display order. Modifying the
// snapshot does not affect the stack.
func (m *Manager) Toasts() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every mutation.
// fn runs on the dispatcher.
func (m *Manager) Subscribe(fn func([]Record)) (unsubscribe func()) {
	return m.subs.subscribe(fn)
}

// Close makes every later mutation a no-op and drops subscribers.
// Live records are discarded without running OnDismiss; the Observer
// still sees a ToastRemoved for each of them. Close is idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	discarded := m.entries
	m.entries = nil
	m.mu.Unlock()

	m.subs.clear()
	for _, e := range discarded {
		// A Remove in progress reports its own removal.
		if !e.dismissing {
			m.observer.ToastRemoved(m.channel, e.rec.clone())
		}
	}
	if m.owned != nil {
		m.owned.Close()
	}
}

// Closed reports whether Close was called.
func (m *Manager) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Manager) findLocked(id ID) int {
	for i, e := range m.entries {
		if e.rec.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) snapshotLocked() []Record {
	out := make([]Record, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.rec.clone()
	}
	return out
}

// commitLocked queues the current stack for subscribers, then cb. It is
// called with m.mu held so commits reach the dispatcher in mutation order.
func (m *Manager) commitLocked(id ID, cb Callback) {
	snapshot := m.snapshotLocked()
	m.dispatcher.Dispatch(func() {
		m.subs.publish(snapshot)
		if cb != nil {
			cb(id)
		}
	})
}

// protect runs fn, logging instead of propagating a panic so the removal
// it is part of still completes.
func (m *Manager) protect(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("toast callback panic",
				"callback", what,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}
