package toast

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/vango-dev/toastkit/pkg/loop"
)

func newTestManager(t *testing.T, mutate func(*Config)) (*Manager, *loop.Queue) {
	t.Helper()
	q := loop.NewQueue(nil)
	cfg := DefaultConfig()
	cfg.Dispatcher = q
	cfg.IDs = Sequence("t")
	if mutate != nil {
		mutate(cfg)
	}
	return NewManager(cfg), q
}

func ids(recs []Record) []ID {
	out := make([]ID, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestManagerGeneratedIDsAreDistinct(t *testing.T) {
	m, _ := newTestManager(t, func(c *Config) { c.IDs = UUIDs() })

	seen := make(map[ID]bool)
	for i := 0; i < 500; i++ {
		id := m.Add(i, nil)
		if id == "" {
			t.Fatalf("Add #%d returned empty id", i)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q after %d adds", id, i)
		}
		seen[id] = true
	}
	if m.Len() != 500 {
		t.Errorf("Len() = %d, want 500", m.Len())
	}
}

func TestManagerRegeneratesCollidingID(t *testing.T) {
	calls := 0
	gen := IDFunc(func() ID {
		calls++
		if calls <= 2 {
			return "same"
		}
		return ID(fmt.Sprintf("id-%d", calls))
	})
	m, _ := newTestManager(t, func(c *Config) { c.IDs = gen })

	first := m.Add("a", nil)
	second := m.Add("b", nil)
	if first != "same" {
		t.Fatalf("first id = %q, want same", first)
	}
	if second == "same" || second == "" {
		t.Fatalf("second id = %q, want a fresh id", second)
	}
}

func TestManagerDuplicateAddIsNoop(t *testing.T) {
	m, q := newTestManager(t, nil)

	cbCalls := 0
	first := m.Add("original", nil, WithID("x"))
	second := m.Add("other", func(ID) { cbCalls++ }, WithID("x"))
	q.Drain()

	if first != "x" {
		t.Errorf("first Add = %q, want x", first)
	}
	if second != "" {
		t.Errorf("duplicate Add = %q, want empty", second)
	}
	if cbCalls != 0 {
		t.Errorf("duplicate Add ran its callback %d times", cbCalls)
	}

	recs := m.Toasts()
	if len(recs) != 1 {
		t.Fatalf("stack has %d records, want 1", len(recs))
	}
	if recs[0].Content != "original" {
		t.Errorf("content = %v, want original", recs[0].Content)
	}
}

func TestManagerUnknownIDIsNoop(t *testing.T) {
	m, q := newTestManager(t, nil)
	m.Add("a", nil, WithID("a"))
	q.Drain()

	published := 0
	m.Subscribe(func([]Record) { published++ })

	called := false
	m.Remove("nonexistent", func(ID) { called = true })
	m.Update("nonexistent", func(ID) { called = true }, WithContent("z"))
	q.Drain()

	if called {
		t.Error("callback ran for unknown id")
	}
	if published != 0 {
		t.Errorf("subscribers notified %d times, want 0", published)
	}
	if got := ids(m.Toasts()); !slices.Equal(got, []ID{"a"}) {
		t.Errorf("stack = %v, want [a]", got)
	}
}

func TestManagerOrder(t *testing.T) {
	tests := []struct {
		name        string
		newestOnTop bool
		want        []ID
	}{
		{"insertion order", false, []ID{"A", "B", "C"}},
		{"newest on top", true, []ID{"C", "B", "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, q := newTestManager(t, func(c *Config) { c.NewestOnTop = tt.newestOnTop })
			for _, id := range []ID{"A", "B", "C"} {
				m.Add(string(id), nil, WithID(id))
			}
			if got := ids(m.Toasts()); !slices.Equal(got, tt.want) {
				t.Fatalf("order = %v, want %v", got, tt.want)
			}

			m.Update("B", nil, WithContent("B2"), WithAppearance(AppearanceError))
			q.Drain()

			recs := m.Toasts()
			if got := ids(recs); !slices.Equal(got, tt.want) {
				t.Errorf("order after update = %v, want %v", got, tt.want)
			}
			for _, r := range recs {
				if r.ID == "B" && (r.Content != "B2" || r.Appearance != AppearanceError) {
					t.Errorf("B = %+v, want updated content and appearance", r)
				}
			}
		})
	}
}

func TestManagerUpdateMergesShallowly(t *testing.T) {
	m, q := newTestManager(t, nil)
	m.Add("hello", nil,
		WithID("u"),
		WithAppearance(AppearanceInfo),
		WithField("progress", 10),
		WithField("title", "Upload"),
	)

	m.Update("u", nil, WithID("other"), WithField("progress", 80))
	q.Drain()

	if m.Has("other") {
		t.Fatal("Update changed the id")
	}
	recs := m.Toasts()
	if len(recs) != 1 {
		t.Fatalf("stack has %d records, want 1", len(recs))
	}
	r := recs[0]
	if r.ID != "u" || r.Content != "hello" || r.Appearance != AppearanceInfo {
		t.Errorf("known fields changed: %+v", r)
	}
	if v, _ := r.Field("progress"); v != 80 {
		t.Errorf("progress = %v, want 80", v)
	}
	if v, _ := r.Field("title"); v != "Upload" {
		t.Errorf("title = %v, want Upload", v)
	}
}

func TestManagerRemoveAllFiresEachOnDismissOnce(t *testing.T) {
	m, q := newTestManager(t, nil)

	counts := make(map[ID]int)
	onDismiss := func(id ID) { counts[id]++ }
	for i := 0; i < 4; i++ {
		m.Add(i, nil, WithOnDismiss(onDismiss))
	}

	m.RemoveAll()
	m.RemoveAll()
	q.Drain()

	if m.Len() != 0 {
		t.Fatalf("Len() = %d after RemoveAll, want 0", m.Len())
	}
	if len(counts) != 4 {
		t.Fatalf("OnDismiss ran for %d toasts, want 4", len(counts))
	}
	for id, n := range counts {
		if n != 1 {
			t.Errorf("OnDismiss(%s) ran %d times, want 1", id, n)
		}
	}
}

func TestManagerRemoveAllOnEmptyStack(t *testing.T) {
	m, q := newTestManager(t, nil)
	m.RemoveAll()
	if n := q.Drain(); n != 0 {
		t.Errorf("RemoveAll on empty stack queued %d functions", n)
	}
}

func TestManagerOnDismissRunsBeforePurge(t *testing.T) {
	m, q := newTestManager(t, nil)

	var order []string
	var presentDuringDismiss bool
	id := m.Add("x", nil, WithOnDismiss(func(id ID) {
		presentDuringDismiss = m.Has(id)
		order = append(order, "onDismiss")
		// Re-entrant removal of the toast being removed is ignored.
		m.Remove(id, func(ID) { order = append(order, "nested") })
	}))
	q.Drain()

	m.Subscribe(func([]Record) { order = append(order, "publish") })
	m.Remove(id, func(ID) { order = append(order, "callback") })

	if m.Has(id) {
		t.Error("Has() = true after Remove returned")
	}
	q.Drain()

	if !presentDuringDismiss {
		t.Error("record was already purged when OnDismiss ran")
	}
	want := []string{"onDismiss", "publish", "callback"}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestManagerOnDismissPanicStillRemoves(t *testing.T) {
	m, q := newTestManager(t, nil)
	id := m.Add("x", nil, WithOnDismiss(func(ID) { panic("boom") }))

	m.Remove(id, nil)
	q.Drain()

	if m.Has(id) {
		t.Error("toast survived a panicking OnDismiss")
	}
}

func TestManagerCallbacksRunAfterCommit(t *testing.T) {
	m, q := newTestManager(t, nil)

	var seen [][]ID
	m.Subscribe(func(recs []Record) { seen = append(seen, ids(recs)) })

	var cbID ID
	var stackAtCallback []ID
	id := m.Add("a", func(id ID) {
		cbID = id
		stackAtCallback = ids(m.Toasts())
	})

	if cbID != "" {
		t.Fatal("Add callback ran synchronously")
	}
	if !m.Has(id) {
		t.Fatal("Add not visible to Has before the callback")
	}

	q.Drain()
	if cbID != id {
		t.Errorf("callback id = %q, want %q", cbID, id)
	}
	if len(seen) != 1 || !slices.Equal(seen[0], []ID{id}) {
		t.Errorf("subscriber saw %v before callback, want [[%s]]", seen, id)
	}
	if !slices.Equal(stackAtCallback, []ID{id}) {
		t.Errorf("stack at callback = %v", stackAtCallback)
	}
}

func TestManagerPublishesInProgramOrder(t *testing.T) {
	m, q := newTestManager(t, nil)

	var seen [][]ID
	m.Subscribe(func(recs []Record) { seen = append(seen, ids(recs)) })

	a := m.Add("a", nil)
	b := m.Add("b", nil)
	m.Remove(a, nil)
	q.Drain()

	want := [][]ID{{a}, {a, b}, {b}}
	if len(seen) != len(want) {
		t.Fatalf("saw %d snapshots, want %d", len(seen), len(want))
	}
	for i := range want {
		if !slices.Equal(seen[i], want[i]) {
			t.Errorf("snapshot %d = %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestManagerSnapshotIsImmutable(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.Add("a", nil, WithID("a"), WithField("k", "v"))

	snap := m.Toasts()
	snap[0].Content = "mutated"
	snap[0].Extra["k"] = "mutated"
	snap = append(snap, Record{ID: "fake"})

	recs := m.Toasts()
	if len(recs) != 1 {
		t.Fatalf("stack has %d records, want 1", len(recs))
	}
	if recs[0].Content != "a" {
		t.Errorf("content = %v, want a", recs[0].Content)
	}
	if v, _ := recs[0].Field("k"); v != "v" {
		t.Errorf("extra k = %v, want v", v)
	}
}

func TestManagerResolvesAutoDismiss(t *testing.T) {
	m, _ := newTestManager(t, func(c *Config) { c.AutoDismiss = true })

	m.Add("inherit", nil, WithID("inherit"))
	m.Add("off", nil, WithID("off"), WithAutoDismiss(false))
	m.Add("after", nil, WithID("after"), WithAutoDismissAfter(2*time.Second))

	want := map[ID]string{"inherit": "on", "off": "off", "after": "2s"}
	for _, r := range m.Toasts() {
		if got := r.AutoDismiss.String(); got != want[r.ID] {
			t.Errorf("%s AutoDismiss = %s, want %s", r.ID, got, want[r.ID])
		}
	}
}

func TestManagerUnsubscribe(t *testing.T) {
	m, q := newTestManager(t, nil)
	n := 0
	unsubscribe := m.Subscribe(func([]Record) { n++ })

	m.Add("a", nil)
	q.Drain()
	unsubscribe()
	unsubscribe()
	m.Add("b", nil)
	q.Drain()

	if n != 1 {
		t.Errorf("subscriber ran %d times, want 1", n)
	}
}

func TestManagerClosedIgnoresMutations(t *testing.T) {
	m, q := newTestManager(t, nil)
	dismissed := false
	m.Add("a", nil, WithOnDismiss(func(ID) { dismissed = true }))
	m.Close()

	if id := m.Add("b", nil); id != "" {
		t.Errorf("Add after Close = %q, want empty", id)
	}
	m.RemoveAll()
	q.Drain()

	if m.Len() != 0 {
		t.Errorf("Len() = %d after Close, want 0", m.Len())
	}
	if dismissed {
		t.Error("Close ran OnDismiss")
	}
	if !m.Closed() {
		t.Error("Closed() = false")
	}
}

// gateObserver holds ToastAdded for one ID until release is closed.
type gateObserver struct {
	NopObserver
	hold     ID
	entered  chan struct{}
	release  chan struct{}
	removals []ID
}

func newGateObserver(hold ID) *gateObserver {
	return &gateObserver{hold: hold, entered: make(chan struct{}), release: make(chan struct{})}
}

func (o *gateObserver) ToastAdded(_ string, rec Record) {
	if rec.ID == o.hold {
		close(o.entered)
		<-o.release
	}
}

func (o *gateObserver) ToastRemoved(_ string, rec Record) {
	o.removals = append(o.removals, rec.ID)
}

func TestManagerPublishesInMutationOrderAcrossGoroutines(t *testing.T) {
	obs := newGateObserver("a")
	m, q := newTestManager(t, func(c *Config) { c.Observer = obs })

	var seen [][]ID
	m.Subscribe(func(recs []Record) { seen = append(seen, ids(recs)) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Add("a", nil, WithID("a"))
	}()

	// "a" is on the stack but its Add has not returned yet.
	<-obs.entered
	m.Add("b", nil, WithID("b"))
	close(obs.release)
	<-done
	q.Drain()

	want := [][]ID{{"a"}, {"a", "b"}}
	if len(seen) != len(want) {
		t.Fatalf("saw %v, want %v", seen, want)
	}
	for i := range want {
		if !slices.Equal(seen[i], want[i]) {
			t.Errorf("snapshot %d = %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestManagerOwnLoopRunsCallbacksLater(t *testing.T) {
	m := NewManager(&Config{IDs: Sequence("t")})
	defer m.Close()

	release := make(chan struct{})
	ran := make(chan ID, 1)
	returned := make(chan ID)
	go func() {
		returned <- m.Add("a", func(id ID) {
			<-release
			ran <- id
		})
	}()

	var id ID
	select {
	case id = <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Add blocked on its completion callback")
	}
	close(release)

	select {
	case got := <-ran:
		if got != id {
			t.Errorf("callback id = %q, want %q", got, id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("completion callback never ran")
	}
}

func TestManagerCloseReportsDiscardedToasts(t *testing.T) {
	obs := newGateObserver("")
	m, _ := newTestManager(t, func(c *Config) { c.Observer = obs })
	m.Add("a", nil, WithID("a"))
	m.Add("b", nil, WithID("b"))

	m.Close()
	m.Close()

	if want := []ID{"a", "b"}; !slices.Equal(obs.removals, want) {
		t.Errorf("removals after Close = %v, want %v", obs.removals, want)
	}
}
