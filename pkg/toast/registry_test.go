package toast_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/vango-dev/toastkit/pkg/toast"
	"github.com/vango-dev/toastkit/pkg/toasttest"
)

func TestUseWithoutProvider(t *testing.T) {
	r := toast.NewRegistry()

	h, err := r.Use("notifications")
	if h != nil {
		t.Error("Use returned a handle without a provider")
	}
	if !errors.Is(err, toast.ErrNoProvider) {
		t.Fatalf("err = %v, want ErrNoProvider", err)
	}
	var chErr *toast.ChannelError
	if !errors.As(err, &chErr) || chErr.Channel != "notifications" || chErr.Op != "use" {
		t.Errorf("err = %#v, want ChannelError for notifications/use", err)
	}
}

func TestMustUsePanicsWithoutProvider(t *testing.T) {
	r := toast.NewRegistry()

	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("MustUse did not panic")
		}
		err, ok := rec.(error)
		if !ok || !errors.Is(err, toast.ErrNoProvider) {
			t.Errorf("panic value = %v, want ErrNoProvider", rec)
		}
	}()
	r.MustUse("")
}

func TestProvideTwiceFails(t *testing.T) {
	r := toast.NewRegistry()
	p, err := r.Provide(nil)
	if err != nil {
		t.Fatalf("Provide: %v", err)
	}
	defer p.Close()

	if _, err := r.Provide(toast.DefaultConfig()); !errors.Is(err, toast.ErrChannelExists) {
		t.Errorf("second Provide err = %v, want ErrChannelExists", err)
	}

	p.Close()
	p2, err := r.Provide(nil)
	if err != nil {
		t.Fatalf("Provide after Close: %v", err)
	}
	p2.Close()
}

func TestProvideRejectsInvalidConfig(t *testing.T) {
	r := toast.NewRegistry()
	cfg := toast.DefaultConfig()
	cfg.Placement = "middle"

	if _, err := r.Provide(cfg); !errors.Is(err, toast.ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
	if len(r.Channels()) != 0 {
		t.Errorf("Channels() = %v after failed Provide", r.Channels())
	}
}

func TestHandlesShareOneManager(t *testing.T) {
	h := toasttest.Start(t, nil)

	a := h.Registry.MustUse("")
	b, err := h.Registry.Use(toast.DefaultChannel)
	if err != nil {
		t.Fatalf("Use: %v", err)
	}

	id := a.Add("from a", nil)
	if !b.Has(id) {
		t.Fatal("handle b does not see a toast added through handle a")
	}
	b.Remove(id, nil)
	if a.Has(id) {
		t.Error("handle a still sees a toast removed through handle b")
	}
}

func TestChannelsAreIsolated(t *testing.T) {
	h := toasttest.Start(t, nil)

	cfg := toast.DefaultConfig()
	cfg.Channel = "sidebar"
	cfg.Clock = h.Clock
	cfg.Dispatcher = h.Queue
	side, err := h.Registry.Provide(cfg)
	if err != nil {
		t.Fatalf("Provide sidebar: %v", err)
	}
	defer side.Close()

	h.Toasts.Add("main", nil, toast.WithID("x"))
	sidebar := h.Registry.MustUse("sidebar")
	if sidebar.Has("x") {
		t.Fatal("sidebar sees a toast from the default channel")
	}
	if id := sidebar.Add("side", nil, toast.WithID("x")); id != "x" {
		t.Errorf("same id on another channel = %q, want x", id)
	}

	h.Toasts.RemoveAll()
	if !sidebar.Has("x") {
		t.Error("RemoveAll on default channel affected sidebar")
	}
	if got := h.Registry.Channels(); !slices.Equal(got, []string{"default", "sidebar"}) {
		t.Errorf("Channels() = %v", got)
	}
}

func TestProviderCloseReleasesEverything(t *testing.T) {
	h := toasttest.Start(t, autoDismissConfig())

	dismissed := 0
	for i := 0; i < 3; i++ {
		h.Toasts.Add(i, nil, toast.WithOnDismiss(func(toast.ID) { dismissed++ }))
	}
	h.Advance(transition)
	if h.Clock.Pending() == 0 {
		t.Fatal("expected running countdowns before Close")
	}

	h.Close()

	if h.Clock.Pending() != 0 {
		t.Errorf("%d timers pending after Close", h.Clock.Pending())
	}
	h.Advance(time.Hour)
	if dismissed != 0 {
		t.Errorf("OnDismiss ran %d times after Close", dismissed)
	}
	if _, err := h.Registry.Use(""); !errors.Is(err, toast.ErrNoProvider) {
		t.Errorf("Use after Close err = %v, want ErrNoProvider", err)
	}
	if !h.Toasts.Closed() {
		t.Error("handle not closed")
	}
	if id := h.Toasts.Add("late", nil); id != "" {
		t.Errorf("Add on closed handle = %q, want empty", id)
	}
}

func TestProviderOwnLoop(t *testing.T) {
	r := toast.NewRegistry()
	cfg := toast.DefaultConfig()
	cfg.Channel = "realtime"
	cfg.AutoDismiss = true
	cfg.AutoDismissTimeout = 20 * time.Millisecond
	cfg.TransitionDuration = 5 * time.Millisecond

	p, err := r.Provide(cfg)
	if err != nil {
		t.Fatalf("Provide: %v", err)
	}
	defer p.Close()

	added := make(chan toast.ID, 1)
	dismissed := make(chan toast.ID, 1)
	handle := r.MustUse("realtime")
	id := handle.Add("hello", func(id toast.ID) { added <- id },
		toast.WithOnDismiss(func(id toast.ID) { dismissed <- id }))

	select {
	case got := <-added:
		if got != id {
			t.Errorf("callback id = %q, want %q", got, id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("add callback did not run")
	}

	select {
	case got := <-dismissed:
		if got != id {
			t.Errorf("dismissed id = %q, want %q", got, id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("toast was not auto-dismissed")
	}

	deadline := time.Now().Add(2 * time.Second)
	for handle.Has(id) {
		if time.Now().After(deadline) {
			t.Fatal("toast still on the stack after OnDismiss")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPackageLevelRegistry(t *testing.T) {
	cfg := toast.DefaultConfig()
	cfg.Channel = "package-level-test"
	p, err := toast.Provide(cfg)
	if err != nil {
		t.Fatalf("Provide: %v", err)
	}
	defer p.Close()

	if _, err := toast.Use("package-level-test"); err != nil {
		t.Errorf("Use: %v", err)
	}
	if toast.MustUse("package-level-test") != p.Handle() {
		t.Error("MustUse returned a different handle")
	}
	if _, ok := toast.DefaultRegistry.Lookup("package-level-test"); !ok {
		t.Error("Lookup did not find the provider")
	}
}
