package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/toastkit/pkg/clock"
	"github.com/vango-dev/toastkit/pkg/toast"
	"github.com/vango-dev/toastkit/pkg/toasttest"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func metricHistogram(t *testing.T, o prometheus.Observer) *dto.Histogram {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram()
}

func TestMetricsRecordsStackActivity(t *testing.T) {
	clk := clock.NewVirtual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	m := Prometheus(WithRegistry(prometheus.NewRegistry()), WithClock(clk))

	m.ToastAdded("default", toast.Record{ID: "a", Appearance: toast.AppearanceSuccess})
	m.ToastAdded("default", toast.Record{ID: "b", Appearance: "promo"})
	m.ToastUpdated("default", toast.Record{ID: "a"})

	if got := metricGaugeValue(t, m.active.WithLabelValues("default")); got != 2 {
		t.Fatalf("toasts_active = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.added.WithLabelValues("default", "success")); got != 1 {
		t.Errorf("toasts_added_total(success) = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.added.WithLabelValues("default", "custom")); got != 1 {
		t.Errorf("toasts_added_total(custom) = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.updated.WithLabelValues("default")); got != 1 {
		t.Errorf("toasts_updated_total = %v, want 1", got)
	}

	clk.Advance(3 * time.Second)
	m.ToastAutoDismissed("default", "a")
	m.ToastRemoved("default", toast.Record{ID: "a"})

	if got := metricGaugeValue(t, m.active.WithLabelValues("default")); got != 1 {
		t.Errorf("toasts_active = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.removed.WithLabelValues("default")); got != 1 {
		t.Errorf("toasts_removed_total = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.autoDismissed.WithLabelValues("default")); got != 1 {
		t.Errorf("toasts_auto_dismissed_total = %v, want 1", got)
	}

	h := metricHistogram(t, m.visible.WithLabelValues("default"))
	if h.GetSampleCount() != 1 || h.GetSampleSum() != 3 {
		t.Errorf("toast_visible_seconds count=%d sum=%v, want 1 and 3", h.GetSampleCount(), h.GetSampleSum())
	}
}

func TestMetricsRemovalWithoutAddIsNotTimed(t *testing.T) {
	m := Prometheus(WithRegistry(prometheus.NewRegistry()))
	m.ToastRemoved("default", toast.Record{ID: "ghost"})

	if h := metricHistogram(t, m.visible.WithLabelValues("default")); h.GetSampleCount() != 0 {
		t.Errorf("visible histogram count = %d, want 0", h.GetSampleCount())
	}
}

func TestMetricsWithProvider(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Prometheus(WithRegistry(reg), WithNamespace("app"), WithConstLabels(prometheus.Labels{"env": "test"}))

	cfg := toast.DefaultConfig()
	cfg.AutoDismiss = true
	cfg.Observer = m
	h := toasttest.Start(t, cfg)

	h.Toasts.Success("one")
	h.Toasts.Error("two", toast.WithAutoDismiss(false))
	h.RunUntilIdle(time.Minute)

	if got := metricCounterValue(t, m.autoDismissed.WithLabelValues(toast.DefaultChannel)); got != 1 {
		t.Errorf("auto dismissed = %v, want 1", got)
	}
	if got := metricGaugeValue(t, m.active.WithLabelValues(toast.DefaultChannel)); got != 1 {
		t.Errorf("active = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.phases.WithLabelValues(toast.DefaultChannel, "exited")); got != 1 {
		t.Errorf("exited transitions = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.phases.WithLabelValues(toast.DefaultChannel, "entered")); got != 2 {
		t.Errorf("entered transitions = %v, want 2", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "app_toasts_added_total" {
			found = true
		}
	}
	if !found {
		t.Error("app_toasts_added_total not registered under the namespace")
	}
}

func TestAppearanceLabel(t *testing.T) {
	tests := map[toast.Appearance]string{
		"":                     "none",
		toast.AppearanceInfo:   "info",
		toast.AppearanceError:  "error",
		toast.Appearance("xx"): "custom",
	}
	for in, want := range tests {
		if got := appearanceLabel(in); got != want {
			t.Errorf("appearanceLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMetricsProviderCloseReleasesActive(t *testing.T) {
	m := Prometheus(WithRegistry(prometheus.NewRegistry()))
	cfg := toast.DefaultConfig()
	cfg.Observer = m

	h := toasttest.Start(t, cfg)
	h.Toasts.Add("one", nil)
	h.Toasts.Add("two", nil)
	h.Settle()
	if got := metricGaugeValue(t, m.active.WithLabelValues("default")); got != 2 {
		t.Fatalf("toasts_active = %v, want 2", got)
	}

	h.Close()

	if got := metricGaugeValue(t, m.active.WithLabelValues("default")); got != 0 {
		t.Errorf("toasts_active after Close = %v, want 0", got)
	}
	m.mu.Lock()
	tracked := len(m.addedAt)
	m.mu.Unlock()
	if tracked != 0 {
		t.Errorf("%d toasts still tracked after Close", tracked)
	}
}
