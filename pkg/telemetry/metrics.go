package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/toastkit/pkg/clock"
	"github.com/vango-dev/toastkit/pkg/toast"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "toastkit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for visible time in seconds.
	// Default: 0.5s to 5m.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// Clock measures how long toasts stay on the stack.
	// Default: clock.Real()
	Clock clock.Clock
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// WithClock sets the clock used to time toasts.
func WithClock(c clock.Clock) MetricsOption {
	return func(cfg *MetricsConfig) {
		cfg.Clock = c
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "toastkit",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 300},
		Registry:  prometheus.DefaultRegisterer,
		Clock:     clock.Real(),
	}
}

// Metrics is a toast.Observer that records Prometheus metrics.
//
// Metrics collected:
//   - toastkit_toasts_added_total: Counter of toasts added by channel and appearance
//   - toastkit_toasts_updated_total: Counter of updates by channel
//   - toastkit_toasts_removed_total: Counter of removals by channel
//   - toastkit_toasts_auto_dismissed_total: Counter of expired countdowns by channel
//   - toastkit_toasts_active: Gauge of toasts on the stack by channel
//   - toastkit_toast_phase_transitions_total: Counter of lifecycle phases by channel and phase
//   - toastkit_toast_visible_seconds: Histogram of time between add and removal
//
// Each Metrics registers its collectors once, so create one per registry
// and share it between providers through Config.Observer.
type Metrics struct {
	toast.NopObserver

	added         *prometheus.CounterVec
	updated       *prometheus.CounterVec
	removed       *prometheus.CounterVec
	autoDismissed *prometheus.CounterVec
	active        *prometheus.GaugeVec
	phases        *prometheus.CounterVec
	visible       *prometheus.HistogramVec

	clock clock.Clock

	mu      sync.Mutex
	addedAt map[toastKey]time.Time
}

type toastKey struct {
	channel string
	id      toast.ID
}

// Prometheus creates a Metrics observer.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	metrics := telemetry.Prometheus(telemetry.WithRegistry(reg))
//
//	cfg := toast.DefaultConfig()
//	cfg.Observer = metrics
//	p, err := toast.Provide(cfg)
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		added: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "toasts_added_total",
			Help:        "Total number of toasts added",
			ConstLabels: config.ConstLabels,
		}, []string{"channel", "appearance"}),

		updated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "toasts_updated_total",
			Help:        "Total number of toast updates",
			ConstLabels: config.ConstLabels,
		}, []string{"channel"}),

		removed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "toasts_removed_total",
			Help:        "Total number of toasts removed from the stack",
			ConstLabels: config.ConstLabels,
		}, []string{"channel"}),

		autoDismissed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "toasts_auto_dismissed_total",
			Help:        "Total number of toasts removed by an expired countdown",
			ConstLabels: config.ConstLabels,
		}, []string{"channel"}),

		active: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "toasts_active",
			Help:        "Number of toasts currently on the stack",
			ConstLabels: config.ConstLabels,
		}, []string{"channel"}),

		phases: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "toast_phase_transitions_total",
			Help:        "Total number of lifecycle phase transitions",
			ConstLabels: config.ConstLabels,
		}, []string{"channel", "phase"}),

		visible: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "toast_visible_seconds",
			Help:        "Time a toast spent on the stack in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"channel"}),

		clock:   config.Clock,
		addedAt: make(map[toastKey]time.Time),
	}
}

// ToastAdded implements toast.Observer.
func (m *Metrics) ToastAdded(channel string, rec toast.Record) {
	m.added.WithLabelValues(channel, appearanceLabel(rec.Appearance)).Inc()
	m.active.WithLabelValues(channel).Inc()

	m.mu.Lock()
	m.addedAt[toastKey{channel, rec.ID}] = m.clock.Now()
	m.mu.Unlock()
}

// ToastUpdated implements toast.Observer.
func (m *Metrics) ToastUpdated(channel string, _ toast.Record) {
	m.updated.WithLabelValues(channel).Inc()
}

// ToastRemoved implements toast.Observer.
func (m *Metrics) ToastRemoved(channel string, rec toast.Record) {
	m.removed.WithLabelValues(channel).Inc()
	m.active.WithLabelValues(channel).Dec()

	key := toastKey{channel, rec.ID}
	m.mu.Lock()
	start, ok := m.addedAt[key]
	delete(m.addedAt, key)
	m.mu.Unlock()

	if ok {
		m.visible.WithLabelValues(channel).Observe(m.clock.Now().Sub(start).Seconds())
	}
}

// ToastPhase implements toast.Observer.
func (m *Metrics) ToastPhase(channel string, _ toast.ID, phase toast.Phase) {
	m.phases.WithLabelValues(channel, phase.String()).Inc()
}

// ToastAutoDismissed implements toast.Observer.
func (m *Metrics) ToastAutoDismissed(channel string, _ toast.ID) {
	m.autoDismissed.WithLabelValues(channel).Inc()
}

// appearanceLabel keeps label cardinality bounded: custom appearances are
// reported as "custom".
func appearanceLabel(a toast.Appearance) string {
	switch {
	case a == "":
		return "none"
	case a.Known():
		return string(a)
	default:
		return "custom"
	}
}
