package middleware

import (
	stderrors "errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/reactiveurl/pkg/query"
	"github.com/vango-dev/reactiveurl/pkg/reactive"
)

// MetricsConfig configures the Prometheus middleware.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "reactiveurl").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for change duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus middleware.
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

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "reactiveurl",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

type metrics struct {
	changesTotal   prometheus.Counter
	snapshotFields prometheus.Gauge
	changeDuration prometheus.Histogram
}

func newMetrics(config MetricsConfig) *metrics {
	return &metrics{
		changesTotal: register(config.Registry, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "changes_total",
			Help:        "Total number of field change notifications",
			ConstLabels: config.ConstLabels,
		})),

		snapshotFields: register(config.Registry, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "snapshot_fields",
			Help:        "Number of fields in the most recent change snapshot",
			ConstLabels: config.ConstLabels,
		})),

		changeDuration: register(config.Registry, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "change_duration_seconds",
			Help:        "Time spent in downstream change callbacks",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		})),
	}
}

// register adds c to reg. If an identical collector is already registered,
// that one is returned so repeated Prometheus calls share their series.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if stderrors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Prometheus counts change notifications and times the callbacks they drive.
//
// Metrics collected:
//   - reactiveurl_changes_total: Counter of change notifications
//   - reactiveurl_snapshot_fields: Gauge of fields in the latest snapshot
//   - reactiveurl_change_duration_seconds: Histogram of downstream callback time
//
// Expose them with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) Middleware {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}
	m := newMetrics(config)

	return func(next reactive.ChangeFunc) reactive.ChangeFunc {
		return func(q query.RawQuery) {
			m.changesTotal.Inc()
			m.snapshotFields.Set(float64(len(q)))

			start := time.Now()
			defer func() {
				m.changeDuration.Observe(time.Since(start).Seconds())
			}()
			next(q)
		}
	}
}
