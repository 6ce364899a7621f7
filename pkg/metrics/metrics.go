// Package metrics provides an observe.Observer that counts tracks and
// triggers with Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/observe/pkg/observe"
)

// Config configures the Prometheus observer.
type Config struct {
	// Namespace is the metrics namespace (default: "observe").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// Next receives every hook after it has been counted. nil drops them.
	Next observe.Observer
}

// Option configures the Prometheus observer.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// WithNext chains another observer after the counters.
func WithNext(next observe.Observer) Option {
	return func(c *Config) {
		c.Next = next
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "observe",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Observer counts hook calls by operation. Keys are deliberately not used
// as labels: they are unbounded.
type Observer struct {
	tracks   *prometheus.CounterVec
	triggers *prometheus.CounterVec
	next     observe.Observer
}

// New creates an Observer and registers its metrics:
//   - observe_tracks_total: Counter of tracks by op (get, has, iterate)
//   - observe_triggers_total: Counter of triggers by op (add, set, delete)
//   - observe_live_wrappers: Gauge of live wrappers by mode (reactive, readonly)
//
// Registration panics if the metrics already exist in the registry, so use
// one Observer per registry.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	observe.SetDefaultObserver(metrics.New(metrics.WithRegistry(reg)))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
func New(opts ...Option) *Observer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	o := &Observer{
		tracks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "tracks_total",
			Help:        "Total number of observed reads",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		triggers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "triggers_total",
			Help:        "Total number of change notifications",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		next: config.Next,
	}

	for mode, count := range map[string]func(observe.RegistryStats) int{
		"reactive": func(s observe.RegistryStats) int { return s.Reactive },
		"readonly": func(s observe.RegistryStats) int { return s.Readonly },
	} {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "live_wrappers",
			Help:        "Number of wrappers currently held by the registries",
			ConstLabels: withLabel(config.ConstLabels, "mode", mode),
		}, func() float64 {
			return float64(count(observe.Registries()))
		})
	}

	return o
}

func withLabel(labels prometheus.Labels, name, value string) prometheus.Labels {
	out := make(prometheus.Labels, len(labels)+1)
	for k, v := range labels {
		out[k] = v
	}
	out[name] = value
	return out
}

// Track counts a read.
func (o *Observer) Track(target *observe.Object, op observe.TrackOp, key observe.Key) {
	o.tracks.WithLabelValues(op.String()).Inc()
	if o.next != nil {
		o.next.Track(target, op, key)
	}
}

// Trigger counts a change notification.
func (o *Observer) Trigger(target *observe.Object, op observe.TriggerOp, key observe.Key) {
	o.triggers.WithLabelValues(op.String()).Inc()
	if o.next != nil {
		o.next.Trigger(target, op, key)
	}
}
