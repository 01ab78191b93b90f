// Package metrics exposes Prometheus collectors for the reconciler and the
// event system. A nil *Collector is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "fibers").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for commit duration.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
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

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "fibers",
		Buckets:   []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// NewConfig applies opts over the defaults.
func NewConfig(opts ...Option) Config {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

// Factory registers collectors named under a Config's namespace and
// subsystem, carrying its constant labels.
type Factory struct {
	config Config
	auto   promauto.Factory
}

// Factory returns a Factory registering with c.Registry.
func (c Config) Factory() Factory {
	return Factory{config: c, auto: promauto.With(c.Registry)}
}

func (f Factory) Counter(name, help string) prometheus.Counter {
	return f.auto.NewCounter(prometheus.CounterOpts(f.opts(name, help)))
}

func (f Factory) CounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return f.auto.NewCounterVec(prometheus.CounterOpts(f.opts(name, help)), labels)
}

func (f Factory) Gauge(name, help string) prometheus.Gauge {
	return f.auto.NewGauge(prometheus.GaugeOpts(f.opts(name, help)))
}

// Histogram uses the config's buckets.
func (f Factory) Histogram(name, help string) prometheus.Histogram {
	return f.auto.NewHistogram(f.histogramOpts(name, help))
}

func (f Factory) HistogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return f.auto.NewHistogramVec(f.histogramOpts(name, help), labels)
}

func (f Factory) opts(name, help string) prometheus.Opts {
	return prometheus.Opts{
		Namespace:   f.config.Namespace,
		Subsystem:   f.config.Subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: f.config.ConstLabels,
	}
}

func (f Factory) histogramOpts(name, help string) prometheus.HistogramOpts {
	o := f.opts(name, help)
	return prometheus.HistogramOpts{
		Namespace:   o.Namespace,
		Subsystem:   o.Subsystem,
		Name:        o.Name,
		Help:        o.Help,
		ConstLabels: o.ConstLabels,
		Buckets:     f.config.Buckets,
	}
}

// Pass outcomes.
const (
	OutcomeCommitted  = "committed"
	OutcomeAborted    = "aborted"
	OutcomeSuperseded = "superseded"
)

// Collector holds the Prometheus metrics.
type Collector struct {
	units          prometheus.Counter
	yields         prometheus.Counter
	passes         *prometheus.CounterVec
	commitDuration prometheus.Histogram
	effects        *prometheus.CounterVec
	mutations      prometheus.Counter
	dispatches     *prometheus.CounterVec
	handlers       *prometheus.CounterVec
}

// New creates and registers the collectors.
func New(opts ...Option) *Collector {
	f := NewConfig(opts...).Factory()
	return &Collector{
		units:          f.Counter("units_of_work_total", "Total number of fibers reconciled"),
		yields:         f.Counter("yields_total", "Total number of times the work loop suspended"),
		passes:         f.CounterVec("render_passes_total", "Total number of render passes by outcome", "outcome"),
		commitDuration: f.Histogram("commit_duration_seconds", "Commit phase duration in seconds"),
		effects:        f.CounterVec("effects_total", "Total number of committed effects by tag", "effect"),
		mutations:      f.Counter("host_mutations_total", "Total number of host property and listener mutations"),
		dispatches:     f.CounterVec("event_dispatches_total", "Total number of synthetic dispatches by event", "event"),
		handlers:       f.CounterVec("event_handlers_total", "Total number of synthetic handlers invoked by phase", "phase"),
	}
}

// UnitProcessed records one unit of work.
func (c *Collector) UnitProcessed() {
	if c == nil {
		return
	}
	c.units.Inc()
}

// Yielded records a work loop suspension.
func (c *Collector) Yielded() {
	if c == nil {
		return
	}
	c.yields.Inc()
}

// PassFinished records the outcome of a render pass.
func (c *Collector) PassFinished(outcome string) {
	if c == nil {
		return
	}
	c.passes.WithLabelValues(outcome).Inc()
}

// CommitObserved records a commit's duration.
func (c *Collector) CommitObserved(d time.Duration) {
	if c == nil {
		return
	}
	c.commitDuration.Observe(d.Seconds())
}

// EffectApplied records one committed effect.
func (c *Collector) EffectApplied(effect string) {
	if c == nil {
		return
	}
	c.effects.WithLabelValues(effect).Inc()
}

// MutationsApplied records n property or listener mutations.
func (c *Collector) MutationsApplied(n int) {
	if c == nil || n == 0 {
		return
	}
	c.mutations.Add(float64(n))
}

// Dispatched records one synthetic dispatch.
func (c *Collector) Dispatched(event string) {
	if c == nil {
		return
	}
	c.dispatches.WithLabelValues(event).Inc()
}

// HandlerInvoked records one synthetic handler call.
func (c *Collector) HandlerInvoked(phase string) {
	if c == nil {
		return
	}
	c.handlers.WithLabelValues(phase).Inc()
}
