package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/loom/pkg/component"
	"github.com/vango-dev/loom/pkg/reactive"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "loom").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for flush and commit durations.
	// Default: prometheus.DefBuckets
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
		Namespace: "loom",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector records engine events into Prometheus metrics.
type Collector struct {
	recomputes     *prometheus.CounterVec
	effectRuns     *prometheus.CounterVec
	flushes        prometheus.Counter
	flushDuration  prometheus.Histogram
	flushRuns      prometheus.Histogram
	deferred       prometheus.Counter
	renders        *prometheus.CounterVec
	superseded     *prometheus.CounterVec
	renderErrors   *prometheus.CounterVec
	commits        *prometheus.CounterVec
	commitDuration prometheus.Histogram
	patchOps       prometheus.Counter
	patchOpsByKind *prometheus.CounterVec
	mountedTotal   prometheus.Counter
	destroyedTotal prometheus.Counter
}

var (
	_ reactive.Instrument  = (*Collector)(nil)
	_ component.Instrument = (*Collector)(nil)
)

// New creates a Collector and registers its metrics.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}
	counterVec := func(name, help, label string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, []string{label})
	}

	return &Collector{
		recomputes: counterVec("memo_recomputes_total",
			"Total number of memo re-evaluations", "label"),
		effectRuns: counterVec("effect_runs_total",
			"Total number of effect and observer runs", "label"),
		flushes: counter("flushes_total",
			"Total number of scheduler flushes"),
		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_duration_seconds",
			Help:        "Scheduler flush duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
		flushRuns: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "flush_effect_runs",
			Help:        "Effect runs per scheduler flush",
			ConstLabels: config.ConstLabels,
			Buckets:     []float64{0, 1, 5, 10, 50, 100, 1000, 10000},
		}),
		deferred: counter("effects_deferred_total",
			"Total number of effects deferred to the next tick by the storm budget"),
		renders: counterVec("renders_total",
			"Total number of component render tasks started", "component"),
		superseded: counterVec("renders_superseded_total",
			"Total number of render tasks dropped for a newer render", "component"),
		renderErrors: counterVec("render_errors_total",
			"Total number of render and lifecycle errors", "component"),
		commits: counterVec("commits_total",
			"Total number of committed render passes", "root"),
		commitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commit_duration_seconds",
			Help:        "Time from the start of a render pass to its commit in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
		patchOps: counter("patch_ops_total",
			"Total number of document patch operations"),
		patchOpsByKind: counterVec("patch_ops_by_kind_total",
			"Total number of document patch operations by operation", "op"),
		mountedTotal: counter("components_mounted_total",
			"Total number of components mounted"),
		destroyedTotal: counter("components_destroyed_total",
			"Total number of components destroyed"),
	}
}

func labelOf(s string) string {
	if s == "" {
		return "anonymous"
	}
	return s
}

// Recompute implements reactive.Instrument.
func (c *Collector) Recompute(label string) {
	c.recomputes.WithLabelValues(labelOf(label)).Inc()
}

// EffectRun implements reactive.Instrument.
func (c *Collector) EffectRun(label string) {
	c.effectRuns.WithLabelValues(labelOf(label)).Inc()
}

// Flush implements reactive.Instrument.
func (c *Collector) Flush(runs int, d time.Duration) {
	c.flushes.Inc()
	c.flushRuns.Observe(float64(runs))
	c.flushDuration.Observe(d.Seconds())
}

// Deferred implements reactive.Instrument.
func (c *Collector) Deferred(count int) {
	c.deferred.Add(float64(count))
}

// RenderStarted implements component.Instrument.
func (c *Collector) RenderStarted(name string) {
	c.renders.WithLabelValues(labelOf(name)).Inc()
}

// Superseded implements component.Instrument.
func (c *Collector) Superseded(name string) {
	c.superseded.WithLabelValues(labelOf(name)).Inc()
}

// RenderError implements component.Instrument.
func (c *Collector) RenderError(name string) {
	c.renderErrors.WithLabelValues(labelOf(name)).Inc()
}

// Committed implements component.Instrument.
func (c *Collector) Committed(ev component.CommitEvent) {
	c.commits.WithLabelValues(labelOf(ev.Root)).Inc()
	c.commitDuration.Observe(ev.Duration.Seconds())
	c.patchOps.Add(float64(ev.PatchOps))
	for op, n := range ev.PatchOpsByKind {
		c.patchOpsByKind.WithLabelValues(op).Add(float64(n))
	}
	c.mountedTotal.Add(float64(ev.Mounted))
	c.destroyedTotal.Add(float64(ev.Destroyed))
}
