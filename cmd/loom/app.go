package main

import (
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/loom/internal/config"
	"github.com/vango-dev/loom/internal/logging"
	"github.com/vango-dev/loom/pkg/component"
	"github.com/vango-dev/loom/pkg/metrics"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	dir       string
	overrides []string
}

// load reads the configuration, applies --set overrides and validates it.
func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.dir)
	if err != nil {
		return nil, err
	}
	if len(o.overrides) > 0 {
		values, err := config.ParseOverrides(o.overrides)
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplyOverrides(values); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runtimeSetup is what a command needs to build Apps from a config.
type runtimeSetup struct {
	cfg       *config.Config
	logger    *slog.Logger
	registry  *prometheus.Registry
	collector *metrics.Collector
}

func newRuntimeSetup(cfg *config.Config, logOut io.Writer) *runtimeSetup {
	s := &runtimeSetup{
		cfg:    cfg,
		logger: logging.FromConfig(logOut, cfg),
	}
	if cfg.Metrics.Enabled {
		s.registry = prometheus.NewRegistry()
		s.collector = metrics.New(
			metrics.WithRegistry(s.registry),
			metrics.WithNamespace(cfg.Metrics.Namespace),
		)
	}
	return s
}

// options translates the configuration into App options.
func (s *runtimeSetup) options(extra ...component.Option) []component.Option {
	opts := []component.Option{
		component.WithLogger(s.logger),
		component.WithMaxEffectRunsPerFlush(s.cfg.Scheduler.MaxEffectRunsPerFlush),
		component.WithMaxErrorsPerPass(s.cfg.Scheduler.MaxErrorsPerPass),
	}
	if s.collector != nil {
		opts = append(opts, component.WithInstrument(s.collector))
	}
	if s.cfg.Tracing.Enabled {
		opts = append(opts, component.WithTracer(otel.Tracer(s.cfg.Tracing.TracerName)))
	} else {
		opts = append(opts, component.WithTracer(noop.NewTracerProvider().Tracer("")))
	}
	return append(opts, extra...)
}
