// Package metrics exports reactive engine and render scheduler events as
// Prometheus metrics.
//
// A Collector implements both reactive.Instrument and component.Instrument,
// so one value passed to component.WithInstrument covers an App:
//
//	reg := prometheus.NewRegistry()
//	c := metrics.New(metrics.WithRegistry(reg), metrics.WithNamespace("myapp"))
//	app := component.New(Root, component.WithInstrument(c))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Metrics collected (namespace "loom" by default):
//   - memo_recomputes_total: memo re-evaluations by label
//   - effect_runs_total: effect and observer runs by label
//   - flushes_total, flush_duration_seconds, flush_effect_runs
//   - effects_deferred_total: effects pushed to the next tick by the storm budget
//   - renders_total, renders_superseded_total, render_errors_total by component
//   - commits_total by root, commit_duration_seconds, patch_ops_total
//   - components_mounted_total, components_destroyed_total
package metrics
