package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/loom/pkg/component"
	"github.com/vango-dev/loom/pkg/dom"
	"github.com/vango-dev/loom/pkg/reactive"
	"github.com/vango-dev/loom/pkg/vdom"
)

func TestCollector_DirectEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(WithRegistry(reg), WithNamespace("test"))

	c.Recompute("total")
	c.Recompute("")
	c.EffectRun("logger")
	c.Flush(3, 2*time.Millisecond)
	c.Deferred(7)
	c.Superseded("List")
	c.RenderError("List")
	c.Committed(component.CommitEvent{
		Root: "App", PatchOps: 4, Mounted: 2, Destroyed: 1,
		PatchOpsByKind: map[string]int{"SetText": 3, "MoveNode": 1},
	})

	tests := []struct {
		name   string
		metric prometheus.Collector
		want   float64
	}{
		{"recomputes by label", c.recomputes.WithLabelValues("total"), 1},
		{"anonymous label", c.recomputes.WithLabelValues("anonymous"), 1},
		{"effect runs", c.effectRuns.WithLabelValues("logger"), 1},
		{"flushes", c.flushes, 1},
		{"deferred", c.deferred, 7},
		{"superseded", c.superseded.WithLabelValues("List"), 1},
		{"render errors", c.renderErrors.WithLabelValues("List"), 1},
		{"commits", c.commits.WithLabelValues("App"), 1},
		{"patch ops", c.patchOps, 4},
		{"patch ops by kind", c.patchOpsByKind.WithLabelValues("SetText"), 3},
		{"mounted", c.mountedTotal, 2},
		{"destroyed", c.destroyedTotal, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.metric); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if n := testutil.CollectAndCount(c.flushDuration); n != 1 {
		t.Errorf("flush_duration_seconds series = %d, want 1", n)
	}
}

func TestCollector_WiredIntoApp(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(WithRegistry(reg))

	var count *reactive.Signal[int]
	Child := component.Static("Child", func(*component.Node) *vdom.VNode {
		return vdom.Textf("%d", count.Get())
	})
	Root := component.Static("Root", func(*component.Node) *vdom.VNode {
		return vdom.Div(Child.Placeholder(nil))
	})

	app := component.New(Root, component.WithInstrument(c))
	count = reactive.NewSignal(app.Runtime(), 0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f := app.Mount(dom.NewElement("main"))
	if err := app.Settle(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Result(); err != nil {
		t.Fatalf("mount: %v", err)
	}

	count.Set(1)
	if err := app.Settle(ctx); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(c.renders.WithLabelValues("Root")); got != 1 {
		t.Errorf("renders_total{Root} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.renders.WithLabelValues("Child")); got != 2 {
		t.Errorf("renders_total{Child} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.patchOpsByKind.WithLabelValues("ReplaceNode")); got != 2 {
		t.Errorf("patch_ops_by_kind_total{ReplaceNode} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.patchOpsByKind.WithLabelValues("SetText")); got != 1 {
		t.Errorf("patch_ops_by_kind_total{SetText} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.mountedTotal); got != 2 {
		t.Errorf("components_mounted_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.effectRuns.WithLabelValues("Child")); got != 1 {
		t.Errorf("effect_runs_total{Child} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.flushes); got < 1 {
		t.Errorf("flushes_total = %v, want at least 1", got)
	}

	names, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, mf := range names {
		if mf.GetName() == "loom_commits_total" {
			found = true
		}
	}
	if !found {
		t.Error("loom_commits_total not registered")
	}
}
