package component

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/loom/internal/errors"
	"github.com/vango-dev/loom/pkg/loop"
	"github.com/vango-dev/loom/pkg/reactive"
)

// PluginStart starts a plugin. deps holds the started values of the
// plugin's dependencies by id.
type PluginStart func(ctx context.Context, deps map[string]any) (any, error)

type pluginSpec struct {
	id    string
	deps  []string
	start PluginStart
}

type pluginSet struct {
	specs  map[string]*pluginSpec
	order  []string
	values *reactive.Map[string, any]
}

func newPluginSet() *pluginSet {
	return &pluginSet{specs: make(map[string]*pluginSpec)}
}

// RegisterPlugin registers a plugin started by StartPlugins after the
// plugins it depends on. Registering an id again replaces it.
func (a *App) RegisterPlugin(id string, start PluginStart, deps ...string) {
	ps := a.plugins
	if _, ok := ps.specs[id]; ok {
		a.logger.Warn("plugin registered twice, replacing", "plugin", id)
	} else {
		ps.order = append(ps.order, id)
	}
	ps.specs[id] = &pluginSpec{id: id, deps: slices.Clone(deps), start: start}
}

// StartPlugins starts every registered plugin that is not started yet and
// returns a future settled once all of them started or one failed. Plugins
// whose dependencies are satisfied start concurrently off the loop; their
// values are published on the loop. It must be called on the loop
// goroutine, or before the loop runs.
func (a *App) StartPlugins(ctx context.Context) *loop.Future[struct{}] {
	levels, err := a.plugins.levels()
	if err != nil {
		return loop.Rejected[struct{}](err)
	}
	f := loop.NewFuture[struct{}]()
	a.startLevels(ctx, levels, f)
	return f
}

// startLevels starts levels[0] and chains the remaining levels from the
// loop once it completed.
func (a *App) startLevels(ctx context.Context, levels [][]*pluginSpec, f *loop.Future[struct{}]) {
	if len(levels) == 0 {
		f.Resolve(struct{}{})
		return
	}
	level := levels[0]
	results := make([]any, len(level))
	deps := make([]map[string]any, len(level))
	a.rt.Untracked(func() {
		for i, spec := range level {
			deps[i] = make(map[string]any, len(spec.deps))
			for _, d := range spec.deps {
				deps[i][d], _ = a.plugins.values.Get(d)
			}
		}
	})

	a.loop.Go(ctx, func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		for i, spec := range level {
			g.Go(func() error {
				v, err := spec.start(gctx, deps[i])
				if err != nil {
					return fmt.Errorf("plugin %s: %w", spec.id, err)
				}
				results[i] = v
				return nil
			})
		}
		return g.Wait()
	}, func(err error) {
		if err != nil {
			f.Reject(err)
			return
		}
		a.rt.Batch(func() {
			for i, spec := range level {
				a.plugins.values.Set(spec.id, results[i])
			}
		})
		for _, spec := range level {
			a.logger.Debug("plugin started", "plugin", spec.id)
		}
		a.startLevels(ctx, levels[1:], f)
	})
}

// levels groups the unstarted plugins so that each group only depends on
// earlier groups or on started plugins.
func (ps *pluginSet) levels() ([][]*pluginSpec, error) {
	remaining := make(map[string]*pluginSpec)
	for _, id := range ps.order {
		spec := ps.specs[id]
		for _, d := range spec.deps {
			if _, ok := ps.specs[d]; !ok {
				return nil, errors.New("E106").
					WithDetail(fmt.Sprintf("plugin %q depends on unknown plugin %q", id, d))
			}
		}
		if !ps.values.Has(id) {
			remaining[id] = spec
		}
	}

	var levels [][]*pluginSpec
	for len(remaining) > 0 {
		var level []*pluginSpec
		for _, id := range ps.order {
			spec, ok := remaining[id]
			if !ok {
				continue
			}
			ready := true
			for _, d := range spec.deps {
				if _, pending := remaining[d]; pending {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, spec)
			}
		}
		if len(level) == 0 {
			ids := make([]string, 0, len(remaining))
			for _, id := range ps.order {
				if _, ok := remaining[id]; ok {
					ids = append(ids, id)
				}
			}
			return nil, errors.New("E107").WithDetail("cycle among: " + strings.Join(ids, ", "))
		}
		for _, spec := range level {
			delete(remaining, spec.id)
		}
		levels = append(levels, level)
	}
	return levels, nil
}

// Plugin returns a started plugin. Reading it subscribes the running
// computation, so a render that ran before the plugin started re-runs.
func (a *App) Plugin(id string) (any, error) {
	if _, ok := a.plugins.specs[id]; !ok {
		return nil, errors.New("E106").WithDetail(fmt.Sprintf("plugin %q", id))
	}
	v, ok := a.plugins.values.Get(id)
	if !ok {
		return nil, errors.New("E102").WithDetail(fmt.Sprintf("plugin %q", id))
	}
	return v, nil
}

// UsePlugin returns plugin id as a T. It panics when the plugin is unknown,
// not started or of another type; inside a render the panic reaches the
// component's error boundary.
func UsePlugin[T any](n *Node, id string) T {
	v, err := n.Plugin(id)
	if err != nil {
		panic(err)
	}
	t, ok := v.(T)
	if !ok {
		panic(errors.New("E102").WithDetail(fmt.Sprintf("plugin %q is a %T", id, v)))
	}
	return t
}
