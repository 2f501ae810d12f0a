package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/loom/pkg/component"
	"github.com/vango-dev/loom/pkg/dom"
	"github.com/vango-dev/loom/pkg/metrics"
	"github.com/vango-dev/loom/pkg/reactive"
	"github.com/vango-dev/loom/pkg/vdom"
)

type benchOptions struct {
	cells       int
	updates     int
	settleEvery int
	timeout     time.Duration
}

type benchResult struct {
	Updates  int
	Commits  int
	Rendered int
	PatchOps int
	Elapsed  time.Duration
}

func benchCmd(opts *globalOptions) *cobra.Command {
	bo := benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure render scheduling under a stream of signal updates",
		Long: `Mount a grid of cell components, each subscribed to its own signal,
then write the signals round-robin. Updates between two settles are
coalesced into as few render passes as the scheduler allows.

Examples:
  loom bench
  loom bench --cells 500 --updates 10000 --settle-every 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if bo.cells < 1 || bo.updates < 1 || bo.settleEvery < 1 {
				return fmt.Errorf("--cells, --updates and --settle-every must be positive")
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			setup := newRuntimeSetup(cfg, cmd.ErrOrStderr())
			if setup.collector == nil {
				setup.registry = prometheus.NewRegistry()
				setup.collector = metrics.New(
					metrics.WithRegistry(setup.registry),
					metrics.WithNamespace(cfg.Metrics.Namespace),
				)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), bo.timeout)
			defer cancel()

			res, err := runBench(ctx, setup, bo)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			success("%d updates over %d cells in %s", res.Updates, bo.cells, res.Elapsed.Round(time.Microsecond))
			info("commits:        %d", res.Commits)
			info("tasks rendered: %d", res.Rendered)
			info("patch ops:      %d", res.PatchOps)
			if res.Commits > 0 {
				info("per commit:     %s", (res.Elapsed / time.Duration(res.Commits)).Round(time.Microsecond))
			}
			fmt.Fprintln(out)
			return printCounters(out, setup.registry)
		},
	}

	cmd.Flags().IntVar(&bo.cells, "cells", 100, "Number of cell components")
	cmd.Flags().IntVar(&bo.updates, "updates", 1000, "Number of signal writes")
	cmd.Flags().IntVar(&bo.settleEvery, "settle-every", 1, "Settle the loop after this many writes")
	cmd.Flags().DurationVar(&bo.timeout, "timeout", time.Minute, "Abort if the benchmark does not finish in time")

	return cmd
}

func runBench(ctx context.Context, setup *runtimeSetup, bo benchOptions) (benchResult, error) {
	var signals []*reactive.Signal[int]

	Cell := component.Static("Cell", func(c *component.Node) *vdom.VNode {
		s, _ := c.Prop("value").(*reactive.Signal[int])
		return vdom.Td(vdom.Textf("%d", s.Get()))
	})
	Grid := component.Define("Grid", func(c *component.Node) component.RenderFunc {
		signals = make([]*reactive.Signal[int], bo.cells)
		for i := range signals {
			signals[i] = reactive.NewSignal(c.Runtime(), 0).WithLabel("cell")
		}
		return func() *vdom.VNode {
			row := make([]*vdom.VNode, len(signals))
			for i, s := range signals {
				row[i] = Cell.Keyed(strconv.Itoa(i), vdom.Props{"value": s})
			}
			return vdom.Table(vdom.Tr(row))
		}
	})

	app := component.New(Grid, setup.options()...)
	defer app.Destroy()

	var res benchResult
	app.OnCommit(func(ev component.CommitEvent) {
		res.Commits++
		res.Rendered += ev.Rendered
		res.PatchOps += ev.PatchOps
	})

	mounted := app.Mount(dom.NewElement("body"))
	if err := app.Settle(ctx); err != nil {
		return res, err
	}
	if _, err := mounted.Result(); err != nil {
		return res, err
	}
	res.Commits, res.Rendered, res.PatchOps = 0, 0, 0

	start := time.Now()
	for i := 0; i < bo.updates; i++ {
		s := signals[i%len(signals)]
		s.Set(s.Peek() + 1)
		if (i+1)%bo.settleEvery == 0 || i == bo.updates-1 {
			if err := app.Settle(ctx); err != nil {
				return res, err
			}
		}
	}
	res.Elapsed = time.Since(start)
	res.Updates = bo.updates
	return res, nil
}

// printCounters writes every counter family in g with its summed value.
func printCounters(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, mf := range families {
		var total float64
		counted := false
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				total += c.GetValue()
				counted = true
			}
		}
		if counted {
			fmt.Fprintf(w, "  %-42s %.0f\n", mf.GetName(), total)
		}
	}
	return nil
}
