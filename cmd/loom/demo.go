package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/loom/pkg/component"
	"github.com/vango-dev/loom/pkg/dom"
)

func demoCmd(opts *globalOptions) *cobra.Command {
	var (
		list    bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "demo [scenario]",
		Short: "Run a bundled scenario and print the document after each step",
		Long: `Run a bundled scenario in manual loop mode.

The scenario is mounted into an in-memory document, then each scripted
interaction is triggered and the loop is settled. The rendered HTML is
printed after every step.

Examples:
  loom demo
  loom demo todo
  loom demo --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				for _, name := range scenarioNames() {
					info("%-10s %s", name, scenarios[name]().description)
				}
				return nil
			}

			name := "counter"
			if len(args) > 0 {
				name = args[0]
			}
			sc, err := lookupScenario(name)
			if err != nil {
				return err
			}
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			setup := newRuntimeSetup(cfg, cmd.ErrOrStderr())
			app := component.New(sc.root, setup.options()...)
			defer app.Destroy()

			commits := 0
			app.OnCommit(func(component.CommitEvent) { commits++ })

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			out := cmd.OutOrStdout()
			err = runScenario(ctx, app, sc, func(label, html string) {
				fmt.Fprintf(out, "\033[36m%s\033[0m\n  %s\n", label, html)
			})
			if err != nil {
				return err
			}
			success("%s: %d steps, %d commits", sc.name, len(sc.steps), commits)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List available scenarios")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Abort if the scenario does not settle in time")

	return cmd
}

// runScenario mounts sc's root into a fresh document and plays its steps,
// settling the loop after each one. observe receives the document HTML
// after the mount and after every step.
func runScenario(ctx context.Context, app *component.App, sc *scenario, observe func(label, html string)) error {
	target := dom.NewElement("body")
	mounted := app.Mount(target)
	if err := app.Settle(ctx); err != nil {
		return err
	}
	if _, err := mounted.Result(); err != nil {
		return fmt.Errorf("mount %s: %w", sc.name, err)
	}
	observe("mount", target.InnerHTML())

	for _, st := range sc.steps {
		if err := st.run(app, target); err != nil {
			return fmt.Errorf("%s: %w", st.label, err)
		}
		if err := app.Settle(ctx); err != nil {
			return err
		}
		observe(st.label, target.InnerHTML())
	}
	return nil
}
