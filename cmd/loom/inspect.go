package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/loom/pkg/component"
	"github.com/vango-dev/loom/pkg/devtools"
	"github.com/vango-dev/loom/pkg/dom"
	"github.com/vango-dev/loom/pkg/loop"
)

func inspectCmd(opts *globalOptions) *cobra.Command {
	var (
		addr   string
		replay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "inspect [scenario]",
		Short: "Serve the devtools inspector for a running scenario",
		Long: `Mount a bundled scenario on a running loop and serve the devtools
inspector over HTTP:

  GET  /tree      component tree snapshot (JSON)
  GET  /html      rendered document
  GET  /events    websocket stream of commit events
  POST /render    re-render the root (?deep=true for a deep render)
  GET  /metrics   Prometheus metrics (when metrics are enabled)

With --replay the scenario's scripted steps are played in a loop.

Examples:
  loom inspect todo --replay 2s
  loom inspect --addr :7070 --set metrics.enabled=true`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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
			if addr == "" {
				addr = cfg.Devtools.Addr
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case <-sigCh:
					info("Shutting down...")
					cancel()
				case <-ctx.Done():
				}
			}()

			setup := newRuntimeSetup(cfg, cmd.ErrOrStderr())
			return serveInspector(ctx, setup, sc, addr, replay)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: devtools.addr from config)")
	cmd.Flags().DurationVar(&replay, "replay", 0, "Replay the scenario steps at this interval")

	return cmd
}

// serveInspector runs the App loop, the devtools server and the optional
// replay driver until ctx is cancelled or one of them fails.
func serveInspector(ctx context.Context, setup *runtimeSetup, sc *scenario, addr string, replay time.Duration) error {
	app := component.New(sc.root, setup.options()...)

	var dtOpts []devtools.Option
	dtOpts = append(dtOpts, devtools.WithLogger(setup.logger))
	if setup.registry != nil {
		dtOpts = append(dtOpts, devtools.WithGatherer(setup.registry))
	}
	inspector := devtools.New(app, dtOpts...)

	g, gctx := errgroup.WithContext(ctx)
	loopDone := make(chan struct{})
	g.Go(func() error {
		defer close(loopDone)
		err := app.Loop().Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	target := dom.NewElement("body")
	var mounted *loop.Future[*component.Node]
	if err := app.Call(gctx, func() { mounted = app.Mount(target) }); err != nil {
		return err
	}
	if _, err := mounted.Wait(gctx); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           inspector.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		success("Inspector listening on http://%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		// The loop has exited, so teardown runs on this goroutine.
		<-loopDone
		inspector.Close()
		app.Destroy()
		return err
	})
	if replay > 0 {
		g.Go(func() error { return replaySteps(gctx, app, target, sc, replay) })
	}

	err := g.Wait()
	<-loopDone
	return err
}

// replaySteps plays sc's steps on the loop, one per tick, wrapping around.
func replaySteps(ctx context.Context, app *component.App, target *dom.Node, sc *scenario, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		st := sc.steps[i%len(sc.steps)]
		var stepErr error
		if err := app.Call(ctx, func() { stepErr = st.run(app, target) }); err != nil {
			return nil
		}
		if stepErr != nil {
			warn("%s: %v", st.label, stepErr)
		}
	}
}
