package component

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vango-dev/loom/internal/errors"
	"github.com/vango-dev/loom/pkg/loop"
)

var (
	// ErrEndOfLife rejects a protected call whose component was destroyed
	// before it completed.
	ErrEndOfLife = errors.New("E101")

	// ErrPluginNotStarted is returned when a registered plugin is requested
	// before App.StartPlugins started it.
	ErrPluginNotStarted = errors.New("E102")

	// ErrAppDestroyed rejects work scheduled on a destroyed App.
	ErrAppDestroyed = errors.New("E103")

	// ErrInvalidTarget is returned by Mount for a nil target.
	ErrInvalidTarget = errors.New("E104")

	// ErrComponentDestroyed rejects operations on destroyed components.
	ErrComponentDestroyed = errors.New("E105")

	// ErrUnknownPlugin is returned for plugin ids that were never registered.
	ErrUnknownPlugin = errors.New("E106")

	// ErrPluginCycle is returned by StartPlugins when dependencies loop.
	ErrPluginCycle = errors.New("E107")

	// ErrAlreadyMounted is returned when a root is mounted twice.
	ErrAlreadyMounted = errors.New("E108")
)

// panicError converts a value recovered in n's render or hooks into a
// render error.
func panicError(n *Node, r any, stack []byte, detail string) error {
	var cause error
	switch v := r.(type) {
	case error:
		cause = v
	default:
		cause = fmt.Errorf("panic: %v", v)
	}
	e := errors.New("E100").WithComponent(n.Name()).WithStack(stack).Wrap(cause)
	if detail != "" {
		e.WithDetail(detail)
	}
	return e
}

// renderError attaches err to n unless it already is a render error.
func renderError(n *Node, err error) error {
	var le *errors.LoomError
	if stderrors.As(err, &le) && le.Code == "E100" && le.Component != "" {
		return err
	}
	return errors.New("E100").WithComponent(n.Name()).Wrap(err)
}

// Protect runs fn on its own goroutine and settles the returned future on
// the loop. When n is destroyed before fn returns, the result is dropped
// and the future is rejected with ErrEndOfLife.
func Protect[T any](n *Node, fn func(ctx context.Context) (T, error)) *loop.Future[T] {
	f := loop.NewFuture[T]()
	if n.status == StatusDestroyed {
		f.Reject(errors.New("E101").WithComponent(n.Name()))
		return f
	}
	var result T
	n.app.loop.Go(n.ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		result = v
		return err
	}, func(err error) {
		switch {
		case n.status == StatusDestroyed:
			f.Reject(errors.New("E101").WithComponent(n.Name()))
		case err != nil:
			f.Reject(err)
		default:
			f.Resolve(result)
		}
	})
	return f
}

// handleError routes a failure of n to the nearest error boundary. The
// failing subtree is destroyed, the boundary's handlers run and the
// boundary re-renders. Without a boundary the App is destroyed.
func (a *App) handleError(n *Node, err error, p *pass) {
	if a.destroyed {
		return
	}
	err = renderError(n, err)
	a.logger.Error("component error", "component", n.Name(), "err", err)
	a.instrument.RenderError(n.Name())

	if p != nil {
		p.errors++
		if p.errors > a.maxErrorsPerPass {
			a.fatal(errors.New("E100").
				WithDetail(fmt.Sprintf("more than %d errors in render pass %d", a.maxErrorsPerPass, p.id)).
				Wrap(err))
			return
		}
	}

	b := n.boundary()
	if b == nil {
		a.fatal(err)
		return
	}
	n.destroy()
	if herr := b.callErrorHandlers(err); herr != nil {
		a.handleError(b, herr, p)
		return
	}
	if b.status != StatusDestroyed && !a.destroyed {
		b.Render(false)
	}
}

// fatal destroys the App after an error no boundary caught. Targets are
// cleared so no half-updated document stays visible.
func (a *App) fatal(err error) {
	if a.destroyed {
		return
	}
	a.logger.Error("uncaught component error, destroying app", "err", err)
	_, span := a.tracer.Start(a.ctx, "loom.fatal")
	span.SetAttributes(attribute.String("loom.app_id", a.id))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.End()

	for _, fn := range a.errorHandlers {
		fn(err)
	}
	targets := a.targets()
	a.teardown(err)
	for _, t := range targets {
		t.Clear()
	}
}

func (a *App) logHookError(n *Node, err error) {
	a.logger.Error("lifecycle hook failed", "component", n.Name(), "err", err)
	a.instrument.RenderError(n.Name())
}
