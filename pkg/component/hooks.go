package component

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/loom/internal/errors"
	"github.com/vango-dev/loom/pkg/loop"
	"github.com/vango-dev/loom/pkg/vdom"
)

// HookKind identifies a lifecycle phase.
type HookKind uint8

const (
	HookWillStart HookKind = iota
	HookWillUpdateProps
	HookWillRender
	HookRendered
	HookWillPatch
	HookPatched
	HookMounted
	HookWillUnmount
	HookWillDestroy
	HookError
)

// String returns the hook name.
func (k HookKind) String() string {
	switch k {
	case HookWillStart:
		return "willStart"
	case HookWillUpdateProps:
		return "willUpdateProps"
	case HookWillRender:
		return "willRender"
	case HookRendered:
		return "rendered"
	case HookWillPatch:
		return "willPatch"
	case HookPatched:
		return "patched"
	case HookMounted:
		return "mounted"
	case HookWillUnmount:
		return "willUnmount"
	case HookWillDestroy:
		return "willDestroy"
	case HookError:
		return "error"
	default:
		return "unknown"
	}
}

// reversed reports whether hooks of this kind run last-registered first.
// willPatch and willUnmount undo what patched and mounted set up.
func (k HookKind) reversed() bool {
	return k == HookWillPatch || k == HookWillUnmount
}

// hookTable holds a component's hooks in registration order.
type hookTable struct {
	sync            map[HookKind][]func()
	willStart       []func(context.Context) error
	willUpdateProps []func(context.Context, vdom.Props) error
	onError         []func(error)
}

func (h *hookTable) add(kind HookKind, fn func()) {
	if h.sync == nil {
		h.sync = make(map[HookKind][]func())
	}
	h.sync[kind] = append(h.sync[kind], fn)
}

// ordered returns the hooks of kind in execution order.
func (h *hookTable) ordered(kind HookKind) []func() {
	hooks := h.sync[kind]
	if !kind.reversed() || len(hooks) < 2 {
		return hooks
	}
	out := make([]func(), len(hooks))
	for i, fn := range hooks {
		out[len(hooks)-1-i] = fn
	}
	return out
}

// OnWillStart registers an async hook run once before the first render.
// Hooks run on their own goroutines and must not touch reactive state; the
// first render waits for all of them.
func (n *Node) OnWillStart(fn func(ctx context.Context) error) {
	n.hooks.willStart = append(n.hooks.willStart, fn)
}

// OnWillUpdateProps registers an async hook run before a re-render caused
// by new props from the parent.
func (n *Node) OnWillUpdateProps(fn func(ctx context.Context, next vdom.Props) error) {
	n.hooks.willUpdateProps = append(n.hooks.willUpdateProps, fn)
}

// OnWillRender registers a hook run just before the render function.
func (n *Node) OnWillRender(fn func()) { n.hooks.add(HookWillRender, fn) }

// OnRendered registers a hook run just after the render function.
func (n *Node) OnRendered(fn func()) { n.hooks.add(HookRendered, fn) }

// OnWillPatch registers a hook run before the document is patched with a
// new render of the component.
func (n *Node) OnWillPatch(fn func()) { n.hooks.add(HookWillPatch, fn) }

// OnPatched registers a hook run after the document was patched.
func (n *Node) OnPatched(fn func()) { n.hooks.add(HookPatched, fn) }

// OnMounted registers a hook run once the component is in the document.
func (n *Node) OnMounted(fn func()) { n.hooks.add(HookMounted, fn) }

// OnWillUnmount registers a hook run before the component leaves the
// document.
func (n *Node) OnWillUnmount(fn func()) { n.hooks.add(HookWillUnmount, fn) }

// OnWillDestroy registers a hook run when the component is destroyed,
// mounted or not.
func (n *Node) OnWillDestroy(fn func()) { n.hooks.add(HookWillDestroy, fn) }

// OnError makes the component an error boundary for its descendants.
func (n *Node) OnError(fn func(err error)) {
	n.hooks.onError = append(n.hooks.onError, fn)
}

// callHooks runs the synchronous hooks of kind untracked. A panic stops the
// remaining hooks and is returned as an error.
func (n *Node) callHooks(kind HookKind) (err error) {
	hooks := n.hooks.ordered(kind)
	if len(hooks) == 0 {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = hookPanic(n, kind, r)
		}
	}()
	n.app.rt.Untracked(func() {
		for _, fn := range hooks {
			fn()
		}
	})
	return nil
}

// callErrorHandlers runs the OnError handlers with err.
func (n *Node) callErrorHandlers(cause error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = hookPanic(n, HookError, r)
		}
	}()
	n.app.rt.Untracked(func() {
		for _, fn := range n.hooks.onError {
			fn(cause)
		}
	})
	return nil
}

func hookPanic(n *Node, kind HookKind, r any) error {
	return panicError(n, r, debug.Stack(), fmt.Sprintf("%s hook panicked", kind))
}

// runAsync runs async hooks concurrently on the loop and settles the
// returned future when all of them returned. The first error wins.
func (n *Node) runAsync(hooks []func(context.Context) error) *loop.Future[struct{}] {
	if len(hooks) == 0 {
		return loop.Resolved(struct{}{})
	}
	f := loop.NewFuture[struct{}]()
	n.app.loop.Go(n.ctx, func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		for _, fn := range hooks {
			g.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = errors.FromPanic("E023", r, debug.Stack())
					}
				}()
				return fn(gctx)
			})
		}
		return g.Wait()
	}, func(err error) {
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(struct{}{})
	})
	return f
}

// started returns the future of the component's OnWillStart hooks. They run
// once, however many times the first render is restarted.
func (n *Node) started() *loop.Future[struct{}] {
	if n.willStart == nil {
		n.willStart = n.runAsync(n.hooks.willStart)
	}
	return n.willStart
}

// updatingProps runs the OnWillUpdateProps hooks with next.
func (n *Node) updatingProps(next vdom.Props) *loop.Future[struct{}] {
	if len(n.hooks.willUpdateProps) == 0 {
		return loop.Resolved(struct{}{})
	}
	hooks := make([]func(context.Context) error, len(n.hooks.willUpdateProps))
	for i, fn := range n.hooks.willUpdateProps {
		hooks[i] = func(ctx context.Context) error { return fn(ctx, next) }
	}
	return n.runAsync(hooks)
}
