package component

import (
	"context"
	"runtime/debug"
	"sync/atomic"

	"github.com/vango-dev/loom/pkg/dom"
	"github.com/vango-dev/loom/pkg/loop"
	"github.com/vango-dev/loom/pkg/reactive"
	"github.com/vango-dev/loom/pkg/vdom"
)

// Status is the lifecycle status of a component.
type Status uint8

const (
	StatusNew       Status = iota // Created, not yet in the document
	StatusMounted                 // Committed to the document
	StatusDestroyed               // Torn down
)

// String returns the string representation of the Status.
func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusMounted:
		return "mounted"
	case StatusDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

var nodeIDCounter atomic.Uint64

// Node is a component instance.
type Node struct {
	id     uint64
	def    *Definition
	app    *App
	parent *Node // non-owning
	key    string

	// children are the committed children in document order.
	children []*Node

	props    vdom.Props
	env      *Env
	childEnv *Env

	render   RenderFunc
	observer *reactive.Observer
	block    *dom.Block
	hooks    hookTable

	status     Status
	generation uint64
	task       *task
	willStart  *loop.Future[struct{}]

	ctx    context.Context
	cancel context.CancelFunc
}

func (a *App) newNode(def *Definition, parent *Node, key string, props vdom.Props) *Node {
	n := &Node{
		id:     nodeIDCounter.Add(1),
		def:    def,
		app:    a,
		parent: parent,
		key:    key,
		props:  props,
		block:  dom.NewBlock(),
		status: StatusNew,
	}
	parentCtx := a.ctx
	if parent != nil {
		n.env = parent.childEnv
		parentCtx = parent.ctx
	} else {
		n.env = a.env
	}
	n.childEnv = n.env
	n.ctx, n.cancel = context.WithCancel(parentCtx)
	n.observer = reactive.NewObserver(a.rt, def.Name, func() {
		n.Render(false)
	})
	n.observer.OnError(func(err error) {
		a.handleError(n, err, nil)
	})
	return n
}

// setup runs the definition's setup function once.
func (n *Node) setup() (err error) {
	if n.render != nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = panicError(n, r, debug.Stack(), "setup panicked")
		}
	}()
	var render RenderFunc
	n.app.rt.Untracked(func() {
		if n.def.Setup != nil {
			render = n.def.Setup(n)
		}
	})
	if render == nil {
		render = func() *vdom.VNode { return nil }
	}
	n.render = render
	return nil
}

// renderTree runs the render function as the component's observer.
func (n *Node) renderTree() (tree *vdom.VNode, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(n, r, debug.Stack(), "")
		}
	}()
	n.observer.Track(func() {
		tree = n.render()
	})
	return tree, nil
}

// ID returns the instance id.
func (n *Node) ID() uint64 { return n.id }

// Name returns the definition name.
func (n *Node) Name() string { return n.def.Name }

// Definition returns the component definition.
func (n *Node) Definition() *Definition { return n.def }

// Key returns the reconciliation key the parent used.
func (n *Node) Key() string { return n.key }

// Parent returns the parent component, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the committed children in document order.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// App returns the owning application.
func (n *Node) App() *App { return n.app }

// Runtime returns the reactive runtime, for creating component state.
func (n *Node) Runtime() *reactive.Runtime { return n.app.rt }

// Context returns a context cancelled when the component is destroyed.
func (n *Node) Context() context.Context { return n.ctx }

// Props returns the props of the render in progress, or of the last
// committed render.
func (n *Node) Props() vdom.Props { return n.props }

// Prop returns one prop.
func (n *Node) Prop(key string) any { return n.props[key] }

// Env returns the component's env.
func (n *Node) Env() *Env { return n.env }

// ExtendEnv extends the env of the component and of its future children.
func (n *Node) ExtendEnv(values map[string]any) {
	n.env = n.env.Extend(values)
	n.childEnv = n.childEnv.Extend(values)
}

// ExtendChildEnv extends only the env passed to children.
func (n *Node) ExtendChildEnv(values map[string]any) {
	n.childEnv = n.childEnv.Extend(values)
}

// Status returns the lifecycle status.
func (n *Node) Status() Status { return n.status }

// Mounted reports whether the component is in the document.
func (n *Node) Mounted() bool { return n.status == StatusMounted }

// Destroyed reports whether the component was destroyed.
func (n *Node) Destroyed() bool { return n.status == StatusDestroyed }

// Generation returns the render generation of the latest task.
func (n *Node) Generation() uint64 { return n.generation }

// TaskState returns the state of the in-flight render task, or TaskIdle.
func (n *Node) TaskState() TaskState {
	if t := n.liveTask(); t != nil {
		return t.state
	}
	return TaskIdle
}

// Subscriptions returns the reactive reads of the last render.
func (n *Node) Subscriptions() []reactive.Subscription {
	return n.observer.Subscriptions()
}

// Block returns the component's part of the document.
func (n *Node) Block() *dom.Block { return n.block }

// HTML serializes the component's part of the document.
func (n *Node) HTML() string { return n.block.HTML() }

// Plugin returns a started plugin. Reading it subscribes the caller.
func (n *Node) Plugin(id string) (any, error) {
	return n.app.Plugin(id)
}

// UseEffect creates an effect owned by the component. It starts when the
// component is mounted and is disposed when it unmounts. Panics are handled
// like render errors.
func (n *Node) UseEffect(fn func() reactive.Cleanup) {
	var e *reactive.Effect
	n.OnMounted(func() {
		e = reactive.NewEffect(n.app.rt, fn,
			reactive.WithEffectLabel(n.Name()+".effect"),
			reactive.OnEffectError(func(err error) {
				n.app.handleError(n, err, nil)
			}))
	})
	n.OnWillUnmount(func() {
		if e != nil {
			e.Dispose()
			e = nil
		}
	})
}

// liveTask returns the in-flight render task, if any.
func (n *Node) liveTask() *task {
	t := n.task
	if t == nil || !t.live() {
		return nil
	}
	return t
}

// isAncestorOf reports whether n is a strict ancestor of other.
func (n *Node) isAncestorOf(other *Node) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// boundary returns the nearest live ancestor with OnError handlers.
func (n *Node) boundary() *Node {
	for p := n.parent; p != nil; p = p.parent {
		if p.status != StatusDestroyed && len(p.hooks.onError) > 0 {
			return p
		}
	}
	return nil
}

func (n *Node) removeChild(c *Node) {
	for i, ch := range n.children {
		if ch == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

// destroy tears down n and its subtree: willUnmount bottom-up for mounted
// components, then the document nodes, then willDestroy bottom-up.
func (n *Node) destroy() {
	if n.status == StatusDestroyed {
		return
	}
	a := n.app
	if n.status == StatusMounted {
		n.callWillUnmount()
		a.patcher.Unmount(n.block)
	}
	n.teardown()
	if n.parent != nil {
		n.parent.removeChild(n)
	}
}

func (n *Node) callWillUnmount() {
	for i := len(n.children) - 1; i >= 0; i-- {
		n.children[i].callWillUnmount()
	}
	if n.status != StatusMounted {
		return
	}
	if err := n.callHooks(HookWillUnmount); err != nil {
		n.app.logHookError(n, err)
	}
}

func (n *Node) teardown() {
	for i := len(n.children) - 1; i >= 0; i-- {
		n.children[i].teardown()
	}
	if t := n.liveTask(); t != nil {
		t.pass.drop(t)
	}
	n.observer.Dispose()
	n.cancel()
	if err := n.callHooks(HookWillDestroy); err != nil {
		n.app.logHookError(n, err)
	}
	n.status = StatusDestroyed
	n.app.destroyedCount++
}
