package component

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/loom/internal/errors"
	"github.com/vango-dev/loom/pkg/dom"
	"github.com/vango-dev/loom/pkg/loop"
	"github.com/vango-dev/loom/pkg/vdom"
)

// TaskState is the state of a component's render task.
type TaskState uint8

const (
	TaskIdle       TaskState = iota // No render in flight
	TaskRendering                   // Rendering, or waiting for the rest of the pass
	TaskSuspended                   // Waiting for async hooks
	TaskSuperseded                  // Replaced by a newer task; its result is dropped
	TaskCommitting                  // Being applied to the document
	TaskCommitted                   // Applied
)

// String returns the string representation of the TaskState.
func (s TaskState) String() string {
	switch s {
	case TaskIdle:
		return "idle"
	case TaskRendering:
		return "rendering"
	case TaskSuspended:
		return "suspended"
	case TaskSuperseded:
		return "superseded"
	case TaskCommitting:
		return "committing"
	case TaskCommitted:
		return "committed"
	default:
		return "unknown"
	}
}

// task is one component's part of a render pass.
type task struct {
	node   *Node
	pass   *pass
	parent *task
	gen    uint64
	state  TaskState

	mount     bool       // first render of a new component
	props     vdom.Props // props from the parent, nil when unchanged
	deep      bool
	requested bool // the component asked to render, as opposed to its parent
	busy      bool // inside the render function or its sync hooks
	finished  bool

	tree     *vdom.VNode
	children []*task
	slots    map[*vdom.VNode]*Node
	next     []*Node // children once committed, nil until reconciled
	removed  []*Node
	created  []*Node
}

func (t *task) live() bool {
	return t.state != TaskSuperseded && t.state != TaskCommitting &&
		t.state != TaskCommitted && !t.pass.cancelled
}

func (t *task) slot(v *vdom.VNode) *dom.Block {
	if c := t.slots[v]; c != nil {
		return c.block
	}
	return nil
}

// orphan is a render request lost when the task carrying it was dropped.
type orphan struct {
	node *Node
	deep bool
}

// pass is a set of tasks committed to the document together.
type pass struct {
	id        uint64
	app       *App
	root      *task
	pending   int
	cancelled bool
	committed bool
	queued    bool
	errors    int
	started   time.Time
	done      *loop.Future[struct{}]

	// target and mount are set when the pass mounts a root.
	target *dom.Node
	mount  *loop.Future[*Node]
}

func (a *App) newPass() *pass {
	a.passSeq++
	p := &pass{
		id:      a.passSeq,
		app:     a,
		started: time.Now(),
		done:    loop.NewFuture[struct{}](),
	}
	a.passes = append(a.passes, p)
	return p
}

func (p *pass) newTask(n *Node, parent *task, props vdom.Props, deep bool) *task {
	return &task{
		node:   n,
		pass:   p,
		parent: parent,
		props:  props,
		deep:   deep,
		mount:  n.status == StatusNew,
	}
}

// Render re-renders the component. A deep render also re-renders every
// descendant. The future resolves once the render is committed or folded
// into a pass that was.
func (n *Node) Render(deep bool) *loop.Future[struct{}] {
	a := n.app
	if n.status == StatusDestroyed || a.destroyed {
		return loop.Resolved(struct{}{})
	}
	if t := n.liveTask(); t != nil {
		if t.busy {
			return t.pass.done
		}
		t.pass.restart(t, deep)
		return t.pass.done
	}
	if n.status != StatusMounted {
		return loop.Resolved(struct{}{})
	}
	for anc := n.parent; anc != nil; anc = anc.parent {
		if at := anc.liveTask(); at != nil {
			p := at.pass
			t := p.newTask(n, at, nil, deep)
			t.requested = true
			p.start(t)
			return p.done
		}
	}
	return a.startPass(n, deep).done
}

// startPass starts a pass rooted at n. Passes rooted below n are folded
// into it.
func (a *App) startPass(n *Node, deep bool) *pass {
	p := a.newPass()
	t := p.newTask(n, nil, nil, deep)
	t.requested = true
	p.root = t

	var orphans []orphan
	for _, q := range append([]*pass(nil), a.passes...) {
		if q != p && !q.cancelled && n.isAncestorOf(q.root.node) {
			q.cancel(p, nil, &orphans)
		}
	}
	p.start(t)
	for _, o := range orphans {
		o.node.Render(o.deep)
	}
	return p
}

// restart replaces a live task of p with a fresh one for the same node.
func (p *pass) restart(old *task, deep bool) {
	t := p.newTask(old.node, old.parent, old.props, old.deep || deep)
	t.requested = true
	if old == p.root {
		p.root = t
	}
	p.start(t)
}

// start runs t up to its first suspension point. A live task the node
// already has is superseded.
func (p *pass) start(t *task) {
	n := t.node
	var orphans []orphan
	if old := n.liveTask(); old != nil && old != t {
		switch {
		case old.pass == p:
			t.requested = t.requested || old.requested
			t.deep = t.deep || old.deep
			if t.props == nil {
				t.props = old.props
			}
			p.supersede(old, &orphans)
		case old.pass.root == old:
			old.pass.cancel(p, nil, &orphans)
		default:
			old.pass.supersede(old, &orphans)
			old.pass.check()
		}
	}
	if t.parent != nil {
		t.parent.children = append(t.parent.children, t)
	}

	n.generation++
	t.gen = n.generation
	t.state = TaskRendering
	n.task = t
	p.pending++
	p.app.instrument.RenderStarted(n.Name())

	switch {
	case t.mount:
		if err := n.setup(); err != nil {
			p.fail(t, err)
			break
		}
		p.await(t, n.started(), func() { p.render(t) })
	case t.props != nil:
		p.await(t, n.updatingProps(t.props), func() { p.render(t) })
	default:
		p.render(t)
	}

	for _, o := range orphans {
		if o.node != n {
			o.node.Render(o.deep)
		}
	}
}

// current reports whether t is still the task that should finish.
func (p *pass) current(t *task) bool {
	return !p.cancelled && t.state != TaskSuperseded &&
		t.node.task == t && t.node.status != StatusDestroyed
}

// await suspends t until f settles, then continues with next unless t was
// superseded in the meantime.
func (p *pass) await(t *task, f *loop.Future[struct{}], next func()) {
	if f.Settled() {
		if _, err := f.Result(); err != nil {
			p.fail(t, err)
			return
		}
		next()
		return
	}
	t.state = TaskSuspended
	f.Then(func(_ struct{}, err error) {
		if !p.current(t) {
			return
		}
		if err != nil {
			p.fail(t, err)
			return
		}
		t.state = TaskRendering
		next()
	})
}

func (p *pass) render(t *task) {
	n := t.node
	if t.props != nil {
		n.props = t.props
	}

	t.busy = true
	tree, err := p.renderNode(t)
	t.busy = false
	if err != nil {
		p.fail(t, err)
		return
	}
	if !p.current(t) {
		return
	}
	t.tree = tree

	kids, err := p.reconcile(t)
	if err != nil {
		p.fail(t, err)
		return
	}
	for _, c := range kids {
		if !p.current(t) {
			return
		}
		p.start(c)
	}
	if p.current(t) {
		p.finish(t)
	}
}

func (p *pass) renderNode(t *task) (*vdom.VNode, error) {
	n := t.node
	if err := n.callHooks(HookWillRender); err != nil {
		return nil, err
	}
	tree, err := n.renderTree()
	if err != nil {
		return nil, err
	}
	if err := n.callHooks(HookRendered); err != nil {
		return nil, err
	}
	return tree, nil
}

type slotKey struct {
	def *Definition
	key string
}

// reconcile matches the placeholders of t's tree to child components. It
// returns the tasks to start; the live tree is left untouched until commit.
func (p *pass) reconcile(t *task) ([]*task, error) {
	n := t.node
	placeholders := vdom.Placeholders(t.tree)
	t.slots = make(map[*vdom.VNode]*Node, len(placeholders))
	t.next = make([]*Node, 0, len(placeholders))
	t.removed = nil

	pool := make(map[slotKey][]*Node, len(n.children))
	for _, c := range n.children {
		if c.status != StatusDestroyed {
			k := slotKey{c.def, c.key}
			pool[k] = append(pool[k], c)
		}
	}

	var kids []*task
	kept := make(map[*Node]bool, len(n.children))
	for _, ph := range placeholders {
		def, ok := ph.Comp.(*Definition)
		if !ok || def == nil {
			name := ""
			if ph.Comp != nil {
				name = ph.Comp.ComponentName()
			}
			return nil, errors.New("E109").WithComponent(n.Name()).
				WithDetail("placeholder for " + name + " does not reference a *component.Definition")
		}
		k := slotKey{def, ph.Key}
		var child *Node
		if list := pool[k]; len(list) > 0 {
			child, pool[k] = list[0], list[1:]
		}

		if child == nil {
			child = p.app.newNode(def, n, ph.Key, ph.Props)
			t.created = append(t.created, child)
			kids = append(kids, p.newTask(child, t, ph.Props, t.deep))
		} else {
			kept[child] = true
			current := child.props
			if ct := child.liveTask(); ct != nil && ct.props != nil {
				current = ct.props
			}
			if t.deep || !vdom.ShallowEqual(current, ph.Props) {
				kids = append(kids, p.newTask(child, t, ph.Props, t.deep))
			}
		}
		t.slots[ph] = child
		t.next = append(t.next, child)
	}

	for _, c := range n.children {
		if !kept[c] {
			t.removed = append(t.removed, c)
		}
	}
	return kids, nil
}

func (p *pass) finish(t *task) {
	if t.finished {
		return
	}
	t.finished = true
	p.pending--
	p.check()
}

// check queues the pass for commit once no task is pending.
func (p *pass) check() {
	if p.pending == 0 && !p.cancelled && !p.committed {
		p.app.markReady(p)
	}
}

func (p *pass) fail(t *task, err error) {
	p.app.handleError(t.node, err, p)
}

// supersede drops t and its subtree. Render requests they carried are
// appended to orphans when non-nil.
func (p *pass) supersede(t *task, orphans *[]orphan) {
	if t.state == TaskSuperseded || t.state == TaskCommitted {
		return
	}
	for _, c := range t.children {
		p.supersede(c, orphans)
	}
	if !t.finished {
		t.finished = true
		p.pending--
	}
	t.state = TaskSuperseded
	n := t.node
	if n.task == t {
		n.task = nil
	}
	for _, c := range t.created {
		c.destroy()
	}
	if orphans != nil && t.requested && n.status == StatusMounted {
		*orphans = append(*orphans, orphan{node: n, deep: t.deep})
	}
	p.app.instrument.Superseded(n.Name())
	p.app.logger.Debug("render task superseded",
		"component", n.Name(), "generation", t.gen, "pass", p.id)
}

// drop supersedes t because its component is going away. Dropping the root
// cancels the pass.
func (p *pass) drop(t *task) {
	if p.root == t {
		p.cancel(nil, nil, nil)
		return
	}
	p.supersede(t, nil)
	p.check()
}

// cancel abandons the pass. Its futures follow next when it was folded
// into another pass, or are rejected with cause.
func (p *pass) cancel(next *pass, cause error, orphans *[]orphan) {
	if p.cancelled || p.committed {
		return
	}
	p.supersede(p.root, orphans)
	p.cancelled = true
	p.app.removePass(p)

	switch {
	case next != nil:
		next.done.Then(func(v struct{}, err error) {
			if err != nil {
				p.done.Reject(err)
				return
			}
			p.done.Resolve(v)
		})
	case cause != nil:
		p.done.Reject(cause)
	default:
		p.done.Resolve(struct{}{})
	}
	if p.mount != nil {
		if cause == nil {
			cause = errors.New("E105").WithComponent(p.root.node.Name())
		}
		p.mount.Reject(cause)
	}
}

// order returns the tasks that will commit, in pre-order and post-order of
// the component tree as it will be after the commit.
func (p *pass) order() (pre, post []*task) {
	byNode := make(map[*Node]*task)
	var collect func(t *task)
	collect = func(t *task) {
		if t.state == TaskSuperseded || t.node.task != t {
			return
		}
		byNode[t.node] = t
		for _, c := range t.children {
			collect(c)
		}
	}
	collect(p.root)

	var visit func(n *Node)
	visit = func(n *Node) {
		t := byNode[n]
		if t != nil {
			pre = append(pre, t)
		}
		kids := n.children
		if t != nil && t.next != nil {
			kids = t.next
		}
		for _, c := range kids {
			visit(c)
		}
		if t != nil {
			post = append(post, t)
		}
	}
	visit(p.root.node)
	return pre, post
}

type hookFailure struct {
	node *Node
	err  error
}

// commit applies a finished pass to the document.
func (a *App) commit(p *pass) {
	root := p.root.node
	_, span := a.tracer.Start(a.ctx, "loom.commit", trace.WithAttributes(
		attribute.String("loom.app_id", a.id),
		attribute.Int64("loom.pass", int64(p.id)),
		attribute.String("loom.root", root.Name()),
	))
	defer span.End()

	p.committed = true
	a.removePass(p)
	pre, post := p.order()
	for _, t := range pre {
		t.state = TaskCommitting
	}
	destroyedBefore := a.destroyedCount

	var failures []hookFailure
	for _, t := range pre {
		if t.node.status == StatusMounted {
			if err := t.node.callHooks(HookWillPatch); err != nil {
				failures = append(failures, hookFailure{t.node, err})
			}
		}
	}

	for _, t := range pre {
		for _, c := range t.removed {
			c.destroy()
		}
		children := make([]*Node, 0, len(t.next))
		for _, c := range t.next {
			if c.status != StatusDestroyed {
				children = append(children, c)
			}
		}
		t.node.children = children
	}

	ops := make(vdom.OpCounts)
	for _, t := range post {
		counts, err := a.patcher.Patch(t.node.block, t.tree, t.slot)
		if err != nil {
			failures = append(failures, hookFailure{t.node, err})
			continue
		}
		ops.Add(counts)
	}
	if p.target != nil && root.status != StatusDestroyed {
		a.patcher.Mount(root.block, p.target)
	}

	var mounted, patched []*Node
	for _, t := range post {
		n := t.node
		t.state = TaskCommitted
		if n.task == t {
			n.task = nil
		}
		if n.status == StatusNew {
			n.status = StatusMounted
			mounted = append(mounted, n)
		} else if n.status == StatusMounted {
			patched = append(patched, n)
		}
	}
	for _, n := range mounted {
		if err := n.callHooks(HookMounted); err != nil {
			failures = append(failures, hookFailure{n, err})
		}
	}
	for _, n := range patched {
		if err := n.callHooks(HookPatched); err != nil {
			failures = append(failures, hookFailure{n, err})
		}
	}

	ev := CommitEvent{
		AppID:     a.id,
		Pass:      p.id,
		Root:      root.Name(),
		RootID:    root.id,
		Rendered:  len(post),
		Mounted:   len(mounted),
		Patched:   len(patched),
		Destroyed: a.destroyedCount - destroyedBefore,
		PatchOps:  ops.Total(),
		Duration:  time.Since(p.started),

		PatchOpsByKind: ops.ByName(),
	}
	span.SetAttributes(
		attribute.Int("loom.rendered", ev.Rendered),
		attribute.Int("loom.patch_ops", ev.PatchOps),
	)
	a.logger.Debug("render pass committed",
		"pass", p.id, "root", ev.Root, "rendered", ev.Rendered,
		"mounted", ev.Mounted, "patch_ops", ev.PatchOps, "duration", ev.Duration)
	a.instrument.Committed(ev)
	for _, l := range a.commitListeners {
		l.fn(ev)
	}

	for _, f := range failures {
		a.handleError(f.node, f.err, nil)
	}
	p.done.Resolve(struct{}{})
	if p.mount != nil {
		if a.destroyed {
			p.mount.Reject(a.cause)
		} else {
			p.mount.Resolve(root)
		}
	}
}
