package component

import (
	"context"
	"log/slog"
	"runtime/debug"
	"slices"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/loom/internal/errors"
	"github.com/vango-dev/loom/pkg/dom"
	"github.com/vango-dev/loom/pkg/loop"
	"github.com/vango-dev/loom/pkg/reactive"
	"github.com/vango-dev/loom/pkg/vdom"
)

// DefaultMaxErrorsPerPass bounds the errors one render pass may raise
// before the App gives up on it.
const DefaultMaxErrorsPerPass = 32

// TracerName is the default OpenTelemetry instrumentation name.
const TracerName = "github.com/vango-dev/loom"

// App owns a component tree, its reactive runtime and its loop.
type App struct {
	id         string
	root       *Definition
	props      vdom.Props
	loop       *loop.Loop
	rt         *reactive.Runtime
	logger     *slog.Logger
	tracer     trace.Tracer
	patcher    dom.Patcher
	instrument Instrument
	env        *Env

	main  *SubRoot
	roots []*SubRoot

	passes         []*pass
	passSeq        uint64
	ready          []*pass
	frameScheduled bool
	destroyedCount int

	plugins         *pluginSet
	commitListeners []commitListener
	listenerSeq     int
	errorHandlers   []func(error)

	maxErrorsPerPass int
	maxEffectRuns    int

	ctx       context.Context
	cancelCtx context.CancelFunc
	destroyed bool
	cause     error
}

// Option configures an App.
type Option func(*App)

// WithLoop runs the App on l. By default the App creates its own loop.
func WithLoop(l *loop.Loop) Option {
	return func(a *App) {
		if l != nil {
			a.loop = l
		}
	}
}

// WithLogger sets the logger. The App adds its id to every record.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithInstrument installs an event sink.
func WithInstrument(in Instrument) Option {
	return func(a *App) {
		if in != nil {
			a.instrument = in
		}
	}
}

// WithTracer sets the tracer commits and uncaught errors are reported to.
func WithTracer(t trace.Tracer) Option {
	return func(a *App) {
		if t != nil {
			a.tracer = t
		}
	}
}

// WithPatcher replaces the default document patcher.
func WithPatcher(p dom.Patcher) Option {
	return func(a *App) {
		if p != nil {
			a.patcher = p
		}
	}
}

// WithEnv sets the root env.
func WithEnv(values map[string]any) Option {
	return func(a *App) {
		a.env = NewEnv(values)
	}
}

// WithProps sets the props of the root component.
func WithProps(props vdom.Props) Option {
	return func(a *App) {
		a.props = props
	}
}

// WithMaxErrorsPerPass sets how many errors a single render pass may raise
// before the App is destroyed.
func WithMaxErrorsPerPass(n int) Option {
	return func(a *App) {
		if n > 0 {
			a.maxErrorsPerPass = n
		}
	}
}

// WithMaxEffectRunsPerFlush sets the reactive storm budget.
func WithMaxEffectRunsPerFlush(n int) Option {
	return func(a *App) {
		a.maxEffectRuns = n
	}
}

// WithErrorHandler registers fn to receive the error that destroyed the App.
func WithErrorHandler(fn func(error)) Option {
	return func(a *App) {
		if fn != nil {
			a.errorHandlers = append(a.errorHandlers, fn)
		}
	}
}

// New creates an App for root. Nothing renders until Mount.
func New(root *Definition, opts ...Option) *App {
	a := &App{
		id:               uuid.NewString(),
		root:             root,
		logger:           slog.Default(),
		patcher:          dom.NewPatcher(),
		instrument:       noopInstrument{},
		env:              NewEnv(nil),
		plugins:          newPluginSet(),
		maxErrorsPerPass: DefaultMaxErrorsPerPass,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("app_id", a.id)
	if a.loop == nil {
		a.loop = loop.New(loop.WithLogger(a.logger))
	}
	if a.tracer == nil {
		a.tracer = otel.Tracer(TracerName)
	}

	rtOpts := []reactive.Option{
		reactive.WithScheduler(a.loop.Microtask),
		reactive.WithLogger(a.logger),
		reactive.WithMaxEffectRunsPerFlush(a.maxEffectRuns),
	}
	if ri, ok := a.instrument.(reactive.Instrument); ok {
		rtOpts = append(rtOpts, reactive.WithInstrument(ri))
	}
	a.rt = reactive.NewRuntime(rtOpts...)
	a.plugins.values = reactive.NewMap[string, any](a.rt).WithLabel("plugins")
	a.ctx, a.cancelCtx = context.WithCancel(context.Background())
	return a
}

// ID returns the App's unique id.
func (a *App) ID() string { return a.id }

// Loop returns the loop the App runs on.
func (a *App) Loop() *loop.Loop { return a.loop }

// Runtime returns the App's reactive runtime.
func (a *App) Runtime() *reactive.Runtime { return a.rt }

// Logger returns the App's logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Env returns the root env.
func (a *App) Env() *Env { return a.env }

// Destroyed reports whether the App was destroyed.
func (a *App) Destroyed() bool { return a.destroyed }

// Root returns the main root component, or nil before Mount.
func (a *App) Root() *Node {
	if a.main == nil {
		return nil
	}
	return a.main.node
}

// Mount renders the root component into target. The future resolves with
// the root once it is in the document, after its mounted hooks ran.
func (a *App) Mount(target *dom.Node) *loop.Future[*Node] {
	if a.destroyed {
		return loop.Rejected[*Node](errors.New("E103"))
	}
	if a.main != nil {
		return loop.Rejected[*Node](errors.New("E108").WithComponent(a.root.Name))
	}
	a.main = a.CreateRoot(a.root, a.props)
	return a.main.Mount(target)
}

// SubRoot is an additional root rendered into its own target.
type SubRoot struct {
	app    *App
	node   *Node
	target *dom.Node
}

// CreateRoot creates a root for def sharing the App's runtime, env and
// plugins.
func (a *App) CreateRoot(def *Definition, props vdom.Props) *SubRoot {
	r := &SubRoot{app: a, node: a.newNode(def, nil, "", props)}
	a.roots = append(a.roots, r)
	return r
}

// Node returns the root component.
func (r *SubRoot) Node() *Node { return r.node }

// Target returns the node the root was mounted into.
func (r *SubRoot) Target() *dom.Node { return r.target }

// Mount renders the root into target.
func (r *SubRoot) Mount(target *dom.Node) *loop.Future[*Node] {
	a := r.app
	switch {
	case a.destroyed:
		return loop.Rejected[*Node](errors.New("E103"))
	case target == nil:
		return loop.Rejected[*Node](errors.New("E104").WithComponent(r.node.Name()))
	case r.target != nil:
		return loop.Rejected[*Node](errors.New("E108").WithComponent(r.node.Name()))
	case r.node.status == StatusDestroyed:
		return loop.Rejected[*Node](errors.New("E105").WithComponent(r.node.Name()))
	}
	r.target = target

	p := a.newPass()
	p.target = target
	p.mount = loop.NewFuture[*Node]()
	t := p.newTask(r.node, nil, nil, false)
	p.root = t
	a.logger.Debug("mounting root", "component", r.node.Name(), "pass", p.id)
	p.start(t)
	return p.mount
}

// Destroy unmounts and destroys the root. A pending Mount is rejected.
func (r *SubRoot) Destroy() {
	r.node.destroy()
	r.app.roots = slices.DeleteFunc(r.app.roots, func(x *SubRoot) bool { return x == r })
}

// Destroy tears down every root and cancels in-flight renders. Pending
// Mount futures are rejected with ErrAppDestroyed.
func (a *App) Destroy() {
	if a.destroyed {
		return
	}
	a.teardown(errors.New("E103"))
}

func (a *App) teardown(cause error) {
	a.destroyed = true
	a.cause = cause
	for _, p := range slices.Clone(a.passes) {
		p.cancel(nil, cause, nil)
	}
	for i := len(a.roots) - 1; i >= 0; i-- {
		a.roots[i].node.destroy()
	}
	a.ready = nil
	a.cancelCtx()
	a.logger.Info("app destroyed", "destroyed_components", a.destroyedCount)
}

func (a *App) targets() []*dom.Node {
	var out []*dom.Node
	for _, r := range a.roots {
		if r.target != nil {
			out = append(out, r.target)
		}
	}
	return out
}

func (a *App) removePass(p *pass) {
	a.passes = slices.DeleteFunc(a.passes, func(q *pass) bool { return q == p })
}

// markReady queues p for the next frame.
func (a *App) markReady(p *pass) {
	if p.queued {
		return
	}
	p.queued = true
	a.ready = append(a.ready, p)
	if a.frameScheduled {
		return
	}
	a.frameScheduled = true
	if err := a.loop.Post(a.frame); err != nil {
		a.frameScheduled = false
		a.logger.Warn("cannot schedule commit", "err", err)
	}
}

// frame commits the passes that are still complete.
func (a *App) frame() {
	a.frameScheduled = false
	ready := a.ready
	a.ready = nil
	for _, p := range ready {
		p.queued = false
		if a.destroyed || p.cancelled || p.committed || p.pending != 0 {
			continue
		}
		a.commit(p)
	}
}

// Dispatch runs fn on the App's loop. It is safe to call from any goroutine.
func (a *App) Dispatch(fn func()) error {
	if a.destroyed {
		return errors.New("E103")
	}
	return a.loop.Post(fn)
}

// Call runs fn on the loop and waits for it. When the loop is not running,
// fn runs on the calling goroutine. Call must not be used from the loop
// goroutine itself.
func (a *App) Call(ctx context.Context, fn func()) error {
	if a.loop.Running() {
		return a.loop.Do(ctx, fn)
	}
	fn()
	return nil
}

// Settle runs the loop until every render, effect and async hook is done.
func (a *App) Settle(ctx context.Context) error {
	return a.loop.Settle(ctx)
}

// Trigger dispatches event to the handler el was rendered with. A panicking
// handler is returned as an error.
func (a *App) Trigger(el *dom.Node, event, value string) (err error) {
	if a.destroyed {
		return errors.New("E103")
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.FromPanic("E100", r, debug.Stack()).
				WithDetail(event + " handler panicked")
		}
	}()
	return dom.Trigger(el, event, value)
}
