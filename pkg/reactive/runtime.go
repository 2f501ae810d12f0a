package reactive

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/vango-dev/loom/internal/errors"
)

// DefaultMaxEffectRunsPerFlush bounds the effect runs of a single flush.
const DefaultMaxEffectRunsPerFlush = 10000

// Instrument receives reactive engine events. Implementations must be cheap;
// they are called synchronously from the graph.
type Instrument interface {
	// Recompute is called after a memo re-evaluated its function.
	Recompute(label string)
	// EffectRun is called after an effect or observer body ran.
	EffectRun(label string)
	// Flush is called after each flush with the number of effect runs.
	Flush(runs int, d time.Duration)
	// Deferred is called when the storm budget pushed effects to the next tick.
	Deferred(count int)
}

type noopInstrument struct{}

func (noopInstrument) Recompute(string)         {}
func (noopInstrument) EffectRun(string)         {}
func (noopInstrument) Flush(int, time.Duration) {}
func (noopInstrument) Deferred(int)             {}

// Runtime owns one reactive graph: the active observer, the pending effect
// queue and the scheduling policy.
type Runtime struct {
	// frame is the tracking frame of the running computation, if any.
	frame *frame

	batchDepth     int
	pending        []*node
	flushScheduled bool
	flushing       bool
	deferred       bool

	// scheduler runs a callback on the next cooperative tick. When nil,
	// ticks are driven manually through Flush.
	scheduler func(func())
	manual    []func()

	maxEffectRuns int
	logger        *slog.Logger
	instrument    Instrument
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithScheduler installs the function used to defer a flush to the next
// tick. loop.Loop.Microtask is the usual choice.
func WithScheduler(schedule func(func())) Option {
	return func(rt *Runtime) {
		rt.scheduler = schedule
	}
}

// WithLogger sets the logger used for effect panics and budget warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithInstrument sets the event sink for engine metrics.
func WithInstrument(in Instrument) Option {
	return func(rt *Runtime) {
		if in != nil {
			rt.instrument = in
		}
	}
}

// WithMaxEffectRunsPerFlush sets the storm budget: effect runs beyond n in
// one flush are deferred to the next tick.
func WithMaxEffectRunsPerFlush(n int) Option {
	return func(rt *Runtime) {
		if n > 0 {
			rt.maxEffectRuns = n
		}
	}
}

// NewRuntime creates an independent reactive graph.
func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		maxEffectRuns: DefaultMaxEffectRunsPerFlush,
		logger:        slog.Default(),
		instrument:    noopInstrument{},
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// frame is the tracking state of one running computation.
type frame struct {
	node *node
	// old holds the sources of the previous run; n is still registered as
	// their observer.
	old  map[*node]struct{}
	seen map[*node]struct{}
}

// track registers src as a source of the running computation.
func (rt *Runtime) track(src *node) {
	f := rt.frame
	if f == nil || f.node.disposed || f.node == src {
		return
	}
	if _, ok := f.seen[src]; ok {
		return
	}
	if f.seen == nil {
		f.seen = make(map[*node]struct{})
	}
	f.seen[src] = struct{}{}

	n := f.node
	n.sources = append(n.sources, src)
	n.sourceVersions = append(n.sourceVersions, src.version)
	if _, wasSource := f.old[src]; !wasSource {
		src.addObserver(n)
	}
}

// runTracked runs fn with n as the active observer, rebuilding n's sources
// from the reads fn makes.
func (rt *Runtime) runTracked(n *node, fn func()) {
	f := &frame{node: n}
	if n.detached {
		n.detached = false
	} else if len(n.sources) > 0 {
		f.old = make(map[*node]struct{}, len(n.sources))
		for _, src := range n.sources {
			f.old[src] = struct{}{}
		}
	}
	n.sources = n.sources[:0:0]
	n.sourceVersions = n.sourceVersions[:0:0]

	prev := rt.frame
	rt.frame = f
	n.computing = true
	defer func() {
		n.computing = false
		rt.frame = prev
		for src := range f.old {
			if _, kept := f.seen[src]; !kept {
				src.removeObserver(n)
			}
		}
	}()
	fn()
}

// Untracked runs fn without recording reads as dependencies.
func (rt *Runtime) Untracked(fn func()) {
	prev := rt.frame
	rt.frame = nil
	defer func() { rt.frame = prev }()
	fn()
}

// Tracking reports whether reads are currently being recorded.
func (rt *Runtime) Tracking() bool {
	return rt.frame != nil
}

// Batch runs fn and defers the flush until the outermost batch returns, at
// which point pending effects run synchronously.
//
// Batches can be nested. Inside a running flush, Batch only groups writes;
// the queued effects run later in the same flush.
func (rt *Runtime) Batch(fn func()) {
	rt.batchDepth++
	defer func() {
		rt.batchDepth--
		if rt.batchDepth == 0 && !rt.flushing && len(rt.pending) > 0 {
			rt.flushEffects()
		}
	}()
	fn()
}

// Batched returns a trigger that schedules fn on the next tick. Calling the
// trigger several times before that tick runs fn once.
func (rt *Runtime) Batched(fn func()) func() {
	scheduled := false
	return func() {
		if scheduled {
			return
		}
		scheduled = true
		rt.nextTick(func() {
			scheduled = false
			fn()
		})
	}
}

// nextTick queues fn for the next tick.
func (rt *Runtime) nextTick(fn func()) {
	if rt.scheduler != nil {
		rt.scheduler(fn)
		return
	}
	rt.manual = append(rt.manual, fn)
}

// enqueue adds an effect to the pending queue and schedules a flush.
func (rt *Runtime) enqueue(n *node) {
	if n.pending || n.disposed {
		return
	}
	n.pending = true
	rt.pending = append(rt.pending, n)
	if rt.batchDepth > 0 || rt.flushing {
		return
	}
	rt.scheduleFlush()
}

func (rt *Runtime) scheduleFlush() {
	if rt.flushScheduled {
		return
	}
	rt.flushScheduled = true
	rt.nextTick(func() {
		rt.flushScheduled = false
		if !rt.flushing && len(rt.pending) > 0 {
			rt.flushEffects()
		}
	})
}

// Pending returns the number of queued effects.
func (rt *Runtime) Pending() int {
	return len(rt.pending)
}

// Flush runs queued work synchronously. Without a scheduler it drains the
// manual tick queue until it is empty; with one it runs the pending effects
// immediately. A flush cut short by the storm budget stops the drain; the
// deferred effects run on the following call.
func (rt *Runtime) Flush() {
	if rt.flushing {
		return
	}
	if rt.scheduler != nil {
		if len(rt.pending) > 0 {
			rt.flushEffects()
		}
		return
	}
	rt.deferred = false
	for len(rt.manual) > 0 && !rt.deferred {
		tasks := rt.manual
		rt.manual = nil
		for i, task := range tasks {
			task()
			if rt.deferred {
				rt.manual = append(tasks[i+1:len(tasks):len(tasks)], rt.manual...)
				return
			}
		}
	}
	if len(rt.pending) > 0 && !rt.deferred {
		rt.flushEffects()
	}
}

// flushEffects runs the pending queue in insertion order. Effects queued
// while the flush runs are appended and run in the same flush, subject to
// the storm budget.
func (rt *Runtime) flushEffects() {
	rt.flushing = true
	start := time.Now()
	runs := 0
	defer func() {
		rt.flushing = false
		rt.instrument.Flush(runs, time.Since(start))
	}()

	for i := 0; i < len(rt.pending); i++ {
		if runs >= rt.maxEffectRuns {
			rest := append([]*node(nil), rt.pending[i:]...)
			rt.pending = rest
			rt.deferred = true
			rt.instrument.Deferred(len(rest))
			rt.logger.Warn("effect storm budget exceeded, deferring to next tick",
				"code", "E022",
				"budget", rt.maxEffectRuns,
				"deferred", len(rest))
			rt.scheduleFlush()
			return
		}

		n := rt.pending[i]
		rt.pending[i] = nil
		n.pending = false
		if n.disposed {
			continue
		}
		if rt.runEffect(n) {
			runs++
		}
	}
	rt.pending = rt.pending[:0]
}

// runEffect re-validates n's sources and runs it if one of them changed.
// Panics are recovered and logged.
func (rt *Runtime) runEffect(n *node) (ran bool) {
	defer func() {
		if r := recover(); r != nil {
			ran = true
			err := errors.FromPanic("E003", r, debug.Stack())
			if n.catch != nil {
				n.catch(err)
				return
			}
			rt.logger.Error("effect panicked", "error", err, "effect", n.label)
		}
	}()
	if len(n.sources) > 0 && !n.sourcesChanged() {
		return false
	}
	n.run()
	rt.instrument.EffectRun(n.label)
	return true
}

func cycleError(n *node) error {
	name := n.label
	if name == "" {
		name = fmt.Sprintf("#%d", n.id)
	}
	return errors.New("E001").WithComponent(name)
}
