package loop

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/vango-dev/loom/internal/errors"
)

var (
	// ErrLoopTerminated is returned when work is posted to a stopped loop.
	ErrLoopTerminated = errors.New("E020")

	// ErrLoopAlreadyRunning is returned when Run is called twice.
	ErrLoopAlreadyRunning = errors.New("E021")
)

// microtaskWarnThreshold triggers a warning when a single drain runs this
// many microtasks, which usually means microtasks keep re-queueing each other.
const microtaskWarnThreshold = 10000

// Loop is a single-goroutine task executor.
type Loop struct {
	mu         sync.Mutex
	ingress    []func()
	microtasks []func()
	inflight   int
	running    bool
	stopped    bool
	idle       []chan struct{}

	// wake is signalled whenever ingress gains a task or Stop is called.
	wake chan struct{}

	logger *slog.Logger

	// OnPanic, when set, receives values recovered from panicking tasks
	// instead of the logger.
	OnPanic func(r any, stack []byte)
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for task panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a loop. It does not start a goroutine.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post queues fn as a macrotask. It is safe to call from any goroutine.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrLoopTerminated
	}
	l.ingress = append(l.ingress, fn)
	l.mu.Unlock()
	l.signal()
	return nil
}

// Microtask queues fn to run after the current task and before the next
// macrotask. It must be called from the loop goroutine.
func (l *Loop) Microtask(fn func()) {
	l.mu.Lock()
	l.microtasks = append(l.microtasks, fn)
	l.mu.Unlock()
}

// Go runs fn on a new goroutine and posts done(err) back to the loop when
// fn returns. A panic in fn is converted into an error. The operation counts
// as in flight until done has run, which keeps Settle waiting.
func (l *Loop) Go(ctx context.Context, fn func(context.Context) error, done func(error)) {
	l.mu.Lock()
	l.inflight++
	l.mu.Unlock()

	go func() {
		err := callAsync(ctx, fn)
		posted := l.Post(func() {
			l.finishInflight()
			if done != nil {
				done(err)
			}
		})
		if posted != nil {
			l.finishInflight()
		}
	}()
}

func callAsync(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.FromPanic("E023", r, debug.Stack())
		}
	}()
	return fn(ctx)
}

func (l *Loop) finishInflight() {
	l.mu.Lock()
	l.inflight--
	l.mu.Unlock()
	l.signal()
}

// AfterFunc posts fn to the loop once d has elapsed. The timer counts as an
// in-flight operation. The returned function cancels the timer.
func (l *Loop) AfterFunc(d time.Duration, fn func()) (cancel func()) {
	l.mu.Lock()
	l.inflight++
	l.mu.Unlock()

	var once sync.Once
	finish := func() { once.Do(l.finishInflight) }
	t := time.AfterFunc(d, func() {
		if err := l.Post(func() {
			finish()
			fn()
		}); err != nil {
			finish()
		}
	})
	return func() {
		if t.Stop() {
			finish()
		}
	}
}

// Do runs fn on the loop and waits for it to finish. The loop must be
// running on another goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := l.Post(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes tasks on the calling goroutine until ctx is done or Stop is
// called.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrLoopAlreadyRunning
	}
	if l.stopped {
		l.mu.Unlock()
		return ErrLoopTerminated
	}
	l.running = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	for {
		for l.step() {
		}
		l.notifyIdle()

		l.mu.Lock()
		stopped := l.stopped
		l.mu.Unlock()
		if stopped {
			return nil
		}

		select {
		case <-l.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Stop terminates the loop. Queued tasks are dropped and later Posts fail
// with ErrLoopTerminated.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.ingress = nil
	l.microtasks = nil
	waiters := l.idle
	l.idle = nil
	l.mu.Unlock()
	for _, w := range waiters {
		close(w)
	}
	l.signal()
}

// Running reports whether a goroutine is inside Run.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Stopped reports whether Stop has been called.
func (l *Loop) Stopped() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stopped
}

// RunPending runs queued macrotasks (and their microtasks) on the calling
// goroutine until the queue is empty. It does not wait for in-flight async
// operations. It returns the number of macrotasks run.
func (l *Loop) RunPending() int {
	n := 0
	l.drainMicrotasks()
	for l.step() {
		n++
	}
	return n
}

// Settle runs the loop until no task is queued and no async operation is in
// flight. When the loop is running on another goroutine, Settle only waits
// for that state.
func (l *Loop) Settle(ctx context.Context) error {
	l.mu.Lock()
	running := l.running
	l.mu.Unlock()
	if running {
		return l.waitIdle(ctx)
	}

	for {
		l.RunPending()

		l.mu.Lock()
		idle := l.inflight == 0 && len(l.ingress) == 0 && len(l.microtasks) == 0
		stopped := l.stopped
		l.mu.Unlock()
		if idle || stopped {
			return nil
		}

		select {
		case <-l.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Loop) waitIdle(ctx context.Context) error {
	ch := make(chan struct{})
	l.mu.Lock()
	l.idle = append(l.idle, ch)
	l.mu.Unlock()
	if err := l.Post(func() {}); err != nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) notifyIdle() {
	l.mu.Lock()
	if l.inflight > 0 || len(l.ingress) > 0 || len(l.idle) == 0 {
		l.mu.Unlock()
		return
	}
	waiters := l.idle
	l.idle = nil
	l.mu.Unlock()
	for _, w := range waiters {
		close(w)
	}
}

// step runs one macrotask and the microtasks it queued.
func (l *Loop) step() bool {
	l.mu.Lock()
	if len(l.ingress) == 0 {
		l.mu.Unlock()
		return false
	}
	fn := l.ingress[0]
	l.ingress[0] = nil
	l.ingress = l.ingress[1:]
	l.mu.Unlock()

	l.execute(fn)
	l.drainMicrotasks()
	return true
}

func (l *Loop) drainMicrotasks() {
	executed := 0
	for {
		l.mu.Lock()
		if len(l.microtasks) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.microtasks[0]
		l.microtasks[0] = nil
		l.microtasks = l.microtasks[1:]
		l.mu.Unlock()

		l.execute(fn)
		executed++
		if executed == microtaskWarnThreshold {
			l.logger.Warn("microtask queue is not draining, potential infinite loop",
				"executed", executed)
		}
	}
}

// execute runs fn, recovering panics so one task cannot stop the loop.
func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			if l.OnPanic != nil {
				l.OnPanic(r, stack)
				return
			}
			l.logger.Error("loop task panicked", "error", fmt.Sprint(r), "stack", string(stack))
		}
	}()
	fn()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
