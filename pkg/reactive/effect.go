package reactive

import (
	"runtime/debug"

	"github.com/vango-dev/loom/internal/errors"
)

// Cleanup is returned by an effect body. It runs before the effect re-runs
// and when the effect is disposed.
type Cleanup func()

// Effect is an impure subscriber. It runs once when created and then again,
// through the scheduler, whenever an atom it read in its last run changes.
type Effect struct {
	n       *node
	fn      func() Cleanup
	cleanup Cleanup
}

// EffectOption configures an Effect.
type EffectOption func(*Effect)

// WithEffectLabel names the effect in logs and metrics.
func WithEffectLabel(label string) EffectOption {
	return func(e *Effect) {
		e.n.label = label
	}
}

// OnEffectError routes panics of the effect body to fn instead of the
// runtime's logger. The initial run is covered as well.
func OnEffectError(fn func(error)) EffectOption {
	return func(e *Effect) {
		e.n.catch = fn
	}
}

// NewEffect creates an effect and runs it synchronously to establish its
// first subscriptions. Dispose is the unsubscribe function.
func NewEffect(rt *Runtime, fn func() Cleanup, opts ...EffectOption) *Effect {
	e := &Effect{
		n:  newNode(rt, KindEffect, ""),
		fn: fn,
	}
	e.n.run = e.run
	for _, opt := range opts {
		opt(e)
	}
	e.start()
	return e
}

func (e *Effect) start() {
	if e.n.catch != nil {
		defer func() {
			if r := recover(); r != nil {
				e.n.catch(errors.FromPanic("E003", r, debug.Stack()))
			}
		}()
	}
	e.run()
	e.n.rt.instrument.EffectRun(e.n.label)
}

func (e *Effect) run() {
	if e.n.disposed {
		return
	}
	if e.cleanup != nil {
		cleanup := e.cleanup
		e.cleanup = nil
		cleanup()
	}
	e.n.rt.runTracked(e.n, func() {
		e.cleanup = e.fn()
	})
}

// Dispose stops the effect, drops its subscriptions and runs the pending
// cleanup. It is safe to call more than once.
func (e *Effect) Dispose() {
	if e.n.disposed {
		return
	}
	e.n.disposed = true
	e.n.unlinkAll()
	if e.cleanup != nil {
		cleanup := e.cleanup
		e.cleanup = nil
		cleanup()
	}
}

// Disposed reports whether Dispose has been called.
func (e *Effect) Disposed() bool {
	return e.n.disposed
}

// ID returns the unique identifier of the effect's atom.
func (e *Effect) ID() uint64 {
	return e.n.id
}

// Subscriptions returns the atoms read during the last run.
func (e *Effect) Subscriptions() []Subscription {
	return subscriptionsOf(e.n)
}

// Subscription describes one atom a subscriber read during its last run.
type Subscription struct {
	ID     uint64 `json:"id"`
	Kind   string `json:"kind"`
	Target string `json:"target,omitempty"`
	Key    string `json:"key,omitempty"`
}

func subscriptionsOf(n *node) []Subscription {
	subs := make([]Subscription, 0, len(n.sources))
	for _, src := range n.sources {
		subs = append(subs, Subscription{
			ID:     src.id,
			Kind:   src.kind.String(),
			Target: src.label,
			Key:    src.key,
		})
	}
	return subs
}

// Observer is an effect whose body is supplied on each run instead of at
// construction. The subscriber is notified when something it read in the
// last Track call changed, and decides itself when to Track again. Component
// renders are observers.
type Observer struct {
	n      *node
	notify func()
}

// NewObserver creates an observer. notify runs during a flush, at most once
// per change.
func NewObserver(rt *Runtime, label string, notify func()) *Observer {
	o := &Observer{
		n:      newNode(rt, KindEffect, label),
		notify: notify,
	}
	o.n.run = o.run
	return o
}

// Track runs fn with the observer as the active subscriber and replaces its
// subscriptions with the reads fn makes.
func (o *Observer) Track(fn func()) {
	if o.n.disposed {
		o.n.rt.Untracked(fn)
		return
	}
	o.n.rt.runTracked(o.n, fn)
}

// OnError routes panics raised by notify, or by memos re-validated on the
// observer's behalf, to fn.
func (o *Observer) OnError(fn func(error)) {
	o.n.catch = fn
}

func (o *Observer) run() {
	o.n.restamp()
	o.notify()
}

// Subscriptions returns the atoms read during the last Track call.
func (o *Observer) Subscriptions() []Subscription {
	return subscriptionsOf(o.n)
}

// Dispose drops all subscriptions. A disposed observer is never notified.
func (o *Observer) Dispose() {
	if o.n.disposed {
		return
	}
	o.n.disposed = true
	o.n.unlinkAll()
}

// ID returns the unique identifier of the observer's atom.
func (o *Observer) ID() uint64 {
	return o.n.id
}
