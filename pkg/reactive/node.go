package reactive

import (
	"sync/atomic"
)

// globalIDCounter is the source of unique IDs for all atoms.
var globalIDCounter uint64

// nextID returns the next unique atom ID. IDs are never reused.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

// Kind identifies the role of an atom in the graph.
type Kind uint8

const (
	// KindRoot is a writable state cell (Signal, container key).
	KindRoot Kind = iota
	// KindComputed is a memoized derived value.
	KindComputed
	// KindEffect is an impure subscriber.
	KindEffect
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindComputed:
		return "computed"
	case KindEffect:
		return "effect"
	default:
		return "unknown"
	}
}

// node is the type-erased atom shared by signals, memos and effects.
type node struct {
	id    uint64
	kind  Kind
	rt    *Runtime
	label string
	key   string

	// version is bumped only when the atom's value actually changes.
	version uint64

	// dirty marks a computed whose cache may be stale.
	dirty bool

	// evaluated is set once a computed has produced its first value.
	evaluated bool

	// detached marks a computed that lost its last observer and unlinked
	// itself from its sources. It re-validates through version stamps.
	detached bool

	computing bool
	pending   bool
	disposed  bool

	sources        []*node
	sourceVersions []uint64
	observers      []*node

	// evaluate recomputes a computed. It reports whether the value changed.
	evaluate func() bool

	// run executes an effect body.
	run func()

	// catch receives panics recovered from run. When nil they are logged.
	catch func(error)
}

func newNode(rt *Runtime, kind Kind, label string) *node {
	return &node{
		id:    nextID(),
		kind:  kind,
		rt:    rt,
		label: label,
		dirty: kind == KindComputed,
	}
}

// addObserver appends o to n's observers. Callers guarantee o is not
// already present.
func (n *node) addObserver(o *node) {
	n.observers = append(n.observers, o)
	if n.kind == KindComputed && n.detached {
		n.attach()
	}
}

// removeObserver removes o while preserving subscription order.
func (n *node) removeObserver(o *node) {
	for i, existing := range n.observers {
		if existing == o {
			copy(n.observers[i:], n.observers[i+1:])
			n.observers[len(n.observers)-1] = nil
			n.observers = n.observers[:len(n.observers)-1]
			break
		}
	}
	if n.kind == KindComputed && len(n.observers) == 0 && !n.detached {
		n.detach()
	}
}

// detach unlinks an unobserved computed from its sources so it can be
// collected. Its stamps are kept to avoid recomputing on the next read.
func (n *node) detach() {
	n.detached = true
	n.dirty = true
	for _, src := range n.sources {
		src.removeObserver(n)
	}
}

// attach re-links a detached computed to the sources it last read and
// re-validates it, so that the next write to a source reaches the new
// observer.
func (n *node) attach() {
	n.detached = false
	for _, src := range n.sources {
		src.addObserver(n)
	}
	if !n.dirty {
		return
	}
	if n.evaluated && !n.sourcesChanged() {
		n.dirty = false
		return
	}
	n.evaluate()
}

// unlinkAll drops every source edge of n.
func (n *node) unlinkAll() {
	sources := n.sources
	n.sources = nil
	n.sourceVersions = nil
	for _, src := range sources {
		src.removeObserver(n)
	}
}

// invalidate propagates a change of n to its observers: computed observers
// become dirty (and propagate further), effect observers are queued.
func (n *node) invalidate() {
	for _, o := range n.observers {
		switch o.kind {
		case KindComputed:
			if !o.dirty {
				o.dirty = true
				o.invalidate()
			}
		case KindEffect:
			n.rt.enqueue(o)
		}
	}
}

// refresh brings a computed up to date. A dirty computed whose sources all
// kept their versions is marked clean without re-evaluating. A computed
// whose last evaluation panicked is clean but unevaluated, and retries.
func (n *node) refresh() {
	if n.kind != KindComputed || (!n.dirty && n.evaluated) {
		return
	}
	if n.computing {
		panic(cycleError(n))
	}
	if n.evaluated && !n.sourcesChanged() {
		if !n.detached {
			n.dirty = false
		}
		return
	}
	n.evaluate()
}

// sourcesChanged refreshes every computed source in read order and reports
// whether any source version differs from the stamp taken when n last ran.
func (n *node) sourcesChanged() bool {
	n.computing = true
	defer func() { n.computing = false }()
	for i, src := range n.sources {
		src.refresh()
		if src.version != n.sourceVersions[i] {
			return true
		}
	}
	return false
}

// restamp records the current version of every source.
func (n *node) restamp() {
	for i, src := range n.sources {
		n.sourceVersions[i] = src.version
	}
}

// write records a change of a root atom and propagates it.
func (n *node) write() {
	n.version++
	n.invalidate()
}
