package reactive

// Memo is a cached derived value. It recomputes only when read while dirty
// and one of its sources has a new version, and it bumps its own version
// only when the recomputed value differs from the cached one.
type Memo[T any] struct {
	n     *node
	value T
	fn    func() T
	equal func(T, T) bool
}

// NewMemo creates a memo over fn. fn must be pure apart from tracked reads.
// Nothing is computed until the first read.
func NewMemo[T any](rt *Runtime, fn func() T) *Memo[T] {
	m := &Memo[T]{
		n:  newNode(rt, KindComputed, ""),
		fn: fn,
	}
	m.n.evaluate = m.evaluate
	return m
}

// Get returns the up-to-date value and subscribes the running computation.
// It panics with ErrCycle if the memo is read during its own evaluation.
func (m *Memo[T]) Get() T {
	if m.n.computing {
		panic(cycleError(m.n))
	}
	m.n.refresh()
	m.n.rt.track(m.n)
	return m.value
}

// Peek returns the up-to-date value without subscribing.
func (m *Memo[T]) Peek() T {
	if m.n.computing {
		panic(cycleError(m.n))
	}
	m.n.refresh()
	return m.value
}

// WithEquals sets the equality used to decide whether a recomputation
// changed the value.
func (m *Memo[T]) WithEquals(fn func(T, T) bool) *Memo[T] {
	m.equal = fn
	return m
}

// WithLabel names the memo in logs and metrics.
func (m *Memo[T]) WithLabel(label string) *Memo[T] {
	m.n.label = label
	return m
}

// ID returns the unique identifier of the memo's atom.
func (m *Memo[T]) ID() uint64 {
	return m.n.id
}

// Version returns the number of value changes the memo has produced.
func (m *Memo[T]) Version() uint64 {
	return m.n.version
}

// Dirty reports whether the cached value must be re-validated before use.
func (m *Memo[T]) Dirty() bool {
	return m.n.dirty || !m.n.evaluated
}

// Dispose unlinks the memo from its sources. Reading it again recomputes.
func (m *Memo[T]) Dispose() {
	m.n.unlinkAll()
	m.n.dirty = true
	m.n.evaluated = false
}

func (m *Memo[T]) evaluate() bool {
	var next T
	done := false
	defer func() {
		if !done {
			// Left clean so the next write to a source propagates through
			// it again; unevaluated so the next read retries fn.
			m.n.dirty = false
			m.n.evaluated = false
		}
	}()
	m.n.rt.runTracked(m.n, func() {
		next = m.fn()
	})
	done = true
	m.n.dirty = false
	m.n.rt.instrument.Recompute(m.n.label)

	if m.n.evaluated && m.equals(m.value, next) {
		return false
	}
	m.n.evaluated = true
	m.value = next
	m.n.version++
	return true
}

func (m *Memo[T]) equals(a, b T) bool {
	if m.equal != nil {
		return m.equal(a, b)
	}
	return Identical(a, b)
}
