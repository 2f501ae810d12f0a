package reactive

// Signal is a writable atom. Reading it inside a tracked computation
// subscribes the computation; writing a different value invalidates every
// subscriber.
type Signal[T any] struct {
	n     *node
	value T

	// equal decides whether a write changes the value. Nil means Identical.
	equal func(T, T) bool
}

// NewSignal creates a signal owned by rt.
func NewSignal[T any](rt *Runtime, initial T) *Signal[T] {
	return &Signal[T]{
		n:     newNode(rt, KindRoot, ""),
		value: initial,
	}
}

// Get returns the current value and subscribes the running computation.
func (s *Signal[T]) Get() T {
	s.n.rt.track(s.n)
	return s.value
}

// Peek returns the current value without subscribing.
func (s *Signal[T]) Peek() T {
	return s.value
}

// Set stores value. Writing a value equal to the current one is a no-op.
func (s *Signal[T]) Set(value T) {
	if s.equals(s.value, value) {
		return
	}
	s.value = value
	s.n.write()
}

// Update replaces the value with fn(current).
func (s *Signal[T]) Update(fn func(T) T) {
	s.Set(fn(s.value))
}

// Invalidate forces every subscriber to treat the signal as changed without
// changing its value. Use it after mutating the contents of a value held by
// reference.
func (s *Signal[T]) Invalidate() {
	s.n.write()
}

// WithEquals sets the equality used by Set.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// WithLabel names the signal in subscriptions, logs and metrics.
func (s *Signal[T]) WithLabel(label string) *Signal[T] {
	s.n.label = label
	return s
}

// ID returns the unique identifier of the signal's atom.
func (s *Signal[T]) ID() uint64 {
	return s.n.id
}

// Version returns the number of changes the signal has seen.
func (s *Signal[T]) Version() uint64 {
	return s.n.version
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return Identical(a, b)
}
