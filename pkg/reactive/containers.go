package reactive

import (
	"fmt"
	"slices"
)

// Object is a reactive record with dynamic string keys. Each key is its own
// atom, so a reader of "a" is not invalidated by a write to "b". Key
// enumeration is tracked separately and changes only when keys are added or
// removed.
type Object struct {
	rt     *Runtime
	label  string
	keys   *node
	order  []string
	fields map[string]*field
}

type field struct {
	n       *node
	value   any
	present bool
}

// Proxy wraps initial into a reactive Object. The map is copied.
func Proxy(rt *Runtime, initial map[string]any) *Object {
	o := NewObject(rt)
	keys := make([]string, 0, len(initial))
	for k := range initial {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		f := o.field(k)
		f.value = initial[k]
		f.present = true
		o.order = append(o.order, k)
	}
	return o
}

// NewObject creates an empty reactive Object.
func NewObject(rt *Runtime) *Object {
	o := &Object{
		rt:     rt,
		keys:   newNode(rt, KindRoot, ""),
		fields: make(map[string]*field),
	}
	o.keys.key = "*keys"
	return o
}

// WithLabel names the object in subscriptions.
func (o *Object) WithLabel(label string) *Object {
	o.label = label
	o.keys.label = label
	for _, f := range o.fields {
		f.n.label = label
	}
	return o
}

// field returns the atom for key, creating it on first use. Reading a
// missing key creates its atom so that a later Set invalidates the reader.
func (o *Object) field(key string) *field {
	f, ok := o.fields[key]
	if !ok {
		f = &field{n: newNode(o.rt, KindRoot, o.label)}
		f.n.key = key
		o.fields[key] = f
	}
	return f
}

// Get returns the value stored under key (nil if absent) and subscribes to
// that key.
func (o *Object) Get(key string) any {
	f := o.field(key)
	o.rt.track(f.n)
	return f.value
}

// Has reports whether key is present and subscribes to that key.
func (o *Object) Has(key string) bool {
	f := o.field(key)
	o.rt.track(f.n)
	return f.present
}

// Peek returns the value under key without subscribing.
func (o *Object) Peek(key string) any {
	if f, ok := o.fields[key]; ok {
		return f.value
	}
	return nil
}

// Set stores value under key. Storing an identical value is a no-op.
func (o *Object) Set(key string, value any) {
	f := o.field(key)
	if f.present && Identical(f.value, value) {
		return
	}
	added := !f.present
	f.value = value
	f.present = true
	if added {
		o.order = append(o.order, key)
	}
	f.n.write()
	if added {
		o.keys.write()
	}
}

// Delete removes key.
func (o *Object) Delete(key string) {
	f, ok := o.fields[key]
	if !ok || !f.present {
		return
	}
	var zero any
	f.value = zero
	f.present = false
	o.order = slices.DeleteFunc(o.order, func(k string) bool { return k == key })
	f.n.write()
	o.keys.write()
}

// Keys returns the present keys in insertion order and subscribes to key
// additions and removals.
func (o *Object) Keys() []string {
	o.rt.track(o.keys)
	return slices.Clone(o.order)
}

// Len returns the number of present keys and subscribes like Keys.
func (o *Object) Len() int {
	o.rt.track(o.keys)
	return len(o.order)
}

// Invalidate marks every present key and the key set changed.
func (o *Object) Invalidate() {
	for _, k := range o.order {
		o.fields[k].n.write()
	}
	o.keys.write()
}

// Field reads key from o as a T. A missing key or a value of another type
// yields the zero value.
func Field[T any](o *Object, key string) T {
	v, _ := o.Get(key).(T)
	return v
}

// Map is a reactive map with one atom per key plus one for the key set.
type Map[K comparable, V any] struct {
	rt      *Runtime
	label   string
	keys    *node
	order   []K
	entries map[K]*entry[V]
}

type entry[V any] struct {
	n       *node
	value   V
	present bool
}

// NewMap creates an empty reactive map.
func NewMap[K comparable, V any](rt *Runtime) *Map[K, V] {
	m := &Map[K, V]{
		rt:      rt,
		keys:    newNode(rt, KindRoot, ""),
		entries: make(map[K]*entry[V]),
	}
	m.keys.key = "*keys"
	return m
}

// WithLabel names the map in subscriptions.
func (m *Map[K, V]) WithLabel(label string) *Map[K, V] {
	m.label = label
	m.keys.label = label
	for _, e := range m.entries {
		e.n.label = label
	}
	return m
}

func (m *Map[K, V]) entry(key K) *entry[V] {
	e, ok := m.entries[key]
	if !ok {
		e = &entry[V]{n: newNode(m.rt, KindRoot, m.label)}
		e.n.key = fmt.Sprint(key)
		m.entries[key] = e
	}
	return e
}

// Get returns the value for key and whether it is present, subscribing to
// that key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	e := m.entry(key)
	m.rt.track(e.n)
	return e.value, e.present
}

// Has reports whether key is present, subscribing to that key.
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key. Storing an identical value is a no-op.
func (m *Map[K, V]) Set(key K, value V) {
	e := m.entry(key)
	if e.present && Identical(e.value, value) {
		return
	}
	added := !e.present
	e.value = value
	e.present = true
	if added {
		m.order = append(m.order, key)
	}
	e.n.write()
	if added {
		m.keys.write()
	}
}

// Delete removes key.
func (m *Map[K, V]) Delete(key K) {
	e, ok := m.entries[key]
	if !ok || !e.present {
		return
	}
	var zero V
	e.value = zero
	e.present = false
	m.order = slices.DeleteFunc(m.order, func(k K) bool { return k == key })
	e.n.write()
	m.keys.write()
}

// Clear removes every key.
func (m *Map[K, V]) Clear() {
	for _, k := range slices.Clone(m.order) {
		m.Delete(k)
	}
}

// Keys returns the present keys in insertion order, subscribing to key
// additions and removals.
func (m *Map[K, V]) Keys() []K {
	m.rt.track(m.keys)
	return slices.Clone(m.order)
}

// Len returns the number of present keys, subscribing like Keys.
func (m *Map[K, V]) Len() int {
	m.rt.track(m.keys)
	return len(m.order)
}

// Range calls fn for every entry in insertion order until fn returns false.
// It subscribes to the key set and to every visited key.
func (m *Map[K, V]) Range(fn func(K, V) bool) {
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		if !fn(k, v) {
			return
		}
	}
}

// Set is a reactive set built on Map.
type Set[K comparable] struct {
	m *Map[K, struct{}]
}

// NewSet creates a reactive set holding values.
func NewSet[K comparable](rt *Runtime, values ...K) *Set[K] {
	s := &Set[K]{m: NewMap[K, struct{}](rt)}
	for _, v := range values {
		s.m.Set(v, struct{}{})
	}
	return s
}

// WithLabel names the set in subscriptions.
func (s *Set[K]) WithLabel(label string) *Set[K] {
	s.m.WithLabel(label)
	return s
}

// Add inserts v.
func (s *Set[K]) Add(v K) { s.m.Set(v, struct{}{}) }

// Delete removes v.
func (s *Set[K]) Delete(v K) { s.m.Delete(v) }

// Has reports membership of v, subscribing to v.
func (s *Set[K]) Has(v K) bool { return s.m.Has(v) }

// Len returns the set size.
func (s *Set[K]) Len() int { return s.m.Len() }

// Values returns the members in insertion order.
func (s *Set[K]) Values() []K { return s.m.Keys() }

// Clear removes every member.
func (s *Set[K]) Clear() { s.m.Clear() }

// List is a reactive slice. The whole list is one atom: any mutation
// invalidates every reader.
type List[T any] struct {
	n     *node
	items []T
}

// NewList creates a list holding a copy of items.
func NewList[T any](rt *Runtime, items ...T) *List[T] {
	return &List[T]{
		n:     newNode(rt, KindRoot, ""),
		items: slices.Clone(items),
	}
}

// WithLabel names the list in subscriptions.
func (l *List[T]) WithLabel(label string) *List[T] {
	l.n.label = label
	return l
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	l.n.rt.track(l.n)
	return len(l.items)
}

// At returns item i. It panics if i is out of range.
func (l *List[T]) At(i int) T {
	l.n.rt.track(l.n)
	return l.items[i]
}

// Values returns a copy of the items.
func (l *List[T]) Values() []T {
	l.n.rt.track(l.n)
	return slices.Clone(l.items)
}

// Peek returns a copy of the items without subscribing.
func (l *List[T]) Peek() []T {
	return slices.Clone(l.items)
}

// Append adds items at the end.
func (l *List[T]) Append(items ...T) {
	if len(items) == 0 {
		return
	}
	l.items = append(l.items, items...)
	l.n.write()
}

// SetAt replaces item i. Writing an identical value is a no-op.
func (l *List[T]) SetAt(i int, v T) {
	if Identical(l.items[i], v) {
		return
	}
	l.items[i] = v
	l.n.write()
}

// Insert places v at index i.
func (l *List[T]) Insert(i int, v T) {
	l.items = slices.Insert(l.items, i, v)
	l.n.write()
}

// RemoveAt deletes item i.
func (l *List[T]) RemoveAt(i int) {
	l.items = slices.Delete(l.items, i, i+1)
	l.n.write()
}

// Replace swaps the whole content.
func (l *List[T]) Replace(items []T) {
	l.items = slices.Clone(items)
	l.n.write()
}

// Clear removes every item.
func (l *List[T]) Clear() {
	if len(l.items) == 0 {
		return
	}
	l.items = nil
	l.n.write()
}

// Invalidate marks the list changed without mutating it.
func (l *List[T]) Invalidate() {
	l.n.write()
}
