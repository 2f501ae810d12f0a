package reactive

import (
	"slices"
)

// Resource is an ordered registry of items contributed by independent
// parts of an application (plugins, components). Its aggregate view is a
// memo, so readers of Items are invalidated like any other computation.
type Resource[T any] struct {
	entries *List[resourceEntry[T]]
	items   *Memo[[]T]
	nextSeq uint64
}

type resourceEntry[T any] struct {
	id       uint64
	sequence int
	item     T
}

// NewResource creates an empty resource.
func NewResource[T any](rt *Runtime) *Resource[T] {
	r := &Resource[T]{
		entries: NewList[resourceEntry[T]](rt),
	}
	r.items = NewMemo(rt, func() []T {
		entries := r.entries.Values()
		slices.SortStableFunc(entries, func(a, b resourceEntry[T]) int {
			return a.sequence - b.sequence
		})
		out := make([]T, len(entries))
		for i, e := range entries {
			out[i] = e.item
		}
		return out
	})
	return r
}

// WithLabel names the resource in subscriptions.
func (r *Resource[T]) WithLabel(label string) *Resource[T] {
	r.entries.WithLabel(label)
	r.items.WithLabel(label)
	return r
}

// Add registers item with the default sequence 50. The returned function
// removes it again.
func (r *Resource[T]) Add(item T) (remove func()) {
	return r.AddWithSequence(item, 50)
}

// AddWithSequence registers item; items are ordered by ascending sequence,
// then by insertion.
func (r *Resource[T]) AddWithSequence(item T, sequence int) (remove func()) {
	r.nextSeq++
	id := r.nextSeq
	r.entries.Append(resourceEntry[T]{id: id, sequence: sequence, item: item})
	return func() {
		entries := r.entries.Peek()
		for i, e := range entries {
			if e.id == id {
				r.entries.RemoveAt(i)
				return
			}
		}
	}
}

// Items returns the registered items in order and subscribes to changes.
func (r *Resource[T]) Items() []T {
	return r.items.Get()
}
