package component

import (
	"maps"
	"slices"
)

// Env is an immutable set of values shared down the component tree.
// Extending an env copies it; the original stays shared by everyone else.
type Env struct {
	values map[string]any
}

// NewEnv creates an env holding values.
func NewEnv(values map[string]any) *Env {
	return &Env{values: maps.Clone(values)}
}

// Get returns the value for key.
func (e *Env) Get(key string) (any, bool) {
	if e == nil {
		return nil, false
	}
	v, ok := e.values[key]
	return v, ok
}

// Value returns the value for key, or nil.
func (e *Env) Value(key string) any {
	v, _ := e.Get(key)
	return v
}

// Keys returns the env keys in sorted order.
func (e *Env) Keys() []string {
	if e == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(e.values))
}

// Extend returns a copy of e with values added.
func (e *Env) Extend(values map[string]any) *Env {
	next := make(map[string]any, len(values))
	if e != nil {
		maps.Copy(next, e.values)
	}
	maps.Copy(next, values)
	return &Env{values: next}
}

// EnvValue returns the env value for key as a T.
func EnvValue[T any](e *Env, key string) (T, bool) {
	v, ok := e.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
