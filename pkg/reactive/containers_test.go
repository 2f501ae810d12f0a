package reactive

import (
	"slices"
	"testing"
)

// counter runs read inside an effect and counts its runs.
func counter(rt *Runtime, read func()) *int {
	runs := new(int)
	NewEffect(rt, func() Cleanup {
		read()
		*runs++
		return nil
	})
	return runs
}

func TestContainers_PerKeyIsolation(t *testing.T) {
	tests := []struct {
		name  string
		setup func(rt *Runtime) (readA func(), writeB, writeA func())
	}{
		{
			name: "object",
			setup: func(rt *Runtime) (func(), func(), func()) {
				o := Proxy(rt, map[string]any{"a": 1, "b": 2})
				return func() { o.Get("a") },
					func() { o.Set("b", 3) },
					func() { o.Set("a", 4) }
			},
		},
		{
			name: "object missing key",
			setup: func(rt *Runtime) (func(), func(), func()) {
				o := NewObject(rt)
				return func() { o.Has("a") },
					func() { o.Set("b", true) },
					func() { o.Set("a", true) }
			},
		},
		{
			name: "map",
			setup: func(rt *Runtime) (func(), func(), func()) {
				m := NewMap[string, int](rt)
				m.Set("a", 1)
				m.Set("b", 2)
				return func() { m.Get("a") },
					func() { m.Set("b", 3) },
					func() { m.Delete("a") }
			},
		},
		{
			name: "set",
			setup: func(rt *Runtime) (func(), func(), func()) {
				s := NewSet(rt, "b")
				return func() { s.Has("a") },
					func() { s.Delete("b") },
					func() { s.Add("a") }
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := NewRuntime()
			readA, writeB, writeA := tt.setup(rt)
			runs := counter(rt, readA)

			writeB()
			rt.Flush()
			if *runs != 1 {
				t.Errorf("write to b re-ran the reader of a, runs = %d", *runs)
			}

			writeA()
			rt.Flush()
			if *runs != 2 {
				t.Errorf("write to a: runs = %d, want 2", *runs)
			}
		})
	}
}

// keySetCase reads a container's key set; update changes a present value
// while add and remove change the key set.
type keySetCase struct {
	name                string
	keys                func() []string
	update, add, remove func()
}

func TestContainers_KeySetSubscription(t *testing.T) {
	rt := NewRuntime()
	o := Proxy(rt, map[string]any{"x": 1})
	m := NewMap[string, int](rt)
	m.Set("x", 1)
	s := NewSet(rt, "x")

	tests := []keySetCase{
		{"object", o.Keys, func() { o.Set("x", 2) }, func() { o.Set("y", 1) }, func() { o.Delete("x") }},
		{"map", m.Keys, func() { m.Set("x", 2) }, func() { m.Set("y", 1) }, func() { m.Delete("x") }},
		{"set", s.Values, func() { s.Add("x") }, func() { s.Add("y") }, func() { s.Delete("x") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var last []string
			runs := counter(rt, func() { last = tt.keys() })

			tt.update()
			rt.Flush()
			if *runs != 1 {
				t.Errorf("value update re-ran a key-set reader, runs = %d", *runs)
			}

			tt.add()
			rt.Flush()
			if *runs != 2 || !slices.Equal(last, []string{"x", "y"}) {
				t.Errorf("after add: runs = %d, keys = %v", *runs, last)
			}

			tt.remove()
			rt.Flush()
			if *runs != 3 || !slices.Equal(last, []string{"y"}) {
				t.Errorf("after remove: runs = %d, keys = %v", *runs, last)
			}

			// Removing an absent key changes nothing.
			tt.remove()
			rt.Flush()
			if *runs != 3 {
				t.Errorf("removing an absent key re-ran the reader, runs = %d", *runs)
			}
		})
	}
}

func TestContainers_Invalidate(t *testing.T) {
	rt := NewRuntime()
	o := Proxy(rt, map[string]any{"a": 1})
	l := NewList(rt, 1, 2)

	tests := []struct {
		name       string
		read       func()
		invalidate func()
	}{
		{"object key", func() { o.Get("a") }, o.Invalidate},
		{"object keys", func() { o.Keys() }, o.Invalidate},
		{"list", func() { l.Len() }, l.Invalidate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs := counter(rt, tt.read)
			tt.invalidate()
			rt.Flush()
			if *runs != 2 {
				t.Errorf("runs = %d, want 2", *runs)
			}
		})
	}
}

func TestList_Mutations(t *testing.T) {
	rt := NewRuntime()
	l := NewList(rt, "a", "b")
	var last []string
	runs := counter(rt, func() { last = l.Values() })

	steps := []struct {
		name    string
		mutate  func()
		want    []string
		wantRun int
	}{
		{"append", func() { l.Append("c") }, []string{"a", "b", "c"}, 2},
		{"append nothing", func() { l.Append() }, []string{"a", "b", "c"}, 2},
		{"set identical", func() { l.SetAt(0, "a") }, []string{"a", "b", "c"}, 2},
		{"set", func() { l.SetAt(0, "z") }, []string{"z", "b", "c"}, 3},
		{"insert", func() { l.Insert(1, "y") }, []string{"z", "y", "b", "c"}, 4},
		{"remove", func() { l.RemoveAt(0) }, []string{"y", "b", "c"}, 5},
		{"replace", func() { l.Replace([]string{"q"}) }, []string{"q"}, 6},
		{"clear", l.Clear, nil, 7},
		{"clear empty", l.Clear, nil, 7},
	}
	for _, step := range steps {
		step.mutate()
		rt.Flush()
		if *runs != step.wantRun || !slices.Equal(last, step.want) {
			t.Errorf("%s: runs = %d, values = %v, want %d %v",
				step.name, *runs, last, step.wantRun, step.want)
		}
	}
	if got := l.Peek(); len(got) != 0 {
		t.Errorf("Peek() = %v", got)
	}
}

func TestField(t *testing.T) {
	rt := NewRuntime()
	o := Proxy(rt, map[string]any{"n": 3, "s": "x"})
	if got := Field[int](o, "n"); got != 3 {
		t.Errorf("Field[int](n) = %d", got)
	}
	if got := Field[int](o, "s"); got != 0 {
		t.Errorf("Field[int](s) = %d, want zero for a mistyped value", got)
	}
	if got := Field[string](o, "missing"); got != "" {
		t.Errorf("Field[string](missing) = %q", got)
	}
}

func TestMap_Range(t *testing.T) {
	rt := NewRuntime()
	m := NewMap[string, int](rt)
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	sum := 0
	runs := counter(rt, func() {
		sum = 0
		m.Range(func(_ string, v int) bool {
			sum += v
			return v < 2
		})
	})
	if sum != 3 {
		t.Fatalf("sum = %d, want 3 (stops after b)", sum)
	}

	m.Set("c", 30)
	rt.Flush()
	if *runs != 1 {
		t.Errorf("entry never visited by Range re-ran it, runs = %d", *runs)
	}

	m.Set("b", 1)
	rt.Flush()
	if *runs != 2 || sum != 32 {
		t.Errorf("runs = %d, sum = %d, want 2 and 32", *runs, sum)
	}

	m.Clear()
	rt.Flush()
	if m.Len() != 0 || sum != 0 {
		t.Errorf("after Clear: len = %d, sum = %d", m.Len(), sum)
	}
}

func TestResource(t *testing.T) {
	rt := NewRuntime()
	r := NewResource[string](rt)
	var items []string
	runs := counter(rt, func() { items = r.Items() })

	removeLate := r.AddWithSequence("late", 90)
	r.Add("middle")
	r.AddWithSequence("early", 10)
	removeSecond := r.Add("middle-2")
	rt.Flush()

	want := []string{"early", "middle", "middle-2", "late"}
	if !slices.Equal(items, want) {
		t.Fatalf("Items() = %v, want %v", items, want)
	}

	removeSecond()
	removeLate()
	rt.Flush()
	want = []string{"early", "middle"}
	if !slices.Equal(items, want) {
		t.Errorf("after remove: Items() = %v, want %v", items, want)
	}

	before := *runs
	removeLate()
	rt.Flush()
	if *runs != before {
		t.Errorf("removing twice re-ran the reader")
	}
}
