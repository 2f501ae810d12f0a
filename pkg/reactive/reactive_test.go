package reactive

import (
	"bytes"
	stderrors "errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestMemo_NoRedundantRecompute(t *testing.T) {
	rt := NewRuntime()
	a := NewSignal(rt, 2)
	calls := 0
	double := NewMemo(rt, func() int {
		calls++
		return a.Get() * 2
	})

	for i := 0; i < 5; i++ {
		if got := double.Get(); got != 4 {
			t.Fatalf("Get() = %d, want 4", got)
		}
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}

	a.Set(3)
	if calls != 1 {
		t.Errorf("write must not recompute eagerly, calls = %d", calls)
	}
	if !double.Dirty() {
		t.Error("memo should be dirty after its source changed")
	}
	for i := 0; i < 3; i++ {
		double.Get()
	}
	if calls != 2 {
		t.Errorf("compute ran %d times after one write, want 2", calls)
	}
}

func TestMemo_LazyNoComputeUntilRead(t *testing.T) {
	rt := NewRuntime()
	calls := 0
	m := NewMemo(rt, func() int {
		calls++
		return 1
	})
	if calls != 0 {
		t.Fatalf("memo computed before first read")
	}
	m.Peek()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDiamondShortCircuit(t *testing.T) {
	rt := NewRuntime()
	a := NewSignal(rt, 1)

	b1Calls, b2Calls, hCalls := 0, 0, 0
	b1 := NewMemo(rt, func() bool {
		b1Calls++
		return a.Get() > 0
	})
	b2 := NewMemo(rt, func() bool {
		b2Calls++
		return a.Get() < 100
	})
	h := NewMemo(rt, func() int {
		hCalls++
		n := 0
		if b1.Get() {
			n++
		}
		if b2.Get() {
			n++
		}
		return n
	})

	runs := 0
	NewEffect(rt, func() Cleanup {
		runs++
		h.Get()
		return nil
	})
	if runs != 1 || hCalls != 1 {
		t.Fatalf("initial: runs=%d hCalls=%d", runs, hCalls)
	}

	a.Set(2)
	rt.Flush()

	if b1Calls != 2 || b2Calls != 2 {
		t.Errorf("b1Calls=%d b2Calls=%d, want 2 each", b1Calls, b2Calls)
	}
	if hCalls != 1 {
		t.Errorf("h recomputed %d times, want 1 (inputs unchanged)", hCalls)
	}
	if runs != 1 {
		t.Errorf("effect ran %d times, want 1", runs)
	}

	a.Set(-1)
	rt.Flush()
	if hCalls != 2 || runs != 2 {
		t.Errorf("after real change: hCalls=%d runs=%d, want 2/2", hCalls, runs)
	}
}

func TestEffect_NeverRunsInsideWrite(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 0)
	runs := 0
	NewEffect(rt, func() Cleanup {
		s.Get()
		runs++
		return nil
	})

	s.Set(1)
	if runs != 1 {
		t.Fatalf("effect ran synchronously inside Set")
	}
	if rt.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", rt.Pending())
	}
	rt.Flush()
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestBatchingIdempotence(t *testing.T) {
	rt := NewRuntime()
	a := NewSignal(rt, 0)
	b := NewSignal(rt, "x")

	var seen []string
	NewEffect(rt, func() Cleanup {
		seen = append(seen, b.Get()+":"+string(rune('0'+a.Get())))
		return nil
	})

	for i := 1; i <= 5; i++ {
		a.Set(i)
	}
	b.Set("y")
	b.Set("z")
	rt.Flush()

	if len(seen) != 2 {
		t.Fatalf("effect ran %d times, want 2: %v", len(seen), seen)
	}
	if seen[1] != "z:5" {
		t.Errorf("effect saw %q, want final state z:5", seen[1])
	}
}

func TestConditionalSubscription(t *testing.T) {
	rt := NewRuntime()
	state := Proxy(rt, map[string]any{"flag": false, "a": 1, "b": 1})

	runs := 0
	NewEffect(rt, func() Cleanup {
		runs++
		if Field[bool](state, "flag") {
			Field[int](state, "a")
		}
		return nil
	})

	state.Set("a", 2)
	rt.Flush()
	if runs != 1 {
		t.Errorf("effect re-ran for an untaken branch, runs = %d", runs)
	}

	state.Set("flag", true)
	rt.Flush()
	if runs != 2 {
		t.Fatalf("runs = %d, want 2", runs)
	}

	state.Set("a", 3)
	rt.Flush()
	if runs != 3 {
		t.Errorf("runs = %d, want 3 once the branch is taken", runs)
	}

	state.Set("b", 5)
	rt.Flush()
	if runs != 3 {
		t.Errorf("effect re-ran for a key it never read, runs = %d", runs)
	}
}

func TestProxyComputedEffect_SameTickWrites(t *testing.T) {
	rt := NewRuntime()
	state := Proxy(rt, map[string]any{"a": 1, "b": 2})

	computes := 0
	c := NewMemo(rt, func() int {
		computes++
		return Field[int](state, "a") + Field[int](state, "b")
	})

	runs := 0
	var last int
	NewEffect(rt, func() Cleanup {
		runs++
		last = c.Get()
		return nil
	})
	if computes != 1 || runs != 1 || last != 3 {
		t.Fatalf("initial computes=%d runs=%d last=%d", computes, runs, last)
	}

	state.Set("a", 1)
	rt.Flush()
	if computes != 1 || runs != 1 {
		t.Errorf("identical write: computes=%d runs=%d, want 1/1", computes, runs)
	}

	state.Set("a", 2)
	state.Set("b", 3)
	rt.Flush()
	if computes != 2 {
		t.Errorf("computes = %d, want 2", computes)
	}
	if runs != 2 || last != 5 {
		t.Errorf("runs=%d last=%d, want 2 and 5", runs, last)
	}
}

func TestFlushOrder_InsertionOrder(t *testing.T) {
	rt := NewRuntime()
	a := NewSignal(rt, 0)
	b := NewSignal(rt, 0)

	var order []string
	NewEffect(rt, func() Cleanup {
		if b.Get() > 0 {
			order = append(order, "first")
		}
		return nil
	})
	NewEffect(rt, func() Cleanup {
		if a.Get() > 0 {
			order = append(order, "second")
		}
		return nil
	})

	a.Set(1)
	b.Set(1)
	rt.Flush()

	if strings.Join(order, ",") != "second,first" {
		t.Errorf("order = %v, want [second first]", order)
	}
}

func TestReentrantFlush_SameFlushFIFO(t *testing.T) {
	rt := NewRuntime()
	src := NewSignal(rt, 0)
	derived := NewSignal(rt, 0)

	var order []string
	NewEffect(rt, func() Cleanup {
		v := derived.Get()
		order = append(order, "reader")
		_ = v
		return nil
	})
	NewEffect(rt, func() Cleanup {
		v := src.Get()
		order = append(order, "writer")
		derived.Set(v * 10)
		return nil
	})
	order = nil

	src.Set(1)
	rt.Flush()

	if strings.Join(order, ",") != "writer,reader" {
		t.Errorf("order = %v", order)
	}
	if rt.Pending() != 0 {
		t.Errorf("Pending() = %d after flush", rt.Pending())
	}
}

func TestSignal_Invalidate(t *testing.T) {
	rt := NewRuntime()
	items := []int{1}
	s := NewSignal(rt, items)

	runs := 0
	NewEffect(rt, func() Cleanup {
		runs++
		s.Get()
		return nil
	})

	items[0] = 2
	s.Set(items)
	rt.Flush()
	if runs != 1 {
		t.Fatalf("identical slice should not trigger, runs = %d", runs)
	}

	s.Invalidate()
	rt.Flush()
	if runs != 2 {
		t.Errorf("Invalidate should re-run dependents, runs = %d", runs)
	}
}

func TestSignal_WithEquals(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, []int{1, 2}).WithEquals(DeepEqual[[]int])
	v := s.Version()
	s.Set([]int{1, 2})
	if s.Version() != v {
		t.Error("structurally equal write should be a no-op with DeepEqual")
	}
	s.Set([]int{1, 3})
	if s.Version() != v+1 {
		t.Error("different value should bump the version")
	}
}

func TestEffect_CleanupAndDispose(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 0)
	var log []string

	e := NewEffect(rt, func() Cleanup {
		v := s.Get()
		log = append(log, "run")
		return func() {
			log = append(log, "cleanup")
			_ = v
		}
	})

	s.Set(1)
	rt.Flush()
	e.Dispose()
	e.Dispose()
	s.Set(2)
	rt.Flush()

	want := "run,cleanup,run,cleanup"
	if got := strings.Join(log, ","); got != want {
		t.Errorf("log = %s, want %s", got, want)
	}
	if !e.Disposed() {
		t.Error("Disposed() = false")
	}
}

func TestEffect_PanicIsRecoveredAndLogged(t *testing.T) {
	var buf bytes.Buffer
	rt := NewRuntime(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	s := NewSignal(rt, 0)
	NewEffect(rt, func() Cleanup {
		if s.Get() == 1 {
			panic("boom")
		}
		return nil
	}, WithEffectLabel("exploding"))

	s.Set(1)
	rt.Flush()

	out := buf.String()
	if !strings.Contains(out, "effect panicked") || !strings.Contains(out, "E003") {
		t.Errorf("expected E003 log, got %q", out)
	}
}

func TestEffect_OnEffectError(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 0)
	var got error
	NewEffect(rt, func() Cleanup {
		if s.Get() > 0 {
			panic(stderrors.New("bad"))
		}
		return nil
	}, OnEffectError(func(err error) { got = err }))

	s.Set(1)
	rt.Flush()
	if got == nil || !strings.Contains(got.Error(), "bad") {
		t.Errorf("OnEffectError got %v", got)
	}
}

func TestMemo_CycleDetected(t *testing.T) {
	rt := NewRuntime()
	var m *Memo[int]
	m = NewMemo(rt, func() int {
		return m.Get() + 1
	})

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !stderrors.Is(err, ErrCycle) {
			t.Errorf("expected ErrCycle panic, got %v", r)
		}
	}()
	m.Get()
	t.Fatal("Get() did not panic")
}

func TestStormBudget_DefersToNextTick(t *testing.T) {
	var buf bytes.Buffer
	rt := NewRuntime(
		WithMaxEffectRunsPerFlush(5),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)
	s := NewSignal(rt, 0)
	runs := 0
	NewEffect(rt, func() Cleanup {
		runs++
		s.Set(s.Get() + 1)
		return nil
	})

	rt.Flush()
	if runs != 6 {
		t.Errorf("runs = %d, want 1 initial + 5 budgeted", runs)
	}
	if rt.Pending() != 1 {
		t.Errorf("Pending() = %d, want the deferred effect", rt.Pending())
	}
	if !strings.Contains(buf.String(), "E022") {
		t.Errorf("expected storm budget warning, got %q", buf.String())
	}

	rt.Flush()
	if runs != 11 {
		t.Errorf("runs = %d after second tick, want 11", runs)
	}
}

func TestUntracked(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 0)
	runs := 0
	NewEffect(rt, func() Cleanup {
		runs++
		rt.Untracked(func() { s.Get() })
		s.Peek()
		return nil
	})

	s.Set(1)
	rt.Flush()
	if runs != 1 {
		t.Errorf("untracked read subscribed, runs = %d", runs)
	}
}

func TestBatch_FlushesAtOutermostEnd(t *testing.T) {
	rt := NewRuntime()
	a := NewSignal(rt, 0)
	var seen []int
	NewEffect(rt, func() Cleanup {
		seen = append(seen, a.Get())
		return nil
	})

	rt.Batch(func() {
		a.Set(1)
		rt.Batch(func() {
			a.Set(2)
		})
		if len(seen) != 1 {
			t.Errorf("nested batch flushed early")
		}
		a.Set(3)
	})

	if len(seen) != 2 || seen[1] != 3 {
		t.Errorf("seen = %v, want [0 3]", seen)
	}
}

func TestBatched(t *testing.T) {
	rt := NewRuntime()
	calls := 0
	trigger := rt.Batched(func() { calls++ })

	trigger()
	trigger()
	trigger()
	if calls != 0 {
		t.Fatal("batched callback ran synchronously")
	}
	rt.Flush()
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	trigger()
	rt.Flush()
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestWithScheduler_OneFlushPerTick(t *testing.T) {
	var queue []func()
	rt := NewRuntime(WithScheduler(func(fn func()) { queue = append(queue, fn) }))
	a := NewSignal(rt, 0)
	runs := 0
	NewEffect(rt, func() Cleanup {
		a.Get()
		runs++
		return nil
	})

	a.Set(1)
	a.Set(2)
	a.Set(3)
	if len(queue) != 1 {
		t.Fatalf("scheduled %d ticks, want 1", len(queue))
	}
	queue[0]()
	if runs != 2 {
		t.Errorf("runs = %d, want 2", runs)
	}
}

func TestObserver(t *testing.T) {
	rt := NewRuntime()
	title := NewSignal(rt, "a").WithLabel("title")
	other := NewSignal(rt, 0)

	notified := 0
	o := NewObserver(rt, "Widget", func() { notified++ })
	o.Track(func() { title.Get() })

	subs := o.Subscriptions()
	if len(subs) != 1 || subs[0].Target != "title" || subs[0].Kind != "root" {
		t.Fatalf("Subscriptions() = %+v", subs)
	}

	other.Set(1)
	rt.Flush()
	if notified != 0 {
		t.Errorf("notified for unrelated signal")
	}

	title.Set("b")
	title.Set("c")
	rt.Flush()
	if notified != 1 {
		t.Errorf("notified = %d, want 1", notified)
	}

	// Not re-tracked yet: the same change must not notify twice.
	rt.Flush()
	if notified != 1 {
		t.Errorf("notified = %d after idle flush", notified)
	}

	o.Dispose()
	title.Set("d")
	rt.Flush()
	if notified != 1 {
		t.Errorf("disposed observer was notified")
	}
}

func TestMemo_DetachesWhenUnobserved(t *testing.T) {
	rt := NewRuntime()
	src := NewSignal(rt, 1)
	show := NewSignal(rt, true)
	calls := 0
	m := NewMemo(rt, func() int {
		calls++
		return src.Get() * 10
	})
	NewEffect(rt, func() Cleanup {
		if show.Get() {
			m.Get()
		}
		return nil
	})

	show.Set(false)
	rt.Flush()
	if len(src.n.observers) != 0 {
		t.Errorf("detached memo still observes its source")
	}

	src.Set(2)
	src.Set(3)
	if calls != 1 {
		t.Errorf("unobserved memo recomputed eagerly, calls = %d", calls)
	}
	if got := m.Get(); got != 30 {
		t.Errorf("Get() = %d, want 30", got)
	}
	m.Get()
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestMemo_ReattachedMemoPropagates(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 1)
	m := NewMemo(rt, func() int { return s.Get() * 10 })

	first := NewEffect(rt, func() Cleanup {
		m.Get()
		return nil
	})
	first.Dispose()
	if len(s.n.observers) != 0 {
		t.Fatalf("memo kept observing its source after its last reader left")
	}

	var seen []int
	NewEffect(rt, func() Cleanup {
		seen = append(seen, m.Get())
		return nil
	})
	if m.Dirty() {
		t.Error("re-observed memo is still dirty")
	}

	s.Set(2)
	rt.Flush()
	s.Set(3)
	rt.Flush()

	want := []int{10, 20, 30}
	if len(seen) != len(want) {
		t.Fatalf("effect ran %d times (%v), want %v", len(seen), seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen = %v, want %v", seen, want)
			break
		}
	}
}

func TestMemo_ConditionalReadToggledBackOn(t *testing.T) {
	rt := NewRuntime()
	src := NewSignal(rt, 1)
	show := NewSignal(rt, true)
	m := NewMemo(rt, func() int { return src.Get() * 10 })

	last := 0
	NewEffect(rt, func() Cleanup {
		if show.Get() {
			last = m.Get()
		}
		return nil
	})

	show.Set(false)
	rt.Flush()
	show.Set(true)
	rt.Flush()

	src.Set(2)
	rt.Flush()
	if last != 20 {
		t.Errorf("last = %d, want 20", last)
	}
}

func TestMemo_RecoversAfterPanic(t *testing.T) {
	var buf bytes.Buffer
	rt := NewRuntime(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	s := NewSignal(rt, 1)
	quotient := NewMemo(rt, func() int { return 100 / s.Get() })

	var seen []int
	NewEffect(rt, func() Cleanup {
		seen = append(seen, quotient.Get())
		return nil
	})

	s.Set(0)
	rt.Flush()
	if !strings.Contains(buf.String(), "E003") {
		t.Errorf("memo panic was not logged: %q", buf.String())
	}

	s.Set(4)
	rt.Flush()
	if len(seen) != 2 || seen[1] != 25 {
		t.Fatalf("seen = %v, want [100 25]", seen)
	}

	s.Set(5)
	rt.Flush()
	if len(seen) != 3 || seen[2] != 20 {
		t.Errorf("seen = %v, want [100 25 20]", seen)
	}
}

func TestMemo_ReadAfterPanicRetries(t *testing.T) {
	rt := NewRuntime()
	s := NewSignal(rt, 0)
	calls := 0
	m := NewMemo(rt, func() int {
		calls++
		return 10 / s.Get()
	})

	for i := 0; i < 2; i++ {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("read %d: expected panic", i)
				}
			}()
			m.Peek()
		}()
	}
	if calls != 2 {
		t.Errorf("calls = %d, want a retry on every read", calls)
	}
	if !m.Dirty() {
		t.Error("memo without a value reports clean")
	}

	s.Set(2)
	if got := m.Peek(); got != 5 {
		t.Errorf("Peek() = %d, want 5", got)
	}
}

type countingInstrument struct {
	recomputes, effectRuns, flushes, deferred int
}

func (c *countingInstrument) Recompute(string)         { c.recomputes++ }
func (c *countingInstrument) EffectRun(string)         { c.effectRuns++ }
func (c *countingInstrument) Flush(int, time.Duration) { c.flushes++ }
func (c *countingInstrument) Deferred(n int)           { c.deferred += n }

func TestInstrument(t *testing.T) {
	in := &countingInstrument{}
	rt := NewRuntime(WithInstrument(in))
	a := NewSignal(rt, 1)
	m := NewMemo(rt, func() int { return a.Get() + 1 })
	NewEffect(rt, func() Cleanup {
		m.Get()
		return nil
	})
	a.Set(2)
	rt.Flush()

	if in.recomputes != 2 || in.effectRuns != 2 || in.flushes != 1 {
		t.Errorf("instrument = %+v", in)
	}
}
