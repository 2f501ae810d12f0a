// Package reactive implements loom's fine-grained reactive graph.
//
// Every observable value is an atom in a dependency graph owned by a
// Runtime. There are three kinds of atoms:
//
//   - Signal[T] holds root state written by application code.
//   - Memo[T] caches a pure derived value and is itself readable as an atom.
//   - Effect (and Observer) subscribe to the atoms they read and re-run
//     through the Runtime's scheduler when one of them changes.
//
// Reads made while a Memo, Effect or Observer body runs are tracked: the
// reading node subscribes to the atom, and the subscription set is rebuilt
// from scratch on every run, so atoms behind an untaken branch are never
// subscribed.
//
// # Invalidation
//
// Writing a Signal that changes its value bumps its version and marks every
// reachable Memo dirty without recomputing it. Effects reached by the walk are
// queued. When the queue is flushed each effect first re-validates its
// sources: dirty memos are recomputed depth-first, and a memo whose new value
// equals the cached one keeps its version. An effect runs only if a source
// version actually moved, which stops propagation across diamond-shaped
// graphs.
//
// # Scheduling
//
// Effects never run inside the write that invalidated them. The Runtime
// coalesces all writes made before the next tick into one flush. With a
// scheduler installed (see WithScheduler) the flush runs on the next
// microtask; without one, callers drive it with Flush.
//
//	rt := reactive.NewRuntime()
//	a := reactive.NewSignal(rt, 1)
//	b := reactive.NewSignal(rt, 2)
//	sum := reactive.NewMemo(rt, func() int { return a.Get() + b.Get() })
//	reactive.NewEffect(rt, func() reactive.Cleanup {
//	    fmt.Println(sum.Get())
//	    return nil
//	})
//	a.Set(2)
//	b.Set(3)
//	rt.Flush() // prints 5 once
//
// A Runtime is not safe for concurrent use. All reads and writes happen on
// one goroutine, normally the one running a loop.Loop.
package reactive
