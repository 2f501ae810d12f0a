// Package loop provides the cooperative single-goroutine executor that
// drives a loom application.
//
// A Loop owns three queues:
//
//   - macrotasks, posted from any goroutine with Post;
//   - microtasks, queued from the loop goroutine with Microtask and drained
//     after every macrotask, before the next one starts;
//   - async operations started with Go: the function runs on its own
//     goroutine and its completion callback is posted back as a macrotask.
//
// All reactive state and component trees are touched only from the loop
// goroutine, so they need no locks. Go is the only way work leaves the loop.
//
// A Loop can be driven in two ways. Run blocks and processes tasks until the
// context ends or Stop is called; this is how applications run. Without Run,
// tests drive the loop deterministically from their own goroutine with
// Settle (run until idle, waiting for async operations) or RunPending (run
// what is queued right now).
package loop
