// Package component is the component tree manager and render scheduler.
//
// A component is a Definition: a name and a setup function that registers
// lifecycle hooks, creates state and returns the render function. The App
// instantiates definitions into Nodes, renders them into view trees and
// commits those trees to the document.
//
//	Counter := component.Define("Counter", func(c *component.Node) component.RenderFunc {
//	    count := reactive.NewSignal(c.Runtime(), 0)
//	    return func() *vdom.VNode {
//	        return vdom.Button(vdom.OnClick(func() { count.Update(inc) }), vdom.Textf("%d", count.Get()))
//	    }
//	})
//
//	app := component.New(Counter)
//	root, err := app.Mount(target).Wait(ctx)
//
// # Render passes
//
// A render pass starts at one component and covers every descendant that
// has to re-render with it: children whose props changed, every descendant
// of a deep render, and descendants whose own state changed while the pass
// was in flight. Each component's part of a pass is a task stamped with the
// component's render generation. Tasks may suspend on async hooks
// (OnWillStart, OnWillUpdateProps); a new render request for a component
// restarts its task with a higher generation and the stale one is dropped
// when it resumes.
//
// The pass commits to the document only once every task in it has finished,
// on the next loop turn after the last one did. Commit order is fixed:
// willPatch top-down, patch, mounted bottom-up, patched bottom-up.
//
// # Errors
//
// A panic in a render function or hook aborts the task, destroys the
// failing component's subtree and calls the OnError handlers of the nearest
// ancestor that has some. Without a handler the whole App is destroyed and
// its targets cleared.
//
// All methods must be called on the App's loop goroutine. Use App.Dispatch
// or App.Call from other goroutines.
package component
