// Package vdom provides the view trees produced by loom render functions.
//
// A render function returns a VNode tree describing one component's output.
// Elements, text and fragments describe markup; component placeholders
// (KindComponent nodes created with Child or KeyedChild) mark where a child
// component's own tree is spliced in. The component runtime reconciles
// placeholders against existing child instances and the dom package turns
// the result into document nodes.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1(Text("Title")),
//	    Child(Counter, Props{"start": 3}),
//	    Button(OnClick(handler), Text("Add")),
//	)
//
// # Diffing
//
// Diff compares two trees of the same component and returns the patch
// operations needed to turn one into the other. Patches address nodes by
// child-index path from the root. Placeholders are compared by definition,
// key and props only; the child's output is diffed when the child renders.
package vdom
