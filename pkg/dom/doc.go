// Package dom is the document the component runtime renders into.
//
// It provides a small in-memory node tree (elements, text and raw HTML), an
// HTML serializer for inspecting it, and the Patcher that commits view trees
// produced by components:
//
//	target := dom.NewElement("div")
//	b := dom.NewBlock()
//	p := dom.NewPatcher()
//	if _, err := p.Patch(b, vdom.Div(vdom.Text("hi")), nil); err != nil {
//	    return err
//	}
//	p.Mount(b, target)
//	target.InnerHTML() // <div>hi</div>
//
// Each component owns one Block: the contiguous run of nodes its view tree
// produced. Component placeholders in a tree resolve to the child's Block,
// so a child can be patched in place without its parent re-rendering.
//
// Event handlers registered with vdom.On* are kept on the element and can be
// fired with Trigger.
package dom
