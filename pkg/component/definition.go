package component

import "github.com/vango-dev/loom/pkg/vdom"

// RenderFunc produces a component's view tree. Reactive reads it makes
// become the component's subscriptions.
type RenderFunc func() *vdom.VNode

// Definition describes a component. Definitions are compared by pointer;
// a placeholder referencing the same Definition and key across renders
// keeps the same Node.
type Definition struct {
	Name string

	// Setup runs once per instance, before OnWillStart hooks. It registers
	// hooks and returns the render function.
	Setup func(c *Node) RenderFunc
}

var _ vdom.Component = (*Definition)(nil)

// Define creates a component definition.
func Define(name string, setup func(c *Node) RenderFunc) *Definition {
	return &Definition{Name: name, Setup: setup}
}

// Static creates a definition without state whose render function receives
// the instance.
func Static(name string, render func(c *Node) *vdom.VNode) *Definition {
	return Define(name, func(c *Node) RenderFunc {
		return func() *vdom.VNode { return render(c) }
	})
}

// ComponentName implements vdom.Component.
func (d *Definition) ComponentName() string {
	return d.Name
}

// Placeholder references d from a parent's view tree.
func (d *Definition) Placeholder(props vdom.Props) *vdom.VNode {
	return vdom.Child(d, props)
}

// Keyed references d from a parent's view tree with a reconciliation key.
func (d *Definition) Keyed(key string, props vdom.Props) *vdom.VNode {
	return vdom.KeyedChild(d, key, props)
}
