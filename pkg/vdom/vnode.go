package vdom

import "strings"

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement   VKind = iota // <div>, <button>, etc.
	KindText                   // Plain text node
	KindFragment               // Grouping without wrapper
	KindComponent              // Child component placeholder
	KindRaw                    // Raw HTML (dangerous)
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindComponent:
		return "Component"
	case KindRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// VNode is the virtual DOM node.
type VNode struct {
	Kind     VKind     // Node type
	Tag      string    // Element tag name (e.g., "div")
	Props    Props     // Attributes and event handlers; child props for components
	Children []*VNode  // Child nodes
	Key      string    // Reconciliation key
	Text     string    // For KindText and KindRaw
	Comp     Component // For KindComponent
}

// Props holds attributes and event handlers.
type Props map[string]any

// Component identifies a component definition referenced from a view tree.
// The component runtime's definitions implement it.
type Component interface {
	ComponentName() string
}

// IsInteractive returns true if this node has event handlers.
func (v *VNode) IsInteractive() bool {
	if v == nil || v.Kind != KindElement {
		return false
	}
	for key := range v.Props {
		if isEventHandler(key) {
			return true
		}
	}
	return false
}

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// EventHandler represents an event handler.
type EventHandler struct {
	Event   string // "onclick", "oninput", etc.
	Handler any    // func() or func(Event)
}

// Event is passed to handlers that accept an argument.
type Event struct {
	Type  string
	Value string
}

// Handler returns the handler registered for event (without the "on"
// prefix) on an element, or nil.
func (v *VNode) Handler(event string) any {
	if v == nil || v.Props == nil {
		return nil
	}
	return v.Props["on"+strings.ToLower(event)]
}

// Walk visits v and its descendants depth-first in document order. It does
// not descend into component placeholders' output, which lives in the
// child's own tree. Returning false from fn skips the node's children.
func Walk(v *VNode, fn func(*VNode) bool) {
	if v == nil {
		return
	}
	if !fn(v) {
		return
	}
	for _, c := range v.Children {
		Walk(c, fn)
	}
}

// Placeholders returns the component placeholders of a tree in document
// order.
func Placeholders(v *VNode) []*VNode {
	var out []*VNode
	Walk(v, func(n *VNode) bool {
		if n.Kind == KindComponent {
			out = append(out, n)
			return false
		}
		return true
	})
	return out
}
