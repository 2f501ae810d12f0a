package dom

import (
	"sort"
	"strings"
)

// NodeType is the node type discriminator.
type NodeType uint8

const (
	ElementNode NodeType = iota // <div>, <button>, etc.
	TextNode                    // Escaped text
	RawNode                     // Unescaped HTML
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "Element"
	case TextNode:
		return "Text"
	case RawNode:
		return "Raw"
	default:
		return "Unknown"
	}
}

// Node is a node of the in-memory document.
type Node struct {
	Type NodeType
	Tag  string // For ElementNode
	Text string // For TextNode and RawNode

	attrs    map[string]string
	handlers map[string]any
	children []*Node
	parent   *Node

	// embedded lists the component blocks built directly into this element.
	embedded []*Block
}

// NewElement creates a detached element.
func NewElement(tag string) *Node {
	return &Node{Type: ElementNode, Tag: tag}
}

// NewText creates a detached text node.
func NewText(text string) *Node {
	return &Node{Type: TextNode, Text: text}
}

// NewRaw creates a detached raw HTML node.
func NewRaw(html string) *Node {
	return &Node{Type: RawNode, Text: html}
}

// Parent returns the parent node, or nil when detached.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the child nodes. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// Attr returns an attribute value.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// SetAttr sets an attribute. An empty value renders as a boolean attribute.
func (n *Node) SetAttr(key, value string) {
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[key] = value
}

// RemoveAttr removes an attribute.
func (n *Node) RemoveAttr(key string) {
	delete(n.attrs, key)
}

// AttrNames returns the attribute names in sorted order.
func (n *Node) AttrNames() []string {
	keys := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AppendChild appends c, detaching it from its current parent first.
func (n *Node) AppendChild(c *Node) {
	c.Remove()
	c.parent = n
	n.children = append(n.children, c)
}

// InsertAt inserts nodes at position i, detaching them first.
func (n *Node) InsertAt(i int, nodes ...*Node) {
	for _, c := range nodes {
		c.Remove()
	}
	if i > len(n.children) {
		i = len(n.children)
	}
	for _, c := range nodes {
		c.parent = n
	}
	rest := append([]*Node(nil), n.children[i:]...)
	n.children = append(append(n.children[:i], nodes...), rest...)
}

// Remove detaches n from its parent.
func (n *Node) Remove() {
	p := n.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// Index returns the position of n among its siblings, or -1 when detached.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// Clear removes all children.
func (n *Node) Clear() {
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
}

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	if n.Type != ElementNode {
		return n.Text
	}
	var sb strings.Builder
	n.walk(func(d *Node) bool {
		if d.Type == TextNode {
			sb.WriteString(d.Text)
		}
		return true
	})
	return sb.String()
}

// walk visits n and its descendants depth-first. Returning false stops the
// walk.
func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

// Find returns the first descendant (or n itself) matching fn.
func (n *Node) Find(fn func(*Node) bool) *Node {
	var found *Node
	n.walk(func(d *Node) bool {
		if fn(d) {
			found = d
			return false
		}
		return true
	})
	return found
}

// FindAll returns every node in the subtree matching fn, in document order.
func (n *Node) FindAll(fn func(*Node) bool) []*Node {
	var out []*Node
	n.walk(func(d *Node) bool {
		if fn(d) {
			out = append(out, d)
		}
		return true
	})
	return out
}

// ByID returns the element with the given id attribute.
func (n *Node) ByID(id string) *Node {
	return n.Find(func(d *Node) bool {
		v, ok := d.attrs["id"]
		return ok && v == id
	})
}

// ByTag returns all elements with the given tag.
func (n *Node) ByTag(tag string) []*Node {
	return n.FindAll(func(d *Node) bool {
		return d.Type == ElementNode && d.Tag == tag
	})
}
