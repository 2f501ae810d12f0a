package dom

import (
	"strings"

	"github.com/vango-dev/loom/internal/errors"
	"github.com/vango-dev/loom/pkg/vdom"
)

// Block is the part of the document owned by one component: the nodes its
// last committed view tree produced, with child components' blocks spliced
// in where the tree held placeholders.
type Block struct {
	tree     *vdom.VNode
	segments []segment
}

// segment is either an own top-level node or a child block.
type segment struct {
	node  *Node
	block *Block
}

// NewBlock creates an empty block.
func NewBlock() *Block {
	return &Block{}
}

// Tree returns the last committed view tree.
func (b *Block) Tree() *vdom.VNode {
	return b.tree
}

// Nodes returns the block's top-level document nodes, child blocks
// flattened. A committed block always has at least one node.
func (b *Block) Nodes() []*Node {
	var out []*Node
	for _, s := range b.segments {
		if s.block != nil {
			out = append(out, s.block.Nodes()...)
		} else {
			out = append(out, s.node)
		}
	}
	return out
}

// Attached reports whether the block's nodes are in a document.
func (b *Block) Attached() bool {
	nodes := b.Nodes()
	return len(nodes) > 0 && nodes[0].parent != nil
}

// HTML serializes the block's nodes.
func (b *Block) HTML() string {
	var sb strings.Builder
	for _, n := range b.Nodes() {
		_ = n.WriteHTML(&sb)
	}
	return sb.String()
}

// SlotFunc resolves a component placeholder to the child's block.
type SlotFunc func(placeholder *vdom.VNode) *Block

// Patcher commits view trees to blocks.
type Patcher interface {
	// Patch makes b reflect next. If b is attached, its nodes are replaced
	// in place. It returns the view-tree operations the change amounted to,
	// counted by kind.
	Patch(b *Block, next *vdom.VNode, slot SlotFunc) (vdom.OpCounts, error)

	// Mount appends the block's nodes to target.
	Mount(b *Block, target *Node)

	// Unmount detaches the block's nodes from the document.
	Unmount(b *Block)
}

type patcher struct{}

// NewPatcher returns the default patcher.
func NewPatcher() Patcher {
	return patcher{}
}

func (patcher) Patch(b *Block, next *vdom.VNode, slot SlotFunc) (vdom.OpCounts, error) {
	ops := vdom.Tally(vdom.Diff(b.tree, next))
	if b.tree != nil && len(ops) == 0 && sameSlots(b, next, slot) {
		// Handlers are not part of the diff; rebind them from the new tree.
		rebind(next, b.Nodes(), 0, slot)
		b.tree = next
		return ops, nil
	}

	old := b.Nodes()
	var parent *Node
	at := 0
	for _, n := range old {
		// Nodes of a child destroyed in the same commit are already detached.
		if n.parent != nil {
			parent = n.parent
			at = n.Index()
			break
		}
	}

	var segs []segment
	if err := build(next, slot, func(s segment) { segs = append(segs, s) }, nil); err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		// Keep a position in the document for an empty render.
		segs = []segment{{node: NewText("")}}
	}

	for _, n := range old {
		if n.parent == parent {
			n.Remove()
		}
	}
	b.segments = segs
	b.tree = next
	if parent != nil {
		parent.InsertAt(at, b.Nodes()...)
	}
	if len(ops) == 0 {
		// Only the embedded child blocks changed.
		ops[vdom.PatchReplaceNode] = 1
	}
	return ops, nil
}

func (patcher) Mount(b *Block, target *Node) {
	for _, n := range b.Nodes() {
		target.AppendChild(n)
	}
}

func (patcher) Unmount(b *Block) {
	for _, n := range b.Nodes() {
		n.Remove()
	}
}

// sameSlots reports whether next's placeholders resolve to exactly the
// blocks b already embeds.
func sameSlots(b *Block, next *vdom.VNode, slot SlotFunc) bool {
	var prev []*Block
	collectBlocks(b.segments, &prev)
	placeholders := vdom.Placeholders(next)
	if len(placeholders) != len(prev) {
		return false
	}
	if len(prev) > 0 && slot == nil {
		return false
	}
	seen := make(map[*Block]int, len(prev))
	for _, blk := range prev {
		seen[blk]++
	}
	for _, ph := range placeholders {
		blk := slot(ph)
		if seen[blk] == 0 {
			return false
		}
		seen[blk]--
	}
	return true
}

func collectBlocks(segs []segment, out *[]*Block) {
	for _, s := range segs {
		if s.block != nil {
			*out = append(*out, s.block)
		}
		if s.node != nil {
			s.node.walk(func(n *Node) bool {
				if n.embedded != nil {
					*out = append(*out, n.embedded...)
				}
				return true
			})
		}
	}
}

// build creates document nodes for v. Top-level results are passed to emit;
// into, when non-nil, is the element receiving them.
func build(v *vdom.VNode, slot SlotFunc, emit func(segment), into *Node) error {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case vdom.KindText:
		emit(segment{node: NewText(v.Text)})
	case vdom.KindRaw:
		emit(segment{node: NewRaw(v.Text)})
	case vdom.KindFragment:
		for _, c := range v.Children {
			if err := build(c, slot, emit, into); err != nil {
				return err
			}
		}
	case vdom.KindComponent:
		var child *Block
		if slot != nil {
			child = slot(v)
		}
		if child == nil {
			name := ""
			if v.Comp != nil {
				name = v.Comp.ComponentName()
			}
			return errors.New("E109").WithComponent(name)
		}
		if into != nil {
			into.embedded = append(into.embedded, child)
		}
		emit(segment{block: child})
	case vdom.KindElement:
		el := NewElement(v.Tag)
		for key, value := range v.Props {
			setProp(el, key, value)
		}
		appendTo := func(s segment) {
			if s.block == nil {
				el.AppendChild(s.node)
				return
			}
			for _, n := range s.block.Nodes() {
				el.AppendChild(n)
			}
		}
		for _, c := range v.Children {
			if err := build(c, slot, appendTo, el); err != nil {
				return err
			}
		}
		emit(segment{node: el})
	}
	return nil
}

// rebind walks v alongside the nodes built from a structurally identical
// tree and replaces their event handlers. It returns the index after the
// nodes v produced.
func rebind(v *vdom.VNode, nodes []*Node, i int, slot SlotFunc) int {
	if v == nil || i >= len(nodes) {
		return i
	}
	switch v.Kind {
	case vdom.KindText, vdom.KindRaw:
		return i + 1
	case vdom.KindFragment:
		for _, c := range v.Children {
			i = rebind(c, nodes, i, slot)
		}
		return i
	case vdom.KindComponent:
		return i + len(slot(v).Nodes())
	case vdom.KindElement:
		el := nodes[i]
		el.handlers = nil
		for key, value := range v.Props {
			if len(key) > 2 && strings.EqualFold(key[:2], "on") && isHandler(value) {
				el.setHandler(key[2:], value)
			}
		}
		j := 0
		for _, c := range v.Children {
			j = rebind(c, el.children, j, slot)
		}
		return i + 1
	}
	return i
}

// setProp applies one view-tree prop to an element.
func setProp(el *Node, key string, value any) {
	if len(key) > 2 && strings.EqualFold(key[:2], "on") && isHandler(value) {
		el.setHandler(key[2:], value)
		return
	}
	switch v := value.(type) {
	case nil:
		return
	case bool:
		if v {
			el.SetAttr(key, "")
		}
		return
	}
	el.SetAttr(key, vdom.PropToString(value))
}

func isHandler(v any) bool {
	switch v.(type) {
	case func(), func() error, func(vdom.Event), func(vdom.Event) error, func(string):
		return true
	}
	return false
}
