package vdom

// PatchOp identifies a patch operation.
type PatchOp uint8

const (
	PatchSetText PatchOp = iota + 1
	PatchSetAttr
	PatchRemoveAttr
	PatchInsertNode
	PatchRemoveNode
	PatchMoveNode
	PatchReplaceNode
	// PatchUpdateProps hands new props to a child component placeholder.
	PatchUpdateProps
)

var patchOpNames = [...]string{
	PatchSetText:     "SetText",
	PatchSetAttr:     "SetAttr",
	PatchRemoveAttr:  "RemoveAttr",
	PatchInsertNode:  "InsertNode",
	PatchRemoveNode:  "RemoveNode",
	PatchMoveNode:    "MoveNode",
	PatchReplaceNode: "ReplaceNode",
	PatchUpdateProps: "UpdateProps",
}

func (op PatchOp) String() string {
	if int(op) < len(patchOpNames) && patchOpNames[op] != "" {
		return patchOpNames[op]
	}
	return "Unknown"
}

// Patch is one operation of a Diff. Path is the child-index path of the
// target from the tree root: "" is the root and "0.2" is the third child
// of its first child.
type Patch struct {
	Op    PatchOp
	Path  string
	Key   string // attribute name for SetAttr and RemoveAttr
	Value string
	Node  *VNode // inserted or replacing node
	Index int    // insert or move position under Path
}

// OpCounts counts patch operations by kind.
type OpCounts map[PatchOp]int

// Tally counts patches by operation.
func Tally(patches []Patch) OpCounts {
	out := make(OpCounts)
	for _, p := range patches {
		out[p.Op]++
	}
	return out
}

// Total returns the number of operations.
func (c OpCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Add merges other into c.
func (c OpCounts) Add(other OpCounts) {
	for op, n := range other {
		c[op] += n
	}
}

// ByName keys the counts by operation name. It returns nil when c is empty.
func (c OpCounts) ByName() map[string]int {
	if len(c) == 0 {
		return nil
	}
	out := make(map[string]int, len(c))
	for op, n := range c {
		out[op.String()] += n
	}
	return out
}
