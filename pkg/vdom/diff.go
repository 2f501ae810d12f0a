package vdom

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Diff compares two VNode trees and returns the patches needed to transform prev into next.
func Diff(prev, next *VNode) []Patch {
	var patches []Patch
	diff(prev, next, "", &patches)
	return patches
}

func childPath(parent string, i int) string {
	if parent == "" {
		return strconv.Itoa(i)
	}
	return parent + "." + strconv.Itoa(i)
}

// diff recursively compares nodes and appends patches.
func diff(prev, next *VNode, path string, patches *[]Patch) {
	// Both nil - nothing to do
	if prev == nil && next == nil {
		return
	}

	// Node added (handled by parent via InsertNode)
	if prev == nil {
		*patches = append(*patches, Patch{Op: PatchReplaceNode, Path: path, Node: next})
		return
	}

	// Node removed
	if next == nil {
		*patches = append(*patches, Patch{Op: PatchRemoveNode, Path: path})
		return
	}

	// Different types - replace
	if prev.Kind != next.Kind {
		*patches = append(*patches, Patch{Op: PatchReplaceNode, Path: path, Node: next})
		return
	}

	// Same type, diff by kind
	switch prev.Kind {
	case KindText:
		if prev.Text != next.Text {
			*patches = append(*patches, Patch{Op: PatchSetText, Path: path, Value: next.Text})
		}
	case KindElement:
		diffElement(prev, next, path, patches)
	case KindFragment:
		diffChildren(prev.Children, next.Children, path, patches)
	case KindComponent:
		diffComponent(prev, next, path, patches)
	case KindRaw:
		if prev.Text != next.Text {
			*patches = append(*patches, Patch{Op: PatchReplaceNode, Path: path, Node: next})
		}
	}
}

// diffElement compares element nodes.
func diffElement(prev, next *VNode, path string, patches *[]Patch) {
	// Different tag - replace entire node
	if prev.Tag != next.Tag {
		*patches = append(*patches, Patch{Op: PatchReplaceNode, Path: path, Node: next})
		return
	}
	diffProps(prev, next, path, patches)
	diffChildren(prev.Children, next.Children, path, patches)
}

// diffComponent compares placeholders. The child's output is not part of
// this tree, so only identity and props are compared.
func diffComponent(prev, next *VNode, path string, patches *[]Patch) {
	if prev.Comp != next.Comp || prev.Key != next.Key {
		*patches = append(*patches, Patch{Op: PatchReplaceNode, Path: path, Node: next})
		return
	}
	if !ShallowEqual(prev.Props, next.Props) {
		*patches = append(*patches, Patch{Op: PatchUpdateProps, Path: path, Node: next})
	}
}

// diffProps compares and patches attributes. Keys are visited in sorted
// order so the patch list is deterministic.
func diffProps(prev, next *VNode, path string, patches *[]Patch) {
	for _, key := range slices.Sorted(maps.Keys(prev.Props)) {
		if isEventHandler(key) {
			continue // Handlers are read from the tree when an event fires
		}
		nextVal, exists := next.Props[key]
		if !exists {
			*patches = append(*patches, Patch{Op: PatchRemoveAttr, Path: path, Key: key})
		} else if !propsEqual(prev.Props[key], nextVal) {
			*patches = append(*patches, Patch{Op: PatchSetAttr, Path: path, Key: key, Value: PropToString(nextVal)})
		}
	}

	for _, key := range slices.Sorted(maps.Keys(next.Props)) {
		if isEventHandler(key) {
			continue
		}
		if _, exists := prev.Props[key]; !exists {
			*patches = append(*patches, Patch{Op: PatchSetAttr, Path: path, Key: key, Value: PropToString(next.Props[key])})
		}
	}
}

// diffChildren compares and patches child nodes.
func diffChildren(prev, next []*VNode, path string, patches *[]Patch) {
	if hasKeys(prev) || hasKeys(next) {
		diffKeyedChildren(prev, next, path, patches)
	} else {
		diffUnkeyedChildren(prev, next, path, patches)
	}
}

// diffUnkeyedChildren handles children without keys using positional matching.
func diffUnkeyedChildren(prev, next []*VNode, path string, patches *[]Patch) {
	maxLen := max(len(prev), len(next))

	// Removals are emitted from the end so earlier paths stay valid.
	for i := maxLen - 1; i >= len(next); i-- {
		if i < len(prev) {
			*patches = append(*patches, Patch{Op: PatchRemoveNode, Path: childPath(path, i)})
		}
	}
	for i := 0; i < len(next); i++ {
		if i >= len(prev) {
			*patches = append(*patches, Patch{Op: PatchInsertNode, Path: path, Index: i, Node: next[i]})
			continue
		}
		diff(prev[i], next[i], childPath(path, i), patches)
	}
}

// diffKeyedChildren handles children with keys for efficient reordering.
func diffKeyedChildren(prev, next []*VNode, path string, patches *[]Patch) {
	// Build key map: key -> index
	prevKeyMap := make(map[string]int)
	for i, child := range prev {
		if key := getKey(child); key != "" {
			prevKeyMap[key] = i
		}
	}

	// Track which prev nodes have been matched
	matched := make(map[int]bool)

	// Process next children in order
	for nextIdx, nextChild := range next {
		key := getKey(nextChild)
		prevIdx, exists := prevKeyMap[key]
		if key == "" || !exists {
			*patches = append(*patches, Patch{Op: PatchInsertNode, Path: path, Index: nextIdx, Node: nextChild})
			continue
		}

		matched[prevIdx] = true
		if prevIdx != nextIdx {
			*patches = append(*patches, Patch{Op: PatchMoveNode, Path: childPath(path, prevIdx), Index: nextIdx})
		}
		diff(prev[prevIdx], nextChild, childPath(path, nextIdx), patches)
	}

	// Remove unmatched prev nodes
	for i := len(prev) - 1; i >= 0; i-- {
		if !matched[i] {
			*patches = append(*patches, Patch{Op: PatchRemoveNode, Path: childPath(path, i)})
		}
	}
}

// getKey extracts the key from a node.
func getKey(node *VNode) string {
	if node == nil {
		return ""
	}
	return node.Key
}

// hasKeys returns true if any child has a key.
func hasKeys(children []*VNode) bool {
	for _, child := range children {
		if getKey(child) != "" {
			return true
		}
	}
	return false
}

// isEventHandler returns true if the key is an event handler (starts with "on").
// Case-insensitive to catch onclick, ONCLICK, onClick, OnLoad, etc.
func isEventHandler(key string) bool {
	return len(key) > 2 && strings.EqualFold(key[:2], "on")
}

// propsEqual compares two prop values for equality.
func propsEqual(a, b any) bool {
	// Fast path for common types
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	}
	if b == nil {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Func:
		return false
	case reflect.Pointer, reflect.Map, reflect.Chan:
		return va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Slice:
		return va.Len() == vb.Len() && va.UnsafePointer() == vb.UnsafePointer()
	}
	if va.Comparable() && vb.Comparable() {
		return va.Equal(vb)
	}
	return reflect.DeepEqual(a, b)
}

// PropToString converts a prop value to its attribute string form.
func PropToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
