package vdom

import "fmt"

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// IsVoidElement reports whether tag never has children.
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}

// El creates an element. Each argument may be an Attr, []Attr, an
// EventHandler, a *VNode, []*VNode or a string (text); nil and empty
// attributes are skipped.
func El(tag string, args ...any) *VNode {
	v := &VNode{Kind: KindElement, Tag: tag, Props: make(Props)}
	v.add(args)
	return v
}

func (v *VNode) add(args []any) {
	for _, arg := range args {
		switch a := arg.(type) {
		case Attr:
			v.setAttr(a)
		case []Attr:
			for _, x := range a {
				v.setAttr(x)
			}
		case EventHandler:
			if v.Props != nil {
				v.Props[a.Event] = a.Handler
			}
		case *VNode:
			if a != nil {
				v.Children = append(v.Children, a)
			}
		case []*VNode:
			for _, c := range a {
				if c != nil {
					v.Children = append(v.Children, c)
				}
			}
		case string:
			v.Children = append(v.Children, Text(a))
		}
	}
}

func (v *VNode) setAttr(a Attr) {
	switch {
	case a.Key == "" || v.Props == nil:
	case a.Key == "key":
		v.Key = fmt.Sprint(a.Value)
	case a.Key == "class":
		prev, _ := v.Props["class"].(string)
		next, _ := a.Value.(string)
		if prev != "" && next != "" {
			next = prev + " " + next
		}
		if next != "" {
			v.Props["class"] = next
		}
	default:
		v.Props[a.Key] = a.Value
	}
}

// Text creates a text node.
func Text(s string) *VNode {
	return &VNode{Kind: KindText, Text: s}
}

// Textf creates a text node from a format string.
func Textf(format string, args ...any) *VNode {
	return Text(fmt.Sprintf(format, args...))
}

// Raw creates a node whose HTML is written unescaped.
func Raw(html string) *VNode {
	return &VNode{Kind: KindRaw, Text: html}
}

// Fragment groups nodes without a wrapper element. It accepts the same
// child arguments as El; attributes are ignored.
func Fragment(children ...any) *VNode {
	v := &VNode{Kind: KindFragment}
	v.add(children)
	return v
}

// If returns node when cond holds and nil otherwise.
func If(cond bool, node *VNode) *VNode {
	if cond {
		return node
	}
	return nil
}

// Range maps items to nodes, dropping nil results.
func Range[T any](items []T, fn func(item T, index int) *VNode) []*VNode {
	out := make([]*VNode, 0, len(items))
	for i, item := range items {
		if n := fn(item, i); n != nil {
			out = append(out, n)
		}
	}
	return out
}

func Div(args ...any) *VNode     { return El("div", args...) }
func Section(args ...any) *VNode { return El("section", args...) }
func Main(args ...any) *VNode    { return El("main", args...) }
func H1(args ...any) *VNode      { return El("h1", args...) }
func P(args ...any) *VNode       { return El("p", args...) }
func Span(args ...any) *VNode    { return El("span", args...) }
func Em(args ...any) *VNode      { return El("em", args...) }
func Ul(args ...any) *VNode      { return El("ul", args...) }
func Li(args ...any) *VNode      { return El("li", args...) }
func Button(args ...any) *VNode  { return El("button", args...) }
func Input(args ...any) *VNode   { return El("input", args...) }
func Label(args ...any) *VNode   { return El("label", args...) }
func Table(args ...any) *VNode   { return El("table", args...) }
func Tr(args ...any) *VNode      { return El("tr", args...) }
func Td(args ...any) *VNode      { return El("td", args...) }
