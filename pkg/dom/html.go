package dom

import (
	"bytes"
	"io"
	"strings"

	"github.com/vango-dev/loom/pkg/vdom"
)

// OuterHTML serializes n and its subtree.
func (n *Node) OuterHTML() string {
	var buf bytes.Buffer
	_ = n.WriteHTML(&buf)
	return buf.String()
}

// InnerHTML serializes the children of n.
func (n *Node) InnerHTML() string {
	var buf bytes.Buffer
	for _, c := range n.children {
		_ = c.WriteHTML(&buf)
	}
	return buf.String()
}

// WriteHTML writes n as HTML to w. Attributes are written in sorted order;
// event handlers are not serialized.
func (n *Node) WriteHTML(w io.Writer) error {
	switch n.Type {
	case TextNode:
		_, err := io.WriteString(w, escapeHTML(n.Text))
		return err
	case RawNode:
		_, err := io.WriteString(w, n.Text)
		return err
	}

	if _, err := io.WriteString(w, "<"+n.Tag); err != nil {
		return err
	}
	for _, key := range n.AttrNames() {
		value := n.attrs[key]
		if value == "" {
			if _, err := io.WriteString(w, " "+key); err != nil {
				return err
			}
			continue
		}
		if _, err := io.WriteString(w, " "+key+`="`+escapeAttr(value)+`"`); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}

	if vdom.IsVoidElement(n.Tag) {
		return nil
	}

	for _, c := range n.children {
		if err := c.WriteHTML(w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</"+n.Tag+">")
	return err
}

var (
	htmlReplacer = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
	attrReplacer = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
		"\n", "&#10;",
		"\r", "&#13;",
		"\t", "&#9;",
	)
)

// escapeHTML escapes text content.
func escapeHTML(s string) string {
	return htmlReplacer.Replace(s)
}

// escapeAttr escapes attribute values, including whitespace that could
// break attribute parsing.
func escapeAttr(s string) string {
	return attrReplacer.Replace(s)
}
