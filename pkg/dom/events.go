package dom

import (
	"strings"

	"github.com/vango-dev/loom/internal/errors"
	"github.com/vango-dev/loom/pkg/vdom"
)

// ErrNoHandler is returned by Trigger when the element cannot handle the
// event.
var ErrNoHandler = errors.New("E110")

// Handler returns the handler bound to event on n, or nil.
func (n *Node) Handler(event string) any {
	return n.handlers[strings.ToLower(event)]
}

// Events returns the names of the events n handles.
func (n *Node) Events() []string {
	out := make([]string, 0, len(n.handlers))
	for name := range n.handlers {
		out = append(out, name)
	}
	return out
}

func (n *Node) setHandler(event string, h any) {
	if n.handlers == nil {
		n.handlers = make(map[string]any)
	}
	n.handlers[strings.ToLower(event)] = h
}

// Trigger calls the handler bound to event on n. Handlers may take no
// argument, a vdom.Event, or the event value as a string; they may return
// an error.
func Trigger(n *Node, event, value string) error {
	if n == nil {
		return errors.New("E110").WithDetail("target node is nil")
	}
	ev := vdom.Event{Type: strings.ToLower(event), Value: value}
	switch h := n.Handler(event).(type) {
	case func():
		h()
	case func() error:
		return h()
	case func(vdom.Event):
		h(ev)
	case func(vdom.Event) error:
		return h(ev)
	case func(string):
		h(value)
	default:
		return errors.New("E110").WithDetail("no " + ev.Type + " handler on <" + n.Tag + ">")
	}
	return nil
}
