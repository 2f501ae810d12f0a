package component

import "github.com/vango-dev/loom/pkg/reactive"

// Snapshot is a serializable view of a component subtree.
type Snapshot struct {
	ID            uint64                  `json:"id"`
	Name          string                  `json:"name"`
	Key           string                  `json:"key,omitempty"`
	Status        string                  `json:"status"`
	Generation    uint64                  `json:"generation"`
	Task          string                  `json:"task"`
	Subscriptions []reactive.Subscription `json:"subscriptions,omitempty"`
	Children      []Snapshot              `json:"children,omitempty"`
}

// Snapshot captures n and its committed descendants.
func (n *Node) Snapshot() Snapshot {
	s := Snapshot{
		ID:            n.id,
		Name:          n.Name(),
		Key:           n.key,
		Status:        n.status.String(),
		Generation:    n.generation,
		Task:          n.TaskState().String(),
		Subscriptions: n.Subscriptions(),
	}
	for _, c := range n.children {
		s.Children = append(s.Children, c.Snapshot())
	}
	return s
}

// Snapshot captures every root of the App.
func (a *App) Snapshot() []Snapshot {
	out := make([]Snapshot, 0, len(a.roots))
	for _, r := range a.roots {
		out = append(out, r.node.Snapshot())
	}
	return out
}

// HTML serializes the document content of every mounted root.
func (a *App) HTML() string {
	var out string
	for _, r := range a.roots {
		if r.node.status == StatusMounted {
			out += r.node.HTML()
		}
	}
	return out
}
