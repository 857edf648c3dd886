// Package tree rebuilds the nested call tree from the flat event stream.
package tree

import (
	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/parsectx"
)

type Node struct {
	Event    *events.Event `json:"event"`
	Children []*Node       `json:"children,omitempty"`
}

// IsSynthetic reports whether n is the wrapper root rather than a log event.
func (n *Node) IsSynthetic() bool {
	return n.Event.IsRoot()
}

// Build replays the stack discipline over evs in order, fixing each event's
// parent and attaching it as a child. Durations are back-filled the same way
// the parse context does it. The result always has a single root: the lone
// top-level event, or a synthetic root when there are zero or several.
func Build(evs []*events.Event) *Node {
	root := &Node{Event: events.NewRoot()}
	stack := parsectx.NewStack(root.Event)
	open := []*Node{root}

	for _, ev := range evs {
		if ev == nil {
			continue
		}
		parent := open[len(open)-1]
		ev.ParentID = parent.Event.ID
		n := &Node{Event: ev}
		parent.Children = append(parent.Children, n)

		closed, _ := stack.Apply(ev)
		switch {
		case events.RoleOf(ev.Type) == events.Entry:
			open = append(open, n)
		case closed != nil:
			open[len(open)-1] = nil
			open = open[:len(open)-1]
		}
	}

	if len(root.Children) == 1 {
		return root.Children[0]
	}
	return root
}
