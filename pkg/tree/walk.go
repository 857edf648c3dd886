package tree

import "github.com/go-go-golems/apexlog/pkg/events"

// Walk visits n and its descendants depth-first, pre-order. depth is 0 for n.
// Returning false from fn skips the node's children.
func Walk(n *Node, fn func(n *Node, depth int) bool) {
	if n == nil {
		return
	}
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Flatten returns the events under n in pre-order, leaving out a synthetic root.
func Flatten(n *Node) []*events.Event {
	var out []*events.Event
	Walk(n, func(n *Node, _ int) bool {
		if !n.IsSynthetic() {
			out = append(out, n.Event)
		}
		return true
	})
	return out
}

// TotalDuration is the node's own duration when set, else the sum over its
// children.
func TotalDuration(n *Node) int64 {
	if n == nil {
		return 0
	}
	if n.Event.HasDuration() {
		return n.Event.DurationNanos()
	}
	var sum int64
	for _, c := range n.Children {
		sum += TotalDuration(c)
	}
	return sum
}

// MaxDepth counts the levels below n; a leaf has depth 0.
func MaxDepth(n *Node) int {
	if n == nil {
		return 0
	}
	best := 0
	for _, c := range n.Children {
		if d := MaxDepth(c) + 1; d > best {
			best = d
		}
	}
	return best
}

// Count returns the number of non-synthetic nodes under and including n.
func Count(n *Node) int {
	return len(Flatten(n))
}
