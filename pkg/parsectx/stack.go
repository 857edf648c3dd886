package parsectx

import "github.com/go-go-golems/apexlog/pkg/events"

// Stack is the LIFO of open entry events. The root sentinel is always at the
// bottom and is never popped.
type Stack struct {
	open []*events.Event
}

func NewStack(root *events.Event) *Stack {
	return &Stack{open: []*events.Event{root}}
}

// Top returns the innermost open entry, or the root sentinel.
func (s *Stack) Top() *events.Event {
	return s.open[len(s.open)-1]
}

// Depth is the number of open entries above the sentinel.
func (s *Stack) Depth() int {
	return len(s.open) - 1
}

func (s *Stack) Push(e *events.Event) {
	s.open = append(s.open, e)
}

// Pop closes the innermost open entry on behalf of exit and back-fills its
// duration. Matching is strictly positional: the entry's type and name are not
// compared with the exit's. ok is false when only the sentinel remains.
func (s *Stack) Pop(exit *events.Event) (closed *events.Event, ok bool) {
	if len(s.open) <= 1 {
		return nil, false
	}
	closed = s.open[len(s.open)-1]
	s.open[len(s.open)-1] = nil
	s.open = s.open[:len(s.open)-1]
	closed.SetDuration(exit.Timestamp)
	return closed, true
}

// Apply runs the stack discipline for one event whose parent has already been
// taken from Top. It returns the entry an exit closed, if any, and whether an
// exit found nothing to close.
func (s *Stack) Apply(e *events.Event) (closed *events.Event, underflow bool) {
	switch events.RoleOf(e.Type) {
	case events.Entry:
		s.Push(e)
	case events.Exit:
		c, ok := s.Pop(e)
		if !ok {
			return nil, true
		}
		return c, false
	}
	return nil, false
}
