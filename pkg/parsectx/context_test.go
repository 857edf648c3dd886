package parsectx

import (
	"testing"

	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/tokenizer"
	"github.com/stretchr/testify/require"
)

func ev(c *Context, typ tokenizer.EventType, ts int64) *events.Event {
	return &events.Event{ID: c.NextID(), ParentID: c.CurrentParent(), Type: typ, Timestamp: ts}
}

func TestContext_IDsStartAtOne(t *testing.T) {
	c := New()
	require.Equal(t, int64(1), c.NextID())
	require.Equal(t, int64(2), c.NextID())
	require.Equal(t, events.RootID, c.CurrentParent())
}

func TestContext_PushPopSetsDuration(t *testing.T) {
	c := New()
	entry := ev(c, tokenizer.MethodEntry, 100)
	c.Push(entry)
	require.Equal(t, entry.ID, c.CurrentParent())

	exit := ev(c, tokenizer.MethodExit, 400)
	require.Equal(t, entry.ID, exit.ParentID)
	closed, ok := c.Pop(exit)
	require.True(t, ok)
	require.Same(t, entry, closed)
	require.Equal(t, int64(300), entry.DurationNanos())
	require.Equal(t, events.RootID, c.CurrentParent())
}

func TestContext_NeverUnderflows(t *testing.T) {
	c := New()
	for i := 0; i < 5; i++ {
		_, ok := c.Pop(ev(c, tokenizer.MethodExit, int64(i)))
		require.False(t, ok)
	}
	require.Equal(t, 0, c.Depth())
	require.Equal(t, int64(5), c.Underflows())
	require.Equal(t, events.RootID, c.CurrentParent())
}

func TestStack_MismatchedExitPopsTop(t *testing.T) {
	s := NewStack(events.NewRoot())
	method := &events.Event{ID: 1, Type: tokenizer.MethodEntry, Timestamp: 10}
	query := &events.Event{ID: 2, Type: tokenizer.SOQLExecuteBegin, Timestamp: 20}
	s.Push(method)
	s.Push(query)

	closed, underflow := s.Apply(&events.Event{ID: 3, Type: tokenizer.MethodExit, Timestamp: 50})
	require.False(t, underflow)
	require.Same(t, query, closed)
	require.Equal(t, int64(30), query.DurationNanos())
	require.False(t, method.HasDuration())
}

func TestStack_EqualTimestampsLeaveNoDuration(t *testing.T) {
	s := NewStack(events.NewRoot())
	entry := &events.Event{ID: 1, Type: tokenizer.DMLBegin, Timestamp: 10}
	s.Push(entry)
	_, underflow := s.Apply(&events.Event{ID: 2, Type: tokenizer.DMLEnd, Timestamp: 10})
	require.False(t, underflow)
	require.False(t, entry.HasDuration())
}
