package tree

import (
	"testing"

	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/tokenizer"
	"github.com/stretchr/testify/require"
)

func ev(id int64, typ tokenizer.EventType, ts int64) *events.Event {
	return &events.Event{ID: id, Type: typ, Timestamp: ts}
}

func sample() []*events.Event {
	return []*events.Event{
		ev(1, tokenizer.ExecutionStarted, 0),
		ev(2, tokenizer.MethodEntry, 100),
		ev(3, tokenizer.SOQLExecuteBegin, 200),
		ev(4, tokenizer.SOQLExecuteEnd, 250),
		ev(5, tokenizer.MethodExit, 300),
		ev(6, tokenizer.ExecutionFinished, 400),
	}
}

func TestBuild_SyntheticRootForSeveralTopLevel(t *testing.T) {
	root := Build(sample())
	require.True(t, root.IsSynthetic())
	require.Len(t, root.Children, 3)

	method := root.Children[1]
	require.Equal(t, int64(2), method.Event.ID)
	require.Equal(t, int64(300), method.Event.DurationNanos())
	require.Len(t, method.Children, 3)
	require.Equal(t, int64(50), method.Children[0].Event.DurationNanos())

	require.Equal(t, int64(2), method.Children[0].Event.ParentID)
	require.Equal(t, int64(3), method.Children[1].Event.ParentID)
	require.Equal(t, int64(2), method.Children[2].Event.ParentID)
}

func TestBuild_SingleTopLevelIsRoot(t *testing.T) {
	evs := sample()[1:5]
	root := Build(evs)
	require.False(t, root.IsSynthetic())
	require.Equal(t, int64(2), root.Event.ID)
	require.Equal(t, 4, Count(root))
}

func TestBuild_Empty(t *testing.T) {
	root := Build(nil)
	require.True(t, root.IsSynthetic())
	require.Empty(t, root.Children)
	require.Empty(t, Flatten(root))
}

func TestBuild_UnclosedEntriesStayOpen(t *testing.T) {
	evs := []*events.Event{
		ev(1, tokenizer.MethodEntry, 10),
		ev(2, tokenizer.MethodEntry, 20),
		ev(3, tokenizer.UserDebug, 30),
	}
	root := Build(evs)
	require.Equal(t, int64(1), root.Event.ID)
	require.False(t, root.Event.HasDuration())
	require.Equal(t, int64(2), evs[2].ParentID)
	require.Equal(t, 2, MaxDepth(root))
}

func TestBuild_UnderflowKeepsRoot(t *testing.T) {
	evs := []*events.Event{
		ev(1, tokenizer.MethodExit, 5),
		ev(2, tokenizer.MethodEntry, 6),
		ev(3, tokenizer.UserDebug, 7),
		ev(4, tokenizer.MethodExit, 9),
		ev(5, tokenizer.MethodExit, 10),
		ev(6, tokenizer.UserDebug, 11),
	}
	root := Build(evs)
	require.True(t, root.IsSynthetic())
	require.Len(t, root.Children, 4)
	require.Equal(t, int64(2), evs[2].ParentID)
	require.Equal(t, int64(2), evs[3].ParentID)
	require.Equal(t, events.RootID, evs[4].ParentID)
	require.Equal(t, events.RootID, evs[5].ParentID)
	require.Equal(t, int64(3), evs[1].DurationNanos())
}

func TestWalkHelpers(t *testing.T) {
	root := Build(sample())

	flat := Flatten(root)
	require.Len(t, flat, 6)
	for i, e := range flat {
		require.Equal(t, int64(i+1), e.ID)
	}

	require.Equal(t, int64(300), TotalDuration(root))
	require.Equal(t, 2, MaxDepth(root))
	require.Equal(t, 6, Count(root))

	var visited int
	Walk(root, func(n *Node, depth int) bool {
		visited++
		return depth < 1
	})
	require.Equal(t, 4, visited)
}
