package truncation

import (
	"testing"

	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/tokenizer"
	"github.com/stretchr/testify/require"
)

func TestTracker_NotTruncated(t *testing.T) {
	tr := NewTracker(Options{})
	tr.ObserveEvent(&events.Event{ID: 1, Type: tokenizer.ExecutionStarted})
	tr.ObserveEvent(&events.Event{ID: 2, Type: tokenizer.ExecutionFinished})
	info := tr.Assess(0)
	require.False(t, info.IsTruncated)
	require.Empty(t, info.Type)
}

func TestTracker_MarkerWins(t *testing.T) {
	tr := NewTracker(Options{SizeCeilingBytes: 10})
	tr.ObserveLine(7, "*********** MAXIMUM DEBUG LOG SIZE REACHED ***********", 56)
	tr.ObserveLine(8, "12:00:00.000 (1)|Request timed out", 35)
	info := tr.Assess(0)
	require.True(t, info.IsTruncated)
	require.Equal(t, SizeLimit, info.Type)
	require.Equal(t, "MAXIMUM DEBUG LOG SIZE REACHED", info.Marker)
	require.Contains(t, info.Reason, "line 7")
}

func TestTracker_TimeoutMarker(t *testing.T) {
	tr := NewTracker(Options{})
	tr.ObserveLine(1, "System.LimitException: Apex CPU time limit exceeded", 52)
	info := tr.Assess(0)
	require.True(t, info.IsTruncated)
	require.Equal(t, Timeout, info.Type)
}

func TestTracker_SizeThreshold(t *testing.T) {
	tr := NewTracker(Options{SizeCeilingBytes: 100, ThresholdPercent: 50})
	tr.ObserveLine(1, "short", 49)
	require.False(t, tr.Assess(0).IsTruncated)
	tr.ObserveLine(2, "", 1)
	info := tr.Assess(2)
	require.Equal(t, int64(50), info.BytesRead)
	require.True(t, info.IsTruncated)
	require.Equal(t, SizeLimit, info.Type)
	require.Equal(t, 2, info.UnclosedEntries)
}

func TestTracker_MissingTerminal(t *testing.T) {
	tr := NewTracker(Options{})
	tr.ObserveEvent(&events.Event{ID: 1, Type: tokenizer.ExecutionStarted})
	entry := &events.Event{ID: 2, Type: tokenizer.MethodEntry, Timestamp: 10, Line: 3}
	entry.SetDuration(20)
	tr.ObserveClosed(entry)
	tr.ObserveClosed(&events.Event{ID: 3})

	info := tr.Assess(1)
	require.True(t, info.IsTruncated)
	require.Equal(t, Unknown, info.Type)
	require.Equal(t, int64(2), info.LastCompleteEventID)
	require.Equal(t, 3, info.LastCompleteLine)
}

func TestTracker_CodeUnitTerminal(t *testing.T) {
	tr := NewTracker(Options{})
	tr.ObserveEvent(&events.Event{ID: 1, Type: tokenizer.CodeUnitStarted})
	require.True(t, tr.Assess(0).IsTruncated)

	tr.ObserveEvent(&events.Event{ID: 2, Type: tokenizer.CodeUnitFinished})
	require.False(t, tr.Assess(0).IsTruncated)

	tr.ObserveEvent(&events.Event{ID: 3, Type: tokenizer.ExecutionStarted})
	info := tr.Assess(0)
	require.True(t, info.IsTruncated)
	require.Equal(t, Unknown, info.Type)
}

func TestScore_Bounds(t *testing.T) {
	inputs := []ConfidenceInput{
		{},
		{CandidateLines: 10, ParsedLines: 10, DistinctTypes: 50},
		{CandidateLines: 10, ParsedLines: 3, FailedLines: 7, DistinctTypes: 1},
		{CandidateLines: 10, ParsedLines: 10, DistinctTypes: 10, Truncation: &Info{IsTruncated: true, Type: SizeLimit, Reason: "big"}},
		{CandidateLines: 1, ParsedLines: 5},
	}
	for _, in := range inputs {
		c := Score(in)
		require.GreaterOrEqual(t, c.Score, 0.0)
		require.LessOrEqual(t, c.Score, 1.0)
		require.NotEmpty(t, c.Reasons)
		if c.Score < 1.0 {
			require.NotEmpty(t, append(c.Reasons, c.Limitations...))
		}
	}
}

func TestScore_TruncationPenalty(t *testing.T) {
	clean := Score(ConfidenceInput{CandidateLines: 10, ParsedLines: 10, DistinctTypes: 10})
	require.InDelta(t, 1.0, clean.Score, 1e-9)

	cut := Score(ConfidenceInput{
		CandidateLines: 10, ParsedLines: 10, DistinctTypes: 10,
		Truncation: &Info{IsTruncated: true, Type: SizeLimit, Reason: "big", LastCompleteLine: 9},
	})
	require.InDelta(t, 0.7, cut.Score, 1e-9)
	require.Len(t, cut.Limitations, 1)
	require.Contains(t, cut.Limitations[0], "line 9")
}
