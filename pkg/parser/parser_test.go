package parser

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/synth"
	"github.com/go-go-golems/apexlog/pkg/tokenizer"
	"github.com/go-go-golems/apexlog/pkg/tree"
	"github.com/go-go-golems/apexlog/pkg/truncation"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const basicLog = `48.0 APEX_CODE,DEBUG
00:00:00.000 (0)|EXECUTION_STARTED
00:00:00.000 (100)|METHOD_ENTRY|[10]|Foo.bar
00:00:00.000 (200)|SOQL_EXECUTE_BEGIN|[11]|Aggregations:0|SELECT Id FROM Account
00:00:00.000 (250)|SOQL_EXECUTE_END|[11]|Rows:3
00:00:00.000 (300)|METHOD_EXIT|[12]|Foo.bar
00:00:00.000 (400)|EXECUTION_FINISHED
`

func byType(evs []*events.Event, t tokenizer.EventType) *events.Event {
	for _, e := range evs {
		if e.Type == t {
			return e
		}
	}
	return nil
}

func TestParse_BasicLog(t *testing.T) {
	pl, err := Parse(basicLog, Options{})
	require.NoError(t, err)
	require.Len(t, pl.Events, 6)

	soql := byType(pl.Events, tokenizer.SOQLExecuteBegin)
	require.NotNil(t, soql)
	require.True(t, soql.HasDuration())
	require.Equal(t, int64(50), soql.DurationNanos())

	method := byType(pl.Events, tokenizer.MethodEntry)
	require.NotNil(t, method)
	require.Equal(t, int64(300), method.DurationNanos())
	require.Equal(t, method.ID, soql.ParentID)

	require.NotNil(t, pl.Root)
	require.False(t, pl.IsTruncated())
	require.Nil(t, pl.Truncation)
	require.GreaterOrEqual(t, pl.Confidence.Score, 0.9)
	require.NotEmpty(t, pl.Confidence.Reasons)

	require.Equal(t, "48.0", pl.Metadata.APIVersion)
	require.Equal(t, "DEBUG", pl.Metadata.DebugLevels["APEX_CODE"])
	require.Equal(t, int64(1), pl.Stats.HeaderLines)
	require.Equal(t, int64(0), pl.Stats.UnderflowedExits)
	require.Equal(t, 0, pl.Stats.UnclosedEntries)
}

func TestParse_TreeShape(t *testing.T) {
	pl, err := Parse(basicLog, Options{})
	require.NoError(t, err)

	// EXECUTION_STARTED, METHOD_ENTRY and EXECUTION_FINISHED sit at the top.
	require.True(t, pl.Root.IsSynthetic())
	require.Len(t, pl.Root.Children, 3)
	method := pl.Root.Children[1]
	require.Equal(t, tokenizer.MethodEntry, method.Event.Type)
	require.Len(t, method.Children, 3)
	require.Equal(t, tokenizer.SOQLExecuteBegin, method.Children[0].Event.Type)
	require.Len(t, method.Children[0].Children, 0)
	require.Equal(t, tokenizer.SOQLExecuteEnd, method.Children[1].Event.Type)
	require.Equal(t, tokenizer.MethodExit, method.Children[2].Event.Type)

	require.Equal(t, 6, len(tree.Flatten(pl.Root)))
}

func TestParse_IDsAreUniqueAndParentsPrecede(t *testing.T) {
	pl, err := Parse(basicLog, Options{})
	require.NoError(t, err)

	seen := map[int64]bool{events.RootID: true}
	for i, e := range pl.Events {
		require.Equal(t, int64(i+1), e.ID)
		require.True(t, seen[e.ParentID], "parent %d of %d not seen yet", e.ParentID, e.ID)
		require.Less(t, e.ParentID, e.ID)
		seen[e.ID] = true
	}
}

func TestParse_TruncatedBySize(t *testing.T) {
	text := strings.Replace(basicLog, "00:00:00.000 (400)|EXECUTION_FINISHED\n", "", 1)
	pl, err := Parse(text, Options{Truncation: truncation.Options{SizeCeilingBytes: 100}})
	require.NoError(t, err)
	require.True(t, pl.IsTruncated())
	require.NotEqual(t, truncation.Unknown, pl.Truncation.Type)
	require.Equal(t, truncation.SizeLimit, pl.Truncation.Type)
	require.Less(t, pl.Confidence.Score, 0.9)
	require.NotEmpty(t, pl.Confidence.Limitations)
}

func TestParse_MissingTerminalIsUnknown(t *testing.T) {
	text := strings.Replace(basicLog, "00:00:00.000 (400)|EXECUTION_FINISHED\n", "", 1)
	pl, err := Parse(text, Options{})
	require.NoError(t, err)
	require.True(t, pl.IsTruncated())
	require.Equal(t, truncation.Unknown, pl.Truncation.Type)
	require.Equal(t, byType(pl.Events, tokenizer.SOQLExecuteBegin).ID, pl.Truncation.LastCompleteEventID)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("", Options{})
	require.ErrorIs(t, err, ErrEmptyLog)

	_, err = Parse("  \n\t\n", Options{})
	require.ErrorIs(t, err, ErrEmptyLog)

	_, err = Parse("hello\nworld\n", Options{})
	require.ErrorIs(t, err, ErrInvalidFormat)
	pe, ok := AsError(err)
	require.True(t, ok)
	require.Equal(t, CodeInvalidFormat, pe.Code)
	require.Equal(t, 1, pe.Line)
	require.Equal(t, "hello", pe.RawLine)

	_, err = Parse(strings.Repeat("x", 64), Options{MaxLineLength: 16})
	require.ErrorIs(t, err, ErrLineTooLong)
	require.False(t, errors.Is(err, ErrInvalidFormat))
}

func TestParse_MaxEvents(t *testing.T) {
	pl, err := Parse(basicLog, Options{MaxEvents: 2})
	require.NoError(t, err)
	require.Len(t, pl.Events, 2)
	require.True(t, pl.Stats.Capped)
	require.Equal(t, int64(2), pl.Stats.TotalEvents)
}

func TestParse_UnknownTagAndGarbage(t *testing.T) {
	text := `00:00:00.000 (1)|EXECUTION_STARTED
00:00:00.000 (2)|SOMETHING_NEW|a|b
  more of the new thing
00:00:00.000 (3)|USER_DEBUG|[1]|DEBUG|hi
00:00:00.000 (4)|EXECUTION_FINISHED
`
	pl, err := Parse(text, Options{})
	require.NoError(t, err)
	require.Len(t, pl.Events, 3)
	require.Equal(t, int64(1), pl.Stats.UnhandledTokens)
	require.Equal(t, int64(1), pl.Stats.UnhandledByType["SOMETHING_NEW"])
	require.Equal(t, int64(1), pl.Stats.ContinuationLines)
	require.GreaterOrEqual(t, pl.Confidence.Score, 0.0)
	require.LessOrEqual(t, pl.Confidence.Score, 1.0)
}

func TestParse_ExtraExitsNeverUnderflow(t *testing.T) {
	text := `00:00:00.000 (1)|METHOD_EXIT|[1]|A.a
00:00:00.000 (2)|METHOD_EXIT|[1]|A.a
00:00:00.000 (3)|METHOD_ENTRY|[1]|B.b
00:00:00.000 (4)|METHOD_EXIT|[1]|B.b
`
	pl, err := Parse(text, Options{})
	require.NoError(t, err)
	require.Equal(t, int64(2), pl.Stats.UnderflowedExits)
	parents := make([]int64, 0, len(pl.Events))
	for _, e := range pl.Events {
		parents = append(parents, e.ParentID)
	}
	require.Equal(t, []int64{0, 0, 0, 3}, parents)
	require.Equal(t, int64(1), byType(pl.Events, tokenizer.MethodEntry).DurationNanos())
}

func TestParse_ConcurrentCallsAreIndependent(t *testing.T) {
	done := make(chan *ParsedLog, 4)
	for range 4 {
		go func() {
			pl, err := Parse(basicLog, Options{})
			if err != nil {
				done <- nil
				return
			}
			done <- pl
		}()
	}
	for range 4 {
		pl := <-done
		require.NotNil(t, pl)
		require.Equal(t, int64(1), pl.Events[0].ID)
		require.Equal(t, int64(6), pl.Events[5].ID)
	}
}

func TestStream_MatchesBatch(t *testing.T) {
	batch, err := Parse(basicLog, Options{})
	require.NoError(t, err)

	var sum Summary
	var streamed []*events.Event
	var completed []*events.Event
	for it, err := range Stream(strings.Lines(basicLog), Options{}, &sum) {
		require.NoError(t, err)
		streamed = append(streamed, it.Event)
		if it.Completed != nil {
			completed = append(completed, it.Completed)
		}
	}

	require.Len(t, streamed, len(batch.Events))
	for i := range streamed {
		require.Equal(t, batch.Events[i].ID, streamed[i].ID)
		require.Equal(t, batch.Events[i].Type, streamed[i].Type)
		require.Equal(t, batch.Events[i].ParentID, streamed[i].ParentID)
		require.Equal(t, batch.Events[i].Timestamp, streamed[i].Timestamp)
	}
	require.Len(t, completed, 2)
	require.Equal(t, int64(50), completed[0].DurationNanos())
	require.Equal(t, int64(300), completed[1].DurationNanos())

	require.Equal(t, batch.Stats.TotalEvents, sum.Stats.TotalEvents)
	require.Equal(t, batch.Confidence.Score, sum.Confidence.Score)
	require.False(t, sum.IsTruncated())
}

func TestStream_ConsumerPaced(t *testing.T) {
	pulled := 0
	lines := func(yield func(string) bool) {
		for line := range strings.Lines(basicLog) {
			pulled++
			if !yield(line) {
				return
			}
		}
	}
	for it, err := range Stream(lines, Options{}, nil) {
		require.NoError(t, err)
		require.Equal(t, tokenizer.ExecutionStarted, it.Event.Type)
		break
	}
	// The header, the first event line and the line that completes it.
	require.Equal(t, 3, pulled)
}

func TestStream_EmptyInput(t *testing.T) {
	var got []error
	for _, err := range Stream(slices.Values([]string{"", "  "}), Options{}, nil) {
		got = append(got, err)
	}
	require.Len(t, got, 1)
	require.ErrorIs(t, got[0], ErrEmptyLog)
}

func TestStreamer_PushOneLineAtATime(t *testing.T) {
	st := NewStreamer(Options{})
	var n int
	for line := range strings.Lines(basicLog) {
		if it := st.Push(line); it != nil {
			n++
		}
	}
	last, sum, err := st.Close()
	require.NoError(t, err)
	require.NotNil(t, last)
	require.Equal(t, tokenizer.ExecutionFinished, last.Event.Type)
	require.Equal(t, 5, n)
	require.Equal(t, int64(6), sum.Stats.TotalEvents)
}

func TestStreamReader_AndParseReader(t *testing.T) {
	pl, err := ParseReader(bytes.NewBufferString(basicLog), Options{})
	require.NoError(t, err)
	require.Len(t, pl.Events, 6)

	var sum Summary
	var count int
	for _, err := range StreamReader(strings.NewReader(basicLog), Options{}, &sum) {
		require.NoError(t, err)
		count++
	}
	require.Equal(t, 6, count)
	require.Equal(t, int64(7), sum.Stats.TotalLines)
}

func TestLines_BoundsOversizedLines(t *testing.T) {
	text := "short\r\n" + strings.Repeat("y", 200000) + "\nlast"
	var got []string
	var sizes []int64
	for line, err := range Lines(strings.NewReader(text), 10) {
		require.NoError(t, err)
		got = append(got, line.Text)
		sizes = append(sizes, line.Size)
	}
	require.Equal(t, []string{"short\r", strings.Repeat("y", 11), "last"}, got)
	require.Equal(t, []int64{7, 200001, 4}, sizes)
}

func TestParseReader_CountsOversizedBytesLikeParse(t *testing.T) {
	text := "00:00:00.000 (1)|EXECUTION_STARTED\r\n" +
		"00:00:00.000 (2)|USER_DEBUG|[1]|DEBUG|" + strings.Repeat("x", 5000) + "\r\n" +
		"00:00:00.000 (3)|EXECUTION_FINISHED\r\n"
	opts := Options{
		MaxLineLength: 100,
		Truncation:    truncation.Options{SizeCeilingBytes: 4000},
	}

	batch, err := Parse(text, opts)
	require.NoError(t, err)
	fromReader, err := ParseReader(strings.NewReader(text), opts)
	require.NoError(t, err)
	var streamed Summary
	for _, err := range StreamReader(strings.NewReader(text), opts, &streamed) {
		require.NoError(t, err)
	}

	for _, sum := range []Summary{batch.Summary, fromReader.Summary, streamed} {
		require.Equal(t, int64(len(text)), sum.Stats.BytesRead)
		require.Equal(t, int64(1), sum.Stats.OversizedLines)
		require.True(t, sum.IsTruncated())
		require.Equal(t, truncation.SizeLimit, sum.Truncation.Type)
		require.Equal(t, int64(len(text)), sum.Truncation.BytesRead)
	}
}

const malformedLog = `00:00:00.000 (1)|EXECUTION_STARTED
00:00:00.000 (2)|METHOD_EXIT|[1]|Orphan.a
00:00:00.000 (3)|CODE_UNIT_STARTED|[EXTERNAL]|execute_anonymous_apex
00:00:00.000 (4)|ENTERING_MANAGED_PKG|acme
00:00:00.000 (5)|METHOD_ENTRY|[2]|01p000000000001|acme.Svc.run()
00:00:00.000 (6)|SOMETHING_NEW|x|y
00:00:00.000 (7)|SOQL_EXECUTE_BEGIN|[3]|Aggregations:0|SELECT Id FROM Account
00:00:00.000 (9)|SOQL_EXECUTE_END|[3]|Rows:1
00:00:00.000 (12)|METHOD_EXIT|[2]|01p000000000001|acme.Svc.run()
00:00:00.000 (20)|CODE_UNIT_FINISHED|execute_anonymous_apex
00:00:00.000 (21)|DML_END|[9]
00:00:00.000 (25)|METHOD_EXIT|[1]|Orphan.b
00:00:00.000 (30)|EXECUTION_FINISHED
`

func TestStream_MatchesBatchOnMalformedLog(t *testing.T) {
	batch, err := Parse(malformedLog, Options{})
	require.NoError(t, err)
	require.Equal(t, int64(2), batch.Stats.UnderflowedExits)
	require.Equal(t, int64(1), batch.Stats.UnhandledTokens)
	require.Equal(t, "acme", byType(batch.Events, tokenizer.MethodEntry).Namespace)

	var sum Summary
	var streamed []*events.Event
	for it, err := range Stream(strings.Lines(malformedLog), Options{}, &sum) {
		require.NoError(t, err)
		streamed = append(streamed, it.Event)
	}

	require.Len(t, streamed, len(batch.Events))
	for i, want := range batch.Events {
		got := streamed[i]
		require.Equal(t, want.ID, got.ID)
		require.Equal(t, want.Type, got.Type)
		require.Equal(t, want.ParentID, got.ParentID, "event %d", want.ID)
		require.Equal(t, want.HasDuration(), got.HasDuration(), "event %d", want.ID)
		require.Equal(t, want.DurationNanos(), got.DurationNanos(), "event %d", want.ID)
		require.Equal(t, want.Namespace, got.Namespace, "event %d", want.ID)
	}
	require.Equal(t, batch.Stats.UnderflowedExits, sum.Stats.UnderflowedExits)
	require.Equal(t, batch.Stats.UnclosedEntries, sum.Stats.UnclosedEntries)
	require.Equal(t, batch.Confidence.Score, sum.Confidence.Score)
}

func TestParse_ParentHopsEqualTreeDepth(t *testing.T) {
	for _, text := range []string{basicLog, malformedLog} {
		pl, err := Parse(text, Options{})
		require.NoError(t, err)

		byID := map[int64]*events.Event{}
		for _, e := range pl.Events {
			byID[e.ID] = e
		}
		hops := func(e *events.Event) int {
			n := 0
			for e != nil && !e.IsRoot() {
				n++
				e = byID[e.ParentID]
			}
			return n
		}

		// A lone top-level event is promoted to the root and sits one hop
		// above the sentinel.
		offset := 0
		if !pl.Root.IsSynthetic() {
			offset = 1
		}
		visited := 0
		tree.Walk(pl.Root, func(n *tree.Node, depth int) bool {
			if !n.IsSynthetic() {
				visited++
				require.Equal(t, depth+offset, hops(n.Event), "event %d", n.Event.ID)
			}
			return true
		})
		require.Equal(t, len(pl.Events), visited)
	}
}

func TestParse_SyntheticLogs(t *testing.T) {
	var buf bytes.Buffer
	opts := synth.Options{Units: 200, Depth: 4}
	require.NoError(t, synth.Write(&buf, opts))

	pl, err := Parse(buf.String(), Options{})
	require.NoError(t, err)
	require.Equal(t, int64(synth.Events(opts)), pl.Stats.TotalEvents)
	require.False(t, pl.IsTruncated())
	require.Equal(t, 0, pl.Stats.UnclosedEntries)
	require.Equal(t, 6, tree.MaxDepth(pl.Root))
	require.GreaterOrEqual(t, pl.Confidence.Score, 0.9)

	var n int64
	var sum Summary
	for _, err := range StreamReader(bytes.NewReader(buf.Bytes()), Options{}, &sum) {
		require.NoError(t, err)
		n++
	}
	require.Equal(t, pl.Stats.TotalEvents, n)
	require.Equal(t, pl.Confidence.Score, sum.Confidence.Score)

	buf.Reset()
	require.NoError(t, synth.Write(&buf, synth.Options{Units: 20, Depth: 3, TruncateAfter: 40}))
	pl, err = Parse(buf.String(), Options{})
	require.NoError(t, err)
	require.True(t, pl.IsTruncated())
	require.Equal(t, truncation.SizeLimit, pl.Truncation.Type)
	require.Equal(t, "*** Skipped", pl.Truncation.Marker)
	require.Positive(t, pl.Truncation.LastCompleteEventID)
	require.Positive(t, pl.Stats.UnclosedEntries)
}
