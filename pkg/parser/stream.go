package parser

import (
	"io"
	"iter"

	"github.com/go-go-golems/apexlog/pkg/events"
)

// StreamItem is one event from a streaming parse. Completed is the entry
// Event closed, if any; its duration is set by the time the item is yielded.
type StreamItem struct {
	Event     *events.Event `json:"event"`
	Completed *events.Event `json:"completed,omitempty"`
}

// Streamer is the caller-paced streaming parser. Each Push consumes exactly
// one line and returns at most one event. It retains no events, so memory
// does not grow with the number produced.
type Streamer struct {
	s      *session
	closed bool
}

func NewStreamer(opts Options) *Streamer {
	return &Streamer{s: newSession(opts)}
}

// Push consumes one line. The returned item is nil when the line did not
// complete an event. A line without a trailing newline is counted as if it
// had one.
func (st *Streamer) Push(line string) *StreamItem {
	return st.pushSized(line, sizeOf(line))
}

func (st *Streamer) pushSized(line string, size int64) *StreamItem {
	if st.closed {
		return nil
	}
	return itemOf(st.s.push(line, size))
}

// Done reports whether the event cap was reached; further lines are ignored.
func (st *Streamer) Done() bool { return st.s.capped }

// Line is the number of lines consumed so far.
func (st *Streamer) Line() int { return st.s.lineNo }

// Close flushes the final pending event and returns the summary. A log that
// produced nothing usable returns a *Error instead.
func (st *Streamer) Close() (*StreamItem, Summary, error) {
	var last *StreamItem
	if !st.closed {
		st.closed = true
		last = itemOf(st.s.flush())
	}
	if err := st.s.fail(); err != nil {
		return nil, Summary{}, err
	}
	return last, st.s.summary(), nil
}

func itemOf(s step) *StreamItem {
	if s.event == nil {
		return nil
	}
	return &StreamItem{Event: s.event, Completed: s.closed}
}

// Stream adapts a Streamer to an iterator. Lines are pulled only as the
// consumer asks for events. When the input is exhausted the summary is
// stored in sum and a whole-log failure is yielded as the final error.
func Stream(lines iter.Seq[string], opts Options, sum *Summary) iter.Seq2[StreamItem, error] {
	return func(yield func(StreamItem, error) bool) {
		st := NewStreamer(opts)
		for line := range lines {
			if it := st.Push(line); it != nil {
				if !yield(*it, nil) {
					return
				}
			}
			if st.Done() {
				break
			}
		}
		finish(st, sum, yield)
	}
}

// StreamReader is Stream over the lines of r.
func StreamReader(r io.Reader, opts Options, sum *Summary) iter.Seq2[StreamItem, error] {
	return func(yield func(StreamItem, error) bool) {
		st := NewStreamer(opts)
		for line, err := range Lines(r, st.s.tz.MaxLineLength()) {
			if err != nil {
				yield(StreamItem{}, &Error{Code: CodeReadError, Message: "reading log", Line: st.Line() + 1, Cause: err})
				return
			}
			if it := st.pushSized(line.Text, line.Size); it != nil {
				if !yield(*it, nil) {
					return
				}
			}
			if st.Done() {
				break
			}
		}
		finish(st, sum, yield)
	}
}

func finish(st *Streamer, sum *Summary, yield func(StreamItem, error) bool) {
	last, s, err := st.Close()
	if err != nil {
		yield(StreamItem{}, err)
		return
	}
	if sum != nil {
		*sum = s
	}
	if last != nil {
		yield(*last, nil)
	}
}
