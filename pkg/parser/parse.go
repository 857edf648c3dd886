// Package parser turns Apex debug log text into typed events, a call tree and
// an assessment of how complete and trustworthy the result is.
package parser

import (
	"io"
	"strings"

	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/tree"
	"github.com/rs/zerolog/log"
)

// Parse parses a whole log held in memory.
func Parse(text string, opts Options) (*ParsedLog, error) {
	if isBlank(text) {
		return nil, &Error{Code: CodeEmptyLog, Message: "log contains no content"}
	}

	s := newSession(opts)
	var evs []*events.Event
	for line := range strings.Lines(text) {
		st := s.push(line, int64(len(line)))
		if st.event != nil {
			evs = append(evs, st.event)
		}
		if s.capped {
			break
		}
	}
	if st := s.flush(); st.event != nil {
		evs = append(evs, st.event)
	}

	return s.finishBatch(evs)
}

// ParseReader parses everything r yields. Lines longer than
// opts.MaxLineLength are never held in memory in full.
func ParseReader(r io.Reader, opts Options) (*ParsedLog, error) {
	s := newSession(opts)
	var evs []*events.Event
	for line, err := range Lines(r, s.tz.MaxLineLength()) {
		if err != nil {
			return nil, &Error{Code: CodeReadError, Message: "reading log", Line: s.lineNo + 1, Cause: err}
		}
		st := s.push(line.Text, line.Size)
		if st.event != nil {
			evs = append(evs, st.event)
		}
		if s.capped {
			break
		}
	}
	if st := s.flush(); st.event != nil {
		evs = append(evs, st.event)
	}
	return s.finishBatch(evs)
}

func (s *session) finishBatch(evs []*events.Event) (*ParsedLog, error) {
	if err := s.fail(); err != nil {
		return nil, err
	}
	pl := &ParsedLog{
		Events:  evs,
		Root:    tree.Build(evs),
		Summary: s.summary(),
	}
	log.Debug().
		Int64("events", pl.Stats.TotalEvents).
		Int64("lines", pl.Stats.TotalLines).
		Bool("truncated", pl.IsTruncated()).
		Float64("confidence", pl.Confidence.Score).
		Msg("parsed log")
	return pl, nil
}
