package parser

import (
	"strings"

	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/handlers"
	"github.com/go-go-golems/apexlog/pkg/parsectx"
	"github.com/go-go-golems/apexlog/pkg/tokenizer"
	"github.com/go-go-golems/apexlog/pkg/truncation"
	"github.com/rs/zerolog/log"
)

// session is the line-at-a-time core shared by the batch and streaming
// parsers. It owns the only mutable state of a parse.
type session struct {
	opts  Options
	reg   *handlers.Registry
	tz    *tokenizer.Tokenizer
	ctx   *parsectx.Context
	trunc *truncation.Tracker

	lineNo          int
	totalEvents     int64
	eventsByType    map[tokenizer.EventType]int64
	unhandled       int64
	unhandledByType map[tokenizer.EventType]int64
	capped          bool
}

func newSession(opts Options) *session {
	reg := opts.Registry
	if reg == nil {
		reg = handlers.NewDefault()
	}
	return &session{
		opts:            opts,
		reg:             reg,
		tz:              tokenizer.New(opts.MaxLineLength),
		ctx:             parsectx.New(),
		trunc:           truncation.NewTracker(opts.Truncation),
		eventsByType:    map[tokenizer.EventType]int64{},
		unhandledByType: map[tokenizer.EventType]int64{},
	}
}

// step is the outcome of feeding one line or flushing.
type step struct {
	event  *events.Event
	closed *events.Event
}

// push feeds one line that took size bytes of input. At most one event
// results.
func (s *session) push(line string, size int64) step {
	if s.capped {
		return step{}
	}
	s.lineNo++
	line = strings.TrimSuffix(line, "\n")
	s.trunc.ObserveLine(s.lineNo, line, size)
	tok, _ := s.tz.PushSized(line, size)
	return s.handle(tok)
}

// sizeOf counts a line without a trailing newline as if it had one.
func sizeOf(line string) int64 {
	if strings.HasSuffix(line, "\n") {
		return int64(len(line))
	}
	return int64(len(line)) + 1
}

// flush completes the pending token at end of input.
func (s *session) flush() step {
	if s.capped {
		return step{}
	}
	return s.handle(s.tz.Flush())
}

func (s *session) handle(tok *tokenizer.Token) step {
	if tok == nil {
		return step{}
	}
	ev, ok := s.reg.Handle(tok, s.ctx)
	if !ok {
		s.unhandled++
		s.unhandledByType[tok.Type]++
		log.Debug().Str("type", string(tok.Type)).Int("line", tok.Line).Msg("no handler for event type")
		return step{}
	}

	s.totalEvents++
	s.eventsByType[ev.Type]++
	s.trunc.ObserveEvent(ev)
	closed := s.ctx.TakeClosed()
	s.trunc.ObserveClosed(closed)

	if s.opts.MaxEvents > 0 && s.totalEvents >= int64(s.opts.MaxEvents) {
		s.capped = true
		log.Debug().Int("maxEvents", s.opts.MaxEvents).Msg("event cap reached, stopping")
	}
	return step{event: ev, closed: closed}
}

// fail classifies a log that yielded nothing usable.
func (s *session) fail() *Error {
	ts := s.tz.Stats()
	if ts.TotalLines == ts.EmptyLines {
		return &Error{Code: CodeEmptyLog, Message: "log contains no content"}
	}
	if ts.EventLines > 0 {
		return nil
	}

	e := &Error{Code: CodeInvalidFormat, Message: "no recognizable event lines"}
	if ts.FailedLines > 0 && ts.FailedLines == ts.OversizedLines {
		e.Code = CodeLineTooLong
		e.Message = "every candidate line exceeds the maximum line length"
	}
	if f := s.tz.FirstFailure(); f != nil {
		e.Line = f.Line
		e.RawLine = f.Raw
	}
	return e
}

func (s *session) summary() Summary {
	ts := s.tz.Stats()
	stats := Stats{
		Stats:            ts,
		TotalEvents:      s.totalEvents,
		EventsByType:     s.eventsByType,
		UnhandledTokens:  s.unhandled,
		UnderflowedExits: s.ctx.Underflows(),
		UnclosedEntries:  s.ctx.Depth(),
		Capped:           s.capped,
	}
	if len(s.unhandledByType) > 0 {
		stats.UnhandledByType = s.unhandledByType
	}

	info := s.trunc.Assess(stats.UnclosedEntries)
	sum := Summary{
		Metadata: metadataOf(s.tz.Header()),
		Stats:    stats,
	}
	if info.IsTruncated {
		sum.Truncation = &info
	}

	parsed := ts.EventLines - s.unhandled + ts.ContinuationLines
	if parsed < 0 {
		parsed = 0
	}
	sum.Confidence = truncation.Score(truncation.ConfidenceInput{
		CandidateLines:  ts.TotalLines - ts.EmptyLines - ts.HeaderLines,
		ParsedLines:     parsed,
		FailedLines:     ts.FailedLines,
		UnhandledTokens: s.unhandled,
		DistinctTypes:   len(s.eventsByType),
		Underflows:      stats.UnderflowedExits,
		Truncation:      &info,
	})
	return sum
}

func metadataOf(h tokenizer.Header) Metadata {
	return Metadata{APIVersion: h.APIVersion, DebugLevels: h.DebugLevels}
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
