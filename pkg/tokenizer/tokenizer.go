// Package tokenizer splits Apex debug log text into typed tokens.
//
// Every line that starts with the `HH:MM:SS.mmm (nanos)|` prefix opens a new
// token. Lines without the prefix extend the last field of the previous token
// when that token is still open for multi-line content. Anything else is
// counted, never raised.
package tokenizer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultMaxLineLength bounds the cost of a single corrupt or adversarial line.
const DefaultMaxLineLength = 1 << 20

var prefixRe = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})\.(\d{1,3}) \((\d+)\)\|`)

// Token is one event line plus its continuation lines.
type Token struct {
	Line            int       `json:"line"`
	Timestamp       int64     `json:"timestamp"`
	WallClockMillis int64     `json:"wallClockMillis"`
	Type            EventType `json:"type"`
	Fields          []string  `json:"fields"`
}

// LastField returns the final raw field, or "" when the token has none.
func (t *Token) LastField() string {
	if len(t.Fields) == 0 {
		return ""
	}
	return t.Fields[len(t.Fields)-1]
}

// LineKind classifies what the tokenizer did with a single input line.
type LineKind int

const (
	LineEvent LineKind = iota
	LineContinuation
	LineHeader
	LineEmpty
	LineFailed
	LineOversized
)

// Stats counts how input lines were classified.
type Stats struct {
	TotalLines        int64 `json:"totalLines"`
	EventLines        int64 `json:"eventLines"`
	ContinuationLines int64 `json:"continuationLines"`
	HeaderLines       int64 `json:"headerLines"`
	EmptyLines        int64 `json:"emptyLines"`
	FailedLines       int64 `json:"failedLines"`
	OversizedLines    int64 `json:"oversizedLines"`
	BytesRead         int64 `json:"bytesRead"`
}

// FailedLine is the first line that matched neither grammar. Its text is the
// only raw input the tokenizer retains.
type FailedLine struct {
	Line int
	Raw  string
}

// Tokenizer is a line-at-a-time state machine. It holds at most one pending
// token; Push hands back the previous token once the next one begins.
type Tokenizer struct {
	maxLineLength int

	lineNo      int
	pending     *Token
	sawEvent    bool
	headerDone  bool
	header      Header
	firstFailed *FailedLine
	stats       Stats
}

func New(maxLineLength int) *Tokenizer {
	if maxLineLength <= 0 {
		maxLineLength = DefaultMaxLineLength
	}
	return &Tokenizer{maxLineLength: maxLineLength}
}

// Push consumes one line (without its trailing newline). It returns the token
// completed by this line, if any, and how the line was classified.
func (t *Tokenizer) Push(line string) (*Token, LineKind) {
	return t.PushSized(line, int64(len(line))+1)
}

// PushSized is Push for callers that know how many input bytes the line took,
// including its line ending and anything cut off before it reached here.
func (t *Tokenizer) PushSized(line string, size int64) (*Token, LineKind) {
	t.lineNo++
	t.stats.TotalLines++
	t.stats.BytesRead += size
	line = strings.TrimSuffix(line, "\r")

	if len(line) > t.maxLineLength {
		log.Debug().Int("line", t.lineNo).Int("len", len(line)).Int("max", t.maxLineLength).Msg("line exceeds maximum length")
		t.stats.OversizedLines++
		t.stats.FailedLines++
		t.noteFailure(line)
		return nil, LineOversized
	}

	if m := prefixRe.FindStringSubmatchIndex(line); m != nil {
		tok := newToken(t.lineNo, line, m)
		t.stats.EventLines++
		t.sawEvent = true
		t.headerDone = true
		done := t.pending
		t.pending = tok
		return done, LineEvent
	}

	if t.pending != nil && t.pending.Type.MultiLine() {
		appendContinuation(t.pending, line)
		t.stats.ContinuationLines++
		return nil, LineContinuation
	}

	if strings.TrimSpace(line) == "" {
		t.stats.EmptyLines++
		return nil, LineEmpty
	}

	if !t.headerDone && !t.sawEvent {
		t.headerDone = true
		if h, ok := ParseHeader(line); ok {
			t.header = h
			t.stats.HeaderLines++
			return nil, LineHeader
		}
	}

	t.stats.FailedLines++
	t.noteFailure(line)
	return nil, LineFailed
}

// Flush returns the pending token at end of input.
func (t *Tokenizer) Flush() *Token {
	tok := t.pending
	t.pending = nil
	return tok
}

func (t *Tokenizer) Header() Header { return t.header }

func (t *Tokenizer) MaxLineLength() int { return t.maxLineLength }

func (t *Tokenizer) Stats() Stats { return t.stats }

// FirstFailure returns the first unparseable line, or nil.
func (t *Tokenizer) FirstFailure() *FailedLine { return t.firstFailed }

func (t *Tokenizer) noteFailure(line string) {
	if t.firstFailed != nil {
		return
	}
	raw := line
	if len(raw) > 512 {
		raw = raw[:512]
	}
	t.firstFailed = &FailedLine{Line: t.lineNo, Raw: raw}
}

// Tokenize runs the whole of text through a fresh Tokenizer.
func Tokenize(text string, maxLineLength int) ([]*Token, Header, Stats) {
	tz := New(maxLineLength)
	var out []*Token
	for _, line := range SplitLines(text) {
		if tok, _ := tz.Push(line); tok != nil {
			out = append(out, tok)
		}
	}
	if tok := tz.Flush(); tok != nil {
		out = append(out, tok)
	}
	return out, tz.Header(), tz.Stats()
}

// SplitLines splits on '\n' and drops the empty string after a trailing newline.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func newToken(lineNo int, line string, m []int) *Token {
	hh, _ := strconv.ParseInt(line[m[2]:m[3]], 10, 64)
	mm, _ := strconv.ParseInt(line[m[4]:m[5]], 10, 64)
	ss, _ := strconv.ParseInt(line[m[6]:m[7]], 10, 64)
	frac := line[m[8]:m[9]]
	for len(frac) < 3 {
		frac += "0"
	}
	ms, _ := strconv.ParseInt(frac, 10, 64)
	nanos, _ := strconv.ParseInt(line[m[10]:m[11]], 10, 64)

	rest := line[m[1]:]
	tag := rest
	var fields []string
	if i := strings.IndexByte(rest, '|'); i >= 0 {
		tag = rest[:i]
		fields = splitFields(rest[i+1:])
	}

	return &Token{
		Line:            lineNo,
		Timestamp:       nanos,
		WallClockMillis: ((hh*60+mm)*60+ss)*1000 + ms,
		Type:            EventType(strings.TrimSpace(tag)),
		Fields:          fields,
	}
}

func appendContinuation(tok *Token, line string) {
	if len(tok.Fields) == 0 {
		tok.Fields = append(tok.Fields, line)
		return
	}
	last := len(tok.Fields) - 1
	tok.Fields[last] = tok.Fields[last] + "\n" + line
}

// splitFields splits on '|'. A field starting with '{' or '[' is scanned with
// bracket and string awareness so embedded JSON stays in one piece.
func splitFields(s string) []string {
	if s == "" {
		return []string{""}
	}
	var out []string
	start := 0
	depth := 0
	inString := false
	structured := s[0] == '{' || s[0] == '['
	for i := 0; i < len(s); i++ {
		c := s[i]
		if structured {
			if inString {
				switch c {
				case '\\':
					i++
				case '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{', '[':
				depth++
			case '}', ']':
				if depth > 0 {
					depth--
				}
			}
		}
		if c == '|' && depth == 0 {
			out = append(out, s[start:i])
			start = i + 1
			structured = start < len(s) && (s[start] == '{' || s[start] == '[')
			inString = false
		}
	}
	return append(out, s[start:])
}
