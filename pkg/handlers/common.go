package handlers

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/parsectx"
	"github.com/go-go-golems/apexlog/pkg/tokenizer"
)

var (
	sourceLineRe = regexp.MustCompile(`^\[(\d+)\]$`)
	sfidRe       = regexp.MustCompile(`^[a-zA-Z0-9]{15}(?:[a-zA-Z0-9]{3})?$`)
)

// newEvent fills the fields every event carries. The parent is whatever is
// open right now; emit applies the stack discipline afterwards.
func newEvent(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := &events.Event{
		ID:              ctx.NextID(),
		ParentID:        ctx.CurrentParent(),
		Type:            tok.Type,
		Timestamp:       tok.Timestamp,
		WallClockMillis: tok.WallClockMillis,
		Line:            tok.Line,
		Namespace:       ctx.Namespace(),
	}
	if len(tok.Fields) > 0 {
		if m := sourceLineRe.FindStringSubmatch(tok.Fields[0]); m != nil {
			e.SourceLine, _ = strconv.Atoi(m[1])
		}
	}
	return e
}

// emit pushes entries, pops for exits and records e as the last event.
func emit(ctx *parsectx.Context, e *events.Event, d events.Detail) *events.Event {
	e.Data = d
	switch events.RoleOf(e.Type) {
	case events.Entry:
		ctx.Push(e)
	case events.Exit:
		ctx.Pop(e)
	}
	ctx.Emit(e)
	return e
}

// payload drops a leading location field such as "[12]" or "[EXTERNAL]".
func payload(tok *tokenizer.Token) []string {
	if len(tok.Fields) == 0 {
		return nil
	}
	f := tok.Fields[0]
	if strings.HasPrefix(f, "[") && strings.HasSuffix(f, "]") && !strings.Contains(f, "\n") {
		return tok.Fields[1:]
	}
	return tok.Fields
}

func isSalesforceID(s string) bool {
	return sfidRe.MatchString(s)
}

func joinRest(fields []string) string {
	return strings.Join(fields, "|")
}

// prefixedInt finds the first field shaped like "<key>:<int>".
func prefixedInt(fields []string, key string) (int64, bool) {
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if !strings.HasPrefix(f, key) {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(f, key)), 10, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

func prefixedString(fields []string, key string) string {
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if strings.HasPrefix(f, key) {
			return strings.TrimSpace(strings.TrimPrefix(f, key))
		}
	}
	return ""
}

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func handleMarker(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	return emit(ctx, e, events.Marker{Label: strings.TrimSpace(joinRest(payload(tok)))})
}

func handleGeneric(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	rest := payload(tok)
	var fields []string
	if len(rest) > 0 {
		fields = append([]string(nil), rest...)
	}
	return emit(ctx, e, events.Generic{Fields: fields})
}
