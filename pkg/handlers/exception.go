package handlers

import (
	"regexp"
	"strings"

	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/parsectx"
	"github.com/go-go-golems/apexlog/pkg/tokenizer"
)

const genericExceptionType = "Exception"

var exceptionRe = regexp.MustCompile(`(?s)^([A-Za-z_][\w.]*):\s*(.*)$`)

// SplitException splits "<Type>: <message>". Text that does not match comes
// back as a generic type with the full text as message.
func SplitException(text string) (string, string) {
	text = strings.TrimSpace(text)
	if m := exceptionRe.FindStringSubmatch(text); m != nil {
		return m[1], m[2]
	}
	return genericExceptionType, text
}

func handleException(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	typ, msg := SplitException(joinRest(payload(tok)))
	return emit(ctx, e, events.Exception{
		ExceptionType: typ,
		Message:       msg,
		Fatal:         tok.Type == tokenizer.FatalError,
	})
}
