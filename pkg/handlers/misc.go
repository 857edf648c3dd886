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
	addressRe    = regexp.MustCompile(`^0x[0-9a-fA-F]+$`)
	endpointRe   = regexp.MustCompile(`Endpoint=([^,\]]+)`)
	methodRe     = regexp.MustCompile(`Method=(\w+)`)
	statusRe     = regexp.MustCompile(`Status=([^,\]]+)`)
	statusCodeRe = regexp.MustCompile(`StatusCode=(\d+)`)
)

func handleDebug(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	rest := payload(tok)
	d := events.Debug{Level: "DEBUG"}
	switch len(rest) {
	case 0:
	case 1:
		d.Message = rest[0]
	default:
		d.Level = strings.TrimSpace(rest[0])
		d.Message = joinRest(rest[1:])
	}
	return emit(ctx, e, d)
}

func handleUserInfo(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	rest := payload(tok)
	u := events.UserInfo{}
	for i, f := range rest {
		f = strings.TrimSpace(f)
		switch {
		case u.UserID == "" && isSalesforceID(f):
			u.UserID = f
		case u.Username == "" && strings.Contains(f, "@"):
			u.Username = f
		case i == len(rest)-1:
			u.TimeZone = f
		}
	}
	return emit(ctx, e, u)
}

func handleHeap(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	n, _ := prefixedInt(payload(tok), "Bytes:")
	return emit(ctx, e, events.Heap{Bytes: n})
}

func handleVariableScope(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	rest := payload(tok)
	return emit(ctx, e, events.VariableScope{
		Name:   field(rest, 0),
		Type:   field(rest, 1),
		Static: strings.EqualFold(field(rest, 3), "true"),
	})
}

func handleVariable(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	rest := payload(tok)
	v := events.Variable{Name: field(rest, 0)}
	if len(rest) < 2 {
		v.Value = events.ParseValue("")
		return emit(ctx, e, v)
	}
	values := rest[1:]
	if len(values) > 1 && addressRe.MatchString(strings.TrimSpace(values[len(values)-1])) {
		v.Address = strings.TrimSpace(values[len(values)-1])
		values = values[:len(values)-1]
	}
	v.Value = events.ParseValue(joinRest(values))
	return emit(ctx, e, v)
}

func handleValidation(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	rest := payload(tok)
	v := events.Validation{}
	switch tok.Type {
	case tokenizer.ValidationRule:
		if len(rest) > 1 && isSalesforceID(field(rest, 0)) {
			v.RuleID = field(rest, 0)
			v.RuleName = strings.TrimSpace(joinRest(rest[1:]))
		} else {
			v.RuleName = strings.TrimSpace(joinRest(rest))
		}
	case tokenizer.ValidationFormula:
		v.Formula = field(rest, 0)
		if len(rest) > 1 {
			v.Values = strings.TrimSpace(joinRest(rest[1:]))
		}
	case tokenizer.ValidationPass:
		passed := true
		v.Passed = &passed
	case tokenizer.ValidationFail:
		passed := false
		v.Passed = &passed
		v.Message = strings.TrimSpace(joinRest(rest))
	case tokenizer.ValidationError:
		v.Message = strings.TrimSpace(joinRest(rest))
	}
	return emit(ctx, e, v)
}

func handleFlow(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	rest := payload(tok)
	f := events.Flow{}
	switch tok.Type {
	case tokenizer.FlowStartInterviewBegin, tokenizer.FlowStartInterviewEnd, tokenizer.FlowInterviewFinished:
		f.InterviewID = field(rest, 0)
		f.FlowName = field(rest, 1)
	case tokenizer.FlowStartInterviewsBegin, tokenizer.FlowStartInterviewsEnd:
		f.FlowName = field(rest, len(rest)-1)
	case tokenizer.FlowCreateInterviewBegin, tokenizer.FlowCreateInterviewEnd:
		f.InterviewID = field(rest, 0)
		f.FlowName = field(rest, len(rest)-1)
	case tokenizer.FlowElementBegin, tokenizer.FlowElementEnd:
		f.InterviewID = field(rest, 0)
		f.ElementType = field(rest, 1)
		f.ElementName = field(rest, 2)
	case tokenizer.FlowElementError:
		f.Message = field(rest, 0)
		f.ElementType = field(rest, 1)
		f.ElementName = field(rest, 2)
	case tokenizer.FlowValueAssignment:
		f.InterviewID = field(rest, 0)
		f.Variable = field(rest, 1)
		if len(rest) > 2 {
			f.Value = joinRest(rest[2:])
		}
	}
	return emit(ctx, e, f)
}

func handleCallout(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	raw := strings.TrimSpace(joinRest(payload(tok)))
	c := events.Callout{Raw: raw}
	if m := endpointRe.FindStringSubmatch(raw); m != nil {
		c.Endpoint = strings.TrimSpace(m[1])
	}
	if m := methodRe.FindStringSubmatch(raw); m != nil {
		c.Method = m[1]
	}
	if m := statusRe.FindStringSubmatch(raw); m != nil {
		c.Status = strings.TrimSpace(m[1])
	}
	if m := statusCodeRe.FindStringSubmatch(raw); m != nil {
		c.StatusCode, _ = strconv.Atoi(m[1])
	}
	return emit(ctx, e, c)
}
