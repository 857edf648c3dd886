package handlers

import (
	"regexp"
	"strings"

	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/parsectx"
	"github.com/go-go-golems/apexlog/pkg/tokenizer"
)

var triggerRe = regexp.MustCompile(`^(\S+) on (\S+) trigger event (\S+)`)

// Key prefixes of platform record ids, by code unit kind.
var idPrefixKinds = map[string]events.CodeUnitKind{
	"01q": events.CodeUnitTrigger,
	"03d": events.CodeUnitValidation,
	"01Q": events.CodeUnitWorkflow,
	"300": events.CodeUnitFlow,
	"301": events.CodeUnitFlow,
	"01p": events.CodeUnitClass,
	"066": events.CodeUnitPage,
}

func handleCodeUnit(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	rest := payload(tok)

	cu := events.CodeUnit{}
	var text []string
	for _, f := range rest {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if cu.EntityID == "" && isSalesforceID(f) {
			cu.EntityID = f
			continue
		}
		text = append(text, f)
	}
	if len(text) > 0 {
		cu.Description = text[0]
		cu.Name = text[len(text)-1]
	}

	cu.Kind = inferCodeUnitKind(cu.Description, cu.Name, cu.EntityID)
	switch cu.Kind {
	case events.CodeUnitTrigger:
		if m := triggerRe.FindStringSubmatch(cu.Description); m != nil {
			cu.Name = m[1]
			cu.TriggerObject = m[2]
			cu.TriggerEvent = m[3]
		} else {
			cu.Name = strings.TrimPrefix(cu.Name, "__sfdc_trigger/")
		}
	case events.CodeUnitValidation, events.CodeUnitWorkflow, events.CodeUnitFlow, events.CodeUnitPage:
		if _, after, ok := strings.Cut(cu.Description, ":"); ok && cu.Name == cu.Description {
			cu.Name = strings.TrimSpace(after)
		}
	}
	return emit(ctx, e, cu)
}

func inferCodeUnitKind(desc, name, id string) events.CodeUnitKind {
	lower := strings.ToLower(desc)
	switch {
	case strings.Contains(lower, " trigger event ") || strings.HasPrefix(name, "__sfdc_trigger/"):
		return events.CodeUnitTrigger
	case strings.HasPrefix(lower, "validation:"):
		return events.CodeUnitValidation
	case strings.HasPrefix(lower, "workflow:"):
		return events.CodeUnitWorkflow
	case strings.HasPrefix(lower, "flow:"):
		return events.CodeUnitFlow
	case strings.HasPrefix(lower, "execute_anonymous"):
		return events.CodeUnitAnonymous
	case strings.HasPrefix(lower, "vf:"):
		return events.CodeUnitPage
	}
	if len(id) >= 3 {
		if k, ok := idPrefixKinds[id[:3]]; ok {
			return k
		}
	}
	return events.CodeUnitOther
}
