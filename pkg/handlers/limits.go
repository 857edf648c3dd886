package handlers

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/parsectx"
	"github.com/go-go-golems/apexlog/pkg/tokenizer"
)

var limitLineRe = regexp.MustCompile(`^\s*(.+?):\s*(\d+)\s+out of\s+(\d+)`)

// ParseLimitLine reads "<name>: <used> out of <max>".
func ParseLimitLine(line string) (events.Limit, bool) {
	m := limitLineRe.FindStringSubmatch(line)
	if m == nil {
		return events.Limit{}, false
	}
	used, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return events.Limit{}, false
	}
	ceiling, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return events.Limit{}, false
	}
	return events.Limit{Name: strings.TrimSpace(m[1]), Used: used, Max: ceiling}, true
}

func handleLimitUsage(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	rest := payload(tok)
	lu := events.LimitUsage{Limits: []events.Limit{}}

	if tok.Type == tokenizer.LimitUsageForNS && len(rest) > 0 {
		first, _, _ := strings.Cut(rest[0], "\n")
		lu.Namespace = strings.Trim(strings.TrimSpace(first), "()")
	}

	// Compact single form: "<name>|<used>|<max>".
	if tok.Type == tokenizer.LimitUsage && len(rest) == 3 {
		used, err1 := strconv.ParseInt(strings.TrimSpace(rest[1]), 10, 64)
		ceiling, err2 := strconv.ParseInt(strings.TrimSpace(rest[2]), 10, 64)
		if err1 == nil && err2 == nil {
			lu.Limits = append(lu.Limits, events.Limit{Name: strings.TrimSpace(rest[0]), Used: used, Max: ceiling})
			return emit(ctx, e, lu)
		}
	}

	for _, line := range strings.Split(joinRest(rest), "\n") {
		if l, ok := ParseLimitLine(line); ok {
			lu.Limits = append(lu.Limits, l)
		}
	}
	return emit(ctx, e, lu)
}
