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
	planLeadRe        = regexp.MustCompile(`^\s*(\w+)(?:\s+on\s+(\w+))?`)
	planCardRe        = regexp.MustCompile(`(?:^|[\s,])cardinality:\s*(\d+)`)
	planSObjectCardRe = regexp.MustCompile(`sobjectCardinality:\s*(\d+)`)
	planCostRe        = regexp.MustCompile(`relativeCost\s*:?\s*([\d.]+)`)
)

func language(t tokenizer.EventType) events.QueryLanguage {
	if t == tokenizer.SOSLExecuteBegin || t == tokenizer.SOSLExecuteEnd {
		return events.SOSL
	}
	return events.SOQL
}

func handleQueryBegin(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	rest := payload(tok)

	q := events.Query{Language: language(tok.Type)}
	if len(rest) > 0 && strings.HasPrefix(strings.TrimSpace(rest[0]), "Aggregations:") {
		n, _ := prefixedInt(rest[:1], "Aggregations:")
		q.Aggregations = int(n)
		rest = rest[1:]
	}
	q.Text = strings.TrimSpace(joinRest(rest))
	return emit(ctx, e, q)
}

func handleQueryEnd(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	rows, _ := prefixedInt(payload(tok), "Rows:")
	return emit(ctx, e, events.QueryResult{Language: language(tok.Type), Rows: int(rows)})
}

func handleQueryPlan(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	raw := strings.TrimSpace(joinRest(payload(tok)))

	p := events.QueryPlan{Raw: raw}
	if m := planLeadRe.FindStringSubmatch(raw); m != nil {
		p.LeadingOperation = m[1]
		p.SObjectType = m[2]
	}
	if m := planCardRe.FindStringSubmatch(raw); m != nil {
		p.Cardinality, _ = strconv.ParseInt(m[1], 10, 64)
	}
	if m := planSObjectCardRe.FindStringSubmatch(raw); m != nil {
		p.SObjectCardinality, _ = strconv.ParseInt(m[1], 10, 64)
	}
	if m := planCostRe.FindStringSubmatch(raw); m != nil {
		p.RelativeCost, _ = strconv.ParseFloat(strings.TrimSuffix(m[1], "."), 64)
	}
	return emit(ctx, e, p)
}

func handleDML(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	rest := payload(tok)
	rows, _ := prefixedInt(rest, "Rows:")
	d := events.DML{
		ObjectType: prefixedString(rest, "Type:"),
		Rows:       int(rows),
	}
	if tok.Type == tokenizer.DMLBegin {
		d.Operation = normalizeDMLOperation(prefixedString(rest, "Op:"))
	}
	return emit(ctx, e, d)
}

// normalizeDMLOperation maps the verb case-insensitively; anything unknown is
// an insert.
func normalizeDMLOperation(op string) events.DMLOperation {
	switch strings.ToLower(strings.TrimSpace(op)) {
	case "update":
		return events.DMLUpdate
	case "upsert":
		return events.DMLUpsert
	case "delete":
		return events.DMLDelete
	case "undelete":
		return events.DMLUndelete
	case "merge":
		return events.DMLMerge
	default:
		return events.DMLInsert
	}
}
