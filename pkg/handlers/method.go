package handlers

import (
	"strings"

	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/parsectx"
	"github.com/go-go-golems/apexlog/pkg/tokenizer"
)

func handleMethod(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	e := newEvent(tok, ctx)
	rest := payload(tok)

	m := events.Method{}
	switch tok.Type {
	case tokenizer.SystemMethodEntry, tokenizer.SystemMethodExit:
		m.System = true
	case tokenizer.ConstructorEntry, tokenizer.ConstructorExit:
		m.Constructor = true
	case tokenizer.SystemConstructorEntry, tokenizer.SystemConstructorExit:
		m.System = true
		m.Constructor = true
	}

	if len(rest) > 1 && isSalesforceID(strings.TrimSpace(rest[0])) {
		m.ClassID = strings.TrimSpace(rest[0])
		rest = rest[1:]
	}

	// User constructors log "<init>(args)|ClassName".
	if m.Constructor && !m.System && len(rest) >= 2 {
		m.ClassName = field(rest, len(rest)-1)
		m.MethodName = field(rest, len(rest)-2)
		m.Signature = m.ClassName + "." + m.MethodName
		return emit(ctx, e, m)
	}

	m.Signature = field(rest, len(rest)-1)
	m.ClassName, m.MethodName = splitSignature(m.Signature)
	return emit(ctx, e, m)
}

// splitSignature splits "Outer.Inner.method(Arg.Type)" on the last '.' that
// comes before the argument list.
func splitSignature(sig string) (class, method string) {
	head := sig
	if i := strings.IndexByte(sig, '('); i >= 0 {
		head = sig[:i]
	}
	dot := strings.LastIndexByte(head, '.')
	if dot < 0 {
		return "", sig
	}
	return sig[:dot], sig[dot+1:]
}

func handleManagedPackage(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event {
	ns := strings.TrimSpace(joinRest(payload(tok)))
	ctx.SetNamespace(ns)
	e := newEvent(tok, ctx)
	return emit(ctx, e, events.ManagedPackage{Namespace: ns})
}
