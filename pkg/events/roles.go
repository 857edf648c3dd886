package events

import "github.com/go-go-golems/apexlog/pkg/tokenizer"

// Role says how an event type moves the open-entry stack.
type Role int

const (
	Neutral Role = iota
	Entry
	Exit
)

func (r Role) String() string {
	switch r {
	case Entry:
		return "entry"
	case Exit:
		return "exit"
	default:
		return "neutral"
	}
}

var exitFor = map[tokenizer.EventType]tokenizer.EventType{
	tokenizer.MethodExit:             tokenizer.MethodEntry,
	tokenizer.ConstructorExit:        tokenizer.ConstructorEntry,
	tokenizer.SystemMethodExit:       tokenizer.SystemMethodEntry,
	tokenizer.SystemConstructorExit:  tokenizer.SystemConstructorEntry,
	tokenizer.CodeUnitFinished:       tokenizer.CodeUnitStarted,
	tokenizer.SOQLExecuteEnd:         tokenizer.SOQLExecuteBegin,
	tokenizer.SOSLExecuteEnd:         tokenizer.SOSLExecuteBegin,
	tokenizer.DMLEnd:                 tokenizer.DMLBegin,
	tokenizer.FlowStartInterviewsEnd: tokenizer.FlowStartInterviewsBegin,
	tokenizer.FlowStartInterviewEnd:  tokenizer.FlowStartInterviewBegin,
	tokenizer.FlowCreateInterviewEnd: tokenizer.FlowCreateInterviewBegin,
	tokenizer.FlowElementEnd:         tokenizer.FlowElementBegin,
}

var entries = map[tokenizer.EventType]struct{}{
	// No exit tag exists for managed-package entry; it is popped by whatever
	// exit comes next.
	tokenizer.EnteringManagedPkg: {},
}

func init() {
	for _, entry := range exitFor {
		entries[entry] = struct{}{}
	}
}

// RoleOf classifies t.
func RoleOf(t tokenizer.EventType) Role {
	if _, ok := entries[t]; ok {
		return Entry
	}
	if _, ok := exitFor[t]; ok {
		return Exit
	}
	return Neutral
}

// EntryFor returns the entry tag an exit tag closes.
func EntryFor(exit tokenizer.EventType) (tokenizer.EventType, bool) {
	e, ok := exitFor[exit]
	return e, ok
}

// IsTerminal reports whether t marks a clean end of a transaction.
func IsTerminal(t tokenizer.EventType) bool {
	return t == tokenizer.ExecutionFinished || t == tokenizer.CodeUnitFinished
}

// IsStart reports whether t marks the start of a transaction.
func IsStart(t tokenizer.EventType) bool {
	return t == tokenizer.ExecutionStarted || t == tokenizer.CodeUnitStarted
}
