// Package handlers turns tokens into typed events. Each event tag maps to one
// parse function; tags without a handler produce no event.
package handlers

import (
	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/parsectx"
	"github.com/go-go-golems/apexlog/pkg/tokenizer"
)

// HandlerFunc parses one token. It may advance the id counter, move the
// open-entry stack, or set the namespace on ctx.
type HandlerFunc func(tok *tokenizer.Token, ctx *parsectx.Context) *events.Event

// Registry is a lookup table from tag to handler. Registries are cheap to
// create and are not safe for concurrent mutation.
type Registry struct {
	handlers map[tokenizer.EventType]HandlerFunc
}

// defaults is read-only after package init.
var defaults = map[tokenizer.EventType]HandlerFunc{
	tokenizer.ExecutionStarted:  handleMarker,
	tokenizer.ExecutionFinished: handleMarker,
	tokenizer.CodeUnitStarted:   handleCodeUnit,
	tokenizer.CodeUnitFinished:  handleCodeUnit,

	tokenizer.MethodEntry:            handleMethod,
	tokenizer.MethodExit:             handleMethod,
	tokenizer.ConstructorEntry:       handleMethod,
	tokenizer.ConstructorExit:        handleMethod,
	tokenizer.SystemMethodEntry:      handleMethod,
	tokenizer.SystemMethodExit:       handleMethod,
	tokenizer.SystemConstructorEntry: handleMethod,
	tokenizer.SystemConstructorExit:  handleMethod,
	tokenizer.EnteringManagedPkg:     handleManagedPackage,

	tokenizer.SOQLExecuteBegin:   handleQueryBegin,
	tokenizer.SOSLExecuteBegin:   handleQueryBegin,
	tokenizer.SOQLExecuteEnd:     handleQueryEnd,
	tokenizer.SOSLExecuteEnd:     handleQueryEnd,
	tokenizer.SOQLExecuteExplain: handleQueryPlan,
	tokenizer.DMLBegin:           handleDML,
	tokenizer.DMLEnd:             handleDML,

	tokenizer.LimitUsage:              handleLimitUsage,
	tokenizer.LimitUsageForNS:         handleLimitUsage,
	tokenizer.CumulativeLimitUsage:    handleMarker,
	tokenizer.CumulativeLimitUsageEnd: handleMarker,
	tokenizer.TestingLimits:           handleMarker,

	tokenizer.ExceptionThrown: handleException,
	tokenizer.FatalError:      handleException,

	tokenizer.UserDebug:          handleDebug,
	tokenizer.UserInfo:           handleUserInfo,
	tokenizer.StatementExecute:   handleGeneric,
	tokenizer.HeapAllocate:       handleHeap,
	tokenizer.VariableScopeBegin: handleVariableScope,
	tokenizer.VariableAssignment: handleVariable,
	tokenizer.StaticVariableList: handleGeneric,

	tokenizer.ValidationRule:    handleValidation,
	tokenizer.ValidationFormula: handleValidation,
	tokenizer.ValidationPass:    handleValidation,
	tokenizer.ValidationFail:    handleValidation,
	tokenizer.ValidationError:   handleValidation,

	tokenizer.FlowStartInterviewsBegin: handleFlow,
	tokenizer.FlowStartInterviewsEnd:   handleFlow,
	tokenizer.FlowStartInterviewBegin:  handleFlow,
	tokenizer.FlowStartInterviewEnd:    handleFlow,
	tokenizer.FlowCreateInterviewBegin: handleFlow,
	tokenizer.FlowCreateInterviewEnd:   handleFlow,
	tokenizer.FlowElementBegin:         handleFlow,
	tokenizer.FlowElementEnd:           handleFlow,
	tokenizer.FlowElementError:         handleFlow,
	tokenizer.FlowValueAssignment:      handleFlow,
	tokenizer.FlowInterviewFinished:    handleFlow,

	tokenizer.CalloutRequest:          handleCallout,
	tokenizer.CalloutResponse:         handleCallout,
	tokenizer.NamedCredentialRequest:  handleCallout,
	tokenizer.NamedCredentialResponse: handleCallout,

	tokenizer.WFRuleEvalBegin:          handleGeneric,
	tokenizer.WFRuleEvalEnd:            handleGeneric,
	tokenizer.WFCriteriaBegin:          handleGeneric,
	tokenizer.WFCriteriaEnd:            handleGeneric,
	tokenizer.SavepointSet:             handleGeneric,
	tokenizer.SavepointRollback:        handleGeneric,
	tokenizer.TotalEmailRecipients:     handleGeneric,
	tokenizer.PushTraceFlags:           handleGeneric,
	tokenizer.PopTraceFlags:            handleGeneric,
	tokenizer.QueryMoreIterations:      handleGeneric,
	tokenizer.DuplicateDetectionBegin:  handleGeneric,
	tokenizer.DuplicateDetectionEnd:    handleGeneric,
	tokenizer.EmailQueue:               handleGeneric,
	tokenizer.CumulativeProfilingBegin: handleMarker,
	tokenizer.CumulativeProfiling:      handleGeneric,
	tokenizer.CumulativeProfilingEnd:   handleMarker,
}

// NewDefault returns a registry holding a handler for every known tag.
func NewDefault() *Registry {
	r := &Registry{handlers: make(map[tokenizer.EventType]HandlerFunc, len(defaults))}
	for t, fn := range defaults {
		r.handlers[t] = fn
	}
	return r
}

// Register installs or replaces the handler for t. A nil fn removes it.
func (r *Registry) Register(t tokenizer.EventType, fn HandlerFunc) {
	if fn == nil {
		delete(r.handlers, t)
		return
	}
	r.handlers[t] = fn
}

func (r *Registry) Lookup(t tokenizer.EventType) (HandlerFunc, bool) {
	fn, ok := r.handlers[t]
	return fn, ok
}

// Handle dispatches tok. ok is false when no handler exists for its tag.
func (r *Registry) Handle(tok *tokenizer.Token, ctx *parsectx.Context) (*events.Event, bool) {
	fn, ok := r.handlers[tok.Type]
	if !ok {
		return nil, false
	}
	return fn(tok, ctx), true
}
