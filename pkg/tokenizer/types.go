package tokenizer

// EventType is the tag that follows the timestamp on an event line, kept verbatim.
type EventType string

const (
	ExecutionStarted  EventType = "EXECUTION_STARTED"
	ExecutionFinished EventType = "EXECUTION_FINISHED"
	CodeUnitStarted   EventType = "CODE_UNIT_STARTED"
	CodeUnitFinished  EventType = "CODE_UNIT_FINISHED"

	MethodEntry            EventType = "METHOD_ENTRY"
	MethodExit             EventType = "METHOD_EXIT"
	ConstructorEntry       EventType = "CONSTRUCTOR_ENTRY"
	ConstructorExit        EventType = "CONSTRUCTOR_EXIT"
	SystemMethodEntry      EventType = "SYSTEM_METHOD_ENTRY"
	SystemMethodExit       EventType = "SYSTEM_METHOD_EXIT"
	SystemConstructorEntry EventType = "SYSTEM_CONSTRUCTOR_ENTRY"
	SystemConstructorExit  EventType = "SYSTEM_CONSTRUCTOR_EXIT"
	EnteringManagedPkg     EventType = "ENTERING_MANAGED_PKG"

	SOQLExecuteBegin   EventType = "SOQL_EXECUTE_BEGIN"
	SOQLExecuteEnd     EventType = "SOQL_EXECUTE_END"
	SOQLExecuteExplain EventType = "SOQL_EXECUTE_EXPLAIN"
	SOSLExecuteBegin   EventType = "SOSL_EXECUTE_BEGIN"
	SOSLExecuteEnd     EventType = "SOSL_EXECUTE_END"
	DMLBegin           EventType = "DML_BEGIN"
	DMLEnd             EventType = "DML_END"

	LimitUsage              EventType = "LIMIT_USAGE"
	LimitUsageForNS         EventType = "LIMIT_USAGE_FOR_NS"
	CumulativeLimitUsage    EventType = "CUMULATIVE_LIMIT_USAGE"
	CumulativeLimitUsageEnd EventType = "CUMULATIVE_LIMIT_USAGE_END"
	TestingLimits           EventType = "TESTING_LIMITS"

	ExceptionThrown EventType = "EXCEPTION_THROWN"
	FatalError      EventType = "FATAL_ERROR"

	UserDebug          EventType = "USER_DEBUG"
	UserInfo           EventType = "USER_INFO"
	StatementExecute   EventType = "STATEMENT_EXECUTE"
	HeapAllocate       EventType = "HEAP_ALLOCATE"
	VariableScopeBegin EventType = "VARIABLE_SCOPE_BEGIN"
	VariableAssignment EventType = "VARIABLE_ASSIGNMENT"
	StaticVariableList EventType = "STATIC_VARIABLE_LIST"

	ValidationRule    EventType = "VALIDATION_RULE"
	ValidationFormula EventType = "VALIDATION_FORMULA"
	ValidationPass    EventType = "VALIDATION_PASS"
	ValidationFail    EventType = "VALIDATION_FAIL"
	ValidationError   EventType = "VALIDATION_ERROR"

	FlowStartInterviewsBegin EventType = "FLOW_START_INTERVIEWS_BEGIN"
	FlowStartInterviewsEnd   EventType = "FLOW_START_INTERVIEWS_END"
	FlowStartInterviewBegin  EventType = "FLOW_START_INTERVIEW_BEGIN"
	FlowStartInterviewEnd    EventType = "FLOW_START_INTERVIEW_END"
	FlowCreateInterviewBegin EventType = "FLOW_CREATE_INTERVIEW_BEGIN"
	FlowCreateInterviewEnd   EventType = "FLOW_CREATE_INTERVIEW_END"
	FlowElementBegin         EventType = "FLOW_ELEMENT_BEGIN"
	FlowElementEnd           EventType = "FLOW_ELEMENT_END"
	FlowElementError         EventType = "FLOW_ELEMENT_ERROR"
	FlowValueAssignment      EventType = "FLOW_VALUE_ASSIGNMENT"
	FlowInterviewFinished    EventType = "FLOW_INTERVIEW_FINISHED"

	WFRuleEvalBegin EventType = "WF_RULE_EVAL_BEGIN"
	WFRuleEvalEnd   EventType = "WF_RULE_EVAL_END"
	WFCriteriaBegin EventType = "WF_CRITERIA_BEGIN"
	WFCriteriaEnd   EventType = "WF_CRITERIA_END"

	CalloutRequest           EventType = "CALLOUT_REQUEST"
	CalloutResponse          EventType = "CALLOUT_RESPONSE"
	NamedCredentialRequest   EventType = "NAMED_CREDENTIAL_REQUEST"
	NamedCredentialResponse  EventType = "NAMED_CREDENTIAL_RESPONSE"
	SavepointSet             EventType = "SAVEPOINT_SET"
	SavepointRollback        EventType = "SAVEPOINT_ROLLBACK"
	TotalEmailRecipients     EventType = "TOTAL_EMAIL_RECIPIENTS_QUEUED"
	PushTraceFlags           EventType = "PUSH_TRACE_FLAGS"
	PopTraceFlags            EventType = "POP_TRACE_FLAGS"
	QueryMoreIterations      EventType = "QUERY_MORE_ITERATIONS"
	DuplicateDetectionBegin  EventType = "DUPLICATE_DETECTION_BEGIN"
	DuplicateDetectionEnd    EventType = "DUPLICATE_DETECTION_END"
	EmailQueue               EventType = "EMAIL_QUEUE"
	CumulativeProfilingBegin EventType = "CUMULATIVE_PROFILING_BEGIN"
	CumulativeProfiling      EventType = "CUMULATIVE_PROFILING"
	CumulativeProfilingEnd   EventType = "CUMULATIVE_PROFILING_END"
)

var known = map[EventType]struct{}{}

// multiLine tags may carry content that spills over onto following lines.
var multiLine = map[EventType]struct{}{
	UserDebug:           {},
	ExceptionThrown:     {},
	FatalError:          {},
	VariableAssignment:  {},
	LimitUsageForNS:     {},
	CumulativeProfiling: {},
	SOQLExecuteBegin:    {},
	SOSLExecuteBegin:    {},
	SOQLExecuteExplain:  {},
	CalloutRequest:      {},
	CalloutResponse:     {},
	FlowElementError:    {},
	FlowValueAssignment: {},
	ValidationFormula:   {},
	ValidationError:     {},
	StaticVariableList:  {},
	TestingLimits:       {},
}

func init() {
	for _, t := range []EventType{
		ExecutionStarted, ExecutionFinished, CodeUnitStarted, CodeUnitFinished,
		MethodEntry, MethodExit, ConstructorEntry, ConstructorExit,
		SystemMethodEntry, SystemMethodExit, SystemConstructorEntry, SystemConstructorExit,
		EnteringManagedPkg,
		SOQLExecuteBegin, SOQLExecuteEnd, SOQLExecuteExplain, SOSLExecuteBegin, SOSLExecuteEnd,
		DMLBegin, DMLEnd,
		LimitUsage, LimitUsageForNS, CumulativeLimitUsage, CumulativeLimitUsageEnd, TestingLimits,
		ExceptionThrown, FatalError,
		UserDebug, UserInfo, StatementExecute, HeapAllocate, VariableScopeBegin, VariableAssignment,
		StaticVariableList,
		ValidationRule, ValidationFormula, ValidationPass, ValidationFail, ValidationError,
		FlowStartInterviewsBegin, FlowStartInterviewsEnd, FlowStartInterviewBegin, FlowStartInterviewEnd,
		FlowCreateInterviewBegin, FlowCreateInterviewEnd, FlowElementBegin, FlowElementEnd,
		FlowElementError, FlowValueAssignment, FlowInterviewFinished,
		WFRuleEvalBegin, WFRuleEvalEnd, WFCriteriaBegin, WFCriteriaEnd,
		CalloutRequest, CalloutResponse, NamedCredentialRequest, NamedCredentialResponse,
		SavepointSet, SavepointRollback, TotalEmailRecipients, PushTraceFlags, PopTraceFlags,
		QueryMoreIterations, DuplicateDetectionBegin, DuplicateDetectionEnd, EmailQueue,
		CumulativeProfilingBegin, CumulativeProfiling, CumulativeProfilingEnd,
	} {
		known[t] = struct{}{}
	}
}

// Known reports whether t is one of the tags this package names.
func (t EventType) Known() bool {
	_, ok := known[t]
	return ok
}

// MultiLine reports whether lines without a timestamp prefix may extend a token
// of this type. Unrecognized tags are treated as multi-line so their content is
// not lost as failed lines.
func (t EventType) MultiLine() bool {
	if !t.Known() {
		return true
	}
	_, ok := multiLine[t]
	return ok
}

// KnownTypes returns every named tag.
func KnownTypes() []EventType {
	out := make([]EventType, 0, len(known))
	for t := range known {
		out = append(out, t)
	}
	return out
}
