package events

// Detail is the type-specific payload of an event. The set of implementations
// is closed; switch on the concrete type.
type Detail interface {
	detail()
}

// Method covers method, constructor and their system equivalents.
type Method struct {
	ClassID     string `json:"classId,omitempty"`
	ClassName   string `json:"className,omitempty"`
	MethodName  string `json:"methodName"`
	Signature   string `json:"signature"`
	System      bool   `json:"system,omitempty"`
	Constructor bool   `json:"constructor,omitempty"`
}

type CodeUnitKind string

const (
	CodeUnitTrigger    CodeUnitKind = "trigger"
	CodeUnitValidation CodeUnitKind = "validation"
	CodeUnitWorkflow   CodeUnitKind = "workflow"
	CodeUnitFlow       CodeUnitKind = "flow"
	CodeUnitClass      CodeUnitKind = "class"
	CodeUnitAnonymous  CodeUnitKind = "anonymous"
	CodeUnitPage       CodeUnitKind = "page"
	CodeUnitOther      CodeUnitKind = "other"
)

type CodeUnit struct {
	Kind          CodeUnitKind `json:"kind"`
	Name          string       `json:"name"`
	EntityID      string       `json:"entityId,omitempty"`
	TriggerObject string       `json:"triggerObject,omitempty"`
	TriggerEvent  string       `json:"triggerEvent,omitempty"`
	Description   string       `json:"description,omitempty"`
}

type QueryLanguage string

const (
	SOQL QueryLanguage = "SOQL"
	SOSL QueryLanguage = "SOSL"
)

// Query is the begin side of a SOQL or SOSL execution.
type Query struct {
	Language     QueryLanguage `json:"language"`
	Aggregations int           `json:"aggregations"`
	Text         string        `json:"text"`
}

// QueryResult is the end side of a query execution.
type QueryResult struct {
	Language QueryLanguage `json:"language"`
	Rows     int           `json:"rows"`
}

// QueryPlan is parsed from SOQL_EXECUTE_EXPLAIN.
type QueryPlan struct {
	LeadingOperation   string  `json:"leadingOperation"`
	SObjectType        string  `json:"sobjectType,omitempty"`
	Cardinality        int64   `json:"cardinality"`
	SObjectCardinality int64   `json:"sobjectCardinality"`
	RelativeCost       float64 `json:"relativeCost"`
	Raw                string  `json:"raw"`
}

type DMLOperation string

const (
	DMLInsert   DMLOperation = "insert"
	DMLUpdate   DMLOperation = "update"
	DMLUpsert   DMLOperation = "upsert"
	DMLDelete   DMLOperation = "delete"
	DMLUndelete DMLOperation = "undelete"
	DMLMerge    DMLOperation = "merge"
)

type DML struct {
	Operation  DMLOperation `json:"operation"`
	ObjectType string       `json:"objectType,omitempty"`
	Rows       int          `json:"rows"`
}

// Limit is one "<name>: <used> out of <max>" reading.
type Limit struct {
	Name string `json:"name"`
	Used int64  `json:"used"`
	Max  int64  `json:"max"`
}

// LimitUsage covers LIMIT_USAGE and LIMIT_USAGE_FOR_NS.
type LimitUsage struct {
	Namespace string  `json:"namespace,omitempty"`
	Limits    []Limit `json:"limits"`
}

// Marker is an event that only matters for its position, e.g. the start of a
// cumulative limit block.
type Marker struct {
	Label string `json:"label,omitempty"`
}

type Exception struct {
	ExceptionType string `json:"exceptionType"`
	Message       string `json:"message"`
	Fatal         bool   `json:"fatal,omitempty"`
}

type Debug struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type Variable struct {
	Name    string `json:"name"`
	Value   Value  `json:"value"`
	Address string `json:"address,omitempty"`
}

type VariableScope struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Static bool   `json:"static,omitempty"`
}

type Heap struct {
	Bytes int64 `json:"bytes"`
}

type ManagedPackage struct {
	Namespace string `json:"namespace"`
}

type Validation struct {
	RuleID   string `json:"ruleId,omitempty"`
	RuleName string `json:"ruleName,omitempty"`
	Formula  string `json:"formula,omitempty"`
	Values   string `json:"values,omitempty"`
	Passed   *bool  `json:"passed,omitempty"`
	Message  string `json:"message,omitempty"`
}

type Flow struct {
	InterviewID string `json:"interviewId,omitempty"`
	FlowName    string `json:"flowName,omitempty"`
	ElementType string `json:"elementType,omitempty"`
	ElementName string `json:"elementName,omitempty"`
	Variable    string `json:"variable,omitempty"`
	Value       string `json:"value,omitempty"`
	Message     string `json:"message,omitempty"`
}

type Callout struct {
	Endpoint   string `json:"endpoint,omitempty"`
	Method     string `json:"method,omitempty"`
	Status     string `json:"status,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Raw        string `json:"raw"`
}

type UserInfo struct {
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Generic keeps the raw fields of events that need no dedicated grammar.
type Generic struct {
	Fields []string `json:"fields,omitempty"`
}

func (Method) detail()         {}
func (CodeUnit) detail()       {}
func (Query) detail()          {}
func (QueryResult) detail()    {}
func (QueryPlan) detail()      {}
func (DML) detail()            {}
func (LimitUsage) detail()     {}
func (Marker) detail()         {}
func (Exception) detail()      {}
func (Debug) detail()          {}
func (Variable) detail()       {}
func (VariableScope) detail()  {}
func (Heap) detail()           {}
func (ManagedPackage) detail() {}
func (Validation) detail()     {}
func (Flow) detail()           {}
func (Callout) detail()        {}
func (UserInfo) detail()       {}
func (Generic) detail()        {}
