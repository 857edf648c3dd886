package events

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

type ValueKind string

const (
	ValueNull    ValueKind = "null"
	ValueBoolean ValueKind = "boolean"
	ValueInteger ValueKind = "integer"
	ValueDecimal ValueKind = "decimal"
	ValueString  ValueKind = "string"
	ValueJSON    ValueKind = "json"
)

// Value is the tagged union a variable assignment carries. Only the field
// matching Kind is meaningful; Raw always holds the source text.
type Value struct {
	Kind    ValueKind       `json:"kind"`
	Bool    bool            `json:"bool,omitempty"`
	Int     int64           `json:"int,omitempty"`
	Decimal float64         `json:"decimal,omitempty"`
	String  string          `json:"string,omitempty"`
	JSON    json.RawMessage `json:"json,omitempty"`
	Raw     string          `json:"raw"`
}

var (
	integerRe = regexp.MustCompile(`^-?\d+$`)
	decimalRe = regexp.MustCompile(`^-?(\d+\.\d*|\.\d+)([eE][-+]?\d+)?$|^-?\d+[eE][-+]?\d+$`)
)

// ParseValue classifies raw by literal pattern only.
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	v := Value{Raw: raw}

	switch {
	case s == "null":
		v.Kind = ValueNull
	case s == "":
		v.Kind = ValueString
	case s == "true" || s == "false":
		v.Kind = ValueBoolean
		v.Bool = s == "true"
	case integerRe.MatchString(s):
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			v.Kind = ValueInteger
			v.Int = i
			break
		}
		f, _ := strconv.ParseFloat(s, 64)
		v.Kind = ValueDecimal
		v.Decimal = f
	case decimalRe.MatchString(s):
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			v.Kind = ValueString
			v.String = s
			break
		}
		v.Kind = ValueDecimal
		v.Decimal = f
	case (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")):
		if json.Valid([]byte(s)) {
			v.Kind = ValueJSON
			v.JSON = json.RawMessage(s)
			break
		}
		v.Kind = ValueString
		v.String = s
	case len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"':
		v.Kind = ValueString
		if uq, err := strconv.Unquote(s); err == nil {
			v.String = uq
		} else {
			v.String = s[1 : len(s)-1]
		}
	default:
		v.Kind = ValueString
		v.String = s
	}
	return v
}
