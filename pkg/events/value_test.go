package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	cases := []struct {
		raw  string
		kind ValueKind
	}{
		{"null", ValueNull},
		{"true", ValueBoolean},
		{"false", ValueBoolean},
		{"42", ValueInteger},
		{"-7", ValueInteger},
		{"3.14", ValueDecimal},
		{"1e5", ValueDecimal},
		{"99999999999999999999", ValueDecimal},
		{`{"a":1}`, ValueJSON},
		{`[1,2,3]`, ValueJSON},
		{`{Id=001, Name=Acme}`, ValueString},
		{`"quoted"`, ValueString},
		{"hello", ValueString},
		{"", ValueString},
	}
	for _, c := range cases {
		v := ParseValue(c.raw)
		require.Equal(t, c.kind, v.Kind, "raw=%q", c.raw)
		require.Equal(t, c.raw, v.Raw)
	}

	require.True(t, ParseValue("true").Bool)
	require.Equal(t, int64(42), ParseValue("42").Int)
	require.InDelta(t, 3.14, ParseValue("3.14").Decimal, 1e-9)
	require.Equal(t, "quoted", ParseValue(`"quoted"`).String)
	require.Equal(t, json.RawMessage(`{"a":1}`), ParseValue(`{"a":1}`).JSON)
}

func TestRoleOf(t *testing.T) {
	require.Equal(t, Entry, RoleOf("METHOD_ENTRY"))
	require.Equal(t, Exit, RoleOf("METHOD_EXIT"))
	require.Equal(t, Entry, RoleOf("ENTERING_MANAGED_PKG"))
	require.Equal(t, Entry, RoleOf("SYSTEM_CONSTRUCTOR_ENTRY"))
	require.Equal(t, Exit, RoleOf("FLOW_ELEMENT_END"))
	require.Equal(t, Neutral, RoleOf("USER_DEBUG"))
	require.Equal(t, Neutral, RoleOf("EXECUTION_STARTED"))

	entry, ok := EntryFor("DML_END")
	require.True(t, ok)
	require.Equal(t, "DML_BEGIN", string(entry))
}

func TestSetDuration(t *testing.T) {
	e := &Event{ID: 1, Timestamp: 100}
	require.False(t, e.SetDuration(100))
	require.False(t, e.HasDuration())
	require.True(t, e.SetDuration(350))
	require.Equal(t, int64(250), e.DurationNanos())
}
