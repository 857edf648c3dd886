package eventjs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/tokenizer"
	"github.com/stretchr/testify/require"
)

func writeTempScript(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o644))
	return p
}

func debugEvent(id int64, level, msg string) *events.Event {
	return &events.Event{
		ID:   id,
		Type: tokenizer.UserDebug,
		Line: int(id) + 1,
		Data: events.Debug{Level: level, Message: msg},
	}
}

func TestModule_Filter_Transform(t *testing.T) {
	p := writeTempScript(t, t.TempDir(), "f.js", `
register({
  name: "debug-only",
  filter(event, ctx) { return apex.isType(event, "USER_DEBUG") && event.data.level !== "FINEST"; },
  transform(event, ctx) {
    event.loud = event.data.message.toUpperCase();
    return { tags: ["user", ""], fields: { line: ctx.line }, loud: event.loud };
  },
});
`)
	m, err := LoadFromFile(context.Background(), p, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(context.Background()) })

	res, rec, err := m.ProcessEvent(context.Background(), debugEvent(1, "DEBUG", "hi"))
	require.NoError(t, err)
	require.Nil(t, rec)
	require.NotNil(t, res)
	require.Equal(t, int64(1), res.Event.ID)
	require.Equal(t, []string{"user"}, res.Tags)
	require.Equal(t, "HI", res.Fields["loud"])
	require.EqualValues(t, 2, res.Fields["line"])

	res, rec, err = m.ProcessEvent(context.Background(), debugEvent(2, "FINEST", "quiet"))
	require.NoError(t, err)
	require.Nil(t, rec)
	require.Nil(t, res)

	st := m.Stats()
	require.Equal(t, int64(2), st.EventsProcessed)
	require.Equal(t, int64(1), st.EventsKept)
	require.Equal(t, int64(1), st.EventsDropped)
}

func TestModule_SeesDurationAndLogDate(t *testing.T) {
	p := writeTempScript(t, t.TempDir(), "slow.js", `
register({
  name: "slow",
  filter(event) { return apex.durationMs(event) >= 1; },
  transform(event) { return { hour: event.time.getUTCHours(), day: apex.logDate().getUTCDate() }; },
});
`)
	m, err := LoadFromFile(context.Background(), p, Options{LogDate: "2024-03-05"})
	require.NoError(t, err)

	ev := &events.Event{ID: 1, Type: tokenizer.MethodEntry, Timestamp: 0, WallClockMillis: (13*3600 + 5) * 1000}
	ev.SetDuration(2_000_000)
	res, rec, err := m.ProcessEvent(context.Background(), ev)
	require.NoError(t, err)
	require.Nil(t, rec)
	require.NotNil(t, res)
	require.EqualValues(t, 13, res.Fields["hour"])
	require.EqualValues(t, 5, res.Fields["day"])

	fast := &events.Event{ID: 2, Type: tokenizer.MethodEntry, Timestamp: 0}
	fast.SetDuration(10)
	res, _, err = m.ProcessEvent(context.Background(), fast)
	require.NoError(t, err)
	require.Nil(t, res)
}

func TestModule_RequiresHook(t *testing.T) {
	_, err := Load(context.Background(), "x.js", `register({ name: "x" });`, Options{})
	require.Error(t, err)

	_, err = Load(context.Background(), "x.js", `var a = 1;`, Options{})
	require.ErrorIs(t, err, ErrNoRegister)

	_, err = Load(context.Background(), "x.js", `register({ filter() { return true; } });`, Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "name is required")
}

func TestModule_Timeout(t *testing.T) {
	m, err := Load(context.Background(), "spin.js", `
register({
  name: "spin",
  filter(event, ctx) { while (true) {} },
  onError(err, payload, ctx) { ctx.state.failed = true; },
});
`, Options{HookTimeout: "10ms"})
	require.NoError(t, err)

	res, rec, err := m.ProcessEvent(context.Background(), debugEvent(1, "DEBUG", "x"))
	require.NoError(t, err)
	require.Nil(t, res)
	require.NotNil(t, rec)
	require.True(t, rec.Timeout)
	require.Equal(t, "filter", rec.Hook)
	require.Equal(t, int64(1), rec.EventID)

	st := m.Stats()
	require.Equal(t, int64(1), st.HookTimeouts)
	require.Equal(t, int64(1), st.HookErrors)
}

func TestParseTimestamp(t *testing.T) {
	got, ok := parseTimestamp("2024-03-05T10:11:12Z", nil)
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 3, 5, 10, 11, 12, 0, time.UTC), got.UTC())

	got, ok = parseTimestamp(int64(1_700_000_000), nil)
	require.True(t, ok)
	require.Equal(t, int64(1_700_000_000), got.Unix())

	got, ok = parseTimestamp("05/03/2024", []string{"02/01/2006"})
	require.True(t, ok)
	require.Equal(t, time.March, got.Month())

	_, ok = parseTimestamp("not a date", nil)
	require.False(t, ok)
}

func TestParseLogDate(t *testing.T) {
	d, err := ParseLogDate("2024-03-05T17:30:00Z")
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseLogDate("soon")
	require.Error(t, err)
}
