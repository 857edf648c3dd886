// Package eventjs runs user JavaScript filters and transforms over parsed
// events.
package eventjs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dop251/goja"
	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/pkg/errors"
)

var ErrNoRegister = errors.New("eventjs: script did not call register()")
var ErrHookTimeout = errors.New("eventjs: js hook timeout")

// Module is one loaded script. It is not safe for concurrent use; goja
// runtimes are single-threaded.
type Module struct {
	vm     *goja.Runtime
	opts   options
	config *goja.Object

	scriptPath string

	name string
	tag  string

	filterFn    goja.Callable
	transformFn goja.Callable
	initFn      goja.Callable
	shutdownFn  goja.Callable
	onErrorFn   goja.Callable

	state *goja.Object
	stats Stats
}

type options struct {
	hookTimeout time.Duration
	logDate     time.Time
}

func ParseOptions(opts Options) (options, error) {
	var out options
	if opts.HookTimeout != "" {
		d, err := time.ParseDuration(opts.HookTimeout)
		if err != nil {
			return options{}, errors.Wrap(err, "parse --js-timeout")
		}
		out.hookTimeout = d
	}
	if strings.TrimSpace(opts.LogDate) != "" {
		t, err := ParseLogDate(opts.LogDate)
		if err != nil {
			return options{}, err
		}
		out.logDate = t
	}
	return out, nil
}

// ParseLogDate reads a calendar date in any layout dateparse understands and
// truncates it to midnight UTC.
func ParseLogDate(s string) (time.Time, error) {
	t, err := dateparse.ParseAny(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse log date %q", s)
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func LoadFromFile(ctx context.Context, scriptPath string, opts Options) (*Module, error) {
	b, err := os.ReadFile(scriptPath)
	if err != nil {
		return nil, errors.Wrap(err, "read script")
	}
	return Load(ctx, scriptPath, string(b), opts)
}

// Load compiles and runs src. The script must call register() exactly once
// with at least a filter or a transform hook.
func Load(ctx context.Context, scriptPath string, src string, opts Options) (*Module, error) {
	_ = ctx

	parsedOpts, err := ParseOptions(opts)
	if err != nil {
		return nil, err
	}

	m := &Module{
		vm:         goja.New(),
		opts:       parsedOpts,
		scriptPath: scriptPath,
	}

	enableConsole(m.vm)
	m.state = m.vm.NewObject()

	if err := m.vm.Set("register", func(config goja.Value) error {
		if m.config != nil {
			return errors.New("register() called more than once")
		}
		if goja.IsNull(config) || goja.IsUndefined(config) {
			return errors.New("register(config) requires a config object")
		}
		m.config = config.ToObject(m.vm)
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "set register")
	}

	if _, err := m.vm.RunScript("eventjs:helpers", helpersJS); err != nil {
		return nil, errors.Wrap(err, "load helpers")
	}
	if err := injectGoHelpers(m); err != nil {
		return nil, err
	}

	prog, err := goja.Compile(scriptPath, src, false)
	if err != nil {
		return nil, errors.Wrap(err, "compile script")
	}
	if _, err := m.vm.RunProgram(prog); err != nil {
		return nil, errors.Wrap(err, "run script")
	}

	if m.config == nil {
		return nil, ErrNoRegister
	}

	nameVal := m.config.Get("name")
	if isNullish(nameVal) || strings.TrimSpace(nameVal.String()) == "" {
		return nil, errors.New("register({ name: string, ... }): name is required")
	}
	m.name = nameVal.String()
	m.tag = m.name
	if tagVal := m.config.Get("tag"); !isNullish(tagVal) && strings.TrimSpace(tagVal.String()) != "" {
		m.tag = tagVal.String()
	}

	if fn, ok := goja.AssertFunction(m.config.Get("filter")); ok {
		m.filterFn = fn
	}
	if fn, ok := goja.AssertFunction(m.config.Get("transform")); ok {
		m.transformFn = fn
	}
	if m.filterFn == nil && m.transformFn == nil {
		return nil, errors.New("register({ filter, transform }): at least one hook is required")
	}
	if fn, ok := goja.AssertFunction(m.config.Get("init")); ok {
		m.initFn = fn
	}
	if fn, ok := goja.AssertFunction(m.config.Get("shutdown")); ok {
		m.shutdownFn = fn
	}
	if fn, ok := goja.AssertFunction(m.config.Get("onError")); ok {
		m.onErrorFn = fn
	}

	if m.initFn != nil {
		ctxObj := m.buildContext("init", nil)
		if _, err := m.callHook(m.initFn, ctxObj); err != nil {
			m.stats.HookErrors++
			m.callOnError("init", err, goja.Undefined(), ctxObj)
		}
	}

	return m, nil
}

func (m *Module) Name() string { return m.name }

func (m *Module) Tag() string {
	if strings.TrimSpace(m.tag) == "" {
		return m.name
	}
	return m.tag
}

func (m *Module) ScriptPath() string { return m.scriptPath }

func (m *Module) Stats() Stats { return m.stats }

func (m *Module) Info() ModuleInfo {
	return ModuleInfo{
		Name:         m.Name(),
		Tag:          m.Tag(),
		HasFilter:    m.filterFn != nil,
		HasTransform: m.transformFn != nil,
		HasInit:      m.initFn != nil,
		HasShutdown:  m.shutdownFn != nil,
		HasOnError:   m.onErrorFn != nil,
	}
}

func (m *Module) Close(ctx context.Context) error {
	_ = ctx
	if m.shutdownFn == nil {
		return nil
	}
	ctxObj := m.buildContext("shutdown", nil)
	if _, err := m.callHook(m.shutdownFn, ctxObj); err != nil {
		m.stats.HookErrors++
		m.callOnError("shutdown", err, goja.Undefined(), ctxObj)
	}
	return nil
}

// ProcessEvent runs filter then transform on ev. A nil result means the event
// was dropped. Hook failures drop the event and are reported as records, not
// errors; the returned error is reserved for failures outside the script.
func (m *Module) ProcessEvent(ctx context.Context, ev *events.Event) (*Result, *ErrorRecord, error) {
	_ = ctx
	if ev == nil {
		return nil, nil, nil
	}
	m.stats.EventsProcessed++

	obj, err := m.eventObject(ev)
	if err != nil {
		return nil, nil, err
	}

	if m.filterFn != nil {
		ctxObj := m.buildContext("filter", ev)
		keep, err := m.callHook(m.filterFn, obj, ctxObj)
		if err != nil {
			return nil, m.hookFailed("filter", err, obj, ctxObj, ev), nil
		}
		if !keep.ToBoolean() {
			m.stats.EventsDropped++
			return nil, nil, nil
		}
	}

	res := &Result{Event: ev}
	if m.transformFn != nil {
		ctxObj := m.buildContext("transform", ev)
		out, err := m.callHook(m.transformFn, obj, ctxObj)
		if err != nil {
			return nil, m.hookFailed("transform", err, obj, ctxObj, ev), nil
		}
		if isNullish(out) {
			m.stats.EventsDropped++
			return nil, nil, nil
		}
		if err := m.annotate(res, out); err != nil {
			return nil, m.hookFailed("transform", err, out, ctxObj, ev), nil
		}
	}

	m.stats.EventsKept++
	return res, nil, nil
}

func (m *Module) hookFailed(hook string, err error, payload goja.Value, ctxObj *goja.Object, ev *events.Event) *ErrorRecord {
	m.stats.HookErrors++
	m.stats.EventsDropped++
	m.callOnError(hook, err, payload, ctxObj)
	return m.newErrorRecord(hook, err, ev)
}

// eventObject hands the event to JS as a plain object shaped like its JSON
// encoding, so scripts see the same field names as ndjson consumers.
func (m *Module) eventObject(ev *events.Event) (goja.Value, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, errors.Wrap(err, "encode event")
	}
	var plain map[string]any
	if err := json.Unmarshal(b, &plain); err != nil {
		return nil, errors.Wrap(err, "decode event")
	}
	obj := m.vm.NewObject()
	for k, v := range plain {
		_ = obj.Set(k, v)
	}
	if !m.opts.logDate.IsZero() && ev.WallClockMillis > 0 {
		t := m.opts.logDate.Add(time.Duration(ev.WallClockMillis) * time.Millisecond)
		_ = obj.Set("time", m.newDate(t))
	}
	return obj, nil
}

// reservedKeys are event fields; anything else a transform sets on the
// object becomes an annotation.
var reservedKeys = map[string]bool{
	"id": true, "parentId": true, "type": true, "timestamp": true,
	"wallClockMillis": true, "line": true, "sourceLine": true,
	"namespace": true, "duration": true, "data": true, "time": true,
	"tags": true, "fields": true,
}

func (m *Module) annotate(res *Result, v goja.Value) error {
	if s, ok := v.Export().(string); ok {
		res.Tags = appendTag(res.Tags, s)
		return nil
	}
	if b, ok := v.Export().(bool); ok {
		if !b {
			return errors.New("transform returned false; return null to drop an event")
		}
		return nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return errors.Errorf("transform must return an object, string or null, got %T", v.Export())
	}

	if tagsVal := obj.Get("tags"); !isNullish(tagsVal) {
		if arr, ok := tagsVal.Export().([]any); ok {
			for _, it := range arr {
				if s, ok := it.(string); ok {
					res.Tags = appendTag(res.Tags, s)
				}
			}
		}
	}

	fields := map[string]any{}
	if fieldsVal := obj.Get("fields"); !isNullish(fieldsVal) {
		if m2, ok := fieldsVal.Export().(map[string]any); ok {
			for k, v := range m2 {
				fields[k] = v
			}
		}
	}
	for _, k := range obj.Keys() {
		if reservedKeys[k] {
			continue
		}
		if _, exists := fields[k]; exists {
			continue
		}
		fields[k] = obj.Get(k).Export()
	}
	if len(fields) > 0 {
		res.Fields = fields
	}
	return nil
}

func appendTag(tags []string, tag string) []string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return tags
	}
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}

func (m *Module) buildContext(hook string, ev *events.Event) *goja.Object {
	obj := m.vm.NewObject()
	_ = obj.Set("hook", hook)
	_ = obj.Set("module", m.name)
	_ = obj.Set("state", m.state)
	if ev != nil {
		_ = obj.Set("line", ev.Line)
	}
	return obj
}

func (m *Module) newDate(t time.Time) goja.Value {
	ctor := m.vm.Get("Date")
	o, err := m.vm.New(ctor, m.vm.ToValue(t.UnixMilli()))
	if err != nil {
		return goja.Undefined()
	}
	return o
}

func (m *Module) callHook(fn goja.Callable, args ...goja.Value) (goja.Value, error) {
	if fn == nil {
		return goja.Undefined(), nil
	}

	if timeout := m.opts.hookTimeout; timeout > 0 {
		timer := time.AfterFunc(timeout, func() {
			m.vm.Interrupt(ErrHookTimeout)
		})
		defer timer.Stop()
		defer m.vm.ClearInterrupt()
	}

	v, err := fn(goja.Undefined(), args...)
	if err != nil {
		if isInterruptedByTimeout(err) {
			m.stats.HookTimeouts++
		}
		return nil, err
	}
	return v, nil
}

func (m *Module) callOnError(hook string, err error, payload goja.Value, ctxObj *goja.Object) {
	if m.onErrorFn == nil {
		return
	}
	_ = ctxObj.Set("hook", hook)
	_, _ = m.onErrorFn(goja.Undefined(), m.vm.ToValue(err.Error()), payload, ctxObj)
}

func enableConsole(vm *goja.Runtime) {
	obj := vm.NewObject()
	_ = obj.Set("log", func(call goja.FunctionCall) goja.Value {
		_, _ = fmt.Fprintln(os.Stderr, joinArgs(call.Arguments)...)
		return goja.Undefined()
	})
	_ = obj.Set("warn", func(call goja.FunctionCall) goja.Value {
		_, _ = fmt.Fprintln(os.Stderr, joinArgs(call.Arguments)...)
		return goja.Undefined()
	})
	_ = obj.Set("error", func(call goja.FunctionCall) goja.Value {
		_, _ = fmt.Fprintln(os.Stderr, joinArgs(call.Arguments)...)
		return goja.Undefined()
	})
	_ = vm.Set("console", obj)
}

func joinArgs(args []goja.Value) []any {
	out := make([]any, 0, len(args))
	for _, a := range args {
		out = append(out, a.Export())
	}
	return out
}

func isNullish(v goja.Value) bool {
	if v == nil {
		return true
	}
	return goja.IsUndefined(v) || goja.IsNull(v)
}

func isInterruptedByTimeout(err error) bool {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if v, ok := interrupted.Value().(error); ok && errors.Is(v, ErrHookTimeout) {
			return true
		}
	}
	return errors.Is(err, ErrHookTimeout)
}

func (m *Module) newErrorRecord(hook string, err error, ev *events.Event) *ErrorRecord {
	rec := &ErrorRecord{
		Module:  m.Name(),
		Tag:     m.Tag(),
		Hook:    hook,
		Timeout: isInterruptedByTimeout(err),
	}
	if err != nil {
		rec.Message = err.Error()
	}
	if ev != nil {
		rec.EventID = ev.ID
		rec.Line = ev.Line
	}
	return rec
}

// injectGoHelpers adds apex.parseTimestamp(value, layouts?), which returns a
// Date or null. Layouts are Go time.Parse layouts tried before dateparse.
func injectGoHelpers(m *Module) error {
	apexVal := m.vm.Get("apex")
	if isNullish(apexVal) {
		return errors.New("eventjs: helpers did not define globalThis.apex")
	}
	apexObj := apexVal.ToObject(m.vm)

	if err := apexObj.Set("parseTimestamp", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 || isNullish(call.Arguments[0]) {
			return goja.Null()
		}
		var layouts []string
		if len(call.Arguments) >= 2 && !isNullish(call.Arguments[1]) {
			if arr, ok := call.Arguments[1].Export().([]any); ok {
				for _, it := range arr {
					if s, ok := it.(string); ok && strings.TrimSpace(s) != "" {
						layouts = append(layouts, s)
					}
				}
			}
		}
		t, ok := parseTimestamp(call.Arguments[0].Export(), layouts)
		if !ok {
			return goja.Null()
		}
		return m.newDate(t.UTC())
	}); err != nil {
		return errors.Wrap(err, "set apex.parseTimestamp")
	}

	if err := apexObj.Set("logDate", func(goja.FunctionCall) goja.Value {
		if m.opts.logDate.IsZero() {
			return goja.Null()
		}
		return m.newDate(m.opts.logDate)
	}); err != nil {
		return errors.Wrap(err, "set apex.logDate")
	}
	return nil
}

func parseTimestamp(v any, layouts []string) (time.Time, bool) {
	fromNumber := func(i int64) time.Time {
		// Values below 1e12 are taken as seconds.
		if i > 0 && i < 1_000_000_000_000 {
			return time.Unix(i, 0).UTC()
		}
		return time.UnixMilli(i).UTC()
	}

	switch vv := v.(type) {
	case time.Time:
		return vv, true
	case int64:
		return fromNumber(vv), true
	case float64:
		return fromNumber(int64(vv)), true
	case string:
		s := strings.TrimSpace(vv)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromNumber(i), true
		}
		t, err := dateparse.ParseAny(s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}
