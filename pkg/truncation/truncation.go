// Package truncation decides whether a log was cut short and how much the
// parse result can be trusted.
package truncation

import (
	"fmt"
	"strings"

	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/tokenizer"
)

type Type string

const (
	SizeLimit Type = "size-limit"
	LineLimit Type = "line-limit"
	Timeout   Type = "timeout"
	Unknown   Type = "unknown"
)

const (
	// DefaultSizeCeilingBytes is the platform's hard debug log size cap.
	DefaultSizeCeilingBytes int64 = 20 * 1024 * 1024
	DefaultThresholdPercent       = 95.0
)

type marker struct {
	text string
	typ  Type
}

var markers = []marker{
	{"MAXIMUM DEBUG LOG SIZE REACHED", SizeLimit},
	{"Maximum Debug Log Size Reached", SizeLimit},
	{"*** Skipped", SizeLimit},
	{"MAXIMUM LINES REACHED", LineLimit},
	{"lines skipped", LineLimit},
	{"Request timed out", Timeout},
	{"Maximum CPU time on the Salesforce servers", Timeout},
	{"Apex CPU time limit exceeded", Timeout},
}

type Options struct {
	SizeCeilingBytes int64   `yaml:"size_ceiling_bytes,omitempty"`
	ThresholdPercent float64 `yaml:"size_threshold_percent,omitempty"`
}

func (o Options) withDefaults() Options {
	if o.SizeCeilingBytes <= 0 {
		o.SizeCeilingBytes = DefaultSizeCeilingBytes
	}
	if o.ThresholdPercent <= 0 || o.ThresholdPercent > 100 {
		o.ThresholdPercent = DefaultThresholdPercent
	}
	return o
}

// Info describes a truncation verdict.
type Info struct {
	IsTruncated         bool   `json:"isTruncated"`
	Type                Type   `json:"type,omitempty"`
	Reason              string `json:"reason,omitempty"`
	Marker              string `json:"marker,omitempty"`
	LastCompleteEventID int64  `json:"lastCompleteEventId,omitempty"`
	LastCompleteLine    int    `json:"lastCompleteLine,omitempty"`
	UnclosedEntries     int    `json:"unclosedEntries"`
	BytesRead           int64  `json:"bytesRead"`
	SizeCeilingBytes    int64  `json:"sizeCeilingBytes"`
}

// Tracker collects the evidence incrementally so that streaming parses stay
// constant in memory.
type Tracker struct {
	opts Options

	bytes      int64
	marker     *marker
	markerLine int

	sawExecStart  bool
	sawExecFinish bool
	sawUnitStart  bool
	sawUnitFinish bool

	lastComplete *events.Event
}

func NewTracker(opts Options) *Tracker {
	return &Tracker{opts: opts.withDefaults()}
}

// ObserveLine scans one input line for platform truncation markers. size is
// the number of input bytes the line took, line ending included.
func (t *Tracker) ObserveLine(lineNo int, line string, size int64) {
	t.bytes += size
	if t.marker != nil {
		return
	}
	for i := range markers {
		if strings.Contains(line, markers[i].text) {
			t.marker = &markers[i]
			t.markerLine = lineNo
			return
		}
	}
}

func (t *Tracker) ObserveEvent(ev *events.Event) {
	exec := ev.Type == tokenizer.ExecutionStarted || ev.Type == tokenizer.ExecutionFinished
	switch {
	case events.IsStart(ev.Type) && exec:
		t.sawExecStart = true
	case events.IsStart(ev.Type):
		t.sawUnitStart = true
	case events.IsTerminal(ev.Type) && exec:
		t.sawExecFinish = true
	case events.IsTerminal(ev.Type):
		t.sawUnitFinish = true
	}
}

// ObserveClosed records an entry whose duration has just been computed. The
// last complete unit is the latest such entry in log order.
func (t *Tracker) ObserveClosed(entry *events.Event) {
	if entry == nil || !entry.HasDuration() {
		return
	}
	if t.lastComplete == nil || entry.ID > t.lastComplete.ID {
		t.lastComplete = entry
	}
}

func (t *Tracker) missingTerminal() bool {
	if t.sawExecStart {
		return !t.sawExecFinish
	}
	if t.sawUnitStart {
		return !t.sawUnitFinish
	}
	return false
}

func (t *Tracker) threshold() int64 {
	return int64(float64(t.opts.SizeCeilingBytes) * t.opts.ThresholdPercent / 100)
}

// Assess returns the verdict. unclosed is the number of entries still open at
// the end of input.
func (t *Tracker) Assess(unclosed int) Info {
	info := Info{
		UnclosedEntries:  unclosed,
		BytesRead:        t.bytes,
		SizeCeilingBytes: t.opts.SizeCeilingBytes,
	}

	switch {
	case t.marker != nil:
		info.IsTruncated = true
		info.Type = t.marker.typ
		info.Marker = t.marker.text
		info.Reason = fmt.Sprintf("platform truncation marker %q at line %d", t.marker.text, t.markerLine)
	case t.bytes >= t.threshold():
		info.IsTruncated = true
		info.Type = SizeLimit
		info.Reason = fmt.Sprintf("log size %d bytes reached %.0f%% of the %d byte ceiling",
			t.bytes, t.opts.ThresholdPercent, t.opts.SizeCeilingBytes)
	case t.missingTerminal():
		info.IsTruncated = true
		info.Type = Unknown
		info.Reason = "log has a start event but no terminal event"
	default:
		return info
	}

	if t.lastComplete != nil {
		info.LastCompleteEventID = t.lastComplete.ID
		info.LastCompleteLine = t.lastComplete.Line
	}
	return info
}
