package eventjs

import "github.com/go-go-golems/apexlog/pkg/events"

// Result is an event that survived a module's filter, with whatever the
// transform hook attached to it.
type Result struct {
	Event  *events.Event  `json:"event"`
	Tags   []string       `json:"tags,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

type Stats struct {
	EventsProcessed int64 `json:"eventsProcessed"`
	EventsKept      int64 `json:"eventsKept"`
	EventsDropped   int64 `json:"eventsDropped"`
	HookErrors      int64 `json:"hookErrors"`
	HookTimeouts    int64 `json:"hookTimeouts"`
}

type Options struct {
	// HookTimeout is a time.ParseDuration string; empty means no limit.
	HookTimeout string
	// LogDate is the calendar date of the log, as accepted by dateparse. When
	// set, each event exposes its wall-clock time as a Date.
	LogDate string
}

type ModuleInfo struct {
	Name         string
	Tag          string
	HasFilter    bool
	HasTransform bool
	HasInit      bool
	HasShutdown  bool
	HasOnError   bool
}

type ErrorRecord struct {
	Module  string `json:"module"`
	Tag     string `json:"tag"`
	Hook    string `json:"hook"`
	EventID int64  `json:"eventId"`
	Line    int    `json:"line"`
	Timeout bool   `json:"timeout"`
	Message string `json:"message"`
}
