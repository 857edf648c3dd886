// Package events defines the typed records the handlers produce from tokens.
package events

import (
	"github.com/go-go-golems/apexlog/pkg/tokenizer"
)

// RootID is reserved for the synthetic root; real ids start at 1.
const RootID int64 = 0

// RootType tags the synthetic root event.
const RootType tokenizer.EventType = "ROOT"

// Event is one parsed log event. Everything except Duration is fixed once the
// handler returns; Duration is back-filled when the matching exit is seen.
type Event struct {
	ID              int64               `json:"id"`
	ParentID        int64               `json:"parentId"`
	Type            tokenizer.EventType `json:"type"`
	Timestamp       int64               `json:"timestamp"`
	WallClockMillis int64               `json:"wallClockMillis,omitempty"`
	Line            int                 `json:"line"`
	SourceLine      int                 `json:"sourceLine,omitempty"`
	Namespace       string              `json:"namespace,omitempty"`
	Duration        *int64              `json:"duration,omitempty"`
	Data            Detail              `json:"data,omitempty"`
}

// NewRoot returns the sentinel that sits at the bottom of every stack.
func NewRoot() *Event {
	return &Event{ID: RootID, ParentID: RootID, Type: RootType}
}

func (e *Event) IsRoot() bool {
	return e != nil && e.ID == RootID && e.Type == RootType
}

// HasDuration reports whether an exit has closed this event.
func (e *Event) HasDuration() bool {
	return e.Duration != nil
}

// DurationNanos returns the duration or 0 when none was computed.
func (e *Event) DurationNanos() int64 {
	if e.Duration == nil {
		return 0
	}
	return *e.Duration
}

// SetDuration records end-start when start precedes end. It returns whether a
// duration was recorded.
func (e *Event) SetDuration(end int64) bool {
	if e.Timestamp >= end {
		return false
	}
	d := end - e.Timestamp
	e.Duration = &d
	return true
}
