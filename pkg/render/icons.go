package render

import (
	"github.com/go-go-golems/apexlog/pkg/events"
)

const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "⚠"
	IconOpen    = "○"
	IconBullet  = "•"
)

// EventIcon marks closed entries, entries left open and failures.
func EventIcon(e *events.Event) string {
	switch d := e.Data.(type) {
	case events.Exception:
		return IconError
	case events.Validation:
		if d.Passed != nil && !*d.Passed {
			return IconError
		}
	}
	if events.RoleOf(e.Type) == events.Entry {
		if e.HasDuration() {
			return IconSuccess
		}
		return IconOpen
	}
	return IconBullet
}
