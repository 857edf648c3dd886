// Package parsectx holds the mutable state shared by the handlers during a
// single parse. A Context belongs to exactly one parse call.
package parsectx

import (
	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/rs/zerolog/log"
)

type Context struct {
	lastID    int64
	stack     *Stack
	namespace string
	last      *events.Event
	closed    *events.Event

	underflows int64
}

func New() *Context {
	return &Context{stack: NewStack(events.NewRoot())}
}

// NextID returns 1, 2, 3, ... ; 0 belongs to the synthetic root.
func (c *Context) NextID() int64 {
	c.lastID++
	return c.lastID
}

// CurrentParent is the id of the innermost open entry.
func (c *Context) CurrentParent() int64 {
	return c.stack.Top().ID
}

func (c *Context) Namespace() string { return c.namespace }

func (c *Context) SetNamespace(ns string) { c.namespace = ns }

func (c *Context) Last() *events.Event { return c.last }

func (c *Context) Depth() int { return c.stack.Depth() }

// Underflows counts exits that arrived with only the sentinel on the stack.
func (c *Context) Underflows() int64 { return c.underflows }

// Push opens e as the current parent.
func (c *Context) Push(e *events.Event) {
	c.stack.Push(e)
}

// Pop closes the innermost open entry for exit. See Stack.Pop for matching.
func (c *Context) Pop(exit *events.Event) (*events.Event, bool) {
	closed, ok := c.stack.Pop(exit)
	c.closed = closed
	if !ok {
		c.underflows++
		log.Debug().Int("line", exit.Line).Str("type", string(exit.Type)).Msg("exit without open entry")
	}
	return closed, ok
}

// Emit records e as the last event.
func (c *Context) Emit(e *events.Event) {
	c.last = e
}

// TakeClosed returns the entry closed by the most recent Pop, once.
func (c *Context) TakeClosed() *events.Event {
	closed := c.closed
	c.closed = nil
	return closed
}
