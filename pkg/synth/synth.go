// Package synth writes synthetic Apex debug logs for tests and demos.
package synth

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
)

type Options struct {
	// Units is the number of top-level method calls.
	Units int
	// Depth is how deep each call nests.
	Depth int
	// Step is the nanosecond gap between consecutive lines.
	Step int64
	// Interval sleeps between lines; useful when piping into a streaming parse.
	Interval time.Duration
	// TruncateAfter stops after this many event lines and appends the
	// platform size marker; 0 writes the complete log.
	TruncateAfter int
	// OmitFinish leaves out the terminal EXECUTION_FINISHED line.
	OmitFinish bool
}

// Write emits a header, then Units nested calls each containing a debug
// statement and a query at the innermost level.
func Write(w io.Writer, opts Options) error {
	if opts.Step <= 0 {
		opts.Step = 1000
	}
	if opts.Depth <= 0 {
		opts.Depth = 1
	}
	g := &gen{w: bufio.NewWriter(w), opts: opts}

	g.raw("59.0 APEX_CODE,FINEST;APEX_PROFILING,INFO;DB,INFO")
	g.event("EXECUTION_STARTED")
	g.event("CODE_UNIT_STARTED|[EXTERNAL]|execute_anonymous_apex")
	for u := 0; u < opts.Units && !g.stopped; u++ {
		g.call(u, 0)
	}
	if !g.stopped {
		g.event("CODE_UNIT_FINISHED|execute_anonymous_apex")
		if !opts.OmitFinish {
			g.event("EXECUTION_FINISHED")
		}
	}
	if g.err != nil {
		return g.err
	}
	return errors.Wrap(g.w.Flush(), "flush synthetic log")
}

type gen struct {
	w       *bufio.Writer
	opts    Options
	nanos   int64
	events  int
	stopped bool
	err     error
}

func (g *gen) call(unit, depth int) {
	name := fmt.Sprintf("Unit%d.level%d()", unit, depth)
	g.event(fmt.Sprintf("METHOD_ENTRY|[%d]|01p000000000001|%s", 10+depth, name))
	if depth+1 < g.opts.Depth {
		g.call(unit, depth+1)
	} else {
		g.event(fmt.Sprintf("USER_DEBUG|[%d]|DEBUG|unit %d reached depth %d", 20+depth, unit, depth))
		g.event(fmt.Sprintf("SOQL_EXECUTE_BEGIN|[%d]|Aggregations:0|SELECT Id FROM Account LIMIT %d", 30+depth, unit+1))
		g.event(fmt.Sprintf("SOQL_EXECUTE_END|[%d]|Rows:%d", 30+depth, unit+1))
	}
	g.event(fmt.Sprintf("METHOD_EXIT|[%d]|01p000000000001|%s", 10+depth, name))
}

func (g *gen) event(body string) {
	if g.stopped || g.err != nil {
		return
	}
	if g.opts.TruncateAfter > 0 && g.events >= g.opts.TruncateAfter {
		g.raw("*** Skipped 1048576 bytes of detailed log")
		g.raw("MAXIMUM DEBUG LOG SIZE REACHED")
		g.stopped = true
		return
	}
	g.events++
	g.nanos += g.opts.Step
	ms := g.nanos / int64(time.Millisecond)
	ts := fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3_600_000%24, ms/60_000%60, ms/1000%60, ms%1000)
	g.raw(fmt.Sprintf("%s (%d)|%s", ts, g.nanos, body))
	if g.opts.Interval > 0 {
		_ = g.w.Flush()
		time.Sleep(g.opts.Interval)
	}
}

func (g *gen) raw(line string) {
	if g.err != nil {
		return
	}
	if _, err := g.w.WriteString(line + "\n"); err != nil {
		g.err = errors.Wrap(err, "write synthetic log")
	}
}

// Events is the number of event lines a complete log with these options has.
func Events(opts Options) int {
	depth := opts.Depth
	if depth <= 0 {
		depth = 1
	}
	n := 3 // EXECUTION_STARTED, CODE_UNIT_STARTED, CODE_UNIT_FINISHED
	if !opts.OmitFinish {
		n++
	}
	return n + opts.Units*(2*depth+3)
}
