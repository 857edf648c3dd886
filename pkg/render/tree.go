// Package render prints call trees and parse summaries for terminals.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/parser"
	"github.com/go-go-golems/apexlog/pkg/tree"
	"github.com/pkg/errors"
)

type TreeOptions struct {
	// MaxDepth stops descending below this depth; 0 means unlimited.
	MaxDepth int
	// HideExits leaves out exit events; their entries already show the
	// duration.
	HideExits bool
	// SlowThreshold highlights entries at least this long.
	SlowThreshold time.Duration
	// MaxLabel truncates labels; 0 means 80.
	MaxLabel int
	// Theme overrides the theme detected from the writer. Callers that
	// buffer output pass one built for the underlying terminal.
	Theme *Theme
}

// Tree writes root as an indented tree, one event per line.
func Tree(w io.Writer, root *tree.Node, opts TreeOptions) error {
	th := themeFor(w, opts.Theme)
	if opts.MaxLabel <= 0 {
		opts.MaxLabel = 80
	}

	var werr error
	write := func(s string) {
		if werr == nil {
			_, werr = io.WriteString(w, s)
		}
	}

	var visit func(n *tree.Node, prefix string, last bool, depth int)
	visit = func(n *tree.Node, prefix string, last bool, depth int) {
		line := prefix
		childPrefix := prefix
		if depth > 0 {
			if last {
				line += th.Branch.Render("└─ ")
				childPrefix += "   "
			} else {
				line += th.Branch.Render("├─ ")
				childPrefix += th.Branch.Render("│") + "  "
			}
		}
		write(line + formatEvent(th, n.Event, opts) + "\n")

		if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
			if len(n.Children) > 0 {
				write(childPrefix + th.Dim.Render(fmt.Sprintf("… %d more", len(n.Children))) + "\n")
			}
			return
		}
		children := visibleChildren(n, opts)
		for i, c := range children {
			visit(c, childPrefix, i == len(children)-1, depth+1)
		}
	}

	if root == nil {
		return nil
	}
	visit(root, "", true, 0)
	return errors.Wrap(werr, "write tree")
}

func visibleChildren(n *tree.Node, opts TreeOptions) []*tree.Node {
	if !opts.HideExits {
		return n.Children
	}
	out := make([]*tree.Node, 0, len(n.Children))
	for _, c := range n.Children {
		if events.RoleOf(c.Event.Type) == events.Exit {
			continue
		}
		out = append(out, c)
	}
	return out
}

func formatEvent(th Theme, e *events.Event, opts TreeOptions) string {
	if e.IsRoot() {
		return th.Title.Render("log")
	}

	var b strings.Builder
	b.WriteString(EventIcon(e))
	b.WriteString(" ")
	b.WriteString(th.Type.Render(string(e.Type)))
	if label := Label(e); label != "" {
		style := th.Label
		switch e.Data.(type) {
		case events.Query, events.QueryResult, events.QueryPlan:
			style = th.Query
		case events.Exception:
			style = th.Failure
		}
		b.WriteString(" ")
		b.WriteString(style.Render(truncate(label, opts.MaxLabel)))
	}
	if e.HasDuration() {
		d := time.Duration(e.DurationNanos())
		style := th.Duration
		if opts.SlowThreshold > 0 && d >= opts.SlowThreshold {
			style = th.Slow
		}
		b.WriteString(" ")
		b.WriteString(style.Render(FormatDuration(d)))
	}
	if e.Namespace != "" {
		b.WriteString(" ")
		b.WriteString(th.Dim.Render("[" + e.Namespace + "]"))
	}
	b.WriteString(" ")
	b.WriteString(th.Dim.Render(fmt.Sprintf("L%d", e.Line)))
	return b.String()
}

// Label is a one-line description of an event's payload.
func Label(e *events.Event) string {
	switch d := e.Data.(type) {
	case events.Method:
		return d.Signature
	case events.CodeUnit:
		return d.Name
	case events.Query:
		return d.Text
	case events.QueryResult:
		return fmt.Sprintf("rows=%d", d.Rows)
	case events.QueryPlan:
		return fmt.Sprintf("%s cost=%g", d.LeadingOperation, d.RelativeCost)
	case events.DML:
		return fmt.Sprintf("%s %s rows=%d", d.Operation, d.ObjectType, d.Rows)
	case events.Exception:
		return d.ExceptionType + ": " + d.Message
	case events.Debug:
		return d.Message
	case events.Variable:
		return d.Name + " = " + d.Value.Raw
	case events.VariableScope:
		return d.Type + " " + d.Name
	case events.Heap:
		return fmt.Sprintf("%d bytes", d.Bytes)
	case events.ManagedPackage:
		return d.Namespace
	case events.Validation:
		if d.RuleName != "" {
			return d.RuleName
		}
		return d.Formula
	case events.Flow:
		if d.ElementName != "" {
			return d.ElementName
		}
		return d.FlowName
	case events.Callout:
		if d.Endpoint != "" {
			return strings.TrimSpace(d.Method + " " + d.Endpoint)
		}
		return d.Status
	case events.LimitUsage:
		return fmt.Sprintf("%d limits", len(d.Limits))
	case events.Marker:
		return d.Label
	case events.UserInfo:
		return d.Username
	case events.Generic:
		return strings.Join(d.Fields, " | ")
	}
	return ""
}

// FormatDuration prints nanosecond durations at a readable scale.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.1fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ⏎ ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Summary writes the verdict block for a parse: counts, truncation and
// confidence with its reasons. A nil theme is detected from w.
func Summary(w io.Writer, th *Theme, source string, sum *parser.Summary) error {
	t := themeFor(w, th)

	var b strings.Builder
	b.WriteString(t.Title.Render(source) + "\n")
	if sum.Metadata.APIVersion != "" {
		b.WriteString(t.Dim.Render("api "+sum.Metadata.APIVersion) + "\n")
	}
	fmt.Fprintf(&b, "events %d  lines %d  failed %d  unhandled %d\n",
		sum.Stats.TotalEvents, sum.Stats.TotalLines, sum.Stats.FailedLines, sum.Stats.UnhandledTokens)

	if sum.IsTruncated() {
		b.WriteString(t.Failure.Render(IconWarning+" truncated ("+string(sum.Truncation.Type)+")") + " " + sum.Truncation.Reason + "\n")
	} else {
		b.WriteString(t.Duration.Render(IconSuccess+" complete") + "\n")
	}

	fmt.Fprintf(&b, "confidence %.2f\n", sum.Confidence.Score)
	for _, r := range sum.Confidence.Reasons {
		b.WriteString(t.Dim.Render("  "+IconBullet+" "+r) + "\n")
	}
	for _, l := range sum.Confidence.Limitations {
		b.WriteString(t.Slow.Render("  "+IconWarning+" "+l) + "\n")
	}

	_, err := io.WriteString(w, t.Border.Render(strings.TrimRight(b.String(), "\n"))+"\n")
	return errors.Wrap(err, "write summary")
}

func themeFor(w io.Writer, th *Theme) Theme {
	if th != nil {
		return *th
	}
	return NewTheme(w)
}
