package cmds

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/go-go-golems/apexlog/pkg/eventjs"
	"github.com/go-go-golems/apexlog/pkg/events"
	"github.com/go-go-golems/apexlog/pkg/parser"
	"github.com/go-go-golems/apexlog/pkg/render"
	"github.com/go-go-golems/apexlog/pkg/tree"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type annotatedEvent struct {
	*events.Event
	Time   *time.Time     `json:"time,omitempty"`
	Tags   []string       `json:"tags,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

type parseOutput struct {
	Source  string            `json:"source"`
	Error   *parser.Error     `json:"error,omitempty"`
	Summary *parser.Summary   `json:"summary,omitempty"`
	Events  []*annotatedEvent `json:"events,omitempty"`
	Root    *tree.Node        `json:"root,omitempty"`

	// ScriptErrors are hook failures; the events they hit were dropped.
	ScriptErrors []*eventjs.ErrorRecord `json:"scriptErrors,omitempty"`
}

func newParseCmd() *cobra.Command {
	var format string
	var workers int
	var withTree bool
	var noEvents bool

	cmd := &cobra.Command{
		Use:   "parse [file...]",
		Short: "Parse one or more logs; each file is an independent parse",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			opts, err := getRootOptions(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"-"}
			}

			results := make([]*parseOutput, len(args))
			eg, egCtx := errgroup.WithContext(cmd.Context())
			if workers > 0 {
				eg.SetLimit(workers)
			}
			for i, path := range args {
				eg.Go(func() error {
					out, err := parseOne(egCtx, cmd, opts, path)
					if err != nil {
						return err
					}
					if !withTree {
						out.Root = nil
					}
					if noEvents {
						out.Events = nil
					}
					results[i] = out
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}

			th := render.NewTheme(cmd.OutOrStdout())
			return writeParseOutputs(cmd.OutOrStdout(), &th, format, results)
		},
	}

	cmd.Flags().StringVar(&format, "format", "ndjson", "Output format: ndjson|pretty")
	cmd.Flags().IntVar(&workers, "workers", 4, "Files parsed concurrently (0: unlimited)")
	cmd.Flags().BoolVar(&withTree, "tree", false, "Include the call tree in ndjson output")
	cmd.Flags().BoolVar(&noEvents, "no-events", false, "Leave the flat event list out of the output")
	return cmd
}

// parseOne returns an error only for failures outside the log itself; a log
// that cannot be parsed is reported in the output.
func parseOne(ctx context.Context, cmd *cobra.Command, opts rootOptions, path string) (*parseOutput, error) {
	r, label, err := openInput(cmd, path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	start := time.Now()
	pl, err := parser.ParseReader(r, opts.Parser)
	if err != nil {
		pe, ok := parser.AsError(err)
		if !ok {
			return nil, err
		}
		log.Warn().Str("source", label).Str("code", string(pe.Code)).Msg("parse failed")
		return &parseOutput{Source: label, Error: pe}, nil
	}
	log.Info().
		Str("source", label).
		Int64("events", pl.Stats.TotalEvents).
		Dur("elapsed", time.Since(start)).
		Bool("truncated", pl.IsTruncated()).
		Msg("parsed")

	out := &parseOutput{Source: label, Summary: &pl.Summary, Root: pl.Root}

	chain, err := opts.loadChain(ctx)
	if err != nil {
		return nil, err
	}
	if chain != nil {
		defer func() { _ = chain.Close(ctx) }()
	}

	for _, ev := range pl.Events {
		ae := &annotatedEvent{Event: ev, Time: opts.wallClock(ev)}
		if chain != nil {
			res, recs, err := chain.ProcessEvent(ctx, ev)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: event %d", label, ev.ID)
			}
			out.ScriptErrors = append(out.ScriptErrors, recs...)
			if res == nil {
				continue
			}
			ae.Tags = res.Tags
			ae.Fields = res.Fields
		}
		out.Events = append(out.Events, ae)
	}
	return out, nil
}

func writeParseOutputs(w io.Writer, th *render.Theme, format string, results []*parseOutput) error {
	bw := bufio.NewWriter(w)
	defer func() { _ = bw.Flush() }()

	if format == "ndjson" {
		enc := json.NewEncoder(bw)
		enc.SetEscapeHTML(false)
		for _, r := range results {
			if err := enc.Encode(r); err != nil {
				return errors.Wrap(err, "encode output")
			}
		}
		return nil
	}

	for _, r := range results {
		if r.Error != nil {
			if _, err := io.WriteString(bw, r.Source+": "+r.Error.Error()+"\n"); err != nil {
				return err
			}
			continue
		}
		if err := render.Summary(bw, th, r.Source, r.Summary); err != nil {
			return err
		}
		for _, rec := range r.ScriptErrors {
			if _, err := io.WriteString(bw, "  script "+rec.Module+" "+rec.Hook+": "+rec.Message+"\n"); err != nil {
				return err
			}
		}
	}
	return nil
}
