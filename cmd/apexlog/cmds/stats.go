package cmds

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/go-go-golems/apexlog/pkg/parser"
	"github.com/go-go-golems/apexlog/pkg/render"
	"github.com/go-go-golems/apexlog/pkg/tokenizer"
	"github.com/go-go-golems/apexlog/pkg/tree"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type statsOutput struct {
	Source        string         `json:"source"`
	Summary       parser.Summary `json:"summary"`
	MaxDepth      int            `json:"maxDepth"`
	TotalDuration int64          `json:"totalDuration"`
}

func newStatsCmd() *cobra.Command {
	var asJSON bool
	var top int

	cmd := &cobra.Command{
		Use:   "stats [file...]",
		Short: "Summarize event counts, truncation and confidence",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := getRootOptions(cmd)
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"-"}
			}

			results := make([]*statsOutput, len(args))
			eg := errgroup.Group{}
			for i, path := range args {
				eg.Go(func() error {
					r, label, err := openInput(cmd, path)
					if err != nil {
						return err
					}
					defer func() { _ = r.Close() }()
					pl, err := parser.ParseReader(r, opts.Parser)
					if err != nil {
						return errors.Wrap(err, label)
					}
					results[i] = &statsOutput{
						Source:        label,
						Summary:       pl.Summary,
						MaxDepth:      tree.MaxDepth(pl.Root),
						TotalDuration: tree.TotalDuration(pl.Root),
					}
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}

			bw := bufio.NewWriter(cmd.OutOrStdout())
			defer func() { _ = bw.Flush() }()
			if asJSON {
				enc := json.NewEncoder(bw)
				enc.SetEscapeHTML(false)
				for _, r := range results {
					if err := enc.Encode(r); err != nil {
						return errors.Wrap(err, "encode stats")
					}
				}
				return nil
			}
			th := render.NewTheme(cmd.OutOrStdout())
			for _, r := range results {
				if err := writeStats(bw, &th, r, top); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per file")
	cmd.Flags().IntVar(&top, "top", 10, "Number of event types to list")
	return cmd
}

type typeCount struct {
	Type  tokenizer.EventType
	Count int64
}

func topTypes(counts map[tokenizer.EventType]int64, n int) []typeCount {
	out := make([]typeCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, typeCount{Type: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func writeStats(w io.Writer, th *render.Theme, r *statsOutput, top int) error {
	if err := render.Summary(w, th, r.Source, &r.Summary); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "depth %d  total %s\n", r.MaxDepth, render.FormatDuration(durationOf(r.TotalDuration))); err != nil {
		return err
	}
	for _, tc := range topTypes(r.Summary.Stats.EventsByType, top) {
		if _, err := fmt.Fprintf(w, "  %-32s %d\n", tc.Type, tc.Count); err != nil {
			return err
		}
	}
	for _, tc := range topTypes(r.Summary.Stats.UnhandledByType, top) {
		if _, err := fmt.Fprintf(w, "  %-32s %d (unhandled)\n", tc.Type, tc.Count); err != nil {
			return err
		}
	}
	return nil
}

func durationOf(nanos int64) time.Duration { return time.Duration(nanos) }
