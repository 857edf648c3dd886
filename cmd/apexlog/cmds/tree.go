package cmds

import (
	"bufio"
	"time"

	"github.com/go-go-golems/apexlog/pkg/parser"
	"github.com/go-go-golems/apexlog/pkg/render"
	"github.com/spf13/cobra"
)

func newTreeCmd() *cobra.Command {
	var treeOpts render.TreeOptions
	var slow time.Duration
	var summary bool

	cmd := &cobra.Command{
		Use:   "tree [file]",
		Short: "Print the call tree of a log with per-entry durations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := getRootOptions(cmd)
			if err != nil {
				return err
			}
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			r, label, err := openInput(cmd, path)
			if err != nil {
				return err
			}
			defer func() { _ = r.Close() }()

			pl, err := parser.ParseReader(r, opts.Parser)
			if err != nil {
				return err
			}

			bw := bufio.NewWriter(cmd.OutOrStdout())
			defer func() { _ = bw.Flush() }()

			th := render.NewTheme(cmd.OutOrStdout())
			treeOpts.SlowThreshold = slow
			treeOpts.Theme = &th
			if err := render.Tree(bw, pl.Root, treeOpts); err != nil {
				return err
			}
			if summary {
				return render.Summary(bw, &th, label, &pl.Summary)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&treeOpts.MaxDepth, "max-depth", 0, "Do not descend below this depth (0: unlimited)")
	cmd.Flags().BoolVar(&treeOpts.HideExits, "hide-exits", false, "Leave exit events out")
	cmd.Flags().IntVar(&treeOpts.MaxLabel, "max-label", 80, "Truncate event labels to this many characters")
	cmd.Flags().DurationVar(&slow, "slow", 0, "Highlight entries at least this long")
	cmd.Flags().BoolVar(&summary, "summary", true, "Print the parse summary after the tree")
	return cmd
}
