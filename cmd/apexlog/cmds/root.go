package cmds

import "github.com/spf13/cobra"

func AddCommands(root *cobra.Command) error {
	root.AddCommand(newParseCmd())
	root.AddCommand(newStreamCmd())
	root.AddCommand(newTreeCmd())
	root.AddCommand(newStatsCmd())
	return nil
}
