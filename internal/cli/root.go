// Package cli implements learnerctl, an offline companion to the learner
// service for replaying answer sequences and analyzing exported results.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set via -ldflags at build time.
var Version = "(devel)"

// NewRootCommand builds the learnerctl command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "learnerctl",
		Short:         "Ability and progress tools for the learner service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newSimulateCommand())
	root.AddCommand(newTrendCommand())
	root.AddCommand(newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "learnerctl", Version)
		},
	}
}
