package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "enzymemap %s\n  commit:  %s\n  built:   %s\n  go:      %s\n",
				Version, GitCommit, BuildDate, runtime.Version())
		},
	}
}
