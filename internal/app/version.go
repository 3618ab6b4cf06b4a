package app

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"kite/internal/version"
)

func newVersionCmd(stdout io.Writer) *cobra.Command {
	var info bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version (and citation with --info)",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "kite version %s\n", version.Version)
			if info {
				fmt.Fprintf(stdout, "\n%s\n", version.Citation)
			}
		},
	}
	cmd.Flags().BoolVar(&info, "info", false, "also print how to cite")
	return cmd
}
