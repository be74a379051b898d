package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	photoframe "github.com/menta2k/photo-frame"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "photoframe %s\n", photoframe.GetVersion())
			return nil
		},
	}
}
