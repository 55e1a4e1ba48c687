package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the fieldbook release.
const Version = "0.1.0"

const modulePath = "github.com/mesh-intelligence/fieldbook"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the fieldbook version",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "fieldbook v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
