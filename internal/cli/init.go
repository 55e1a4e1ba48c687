package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newInitCmd reports the directories in use. The work (config file, data
// directory, schema, seeded statuses) is done by setup when the backend
// attaches.
func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "fieldbook initialized")
			fmt.Fprintln(w, "  config: ", a.resolvedConfigDir)
			fmt.Fprintln(w, "  backend:", a.config.Backend)
			fmt.Fprintln(w, "  data:   ", a.resolvedDataDir)
			return nil
		},
	}
}
