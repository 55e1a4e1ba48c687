package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "List and edit statuses (accounts only)",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List statuses in position order",
			Args:  exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				a.roster.FetchStatuses(cmd.Context())
				return printJSON(cmd, a.roster.Statuses())
			},
		},
		&cobra.Command{
			Use:     "create <json>",
			Short:   "Create a status from a JSON object",
			Example: `  fieldbook status create '{"label": "Churned", "color": "#000000", "position": 3}'`,
			Args:    exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				row, err := parseRow(args[0])
				if err != nil {
					return err
				}
				s, err := a.roster.CreateStatus(cmd.Context(), row)
				if err != nil {
					return err
				}
				return printJSON(cmd, s)
			},
		},
		&cobra.Command{
			Use:   "update <id> <json>",
			Short: "Apply a JSON patch to a status",
			Args:  exactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				patch, err := parseRow(args[1])
				if err != nil {
					return err
				}
				s, err := a.roster.UpdateStatus(cmd.Context(), args[0], patch)
				if err != nil {
					return err
				}
				return printJSON(cmd, s)
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a status; accounts using it lose their status",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.roster.DeleteStatus(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
				return nil
			},
		},
	)
	return cmd
}
