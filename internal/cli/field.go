package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

func newFieldCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field",
		Short: "List and edit custom field definitions",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List field definitions in position order",
			Args:  exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				a.roster.FetchFieldDefinitions(cmd.Context())
				return printJSON(cmd, a.roster.FieldDefinitions())
			},
		},
		&cobra.Command{
			Use:   "create <json>",
			Short: "Create a field definition from a JSON object",
			Long: "Create a field definition. The type must be one of: " +
				strings.Join(types.FieldTypes, ", ") + ".",
			Example: `  fieldbook field create '{"name": "Industry", "type": "select", "position": 0}'`,
			Args:    exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				row, err := parseRow(args[0])
				if err != nil {
					return err
				}
				f, err := a.roster.CreateFieldDefinition(cmd.Context(), row)
				if err != nil {
					return err
				}
				return printJSON(cmd, f)
			},
		},
		&cobra.Command{
			Use:   "update <id> <json>",
			Short: "Apply a JSON patch to a field definition",
			Args:  exactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				patch, err := parseRow(args[1])
				if err != nil {
					return err
				}
				f, err := a.roster.UpdateFieldDefinition(cmd.Context(), args[0], patch)
				if err != nil {
					return err
				}
				return printJSON(cmd, f)
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a field definition and its values",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.roster.DeleteFieldDefinition(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
				return nil
			},
		},
	)
	return cmd
}
