package cli

import (
	"github.com/spf13/cobra"
)

func newValueCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "value",
		Short: "Read and write custom field values",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every stored field value",
			Args:  exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				a.roster.FetchFieldValues(cmd.Context())
				return printJSON(cmd, a.roster.FieldValues())
			},
		},
		&cobra.Command{
			Use:   "get <entity-id> <field-id>",
			Short: "Print one field value, or null when unset",
			Args:  exactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a.roster.FetchFieldValues(cmd.Context())
				v, _ := a.roster.FieldValue(args[0], args[1])
				return printJSON(cmd, v)
			},
		},
		&cobra.Command{
			Use:   "set <entity-id> <field-id> <value>",
			Short: "Set one field value, replacing any previous one",
			Long: `Set one field value. The value is parsed as JSON when it is valid JSON
(42, true, "text", ["a","b"]) and stored as a plain string otherwise.`,
			Args: exactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				fv, err := a.roster.SetFieldValue(cmd.Context(), args[0], args[1], parseValue(args[2]))
				if err != nil {
					return err
				}
				return printJSON(cmd, fv)
			},
		},
	)
	return cmd
}
