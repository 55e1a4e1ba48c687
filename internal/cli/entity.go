package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

func newEntityCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "List and edit entities of the selected kind",
	}

	var withFields bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List entities in position order",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadEntities(cmd); err != nil {
				return err
			}
			if !withFields {
				return printJSON(cmd, a.roster.Entities())
			}
			a.roster.FetchFieldDefinitions(cmd.Context())
			a.roster.FetchFieldValues(cmd.Context())
			return printJSON(cmd, a.roster.WithFields())
		},
	}
	list.Flags().BoolVar(&withFields, "fields", false, "include custom field values keyed by field ID")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one entity",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadEntities(cmd); err != nil {
				return err
			}
			e, ok := a.roster.Entity(args[0])
			if !ok {
				return fmt.Errorf("entity %q: %w", args[0], types.ErrNotFound)
			}
			return printJSON(cmd, e)
		},
	}

	create := &cobra.Command{
		Use:   "create <json>",
		Short: "Create an entity from a JSON object",
		Example: `  fieldbook entity create '{"name": "Acme", "email": "ops@acme.test"}'
  fieldbook --kind families entity create '{"name": "Smith"}'`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := parseRow(args[0])
			if err != nil {
				return err
			}
			e, err := a.roster.CreateEntity(cmd.Context(), row)
			if err != nil {
				return err
			}
			return printJSON(cmd, e)
		},
	}

	update := &cobra.Command{
		Use:   "update <id> <json>",
		Short: "Apply a JSON patch to an entity",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := parseRow(args[1])
			if err != nil {
				return err
			}
			e, err := a.roster.UpdateEntity(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			return printJSON(cmd, e)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an entity and its field values",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.roster.DeleteEntity(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, get, create, update, del)
	return cmd
}
