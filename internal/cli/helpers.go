package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

// exactArgs is cobra.ExactArgs with a user-error exit code.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return userError(err)
		}
		return nil
	}
}

// parseRow decodes a JSON object argument into a row.
func parseRow(arg string) (types.Row, error) {
	var row types.Row
	if err := json.Unmarshal([]byte(arg), &row); err != nil {
		return nil, userError(fmt.Errorf("invalid JSON object: %w", err))
	}
	if row == nil {
		return nil, userError(fmt.Errorf("invalid JSON object: %s", arg))
	}
	return row, nil
}

// parseValue decodes a field value argument. Text that is not JSON is taken
// as a plain string, so `value set e f Oslo` works without quoting.
func parseValue(arg string) any {
	v, _ := types.DecodeValue(arg)
	return v
}

// printJSON writes v as indented JSON to the command's output.
func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal output: %w", err))
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// loadEntities fetches the entity cache and surfaces the fetch error, which
// the roster otherwise only records.
func (a *app) loadEntities(cmd *cobra.Command) error {
	a.roster.FetchEntities(cmd.Context())
	if err := a.roster.Err(); err != nil {
		return sysError(err)
	}
	return nil
}
