package types

import "fmt"

// Schema names the tables and columns one roster works against. Accounts and
// families are two presets of the same schema shape.
type Schema struct {
	Kind                 string // Human-readable kind, used in logs ("accounts").
	EntityTable          string
	StatusTable          string // Empty when entities carry no status.
	Join                 *Join  // Status join applied to entity reads; nil without statuses.
	FieldDefinitionTable string
	FieldValueTable      string
	ForeignKey           string // Column of FieldValueTable referencing the entity.
}

// Schema presets.
var (
	AccountsSchema = Schema{
		Kind:                 "accounts",
		EntityTable:          "accounts",
		StatusTable:          "statuses",
		Join:                 &Join{Table: "statuses", ForeignKey: "status_id", As: "statuses"},
		FieldDefinitionTable: "field_definitions",
		FieldValueTable:      "field_values",
		ForeignKey:           "account_id",
	}

	FamiliesSchema = Schema{
		Kind:                 "families",
		EntityTable:          "families",
		FieldDefinitionTable: "family_field_definitions",
		FieldValueTable:      "family_field_values",
		ForeignKey:           "family_id",
	}
)

// Schemas lists the presets by kind.
var Schemas = map[string]Schema{
	AccountsSchema.Kind: AccountsSchema,
	FamiliesSchema.Kind: FamiliesSchema,
}

// HasStatuses reports whether entities of this schema reference a status table.
func (s Schema) HasStatuses() bool {
	return s.StatusTable != ""
}

// Validate checks that every required table and column is named and that the
// join, if any, targets the status table. Errors wrap ErrInvalidSchema.
func (s Schema) Validate() error {
	required := []struct{ name, value string }{
		{"kind", s.Kind},
		{"entity table", s.EntityTable},
		{"field definition table", s.FieldDefinitionTable},
		{"field value table", s.FieldValueTable},
		{"foreign key", s.ForeignKey},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidSchema, r.name)
		}
	}
	if s.Join == nil {
		return nil
	}
	if s.Join.Table != s.StatusTable {
		return fmt.Errorf("%w: join table %q is not the status table %q", ErrInvalidSchema, s.Join.Table, s.StatusTable)
	}
	if s.Join.ForeignKey == "" || s.Join.As == "" {
		return fmt.Errorf("%w: join needs a foreign key and an alias", ErrInvalidSchema)
	}
	return nil
}
