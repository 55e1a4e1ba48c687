package roster

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

// FetchFieldValues loads every field value of every entity. Failures are
// only logged.
func (r *Roster) FetchFieldValues(ctx context.Context) {
	table := r.schema.FieldValueTable
	rows, err := r.remote.Select(ctx, table, types.Query{})
	if err == nil {
		var vals []*types.FieldValue
		vals, err = decodeAll(rows, r.decodeValue)
		if err == nil {
			r.values.Replace(vals)
			r.notify(Change{Collection: CollectionFieldValues, Op: OpReplace})
			return
		}
	}
	r.log.Error("fetch failed", "table", table, "err", err)
}

// SetFieldValue stores value for (entityID, fieldID), inserting the row or
// overwriting the existing one, and mirrors the stored row in the cache.
// Afterwards exactly one cached value exists for the pair and it is value
// itself; a later fetch returns the decoded form.
func (r *Roster) SetFieldValue(ctx context.Context, entityID, fieldID string, value any) (*types.FieldValue, error) {
	table := r.schema.FieldValueTable
	fv := &types.FieldValue{EntityID: entityID, FieldID: fieldID, Value: value, UpdatedAt: r.now()}
	row, err := fv.Row(r.schema.ForeignKey)
	if err == nil {
		row, err = r.remote.Upsert(ctx, table, row, []string{r.schema.ForeignKey, types.ColumnFieldID})
	}
	var stored *types.FieldValue
	if err == nil {
		stored, err = r.decodeValue(row)
	}
	if err != nil {
		err = fmt.Errorf("set %s: %w", table, err)
		r.log.Error("set failed", "table", table, "entity", entityID, "field", fieldID, "err", err)
		return nil, err
	}
	stored.Value = value
	r.values.Put(stored)
	r.notify(Change{Collection: CollectionFieldValues, Op: OpUpdate, ID: entityID + "/" + fieldID})
	return stored, nil
}

// FieldValue returns the cached value for (entityID, fieldID). A pair that
// has no stored value returns nil, false; that is not an error.
func (r *Roster) FieldValue(entityID, fieldID string) (any, bool) {
	return r.values.Get(entityID, fieldID)
}

func (r *Roster) decodeValue(row types.Row) (*types.FieldValue, error) {
	return types.FieldValueFromRow(row, r.schema.ForeignKey)
}
