package roster

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

// FetchEntities loads every entity, joined with its status when the schema
// has one, ordered by position, and replaces the cache with them. A failure
// is logged and recorded in Err; the cache keeps its previous contents.
func (r *Roster) FetchEntities(ctx context.Context) {
	r.begin()
	var opErr error
	defer func() { r.end(opErr) }()

	table := r.schema.EntityTable
	rows, err := r.remote.Select(ctx, table, types.Query{
		Join:    r.schema.Join,
		OrderBy: types.ColumnPosition,
	})
	if err == nil {
		var entities []*types.Entity
		entities, err = decodeAll(rows, r.decodeEntity)
		if err == nil {
			r.entities.Replace(entities)
			r.notify(Change{Collection: CollectionEntities, Op: OpReplace})
			return
		}
	}
	opErr = fmt.Errorf("fetching %s: %w", table, err)
	r.log.Error("fetch failed", "table", table, "err", err)
}

// CreateEntity inserts data and appends the stored entity, status joined,
// to the cache.
func (r *Roster) CreateEntity(ctx context.Context, data types.Row) (*types.Entity, error) {
	r.begin()
	table := r.schema.EntityTable
	row, err := r.remote.Insert(ctx, table, data, r.schema.Join)
	var e *types.Entity
	if err == nil {
		e, err = r.decodeEntity(row)
	}
	if err != nil {
		return nil, r.entityFailed("create", "", err)
	}
	r.entities.Append(e)
	r.end(nil)
	r.notify(Change{Collection: CollectionEntities, Op: OpAppend, ID: e.ID})
	return e, nil
}

// UpdateEntity applies patch, with updated_at refreshed, and replaces the
// cached entity with the stored one. If id is not cached the cache is left
// alone; the entity is not re-fetched.
func (r *Roster) UpdateEntity(ctx context.Context, id string, patch types.Row) (*types.Entity, error) {
	r.begin()
	table := r.schema.EntityTable
	row, err := r.remote.Update(ctx, table, id, r.timestamped(patch), r.schema.Join)
	var e *types.Entity
	if err == nil {
		e, err = r.decodeEntity(row)
	}
	if err != nil {
		return nil, r.entityFailed("update", id, err)
	}
	replaced := r.entities.ReplaceByID(id, e)
	r.end(nil)
	if replaced {
		r.notify(Change{Collection: CollectionEntities, Op: OpUpdate, ID: id})
	}
	return e, nil
}

// DeleteEntity deletes the entity and drops it from the cache.
func (r *Roster) DeleteEntity(ctx context.Context, id string) error {
	r.begin()
	if err := r.remote.Delete(ctx, r.schema.EntityTable, id); err != nil {
		return r.entityFailed("delete", id, err)
	}
	r.entities.RemoveByID(id)
	r.end(nil)
	r.notify(Change{Collection: CollectionEntities, Op: OpRemove, ID: id})
	return nil
}

// Entity returns the cached entity with the given id.
func (r *Roster) Entity(id string) (*types.Entity, bool) {
	return r.entities.Get(id)
}

func (r *Roster) decodeEntity(row types.Row) (*types.Entity, error) {
	return types.EntityFromRow(row, r.schema.Join)
}

// entityFailed logs and records a failed entity write, clears loading and
// returns the error for the caller.
func (r *Roster) entityFailed(op, id string, err error) error {
	err = fmt.Errorf("%s %s: %w", op, r.schema.EntityTable, err)
	r.log.Error(op+" failed", "table", r.schema.EntityTable, "id", id, "err", err)
	r.end(err)
	return err
}
