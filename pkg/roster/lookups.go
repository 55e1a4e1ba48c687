package roster

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/fieldbook/internal/cache"
	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

// lookup is the shared fetch/create/update/delete logic for the secondary
// ordered tables (statuses, field definitions). Lookups never touch the
// loading and error flags.
type lookup[T cache.Record] struct {
	r          *Roster
	table      string
	collection Collection
	cache      *cache.Ordered[T]
	decode     func(types.Row) (T, error)
}

func (l lookup[T]) fetch(ctx context.Context) {
	rows, err := l.r.remote.Select(ctx, l.table, types.Query{OrderBy: types.ColumnPosition})
	if err == nil {
		var items []T
		if items, err = decodeAll(rows, l.decode); err == nil {
			l.cache.Replace(items)
			l.r.notify(Change{Collection: l.collection, Op: OpReplace})
			return
		}
	}
	l.r.log.Error("fetch failed", "table", l.table, "err", err)
}

func (l lookup[T]) create(ctx context.Context, data types.Row) (T, error) {
	row, err := l.r.remote.Insert(ctx, l.table, data, nil)
	var item T
	if err == nil {
		item, err = l.decode(row)
	}
	if err != nil {
		return item, l.failed("create", "", err)
	}
	l.cache.Append(item)
	l.r.notify(Change{Collection: l.collection, Op: OpAppend, ID: item.RecordID()})
	return item, nil
}

func (l lookup[T]) update(ctx context.Context, id string, patch types.Row) (T, error) {
	row, err := l.r.remote.Update(ctx, l.table, id, patch, nil)
	var item T
	if err == nil {
		item, err = l.decode(row)
	}
	if err != nil {
		return item, l.failed("update", id, err)
	}
	if l.cache.ReplaceByID(id, item) {
		l.r.notify(Change{Collection: l.collection, Op: OpUpdate, ID: id})
	}
	return item, nil
}

func (l lookup[T]) delete(ctx context.Context, id string) error {
	if err := l.r.remote.Delete(ctx, l.table, id); err != nil {
		return l.failed("delete", id, err)
	}
	l.cache.RemoveByID(id)
	l.r.notify(Change{Collection: l.collection, Op: OpRemove, ID: id})
	return nil
}

func (l lookup[T]) failed(op, id string, err error) error {
	err = fmt.Errorf("%s %s: %w", op, l.table, err)
	l.r.log.Error(op+" failed", "table", l.table, "id", id, "err", err)
	return err
}

func (r *Roster) statusLookup() lookup[*types.Status] {
	return lookup[*types.Status]{
		r:          r,
		table:      r.schema.StatusTable,
		collection: CollectionStatuses,
		cache:      &r.statuses,
		decode:     types.StatusFromRow,
	}
}

func (r *Roster) fieldLookup() lookup[*types.FieldDefinition] {
	return lookup[*types.FieldDefinition]{
		r:          r,
		table:      r.schema.FieldDefinitionTable,
		collection: CollectionFieldDefinitions,
		cache:      &r.fields,
		decode:     types.FieldDefinitionFromRow,
	}
}

// FetchStatuses loads every status ordered by position. Failures are only
// logged. A schema without statuses leaves the cache empty.
func (r *Roster) FetchStatuses(ctx context.Context) {
	if !r.schema.HasStatuses() {
		return
	}
	r.statusLookup().fetch(ctx)
}

// CreateStatus inserts data and appends the stored status to the cache.
// Returns ErrNoStatuses if the schema has no status table.
func (r *Roster) CreateStatus(ctx context.Context, data types.Row) (*types.Status, error) {
	if !r.schema.HasStatuses() {
		return nil, types.ErrNoStatuses
	}
	return r.statusLookup().create(ctx, data)
}

// UpdateStatus applies patch and replaces the cached status.
func (r *Roster) UpdateStatus(ctx context.Context, id string, patch types.Row) (*types.Status, error) {
	if !r.schema.HasStatuses() {
		return nil, types.ErrNoStatuses
	}
	return r.statusLookup().update(ctx, id, patch)
}

// DeleteStatus deletes the status and drops it from the cache. Entities that
// referenced it are not touched here; the backend decides what happens to
// them.
func (r *Roster) DeleteStatus(ctx context.Context, id string) error {
	if !r.schema.HasStatuses() {
		return types.ErrNoStatuses
	}
	return r.statusLookup().delete(ctx, id)
}

// FetchFieldDefinitions loads every field definition ordered by position.
// Failures are only logged.
func (r *Roster) FetchFieldDefinitions(ctx context.Context) {
	r.fieldLookup().fetch(ctx)
}

// CreateFieldDefinition inserts data and appends the stored definition.
// Returns ErrInvalidFieldType, without calling the store, when data has no
// recognized "type".
func (r *Roster) CreateFieldDefinition(ctx context.Context, data types.Row) (*types.FieldDefinition, error) {
	if err := checkFieldType(data, true); err != nil {
		return nil, err
	}
	return r.fieldLookup().create(ctx, data)
}

// UpdateFieldDefinition applies patch and replaces the cached definition.
// A "type" in patch must be recognized.
func (r *Roster) UpdateFieldDefinition(ctx context.Context, id string, patch types.Row) (*types.FieldDefinition, error) {
	if err := checkFieldType(patch, false); err != nil {
		return nil, err
	}
	return r.fieldLookup().update(ctx, id, patch)
}

// DeleteFieldDefinition deletes the definition and drops it from the cache.
// Cached values of that field stay until the next FetchFieldValues; the
// projection ignores them since it only walks current definitions.
func (r *Roster) DeleteFieldDefinition(ctx context.Context, id string) error {
	return r.fieldLookup().delete(ctx, id)
}

func checkFieldType(row types.Row, required bool) error {
	v, ok := row[types.ColumnType]
	if !ok {
		if required {
			return fmt.Errorf("%w: missing", types.ErrInvalidFieldType)
		}
		return nil
	}
	ft, _ := v.(string)
	if !types.IsValidFieldType(ft) {
		return fmt.Errorf("%w: %v", types.ErrInvalidFieldType, v)
	}
	return nil
}
