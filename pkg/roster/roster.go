// Package roster keeps an in-memory mirror of one entity kind (accounts,
// families) together with its statuses and custom fields, and keeps that
// mirror in step with a types.RemoteStore.
//
// Every mutating operation goes to the remote store first; the local cache
// is patched only after the store reports success, so a failed call leaves
// the cache as it was. Reads of the cache never touch the network.
//
// A Roster does not serialize its callers. Two mutations of the same
// collection issued concurrently race, and the cache reflects whichever
// response arrives last.
package roster

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mesh-intelligence/fieldbook/internal/cache"
	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

// Option configures a Roster.
type Option func(*Roster)

// WithLogger sets the logger failures are reported to.
// The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Roster) { r.log = l }
}

// WithClock sets the time source used for updated_at refreshes.
func WithClock(now func() time.Time) Option {
	return func(r *Roster) { r.now = now }
}

// Roster is the cache and operation set for one schema. Construct one per
// session with New and share it by reference; Reset clears it.
type Roster struct {
	remote types.RemoteStore
	schema types.Schema
	log    *slog.Logger
	now    func() time.Time

	entities cache.Ordered[*types.Entity]
	statuses cache.Ordered[*types.Status]
	fields   cache.Ordered[*types.FieldDefinition]
	values   cache.Values

	flagMu  sync.RWMutex
	loading bool
	err     error

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// New creates an empty Roster over remote. Nothing is loaded until one of
// the Fetch methods (or Refresh) is called.
func New(remote types.RemoteStore, schema types.Schema, opts ...Option) (*Roster, error) {
	if remote == nil {
		return nil, fmt.Errorf("%w: nil remote store", types.ErrInvalidSchema)
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	r := &Roster{
		remote: remote,
		schema: schema,
		log:    slog.Default(),
		now:    time.Now,
		subs:   make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With("kind", schema.Kind)
	return r, nil
}

// Schema returns the schema the roster was built with.
func (r *Roster) Schema() types.Schema { return r.schema }

// Loading reports whether an entity operation is in flight.
func (r *Roster) Loading() bool {
	r.flagMu.RLock()
	defer r.flagMu.RUnlock()
	return r.loading
}

// Err returns the error of the last failed entity operation, or nil. It is
// reset at the start of every entity operation.
func (r *Roster) Err() error {
	r.flagMu.RLock()
	defer r.flagMu.RUnlock()
	return r.err
}

// Entities returns the cached entities in display order.
func (r *Roster) Entities() []*types.Entity { return r.entities.Snapshot() }

// Statuses returns the cached statuses in display order.
func (r *Roster) Statuses() []*types.Status { return r.statuses.Snapshot() }

// FieldDefinitions returns the cached field definitions in display order.
func (r *Roster) FieldDefinitions() []*types.FieldDefinition { return r.fields.Snapshot() }

// FieldValues returns every cached field value.
func (r *Roster) FieldValues() []*types.FieldValue { return r.values.Snapshot() }

// Refresh loads every collection, the way a UI does on startup. Failures are
// handled by each fetch as usual.
func (r *Roster) Refresh(ctx context.Context) {
	r.FetchEntities(ctx)
	if r.schema.HasStatuses() {
		r.FetchStatuses(ctx)
	}
	r.FetchFieldDefinitions(ctx)
	r.FetchFieldValues(ctx)
}

// Reset empties every cache and clears both flags.
func (r *Roster) Reset() {
	r.entities.Reset()
	r.statuses.Reset()
	r.fields.Reset()
	r.values.Reset()

	r.flagMu.Lock()
	r.loading = false
	r.err = nil
	r.flagMu.Unlock()

	for _, c := range []Collection{CollectionEntities, CollectionStatuses, CollectionFieldDefinitions, CollectionFieldValues} {
		r.notify(Change{Collection: c, Op: OpReset})
	}
}

// begin marks an entity operation as started.
func (r *Roster) begin() {
	r.flagMu.Lock()
	r.loading = true
	r.err = nil
	r.flagMu.Unlock()
}

// end marks an entity operation as finished, recording err if non-nil.
func (r *Roster) end(err error) {
	r.flagMu.Lock()
	r.loading = false
	if err != nil {
		r.err = err
	}
	r.flagMu.Unlock()
}

// timestamped returns a copy of row with updated_at set to now.
func (r *Roster) timestamped(row types.Row) types.Row {
	out := make(types.Row, len(row)+1)
	for k, v := range row {
		out[k] = v
	}
	out[types.ColumnUpdatedAt] = types.FormatTime(r.now())
	return out
}

// decodeAll decodes rows with fn, failing on the first bad row.
func decodeAll[T any](rows []types.Row, fn func(types.Row) (T, error)) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := fn(row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
