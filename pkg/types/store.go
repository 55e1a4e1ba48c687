package types

import "context"

// Row is a single table row as exchanged with a RemoteStore. Keys are column
// names. A joined row is embedded as a nested Row under the join's alias.
type Row map[string]any

// Join embeds, for every selected row, the row of Table whose id equals the
// value of ForeignKey. The embedded row is stored under As, or nil when the
// foreign key is null or dangling.
type Join struct {
	Table      string
	ForeignKey string
	As         string
}

// Query describes a select. Empty Columns selects every column. Filters are
// equality predicates joined with AND. OrderBy is a single column name.
type Query struct {
	Columns    []string
	Join       *Join
	Filters    map[string]any
	OrderBy    string
	Descending bool
}

// RemoteStore is the relational backend a roster mirrors. Every call either
// returns a result or a non-nil error, never both.
type RemoteStore interface {
	// Select returns the rows of table matching q, in the order q asks for.
	Select(ctx context.Context, table string, q Query) ([]Row, error)

	// Insert writes row and returns the stored row, with join embedded when
	// join is non-nil.
	Insert(ctx context.Context, table string, row Row, join *Join) (Row, error)

	// Update applies patch to the row with the given id and returns the
	// updated row. Returns ErrNotFound if no row has that id.
	Update(ctx context.Context, table string, id string, patch Row, join *Join) (Row, error)

	// Delete removes the row with the given id. An id that matches no row
	// is not an error.
	// Returns ErrNotFound if no row has that id.
	Delete(ctx context.Context, table string, id string) error

	// Upsert inserts row, or updates the existing row whose conflict columns
	// match. It always returns the single resulting row.
	Upsert(ctx context.Context, table string, row Row, conflict []string) (Row, error)
}
