// Package sqlstore implements types.RemoteStore on top of database/sql. The
// SQLite and Postgres backends share it and differ only in their Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

var _ types.RemoteStore = (*Store)(nil)

// Dialect captures the SQL differences between drivers.
type Dialect struct {
	Name string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
}

// Supported dialects.
var (
	SQLite = Dialect{
		Name:        "sqlite",
		Placeholder: func(int) string { return "?" },
	}
	Postgres = Dialect{
		Name:        "postgres",
		Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	}
)

// Store runs RemoteStore operations against a *sql.DB.
type Store struct {
	mu      sync.RWMutex
	closed  bool
	db      *sql.DB
	dialect Dialect
	newID   func() string
}

// New wraps db. The Store owns db from now on and closes it in Close.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect, newID: newUUID}
}

// newUUID generates a UUID v7 string.
func newUUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Close closes the underlying database. Idempotent. Operations after Close
// return ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// DB exposes the underlying handle for schema setup and tests.
func (s *Store) DB() *sql.DB { return s.db }

// acquire takes the read lock for one operation. The caller must call the
// returned release function.
func (s *Store) acquire() (func(), error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, types.ErrStoreClosed
	}
	return s.mu.RUnlock, nil
}

// Select returns the rows of table matching q.
func (s *Store) Select(ctx context.Context, table string, q types.Query) ([]types.Row, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var b builder
	b.dialect = s.dialect
	cols, err := selectColumns(q)
	if err != nil {
		return nil, err
	}
	from, err := quote(table)
	if err != nil {
		return nil, err
	}
	query := "SELECT " + cols + " FROM " + from
	where, err := b.where(q.Filters)
	if err != nil {
		return nil, err
	}
	query += where
	if q.OrderBy != "" {
		col, err := quote(q.OrderBy)
		if err != nil {
			return nil, err
		}
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		query += " ORDER BY " + col + " " + dir
	}

	rows, err := s.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("selecting %s: %w", table, err)
	}
	result, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("selecting %s: %w", table, err)
	}
	if q.Join != nil {
		if err := s.embedJoin(ctx, result, q.Join); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Insert writes row, filling a UUID v7 id when the row has none.
func (s *Store) Insert(ctx context.Context, table string, row types.Row, join *types.Join) (types.Row, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	row = copyRow(row)
	if id, ok := row[types.ColumnID]; !ok || id == nil || id == "" {
		row[types.ColumnID] = s.newID()
	}
	query, args, err := s.insertSQL(table, row)
	if err != nil {
		return nil, err
	}
	out, err := s.queryOne(ctx, query+" RETURNING *", args)
	if err != nil {
		return nil, fmt.Errorf("inserting into %s: %w", table, err)
	}
	return s.withJoin(ctx, out, join)
}

// Update applies patch to the row with the given id. The id column itself
// is never patched.
func (s *Store) Update(ctx context.Context, table, id string, patch types.Row, join *types.Join) (types.Row, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	patch = copyRow(patch)
	delete(patch, types.ColumnID)
	if len(patch) == 0 {
		return nil, fmt.Errorf("%w: empty patch", types.ErrInvalidData)
	}
	t, err := quote(table)
	if err != nil {
		return nil, err
	}
	b := builder{dialect: s.dialect}
	var sets []string
	for _, col := range sortedKeys(patch) {
		qc, err := quote(col)
		if err != nil {
			return nil, err
		}
		sets = append(sets, qc+" = "+b.bind(patch[col]))
	}
	query := "UPDATE " + t + " SET " + strings.Join(sets, ", ") +
		` WHERE "id" = ` + b.bind(id) + " RETURNING *"

	out, err := s.queryOne(ctx, query, b.args)
	if err != nil {
		return nil, fmt.Errorf("updating %s %s: %w", table, id, err)
	}
	return s.withJoin(ctx, out, join)
}

// Delete removes the row with the given id. Deleting an id that matches no
// row succeeds.
func (s *Store) Delete(ctx context.Context, table, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	t, err := quote(table)
	if err != nil {
		return err
	}
	b := builder{dialect: s.dialect}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+t+` WHERE "id" = `+b.bind(id), b.args...); err != nil {
		return fmt.Errorf("deleting %s %s: %w", table, id, err)
	}
	return nil
}

// Upsert inserts row or, when a row with the same conflict columns exists,
// updates its remaining columns. The id of an existing row is preserved.
func (s *Store) Upsert(ctx context.Context, table string, row types.Row, conflict []string) (types.Row, error) {
	if len(conflict) == 0 {
		return nil, fmt.Errorf("%w: upsert needs a conflict target", types.ErrInvalidData)
	}
	for _, c := range conflict {
		if _, ok := row[c]; !ok {
			return nil, fmt.Errorf("%w: conflict column %q missing from row", types.ErrInvalidData, c)
		}
	}
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	row = copyRow(row)
	if id, ok := row[types.ColumnID]; !ok || id == nil || id == "" {
		row[types.ColumnID] = s.newID()
	}
	query, args, err := s.insertSQL(table, row)
	if err != nil {
		return nil, err
	}

	target := make([]string, len(conflict))
	inTarget := make(map[string]bool, len(conflict))
	for i, c := range conflict {
		qc, err := quote(c)
		if err != nil {
			return nil, err
		}
		target[i] = qc
		inTarget[c] = true
	}
	var sets []string
	for _, col := range sortedKeys(row) {
		if inTarget[col] || col == types.ColumnID {
			continue
		}
		qc, _ := quote(col)
		sets = append(sets, qc+" = excluded."+qc)
	}
	if len(sets) == 0 {
		// DO NOTHING would return no row; a self-assignment keeps RETURNING populated.
		sets = append(sets, target[0]+" = excluded."+target[0])
	}
	query += " ON CONFLICT (" + strings.Join(target, ", ") + ") DO UPDATE SET " +
		strings.Join(sets, ", ") + " RETURNING *"

	out, err := s.queryOne(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("upserting into %s: %w", table, err)
	}
	return out, nil
}

func (s *Store) insertSQL(table string, row types.Row) (string, []any, error) {
	t, err := quote(table)
	if err != nil {
		return "", nil, err
	}
	b := builder{dialect: s.dialect}
	cols := sortedKeys(row)
	quoted := make([]string, len(cols))
	binds := make([]string, len(cols))
	for i, col := range cols {
		if quoted[i], err = quote(col); err != nil {
			return "", nil, err
		}
		binds[i] = b.bind(row[col])
	}
	query := "INSERT INTO " + t + " (" + strings.Join(quoted, ", ") + ") VALUES (" + strings.Join(binds, ", ") + ")"
	return query, b.args, nil
}

// queryOne runs a statement with RETURNING and returns its single row.
// Returns ErrNotFound when the statement affected no row.
func (s *Store) queryOne(ctx context.Context, query string, args []any) (types.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	result, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, types.ErrNotFound
	}
	return result[0], nil
}

func (s *Store) withJoin(ctx context.Context, row types.Row, join *types.Join) (types.Row, error) {
	if join == nil {
		return row, nil
	}
	rows := []types.Row{row}
	if err := s.embedJoin(ctx, rows, join); err != nil {
		return nil, err
	}
	return rows[0], nil
}

// embedJoin loads the joined rows referenced by rows in one query and stores
// each under join.As.
func (s *Store) embedJoin(ctx context.Context, rows []types.Row, join *types.Join) error {
	t, err := quote(join.Table)
	if err != nil {
		return err
	}
	b := builder{dialect: s.dialect}
	seen := make(map[string]bool)
	var binds []string
	for _, r := range rows {
		fk := r[join.ForeignKey]
		if fk == nil {
			continue
		}
		key := fmt.Sprint(fk)
		if seen[key] {
			continue
		}
		seen[key] = true
		binds = append(binds, b.bind(fk))
	}

	byID := make(map[string]types.Row)
	if len(binds) > 0 {
		query := "SELECT * FROM " + t + ` WHERE "id" IN (` + strings.Join(binds, ", ") + ")"
		qr, err := s.db.QueryContext(ctx, query, b.args...)
		if err != nil {
			return fmt.Errorf("joining %s: %w", join.Table, err)
		}
		joined, err := scanRows(qr)
		if err != nil {
			return fmt.Errorf("joining %s: %w", join.Table, err)
		}
		for _, j := range joined {
			byID[fmt.Sprint(j[types.ColumnID])] = j
		}
	}

	for _, r := range rows {
		var embedded any
		if fk := r[join.ForeignKey]; fk != nil {
			if j, ok := byID[fmt.Sprint(fk)]; ok {
				embedded = j
			}
		}
		r[join.As] = embedded
	}
	return nil
}

// scanRows reads every row into a types.Row and closes rows. Byte slices are
// copied into strings since the driver may reuse them.
func scanRows(rows *sql.Rows) ([]types.Row, error) {
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	result := []types.Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		r := make(types.Row, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				r[c] = string(b)
				continue
			}
			r[c] = vals[i]
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func selectColumns(q types.Query) (string, error) {
	if len(q.Columns) == 0 {
		return "*", nil
	}
	cols := append([]string(nil), q.Columns...)
	if q.Join != nil && !contains(cols, q.Join.ForeignKey) {
		cols = append(cols, q.Join.ForeignKey)
	}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		qc, err := quote(c)
		if err != nil {
			return "", err
		}
		quoted[i] = qc
	}
	return strings.Join(quoted, ", "), nil
}

func copyRow(row types.Row) types.Row {
	out := make(types.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

func sortedKeys(row types.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
