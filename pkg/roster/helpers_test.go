package roster

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/fieldbook/internal/sqlite"
	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

// fixedNow is the clock every test roster uses.
var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

// faultStore wraps a real store, counts calls per operation and fails the
// operations listed in fail.
type faultStore struct {
	types.RemoteStore

	mu     sync.Mutex
	fail   map[string]error
	calls  map[string]int
	before func(op string)
}

func (f *faultStore) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *faultStore) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *faultStore) hit(op string) error {
	f.mu.Lock()
	f.calls[op]++
	err := f.fail[op]
	hook := f.before
	f.mu.Unlock()
	if hook != nil {
		hook(op)
	}
	return err
}

func (f *faultStore) Select(ctx context.Context, table string, q types.Query) ([]types.Row, error) {
	if err := f.hit("select"); err != nil {
		return nil, err
	}
	return f.RemoteStore.Select(ctx, table, q)
}

func (f *faultStore) Insert(ctx context.Context, table string, row types.Row, join *types.Join) (types.Row, error) {
	if err := f.hit("insert"); err != nil {
		return nil, err
	}
	return f.RemoteStore.Insert(ctx, table, row, join)
}

func (f *faultStore) Update(ctx context.Context, table, id string, patch types.Row, join *types.Join) (types.Row, error) {
	if err := f.hit("update"); err != nil {
		return nil, err
	}
	return f.RemoteStore.Update(ctx, table, id, patch, join)
}

func (f *faultStore) Delete(ctx context.Context, table, id string) error {
	if err := f.hit("delete"); err != nil {
		return err
	}
	return f.RemoteStore.Delete(ctx, table, id)
}

func (f *faultStore) Upsert(ctx context.Context, table string, row types.Row, conflict []string) (types.Row, error) {
	if err := f.hit("upsert"); err != nil {
		return nil, err
	}
	return f.RemoteStore.Upsert(ctx, table, row, conflict)
}

// setupRoster attaches a SQLite backend in a temp directory and builds a
// roster for schema over a faultStore wrapping it.
func setupRoster(t *testing.T, schema types.Schema) (*Roster, *faultStore) {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	store, err := b.Store()
	require.NoError(t, err)
	fs := &faultStore{RemoteStore: store, fail: map[string]error{}, calls: map[string]int{}}

	r, err := New(fs, schema,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, err)
	return r, fs
}

// mustCreateEntity creates an entity through the roster or fails the test.
func mustCreateEntity(t *testing.T, r *Roster, name string, position int) *types.Entity {
	t.Helper()
	e, err := r.CreateEntity(context.Background(), types.Row{"name": name, "position": position})
	require.NoError(t, err)
	return e
}

// mustCreateField creates a text field definition through the roster.
func mustCreateField(t *testing.T, r *Roster, name string, position int) *types.FieldDefinition {
	t.Helper()
	f, err := r.CreateFieldDefinition(context.Background(), types.Row{
		"name": name, "type": types.FieldTypeText, "position": position,
	})
	require.NoError(t, err)
	return f
}

func entityIDs(es []*types.Entity) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}
