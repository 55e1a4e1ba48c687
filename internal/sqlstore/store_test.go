package sqlstore

import (
	"context"
	"database/sql"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

const testDDL = `
CREATE TABLE statuses (
    id TEXT PRIMARY KEY,
    label TEXT NOT NULL,
    color TEXT,
    position INTEGER NOT NULL DEFAULT 0,
    created_at TEXT
);
CREATE TABLE things (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    status_id TEXT REFERENCES statuses(id) ON DELETE SET NULL,
    position INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE marks (
    id TEXT PRIMARY KEY,
    thing_id TEXT NOT NULL,
    field_id TEXT NOT NULL,
    value TEXT,
    UNIQUE (thing_id, field_id)
)`

var statusJoin = &types.Join{Table: "statuses", ForeignKey: "status_id", As: "statuses"}

func setupStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, ApplySchema(context.Background(), db, testDDL))

	s := New(db, SQLite)
	n := 0
	s.newID = func() string {
		n++
		return "id-" + strconv.Itoa(n)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustInsert(t *testing.T, s *Store, table string, row types.Row) types.Row {
	t.Helper()
	out, err := s.Insert(context.Background(), table, row, nil)
	require.NoError(t, err)
	return out
}

func TestSelect(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	mustInsert(t, s, "statuses", types.Row{"id": "s1", "label": "Lead"})
	mustInsert(t, s, "things", types.Row{"name": "c", "position": 2, "status_id": "s1"})
	mustInsert(t, s, "things", types.Row{"name": "a", "position": 0})
	mustInsert(t, s, "things", types.Row{"name": "b", "position": 1, "status_id": "s1"})

	names := func(rows []types.Row) []any {
		out := make([]any, len(rows))
		for i, r := range rows {
			out[i] = r["name"]
		}
		return out
	}

	tests := []struct {
		name  string
		query types.Query
		want  []any
	}{
		{"order ascending", types.Query{OrderBy: "position"}, []any{"a", "b", "c"}},
		{"order descending", types.Query{OrderBy: "position", Descending: true}, []any{"c", "b", "a"}},
		{"equality filter", types.Query{Filters: map[string]any{"status_id": "s1"}, OrderBy: "position"}, []any{"b", "c"}},
		{"nil filter matches null", types.Query{Filters: map[string]any{"status_id": nil}}, []any{"a"}},
		{"no match", types.Query{Filters: map[string]any{"name": "zzz"}}, []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := s.Select(ctx, "things", tt.query)
			require.NoError(t, err)
			assert.NotNil(t, rows)
			assert.Equal(t, tt.want, names(rows))
		})
	}

	t.Run("join embeds the referenced row or nil", func(t *testing.T) {
		rows, err := s.Select(ctx, "things", types.Query{Join: statusJoin, OrderBy: "position"})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Nil(t, rows[0]["statuses"])
		joined, ok := rows[1]["statuses"].(types.Row)
		require.True(t, ok)
		assert.Equal(t, "Lead", joined["label"])
	})

	t.Run("columns restrict the result and keep the join key", func(t *testing.T) {
		rows, err := s.Select(ctx, "things", types.Query{Columns: []string{"name"}, Join: statusJoin, OrderBy: "position"})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.NotContains(t, rows[0], "position")
		assert.Contains(t, rows[0], "status_id")
		assert.NotNil(t, rows[2]["statuses"])
	})

	t.Run("identifiers are validated", func(t *testing.T) {
		_, err := s.Select(ctx, "things; drop table things", types.Query{})
		assert.ErrorIs(t, err, types.ErrInvalidTable)
		_, err = s.Select(ctx, "things", types.Query{OrderBy: `name"`})
		assert.ErrorIs(t, err, types.ErrInvalidTable)
		_, err = s.Select(ctx, "things", types.Query{Filters: map[string]any{"Name": "a"}})
		assert.ErrorIs(t, err, types.ErrInvalidTable)
	})
}

func TestInsert(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	mustInsert(t, s, "statuses", types.Row{"id": "s1", "label": "Lead"})

	t.Run("fills a missing id and returns the stored row", func(t *testing.T) {
		row := types.Row{"name": "x"}
		out, err := s.Insert(ctx, "things", row, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, out["id"])
		assert.EqualValues(t, 0, out["position"], "column default is returned")
		assert.NotContains(t, row, "id", "the caller's row is not modified")
	})

	t.Run("keeps a given id and embeds the join", func(t *testing.T) {
		out, err := s.Insert(ctx, "things", types.Row{"id": "mine", "name": "y", "status_id": "s1"}, statusJoin)
		require.NoError(t, err)
		assert.Equal(t, "mine", out["id"])
		require.IsType(t, types.Row{}, out["statuses"])
		assert.Equal(t, "s1", out["statuses"].(types.Row)["id"])
	})

	t.Run("constraint violations are returned", func(t *testing.T) {
		_, err := s.Insert(ctx, "things", types.Row{"id": "mine", "name": "dup"}, nil)
		assert.Error(t, err)
		_, err = s.Insert(ctx, "things", types.Row{"name": "z", "status_id": "missing"}, nil)
		assert.Error(t, err)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	mustInsert(t, s, "statuses", types.Row{"id": "s1", "label": "Lead"})
	thing := mustInsert(t, s, "things", types.Row{"name": "x"})
	id := thing["id"].(string)

	out, err := s.Update(ctx, "things", id, types.Row{"name": "renamed", "status_id": "s1", "id": "ignored"}, statusJoin)
	require.NoError(t, err)
	assert.Equal(t, id, out["id"])
	assert.Equal(t, "renamed", out["name"])
	assert.NotNil(t, out["statuses"])

	_, err = s.Update(ctx, "things", "nope", types.Row{"name": "x"}, nil)
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = s.Update(ctx, "things", id, types.Row{"id": "only"}, nil)
	assert.ErrorIs(t, err, types.ErrInvalidData)
	_, err = s.Update(ctx, "things", "", types.Row{"name": "x"}, nil)
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	mustInsert(t, s, "statuses", types.Row{"id": "s1", "label": "Lead"})
	thing := mustInsert(t, s, "things", types.Row{"name": "x", "status_id": "s1"})

	require.NoError(t, s.Delete(ctx, "statuses", "s1"))
	rows, err := s.Select(ctx, "things", types.Query{})
	require.NoError(t, err)
	assert.Nil(t, rows[0]["status_id"], "foreign key is set to null")

	require.NoError(t, s.Delete(ctx, "things", thing["id"].(string)))
	assert.NoError(t, s.Delete(ctx, "things", thing["id"].(string)), "deleting a gone row succeeds")
	rows, err = s.Select(ctx, "things", types.Query{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.ErrorIs(t, s.Delete(ctx, "things", ""), types.ErrInvalidID)
}

func TestUpsert(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	conflict := []string{"thing_id", "field_id"}

	first, err := s.Upsert(ctx, "marks", types.Row{"thing_id": "t", "field_id": "f", "value": "1"}, conflict)
	require.NoError(t, err)
	second, err := s.Upsert(ctx, "marks", types.Row{"thing_id": "t", "field_id": "f", "value": "2"}, conflict)
	require.NoError(t, err)

	assert.Equal(t, first["id"], second["id"], "existing row keeps its id")
	assert.Equal(t, "2", second["value"])

	rows, err := s.Select(ctx, "marks", types.Query{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	t.Run("conflict columns only", func(t *testing.T) {
		out, err := s.Upsert(ctx, "marks", types.Row{"thing_id": "t", "field_id": "f"}, conflict)
		require.NoError(t, err)
		assert.Equal(t, first["id"], out["id"])
	})

	t.Run("bad conflict target", func(t *testing.T) {
		_, err := s.Upsert(ctx, "marks", types.Row{"thing_id": "t"}, nil)
		assert.ErrorIs(t, err, types.ErrInvalidData)
		_, err = s.Upsert(ctx, "marks", types.Row{"thing_id": "t"}, conflict)
		assert.ErrorIs(t, err, types.ErrInvalidData)
	})
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Select(ctx, "things", types.Query{})
	assert.ErrorIs(t, err, types.ErrStoreClosed)
	_, err = s.Insert(ctx, "things", types.Row{"name": "x"}, nil)
	assert.ErrorIs(t, err, types.ErrStoreClosed)
	_, err = s.Update(ctx, "things", "id", types.Row{"name": "x"}, nil)
	assert.ErrorIs(t, err, types.ErrStoreClosed)
	assert.ErrorIs(t, s.Delete(ctx, "things", "id"), types.ErrStoreClosed)
	_, err = s.Upsert(ctx, "marks", types.Row{"thing_id": "t", "field_id": "f"}, []string{"thing_id", "field_id"})
	assert.ErrorIs(t, err, types.ErrStoreClosed)
}

func TestPlaceholders(t *testing.T) {
	b := builder{dialect: Postgres}
	where, err := b.where(map[string]any{"b": 2, "a": 1, "c": nil})
	require.NoError(t, err)
	assert.Equal(t, ` WHERE "a" = $1 AND "b" = $2 AND "c" IS NULL`, where)
	assert.Equal(t, []any{1, 2}, b.args)

	b = builder{dialect: SQLite}
	assert.Equal(t, "?", b.bind("x"))
	assert.Equal(t, "?", b.bind("y"))
}

func TestSeedStatuses(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	require.NoError(t, SeedStatuses(ctx, s.DB(), SQLite, "statuses"))
	require.NoError(t, SeedStatuses(ctx, s.DB(), SQLite, "statuses"))

	rows, err := s.Select(ctx, "statuses", types.Query{OrderBy: "position"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Lead", rows[0]["label"])
	assert.Equal(t, "Inactive", rows[2]["label"])

	assert.ErrorIs(t, SeedStatuses(ctx, s.DB(), SQLite, "Bad Name"), types.ErrInvalidTable)
}
