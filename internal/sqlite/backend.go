// Package sqlite implements the SQLite backend for fieldbook. One database
// file holds the tables of every schema preset.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/fieldbook/internal/sqlstore"
	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// DBFileName is the database file created inside Config.DataDir.
const DBFileName = "fieldbook.db"

var _ types.Backend = (*Backend)(nil)

// Backend implements types.Backend on a local SQLite file.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	store    *sqlstore.Store
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens <DataDir>/fieldbook.db, creating DataDir if needed, applies
// the schema and seeds the default statuses on first run.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	dsn := "file:" + filepath.Join(dataDir, DBFileName) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}

	ctx := context.Background()
	if err := sqlstore.ApplySchema(ctx, db, schemaSQL); err != nil {
		db.Close()
		return err
	}
	if err := sqlstore.SeedStatuses(ctx, db, sqlstore.SQLite, types.AccountsSchema.StatusTable); err != nil {
		db.Close()
		return err
	}

	b.store = sqlstore.New(db, sqlstore.SQLite)
	b.config = config
	b.attached = true
	return nil
}

// Store returns the attached store.
// Returns ErrStoreClosed if the backend is not attached.
func (b *Backend) Store() (types.RemoteStore, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreClosed
	}
	return b.store, nil
}

// DB exposes the database handle of an attached backend, or nil.
func (b *Backend) DB() *sql.DB {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.store == nil {
		return nil
	}
	return b.store.DB()
}

// Detach closes the database. Idempotent. Stores handed out before Detach
// return ErrStoreClosed from then on.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	err := b.store.Close()
	b.store = nil
	return err
}
