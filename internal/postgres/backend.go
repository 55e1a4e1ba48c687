// Package postgres implements the Postgres backend for fieldbook, reached
// through pgx's database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/mesh-intelligence/fieldbook/internal/sqlstore"
	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

const (
	defaultDriver = "pgx"
	// DefaultDSN is used when Config.DSN is empty.
	DefaultDSN = "postgres://localhost/fieldbook?sslmode=disable"
)

var sqlOpen = sql.Open

var _ types.Backend = (*Backend)(nil)

// Backend implements types.Backend on a Postgres database.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	store    *sqlstore.Store
}

// NewBackend creates a new Postgres backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach connects to Config.DSN (or DefaultDSN), applies the schema and
// seeds the default statuses on first run.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	dsn := config.DSN
	if dsn == "" {
		dsn = DefaultDSN
	}

	db, err := sqlOpen(defaultDriver, dsn)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	if err := sqlstore.ApplySchema(ctx, db, schemaSQL); err != nil {
		db.Close()
		return err
	}
	if err := sqlstore.SeedStatuses(ctx, db, sqlstore.Postgres, types.AccountsSchema.StatusTable); err != nil {
		db.Close()
		return err
	}

	b.store = sqlstore.New(db, sqlstore.Postgres)
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

// Detach closes the connection pool. Idempotent.
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
