package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

// ApplySchema executes every statement of ddl in order. Statements are
// separated by semicolons and must not contain one themselves.
func ApplySchema(ctx context.Context, db *sql.DB, ddl string) error {
	for _, stmt := range strings.Split(ddl, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

// defaultStatus describes a status seeded on first startup.
type defaultStatus struct {
	label string
	color string
}

// defaultStatuses are seeded, in order, into an empty status table.
var defaultStatuses = []defaultStatus{
	{"Lead", "#9ca3af"},
	{"Active", "#16a34a"},
	{"Inactive", "#dc2626"},
}

// SeedStatuses fills statusTable with the default statuses when it is empty.
// Idempotent: a table with any row is left alone.
func SeedStatuses(ctx context.Context, db *sql.DB, dialect Dialect, statusTable string) error {
	t, err := quote(statusTable)
	if err != nil {
		return err
	}
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t).Scan(&count); err != nil {
		return fmt.Errorf("counting %s: %w", statusTable, err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	now := types.FormatTime(time.Now())
	for i, ds := range defaultStatuses {
		b := builder{dialect: dialect}
		query := "INSERT INTO " + t + ` ("id", "label", "color", "position", "created_at") VALUES (` +
			strings.Join([]string{b.bind(newUUID()), b.bind(ds.label), b.bind(ds.color), b.bind(i), b.bind(now)}, ", ") + ")"
		if _, err := tx.ExecContext(ctx, query, b.args...); err != nil {
			return fmt.Errorf("seeding status %s: %w", ds.label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed transaction: %w", err)
	}
	return nil
}
