package local

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migrations are additive only: later versions add tables or columns, never
// rewrite or drop what an earlier version created.
type migration struct {
	version    string
	statements []string
}

var migrations = []migration{
	{
		version: "001_initial",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS products (
				code TEXT PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				cost_krw INTEGER NOT NULL DEFAULT 0,
				price_php INTEGER NOT NULL DEFAULT 0,
				category TEXT NOT NULL DEFAULT '',
				gender TEXT NOT NULL DEFAULT '',
				type TEXT NOT NULL DEFAULT '',
				brand TEXT NOT NULL DEFAULT '',
				color TEXT NOT NULL DEFAULT '',
				serial TEXT NOT NULL DEFAULT '',
				total_stock INTEGER NOT NULL DEFAULT 0,
				free_gift INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);`,
			`CREATE TABLE IF NOT EXISTS inventory (
				code TEXT NOT NULL,
				size TEXT NOT NULL,
				stock_qty INTEGER NOT NULL DEFAULT 0,
				size_display TEXT NOT NULL DEFAULT '',
				PRIMARY KEY (code, size)
			);`,
			`CREATE TABLE IF NOT EXISTS code_parts (
				grp TEXT NOT NULL,
				code TEXT NOT NULL,
				label TEXT NOT NULL DEFAULT '',
				PRIMARY KEY (grp, code)
			);`,
			`CREATE TABLE IF NOT EXISTS sales (
				id TEXT PRIMARY KEY,
				code TEXT NOT NULL,
				name TEXT NOT NULL DEFAULT '',
				size TEXT NOT NULL DEFAULT '',
				size_display TEXT NOT NULL DEFAULT '',
				color TEXT NOT NULL DEFAULT '',
				qty INTEGER NOT NULL,
				unit_price_php INTEGER NOT NULL DEFAULT 0,
				original_price_php INTEGER NOT NULL DEFAULT 0,
				free_gift INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL
			);`,
			`CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales(created_at);`,
			`CREATE TABLE IF NOT EXISTS logs (
				id TEXT PRIMARY KEY,
				action TEXT NOT NULL,
				entity_type TEXT NOT NULL DEFAULT '',
				entity_id TEXT NOT NULL DEFAULT '',
				actor TEXT NOT NULL DEFAULT '',
				detail TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL
			);`,
		},
	},
	{
		version: "002_refunds",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS refunds (
				id TEXT PRIMARY KEY,
				sale_id TEXT NOT NULL,
				code TEXT NOT NULL,
				size TEXT NOT NULL DEFAULT '',
				qty INTEGER NOT NULL,
				amount_php INTEGER NOT NULL,
				reason TEXT NOT NULL,
				created_at DATETIME NOT NULL
			);`,
			`ALTER TABLE sales ADD COLUMN refunded_qty INTEGER NOT NULL DEFAULT 0;`,
			`ALTER TABLE sales ADD COLUMN refunded_php INTEGER NOT NULL DEFAULT 0;`,
			`ALTER TABLE sales ADD COLUMN refunded INTEGER NOT NULL DEFAULT 0;`,
		},
	},
	{
		version: "003_sale_groups",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS sale_groups (
				id TEXT PRIMARY KEY,
				guide_id TEXT NOT NULL DEFAULT '',
				commission_rate REAL NOT NULL DEFAULT 0,
				subtotal_php INTEGER NOT NULL DEFAULT 0,
				commission_php INTEGER NOT NULL DEFAULT 0,
				total_php INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				finalized_at DATETIME
			);`,
			`ALTER TABLE sales ADD COLUMN group_id TEXT NOT NULL DEFAULT '';`,
			`CREATE INDEX IF NOT EXISTS idx_sales_group_id ON sales(group_id);`,
		},
	},
}

// Migrate applies any pending schema versions, recording each in
// schema_migrations so reruns are no-ops.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var exists bool
		if err := db.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)`, m.version,
		); err != nil {
			return fmt.Errorf("check migration %s: %w", m.version, err)
		}
		if exists {
			continue
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.version, err)
		}
		for _, stmt := range m.statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("apply migration %s: %w", m.version, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations(version) VALUES (?)`, m.version,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.version, err)
		}
	}

	return nil
}
