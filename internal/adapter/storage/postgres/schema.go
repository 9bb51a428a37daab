package postgres

import (
	"context"
	"fmt"
)

// schema holds the DDL for the ledger's storage model. Records live as JSONB
// documents keyed by (collection, id); balances and the append-only logs get
// their own tables.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS ledger_state (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		record JSONB NOT NULL,
		PRIMARY KEY (collection, id)
	)`,
	`CREATE TABLE IF NOT EXISTS settlement_balances (
		account TEXT PRIMARY KEY,
		balance BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS trade_log (
		id TEXT PRIMARY KEY,
		record JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS activity_log (
		id TEXT PRIMARY KEY,
		record JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tx_replay (
		tx_id TEXT PRIMARY KEY,
		response BYTEA NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate applies the schema. Statements are idempotent, so running it on
// every startup is safe.
func Migrate(ctx context.Context, pool Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
