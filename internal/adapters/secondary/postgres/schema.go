// Package postgres implements the repository ports on a pgx connection pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS dataset (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		columns    JSONB NOT NULL,
		row_count  INTEGER NOT NULL,
		size_bytes BIGINT NOT NULL,
		data       BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS emulator (
		id                UUID PRIMARY KEY,
		name              TEXT NOT NULL UNIQUE,
		dataset           TEXT NOT NULL,
		inputs            JSONB NOT NULL,
		outputs           JSONB NOT NULL,
		params            JSONB NOT NULL,
		status            TEXT NOT NULL,
		error             TEXT NOT NULL DEFAULT '',
		artifact          JSONB,
		created_at        TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL,
		trained_at        TIMESTAMPTZ,
		train_duration_ms BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_emulator_dataset ON emulator (dataset)`,
	`CREATE INDEX IF NOT EXISTS idx_emulator_status ON emulator (status)`,
}

// CreateSchema brings up the tables on a fresh database. Every statement is
// idempotent, so running it on each start is safe.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
