package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// schemaStatements crea las tablas consumidas por los repositorios.
// bookmarks usa la pareja (companion_id, user_id) como clave para que el alta sea idempotente.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS companions (
		id         UUID PRIMARY KEY,
		author     TEXT NOT NULL,
		name       TEXT NOT NULL,
		subject    TEXT NOT NULL DEFAULT '',
		topic      TEXT NOT NULL DEFAULT '',
		voice      TEXT NOT NULL DEFAULT '',
		style      TEXT NOT NULL DEFAULT '',
		duration   INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS companions_author_idx ON companions (author)`,
	`CREATE TABLE IF NOT EXISTS session_history (
		id           UUID PRIMARY KEY,
		companion_id UUID NOT NULL REFERENCES companions (id) ON DELETE CASCADE,
		user_id      TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS session_history_user_created_idx ON session_history (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS bookmarks (
		companion_id UUID NOT NULL REFERENCES companions (id) ON DELETE CASCADE,
		user_id      TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (companion_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS bookmarks_user_idx ON bookmarks (user_id)`,
}

// Execer cubre tanto *pgxpool.Pool como pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// EnsureSchema crea las tablas si no existen. Pensado para desarrollo y tests de integracion;
// en produccion las migraciones se gestionan aparte.
func EnsureSchema(ctx context.Context, db Execer) error {
	for i, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema (statement %d): %w", i+1, err)
		}
	}
	return nil
}
