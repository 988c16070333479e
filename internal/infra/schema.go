package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Schema statements applied at startup. Both tables are append-only, so
// idempotent CREATEs are all the migration story this service needs.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS generations (
	id            uuid PRIMARY KEY,
	owner_id      text NOT NULL,
	content_type  text NOT NULL,
	title         text NOT NULL,
	prompt        text NOT NULL,
	spec          jsonb,
	storage_paths text[] NOT NULL DEFAULT '{}',
	display_urls  text[] NOT NULL DEFAULT '{}',
	status        text NOT NULL,
	metadata      jsonb,
	created_at    timestamptz NOT NULL DEFAULT now()
);`,
	`CREATE INDEX IF NOT EXISTS idx_generations_owner_type_created
	ON generations (owner_id, content_type, created_at DESC);`,
	`CREATE TABLE IF NOT EXISTS library_items (
	id           uuid PRIMARY KEY,
	owner_id     text NOT NULL,
	content_type text NOT NULL,
	content_id   uuid NOT NULL,
	date_added   timestamptz NOT NULL DEFAULT now(),
	UNIQUE (owner_id, content_type, content_id)
);`,
	`CREATE INDEX IF NOT EXISTS idx_library_items_owner_added
	ON library_items (owner_id, date_added DESC);`,
}

// EnsureSchema applies the schema statements in order.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	logger.Info().Int("statements", len(schemaStatements)).Msg("database schema ensured")
	return nil
}
