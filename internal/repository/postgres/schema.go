package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaStatements returns the DDL for every table, in dependency order
func SchemaStatements(t *TableNames) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id TEXT NOT NULL,
			parent_id UUID REFERENCES %s(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			color VARCHAR(9),
			is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, t.Folders, t.Folders),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_owner_idx ON %s (owner_id)`, t.Folders, t.Folders),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id TEXT NOT NULL,
			folder_id UUID REFERENCES %s(id) ON DELETE SET NULL,
			title VARCHAR(255) NOT NULL,
			file_path TEXT NOT NULL,
			file_size BIGINT NOT NULL DEFAULT 0,
			page_count INTEGER NOT NULL DEFAULT 1,
			mime_type VARCHAR(127),
			ocr_text TEXT,
			thumbnail_path TEXT,
			is_favorite BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, t.Documents, t.Folders),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_owner_folder_idx ON %s (owner_id, folder_id)`, t.Documents, t.Documents),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id TEXT NOT NULL,
			name VARCHAR(100) NOT NULL,
			color VARCHAR(9) NOT NULL DEFAULT '#FF9E9E9E',
			UNIQUE (owner_id, name)
		)`, t.Tags),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			document_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			tag_id UUID NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
			PRIMARY KEY (document_id, tag_id)
		)`, t.DocumentTags, t.Documents, t.Tags),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			owner_id TEXT NOT NULL,
			label VARCHAR(100) NOT NULL,
			is_default BOOLEAN NOT NULL DEFAULT FALSE,
			image_path TEXT NOT NULL,
			size_bytes BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, t.Signatures),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s_one_default_idx ON %s (owner_id) WHERE is_default`, t.Signatures, t.Signatures),
	}
}

// SchemaManager creates tables on first use
type SchemaManager struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger

	mu    sync.Mutex
	ready bool
}

// NewSchemaManager creates a schema manager
func NewSchemaManager(config *RepositoryConfig) *SchemaManager {
	return &SchemaManager{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// EnsureSchema runs the DDL once per process. A failed attempt is retried on
// the next call.
func (m *SchemaManager) EnsureSchema(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ready {
		return nil
	}
	if err := ApplySchema(ctx, m.pool, m.tables); err != nil {
		return err
	}
	m.ready = true
	m.logger.Debug("schema ready", "documents", m.tables.Documents)
	return nil
}

// ApplySchema executes every statement in one transaction
func ApplySchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, stmt := range SchemaStatements(tables) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
