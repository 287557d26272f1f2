// Package sqlite stores per-user browser preferences in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"scandeck/internal/domain/models"
	"scandeck/internal/domain/repositories"
)

// PreferencesRepository implements repositories.PreferencesRepository
type PreferencesRepository struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open initializes the database connection and schema. Use ":memory:" for an
// ephemeral store.
func Open(dbPath string, logger *slog.Logger) (*PreferencesRepository, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create preferences directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open preferences db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	// WAL allows readers alongside the writer; NORMAL sync is safe against app crashes
	pragmas := []string{"PRAGMA journal_mode=WAL;", "PRAGMA synchronous=NORMAL;"}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS browser_preferences (
		user_id TEXT PRIMARY KEY,
		view_mode TEXT NOT NULL DEFAULT '',
		documents_sort_by TEXT NOT NULL DEFAULT '',
		signatures_sort TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create preferences schema: %w", err)
	}

	return &PreferencesRepository{conn: db, logger: logger}, nil
}

var _ repositories.PreferencesRepository = (*PreferencesRepository)(nil)

// Get returns stored preferences, zero values when the user has none
func (r *PreferencesRepository) Get(ctx context.Context, userID string) (*models.BrowserPreferences, error) {
	prefs := &models.BrowserPreferences{UserID: userID}

	row := r.conn.QueryRowContext(ctx, `
		SELECT view_mode, documents_sort_by, signatures_sort, updated_at
		FROM browser_preferences
		WHERE user_id = ?
	`, userID)

	err := row.Scan(&prefs.ViewMode, &prefs.DocumentsSortBy, &prefs.SignaturesSort, &prefs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return prefs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return prefs, nil
}

// preferenceColumns maps keys to columns. Keys are never interpolated directly.
var preferenceColumns = map[models.PreferenceKey]string{
	models.PreferenceViewMode:        "view_mode",
	models.PreferenceDocumentsSortBy: "documents_sort_by",
	models.PreferenceSignaturesSort:  "signatures_sort",
}

// Set upserts one column in a single statement so concurrent writers of
// different keys do not overwrite each other
func (r *PreferencesRepository) Set(ctx context.Context, userID string, key models.PreferenceKey, value string) error {
	column, ok := preferenceColumns[key]
	if !ok {
		return fmt.Errorf("unknown preference %q", key)
	}

	query := fmt.Sprintf(`
		INSERT INTO browser_preferences (user_id, %[1]s, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			%[1]s = excluded.%[1]s,
			updated_at = excluded.updated_at
	`, column)

	if _, err := r.conn.ExecContext(ctx, query, userID, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("save preference %s: %w", key, err)
	}

	r.logger.Debug("preference saved", "user_id", userID, "key", key, "value", value)
	return nil
}

// Close closes the database
func (r *PreferencesRepository) Close() error {
	return r.conn.Close()
}
