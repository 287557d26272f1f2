package docsystem

import (
	"context"
	"fmt"
	"log/slog"

	"scandeck/internal/domain"
	models "scandeck/internal/domain/models/docsystem"
	docsysRepo "scandeck/internal/domain/repositories/docsystem"

	"scandeck/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresTagRepository implements the TagRepository interface
type PostgresTagRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewTagRepository creates a new tag repository
func NewTagRepository(config *postgres.RepositoryConfig) docsysRepo.TagRepository {
	return &PostgresTagRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a tag
func (r *PostgresTagRepository) Create(ctx context.Context, tag *models.Tag, ownerID string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, name, color)
		VALUES ($1, $2, $3)
		RETURNING id
	`, r.tables.Tags)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, ownerID, tag.Name, tag.Color).Scan(&tag.ID)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("tag '%s' already exists", tag.Name),
				ResourceType: "tag",
			}
		}
		return fmt.Errorf("create tag: %w", err)
	}

	return nil
}

// Assign links a tag to a document. Existing links are left alone.
func (r *PostgresTagRepository) Assign(ctx context.Context, documentID, tagID string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (document_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, r.tables.DocumentTags)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, documentID, tagID); err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("assign tag: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("assign tag: %w", err)
	}
	return nil
}

// ListByDocuments returns tags grouped by document id, each group ordered by name
func (r *PostgresTagRepository) ListByDocuments(ctx context.Context, documentIDs []string) (map[string][]models.Tag, error) {
	out := make(map[string][]models.Tag, len(documentIDs))
	if len(documentIDs) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(`
		SELECT dt.document_id, t.id, t.name, t.color
		FROM %s dt
		JOIN %s t ON t.id = dt.tag_id
		WHERE dt.document_id = ANY($1)
		ORDER BY t.name
	`, r.tables.DocumentTags, r.tables.Tags)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var docID string
		var tag models.Tag
		if err := rows.Scan(&docID, &tag.ID, &tag.Name, &tag.Color); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out[docID] = append(out[docID], tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tags: %w", err)
	}

	return out, nil
}
