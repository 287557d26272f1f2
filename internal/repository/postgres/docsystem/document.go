package docsystem

import (
	"context"
	"fmt"
	"log/slog"

	"scandeck/internal/domain"
	models "scandeck/internal/domain/models/docsystem"
	docsysRepo "scandeck/internal/domain/repositories/docsystem"

	"scandeck/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const documentColumns = `id, owner_id, folder_id, title, file_path, file_size, page_count,
	mime_type, ocr_text, thumbnail_path, is_favorite, created_at, updated_at`

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) docsysRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, folder_id, title, file_path, file_size, page_count,
			mime_type, ocr_text, thumbnail_path, is_favorite, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.OwnerID,
		doc.FolderID,
		doc.Title,
		doc.FilePath,
		doc.FileSize,
		doc.PageCount,
		doc.MimeType,
		doc.OCRText,
		doc.ThumbnailPath,
		doc.IsFavorite,
		doc.CreatedAt,
		doc.UpdatedAt,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("folder for document '%s': %w", doc.Title, domain.ErrNotFound)
		}
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id, ownerID string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND owner_id = $2
	`, documentColumns, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

// List returns every document of the owner
func (r *PostgresDocumentRepository) List(ctx context.Context, ownerID string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, documentColumns, r.tables.Documents)

	return r.queryDocuments(ctx, query, ownerID)
}

// ListFavorites returns favorite documents
func (r *PostgresDocumentRepository) ListFavorites(ctx context.Context, ownerID string) ([]models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1 AND is_favorite
		ORDER BY created_at DESC
	`, documentColumns, r.tables.Documents)

	return r.queryDocuments(ctx, query, ownerID)
}

// ListByFolder lists documents directly inside a folder
func (r *PostgresDocumentRepository) ListByFolder(ctx context.Context, folderID *string, ownerID string) ([]models.Document, error) {
	if folderID == nil {
		query := fmt.Sprintf(`
			SELECT %s
			FROM %s
			WHERE owner_id = $1 AND folder_id IS NULL
			ORDER BY created_at DESC
		`, documentColumns, r.tables.Documents)
		return r.queryDocuments(ctx, query, ownerID)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1 AND folder_id = $2
		ORDER BY created_at DESC
	`, documentColumns, r.tables.Documents)
	return r.queryDocuments(ctx, query, ownerID, *folderID)
}

// ListIDsByFolders returns ids of documents inside any of folderIDs
func (r *PostgresDocumentRepository) ListIDsByFolders(ctx context.Context, folderIDs []string, ownerID string) ([]string, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id
		FROM %s
		WHERE owner_id = $1 AND folder_id = ANY($2)
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ownerID, folderIDs)
	if err != nil {
		return nil, fmt.Errorf("list document ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan document ids: %w", err)
	}
	return ids, nil
}

// Update writes the mutable fields of doc
func (r *PostgresDocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, folder_id = $2, ocr_text = $3, is_favorite = $4, updated_at = NOW()
		WHERE id = $5 AND owner_id = $6
		RETURNING updated_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		doc.Title,
		doc.FolderID,
		doc.OCRText,
		doc.IsFavorite,
		doc.ID,
		doc.OwnerID,
	).Scan(&doc.UpdatedAt)

	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
		}
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("target folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("update document: %w", err)
	}

	return nil
}

// SetFolder moves a document
func (r *PostgresDocumentRepository) SetFolder(ctx context.Context, id string, folderID *string, ownerID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = $1, updated_at = NOW()
		WHERE id = $2 AND owner_id = $3
	`, r.tables.Documents)

	return r.execOne(ctx, "move document", id, query, folderID, id, ownerID)
}

// SetFavorite sets the favorite flag
func (r *PostgresDocumentRepository) SetFavorite(ctx context.Context, id string, favorite bool, ownerID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_favorite = $1, updated_at = NOW()
		WHERE id = $2 AND owner_id = $3
	`, r.tables.Documents)

	return r.execOne(ctx, "set favorite", id, query, favorite, id, ownerID)
}

// SetOCRText replaces the recognised text
func (r *PostgresDocumentRepository) SetOCRText(ctx context.Context, id string, text *string, ownerID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET ocr_text = $1, updated_at = NOW()
		WHERE id = $2 AND owner_id = $3
	`, r.tables.Documents)

	return r.execOne(ctx, "update ocr text", id, query, text, id, ownerID)
}

// DeleteMany removes documents and returns the deleted rows so callers can
// remove their files
func (r *PostgresDocumentRepository) DeleteMany(ctx context.Context, ids []string, ownerID string) ([]models.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE owner_id = $1 AND id = ANY($2)
		RETURNING %s
	`, r.tables.Documents, documentColumns)

	return r.queryDocuments(ctx, query, ownerID, ids)
}

// ClearFolder promotes the documents of folderIDs to the root
func (r *PostgresDocumentRepository) ClearFolder(ctx context.Context, folderIDs []string, ownerID string) error {
	if len(folderIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = NULL, updated_at = NOW()
		WHERE owner_id = $1 AND folder_id = ANY($2)
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ownerID, folderIDs); err != nil {
		return fmt.Errorf("clear folder: %w", err)
	}
	return nil
}

func (r *PostgresDocumentRepository) execOne(ctx context.Context, op, id, query string, args ...interface{}) error {
	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, args...)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return fmt.Errorf("%s: target folder: %w", op, domain.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *PostgresDocumentRepository) queryDocuments(ctx context.Context, query string, args ...interface{}) ([]models.Document, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

func scanDocument(row pgx.Row) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(
		&doc.ID,
		&doc.OwnerID,
		&doc.FolderID,
		&doc.Title,
		&doc.FilePath,
		&doc.FileSize,
		&doc.PageCount,
		&doc.MimeType,
		&doc.OCRText,
		&doc.ThumbnailPath,
		&doc.IsFavorite,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
