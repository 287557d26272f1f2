package docsystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"scandeck/internal/domain"
	models "scandeck/internal/domain/models/docsystem"
	"scandeck/internal/domain/repositories"
	docsysRepo "scandeck/internal/domain/repositories/docsystem"
	docsysSvc "scandeck/internal/domain/services/docsystem"
	"scandeck/internal/vault"
)

// Storage locates encrypted blobs and their transient plaintext copies
type Storage struct {
	DataDir string       // encrypted files live under DataDir/<owner>
	TempDir string       // decrypted thumbnails live under TempDir/<owner>
	Vault   *vault.Vault // seals every file at rest
}

func (s Storage) ownerDir(ownerID string) string {
	return filepath.Join(s.DataDir, ownerID)
}

func (s Storage) thumbnailCacheDir(ownerID string) string {
	return filepath.Join(s.TempDir, "scandeck-thumbnails", ownerID)
}

// documentService implements docsystem.DocumentRepository for one owner
type documentService struct {
	docRepo   docsysRepo.DocumentRepository
	tagRepo   docsysRepo.TagRepository
	schema    repositories.SchemaManager
	validator *ResourceValidator
	storage   Storage
	ownerID   string
	logger    *slog.Logger
}

// NewDocumentService creates the document store bound to ownerID
func NewDocumentService(
	docRepo docsysRepo.DocumentRepository,
	tagRepo docsysRepo.TagRepository,
	schema repositories.SchemaManager,
	validator *ResourceValidator,
	storage Storage,
	ownerID string,
	logger *slog.Logger,
) docsysSvc.DocumentRepository {
	return &documentService{
		docRepo:   docRepo,
		tagRepo:   tagRepo,
		schema:    schema,
		validator: validator,
		storage:   storage,
		ownerID:   ownerID,
		logger:    logger.With("owner_id", ownerID),
	}
}

// Initialize creates the schema and the owner's storage directories
func (s *documentService) Initialize(ctx context.Context) error {
	if err := s.schema.EnsureSchema(ctx); err != nil {
		return domain.E(domain.KindIOFailure, "documents.initialize", "database unavailable", err)
	}

	for _, dir := range []string{s.storage.ownerDir(s.ownerID), s.storage.thumbnailCacheDir(s.ownerID)} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return domain.E(domain.KindIOFailure, "documents.initialize", "cannot create storage directory", err)
		}
	}
	return nil
}

// GetAllDocuments returns every document of the owner
func (s *documentService) GetAllDocuments(ctx context.Context, includeTags bool) ([]models.Document, error) {
	docs, err := s.docRepo.List(ctx, s.ownerID)
	if err != nil {
		return nil, domain.Wrap("documents.list", err)
	}
	return s.withTags(ctx, docs, includeTags)
}

// GetFavoriteDocuments returns favorite documents
func (s *documentService) GetFavoriteDocuments(ctx context.Context, includeTags bool) ([]models.Document, error) {
	docs, err := s.docRepo.ListFavorites(ctx, s.ownerID)
	if err != nil {
		return nil, domain.Wrap("documents.favorites", err)
	}
	return s.withTags(ctx, docs, includeTags)
}

// GetDocumentsInFolder lists documents directly inside folderID
func (s *documentService) GetDocumentsInFolder(ctx context.Context, folderID *string, includeTags bool) ([]models.Document, error) {
	docs, err := s.docRepo.ListByFolder(ctx, folderID, s.ownerID)
	if err != nil {
		return nil, domain.Wrap("documents.in_folder", err)
	}
	return s.withTags(ctx, docs, includeTags)
}

// GetDocument retrieves one document with its tags
func (s *documentService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, id, s.ownerID)
	if err != nil {
		return nil, domain.Wrap("documents.get", err)
	}

	docs, err := s.withTags(ctx, []models.Document{*doc}, true)
	if err != nil {
		return nil, err
	}
	return &docs[0], nil
}

// UpdateDocument validates and writes title, folder, OCR text and favorite flag
func (s *documentService) UpdateDocument(ctx context.Context, doc *models.Document) (*models.Document, error) {
	if err := ValidateTitle(doc.Title); err != nil {
		return nil, invalid("documents.update", err)
	}
	if err := s.validator.ValidateFolder(ctx, doc.FolderID, s.ownerID); err != nil {
		return nil, domain.Wrap("documents.update", err)
	}

	updated := *doc
	updated.OwnerID = s.ownerID
	if err := s.docRepo.Update(ctx, &updated); err != nil {
		return nil, domain.Wrap("documents.update", err)
	}

	s.logger.Info("document updated", "id", updated.ID, "title", updated.Title)
	return &updated, nil
}

// DeleteDocuments removes rows, then their encrypted files and any
// decrypted thumbnail. File removal failures are logged only.
func (s *documentService) DeleteDocuments(ctx context.Context, ids []string) error {
	deleted, err := s.docRepo.DeleteMany(ctx, ids, s.ownerID)
	if err != nil {
		return domain.Wrap("documents.delete", err)
	}

	for _, doc := range deleted {
		paths := []string{doc.FilePath, s.decryptedThumbnailPath(doc.ID)}
		if doc.ThumbnailPath != nil {
			paths = append(paths, *doc.ThumbnailPath)
		}
		for _, p := range paths {
			if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
				s.logger.Debug("failed to remove document file", "id", doc.ID, "path", p, "error", err)
			}
		}
	}

	s.logger.Info("documents deleted", "requested", len(ids), "deleted", len(deleted))
	return nil
}

// MoveToFolder moves a document to folderID (nil = root)
func (s *documentService) MoveToFolder(ctx context.Context, id string, folderID *string) error {
	if err := s.validator.ValidateFolder(ctx, folderID, s.ownerID); err != nil {
		return domain.Wrap("documents.move", err)
	}
	if err := s.docRepo.SetFolder(ctx, id, folderID, s.ownerID); err != nil {
		return domain.Wrap("documents.move", err)
	}
	return nil
}

// ToggleFavorite flips the favorite flag
func (s *documentService) ToggleFavorite(ctx context.Context, id string) error {
	doc, err := s.docRepo.GetByID(ctx, id, s.ownerID)
	if err != nil {
		return domain.Wrap("documents.toggle_favorite", err)
	}
	if err := s.docRepo.SetFavorite(ctx, id, !doc.IsFavorite, s.ownerID); err != nil {
		return domain.Wrap("documents.toggle_favorite", err)
	}
	return nil
}

// UpdateDocumentOCR replaces the recognised text. nil clears it.
func (s *documentService) UpdateDocumentOCR(ctx context.Context, id string, text *string) error {
	if err := s.docRepo.SetOCRText(ctx, id, text, s.ownerID); err != nil {
		return domain.Wrap("documents.update_ocr", err)
	}
	return nil
}

// GetDecryptedThumbnailPath decrypts the thumbnail once into the owner's
// transient directory and reuses it afterwards
func (s *documentService) GetDecryptedThumbnailPath(ctx context.Context, doc models.Document) (string, error) {
	if !doc.HasThumbnail() {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := s.decryptedThumbnailPath(doc.ID)
	if _, err := os.Stat(dst); err == nil {
		return dst, nil
	}

	if err := s.storage.Vault.DecryptTo(*doc.ThumbnailPath, dst); err != nil {
		return "", domain.E(domain.KindIOFailure, "documents.thumbnail", fmt.Sprintf("cannot decrypt thumbnail for %s", doc.ID), err)
	}
	return dst, nil
}

func (s *documentService) decryptedThumbnailPath(id string) string {
	return filepath.Join(s.storage.thumbnailCacheDir(s.ownerID), s.storage.Vault.Name(id)+".jpg")
}

func (s *documentService) withTags(ctx context.Context, docs []models.Document, includeTags bool) ([]models.Document, error) {
	if !includeTags || len(docs) == 0 {
		return docs, nil
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}

	tags, err := s.tagRepo.ListByDocuments(ctx, ids)
	if err != nil {
		return nil, domain.Wrap("documents.tags", err)
	}
	for i := range docs {
		docs[i].Tags = tags[docs[i].ID]
	}
	return docs, nil
}
