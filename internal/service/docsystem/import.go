package docsystem

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"scandeck/internal/domain"
	models "scandeck/internal/domain/models/docsystem"
	docsysRepo "scandeck/internal/domain/repositories/docsystem"
)

// ImportRequest carries a freshly scanned document
type ImportRequest struct {
	OwnerID   string
	Title     string
	FolderID  *string
	Content   []byte
	Thumbnail []byte // optional JPEG
	OCRText   *string
	TagIDs    []string
	Favorite  bool
}

// Importer encrypts scanned files into storage and records them
type Importer struct {
	docRepo   docsysRepo.DocumentRepository
	tagRepo   docsysRepo.TagRepository
	validator *ResourceValidator
	storage   Storage
	logger    *slog.Logger
}

// NewImporter creates an importer
func NewImporter(
	docRepo docsysRepo.DocumentRepository,
	tagRepo docsysRepo.TagRepository,
	validator *ResourceValidator,
	storage Storage,
	logger *slog.Logger,
) *Importer {
	return &Importer{
		docRepo:   docRepo,
		tagRepo:   tagRepo,
		validator: validator,
		storage:   storage,
		logger:    logger,
	}
}

// Import seals the content and thumbnail, then inserts the document row.
// PDF page counts are read from the file; other formats count as one page.
func (i *Importer) Import(ctx context.Context, req *ImportRequest) (*models.Document, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := ValidateTitle(req.Title); err != nil {
		return nil, invalid("documents.import", err)
	}
	if len(req.Content) == 0 {
		return nil, domain.E(domain.KindValidation, "documents.import", "content cannot be empty", domain.ErrValidation)
	}
	if err := i.validator.ValidateFolder(ctx, req.FolderID, req.OwnerID); err != nil {
		return nil, domain.Wrap("documents.import", err)
	}

	mime := http.DetectContentType(req.Content)
	pageCount := i.pageCount(req.Content, mime)

	fileID := uuid.NewString()
	dir := i.storage.ownerDir(req.OwnerID)
	filePath := filepath.Join(dir, "documents", fileID+".bin")
	if err := i.storage.Vault.SealFile(filePath, req.Content); err != nil {
		return nil, domain.E(domain.KindIOFailure, "documents.import", "cannot store document", err)
	}

	var thumbPath *string
	if len(req.Thumbnail) > 0 {
		p := filepath.Join(dir, "thumbnails", fileID+".bin")
		if err := i.storage.Vault.SealFile(p, req.Thumbnail); err != nil {
			return nil, domain.E(domain.KindIOFailure, "documents.import", "cannot store thumbnail", err)
		}
		thumbPath = &p
	}

	now := time.Now()
	doc := &models.Document{
		OwnerID:       req.OwnerID,
		FolderID:      req.FolderID,
		Title:         req.Title,
		FileSize:      int64(len(req.Content)),
		PageCount:     pageCount,
		OCRText:       req.OCRText,
		MimeType:      &mime,
		IsFavorite:    req.Favorite,
		FilePath:      filePath,
		ThumbnailPath: thumbPath,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := i.docRepo.Create(ctx, doc); err != nil {
		return nil, domain.Wrap("documents.import", err)
	}

	for _, tagID := range req.TagIDs {
		if err := i.tagRepo.Assign(ctx, doc.ID, tagID); err != nil {
			return nil, domain.Wrap("documents.import", err)
		}
	}

	i.logger.Info("document imported",
		"id", doc.ID,
		"title", doc.Title,
		"mime_type", mime,
		"pages", pageCount,
	)
	return doc, nil
}

func (i *Importer) pageCount(data []byte, mime string) int {
	if mime != "application/pdf" {
		return 1
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		i.logger.Warn("failed to extract PDF page count", "error", err)
		return 1
	}
	return count
}
