package docsystem

import (
	"context"

	"scandeck/internal/domain/models/docsystem"
)

// DocumentRepository is the document store the browser engine reads from and
// mutates. Implementations are bound to a single owner. Every failure is a
// *domain.Error.
type DocumentRepository interface {
	// Initialize prepares storage. Safe to call more than once.
	Initialize(ctx context.Context) error

	GetAllDocuments(ctx context.Context, includeTags bool) ([]docsystem.Document, error)
	GetFavoriteDocuments(ctx context.Context, includeTags bool) ([]docsystem.Document, error)

	// GetDocumentsInFolder lists documents directly inside folderID (nil = root)
	GetDocumentsInFolder(ctx context.Context, folderID *string, includeTags bool) ([]docsystem.Document, error)

	GetDocument(ctx context.Context, id string) (*docsystem.Document, error)
	UpdateDocument(ctx context.Context, doc *docsystem.Document) (*docsystem.Document, error)
	DeleteDocuments(ctx context.Context, ids []string) error
	MoveToFolder(ctx context.Context, id string, folderID *string) error
	ToggleFavorite(ctx context.Context, id string) error
	UpdateDocumentOCR(ctx context.Context, id string, text *string) error

	// GetDecryptedThumbnailPath decrypts the thumbnail into transient storage
	// and returns its path. Empty path and nil error when the document has no
	// thumbnail.
	GetDecryptedThumbnailPath(ctx context.Context, doc docsystem.Document) (string, error)
}
