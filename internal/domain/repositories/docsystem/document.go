package docsystem

import (
	"context"

	"scandeck/internal/domain/models/docsystem"
)

// DocumentRepository defines data access operations for scanned documents.
// Every call is scoped to the owning user.
type DocumentRepository interface {
	// Create inserts a new document and fills ID and timestamps
	Create(ctx context.Context, doc *docsystem.Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id, ownerID string) (*docsystem.Document, error)

	// List returns every document of the owner, newest first
	List(ctx context.Context, ownerID string) ([]docsystem.Document, error)

	// ListFavorites returns documents flagged as favorite
	ListFavorites(ctx context.Context, ownerID string) ([]docsystem.Document, error)

	// ListByFolder lists documents directly inside a folder (nil = root)
	ListByFolder(ctx context.Context, folderID *string, ownerID string) ([]docsystem.Document, error)

	// ListIDsByFolders returns the ids of documents inside any of the folders
	ListIDsByFolders(ctx context.Context, folderIDs []string, ownerID string) ([]string, error)

	// Update writes title, folder, OCR text and favorite flag
	Update(ctx context.Context, doc *docsystem.Document) error

	// SetFolder moves a document
	SetFolder(ctx context.Context, id string, folderID *string, ownerID string) error

	// SetFavorite sets the favorite flag
	SetFavorite(ctx context.Context, id string, favorite bool, ownerID string) error

	// SetOCRText replaces the recognised text
	SetOCRText(ctx context.Context, id string, text *string, ownerID string) error

	// DeleteMany removes documents and returns the rows that were deleted
	DeleteMany(ctx context.Context, ids []string, ownerID string) ([]docsystem.Document, error)

	// ClearFolder moves every document of the folders back to the root
	ClearFolder(ctx context.Context, folderIDs []string, ownerID string) error
}
