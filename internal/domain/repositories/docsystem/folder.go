package docsystem

import (
	"context"

	"scandeck/internal/domain/models/docsystem"
)

// FolderRepository defines data access operations for folders
type FolderRepository interface {
	// Create creates a new folder
	Create(ctx context.Context, folder *docsystem.Folder) error

	// GetByID retrieves a folder by ID
	GetByID(ctx context.Context, id, ownerID string) (*docsystem.Folder, error)

	// Update writes name, color, parent and favorite flag
	Update(ctx context.Context, folder *docsystem.Folder) error

	// DeleteMany deletes folders. Documents inside are not touched.
	DeleteMany(ctx context.Context, ids []string, ownerID string) error

	// GetAllByOwner retrieves all folders of the owner (flat list)
	GetAllByOwner(ctx context.Context, ownerID string) ([]docsystem.Folder, error)
}
