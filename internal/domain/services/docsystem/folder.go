package docsystem

import (
	"context"

	"scandeck/internal/domain/models/docsystem"
)

// FolderService handles folder business logic for one owner
type FolderService interface {
	// Initialize prepares storage. Safe to call more than once.
	Initialize(ctx context.Context) error

	// GetAllFolders returns every folder as a tree-queryable collection
	GetAllFolders(ctx context.Context) (*docsystem.FolderCollection, error)

	GetFolder(ctx context.Context, id string) (*docsystem.Folder, error)

	// CreateFolder creates a folder under ParentID (nil = root)
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*docsystem.Folder, error)

	// UpdateFolder writes name, color and parent of folder
	UpdateFolder(ctx context.Context, folder *docsystem.Folder) (*docsystem.Folder, error)

	// DeleteFolders deletes folders without deleting their documents.
	// Contained documents become root-level.
	DeleteFolders(ctx context.Context, ids []string) error

	ToggleFavorite(ctx context.Context, id string) error
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id,omitempty"` // null for root
	Color    *string `json:"color,omitempty"`
}
