package services

import (
	"context"

	"scandeck/internal/domain/models"
	"scandeck/internal/domain/models/docsystem"
)

// ShareService prepares documents for sharing and exports them
type ShareService interface {
	// ShareDocuments writes temporary plaintext copies in the requested format
	ShareDocuments(ctx context.Context, docs []docsystem.Document, format models.ShareFormat) (*models.ShareResult, error)

	// CleanupTempFiles removes files produced by ShareDocuments. Missing files are ignored.
	CleanupTempFiles(ctx context.Context, paths []string) error

	// ExportDocuments writes plaintext copies into destDir
	ExportDocuments(ctx context.Context, docs []docsystem.Document, destDir string) (*models.ExportResult, error)
}
