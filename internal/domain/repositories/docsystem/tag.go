package docsystem

import (
	"context"

	"scandeck/internal/domain/models/docsystem"
)

// TagRepository reads tags and their document assignments
type TagRepository interface {
	// Create creates a tag for the owner
	Create(ctx context.Context, tag *docsystem.Tag, ownerID string) error

	// Assign links a tag to a document
	Assign(ctx context.Context, documentID, tagID string) error

	// ListByDocuments returns the tags of each document, keyed by document id
	ListByDocuments(ctx context.Context, documentIDs []string) (map[string][]docsystem.Tag, error)
}
