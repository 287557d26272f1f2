package repositories

import (
	"context"

	"scandeck/internal/domain/models"
)

// SignatureRepository defines data access operations for saved signatures
type SignatureRepository interface {
	Create(ctx context.Context, sig *models.Signature) error
	GetByID(ctx context.Context, id, ownerID string) (*models.Signature, error)
	List(ctx context.Context, ownerID string) ([]models.Signature, error)
	UpdateLabel(ctx context.Context, id, label, ownerID string) error

	// SetDefault marks one signature as default and clears the flag on the
	// others. An empty id clears the default entirely.
	SetDefault(ctx context.Context, id, ownerID string) error

	// DeleteMany removes signatures and returns the deleted rows
	DeleteMany(ctx context.Context, ids []string, ownerID string) ([]models.Signature, error)
	DeleteAll(ctx context.Context, ownerID string) ([]models.Signature, error)
}
