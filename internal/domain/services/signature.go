package services

import (
	"context"

	"scandeck/internal/domain/models"
)

// SignatureService manages saved signatures for one owner
type SignatureService interface {
	Initialize(ctx context.Context) error
	GetAllSignatures(ctx context.Context) ([]models.Signature, error)

	// SaveSignature stores an image under label
	SaveSignature(ctx context.Context, label string, image []byte, makeDefault bool) (*models.Signature, error)
	RenameSignature(ctx context.Context, id, label string) error
	SetDefaultSignature(ctx context.Context, id string) error
	ClearDefaultSignature(ctx context.Context) error
	DeleteSignature(ctx context.Context, id string) error
	DeleteSignatures(ctx context.Context, ids []string) error
	ClearAllSignatures(ctx context.Context) error

	// LoadSignatureImage returns the decrypted image bytes
	LoadSignatureImage(ctx context.Context, sig models.Signature) ([]byte, error)

	// GetStorageSizeFormatted reports disk usage, e.g. "1.2 MB"
	GetStorageSizeFormatted(ctx context.Context) (string, error)
}
