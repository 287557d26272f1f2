package services

import (
	"context"

	"scandeck/internal/domain/models"
)

// SensitiveDataPrompt is consulted when copied text looks sensitive.
// Returning false cancels the copy.
type SensitiveDataPrompt func(kinds []models.SensitiveKind) bool

// ClipboardService copies text while guarding sensitive content
type ClipboardService interface {
	CopyToClipboard(ctx context.Context, text string, onSensitive SensitiveDataPrompt) (*models.ClipboardResult, error)
}
