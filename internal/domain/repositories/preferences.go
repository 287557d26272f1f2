package repositories

import (
	"context"

	"scandeck/internal/domain/models"
)

// PreferencesRepository persists per-user browser display preferences
type PreferencesRepository interface {
	// Get returns stored preferences. Missing rows yield zero values and no error.
	Get(ctx context.Context, userID string) (*models.BrowserPreferences, error)

	// Set stores a single preference, leaving the others untouched
	Set(ctx context.Context, userID string, key models.PreferenceKey, value string) error
}
