package models

import "time"

// BrowserPreferences are the per-user display settings that survive a
// restart of the browser screen.
type BrowserPreferences struct {
	UserID          string    `json:"user_id"`
	ViewMode        string    `json:"view_mode"`         // "grid" or "list"
	DocumentsSortBy string    `json:"documents_sort_by"` // see browser.SortBy
	SignaturesSort  string    `json:"signatures_sort"`   // see signatures.SortBy
	UpdatedAt       time.Time `json:"updated_at"`
}

// PreferenceKey names one stored preference
type PreferenceKey string

const (
	PreferenceViewMode        PreferenceKey = "view_mode"
	PreferenceDocumentsSortBy PreferenceKey = "documents_sort_by"
	PreferenceSignaturesSort  PreferenceKey = "signatures_sort"
)
