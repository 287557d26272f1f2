package browser

import (
	"cmp"
	"slices"
	"strings"

	models "scandeck/internal/domain/models/docsystem"
)

// SortBy orders the document list
type SortBy string

const (
	SortCreatedDesc SortBy = "created_desc"
	SortCreatedAsc  SortBy = "created_asc"
	SortTitle       SortBy = "title"
	SortSize        SortBy = "size"
	SortUpdatedDesc SortBy = "updated_desc"
)

// DefaultSortBy shows the newest scans first
const DefaultSortBy = SortCreatedDesc

// ParseSortBy returns the sort named s, or false if unknown.
func ParseSortBy(s string) (SortBy, bool) {
	switch SortBy(s) {
	case SortCreatedDesc, SortCreatedAsc, SortTitle, SortSize, SortUpdatedDesc:
		return SortBy(s), true
	}
	return "", false
}

// compare orders a before b under s
func (s SortBy) compare(a, b models.Document) int {
	switch s {
	case SortCreatedAsc:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case SortSize:
		return cmp.Compare(b.FileSize, a.FileSize)
	case SortUpdatedDesc:
		return b.UpdatedAt.Compare(a.UpdatedAt)
	default:
		return b.CreatedAt.Compare(a.CreatedAt)
	}
}

// sortDocuments returns a stably sorted copy of docs
func sortDocuments(docs []models.Document, s SortBy) []models.Document {
	out := slices.Clone(docs)
	slices.SortStableFunc(out, s.compare)
	return out
}

// ViewMode selects how the browser lays out items
type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

// ParseViewMode returns the mode named s, or false if unknown.
func ParseViewMode(s string) (ViewMode, bool) {
	switch ViewMode(s) {
	case ViewGrid, ViewList:
		return ViewMode(s), true
	}
	return "", false
}
