package browser

import (
	"maps"
	"slices"
	"strings"

	models "scandeck/internal/domain/models/docsystem"
)

// State is an immutable snapshot of the browser. Values returned by
// Engine.State are copies; mutating them does not affect the engine.
type State struct {
	Documents       []models.Document
	Folders         []models.Folder
	CurrentFolderID *string
	CurrentFolder   *models.Folder

	ViewMode    ViewMode
	SortBy      SortBy
	Filter      DocumentsFilter
	SearchQuery string

	IsLoading     bool
	IsRefreshing  bool
	IsInitialized bool
	Error         string

	SelectedDocumentIDs map[string]bool
	SelectedFolderIDs   map[string]bool
	IsSelectionMode     bool

	// Thumbnails maps document id to a decrypted thumbnail file
	Thumbnails map[string]string
}

func newState() State {
	return State{
		ViewMode:            ViewGrid,
		SortBy:              DefaultSortBy,
		SelectedDocumentIDs: map[string]bool{},
		SelectedFolderIDs:   map[string]bool{},
		Thumbnails:          map[string]string{},
	}
}

func (s State) clone() State {
	out := s
	out.Documents = slices.Clone(s.Documents)
	out.Folders = slices.Clone(s.Folders)
	out.Filter = s.Filter.clone()
	out.CurrentFolderID = cloneString(s.CurrentFolderID)
	if s.CurrentFolder != nil {
		f := *s.CurrentFolder
		out.CurrentFolder = &f
	}
	out.SelectedDocumentIDs = maps.Clone(s.SelectedDocumentIDs)
	out.SelectedFolderIDs = maps.Clone(s.SelectedFolderIDs)
	out.Thumbnails = maps.Clone(s.Thumbnails)
	return out
}

// IsAtRoot reports whether no folder is entered.
func (s State) IsAtRoot() bool {
	return s.CurrentFolderID == nil
}

// ShouldShowFolders reports whether the root folder list is on display:
// at root, no search and no filter.
func (s State) ShouldShowFolders() bool {
	return s.IsAtRoot() && s.SearchQuery == "" && !s.Filter.HasActiveFilters()
}

// FilteredDocuments applies the search query to Documents. Titles and
// recognised text are matched case-insensitively.
func (s State) FilteredDocuments() []models.Document {
	q := normalizeQuery(s.SearchQuery)
	if q == "" {
		return slices.Clone(s.Documents)
	}

	out := make([]models.Document, 0, len(s.Documents))
	for _, d := range s.Documents {
		if strings.Contains(strings.ToLower(d.Title), q) ||
			(d.OCRText != nil && strings.Contains(strings.ToLower(*d.OCRText), q)) {
			out = append(out, d)
		}
	}
	return out
}

// FilteredFolders applies the search query to folder names.
func (s State) FilteredFolders() []models.Folder {
	q := normalizeQuery(s.SearchQuery)
	if q == "" {
		return slices.Clone(s.Folders)
	}

	out := make([]models.Folder, 0, len(s.Folders))
	for _, f := range s.Folders {
		if strings.Contains(strings.ToLower(f.Name), q) {
			out = append(out, f)
		}
	}
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func (s State) DocumentCount() int { return len(s.FilteredDocuments()) }
func (s State) FolderCount() int   { return len(s.FilteredFolders()) }

func (s State) SelectedDocumentCount() int { return len(s.SelectedDocumentIDs) }
func (s State) SelectedFolderCount() int   { return len(s.SelectedFolderIDs) }

// SelectedCount counts selected items of either kind.
func (s State) SelectedCount() int {
	return len(s.SelectedDocumentIDs) + len(s.SelectedFolderIDs)
}

// HasSelection reports whether anything is selected.
func (s State) HasSelection() bool {
	return s.SelectedCount() > 0
}

// AllSelected reports whether every visible document is selected.
func (s State) AllSelected() bool {
	docs := s.FilteredDocuments()
	if len(docs) == 0 {
		return false
	}
	for _, d := range docs {
		if !s.SelectedDocumentIDs[d.ID] {
			return false
		}
	}
	return true
}

// AllFoldersSelected reports whether every visible folder is selected.
func (s State) AllFoldersSelected() bool {
	folders := s.FilteredFolders()
	if len(folders) == 0 {
		return false
	}
	for _, f := range folders {
		if !s.SelectedFolderIDs[f.ID] {
			return false
		}
	}
	return true
}

// SelectedDocuments returns the selected documents in list order.
func (s State) SelectedDocuments() []models.Document {
	out := make([]models.Document, 0, len(s.SelectedDocumentIDs))
	for _, d := range s.Documents {
		if s.SelectedDocumentIDs[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

// selectedFolderIDs returns selected folder ids in list order, then any
// selected id no longer listed
func (s State) selectedFolderIDs() []string {
	return orderedSelection(s.SelectedFolderIDs, s.Folders, func(f models.Folder) string { return f.ID })
}

func (s State) selectedDocumentIDs() []string {
	return orderedSelection(s.SelectedDocumentIDs, s.Documents, func(d models.Document) string { return d.ID })
}

func orderedSelection[T any](set map[string]bool, items []T, id func(T) string) []string {
	out := make([]string, 0, len(set))
	seen := make(map[string]bool, len(set))
	for _, it := range items {
		if k := id(it); set[k] {
			out = append(out, k)
			seen[k] = true
		}
	}
	rest := make([]string, 0)
	for k := range set {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(out, rest...)
}

func (s State) findDocument(id string) (models.Document, bool) {
	for _, d := range s.Documents {
		if d.ID == id {
			return d, true
		}
	}
	return models.Document{}, false
}
