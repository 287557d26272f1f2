package handler

import (
	"time"

	"scandeck/internal/browser"
	"scandeck/internal/domain/models"
	docsystem "scandeck/internal/domain/models/docsystem"
	"scandeck/internal/signatures"
)

// browserView is the JSON shape of a browser snapshot. Lists are already
// searched; decrypted thumbnail paths stay on the server.
type browserView struct {
	Documents     []docsystem.Document `json:"documents"`
	Folders       []docsystem.Folder   `json:"folders"`
	ShowFolders   bool                 `json:"show_folders"`
	CurrentFolder *docsystem.Folder    `json:"current_folder"`
	IsAtRoot      bool                 `json:"is_at_root"`

	ViewMode         browser.ViewMode        `json:"view_mode"`
	SortBy           browser.SortBy          `json:"sort_by"`
	Filter           browser.DocumentsFilter `json:"filter"`
	HasActiveFilters bool                    `json:"has_active_filters"`
	SearchQuery      string                  `json:"search_query"`

	IsLoading     bool   `json:"is_loading"`
	IsRefreshing  bool   `json:"is_refreshing"`
	IsInitialized bool   `json:"is_initialized"`
	Error         string `json:"error,omitempty"`

	SelectedDocumentIDs []string `json:"selected_document_ids"`
	SelectedFolderIDs   []string `json:"selected_folder_ids"`
	IsSelectionMode     bool     `json:"is_selection_mode"`
	AllSelected         bool     `json:"all_selected"`
	AllFoldersSelected  bool     `json:"all_folders_selected"`

	// ThumbnailIDs lists documents whose thumbnail can be fetched now
	ThumbnailIDs []string `json:"thumbnail_ids"`
}

func newBrowserView(st browser.State) browserView {
	return browserView{
		Documents:           st.FilteredDocuments(),
		Folders:             st.FilteredFolders(),
		ShowFolders:         st.ShouldShowFolders(),
		CurrentFolder:       st.CurrentFolder,
		IsAtRoot:            st.IsAtRoot(),
		ViewMode:            st.ViewMode,
		SortBy:              st.SortBy,
		Filter:              st.Filter,
		HasActiveFilters:    st.Filter.HasActiveFilters(),
		SearchQuery:         st.SearchQuery,
		IsLoading:           st.IsLoading,
		IsRefreshing:        st.IsRefreshing,
		IsInitialized:       st.IsInitialized,
		Error:               st.Error,
		SelectedDocumentIDs: listedKeys(st.SelectedDocumentIDs, st.Documents, func(d docsystem.Document) string { return d.ID }),
		SelectedFolderIDs:   listedKeys(st.SelectedFolderIDs, st.Folders, func(f docsystem.Folder) string { return f.ID }),
		IsSelectionMode:     st.IsSelectionMode,
		AllSelected:         st.AllSelected(),
		AllFoldersSelected:  st.AllFoldersSelected(),
		ThumbnailIDs:        listedKeys(stringSet(st.Thumbnails), st.Documents, func(d docsystem.Document) string { return d.ID }),
	}
}

// signatureView is one signature in the list
type signatureView struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	IsDefault bool      `json:"is_default"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	HasImage  bool      `json:"has_image"`
}

type signaturesView struct {
	Signatures  []signatureView   `json:"signatures"`
	SortBy      signatures.SortBy `json:"sort_by"`
	SearchQuery string            `json:"search_query"`

	IsLoading     bool   `json:"is_loading"`
	IsRefreshing  bool   `json:"is_refreshing"`
	IsInitialized bool   `json:"is_initialized"`
	Error         string `json:"error,omitempty"`

	SelectedIDs     []string `json:"selected_ids"`
	IsSelectionMode bool     `json:"is_selection_mode"`
	AllSelected     bool     `json:"all_selected"`

	DefaultID   *string `json:"default_id"`
	StorageSize string  `json:"storage_size"`
}

func newSignaturesView(st signatures.State) signaturesView {
	filtered := st.FilteredSignatures()
	list := make([]signatureView, len(filtered))
	for i, sig := range filtered {
		_, cached := st.Images[sig.ID]
		list[i] = signatureView{
			ID:        sig.ID,
			Label:     sig.Label,
			IsDefault: sig.IsDefault,
			SizeBytes: sig.SizeBytes,
			CreatedAt: sig.CreatedAt,
			HasImage:  cached,
		}
	}

	var defaultID *string
	if def, ok := st.DefaultSignature(); ok {
		defaultID = &def.ID
	}

	return signaturesView{
		Signatures:      list,
		SortBy:          st.SortBy,
		SearchQuery:     st.SearchQuery,
		IsLoading:       st.IsLoading,
		IsRefreshing:    st.IsRefreshing,
		IsInitialized:   st.IsInitialized,
		Error:           st.Error,
		SelectedIDs:     listedKeys(st.SelectedIDs, st.Signatures, func(s models.Signature) string { return s.ID }),
		IsSelectionMode: st.IsSelectionMode,
		AllSelected:     st.AllSelected(),
		DefaultID:       defaultID,
		StorageSize:     st.StorageSize,
	}
}

// listedKeys returns the members of set in list order, skipping ids no
// longer listed
func listedKeys[T any](set map[string]bool, items []T, id func(T) string) []string {
	out := make([]string, 0, len(set))
	for _, it := range items {
		if k := id(it); set[k] {
			out = append(out, k)
		}
	}
	return out
}

func stringSet[V any](m map[string]V) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}
