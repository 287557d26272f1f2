package browser

import "slices"

// DocumentsFilter narrows the document list. The zero value shows everything.
type DocumentsFilter struct {
	FolderID      *string  `json:"folder_id,omitempty"` // restrict to one folder without navigating into it
	FavoritesOnly bool     `json:"favorites_only"`
	HasOCROnly    bool     `json:"has_ocr_only"`
	TagIDs        []string `json:"tag_ids,omitempty"` // any-match, order significant for equality
}

// FilterUpdate changes selected fields of a DocumentsFilter. Nil fields keep
// the current value; the Clear flags reset optional fields and win over a
// value given in the same update.
type FilterUpdate struct {
	FolderID      *string
	ClearFolderID bool
	FavoritesOnly *bool
	HasOCROnly    *bool
	TagIDs        []string
	ClearTagIDs   bool
}

// HasActiveFilters reports whether any field differs from the zero value.
func (f DocumentsFilter) HasActiveFilters() bool {
	return f.FolderID != nil || f.FavoritesOnly || f.HasOCROnly || len(f.TagIDs) > 0
}

// hasClientFilters reports whether filters applied after loading are set
func (f DocumentsFilter) hasClientFilters() bool {
	return f.HasOCROnly || len(f.TagIDs) > 0
}

// With returns a copy of f with u applied.
func (f DocumentsFilter) With(u FilterUpdate) DocumentsFilter {
	out := f.clone()

	switch {
	case u.ClearFolderID:
		out.FolderID = nil
	case u.FolderID != nil:
		out.FolderID = cloneString(u.FolderID)
	}

	if u.FavoritesOnly != nil {
		out.FavoritesOnly = *u.FavoritesOnly
	}
	if u.HasOCROnly != nil {
		out.HasOCROnly = *u.HasOCROnly
	}

	switch {
	case u.ClearTagIDs:
		out.TagIDs = nil
	case u.TagIDs != nil:
		out.TagIDs = slices.Clone(u.TagIDs)
	}

	return out
}

// Equal compares field by field. Tag ids must match in order.
func (f DocumentsFilter) Equal(o DocumentsFilter) bool {
	if (f.FolderID == nil) != (o.FolderID == nil) {
		return false
	}
	if f.FolderID != nil && *f.FolderID != *o.FolderID {
		return false
	}
	return f.FavoritesOnly == o.FavoritesOnly &&
		f.HasOCROnly == o.HasOCROnly &&
		slices.Equal(f.TagIDs, o.TagIDs)
}

func (f DocumentsFilter) clone() DocumentsFilter {
	out := f
	out.FolderID = cloneString(f.FolderID)
	if len(f.TagIDs) > 0 {
		out.TagIDs = slices.Clone(f.TagIDs)
	} else {
		out.TagIDs = nil
	}
	return out
}

// FolderUpdate changes selected fields of a folder. Nil fields keep the
// current value. ClearColor removes the color; MoveToRoot detaches the folder
// from its parent.
type FolderUpdate struct {
	Name       *string
	Color      *string
	ClearColor bool
	ParentID   *string
	MoveToRoot bool
}
