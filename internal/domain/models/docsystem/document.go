package docsystem

import (
	"time"
)

// Document is a scanned document as stored by the document repository.
type Document struct {
	ID            string    `json:"id" db:"id"`
	OwnerID       string    `json:"-" db:"owner_id"`
	FolderID      *string   `json:"folder_id" db:"folder_id"` // NULL = root level
	Title         string    `json:"title" db:"title"`
	FileSize      int64     `json:"file_size" db:"file_size"`
	PageCount     int       `json:"page_count" db:"page_count"`
	OCRText       *string   `json:"ocr_text,omitempty" db:"ocr_text"`
	MimeType      *string   `json:"mime_type,omitempty" db:"mime_type"`
	IsFavorite    bool      `json:"is_favorite" db:"is_favorite"`
	FilePath      string    `json:"-" db:"file_path"`                             // Encrypted blob on disk
	ThumbnailPath *string   `json:"thumbnail_path,omitempty" db:"thumbnail_path"` // Encrypted thumbnail on disk
	Tags          []Tag     `json:"tags,omitempty"`                               // Populated only when requested
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// HasOCRText reports whether recognised text is attached to the document.
func (d *Document) HasOCRText() bool {
	return d.OCRText != nil && *d.OCRText != ""
}

// HasThumbnail reports whether the document carries a thumbnail reference.
func (d *Document) HasThumbnail() bool {
	return d.ThumbnailPath != nil && *d.ThumbnailPath != ""
}

// HasAnyTag reports whether the document carries at least one of tagIDs.
func (d *Document) HasAnyTag(tagIDs []string) bool {
	for _, t := range d.Tags {
		for _, id := range tagIDs {
			if t.ID == id {
				return true
			}
		}
	}
	return false
}

// IsInFolder reports whether the document lives in folderID (nil = root).
func (d *Document) IsInFolder(folderID *string) bool {
	if folderID == nil || d.FolderID == nil {
		return folderID == nil && d.FolderID == nil
	}
	return *d.FolderID == *folderID
}
