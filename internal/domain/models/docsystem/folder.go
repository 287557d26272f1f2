package docsystem

import (
	"time"
)

type Folder struct {
	ID         string    `json:"id" db:"id"`
	OwnerID    string    `json:"-" db:"owner_id"`
	ParentID   *string   `json:"parent_id" db:"parent_id"` // NULL = root level
	Name       string    `json:"name" db:"name"`
	Color      *string   `json:"color,omitempty" db:"color"` // Hex, e.g. "#FF5722"
	IsFavorite bool      `json:"is_favorite" db:"is_favorite"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// IsRoot reports whether the folder sits at root level.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}
