package models

import "time"

// Signature is a saved handwritten signature. The image itself is stored
// encrypted on disk at ImagePath.
type Signature struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"-" db:"owner_id"`
	Label     string    `json:"label" db:"label"`
	IsDefault bool      `json:"is_default" db:"is_default"`
	ImagePath string    `json:"-" db:"image_path"`
	SizeBytes int64     `json:"size_bytes" db:"size_bytes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
