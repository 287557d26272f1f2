package docsystem

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"scandeck/internal/config"
	"scandeck/internal/domain"
	docsysRepo "scandeck/internal/domain/repositories/docsystem"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// hexColor accepts #RRGGBB and #AARRGGBB
var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ValidateTitle checks a document title
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)
	return validation.Validate(title,
		validation.Required.Error("title cannot be empty"),
		validation.RuneLength(1, config.MaxDocumentTitleLength),
	)
}

// ValidateFolderName checks a folder name
func ValidateFolderName(name string) error {
	name = strings.TrimSpace(name)
	return validation.Validate(name,
		validation.Required.Error("folder name cannot be empty"),
		validation.RuneLength(1, config.MaxFolderNameLength),
		validation.Match(regexp.MustCompile(`^[^/]+$`)).Error("folder name cannot contain slashes"),
	)
}

// ValidateColor checks an optional hex color. nil means no color.
func ValidateColor(color *string) error {
	if color == nil {
		return nil
	}
	return validation.Validate(*color,
		validation.Required,
		validation.Match(hexColor).Error("color must be #RRGGBB or #AARRGGBB"),
	)
}

// invalid wraps a validation failure as a domain validation error
func invalid(op string, err error) error {
	return domain.E(domain.KindValidation, op, err.Error(), domain.ErrValidation)
}

// ResourceValidator checks that folders referenced by a request exist for
// the owner before documents or folders are attached to them
type ResourceValidator struct {
	folderRepo docsysRepo.FolderRepository
}

// NewResourceValidator creates a new resource validator
func NewResourceValidator(folderRepo docsysRepo.FolderRepository) *ResourceValidator {
	return &ResourceValidator{folderRepo: folderRepo}
}

// ValidateFolder ensures a folder exists. A nil or empty id is the root,
// which is always valid.
func (v *ResourceValidator) ValidateFolder(ctx context.Context, folderID *string, ownerID string) error {
	if folderID == nil || *folderID == "" {
		return nil
	}

	if _, err := v.folderRepo.GetByID(ctx, *folderID, ownerID); err != nil {
		return fmt.Errorf("invalid folder: %w", err)
	}
	return nil
}
