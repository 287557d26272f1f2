package browser

import (
	"errors"
	"fmt"

	"scandeck/internal/domain"
)

var (
	// ErrConfirmationRequired is returned when folders holding documents are
	// deleted without choosing whether to keep those documents.
	ErrConfirmationRequired = errors.New("deleting folders that contain documents requires a choice")

	// ErrOperationFailed reports a failure whose message was recorded in
	// State.Error.
	ErrOperationFailed = errors.New("operation failed")
)

// Actions name what the user attempted in error messages
const (
	actionInitialize   = "open your documents"
	actionLoad         = "load documents"
	actionFavorite     = "update favorite"
	actionRename       = "rename document"
	actionUpdateOCR    = "update recognized text"
	actionMove         = "move document"
	actionDelete       = "delete documents"
	actionCreateFolder = "create folder"
	actionUpdateFolder = "update folder"
	actionDeleteFolder = "delete folders"
	actionOpenFolder   = "open folder"
	actionShare        = "share documents"
	actionExport       = "export documents"
	actionCopy         = "copy text"
)

// userMessage turns a collaborator failure into a sentence for State.Error
func userMessage(action string, err error) string {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return fmt.Sprintf("Could not %s: the item no longer exists.", action)
	case domain.KindConflict:
		return fmt.Sprintf("Could not %s: an item with that name already exists.", action)
	case domain.KindValidation:
		var de *domain.Error
		if errors.As(err, &de) && de.Message != "" {
			return fmt.Sprintf("Could not %s: %s.", action, de.Message)
		}
		return fmt.Sprintf("Could not %s: the input is invalid.", action)
	case domain.KindIOFailure:
		return fmt.Sprintf("Could not %s: storage is unavailable.", action)
	default:
		return fmt.Sprintf("Could not %s. Please try again.", action)
	}
}

func invalidInput(op, msg string) error {
	return domain.E(domain.KindValidation, op, msg, domain.ErrValidation)
}
