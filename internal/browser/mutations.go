package browser

import (
	"context"
	"fmt"
	"strings"

	appmodels "scandeck/internal/domain/models"
	models "scandeck/internal/domain/models/docsystem"
	"scandeck/internal/domain/services"
	docsysSvc "scandeck/internal/domain/services/docsystem"
)

// mutateThenReload runs op and reloads on success. On failure the message
// goes to State.Error and the lists stay as they were.
func (e *Engine) mutateThenReload(ctx context.Context, action string, op func(ctx context.Context) error) bool {
	if err := op(ctx); err != nil {
		e.fail(action, err)
		return false
	}
	e.LoadDocuments(ctx)
	return true
}

func (e *Engine) fail(action string, err error) {
	e.logger.Warn("browser operation failed", "action", action, "error", err)
	e.update(func(st *State) { st.Error = userMessage(action, err) })
}

// DismissError clears the current error message
func (e *Engine) DismissError() {
	e.update(func(st *State) { st.Error = "" })
}

// ToggleFavorite flips a document's favorite flag
func (e *Engine) ToggleFavorite(ctx context.Context, documentID string) bool {
	return e.mutateThenReload(ctx, actionFavorite, func(ctx context.Context) error {
		return e.deps.Documents.ToggleFavorite(ctx, documentID)
	})
}

// ToggleFolderFavorite flips a folder's favorite flag
func (e *Engine) ToggleFolderFavorite(ctx context.Context, folderID string) bool {
	return e.mutateThenReload(ctx, actionFavorite, func(ctx context.Context) error {
		return e.deps.Folders.ToggleFavorite(ctx, folderID)
	})
}

// RenameDocument sets a new title
func (e *Engine) RenameDocument(ctx context.Context, id, title string) bool {
	return e.mutateThenReload(ctx, actionRename, func(ctx context.Context) error {
		title = strings.TrimSpace(title)
		if title == "" {
			return invalidInput("browser.rename", "title cannot be empty")
		}

		doc, err := e.deps.Documents.GetDocument(ctx, id)
		if err != nil {
			return err
		}
		doc.Title = title
		_, err = e.deps.Documents.UpdateDocument(ctx, doc)
		return err
	})
}

// UpdateDocumentOCR replaces a document's recognised text. nil clears it.
func (e *Engine) UpdateDocumentOCR(ctx context.Context, id string, text *string) bool {
	return e.mutateThenReload(ctx, actionUpdateOCR, func(ctx context.Context) error {
		return e.deps.Documents.UpdateDocumentOCR(ctx, id, text)
	})
}

// MoveDocumentToFolder moves one document. nil folderID moves it to root.
func (e *Engine) MoveDocumentToFolder(ctx context.Context, id string, folderID *string) bool {
	return e.mutateThenReload(ctx, actionMove, func(ctx context.Context) error {
		return e.deps.Documents.MoveToFolder(ctx, id, folderID)
	})
}

// MoveSelectedToFolder moves the selected documents one by one and stops at
// the first failure. Returns how many were moved.
func (e *Engine) MoveSelectedToFolder(ctx context.Context, folderID *string) int {
	ids := e.State().selectedDocumentIDs()
	if len(ids) == 0 {
		return 0
	}

	moved := 0
	var failure error
	for _, id := range ids {
		if err := e.deps.Documents.MoveToFolder(ctx, id, folderID); err != nil {
			failure = err
			break
		}
		moved++
	}

	if failure == nil {
		e.update(clearSelection)
	}
	e.LoadDocuments(ctx)

	if failure != nil {
		e.logger.Warn("batch move stopped", "moved", moved, "total", len(ids), "error", failure)
		e.update(func(st *State) {
			st.Error = fmt.Sprintf("Moved %d of %d documents. %s", moved, len(ids), userMessage(actionMove, failure))
		})
	}
	return moved
}

// CreateFolder creates a folder inside the current folder, or at root
func (e *Engine) CreateFolder(ctx context.Context, name string, color *string) *models.Folder {
	var created *models.Folder
	e.mutateThenReload(ctx, actionCreateFolder, func(ctx context.Context) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return invalidInput("browser.create_folder", "folder name cannot be empty")
		}

		var err error
		created, err = e.deps.Folders.CreateFolder(ctx, &docsysSvc.CreateFolderRequest{
			Name:     name,
			ParentID: e.State().CurrentFolderID,
			Color:    cloneString(color),
		})
		return err
	})
	return created
}

// UpdateFolder renames, recolors or moves a folder
func (e *Engine) UpdateFolder(ctx context.Context, id string, u FolderUpdate) bool {
	return e.mutateThenReload(ctx, actionUpdateFolder, func(ctx context.Context) error {
		folder, err := e.deps.Folders.GetFolder(ctx, id)
		if err != nil {
			return err
		}

		if u.Name != nil {
			name := strings.TrimSpace(*u.Name)
			if name == "" {
				return invalidInput("browser.update_folder", "folder name cannot be empty")
			}
			folder.Name = name
		}

		switch {
		case u.ClearColor:
			folder.Color = nil
		case u.Color != nil:
			folder.Color = cloneString(u.Color)
		}

		switch {
		case u.MoveToRoot:
			folder.ParentID = nil
		case u.ParentID != nil:
			folder.ParentID = cloneString(u.ParentID)
		}

		_, err = e.deps.Folders.UpdateFolder(ctx, folder)
		return err
	})
}

// ShareSelected writes temporary copies of the selected documents, passes
// their paths to deliver and removes them afterwards. Cleanup failures are
// ignored.
func (e *Engine) ShareSelected(ctx context.Context, format appmodels.ShareFormat, deliver func(paths []string) error) bool {
	docs := e.State().SelectedDocuments()
	if len(docs) == 0 {
		return false
	}

	result, err := e.deps.Share.ShareDocuments(ctx, docs, format)
	if err != nil {
		e.fail(actionShare, err)
		return false
	}
	defer func() {
		if err := e.deps.Share.CleanupTempFiles(context.WithoutCancel(ctx), result.TempFilePaths); err != nil {
			e.logger.Debug("failed to clean up shared files", "error", err)
		}
	}()

	if err := deliver(result.TempFilePaths); err != nil {
		e.fail(actionShare, err)
		return false
	}

	e.logger.Info("documents shared", "count", result.SharedCount, "format", format)
	e.update(clearSelection)
	return true
}

// ExportSelected writes plaintext copies of the selected documents to
// destDir. A partial export reports how many made it.
func (e *Engine) ExportSelected(ctx context.Context, destDir string) (*appmodels.ExportResult, bool) {
	docs := e.State().SelectedDocuments()
	if len(docs) == 0 {
		return nil, false
	}

	result, err := e.deps.Share.ExportDocuments(ctx, docs, destDir)
	if err != nil {
		e.fail(actionExport, err)
		return nil, false
	}

	switch {
	case result.IsFailed():
		e.update(func(st *State) { st.Error = fmt.Sprintf("Could not %s: %s", actionExport, result.ErrorMessage) })
		return result, false
	case !result.IsSuccess():
		e.update(func(st *State) {
			st.Error = fmt.Sprintf("Exported %d of %d documents. %s", result.ExportedCount, len(docs), result.ErrorMessage)
		})
	default:
		e.update(clearSelection)
	}
	return result, true
}

// CopyOCRText copies a document's recognised text. onSensitive decides
// whether text that looks sensitive is copied anyway.
func (e *Engine) CopyOCRText(ctx context.Context, id string, onSensitive services.SensitiveDataPrompt) (*appmodels.ClipboardResult, bool) {
	doc, found := e.State().findDocument(id)
	if !found {
		fetched, err := e.deps.Documents.GetDocument(ctx, id)
		if err != nil {
			e.fail(actionCopy, err)
			return nil, false
		}
		doc = *fetched
	}

	if !doc.HasOCRText() {
		e.fail(actionCopy, invalidInput("browser.copy_text", "the document has no recognized text"))
		return nil, false
	}

	result, err := e.deps.Clipboard.CopyToClipboard(ctx, *doc.OCRText, onSensitive)
	if err != nil {
		e.fail(actionCopy, err)
		return nil, false
	}
	return result, result.Success
}
