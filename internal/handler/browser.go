package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"scandeck/internal/browser"
	"scandeck/internal/domain/models"
	docsystem "scandeck/internal/domain/models/docsystem"
	"scandeck/internal/httputil"
	"scandeck/internal/utils"
)

// BrowserHandler exposes the caller's document browser
type BrowserHandler struct {
	sessions Sessions
	logger   *slog.Logger
}

// NewBrowserHandler creates a new browser handler
func NewBrowserHandler(sessions Sessions, logger *slog.Logger) *BrowserHandler {
	return &BrowserHandler{
		sessions: sessions,
		logger:   logger,
	}
}

func (h *BrowserHandler) engine(w http.ResponseWriter, r *http.Request) (*browser.Engine, bool) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return nil, false
	}
	return s.Browser, true
}

// run applies op to the caller's engine and responds with the new state
func (h *BrowserHandler) run(w http.ResponseWriter, r *http.Request, op func(e *browser.Engine) bool) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	done := op(e)
	httputil.RespondJSON(w, http.StatusOK, actionResponse[browserView]{OK: done, State: newBrowserView(e.State())})
}

// GetState returns the current browser snapshot
// GET /api/browser
func (h *BrowserHandler) GetState(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, newBrowserView(e.State()))
}

// Initialize retries a failed initialization
// POST /api/browser/initialize
func (h *BrowserHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *browser.Engine) bool {
		e.Initialize(r.Context())
		return e.State().IsInitialized
	})
}

// Refresh reloads the current listing
// POST /api/browser/refresh
func (h *BrowserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *browser.Engine) bool {
		e.Refresh(r.Context())
		return e.State().Error == ""
	})
}

// EnterFolder navigates into a folder
// POST /api/browser/folders/{id}/enter
func (h *BrowserHandler) EnterFolder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.run(w, r, func(e *browser.Engine) bool { return e.EnterFolderByID(r.Context(), id) })
}

// ExitFolder goes up one level
// POST /api/browser/folders/exit
func (h *BrowserHandler) ExitFolder(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *browser.Engine) bool {
		e.ExitFolder(r.Context())
		return e.State().Error == ""
	})
}

// NavigateToRoot leaves every folder
// POST /api/browser/root
func (h *BrowserHandler) NavigateToRoot(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *browser.Engine) bool {
		e.NavigateToRoot(r.Context())
		return true
	})
}

type searchRequest struct {
	Query string `json:"query"`
}

// SetSearch changes the search query
// PUT /api/browser/search
func (h *BrowserHandler) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !bindJSON(w, r, &req) {
		return
	}
	h.run(w, r, func(e *browser.Engine) bool {
		e.SetSearchQuery(r.Context(), req.Query)
		return true
	})
}

// SetFilter replaces the filter
// PUT /api/browser/filter
func (h *BrowserHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var f browser.DocumentsFilter
	if !bindJSON(w, r, &f) {
		return
	}
	h.run(w, r, func(e *browser.Engine) bool {
		e.SetFilter(r.Context(), f)
		return true
	})
}

// filterPatch changes some filter fields. A null folder_id clears it.
type filterPatch struct {
	FolderID      httputil.OptionalString `json:"folder_id"`
	FavoritesOnly *bool                   `json:"favorites_only"`
	HasOCROnly    *bool                   `json:"has_ocr_only"`
	TagIDs        []string                `json:"tag_ids"`
	ClearTagIDs   bool                    `json:"clear_tag_ids"`
}

func (p filterPatch) update() browser.FilterUpdate {
	u := browser.FilterUpdate{
		FavoritesOnly: p.FavoritesOnly,
		HasOCROnly:    p.HasOCROnly,
		TagIDs:        p.TagIDs,
		ClearTagIDs:   p.ClearTagIDs,
	}
	if p.FolderID.Present {
		u.FolderID = p.FolderID.Value
		u.ClearFolderID = p.FolderID.Cleared()
	}
	return u
}

// UpdateFilter changes selected filter fields
// PATCH /api/browser/filter
func (h *BrowserHandler) UpdateFilter(w http.ResponseWriter, r *http.Request) {
	var req filterPatch
	if !bindJSON(w, r, &req) {
		return
	}
	h.run(w, r, func(e *browser.Engine) bool {
		e.UpdateFilter(r.Context(), req.update())
		return true
	})
}

// ClearFilters resets the filter
// DELETE /api/browser/filter
func (h *BrowserHandler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *browser.Engine) bool {
		e.ClearFilters(r.Context())
		return true
	})
}

// ToggleFavoritesFilter flips the favorites-only filter
// POST /api/browser/filter/favorites
func (h *BrowserHandler) ToggleFavoritesFilter(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *browser.Engine) bool {
		e.ToggleFavoritesFilter(r.Context())
		return true
	})
}

// ToggleOCRFilter flips the has-text filter
// POST /api/browser/filter/ocr
func (h *BrowserHandler) ToggleOCRFilter(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *browser.Engine) bool {
		e.ToggleOCRFilter(r.Context())
		return true
	})
}

// ToggleTagFilter adds or removes a tag from the filter
// POST /api/browser/filter/tags/{id}
func (h *BrowserHandler) ToggleTagFilter(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.run(w, r, func(e *browser.Engine) bool {
		e.ToggleTagFilter(r.Context(), id)
		return true
	})
}

type sortRequest struct {
	SortBy string `json:"sort_by"`
}

// SetSort changes the sort order
// PUT /api/browser/sort
func (h *BrowserHandler) SetSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if !bindJSON(w, r, &req) {
		return
	}
	sortBy, valid := browser.ParseSortBy(req.SortBy)
	if !valid {
		httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("unknown sort %q", req.SortBy))
		return
	}
	h.run(w, r, func(e *browser.Engine) bool {
		e.SetSortBy(r.Context(), sortBy)
		return true
	})
}

type viewRequest struct {
	ViewMode string `json:"view_mode"`
}

// SetView switches between grid and list
// PUT /api/browser/view
func (h *BrowserHandler) SetView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if !bindJSON(w, r, &req) {
		return
	}
	mode, valid := browser.ParseViewMode(req.ViewMode)
	if !valid {
		httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("unknown view mode %q", req.ViewMode))
		return
	}
	h.run(w, r, func(e *browser.Engine) bool {
		e.SetViewMode(r.Context(), mode)
		return true
	})
}

// ToggleDocumentSelection selects or deselects a document
// POST /api/browser/selection/documents/{id}
func (h *BrowserHandler) ToggleDocumentSelection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.run(w, r, func(e *browser.Engine) bool {
		e.ToggleDocumentSelection(id)
		return true
	})
}

// ToggleFolderSelection selects or deselects a folder
// POST /api/browser/selection/folders/{id}
func (h *BrowserHandler) ToggleFolderSelection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.run(w, r, func(e *browser.Engine) bool {
		e.ToggleFolderSelection(id)
		return true
	})
}

// SelectAll selects every visible document
// POST /api/browser/selection/documents
func (h *BrowserHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *browser.Engine) bool {
		e.SelectAll()
		return true
	})
}

// SelectAllFolders selects every visible folder
// POST /api/browser/selection/folders
func (h *BrowserHandler) SelectAllFolders(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *browser.Engine) bool {
		e.SelectAllFolders()
		return true
	})
}

// EnterSelectionMode turns on selection mode
// POST /api/browser/selection
func (h *BrowserHandler) EnterSelectionMode(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *browser.Engine) bool {
		e.EnterSelectionMode()
		return true
	})
}

// ClearSelection empties the selection
// DELETE /api/browser/selection
func (h *BrowserHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *browser.Engine) bool {
		e.ClearSelection()
		return true
	})
}

// ToggleFavorite flips a document's favorite flag
// POST /api/browser/documents/{id}/favorite
func (h *BrowserHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.run(w, r, func(e *browser.Engine) bool { return e.ToggleFavorite(r.Context(), id) })
}

// documentPatch edits a document. Absent fields are unchanged; a null
// ocr_text removes the text and a null folder_id moves to root.
type documentPatch struct {
	Title    *string                 `json:"title"`
	OCRText  httputil.OptionalString `json:"ocr_text"`
	FolderID httputil.OptionalString `json:"folder_id"`
}

// UpdateDocument renames, edits text or moves a document
// PATCH /api/browser/documents/{id}
func (h *BrowserHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req documentPatch
	if !bindJSON(w, r, &req) {
		return
	}
	h.run(w, r, func(e *browser.Engine) bool {
		ctx := r.Context()
		if req.Title != nil && !e.RenameDocument(ctx, id, *req.Title) {
			return false
		}
		if req.OCRText.Present && !e.UpdateDocumentOCR(ctx, id, req.OCRText.Value) {
			return false
		}
		if req.FolderID.Present && !e.MoveDocumentToFolder(ctx, id, req.FolderID.Value) {
			return false
		}
		return true
	})
}

type moveRequest struct {
	FolderID *string `json:"folder_id"`
}

type moveResponse struct {
	Moved int         `json:"moved"`
	State browserView `json:"state"`
}

// MoveSelected moves the selected documents into a folder, or root for a
// null folder_id
// POST /api/browser/documents/move
func (h *BrowserHandler) MoveSelected(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !bindJSON(w, r, &req) {
		return
	}
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	moved := e.MoveSelectedToFolder(r.Context(), req.FolderID)
	httputil.RespondJSON(w, http.StatusOK, moveResponse{Moved: moved, State: newBrowserView(e.State())})
}

type createFolderRequest struct {
	Name  string  `json:"name"`
	Color *string `json:"color"`
}

type createFolderResponse struct {
	Folder *docsystem.Folder `json:"folder"`
	State  browserView       `json:"state"`
}

// CreateFolder creates a folder in the current folder
// POST /api/browser/folders
// Returns 201 if created
func (h *BrowserHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if !bindJSON(w, r, &req) {
		return
	}
	e, ok := h.engine(w, r)
	if !ok {
		return
	}

	folder := e.CreateFolder(r.Context(), req.Name, req.Color)
	status := http.StatusCreated
	if folder == nil {
		status = http.StatusOK
	}
	httputil.RespondJSON(w, status, createFolderResponse{Folder: folder, State: newBrowserView(e.State())})
}

// folderPatch edits a folder. A null color removes it; a null parent_id
// moves the folder to root.
type folderPatch struct {
	Name     *string                 `json:"name"`
	Color    httputil.OptionalString `json:"color"`
	ParentID httputil.OptionalString `json:"parent_id"`
}

func (p folderPatch) update() browser.FolderUpdate {
	u := browser.FolderUpdate{Name: p.Name}
	if p.Color.Present {
		u.Color = p.Color.Value
		u.ClearColor = p.Color.Cleared()
	}
	if p.ParentID.Present {
		u.ParentID = p.ParentID.Value
		u.MoveToRoot = p.ParentID.Cleared()
	}
	return u
}

// UpdateFolder renames, recolors or moves a folder
// PATCH /api/browser/folders/{id}
func (h *BrowserHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req folderPatch
	if !bindJSON(w, r, &req) {
		return
	}
	h.run(w, r, func(e *browser.Engine) bool { return e.UpdateFolder(r.Context(), id, req.update()) })
}

// ToggleFolderFavorite flips a folder's favorite flag
// POST /api/browser/folders/{id}/favorite
func (h *BrowserHandler) ToggleFolderFavorite(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.run(w, r, func(e *browser.Engine) bool { return e.ToggleFolderFavorite(r.Context(), id) })
}

// DeleteDocument deletes one document
// DELETE /api/browser/documents/{id}
func (h *BrowserHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.run(w, r, func(e *browser.Engine) bool { return e.DeleteDocument(r.Context(), id) })
}

// DeleteSelectedDocuments deletes the selected documents
// DELETE /api/browser/selection/documents
func (h *BrowserHandler) DeleteSelectedDocuments(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *browser.Engine) bool { return e.DeleteSelected(r.Context()) })
}

func parseChoice(s string) (browser.DeletionChoice, error) {
	switch strings.ToLower(s) {
	case "":
		return browser.ChoiceUnset, nil
	case "keep":
		return browser.KeepDocuments, nil
	case "delete":
		return browser.DeleteDocuments, nil
	}
	return browser.ChoiceUnset, fmt.Errorf("unknown choice %q, want keep or delete", s)
}

// respondDeletion maps an ExecuteDeletion result. A missing choice is 428
// with the plan attached so the client can ask.
func (h *BrowserHandler) respondDeletion(w http.ResponseWriter, e *browser.Engine, plan *browser.DeletionPlan, err error) {
	switch {
	case errors.Is(err, browser.ErrConfirmationRequired) && plan != nil:
		httputil.RespondErrorWithExtras(w, http.StatusPreconditionRequired, err.Error(), map[string]interface{}{
			"plan": plan,
		})
	case errors.Is(err, browser.ErrConfirmationRequired):
		httputil.RespondError(w, http.StatusPreconditionRequired, err.Error())
	case err != nil:
		httputil.RespondJSON(w, http.StatusOK, actionResponse[browserView]{OK: false, State: newBrowserView(e.State())})
	default:
		httputil.RespondJSON(w, http.StatusOK, actionResponse[browserView]{OK: true, State: newBrowserView(e.State())})
	}
}

// DeleteFolder deletes a folder. Folders holding documents need
// ?documents=keep or ?documents=delete.
// DELETE /api/browser/folders/{id}
func (h *BrowserHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	choice, err := parseChoice(r.URL.Query().Get("documents"))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	e, ok := h.engine(w, r)
	if !ok {
		return
	}

	err = e.DeleteFolder(r.Context(), id, choice)
	h.respondDeletion(w, e, nil, err)
}

// PlanDeletion describes what deleting the selection would remove
// GET /api/browser/deletion
func (h *BrowserHandler) PlanDeletion(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	plan, err := e.PlanDeletion(r.Context())
	if err != nil {
		httputil.RespondJSON(w, http.StatusOK, actionResponse[browserView]{OK: false, State: newBrowserView(e.State())})
		return
	}
	httputil.RespondJSON(w, http.StatusOK, plan)
}

type deletionRequest struct {
	Documents string `json:"documents"` // "keep", "delete" or empty
}

// ExecuteDeletion deletes the selected folders and documents
// POST /api/browser/deletion
func (h *BrowserHandler) ExecuteDeletion(w http.ResponseWriter, r *http.Request) {
	var req deletionRequest
	if !bindJSON(w, r, &req) {
		return
	}
	choice, err := parseChoice(req.Documents)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	e, ok := h.engine(w, r)
	if !ok {
		return
	}

	plan, err := e.PlanDeletion(r.Context())
	if err == nil {
		err = e.ExecuteDeletion(r.Context(), plan, choice)
	}
	h.respondDeletion(w, e, &plan, err)
}

// GetThumbnail serves a document's decrypted thumbnail
// GET /api/browser/documents/{id}/thumbnail
func (h *BrowserHandler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	path := e.LoadThumbnailForDocument(r.Context(), r.PathValue("id"))
	if path == "" {
		httputil.RespondError(w, http.StatusNotFound, "thumbnail not available")
		return
	}
	w.Header().Set("Cache-Control", "private, no-store")
	http.ServeFile(w, r, path)
}

type shareRequest struct {
	Format models.ShareFormat `json:"format"`
}

// Share streams the selected documents as a download. A single file is
// sent as-is; several are zipped on the fly.
// POST /api/browser/share
func (h *BrowserHandler) Share(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if !bindJSON(w, r, &req) {
		return
	}
	e, ok := h.engine(w, r)
	if !ok {
		return
	}

	delivered := false
	done := e.ShareSelected(r.Context(), req.Format, func(paths []string) error {
		delivered = true
		return deliverFiles(w, r, paths)
	})
	if !delivered {
		httputil.RespondJSON(w, http.StatusOK, actionResponse[browserView]{OK: done, State: newBrowserView(e.State())})
		return
	}
	if !done {
		h.logger.Warn("share delivery interrupted", "user_id", httputil.GetUserID(r))
	}
}

func deliverFiles(w http.ResponseWriter, r *http.Request, paths []string) error {
	if len(paths) == 1 {
		f, err := os.Open(paths[0])
		if err != nil {
			return err
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return err
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(paths[0])))
		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
		return nil
	}

	entries := make([]utils.ZipEntry, len(paths))
	for i, p := range paths {
		entries[i] = utils.ZipEntry{Name: filepath.Base(p), Path: p}
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="documents.zip"`)
	w.WriteHeader(http.StatusOK)
	return utils.StreamZip(w, entries)
}

type exportRequest struct {
	// Subdir is relative to the caller's export directory; empty for the
	// directory itself
	Subdir string `json:"subdir"`
}

type exportResponse struct {
	Result *models.ExportResult `json:"result"`
	State  browserView          `json:"state"`
}

// Export writes plaintext copies of the selection into the caller's export
// directory
// POST /api/browser/export
func (h *BrowserHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !bindJSON(w, r, &req) {
		return
	}
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	if s.ExportDir == "" {
		httputil.RespondError(w, http.StatusForbidden, "export is not available")
		return
	}
	dest, err := utils.ResolveWithin(s.ExportDir, strings.TrimSpace(req.Subdir))
	if err != nil {
		h.logger.Warn("rejected export path", "user_id", s.UserID, "subdir", req.Subdir)
		httputil.RespondError(w, http.StatusBadRequest, "subdir must be a relative path inside the export directory")
		return
	}

	result, _ := s.Browser.ExportSelected(r.Context(), dest)
	httputil.RespondJSON(w, http.StatusOK, exportResponse{Result: result, State: newBrowserView(s.Browser.State())})
}

type copyTextRequest struct {
	// AllowSensitive copies text even when it looks like card numbers,
	// IBANs or similar
	AllowSensitive bool `json:"allow_sensitive"`
}

type copyTextResponse struct {
	Result   *models.ClipboardResult `json:"result"`
	Detected []models.SensitiveKind  `json:"detected,omitempty"`
	Text     string                  `json:"text,omitempty"`
	State    browserView             `json:"state"`
}

// CopyText copies a document's recognised text to the session clipboard and
// returns it. Sensitive text is only copied with allow_sensitive.
// POST /api/browser/documents/{id}/copy-text
func (h *BrowserHandler) CopyText(w http.ResponseWriter, r *http.Request) {
	var req copyTextRequest
	if !bindJSON(w, r, &req) {
		return
	}
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}

	var detected []models.SensitiveKind
	result, copied := s.Browser.CopyOCRText(r.Context(), r.PathValue("id"), func(kinds []models.SensitiveKind) bool {
		detected = kinds
		return req.AllowSensitive
	})

	resp := copyTextResponse{Result: result, Detected: detected, State: newBrowserView(s.Browser.State())}
	if copied {
		resp.Text, _ = s.Clipboard.Read()
	}
	httputil.RespondJSON(w, http.StatusOK, resp)
}

// DismissError clears the error message
// DELETE /api/browser/error
func (h *BrowserHandler) DismissError(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *browser.Engine) bool {
		e.DismissError()
		return true
	})
}
