// Package browser holds the state behind the document browser: the current
// folder, filters, sort order, selection and the thumbnail cache. Callers
// read immutable snapshots and invoke operations; every collaborator failure
// ends up as a message in State.Error.
package browser

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"scandeck/internal/config"
	appmodels "scandeck/internal/domain/models"
	models "scandeck/internal/domain/models/docsystem"
	"scandeck/internal/domain/repositories"
	"scandeck/internal/domain/services"
	docsysSvc "scandeck/internal/domain/services/docsystem"
)

// Dependencies are the collaborators an Engine drives
type Dependencies struct {
	Documents docsysSvc.DocumentRepository
	Folders   docsysSvc.FolderService
	Share     services.ShareService
	Clipboard services.ClipboardService

	// Preferences persists view mode and sort order. Optional.
	Preferences repositories.PreferencesRepository

	Logger *slog.Logger
}

// Options tune an Engine
type Options struct {
	// UserID keys stored preferences
	UserID string

	// ThumbnailBatch caps how many thumbnails a load decrypts up front
	ThumbnailBatch int
}

// Engine owns one browser's state. It is safe for concurrent use; service
// calls run outside the lock and results from superseded loads are dropped.
type Engine struct {
	deps   Dependencies
	opts   Options
	logger *slog.Logger

	mu           sync.RWMutex
	st           State
	loadSeq      uint64
	initializing bool
	disposed     bool

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int

	wg     sync.WaitGroup
	thumbs singleflight.Group
}

// New creates an engine. Call Initialize before use.
func New(deps Dependencies, opts Options) *Engine {
	if opts.ThumbnailBatch <= 0 {
		opts.ThumbnailBatch = config.InitialThumbnailBatch
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		deps:   deps,
		opts:   opts,
		logger: logger.With("engine", "browser"),
		st:     newState(),
		subs:   make(map[int]func(State)),
	}
}

// State returns a snapshot of the current state
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.clone()
}

// Subscribe registers fn to receive every new snapshot. fn runs on the
// goroutine that changed the state and must not block.
func (e *Engine) Subscribe(fn func(State)) (cancel func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn

	return func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		delete(e.subs, id)
	}
}

// update applies fn under the lock and notifies subscribers. Returns false
// once the engine is disposed.
func (e *Engine) update(fn func(st *State)) bool {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return false
	}
	fn(&e.st)
	snap := e.st.clone()
	e.mu.Unlock()

	e.notify(snap)
	return true
}

func (e *Engine) notify(snap State) {
	e.subMu.Lock()
	fns := make([]func(State), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Initialize prepares both collaborators and loads the first page. It is a
// no-op once initialized; after a failure it may be called again.
func (e *Engine) Initialize(ctx context.Context) {
	e.mu.Lock()
	if e.st.IsInitialized || e.initializing || e.disposed {
		e.mu.Unlock()
		return
	}
	e.initializing = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.initializing = false
		e.mu.Unlock()
	}()

	e.update(func(st *State) {
		st.IsLoading = true
		st.Error = ""
	})

	err := e.deps.Documents.Initialize(ctx)
	if err == nil {
		err = e.deps.Folders.Initialize(ctx)
	}
	if err != nil {
		e.logger.Error("browser initialization failed", "error", err)
		e.update(func(st *State) {
			st.IsLoading = false
			st.IsInitialized = false
			st.Error = userMessage(actionInitialize, err)
		})
		return
	}

	view, sortBy := e.loadPreferences(ctx)
	e.update(func(st *State) {
		st.IsInitialized = true
		st.ViewMode = view
		st.SortBy = sortBy
	})

	e.LoadDocuments(ctx)
}

func (e *Engine) loadPreferences(ctx context.Context) (ViewMode, SortBy) {
	st := e.State()
	view, sortBy := st.ViewMode, st.SortBy
	if e.deps.Preferences == nil {
		return view, sortBy
	}

	prefs, err := e.deps.Preferences.Get(ctx, e.opts.UserID)
	if err != nil {
		e.logger.Warn("failed to read browser preferences", "error", err)
		return view, sortBy
	}
	if v, ok := ParseViewMode(prefs.ViewMode); ok {
		view = v
	}
	if s, ok := ParseSortBy(prefs.DocumentsSortBy); ok {
		sortBy = s
	}
	return view, sortBy
}

func (e *Engine) savePreference(ctx context.Context, key appmodels.PreferenceKey, value string) {
	if e.deps.Preferences == nil {
		return
	}
	if err := e.deps.Preferences.Set(ctx, e.opts.UserID, key, value); err != nil {
		e.logger.Warn("failed to save browser preference", "key", key, "error", err)
	}
}

// loadQuery is the part of the state a load depends on
type loadQuery struct {
	currentFolderID *string
	filter          DocumentsFilter
	showFolders     bool
}

type loadResult struct {
	documents     []models.Document
	folders       []models.Folder
	currentFolder *models.Folder
}

// LoadDocuments replaces the document and folder lists from the services.
// A failure keeps the previous lists and records an error. Results of a load
// that was overtaken by a newer one are discarded.
func (e *Engine) LoadDocuments(ctx context.Context) {
	e.mu.Lock()
	if !e.st.IsInitialized || e.disposed {
		e.mu.Unlock()
		return
	}
	e.loadSeq++
	seq := e.loadSeq
	q := loadQuery{
		currentFolderID: cloneString(e.st.CurrentFolderID),
		filter:          e.st.Filter.clone(),
		showFolders:     e.st.ShouldShowFolders(),
	}
	e.st.IsLoading = true
	snap := e.st.clone()
	e.mu.Unlock()
	e.notify(snap)

	res, err := e.fetch(ctx, q)

	var batch []models.Document
	applied := e.applyLoad(seq, func(st *State) {
		if err != nil {
			st.Error = userMessage(actionLoad, err)
			return
		}
		st.Documents = sortDocuments(res.documents, st.SortBy)
		st.Folders = res.folders
		if res.currentFolder != nil {
			st.CurrentFolder = res.currentFolder
		}
		st.Error = ""
		batch = st.Documents
	})

	switch {
	case !applied:
		e.logger.Debug("discarded stale load", "seq", seq)
	case err != nil:
		e.logger.Warn("failed to load documents", "error", err)
	default:
		e.startThumbnailBatch(batch)
	}
}

// applyLoad runs fn only while seq is the newest load
func (e *Engine) applyLoad(seq uint64, fn func(st *State)) bool {
	e.mu.Lock()
	if e.disposed || seq != e.loadSeq {
		e.mu.Unlock()
		return false
	}
	fn(&e.st)
	e.st.IsLoading = false
	snap := e.st.clone()
	e.mu.Unlock()

	e.notify(snap)
	return true
}

// fetch picks the document source by priority: favorites, the entered
// folder, a folder filter, then everything. OCR and tag filters apply to
// whatever the source returned.
func (e *Engine) fetch(ctx context.Context, q loadQuery) (loadResult, error) {
	var (
		res        loadResult
		err        error
		clientSide = q.filter.hasClientFilters()
	)

	switch {
	case q.filter.FavoritesOnly:
		res.documents, err = e.deps.Documents.GetFavoriteDocuments(ctx, true)
		if err != nil {
			return res, err
		}
		if !clientSide {
			res.folders, err = e.folders(ctx, func(c *models.FolderCollection) []models.Folder { return c.Favorites() })
		}

	case q.currentFolderID != nil:
		id := *q.currentFolderID
		res.documents, err = e.deps.Documents.GetDocumentsInFolder(ctx, &id, true)
		if err != nil {
			return res, err
		}
		if !clientSide {
			res.folders, err = e.folders(ctx, func(c *models.FolderCollection) []models.Folder { return c.ChildrenOf(id) })
			if err != nil {
				return res, err
			}
		}
		res.currentFolder, err = e.deps.Folders.GetFolder(ctx, id)

	case q.filter.FolderID != nil:
		res.documents, err = e.deps.Documents.GetDocumentsInFolder(ctx, q.filter.FolderID, true)

	default:
		res.documents, err = e.deps.Documents.GetAllDocuments(ctx, true)
		if err != nil {
			return res, err
		}
		if q.showFolders {
			res.documents = rootDocuments(res.documents)
		}
		if !clientSide {
			res.folders, err = e.folders(ctx, func(c *models.FolderCollection) []models.Folder { return c.Roots() })
		}
	}
	if err != nil {
		return res, err
	}

	res.documents = applyClientFilters(res.documents, q.filter)
	if res.folders == nil {
		res.folders = []models.Folder{}
	}
	return res, nil
}

func (e *Engine) folders(ctx context.Context, pick func(c *models.FolderCollection) []models.Folder) ([]models.Folder, error) {
	all, err := e.deps.Folders.GetAllFolders(ctx)
	if err != nil {
		return nil, err
	}
	out := pick(all)
	models.SortFoldersByName(out)
	return out, nil
}

func rootDocuments(docs []models.Document) []models.Document {
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if d.FolderID == nil {
			out = append(out, d)
		}
	}
	return out
}

func applyClientFilters(docs []models.Document, f DocumentsFilter) []models.Document {
	if !f.hasClientFilters() {
		return docs
	}
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if f.HasOCROnly && !d.HasOCRText() {
			continue
		}
		if len(f.TagIDs) > 0 && !d.HasAnyTag(f.TagIDs) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Refresh reloads with the refreshing flag set
func (e *Engine) Refresh(ctx context.Context) {
	if !e.update(func(st *State) { st.IsRefreshing = true }) {
		return
	}
	e.LoadDocuments(ctx)
	e.update(func(st *State) { st.IsRefreshing = false })
}

// requery changes what a load fetches, drops loads still in flight and
// reloads
func (e *Engine) requery(ctx context.Context, fn func(st *State)) {
	ok := e.update(func(st *State) {
		e.loadSeq++
		fn(st)
	})
	if ok {
		e.LoadDocuments(ctx)
	}
}

// EnterFolder navigates into folder and reloads
func (e *Engine) EnterFolder(ctx context.Context, folder models.Folder) {
	e.requery(ctx, func(st *State) {
		id := folder.ID
		st.CurrentFolderID = &id
		st.CurrentFolder = &folder
		clearSelection(st)
	})
}

// EnterFolderByID enters a listed folder, fetching it when it is not loaded
func (e *Engine) EnterFolderByID(ctx context.Context, id string) bool {
	for _, f := range e.State().Folders {
		if f.ID == id {
			e.EnterFolder(ctx, f)
			return true
		}
	}

	folder, err := e.deps.Folders.GetFolder(ctx, id)
	if err != nil {
		e.fail(actionOpenFolder, err)
		return false
	}
	e.EnterFolder(ctx, *folder)
	return true
}

// ExitFolder goes to the parent of the current folder, or to root
func (e *Engine) ExitFolder(ctx context.Context) {
	cur := e.State().CurrentFolder
	if cur == nil || cur.ParentID == nil {
		e.NavigateToRoot(ctx)
		return
	}

	parent, err := e.deps.Folders.GetFolder(ctx, *cur.ParentID)
	if err != nil {
		e.logger.Warn("failed to open parent folder", "folder_id", *cur.ParentID, "error", err)
		e.NavigateToRoot(ctx)
		e.update(func(st *State) { st.Error = userMessage(actionOpenFolder, err) })
		return
	}
	e.EnterFolder(ctx, *parent)
}

// NavigateToRoot leaves any folder and reloads
func (e *Engine) NavigateToRoot(ctx context.Context) {
	e.requery(ctx, func(st *State) {
		st.CurrentFolderID = nil
		st.CurrentFolder = nil
		clearSelection(st)
	})
}

// SetSearchQuery changes the search text and reloads
func (e *Engine) SetSearchQuery(ctx context.Context, q string) {
	e.requery(ctx, func(st *State) { st.SearchQuery = q })
}

// SetFilter replaces the filter and reloads
func (e *Engine) SetFilter(ctx context.Context, f DocumentsFilter) {
	e.requery(ctx, func(st *State) { st.Filter = f.clone() })
}

// UpdateFilter applies u to the current filter and reloads
func (e *Engine) UpdateFilter(ctx context.Context, u FilterUpdate) {
	e.requery(ctx, func(st *State) { st.Filter = st.Filter.With(u) })
}

// ClearFilters resets the filter. Nothing happens when it is already clear.
func (e *Engine) ClearFilters(ctx context.Context) {
	if !e.State().Filter.HasActiveFilters() {
		return
	}
	e.SetFilter(ctx, DocumentsFilter{})
}

func (e *Engine) ToggleFavoritesFilter(ctx context.Context) {
	on := !e.State().Filter.FavoritesOnly
	e.UpdateFilter(ctx, FilterUpdate{FavoritesOnly: &on})
}

func (e *Engine) ToggleOCRFilter(ctx context.Context) {
	on := !e.State().Filter.HasOCROnly
	e.UpdateFilter(ctx, FilterUpdate{HasOCROnly: &on})
}

// ToggleTagFilter adds or removes tagID from the tag filter
func (e *Engine) ToggleTagFilter(ctx context.Context, tagID string) {
	tags := e.State().Filter.TagIDs

	next := make([]string, 0, len(tags)+1)
	found := false
	for _, t := range tags {
		if t == tagID {
			found = true
			continue
		}
		next = append(next, t)
	}
	if !found {
		next = append(next, tagID)
	}

	if len(next) == 0 {
		e.UpdateFilter(ctx, FilterUpdate{ClearTagIDs: true})
		return
	}
	e.UpdateFilter(ctx, FilterUpdate{TagIDs: next})
}

// SetSortBy re-sorts the loaded documents without a service call
func (e *Engine) SetSortBy(ctx context.Context, s SortBy) {
	ok := e.update(func(st *State) {
		st.SortBy = s
		st.Documents = sortDocuments(st.Documents, s)
	})
	if ok {
		e.savePreference(ctx, appmodels.PreferenceDocumentsSortBy, string(s))
	}
}

// SetViewMode switches between grid and list
func (e *Engine) SetViewMode(ctx context.Context, m ViewMode) {
	ok := e.update(func(st *State) { st.ViewMode = m })
	if ok {
		e.savePreference(ctx, appmodels.PreferenceViewMode, string(m))
	}
}

// Wait blocks until background thumbnail work finishes
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Dispose stops applying results and removes decrypted thumbnails. Removal
// errors are ignored.
func (e *Engine) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	paths := make([]string, 0, len(e.st.Thumbnails))
	for _, p := range e.st.Thumbnails {
		paths = append(paths, p)
	}
	e.st.Thumbnails = map[string]string{}
	e.mu.Unlock()

	e.subMu.Lock()
	clear(e.subs)
	e.subMu.Unlock()

	removeFiles(e.logger, paths)
}
