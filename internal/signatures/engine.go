// Package signatures holds the state behind the saved signatures screen: a
// flat list with search, sort, a single selection set and an image cache.
package signatures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"scandeck/internal/domain"
	"scandeck/internal/domain/models"
	"scandeck/internal/domain/repositories"
	"scandeck/internal/domain/services"
)

// Dependencies are the collaborators an Engine drives
type Dependencies struct {
	Signatures services.SignatureService

	// Preferences persists the sort order. Optional.
	Preferences repositories.PreferencesRepository

	Logger *slog.Logger
}

// Options tune an Engine
type Options struct {
	// UserID keys stored preferences
	UserID string
}

// Engine owns one signatures screen's state. It is safe for concurrent use.
type Engine struct {
	deps   Dependencies
	opts   Options
	logger *slog.Logger

	mu           sync.RWMutex
	st           State
	loadSeq      uint64
	initializing bool

	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// New creates an engine. Call Initialize before use.
func New(deps Dependencies, opts Options) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		deps:   deps,
		opts:   opts,
		logger: logger.With("engine", "signatures"),
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

// Subscribe registers fn to receive every new snapshot
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

func (e *Engine) update(fn func(st *State)) {
	e.mu.Lock()
	fn(&e.st)
	snap := e.st.clone()
	e.mu.Unlock()
	e.notify(snap)
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

// Initialize prepares the signature service and loads the list. It is a
// no-op once initialized; after a failure it may be called again.
func (e *Engine) Initialize(ctx context.Context) {
	e.mu.Lock()
	if e.st.IsInitialized || e.initializing {
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

	if err := e.deps.Signatures.Initialize(ctx); err != nil {
		e.logger.Error("signatures initialization failed", "error", err)
		e.update(func(st *State) {
			st.IsLoading = false
			st.IsInitialized = false
			st.Error = userMessage("open your signatures", err)
		})
		return
	}

	sortBy := e.loadSortPreference(ctx)
	e.update(func(st *State) {
		st.IsInitialized = true
		st.SortBy = sortBy
	})
	e.LoadSignatures(ctx)
}

// LoadSignatures replaces the list from the service. The storage size is
// refreshed whether or not the list loads.
func (e *Engine) LoadSignatures(ctx context.Context) {
	e.mu.Lock()
	if !e.st.IsInitialized {
		e.mu.Unlock()
		return
	}
	e.loadSeq++
	seq := e.loadSeq
	e.st.IsLoading = true
	snap := e.st.clone()
	e.mu.Unlock()
	e.notify(snap)

	sigs, err := e.deps.Signatures.GetAllSignatures(ctx)

	e.update(func(st *State) {
		if seq != e.loadSeq {
			return
		}
		st.IsLoading = false
		if err != nil {
			st.Error = userMessage("load signatures", err)
			return
		}
		st.Signatures = sortSignatures(sigs, st.SortBy)
		st.Error = ""
		keepLoaded(st)
	})
	if err != nil {
		e.logger.Warn("failed to load signatures", "error", err)
	}

	e.refreshStorageSize(ctx)
}

// keepLoaded drops cache and selection entries for signatures that are gone
func keepLoaded(st *State) {
	present := make(map[string]bool, len(st.Signatures))
	for _, sig := range st.Signatures {
		present[sig.ID] = true
	}
	for id := range st.Images {
		if !present[id] {
			delete(st.Images, id)
		}
	}
	for id := range st.SelectedIDs {
		if !present[id] {
			delete(st.SelectedIDs, id)
		}
	}
	if len(st.SelectedIDs) == 0 {
		st.IsSelectionMode = false
	}
}

func (e *Engine) refreshStorageSize(ctx context.Context) {
	size, err := e.deps.Signatures.GetStorageSizeFormatted(ctx)
	if err != nil {
		e.logger.Debug("storage size unavailable", "error", err)
		return
	}
	e.update(func(st *State) { st.StorageSize = size })
}

// Refresh reloads with the refreshing flag set
func (e *Engine) Refresh(ctx context.Context) {
	e.update(func(st *State) { st.IsRefreshing = true })
	e.LoadSignatures(ctx)
	e.update(func(st *State) { st.IsRefreshing = false })
}

// SetSortBy re-sorts without a service call, keeping the default first
func (e *Engine) SetSortBy(ctx context.Context, s SortBy) {
	e.update(func(st *State) {
		st.SortBy = s
		st.Signatures = sortSignatures(st.Signatures, s)
	})
	e.saveSortPreference(ctx, s)
}

// SetSearchQuery filters the visible list by label
func (e *Engine) SetSearchQuery(q string) {
	e.update(func(st *State) { st.SearchQuery = q })
}

// ToggleSelection adds or removes a signature from the selection
func (e *Engine) ToggleSelection(id string) {
	e.update(func(st *State) {
		if st.SelectedIDs[id] {
			delete(st.SelectedIDs, id)
		} else {
			st.SelectedIDs[id] = true
		}
		st.IsSelectionMode = len(st.SelectedIDs) > 0
	})
}

// SelectAll selects every visible signature
func (e *Engine) SelectAll() {
	e.update(func(st *State) {
		clear(st.SelectedIDs)
		for _, sig := range st.FilteredSignatures() {
			st.SelectedIDs[sig.ID] = true
		}
		st.IsSelectionMode = len(st.SelectedIDs) > 0
	})
}

// EnterSelectionMode turns selection mode on before anything is selected
func (e *Engine) EnterSelectionMode() {
	e.update(func(st *State) { st.IsSelectionMode = true })
}

// ClearSelection empties the selection and leaves selection mode
func (e *Engine) ClearSelection() {
	e.update(func(st *State) {
		clear(st.SelectedIDs)
		st.IsSelectionMode = false
	})
}

// DismissError clears the current error message
func (e *Engine) DismissError() {
	e.update(func(st *State) { st.Error = "" })
}

// mutateThenReload runs op and reloads on success. On failure the message
// goes to State.Error and the list stays as it was.
func (e *Engine) mutateThenReload(ctx context.Context, action string, op func(ctx context.Context) error) bool {
	if err := op(ctx); err != nil {
		e.fail(action, err)
		return false
	}
	e.LoadSignatures(ctx)
	return true
}

// deleteThenReload is mutateThenReload for deletions: removed ids leave the
// image cache and the storage size is refreshed even when the delete fails
func (e *Engine) deleteThenReload(ctx context.Context, ids []string, op func(ctx context.Context) error) bool {
	err := op(ctx)
	if err == nil {
		e.update(func(st *State) {
			if ids == nil {
				clear(st.Images)
				clear(st.SelectedIDs)
			}
			for _, id := range ids {
				delete(st.Images, id)
				delete(st.SelectedIDs, id)
			}
			st.IsSelectionMode = len(st.SelectedIDs) > 0
		})
	}
	e.refreshStorageSize(ctx)

	if err != nil {
		e.fail("delete signatures", err)
		return false
	}
	e.LoadSignatures(ctx)
	return true
}

func (e *Engine) fail(action string, err error) {
	e.logger.Warn("signatures operation failed", "action", action, "error", err)
	e.update(func(st *State) { st.Error = userMessage(action, err) })
}

// SaveSignature stores a new signature image
func (e *Engine) SaveSignature(ctx context.Context, label string, image []byte, makeDefault bool) *models.Signature {
	var saved *models.Signature
	e.mutateThenReload(ctx, "save signature", func(ctx context.Context) error {
		var err error
		saved, err = e.deps.Signatures.SaveSignature(ctx, label, image, makeDefault)
		return err
	})
	return saved
}

// SetDefault makes id the default signature
func (e *Engine) SetDefault(ctx context.Context, id string) bool {
	return e.mutateThenReload(ctx, "set default signature", func(ctx context.Context) error {
		return e.deps.Signatures.SetDefaultSignature(ctx, id)
	})
}

// ClearDefault leaves no default signature
func (e *Engine) ClearDefault(ctx context.Context) bool {
	return e.mutateThenReload(ctx, "clear default signature", func(ctx context.Context) error {
		return e.deps.Signatures.ClearDefaultSignature(ctx)
	})
}

// RenameSignature changes a label
func (e *Engine) RenameSignature(ctx context.Context, id, label string) bool {
	return e.mutateThenReload(ctx, "rename signature", func(ctx context.Context) error {
		label = strings.TrimSpace(label)
		if label == "" {
			return domain.E(domain.KindValidation, "signatures.rename", "label cannot be empty", domain.ErrValidation)
		}
		return e.deps.Signatures.RenameSignature(ctx, id, label)
	})
}

// DeleteSignature deletes one signature
func (e *Engine) DeleteSignature(ctx context.Context, id string) bool {
	return e.deleteThenReload(ctx, []string{id}, func(ctx context.Context) error {
		return e.deps.Signatures.DeleteSignature(ctx, id)
	})
}

// DeleteSignatures deletes several signatures at once
func (e *Engine) DeleteSignatures(ctx context.Context, ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	return e.deleteThenReload(ctx, ids, func(ctx context.Context) error {
		return e.deps.Signatures.DeleteSignatures(ctx, ids)
	})
}

// DeleteSelected deletes the selected signatures
func (e *Engine) DeleteSelected(ctx context.Context) bool {
	return e.DeleteSignatures(ctx, e.State().selected())
}

// ClearAllSignatures deletes every signature
func (e *Engine) ClearAllSignatures(ctx context.Context) bool {
	return e.deleteThenReload(ctx, nil, func(ctx context.Context) error {
		return e.deps.Signatures.ClearAllSignatures(ctx)
	})
}

// LoadImage returns a signature's image, decrypting it on first use. Returns
// nil when the signature is unknown or its image cannot be read.
func (e *Engine) LoadImage(ctx context.Context, id string) []byte {
	e.mu.RLock()
	img, cached := e.st.Images[id]
	var sig *models.Signature
	for i := range e.st.Signatures {
		if e.st.Signatures[i].ID == id {
			s := e.st.Signatures[i]
			sig = &s
			break
		}
	}
	e.mu.RUnlock()

	if cached {
		return img
	}
	if sig == nil {
		return nil
	}

	img, err := e.deps.Signatures.LoadSignatureImage(ctx, *sig)
	if err != nil {
		e.logger.Debug("signature image unavailable", "id", id, "error", err)
		return nil
	}
	e.update(func(st *State) {
		if containsSignature(st.Signatures, id) {
			st.Images[id] = img
		}
	})
	return img
}

func containsSignature(sigs []models.Signature, id string) bool {
	for _, s := range sigs {
		if s.ID == id {
			return true
		}
	}
	return false
}

func (e *Engine) loadSortPreference(ctx context.Context) SortBy {
	sortBy := e.State().SortBy
	if e.deps.Preferences == nil {
		return sortBy
	}
	prefs, err := e.deps.Preferences.Get(ctx, e.opts.UserID)
	if err != nil {
		e.logger.Warn("failed to read signature preferences", "error", err)
		return sortBy
	}
	if s, ok := ParseSortBy(prefs.SignaturesSort); ok {
		sortBy = s
	}
	return sortBy
}

func (e *Engine) saveSortPreference(ctx context.Context, s SortBy) {
	if e.deps.Preferences == nil {
		return
	}
	if err := e.deps.Preferences.Set(ctx, e.opts.UserID, models.PreferenceSignaturesSort, string(s)); err != nil {
		e.logger.Warn("failed to save signature preferences", "error", err)
	}
}

func userMessage(action string, err error) string {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return fmt.Sprintf("Could not %s: the signature no longer exists.", action)
	case domain.KindConflict:
		return fmt.Sprintf("Could not %s: a signature with that label already exists.", action)
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
