package browser

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scandeck/internal/domain"
	appmodels "scandeck/internal/domain/models"
	models "scandeck/internal/domain/models/docsystem"
	"scandeck/internal/repository/sqlite"
)

type fixture struct {
	lib       *library
	share     *fakeShare
	clipboard *fakeClipboard
	deps      Dependencies
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	lib := newLibrary(t.TempDir())
	f := &fixture{
		lib:       lib,
		share:     &fakeShare{dir: t.TempDir()},
		clipboard: &fakeClipboard{},
	}
	f.deps = Dependencies{
		Documents: fakeDocs{lib},
		Folders:   fakeFolders{lib},
		Share:     f.share,
		Clipboard: f.clipboard,
		Logger:    discardLogger(),
	}
	return f
}

// start builds an initialized engine and waits for its first thumbnails
func (f *fixture) start(t *testing.T) *Engine {
	t.Helper()
	e := New(f.deps, Options{UserID: "user-1"})
	e.Initialize(context.Background())
	e.Wait()
	t.Cleanup(e.Dispose)
	require.True(t, e.State().IsInitialized, e.State().Error)
	return e
}

func documentIDs(docs []models.Document) []string {
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids
}

func folderIDs(folders []models.Folder) []string {
	ids := make([]string, len(folders))
	for i, f := range folders {
		ids[i] = f.ID
	}
	return ids
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("failure allows retry", func(t *testing.T) {
		f := newFixture(t)
		f.lib.initErr = domain.E(domain.KindIOFailure, "documents.init", "database locked", domain.ErrIOFailure)
		f.lib.addDocument("Lease", nil)

		e := New(f.deps, Options{})
		defer e.Dispose()

		e.Initialize(ctx)
		st := e.State()
		assert.False(t, st.IsInitialized)
		assert.False(t, st.IsLoading)
		assert.Contains(t, st.Error, "storage is unavailable")
		assert.Empty(t, st.Documents)

		f.lib.initErr = nil
		e.Initialize(ctx)
		st = e.State()
		assert.True(t, st.IsInitialized)
		assert.Empty(t, st.Error)
		assert.Len(t, st.Documents, 1)
	})

	t.Run("second call is a no-op", func(t *testing.T) {
		f := newFixture(t)
		e := f.start(t)
		f.lib.addDocument("Late", nil)

		e.Initialize(ctx)
		assert.Empty(t, e.State().Documents)
	})

	t.Run("load before initialize does nothing", func(t *testing.T) {
		f := newFixture(t)
		f.lib.addDocument("Lease", nil)
		e := New(f.deps, Options{})
		defer e.Dispose()

		e.LoadDocuments(ctx)
		assert.Empty(t, e.State().Documents)
		assert.False(t, e.State().IsLoading)
	})
}

func TestSelectionExclusivity(t *testing.T) {
	f := newFixture(t)
	for i := range 4 {
		f.lib.addDocument("doc", nil)
		f.lib.addFolder("folder"+string(rune('A'+i)), nil)
	}
	e := f.start(t)
	st := e.State()
	docs, folders := documentIDs(st.Documents), folderIDs(st.Folders)

	rng := rand.New(rand.NewPCG(1, 2))
	for step := range 200 {
		if rng.IntN(2) == 0 {
			e.ToggleDocumentSelection(docs[rng.IntN(len(docs))])
		} else {
			e.ToggleFolderSelection(folders[rng.IntN(len(folders))])
		}

		st := e.State()
		assert.False(t, len(st.SelectedDocumentIDs) > 0 && len(st.SelectedFolderIDs) > 0,
			"step %d: both kinds selected", step)
		assert.Equal(t, st.HasSelection(), st.IsSelectionMode, "step %d", step)
	}
}

func TestSelectionMode(t *testing.T) {
	f := newFixture(t)
	d := f.lib.addDocument("doc", nil)
	folder := f.lib.addFolder("Taxes", nil)
	e := f.start(t)

	tests := []struct {
		name string
		act  func()
		want bool
	}{
		{"explicit enter with nothing selected", e.EnterSelectionMode, true},
		{"select document", func() { e.ToggleDocumentSelection(d.ID) }, true},
		{"deselect last document", func() { e.ToggleDocumentSelection(d.ID) }, false},
		{"select folder", func() { e.ToggleFolderSelection(folder.ID) }, true},
		{"select all documents", e.SelectAll, true},
		{"clear", e.ClearSelection, false},
		{"select all folders", e.SelectAllFolders, true},
	}

	for _, tt := range tests {
		tt.act()
		assert.Equal(t, tt.want, e.State().IsSelectionMode, tt.name)
	}

	st := e.State()
	assert.True(t, st.AllFoldersSelected())
	assert.Empty(t, st.SelectedDocumentIDs)
}

func TestSelectAllUsesSearchResults(t *testing.T) {
	f := newFixture(t)
	invoice := f.lib.addDocument("Invoice March", nil)
	f.lib.addDocument("Receipt", nil)
	e := f.start(t)

	e.SetSearchQuery(context.Background(), "invoice")
	e.SelectAll()

	st := e.State()
	assert.Equal(t, map[string]bool{invoice.ID: true}, st.SelectedDocumentIDs)
	assert.True(t, st.AllSelected())
}

func TestClearFiltersIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.lib.addDocument("doc", nil, withOCR("text"))
	e := f.start(t)
	ctx := context.Background()

	e.ToggleOCRFilter(ctx)
	e.ToggleTagFilter(ctx, "t1")
	require.True(t, e.State().Filter.HasActiveFilters())

	e.ClearFilters(ctx)
	once := e.State()
	e.ClearFilters(ctx)
	twice := e.State()

	assert.True(t, once.Filter.Equal(DocumentsFilter{}))
	assert.True(t, twice.Filter.Equal(once.Filter))
	assert.Equal(t, documentIDs(once.Documents), documentIDs(twice.Documents))
	assert.Equal(t, folderIDs(once.Folders), folderIDs(twice.Folders))
}

func TestFolderLoadGating(t *testing.T) {
	ctx := context.Background()

	t.Run("root folders shown when they exist", func(t *testing.T) {
		f := newFixture(t)
		taxes := f.lib.addFolder("Taxes", nil)
		f.lib.addFolder("2024", &taxes.ID)
		f.lib.addFolder("Receipts", nil)
		e := f.start(t)

		st := e.State()
		assert.True(t, st.ShouldShowFolders())
		assert.Equal(t, []string{"Receipts", "Taxes"}, folderNames(st.Folders))
	})

	t.Run("no root folders", func(t *testing.T) {
		f := newFixture(t)
		e := f.start(t)
		assert.Empty(t, e.State().Folders)
	})

	t.Run("search at root matches folder names", func(t *testing.T) {
		f := newFixture(t)
		f.lib.addFolder("Taxes", nil)
		f.lib.addFolder("Receipts", nil)
		e := f.start(t)

		e.SetSearchQuery(ctx, "x")
		st := e.State()
		assert.False(t, st.ShouldShowFolders())
		assert.Equal(t, []string{"Taxes"}, folderNames(st.FilteredFolders()))
	})

	t.Run("ocr filter hides folders", func(t *testing.T) {
		f := newFixture(t)
		f.lib.addFolder("Taxes", nil)
		e := f.start(t)

		e.ToggleOCRFilter(ctx)
		assert.Empty(t, e.State().Folders)
	})
}

func folderNames(folders []models.Folder) []string {
	names := make([]string, len(folders))
	for i, f := range folders {
		names[i] = f.Name
	}
	return names
}

func TestLoadDocuments_SourcePriority(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	taxes := f.lib.addFolder("Taxes", nil)
	sub := f.lib.addFolder("2024", &taxes.ID)
	rootDoc := f.lib.addDocument("Root doc", nil, favorite)
	inTaxes := f.lib.addDocument("W2", &taxes.ID, withOCR("wages"), withTags("t-tax"))
	inSub := f.lib.addDocument("1099", &sub.ID, favorite)
	require.NoError(t, fakeFolders{f.lib}.ToggleFavorite(ctx, sub.ID))

	e := f.start(t)

	t.Run("root lists root documents while folders show", func(t *testing.T) {
		assert.Equal(t, []string{rootDoc.ID}, documentIDs(e.State().Documents))
	})

	t.Run("search at root lists every document", func(t *testing.T) {
		e.SetSearchQuery(ctx, "9")
		st := e.State()
		assert.Len(t, st.Documents, 3)
		assert.Equal(t, []string{inSub.ID}, documentIDs(st.FilteredDocuments()))
		e.SetSearchQuery(ctx, "")
	})

	t.Run("inside folder", func(t *testing.T) {
		e.EnterFolder(ctx, taxes)
		st := e.State()
		assert.False(t, st.IsAtRoot())
		assert.Equal(t, []string{inTaxes.ID}, documentIDs(st.Documents))
		assert.Equal(t, []string{sub.ID}, folderIDs(st.Folders))
		require.NotNil(t, st.CurrentFolder)
		assert.Equal(t, "Taxes", st.CurrentFolder.Name)
	})

	t.Run("current folder refreshed on load", func(t *testing.T) {
		require.NoError(t, fakeFolders{f.lib}.ToggleFavorite(ctx, taxes.ID))
		e.Refresh(ctx)
		st := e.State()
		assert.True(t, st.CurrentFolder.IsFavorite)
		assert.False(t, st.IsRefreshing)
	})

	t.Run("favorites win over the entered folder", func(t *testing.T) {
		e.ToggleFavoritesFilter(ctx)
		st := e.State()
		assert.ElementsMatch(t, []string{rootDoc.ID, inSub.ID}, documentIDs(st.Documents))
		assert.ElementsMatch(t, []string{taxes.ID, sub.ID}, folderIDs(st.Folders))
		e.ToggleFavoritesFilter(ctx)
	})

	t.Run("tag filter applies after the folder source", func(t *testing.T) {
		e.ToggleTagFilter(ctx, "t-tax")
		st := e.State()
		assert.Equal(t, []string{inTaxes.ID}, documentIDs(st.Documents))
		assert.Empty(t, st.Folders)
		e.ToggleTagFilter(ctx, "t-tax")
		assert.Nil(t, e.State().Filter.TagIDs)
	})

	t.Run("folder filter without navigating", func(t *testing.T) {
		e.NavigateToRoot(ctx)
		e.UpdateFilter(ctx, FilterUpdate{FolderID: &sub.ID})
		st := e.State()
		assert.True(t, st.IsAtRoot())
		assert.Equal(t, []string{inSub.ID}, documentIDs(st.Documents))
		assert.Empty(t, st.Folders)
	})
}

func TestLoadDocuments_FailureKeepsLists(t *testing.T) {
	f := newFixture(t)
	f.lib.addDocument("Lease", nil)
	e := f.start(t)

	f.lib.loadErr = errors.New("connection reset")
	e.Refresh(context.Background())

	st := e.State()
	assert.Len(t, st.Documents, 1)
	assert.Equal(t, "Could not load documents. Please try again.", st.Error)
	assert.False(t, st.IsLoading)
}

func TestLoadDocuments_DiscardsStaleResults(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.lib.addDocument("A", nil)
	e := f.start(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.lib.mu.Lock()
	f.lib.onListAll = func() {
		close(entered)
		<-release
	}
	f.lib.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.LoadDocuments(ctx)
	}()
	<-entered

	f.lib.addDocument("B", nil)
	e.SetSearchQuery(ctx, "")
	require.Len(t, e.State().Documents, 2)

	close(release)
	<-done
	assert.Len(t, e.State().Documents, 2)
}

func TestSortBy(t *testing.T) {
	f := newFixture(t)
	f.lib.addDocument("beta", nil)
	f.lib.addDocument("Alpha", nil)
	f.lib.addDocument("gamma", nil)
	e := f.start(t)
	ctx := context.Background()

	tests := []struct {
		sort SortBy
		want []string
	}{
		{SortCreatedDesc, []string{"gamma", "Alpha", "beta"}},
		{SortCreatedAsc, []string{"beta", "Alpha", "gamma"}},
		{SortTitle, []string{"Alpha", "beta", "gamma"}},
		{SortSize, []string{"gamma", "Alpha", "beta"}},
		{SortUpdatedDesc, []string{"gamma", "Alpha", "beta"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			e.SetSortBy(ctx, tt.sort)
			var titles []string
			for _, d := range e.State().Documents {
				titles = append(titles, d.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestPreferencesPersist(t *testing.T) {
	ctx := context.Background()
	prefs, err := sqlite.Open(filepath.Join(t.TempDir(), "prefs.db"), discardLogger())
	require.NoError(t, err)
	defer prefs.Close()

	f := newFixture(t)
	f.deps.Preferences = prefs
	// written by the signatures screen for the same user
	require.NoError(t, prefs.Set(ctx, "user-1", appmodels.PreferenceSignaturesSort, "label"))

	first := f.start(t)
	first.SetViewMode(ctx, ViewList)
	first.SetSortBy(ctx, SortTitle)

	second := f.start(t)
	st := second.State()
	assert.Equal(t, ViewList, st.ViewMode)
	assert.Equal(t, SortTitle, st.SortBy)

	stored, err := prefs.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "label", stored.SignaturesSort)
}

func TestNavigation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	parent := f.lib.addFolder("Parent", nil)
	child := f.lib.addFolder("Child", &parent.ID)
	d := f.lib.addDocument("doc", nil)
	e := f.start(t)

	e.ToggleDocumentSelection(d.ID)
	e.EnterFolder(ctx, child)
	st := e.State()
	assert.Equal(t, child.ID, *st.CurrentFolderID)
	assert.False(t, st.HasSelection())

	e.ExitFolder(ctx)
	st = e.State()
	require.NotNil(t, st.CurrentFolderID)
	assert.Equal(t, parent.ID, *st.CurrentFolderID)
	assert.Equal(t, []string{child.ID}, folderIDs(st.Folders))

	e.ExitFolder(ctx)
	st = e.State()
	assert.True(t, st.IsAtRoot())
	assert.Nil(t, st.CurrentFolder)
	assert.Equal(t, []string{parent.ID}, folderIDs(st.Folders))
}

func TestEnterFolderByID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	parent := f.lib.addFolder("Parent", nil)
	child := f.lib.addFolder("Child", &parent.ID)
	e := f.start(t)

	require.True(t, e.EnterFolderByID(ctx, parent.ID))
	assert.Equal(t, parent.ID, *e.State().CurrentFolderID)

	e.NavigateToRoot(ctx)
	require.True(t, e.EnterFolderByID(ctx, child.ID), "folders below root are fetched")
	st := e.State()
	assert.Equal(t, child.ID, st.CurrentFolder.ID)

	assert.False(t, e.EnterFolderByID(ctx, "f404"))
	st = e.State()
	assert.Equal(t, child.ID, *st.CurrentFolderID)
	assert.Equal(t, "Could not open folder: the item no longer exists.", st.Error)
}

func TestSubscribe(t *testing.T) {
	f := newFixture(t)
	d := f.lib.addDocument("doc", nil)
	e := f.start(t)

	var seen []bool
	cancel := e.Subscribe(func(st State) { seen = append(seen, st.IsSelectionMode) })

	e.ToggleDocumentSelection(d.ID)
	e.ClearSelection()
	cancel()
	e.EnterSelectionMode()

	assert.Equal(t, []bool{true, false}, seen)
}

func TestSnapshotsAreCopies(t *testing.T) {
	f := newFixture(t)
	d := f.lib.addDocument("doc", nil)
	e := f.start(t)

	st := e.State()
	st.SelectedDocumentIDs[d.ID] = true
	st.Documents[0].Title = "changed"

	fresh := e.State()
	assert.Empty(t, fresh.SelectedDocumentIDs)
	assert.Equal(t, "doc", fresh.Documents[0].Title)
}

func TestThumbnails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for range 20 {
		f.lib.addDocument("scan", nil, withThumbnail)
	}
	e := f.start(t)

	st := e.State()
	assert.Len(t, st.Documents, 20)
	assert.LessOrEqual(t, len(st.Thumbnails), 12)
	assert.Len(t, st.Thumbnails, 12)

	last := st.Documents[19]
	path := e.LoadThumbnailForDocument(ctx, last.ID)
	require.NotEmpty(t, path)
	assert.Equal(t, path, e.LoadThumbnailForDocument(ctx, last.ID))
	assert.Equal(t, 1, f.lib.thumbCalls[last.ID])
	assert.Len(t, e.State().Thumbnails, 13)

	t.Run("reload skips cached", func(t *testing.T) {
		e.Refresh(ctx)
		e.Wait()
		for _, d := range st.Documents[:12] {
			assert.Equal(t, 1, f.lib.thumbCalls[d.ID])
		}
	})

	t.Run("dispose removes files", func(t *testing.T) {
		paths := e.State().Thumbnails
		e.Dispose()
		for _, p := range paths {
			_, err := os.Stat(p)
			assert.True(t, os.IsNotExist(err), p)
		}
		assert.Empty(t, e.LoadThumbnailForDocument(ctx, last.ID))
	})
}

func TestThumbnailBatchSize(t *testing.T) {
	f := newFixture(t)
	for range 5 {
		f.lib.addDocument("scan", nil, withThumbnail)
	}
	e := New(f.deps, Options{ThumbnailBatch: 2})
	defer e.Dispose()
	e.Initialize(context.Background())
	e.Wait()

	assert.Len(t, e.State().Thumbnails, 2)
}

func TestCopyOCRText(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	withText := f.lib.addDocument("Receipt", nil, withOCR("TOTAL 12.00"))
	plain := f.lib.addDocument("Photo", nil)
	e := f.start(t)

	res, ok := e.CopyOCRText(ctx, withText.ID, func([]appmodels.SensitiveKind) bool { return true })
	require.True(t, ok)
	assert.True(t, res.Success)
	assert.Equal(t, "TOTAL 12.00", f.clipboard.copied)

	_, ok = e.CopyOCRText(ctx, plain.ID, nil)
	assert.False(t, ok)
	assert.Contains(t, e.State().Error, "no recognized text")

	f.clipboard.sensitive = []appmodels.SensitiveKind{appmodels.SensitiveCardNumber}
	f.clipboard.copied = ""
	res, ok = e.CopyOCRText(ctx, withText.ID, func([]appmodels.SensitiveKind) bool { return false })
	assert.False(t, ok)
	assert.False(t, res.Success)
	assert.Empty(t, f.clipboard.copied)
}
