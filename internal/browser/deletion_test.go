package browser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deletionFixture builds folder F holding D1 and D2 (D2 in a subfolder) and
// a root document D3, with F and D3 selected
type deletionFixture struct {
	*fixture
	e              *Engine
	folder, nested string
	d1, d2, d3     string
}

func newDeletionFixture(t *testing.T) deletionFixture {
	t.Helper()
	f := newFixture(t)
	folder := f.lib.addFolder("F", nil)
	nested := f.lib.addFolder("Nested", &folder.ID)
	d1 := f.lib.addDocument("D1", &folder.ID)
	d2 := f.lib.addDocument("D2", &nested.ID)
	d3 := f.lib.addDocument("D3", nil)
	e := f.start(t)

	return deletionFixture{
		fixture: f,
		e:       e,
		folder:  folder.ID,
		nested:  nested.ID,
		d1:      d1.ID,
		d2:      d2.ID,
		d3:      d3.ID,
	}
}

// selectFolderAndDocument selects F and D3. Selection is single-kind through
// the public toggles, so the mixed selection is set directly.
func (f deletionFixture) selectFolderAndDocument() {
	f.e.update(func(st *State) {
		st.SelectedFolderIDs[f.folder] = true
		st.SelectedDocumentIDs[f.d3] = true
		st.IsSelectionMode = true
	})
}

func TestDeleteAllSelected_KeepsContainedDocuments(t *testing.T) {
	f := newDeletionFixture(t)
	f.selectFolderAndDocument()

	require.True(t, f.e.DeleteAllSelected(context.Background()))

	assert.False(t, f.lib.hasFolder(f.folder))
	assert.False(t, f.lib.hasFolder(f.nested))
	assert.False(t, f.lib.hasDocument(f.d3))
	assert.True(t, f.lib.hasDocument(f.d1))
	assert.True(t, f.lib.hasDocument(f.d2))

	st := f.e.State()
	assert.ElementsMatch(t, []string{f.d1, f.d2}, documentIDs(st.Documents))
	assert.False(t, st.IsSelectionMode)
}

func TestDeleteAllSelectedWithDocuments_Cascades(t *testing.T) {
	f := newDeletionFixture(t)
	f.selectFolderAndDocument()

	require.True(t, f.e.DeleteAllSelectedWithDocuments(context.Background()))

	for _, id := range []string{f.d1, f.d2, f.d3} {
		assert.False(t, f.lib.hasDocument(id), id)
	}
	assert.False(t, f.lib.hasFolder(f.folder))
	assert.Empty(t, f.e.State().Documents)
}

func TestPlanAndExecuteDeletion(t *testing.T) {
	ctx := context.Background()

	t.Run("plan lists nested documents", func(t *testing.T) {
		f := newDeletionFixture(t)
		f.selectFolderAndDocument()

		plan, err := f.e.PlanDeletion(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{f.folder}, plan.FolderIDs)
		assert.Equal(t, []string{f.d3}, plan.DocumentIDs)
		assert.ElementsMatch(t, []string{f.d1, f.d2}, plan.ContainedDocumentIDs)
		assert.True(t, plan.RequiresConfirmation)
	})

	t.Run("no choice deletes nothing", func(t *testing.T) {
		f := newDeletionFixture(t)
		f.selectFolderAndDocument()
		plan, err := f.e.PlanDeletion(ctx)
		require.NoError(t, err)

		err = f.e.ExecuteDeletion(ctx, plan, ChoiceUnset)
		assert.ErrorIs(t, err, ErrConfirmationRequired)
		assert.True(t, f.lib.hasFolder(f.folder))
		assert.True(t, f.lib.hasDocument(f.d3))
	})

	tests := []struct {
		name        string
		choice      DeletionChoice
		wantRemains []string
	}{
		{"keep documents", KeepDocuments, []string{"d1", "d2"}},
		{"delete documents", DeleteDocuments, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDeletionFixture(t)
			f.selectFolderAndDocument()
			plan, err := f.e.PlanDeletion(ctx)
			require.NoError(t, err)

			require.NoError(t, f.e.ExecuteDeletion(ctx, plan, tt.choice))

			var remains []string
			if f.lib.hasDocument(f.d1) {
				remains = append(remains, "d1")
			}
			if f.lib.hasDocument(f.d2) {
				remains = append(remains, "d2")
			}
			assert.Equal(t, tt.wantRemains, remains)
			assert.False(t, f.lib.hasDocument(f.d3))
			assert.False(t, f.lib.hasFolder(f.folder))
		})
	}

	t.Run("empty folder needs no confirmation", func(t *testing.T) {
		f := newFixture(t)
		empty := f.lib.addFolder("Empty", nil)
		e := f.start(t)
		e.ToggleFolderSelection(empty.ID)

		plan, err := e.PlanDeletion(ctx)
		require.NoError(t, err)
		assert.False(t, plan.RequiresConfirmation)
		require.NoError(t, e.ExecuteDeletion(ctx, plan, ChoiceUnset))
		assert.False(t, f.lib.hasFolder(empty.ID))
	})
}

func TestDeleteFolder(t *testing.T) {
	ctx := context.Background()
	f := newDeletionFixture(t)

	err := f.e.DeleteFolder(ctx, f.folder, ChoiceUnset)
	assert.ErrorIs(t, err, ErrConfirmationRequired)

	require.NoError(t, f.e.DeleteFolder(ctx, f.folder, KeepDocuments))
	assert.True(t, f.lib.hasDocument(f.d1))
	assert.False(t, f.lib.hasFolder(f.folder))
}

func TestDeleteFolder_LeavesDeletedCurrentFolder(t *testing.T) {
	ctx := context.Background()
	f := newDeletionFixture(t)

	folder, err := fakeFolders{f.lib}.GetFolder(ctx, f.folder)
	require.NoError(t, err)
	f.e.EnterFolder(ctx, *folder)

	require.NoError(t, f.e.DeleteFolder(ctx, f.folder, DeleteDocuments))
	st := f.e.State()
	assert.True(t, st.IsAtRoot())
	assert.Empty(t, st.Error)
}

func TestDeleteSelected_EvictsThumbnails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := f.lib.addDocument("scan", nil, withThumbnail)
	keep := f.lib.addDocument("other", nil, withThumbnail)
	e := f.start(t)
	require.Len(t, e.State().Thumbnails, 2)

	e.ToggleDocumentSelection(d.ID)
	require.True(t, e.DeleteSelected(ctx))
	e.Wait()

	st := e.State()
	assert.NotContains(t, st.Thumbnails, d.ID)
	assert.Contains(t, st.Thumbnails, keep.ID)
	assert.False(t, st.HasSelection())

	assert.False(t, e.DeleteSelected(ctx))
}

func TestDeleteDocument_DropsThumbnailDecryptedMeanwhile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	d := f.lib.addDocument("scan", nil, withThumbnail)
	f.lib.thumbStarted = make(chan string, 1)
	f.lib.thumbGate = make(chan struct{})

	e := New(f.deps, Options{UserID: "user-1"})
	t.Cleanup(e.Dispose)
	e.Initialize(ctx)
	require.Equal(t, d.ID, <-f.lib.thumbStarted)

	require.True(t, e.DeleteDocument(ctx, d.ID))
	close(f.lib.thumbGate)
	e.Wait()

	st := e.State()
	assert.Empty(t, st.Documents)
	assert.NotContains(t, st.Thumbnails, d.ID)
	_, err := os.Stat(filepath.Join(f.lib.thumbDir, d.ID+".jpg"))
	assert.True(t, os.IsNotExist(err))
}
