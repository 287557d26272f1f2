package browser

import (
	"context"
	"slices"
)

// DeletionChoice records what happens to documents inside deleted folders
type DeletionChoice int

const (
	// ChoiceUnset means the user has not been asked yet
	ChoiceUnset DeletionChoice = iota
	// KeepDocuments moves contained documents to root
	KeepDocuments
	// DeleteDocuments deletes contained documents with their folders
	DeleteDocuments
)

// DeletionPlan describes a pending delete of folders and documents
type DeletionPlan struct {
	FolderIDs   []string `json:"folder_ids"`
	DocumentIDs []string `json:"document_ids"`

	// ContainedDocumentIDs are documents anywhere below FolderIDs
	ContainedDocumentIDs []string `json:"contained_document_ids"`

	// RequiresConfirmation is set when ContainedDocumentIDs is non-empty
	RequiresConfirmation bool `json:"requires_confirmation"`
}

// DeleteDocument deletes one document
func (e *Engine) DeleteDocument(ctx context.Context, id string) bool {
	return e.deleteItems(ctx, nil, []string{id})
}

// DeleteSelected deletes the selected documents
func (e *Engine) DeleteSelected(ctx context.Context) bool {
	ids := e.State().selectedDocumentIDs()
	if len(ids) == 0 {
		return false
	}
	return e.deleteItems(ctx, nil, ids)
}

// PlanDeletion collects the current selection and every document inside the
// selected folders, including nested ones.
func (e *Engine) PlanDeletion(ctx context.Context) (DeletionPlan, error) {
	st := e.State()
	return e.plan(ctx, st.selectedFolderIDs(), st.selectedDocumentIDs())
}

func (e *Engine) plan(ctx context.Context, folderIDs, documentIDs []string) (DeletionPlan, error) {
	p := DeletionPlan{
		FolderIDs:            slices.Clone(folderIDs),
		DocumentIDs:          slices.Clone(documentIDs),
		ContainedDocumentIDs: []string{},
	}
	if len(folderIDs) == 0 {
		return p, nil
	}

	contained, err := e.containedDocuments(ctx, folderIDs)
	if err != nil {
		e.fail(actionDeleteFolder, err)
		return p, ErrOperationFailed
	}
	p.ContainedDocumentIDs = contained
	p.RequiresConfirmation = len(contained) > 0
	return p, nil
}

// containedDocuments lists documents in folderIDs and all their descendants
func (e *Engine) containedDocuments(ctx context.Context, folderIDs []string) ([]string, error) {
	all, err := e.deps.Folders.GetAllFolders(ctx)
	if err != nil {
		return nil, err
	}

	var folders []string
	seenFolder := map[string]bool{}
	add := func(id string) {
		if !seenFolder[id] {
			seenFolder[id] = true
			folders = append(folders, id)
		}
	}
	for _, id := range folderIDs {
		add(id)
		for _, d := range all.DescendantsOf(id) {
			add(d.ID)
		}
	}

	ids := []string{}
	seenDoc := map[string]bool{}
	for _, fid := range folders {
		docs, err := e.deps.Documents.GetDocumentsInFolder(ctx, &fid, false)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			if !seenDoc[d.ID] {
				seenDoc[d.ID] = true
				ids = append(ids, d.ID)
			}
		}
	}
	return ids, nil
}

// ExecuteDeletion carries out plan. Folders that contain documents need a
// choice; without one nothing is deleted and ErrConfirmationRequired is
// returned. Other failures return ErrOperationFailed with the message in
// State.Error.
func (e *Engine) ExecuteDeletion(ctx context.Context, plan DeletionPlan, choice DeletionChoice) error {
	if plan.RequiresConfirmation && choice == ChoiceUnset {
		return ErrConfirmationRequired
	}

	docs := plan.DocumentIDs
	if choice == DeleteDocuments {
		docs = union(plan.DocumentIDs, plan.ContainedDocumentIDs)
	}
	if !e.deleteItems(ctx, plan.FolderIDs, docs) {
		return ErrOperationFailed
	}
	return nil
}

// DeleteFolder deletes one folder under the same confirmation rule as
// ExecuteDeletion
func (e *Engine) DeleteFolder(ctx context.Context, id string, choice DeletionChoice) error {
	plan, err := e.plan(ctx, []string{id}, nil)
	if err != nil {
		return err
	}
	return e.ExecuteDeletion(ctx, plan, choice)
}

// DeleteAllSelected deletes the selected folders, moving their documents to
// root, then the selected documents.
func (e *Engine) DeleteAllSelected(ctx context.Context) bool {
	st := e.State()
	return e.deleteItems(ctx, st.selectedFolderIDs(), st.selectedDocumentIDs())
}

// DeleteAllSelectedWithDocuments deletes the selected folders together with
// every document inside them, plus the selected documents.
func (e *Engine) DeleteAllSelectedWithDocuments(ctx context.Context) bool {
	st := e.State()
	folders := st.selectedFolderIDs()
	docs := st.selectedDocumentIDs()

	if len(folders) > 0 {
		contained, err := e.containedDocuments(ctx, folders)
		if err != nil {
			e.fail(actionDeleteFolder, err)
			return false
		}
		docs = union(docs, contained)
	}
	return e.deleteItems(ctx, folders, docs)
}

// deleteItems deletes folders first, then documents, then clears the
// selection and reloads
func (e *Engine) deleteItems(ctx context.Context, folderIDs, documentIDs []string) bool {
	if len(folderIDs) == 0 && len(documentIDs) == 0 {
		return false
	}

	if len(folderIDs) > 0 {
		if err := e.deps.Folders.DeleteFolders(ctx, folderIDs); err != nil {
			e.fail(actionDeleteFolder, err)
			return false
		}
	}

	if len(documentIDs) > 0 {
		if err := e.deps.Documents.DeleteDocuments(ctx, documentIDs); err != nil {
			if len(folderIDs) > 0 {
				// folders are already gone
				e.LoadDocuments(ctx)
			}
			e.fail(actionDelete, err)
			return false
		}
	}

	e.update(func(st *State) {
		forgetDocuments(st, documentIDs)
		clearSelection(st)
		if st.CurrentFolderID != nil && slices.Contains(folderIDs, *st.CurrentFolderID) {
			st.CurrentFolderID = nil
			st.CurrentFolder = nil
		}
	})

	e.logger.Info("deleted items", "folders", len(folderIDs), "documents", len(documentIDs))
	e.LoadDocuments(ctx)
	return true
}

func union(a, b []string) []string {
	out := slices.Clone(a)
	for _, id := range b {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
