package browser

// Selection holds ids of one kind at a time. Selecting a document clears the
// folder selection and the reverse.

// ToggleDocumentSelection adds or removes a document from the selection
func (e *Engine) ToggleDocumentSelection(id string) {
	e.update(func(st *State) {
		clear(st.SelectedFolderIDs)
		toggle(st.SelectedDocumentIDs, id)
		st.IsSelectionMode = len(st.SelectedDocumentIDs) > 0
	})
}

// ToggleFolderSelection adds or removes a folder from the selection
func (e *Engine) ToggleFolderSelection(id string) {
	e.update(func(st *State) {
		clear(st.SelectedDocumentIDs)
		toggle(st.SelectedFolderIDs, id)
		st.IsSelectionMode = len(st.SelectedFolderIDs) > 0
	})
}

// SelectAll selects every visible document
func (e *Engine) SelectAll() {
	e.update(func(st *State) {
		clear(st.SelectedFolderIDs)
		clear(st.SelectedDocumentIDs)
		for _, d := range st.FilteredDocuments() {
			st.SelectedDocumentIDs[d.ID] = true
		}
		st.IsSelectionMode = len(st.SelectedDocumentIDs) > 0
	})
}

// SelectAllFolders selects every visible folder
func (e *Engine) SelectAllFolders() {
	e.update(func(st *State) {
		clear(st.SelectedDocumentIDs)
		clear(st.SelectedFolderIDs)
		for _, f := range st.FilteredFolders() {
			st.SelectedFolderIDs[f.ID] = true
		}
		st.IsSelectionMode = len(st.SelectedFolderIDs) > 0
	})
}

// EnterSelectionMode turns selection mode on before anything is selected
func (e *Engine) EnterSelectionMode() {
	e.update(func(st *State) { st.IsSelectionMode = true })
}

// ClearSelection empties both selections and leaves selection mode
func (e *Engine) ClearSelection() {
	e.update(clearSelection)
}

func clearSelection(st *State) {
	clear(st.SelectedDocumentIDs)
	clear(st.SelectedFolderIDs)
	st.IsSelectionMode = false
}

func toggle(set map[string]bool, id string) {
	if set[id] {
		delete(set, id)
		return
	}
	set[id] = true
}
