package handler

import "net/http"

// RegisterRoutes mounts the browser and signature endpoints on mux
func RegisterRoutes(mux *http.ServeMux, b *BrowserHandler, s *SignatureHandler) {
	// Browser state and navigation
	mux.HandleFunc("GET /api/browser", b.GetState)
	mux.HandleFunc("POST /api/browser/initialize", b.Initialize)
	mux.HandleFunc("POST /api/browser/refresh", b.Refresh)
	mux.HandleFunc("POST /api/browser/folders/{id}/enter", b.EnterFolder)
	mux.HandleFunc("POST /api/browser/folders/exit", b.ExitFolder)
	mux.HandleFunc("POST /api/browser/root", b.NavigateToRoot)
	mux.HandleFunc("DELETE /api/browser/error", b.DismissError)

	// Search, filter, sort, view
	mux.HandleFunc("PUT /api/browser/search", b.SetSearch)
	mux.HandleFunc("PUT /api/browser/filter", b.SetFilter)
	mux.HandleFunc("PATCH /api/browser/filter", b.UpdateFilter)
	mux.HandleFunc("DELETE /api/browser/filter", b.ClearFilters)
	mux.HandleFunc("POST /api/browser/filter/favorites", b.ToggleFavoritesFilter)
	mux.HandleFunc("POST /api/browser/filter/ocr", b.ToggleOCRFilter)
	mux.HandleFunc("POST /api/browser/filter/tags/{id}", b.ToggleTagFilter)
	mux.HandleFunc("PUT /api/browser/sort", b.SetSort)
	mux.HandleFunc("PUT /api/browser/view", b.SetView)

	// Selection
	mux.HandleFunc("POST /api/browser/selection", b.EnterSelectionMode)
	mux.HandleFunc("DELETE /api/browser/selection", b.ClearSelection)
	mux.HandleFunc("POST /api/browser/selection/documents", b.SelectAll)
	mux.HandleFunc("POST /api/browser/selection/folders", b.SelectAllFolders)
	mux.HandleFunc("POST /api/browser/selection/documents/{id}", b.ToggleDocumentSelection)
	mux.HandleFunc("POST /api/browser/selection/folders/{id}", b.ToggleFolderSelection)
	mux.HandleFunc("DELETE /api/browser/selection/documents", b.DeleteSelectedDocuments)

	// Documents
	mux.HandleFunc("PATCH /api/browser/documents/{id}", b.UpdateDocument)
	mux.HandleFunc("DELETE /api/browser/documents/{id}", b.DeleteDocument)
	mux.HandleFunc("POST /api/browser/documents/{id}/favorite", b.ToggleFavorite)
	mux.HandleFunc("GET /api/browser/documents/{id}/thumbnail", b.GetThumbnail)
	mux.HandleFunc("POST /api/browser/documents/{id}/copy-text", b.CopyText)
	mux.HandleFunc("POST /api/browser/documents/move", b.MoveSelected)

	// Folders
	mux.HandleFunc("POST /api/browser/folders", b.CreateFolder)
	mux.HandleFunc("PATCH /api/browser/folders/{id}", b.UpdateFolder)
	mux.HandleFunc("DELETE /api/browser/folders/{id}", b.DeleteFolder)
	mux.HandleFunc("POST /api/browser/folders/{id}/favorite", b.ToggleFolderFavorite)

	// Deletion, sharing, export
	mux.HandleFunc("GET /api/browser/deletion", b.PlanDeletion)
	mux.HandleFunc("POST /api/browser/deletion", b.ExecuteDeletion)
	mux.HandleFunc("POST /api/browser/share", b.Share)
	mux.HandleFunc("POST /api/browser/export", b.Export)

	// Signatures
	mux.HandleFunc("GET /api/signatures", s.GetState)
	mux.HandleFunc("POST /api/signatures", s.SaveSignature)
	mux.HandleFunc("DELETE /api/signatures", s.ClearAll)
	mux.HandleFunc("POST /api/signatures/initialize", s.Initialize)
	mux.HandleFunc("POST /api/signatures/refresh", s.Refresh)
	mux.HandleFunc("PUT /api/signatures/sort", s.SetSort)
	mux.HandleFunc("PUT /api/signatures/search", s.SetSearch)
	mux.HandleFunc("POST /api/signatures/delete", s.DeleteSignatures)
	mux.HandleFunc("DELETE /api/signatures/default", s.ClearDefault)
	mux.HandleFunc("DELETE /api/signatures/error", s.DismissError)
	mux.HandleFunc("POST /api/signatures/selection", s.EnterSelectionMode)
	mux.HandleFunc("DELETE /api/signatures/selection", s.ClearSelection)
	mux.HandleFunc("POST /api/signatures/selection/all", s.SelectAll)
	mux.HandleFunc("PATCH /api/signatures/{id}", s.RenameSignature)
	mux.HandleFunc("DELETE /api/signatures/{id}", s.DeleteSignature)
	mux.HandleFunc("GET /api/signatures/{id}/image", s.GetImage)
	mux.HandleFunc("POST /api/signatures/{id}/default", s.SetDefault)
	mux.HandleFunc("POST /api/signatures/{id}/select", s.ToggleSelection)
}
