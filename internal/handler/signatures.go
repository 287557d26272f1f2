package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"scandeck/internal/config"
	"scandeck/internal/domain/models"
	"scandeck/internal/httputil"
	"scandeck/internal/signatures"
)

// SignatureHandler exposes the caller's saved signatures
type SignatureHandler struct {
	sessions Sessions
	logger   *slog.Logger
}

// NewSignatureHandler creates a new signature handler
func NewSignatureHandler(sessions Sessions, logger *slog.Logger) *SignatureHandler {
	return &SignatureHandler{
		sessions: sessions,
		logger:   logger,
	}
}

func (h *SignatureHandler) engine(w http.ResponseWriter, r *http.Request) (*signatures.Engine, bool) {
	s, ok := currentSession(w, r, h.sessions)
	if !ok {
		return nil, false
	}
	return s.Signatures, true
}

func (h *SignatureHandler) run(w http.ResponseWriter, r *http.Request, op func(e *signatures.Engine) bool) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	done := op(e)
	httputil.RespondJSON(w, http.StatusOK, actionResponse[signaturesView]{OK: done, State: newSignaturesView(e.State())})
}

// GetState returns the signature list
// GET /api/signatures
func (h *SignatureHandler) GetState(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, newSignaturesView(e.State()))
}

// Initialize retries a failed initialization
// POST /api/signatures/initialize
func (h *SignatureHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *signatures.Engine) bool {
		e.Initialize(r.Context())
		return e.State().IsInitialized
	})
}

// Refresh reloads the list
// POST /api/signatures/refresh
func (h *SignatureHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *signatures.Engine) bool {
		e.Refresh(r.Context())
		return e.State().Error == ""
	})
}

// SetSort changes the sort order
// PUT /api/signatures/sort
func (h *SignatureHandler) SetSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if !bindJSON(w, r, &req) {
		return
	}
	sortBy, valid := signatures.ParseSortBy(req.SortBy)
	if !valid {
		httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("unknown sort %q", req.SortBy))
		return
	}
	h.run(w, r, func(e *signatures.Engine) bool {
		e.SetSortBy(r.Context(), sortBy)
		return true
	})
}

// SetSearch filters signatures by label
// PUT /api/signatures/search
func (h *SignatureHandler) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !bindJSON(w, r, &req) {
		return
	}
	h.run(w, r, func(e *signatures.Engine) bool {
		e.SetSearchQuery(req.Query)
		return true
	})
}

type saveSignatureRequest struct {
	Label     string `json:"label"`
	Image     []byte `json:"image"` // base64 in JSON
	IsDefault bool   `json:"is_default"`
}

type saveSignatureResponse struct {
	Signature *models.Signature `json:"signature"`
	State     signaturesView    `json:"state"`
}

// SaveSignature stores a new signature image
// POST /api/signatures
// Returns 201 if created
func (h *SignatureHandler) SaveSignature(w http.ResponseWriter, r *http.Request) {
	var req saveSignatureRequest
	if !bindJSON(w, r, &req) {
		return
	}
	if len(req.Image) > config.MaxSignatureImageBytes {
		httputil.RespondError(w, http.StatusRequestEntityTooLarge, "signature image is too large")
		return
	}
	e, ok := h.engine(w, r)
	if !ok {
		return
	}

	sig := e.SaveSignature(r.Context(), req.Label, req.Image, req.IsDefault)
	status := http.StatusCreated
	if sig == nil {
		status = http.StatusOK
	}
	httputil.RespondJSON(w, status, saveSignatureResponse{Signature: sig, State: newSignaturesView(e.State())})
}

type renameSignatureRequest struct {
	Label string `json:"label"`
}

// RenameSignature changes a label
// PATCH /api/signatures/{id}
func (h *SignatureHandler) RenameSignature(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req renameSignatureRequest
	if !bindJSON(w, r, &req) {
		return
	}
	h.run(w, r, func(e *signatures.Engine) bool { return e.RenameSignature(r.Context(), id, req.Label) })
}

// SetDefault makes a signature the default
// POST /api/signatures/{id}/default
func (h *SignatureHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.run(w, r, func(e *signatures.Engine) bool { return e.SetDefault(r.Context(), id) })
}

// ClearDefault leaves no default signature
// DELETE /api/signatures/default
func (h *SignatureHandler) ClearDefault(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *signatures.Engine) bool { return e.ClearDefault(r.Context()) })
}

// DeleteSignature deletes one signature
// DELETE /api/signatures/{id}
func (h *SignatureHandler) DeleteSignature(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.run(w, r, func(e *signatures.Engine) bool { return e.DeleteSignature(r.Context(), id) })
}

type deleteSignaturesRequest struct {
	IDs []string `json:"ids"`
}

// DeleteSignatures deletes the listed signatures, or the selection when no
// ids are given
// POST /api/signatures/delete
func (h *SignatureHandler) DeleteSignatures(w http.ResponseWriter, r *http.Request) {
	var req deleteSignaturesRequest
	if !bindJSON(w, r, &req) {
		return
	}
	h.run(w, r, func(e *signatures.Engine) bool {
		if len(req.IDs) == 0 {
			return e.DeleteSelected(r.Context())
		}
		return e.DeleteSignatures(r.Context(), req.IDs)
	})
}

// ClearAll deletes every signature
// DELETE /api/signatures
func (h *SignatureHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *signatures.Engine) bool { return e.ClearAllSignatures(r.Context()) })
}

// GetImage returns a signature's decrypted PNG
// GET /api/signatures/{id}/image
func (h *SignatureHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	e, ok := h.engine(w, r)
	if !ok {
		return
	}
	img := e.LoadImage(r.Context(), r.PathValue("id"))
	if img == nil {
		httputil.RespondError(w, http.StatusNotFound, "signature image not available")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

// ToggleSelection selects or deselects a signature
// POST /api/signatures/{id}/select
func (h *SignatureHandler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.run(w, r, func(e *signatures.Engine) bool {
		e.ToggleSelection(id)
		return true
	})
}

// SelectAll selects every visible signature
// POST /api/signatures/selection/all
func (h *SignatureHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *signatures.Engine) bool {
		e.SelectAll()
		return true
	})
}

// EnterSelectionMode turns on selection mode
// POST /api/signatures/selection
func (h *SignatureHandler) EnterSelectionMode(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *signatures.Engine) bool {
		e.EnterSelectionMode()
		return true
	})
}

// ClearSelection empties the selection
// DELETE /api/signatures/selection
func (h *SignatureHandler) ClearSelection(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *signatures.Engine) bool {
		e.ClearSelection()
		return true
	})
}

// DismissError clears the error message
// DELETE /api/signatures/error
func (h *SignatureHandler) DismissError(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(e *signatures.Engine) bool {
		e.DismissError()
		return true
	})
}
