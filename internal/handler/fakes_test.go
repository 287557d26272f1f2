package handler

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"scandeck/internal/domain"
	appmodels "scandeck/internal/domain/models"
	models "scandeck/internal/domain/models/docsystem"
	docsysSvc "scandeck/internal/domain/services/docsystem"
)

func strPtr(s string) *string { return &s }

func notFound(op, id string) error {
	return domain.E(domain.KindNotFound, op, fmt.Sprintf("%s not found", id), domain.ErrNotFound)
}

// store backs fakeDocs and fakeFolders
type store struct {
	mu      sync.Mutex
	seq     int
	docs    []models.Document
	folders []models.Folder
}

func (s *store) addDocument(title string, folderID *string, ocr *string) models.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	d := models.Document{
		ID:        fmt.Sprintf("d%d", s.seq),
		Title:     title,
		FolderID:  folderID,
		OCRText:   ocr,
		PageCount: 1,
		CreatedAt: time.Date(2024, 1, s.seq, 0, 0, 0, 0, time.UTC),
	}
	d.UpdatedAt = d.CreatedAt
	s.docs = append(s.docs, d)
	return d
}

func (s *store) addFolder(name string, parentID *string) models.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	f := models.Folder{ID: fmt.Sprintf("f%d", s.seq), Name: name, ParentID: parentID}
	s.folders = append(s.folders, f)
	return f
}

func (s *store) documentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

type fakeDocs struct{ *store }

var _ docsysSvc.DocumentRepository = fakeDocs{}

func (r fakeDocs) Initialize(context.Context) error { return nil }

func (r fakeDocs) list(keep func(models.Document) bool) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Document
	for _, d := range r.docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r fakeDocs) GetAllDocuments(context.Context, bool) ([]models.Document, error) {
	return r.list(func(models.Document) bool { return true })
}

func (r fakeDocs) GetFavoriteDocuments(context.Context, bool) ([]models.Document, error) {
	return r.list(func(d models.Document) bool { return d.IsFavorite })
}

func (r fakeDocs) GetDocumentsInFolder(_ context.Context, folderID *string, _ bool) ([]models.Document, error) {
	return r.list(func(d models.Document) bool { return d.IsInFolder(folderID) })
}

func (r fakeDocs) GetDocument(_ context.Context, id string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.ID == id {
			return &d, nil
		}
	}
	return nil, notFound("documents.get", id)
}

func (r fakeDocs) mutate(op, id string, fn func(d *models.Document)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.IndexFunc(r.docs, func(d models.Document) bool { return d.ID == id })
	if i < 0 {
		return notFound(op, id)
	}
	fn(&r.docs[i])
	return nil
}

func (r fakeDocs) UpdateDocument(_ context.Context, doc *models.Document) (*models.Document, error) {
	if err := r.mutate("documents.update", doc.ID, func(d *models.Document) { *d = *doc }); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r fakeDocs) DeleteDocuments(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = slices.DeleteFunc(r.docs, func(d models.Document) bool { return slices.Contains(ids, d.ID) })
	return nil
}

func (r fakeDocs) MoveToFolder(_ context.Context, id string, folderID *string) error {
	return r.mutate("documents.move", id, func(d *models.Document) { d.FolderID = folderID })
}

func (r fakeDocs) ToggleFavorite(_ context.Context, id string) error {
	return r.mutate("documents.toggle_favorite", id, func(d *models.Document) { d.IsFavorite = !d.IsFavorite })
}

func (r fakeDocs) UpdateDocumentOCR(_ context.Context, id string, text *string) error {
	return r.mutate("documents.update_ocr", id, func(d *models.Document) { d.OCRText = text })
}

func (r fakeDocs) GetDecryptedThumbnailPath(context.Context, models.Document) (string, error) {
	return "", nil
}

type fakeFolders struct{ *store }

var _ docsysSvc.FolderService = fakeFolders{}

func (s fakeFolders) Initialize(context.Context) error { return nil }

func (s fakeFolders) GetAllFolders(context.Context) (*models.FolderCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.NewFolderCollection(slices.Clone(s.folders)), nil
}

func (s fakeFolders) GetFolder(_ context.Context, id string) (*models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.folders {
		if f.ID == id {
			return &f, nil
		}
	}
	return nil, notFound("folders.get", id)
}

func (s fakeFolders) CreateFolder(_ context.Context, req *docsysSvc.CreateFolderRequest) (*models.Folder, error) {
	s.mu.Lock()
	for _, f := range s.folders {
		if f.Name == req.Name && f.IsRoot() == (req.ParentID == nil) {
			s.mu.Unlock()
			return nil, &domain.ConflictError{Message: "folder already exists", ResourceType: "folder", ResourceID: f.ID}
		}
	}
	s.mu.Unlock()
	f := s.addFolder(req.Name, req.ParentID)
	return &f, nil
}

func (s fakeFolders) UpdateFolder(_ context.Context, folder *models.Folder) (*models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.folders, func(f models.Folder) bool { return f.ID == folder.ID })
	if i < 0 {
		return nil, notFound("folders.update", folder.ID)
	}
	s.folders[i] = *folder
	return folder, nil
}

func (s fakeFolders) DeleteFolders(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders = slices.DeleteFunc(s.folders, func(f models.Folder) bool { return slices.Contains(ids, f.ID) })
	for i := range s.docs {
		if s.docs[i].FolderID != nil && slices.Contains(ids, *s.docs[i].FolderID) {
			s.docs[i].FolderID = nil
		}
	}
	return nil
}

func (s fakeFolders) ToggleFavorite(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.folders, func(f models.Folder) bool { return f.ID == id })
	if i < 0 {
		return notFound("folders.toggle_favorite", id)
	}
	s.folders[i].IsFavorite = !s.folders[i].IsFavorite
	return nil
}

// fakeShare records export destinations without writing anything
type fakeShare struct {
	mu           sync.Mutex
	destinations []string
}

func (*fakeShare) ShareDocuments(context.Context, []models.Document, appmodels.ShareFormat) (*appmodels.ShareResult, error) {
	return &appmodels.ShareResult{}, nil
}

func (*fakeShare) CleanupTempFiles(context.Context, []string) error { return nil }

func (s *fakeShare) ExportDocuments(_ context.Context, docs []models.Document, dest string) (*appmodels.ExportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destinations = append(s.destinations, dest)
	return &appmodels.ExportResult{Status: appmodels.ExportSucceeded, ExportedCount: len(docs)}, nil
}

func (s *fakeShare) exports() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.destinations)
}

// fakeSignatures keeps signatures and their images in memory
type fakeSignatures struct {
	mu     sync.Mutex
	seq    int
	sigs   []appmodels.Signature
	images map[string][]byte
}

func newFakeSignatures() *fakeSignatures {
	return &fakeSignatures{images: map[string][]byte{}}
}

func (f *fakeSignatures) Initialize(context.Context) error { return nil }

func (f *fakeSignatures) GetAllSignatures(context.Context) ([]appmodels.Signature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.sigs), nil
}

func (f *fakeSignatures) SaveSignature(_ context.Context, label string, image []byte, makeDefault bool) (*appmodels.Signature, error) {
	if label == "" {
		return nil, domain.E(domain.KindValidation, "signatures.save", "label cannot be empty", domain.ErrValidation)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if makeDefault {
		for i := range f.sigs {
			f.sigs[i].IsDefault = false
		}
	}
	sig := appmodels.Signature{
		ID:        fmt.Sprintf("s%d", f.seq),
		Label:     label,
		IsDefault: makeDefault,
		SizeBytes: int64(len(image)),
		CreatedAt: time.Date(2024, 2, f.seq, 0, 0, 0, 0, time.UTC),
	}
	f.sigs = append(f.sigs, sig)
	f.images[sig.ID] = image
	return &sig, nil
}

func (f *fakeSignatures) RenameSignature(_ context.Context, id, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sigs {
		if f.sigs[i].ID == id {
			f.sigs[i].Label = label
			return nil
		}
	}
	return notFound("signatures.rename", id)
}

func (f *fakeSignatures) SetDefaultSignature(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.sigs {
		f.sigs[i].IsDefault = f.sigs[i].ID == id
	}
	return nil
}

func (f *fakeSignatures) ClearDefaultSignature(context.Context) error {
	return f.SetDefaultSignature(context.Background(), "")
}

func (f *fakeSignatures) DeleteSignature(ctx context.Context, id string) error {
	return f.DeleteSignatures(ctx, []string{id})
}

func (f *fakeSignatures) DeleteSignatures(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sigs = slices.DeleteFunc(f.sigs, func(s appmodels.Signature) bool { return slices.Contains(ids, s.ID) })
	for _, id := range ids {
		delete(f.images, id)
	}
	return nil
}

func (f *fakeSignatures) ClearAllSignatures(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sigs = nil
	f.images = map[string][]byte{}
	return nil
}

func (f *fakeSignatures) LoadSignatureImage(_ context.Context, sig appmodels.Signature) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.images[sig.ID]
	if !ok {
		return nil, notFound("signatures.image", sig.ID)
	}
	return img, nil
}

func (f *fakeSignatures) GetStorageSizeFormatted(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int
	for _, img := range f.images {
		n += len(img)
	}
	return fmt.Sprintf("%d B", n), nil
}
