package browser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"scandeck/internal/domain"
	appmodels "scandeck/internal/domain/models"
	models "scandeck/internal/domain/models/docsystem"
	"scandeck/internal/domain/services"
	docsysSvc "scandeck/internal/domain/services/docsystem"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func notFound(op, id string) error {
	return domain.E(domain.KindNotFound, op, fmt.Sprintf("%s not found", id), domain.ErrNotFound)
}

// library is the in-memory backing store for fakeDocs and fakeFolders
type library struct {
	mu      sync.Mutex
	seq     int
	docs    []models.Document
	folders []models.Folder

	initErr error
	loadErr error

	// moveFailOn fails the n-th MoveToFolder call (1-based), 0 never
	moveFailOn int
	moveCalls  int

	// onListAll runs inside GetAllDocuments after the result is taken
	onListAll func()

	thumbDir   string
	thumbCalls map[string]int
	// thumbStarted and thumbGate, when set, hold GetDecryptedThumbnailPath
	// until the gate is closed
	thumbStarted chan string
	thumbGate    chan struct{}
}

func newLibrary(thumbDir string) *library {
	return &library{thumbDir: thumbDir, thumbCalls: map[string]int{}}
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func (l *library) addDocument(title string, folderID *string, mutate ...func(d *models.Document)) models.Document {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	d := models.Document{
		ID:        fmt.Sprintf("d%d", l.seq),
		Title:     title,
		FolderID:  folderID,
		FileSize:  int64(l.seq * 100),
		PageCount: 1,
		FilePath:  "/enc/" + title,
		CreatedAt: epoch.Add(time.Duration(l.seq) * time.Hour),
		UpdatedAt: epoch.Add(time.Duration(l.seq) * time.Hour),
	}
	for _, fn := range mutate {
		fn(&d)
	}
	l.docs = append(l.docs, d)
	return d
}

func (l *library) addFolder(name string, parentID *string) models.Folder {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	f := models.Folder{ID: fmt.Sprintf("f%d", l.seq), Name: name, ParentID: parentID}
	l.folders = append(l.folders, f)
	return f
}

func (l *library) hasDocument(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.ContainsFunc(l.docs, func(d models.Document) bool { return d.ID == id })
}

func (l *library) hasFolder(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.ContainsFunc(l.folders, func(f models.Folder) bool { return f.ID == id })
}

func (l *library) document(id string) (models.Document, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := slices.IndexFunc(l.docs, func(d models.Document) bool { return d.ID == id })
	if i < 0 {
		return models.Document{}, false
	}
	return l.docs[i], true
}

func withThumbnail(d *models.Document) {
	p := "/enc/thumb-" + d.ID
	d.ThumbnailPath = &p
}

func withOCR(text string) func(d *models.Document) {
	return func(d *models.Document) { d.OCRText = &text }
}

func withTags(ids ...string) func(d *models.Document) {
	return func(d *models.Document) {
		for _, id := range ids {
			d.Tags = append(d.Tags, models.Tag{ID: id, Name: id})
		}
	}
}

func favorite(d *models.Document) { d.IsFavorite = true }

type fakeDocs struct{ *library }

var _ docsysSvc.DocumentRepository = fakeDocs{}

func (r fakeDocs) Initialize(context.Context) error { return r.initErr }

func (r fakeDocs) list(keep func(d models.Document) bool) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	out := make([]models.Document, 0, len(r.docs))
	for _, d := range r.docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r fakeDocs) GetAllDocuments(context.Context, bool) ([]models.Document, error) {
	docs, err := r.list(func(models.Document) bool { return true })
	r.mu.Lock()
	hook := r.onListAll
	r.onListAll = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return docs, err
}

func (r fakeDocs) GetFavoriteDocuments(context.Context, bool) ([]models.Document, error) {
	return r.list(func(d models.Document) bool { return d.IsFavorite })
}

func (r fakeDocs) GetDocumentsInFolder(_ context.Context, folderID *string, _ bool) ([]models.Document, error) {
	return r.list(func(d models.Document) bool { return d.IsInFolder(folderID) })
}

func (r fakeDocs) GetDocument(_ context.Context, id string) (*models.Document, error) {
	d, ok := r.document(id)
	if !ok {
		return nil, notFound("documents.get", id)
	}
	return &d, nil
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
	err := r.mutate("documents.update", doc.ID, func(d *models.Document) { *d = *doc })
	if err != nil {
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
	r.mu.Lock()
	r.moveCalls++
	fail := r.moveFailOn == r.moveCalls
	r.mu.Unlock()
	if fail {
		return domain.E(domain.KindIOFailure, "documents.move", "disk full", domain.ErrIOFailure)
	}
	return r.mutate("documents.move", id, func(d *models.Document) { d.FolderID = folderID })
}

func (r fakeDocs) ToggleFavorite(_ context.Context, id string) error {
	return r.mutate("documents.toggle_favorite", id, func(d *models.Document) { d.IsFavorite = !d.IsFavorite })
}

func (r fakeDocs) UpdateDocumentOCR(_ context.Context, id string, text *string) error {
	return r.mutate("documents.update_ocr", id, func(d *models.Document) { d.OCRText = text })
}

func (r fakeDocs) GetDecryptedThumbnailPath(_ context.Context, doc models.Document) (string, error) {
	if !doc.HasThumbnail() {
		return "", nil
	}
	r.mu.Lock()
	r.thumbCalls[doc.ID]++
	started, gate := r.thumbStarted, r.thumbGate
	r.mu.Unlock()

	if gate != nil {
		started <- doc.ID
		<-gate
	}

	p := filepath.Join(r.thumbDir, doc.ID+".jpg")
	if err := os.WriteFile(p, []byte("jpeg"), 0o600); err != nil {
		return "", domain.E(domain.KindIOFailure, "documents.thumbnail", "write", err)
	}
	return p, nil
}

type fakeFolders struct{ *library }

var _ docsysSvc.FolderService = fakeFolders{}

func (s fakeFolders) Initialize(context.Context) error { return nil }

func (s fakeFolders) GetAllFolders(context.Context) (*models.FolderCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return models.NewFolderCollection(s.folders), nil
}

func (s fakeFolders) GetFolder(_ context.Context, id string) (*models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.folders, func(f models.Folder) bool { return f.ID == id })
	if i < 0 {
		return nil, notFound("folders.get", id)
	}
	f := s.folders[i]
	return &f, nil
}

func (s fakeFolders) CreateFolder(_ context.Context, req *docsysSvc.CreateFolderRequest) (*models.Folder, error) {
	for _, f := range s.folders {
		if f.Name == req.Name && f.IsRoot() == (req.ParentID == nil) {
			return nil, &domain.ConflictError{Message: "folder exists", ResourceType: "folder", ResourceID: f.ID}
		}
	}
	f := s.addFolder(req.Name, req.ParentID)
	f.Color = req.Color
	s.mu.Lock()
	s.folders[len(s.folders)-1] = f
	s.mu.Unlock()
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

// DeleteFolders removes folders with their subfolders and moves their
// documents to root
func (s fakeFolders) DeleteFolders(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := models.NewFolderCollection(s.folders)
	doomed := slices.Clone(ids)
	for _, id := range ids {
		for _, d := range c.DescendantsOf(id) {
			doomed = append(doomed, d.ID)
		}
	}
	s.folders = slices.DeleteFunc(s.folders, func(f models.Folder) bool { return slices.Contains(doomed, f.ID) })
	for i := range s.docs {
		if s.docs[i].FolderID != nil && slices.Contains(doomed, *s.docs[i].FolderID) {
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

type fakeShare struct {
	mu       sync.Mutex
	dir      string
	cleaned  []string
	exported []string
}

func (s *fakeShare) ShareDocuments(_ context.Context, docs []models.Document, _ appmodels.ShareFormat) (*appmodels.ShareResult, error) {
	var paths []string
	for _, d := range docs {
		p := filepath.Join(s.dir, d.ID+".pdf")
		if err := os.WriteFile(p, []byte(d.Title), 0o600); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return &appmodels.ShareResult{TempFilePaths: paths, SharedCount: len(docs)}, nil
}

func (s *fakeShare) CleanupTempFiles(_ context.Context, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleaned = append(s.cleaned, paths...)
	for _, p := range paths {
		os.Remove(p)
	}
	return nil
}

func (s *fakeShare) ExportDocuments(_ context.Context, docs []models.Document, destDir string) (*appmodels.ExportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := &appmodels.ExportResult{}
	for _, d := range docs {
		s.exported = append(s.exported, d.ID)
		res.ExportedPaths = append(res.ExportedPaths, filepath.Join(destDir, d.Title))
	}
	res.ExportedCount = len(docs)
	return res, nil
}

type fakeClipboard struct {
	copied    string
	sensitive []appmodels.SensitiveKind
}

func (c *fakeClipboard) CopyToClipboard(_ context.Context, text string, onSensitive services.SensitiveDataPrompt) (*appmodels.ClipboardResult, error) {
	if len(c.sensitive) > 0 && !onSensitive(c.sensitive) {
		return &appmodels.ClipboardResult{Success: false, Detected: c.sensitive}, nil
	}
	c.copied = text
	return &appmodels.ClipboardResult{Success: true, Detected: c.sensitive}, nil
}
