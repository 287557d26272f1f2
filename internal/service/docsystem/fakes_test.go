package docsystem

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"scandeck/internal/domain"
	models "scandeck/internal/domain/models/docsystem"
	"scandeck/internal/domain/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type noopSchema struct{ err error }

func (s noopSchema) EnsureSchema(context.Context) error { return s.err }

type passthroughTx struct{}

func (passthroughTx) ExecTx(ctx context.Context, fn repositories.TxFn) error { return fn(ctx) }

// memStore backs both fake repositories
type memStore struct {
	mu      sync.Mutex
	seq     int
	docs    map[string]models.Document
	folders map[string]models.Folder
	tags    map[string][]models.Tag
}

func newMemStore() *memStore {
	return &memStore{
		docs:    map[string]models.Document{},
		folders: map[string]models.Folder{},
		tags:    map[string][]models.Tag{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return prefix + strconv.Itoa(m.seq)
}

type memFolderRepo struct{ *memStore }

func (r memFolderRepo) Create(_ context.Context, f *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.ID = r.nextID("f")
	r.folders[f.ID] = *f
	return nil
}

func (r memFolderRepo) GetByID(_ context.Context, id, ownerID string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok || f.OwnerID != ownerID {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	return &f, nil
}

func (r memFolderRepo) Update(_ context.Context, f *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.folders[f.ID]; !ok {
		return fmt.Errorf("folder %s: %w", f.ID, domain.ErrNotFound)
	}
	r.folders[f.ID] = *f
	return nil
}

func (r memFolderRepo) DeleteMany(_ context.Context, ids []string, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// emulate ON DELETE CASCADE on parent_id
	queue := slices.Clone(ids)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		delete(r.folders, id)
		for _, f := range r.folders {
			if f.ParentID != nil && *f.ParentID == id {
				queue = append(queue, f.ID)
			}
		}
	}
	return nil
}

func (r memFolderRepo) GetAllByOwner(_ context.Context, ownerID string) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Folder, 0, len(r.folders))
	for _, f := range r.folders {
		if f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	slices.SortFunc(out, func(a, b models.Folder) int { return compareIDs(a.ID, b.ID) })
	return out, nil
}

type memDocRepo struct{ *memStore }

func (r memDocRepo) Create(_ context.Context, d *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = r.nextID("d")
	r.docs[d.ID] = *d
	return nil
}

func (r memDocRepo) GetByID(_ context.Context, id, ownerID string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok || d.OwnerID != ownerID {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return &d, nil
}

func (r memDocRepo) list(keep func(models.Document) bool) []models.Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Document, 0)
	for _, d := range r.docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b models.Document) int { return compareIDs(a.ID, b.ID) })
	return out
}

func (r memDocRepo) List(_ context.Context, ownerID string) ([]models.Document, error) {
	return r.list(func(d models.Document) bool { return d.OwnerID == ownerID }), nil
}

func (r memDocRepo) ListFavorites(_ context.Context, ownerID string) ([]models.Document, error) {
	return r.list(func(d models.Document) bool { return d.OwnerID == ownerID && d.IsFavorite }), nil
}

func (r memDocRepo) ListByFolder(_ context.Context, folderID *string, ownerID string) ([]models.Document, error) {
	return r.list(func(d models.Document) bool { return d.OwnerID == ownerID && d.IsInFolder(folderID) }), nil
}

func (r memDocRepo) ListIDsByFolders(_ context.Context, folderIDs []string, ownerID string) ([]string, error) {
	var ids []string
	for _, d := range r.list(func(d models.Document) bool {
		return d.OwnerID == ownerID && d.FolderID != nil && slices.Contains(folderIDs, *d.FolderID)
	}) {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func (r memDocRepo) Update(_ context.Context, d *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[d.ID]; !ok {
		return fmt.Errorf("document %s: %w", d.ID, domain.ErrNotFound)
	}
	r.docs[d.ID] = *d
	return nil
}

func (r memDocRepo) mutate(id string, fn func(d *models.Document)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	fn(&d)
	r.docs[id] = d
	return nil
}

func (r memDocRepo) SetFolder(_ context.Context, id string, folderID *string, _ string) error {
	return r.mutate(id, func(d *models.Document) { d.FolderID = folderID })
}

func (r memDocRepo) SetFavorite(_ context.Context, id string, favorite bool, _ string) error {
	return r.mutate(id, func(d *models.Document) { d.IsFavorite = favorite })
}

func (r memDocRepo) SetOCRText(_ context.Context, id string, text *string, _ string) error {
	return r.mutate(id, func(d *models.Document) { d.OCRText = text })
}

func (r memDocRepo) DeleteMany(_ context.Context, ids []string, _ string) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Document
	for _, id := range ids {
		if d, ok := r.docs[id]; ok {
			out = append(out, d)
			delete(r.docs, id)
		}
	}
	return out, nil
}

func (r memDocRepo) ClearFolder(_ context.Context, folderIDs []string, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, d := range r.docs {
		if d.FolderID != nil && slices.Contains(folderIDs, *d.FolderID) {
			d.FolderID = nil
			r.docs[id] = d
		}
	}
	return nil
}

type memTagRepo struct{ *memStore }

func (r memTagRepo) Create(_ context.Context, t *models.Tag, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t.ID = r.nextID("t")
	return nil
}

func (r memTagRepo) Assign(_ context.Context, documentID, tagID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags[documentID] = append(r.tags[documentID], models.Tag{ID: tagID, Name: tagID})
	return nil
}

func (r memTagRepo) ListByDocuments(_ context.Context, ids []string) (map[string][]models.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string][]models.Tag{}
	for _, id := range ids {
		if tags, ok := r.tags[id]; ok {
			out[id] = tags
		}
	}
	return out, nil
}

// compareIDs orders generated ids by their numeric suffix
func compareIDs(a, b string) int {
	na, _ := strconv.Atoi(a[1:])
	nb, _ := strconv.Atoi(b[1:])
	return na - nb
}
