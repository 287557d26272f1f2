package browser

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"slices"

	models "scandeck/internal/domain/models/docsystem"
)

// startThumbnailBatch decrypts thumbnails for the first documents of a load
// in the background. Cached entries are skipped and failures ignored.
func (e *Engine) startThumbnailBatch(docs []models.Document) {
	limit := min(len(docs), e.opts.ThumbnailBatch)
	pending := make([]models.Document, 0, limit)

	e.mu.RLock()
	for _, d := range docs[:limit] {
		if _, cached := e.st.Thumbnails[d.ID]; !cached && d.HasThumbnail() {
			pending = append(pending, d)
		}
	}
	e.mu.RUnlock()

	if len(pending) == 0 {
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx := context.Background()
		for _, d := range pending {
			if e.isDisposed() {
				return
			}
			e.loadThumbnail(ctx, d)
		}
	}()
}

// LoadThumbnailForDocument decrypts one more thumbnail on demand, for example
// when its card scrolls into view. Returns the cached path when present and
// "" when the document has none or decryption failed. Concurrent calls for
// the same document share one decryption.
func (e *Engine) LoadThumbnailForDocument(ctx context.Context, id string) string {
	e.mu.RLock()
	path, cached := e.st.Thumbnails[id]
	doc, found := e.st.findDocument(id)
	e.mu.RUnlock()

	switch {
	case cached:
		return path
	case !found, !doc.HasThumbnail():
		return ""
	}
	return e.loadThumbnail(ctx, doc)
}

func (e *Engine) loadThumbnail(ctx context.Context, doc models.Document) string {
	v, err, _ := e.thumbs.Do(doc.ID, func() (any, error) {
		e.mu.RLock()
		path, cached := e.st.Thumbnails[doc.ID]
		e.mu.RUnlock()
		if cached {
			return path, nil
		}

		path, err := e.deps.Documents.GetDecryptedThumbnailPath(ctx, doc)
		if err != nil || path == "" {
			return "", err
		}

		var listed bool
		applied := e.update(func(st *State) {
			if _, listed = st.findDocument(doc.ID); listed {
				st.Thumbnails[doc.ID] = path
			}
		})
		if !applied || !listed {
			// disposed or deleted while decrypting
			removeFiles(e.logger, []string{path})
			return "", nil
		}
		return path, nil
	})
	if err != nil {
		e.logger.Debug("thumbnail unavailable", "document_id", doc.ID, "error", err)
		return ""
	}
	return v.(string)
}

// forgetDocuments drops deleted documents and their cache entries so that a
// thumbnail decrypted concurrently is not cached again. The cached files are
// removed by the document service.
func forgetDocuments(st *State, ids []string) {
	for _, id := range ids {
		delete(st.Thumbnails, id)
	}
	st.Documents = slices.DeleteFunc(slices.Clone(st.Documents), func(d models.Document) bool {
		return slices.Contains(ids, d.ID)
	})
}

func (e *Engine) isDisposed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.disposed
}

func removeFiles(logger *slog.Logger, paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Debug("failed to remove decrypted thumbnail", "path", p, "error", err)
		}
	}
}
