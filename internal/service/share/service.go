// Package share decrypts documents into transient files for a share sheet
// and exports plaintext copies to a directory.
package share

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/sync/errgroup"

	"scandeck/internal/domain"
	"scandeck/internal/domain/models"
	"scandeck/internal/domain/models/docsystem"
	"scandeck/internal/domain/services"
	"scandeck/internal/utils"
	"scandeck/internal/vault"
)

type shareService struct {
	vault   *vault.Vault
	tempDir string
	logger  *slog.Logger
}

// NewService creates a share service writing transient files under tempDir
func NewService(v *vault.Vault, tempDir string, logger *slog.Logger) services.ShareService {
	return &shareService{
		vault:   v,
		tempDir: filepath.Join(tempDir, "scandeck-share"),
		logger:  logger,
	}
}

// ShareDocuments decrypts docs into a fresh directory and packages them
func (s *shareService) ShareDocuments(ctx context.Context, docs []docsystem.Document, format models.ShareFormat) (*models.ShareResult, error) {
	if len(docs) == 0 {
		return nil, domain.E(domain.KindValidation, "share.documents", "no documents to share", domain.ErrValidation)
	}

	dir := filepath.Join(s.tempDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, domain.E(domain.KindIOFailure, "share.documents", "cannot create share directory", err)
	}

	files, err := s.decryptAll(ctx, docs, dir)
	if err != nil {
		s.removeAll(dir)
		return nil, err
	}

	var paths []string
	switch format {
	case models.ShareFormatZip:
		dst := filepath.Join(dir, "documents.zip")
		entries := make([]utils.ZipEntry, len(files))
		for i, f := range files {
			entries[i] = utils.ZipEntry{Name: filepath.Base(f), Path: f}
		}
		if err := utils.WriteZip(dst, entries); err != nil {
			s.removeAll(dir)
			return nil, domain.E(domain.KindIOFailure, "share.documents", "cannot create archive", err)
		}
		paths = []string{dst}

	case models.ShareFormatPDF:
		dst, err := s.mergePDFs(files, dir)
		if err != nil {
			s.removeAll(dir)
			return nil, err
		}
		paths = []string{dst}

	case models.ShareFormatOriginal, "":
		paths = files

	default:
		s.removeAll(dir)
		return nil, domain.E(domain.KindValidation, "share.documents", fmt.Sprintf("unknown share format %q", format), domain.ErrValidation)
	}

	s.logger.Info("documents prepared for sharing", "count", len(docs), "format", format, "files", len(paths))
	return &models.ShareResult{TempFilePaths: paths, SharedCount: len(docs)}, nil
}

// CleanupTempFiles removes share files and their per-share directory
func (s *shareService) CleanupTempFiles(_ context.Context, paths []string) error {
	var errs []error
	dirs := map[string]bool{}

	for _, p := range paths {
		if !strings.HasPrefix(filepath.Clean(p), s.tempDir+string(filepath.Separator)) {
			errs = append(errs, fmt.Errorf("refusing to remove %s outside share directory", p))
			continue
		}
		dirs[filepath.Dir(p)] = true
	}

	for dir := range dirs {
		if err := os.RemoveAll(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return domain.E(domain.KindIOFailure, "share.cleanup", "cannot remove temporary files", err)
	}
	return nil
}

// ExportDocuments writes plaintext copies into destDir. Existing files are
// never overwritten.
func (s *shareService) ExportDocuments(ctx context.Context, docs []docsystem.Document, destDir string) (*models.ExportResult, error) {
	if len(docs) == 0 {
		return &models.ExportResult{Status: models.ExportFailed, ErrorMessage: "No documents selected"}, nil
	}
	if err := os.MkdirAll(destDir, 0o700); err != nil {
		return nil, domain.E(domain.KindIOFailure, "share.export", "cannot create export directory", err)
	}

	used := map[string]bool{}
	if entries, err := os.ReadDir(destDir); err == nil {
		for _, e := range entries {
			used[strings.ToLower(e.Name())] = true
		}
	}

	result := &models.ExportResult{}
	var failures []string
	var bytesWritten uint64

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := utils.UniqueName(utils.SafeFileName(doc.Title, extensionOf(doc)), used)
		dst := filepath.Join(destDir, name)
		if err := s.vault.DecryptTo(doc.FilePath, dst); err != nil {
			s.logger.Warn("export failed", "id", doc.ID, "error", err)
			failures = append(failures, doc.Title)
			continue
		}

		result.ExportedCount++
		result.ExportedPaths = append(result.ExportedPaths, dst)
		bytesWritten += uint64(doc.FileSize)
	}

	switch {
	case len(failures) == 0:
		result.Status = models.ExportSucceeded
	case result.ExportedCount == 0:
		result.Status = models.ExportFailed
		result.ErrorMessage = "Export failed"
	default:
		result.Status = models.ExportPartial
		result.ErrorMessage = fmt.Sprintf("%d of %d documents could not be exported: %s",
			len(failures), len(docs), strings.Join(failures, ", "))
	}

	s.logger.Info("documents exported",
		"dest", destDir,
		"exported", result.ExportedCount,
		"failed", len(failures),
		"size", humanize.Bytes(bytesWritten),
	)
	return result, nil
}

// decryptAll decrypts docs in parallel, preserving their order
func (s *shareService) decryptAll(ctx context.Context, docs []docsystem.Document, dir string) ([]string, error) {
	used := map[string]bool{}
	files := make([]string, len(docs))
	for i, doc := range docs {
		files[i] = filepath.Join(dir, utils.UniqueName(utils.SafeFileName(doc.Title, extensionOf(doc)), used))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range docs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if err := s.vault.DecryptTo(docs[i].FilePath, files[i]); err != nil {
				return domain.E(domain.KindIOFailure, "share.documents",
					fmt.Sprintf("cannot decrypt %q", docs[i].Title), err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// mergePDFs combines every PDF into one file. Non-PDF documents cannot be
// merged and fail the share.
func (s *shareService) mergePDFs(files []string, dir string) (string, error) {
	for _, f := range files {
		if filepath.Ext(f) != ".pdf" {
			return "", domain.E(domain.KindValidation, "share.documents",
				fmt.Sprintf("%s is not a PDF", filepath.Base(f)), domain.ErrValidation)
		}
	}

	if len(files) == 1 {
		return files[0], nil
	}

	dst := filepath.Join(dir, "documents-merged.pdf")
	if err := api.MergeCreateFile(files, dst, false, nil); err != nil {
		return "", domain.E(domain.KindIOFailure, "share.documents", "cannot merge PDFs", err)
	}
	return dst, nil
}

func (s *shareService) removeAll(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Debug("failed to remove share directory", "dir", dir, "error", err)
	}
}

func extensionOf(doc docsystem.Document) string {
	if doc.MimeType == nil {
		return ".bin"
	}
	return utils.ExtensionFor(*doc.MimeType)
}
