// Package signature stores saved signature images encrypted on disk with
// their metadata in Postgres.
package signature

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/dustin/go-humanize"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"scandeck/internal/config"
	"scandeck/internal/domain"
	"scandeck/internal/domain/models"
	"scandeck/internal/domain/repositories"
	"scandeck/internal/domain/services"
	"scandeck/internal/vault"
)

type signatureService struct {
	repo    repositories.SignatureRepository
	schema  repositories.SchemaManager
	vault   *vault.Vault
	dir     string
	ownerID string
	logger  *slog.Logger
}

// NewService creates the signature service for ownerID. Images are stored
// under dataDir/<owner>/signatures.
func NewService(
	repo repositories.SignatureRepository,
	schema repositories.SchemaManager,
	v *vault.Vault,
	dataDir string,
	ownerID string,
	logger *slog.Logger,
) services.SignatureService {
	return &signatureService{
		repo:    repo,
		schema:  schema,
		vault:   v,
		dir:     filepath.Join(dataDir, ownerID, "signatures"),
		ownerID: ownerID,
		logger:  logger.With("owner_id", ownerID),
	}
}

func (s *signatureService) Initialize(ctx context.Context) error {
	if err := s.schema.EnsureSchema(ctx); err != nil {
		return domain.E(domain.KindIOFailure, "signatures.initialize", "database unavailable", err)
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return domain.E(domain.KindIOFailure, "signatures.initialize", "cannot create signature directory", err)
	}
	return nil
}

func (s *signatureService) GetAllSignatures(ctx context.Context) ([]models.Signature, error) {
	sigs, err := s.repo.List(ctx, s.ownerID)
	if err != nil {
		return nil, domain.Wrap("signatures.list", err)
	}
	return sigs, nil
}

// SaveSignature encrypts image to disk and records it
func (s *signatureService) SaveSignature(ctx context.Context, label string, image []byte, makeDefault bool) (*models.Signature, error) {
	label = strings.TrimSpace(label)
	if err := validateLabel(label); err != nil {
		return nil, domain.E(domain.KindValidation, "signatures.save", err.Error(), domain.ErrValidation)
	}
	if err := validation.Validate(image,
		validation.Required.Error("image cannot be empty"),
		validation.Length(1, config.MaxSignatureImageBytes),
	); err != nil {
		return nil, domain.E(domain.KindValidation, "signatures.save", err.Error(), domain.ErrValidation)
	}

	id := uuid.NewString()
	path := filepath.Join(s.dir, id+".bin")
	if err := s.vault.SealFile(path, image); err != nil {
		return nil, domain.E(domain.KindIOFailure, "signatures.save", "cannot store image", err)
	}

	now := time.Now()
	sig := &models.Signature{
		ID:        id,
		OwnerID:   s.ownerID,
		Label:     label,
		IsDefault: makeDefault,
		ImagePath: path,
		SizeBytes: int64(len(image)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, sig); err != nil {
		s.removeFile(path)
		return nil, domain.Wrap("signatures.save", err)
	}

	s.logger.Info("signature saved", "id", id, "label", label, "default", makeDefault)
	return sig, nil
}

func (s *signatureService) RenameSignature(ctx context.Context, id, label string) error {
	label = strings.TrimSpace(label)
	if err := validateLabel(label); err != nil {
		return domain.E(domain.KindValidation, "signatures.rename", err.Error(), domain.ErrValidation)
	}
	if err := s.repo.UpdateLabel(ctx, id, label, s.ownerID); err != nil {
		return domain.Wrap("signatures.rename", err)
	}
	return nil
}

func (s *signatureService) SetDefaultSignature(ctx context.Context, id string) error {
	if err := s.repo.SetDefault(ctx, id, s.ownerID); err != nil {
		return domain.Wrap("signatures.set_default", err)
	}
	return nil
}

func (s *signatureService) ClearDefaultSignature(ctx context.Context) error {
	if err := s.repo.SetDefault(ctx, "", s.ownerID); err != nil {
		return domain.Wrap("signatures.clear_default", err)
	}
	return nil
}

func (s *signatureService) DeleteSignature(ctx context.Context, id string) error {
	deleted, err := s.repo.DeleteMany(ctx, []string{id}, s.ownerID)
	if err != nil {
		return domain.Wrap("signatures.delete", err)
	}
	if len(deleted) == 0 {
		return domain.E(domain.KindNotFound, "signatures.delete", "signature "+id, domain.ErrNotFound)
	}
	s.removeImages(deleted)
	return nil
}

func (s *signatureService) DeleteSignatures(ctx context.Context, ids []string) error {
	deleted, err := s.repo.DeleteMany(ctx, ids, s.ownerID)
	if err != nil {
		return domain.Wrap("signatures.delete", err)
	}
	s.removeImages(deleted)
	return nil
}

func (s *signatureService) ClearAllSignatures(ctx context.Context) error {
	deleted, err := s.repo.DeleteAll(ctx, s.ownerID)
	if err != nil {
		return domain.Wrap("signatures.clear", err)
	}
	s.removeImages(deleted)
	s.logger.Info("signatures cleared", "count", len(deleted))
	return nil
}

func (s *signatureService) LoadSignatureImage(ctx context.Context, sig models.Signature) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.vault.OpenFile(sig.ImagePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.E(domain.KindNotFound, "signatures.image", "image missing for "+sig.ID, err)
		}
		return nil, domain.E(domain.KindIOFailure, "signatures.image", "cannot read image for "+sig.ID, err)
	}
	return data, nil
}

// GetStorageSizeFormatted sums the size of every file in the signature
// directory, e.g. "12 kB"
func (s *signatureService) GetStorageSizeFormatted(ctx context.Context) (string, error) {
	if _, err := os.Stat(s.dir); errors.Is(err, fs.ErrNotExist) {
		return humanize.Bytes(0), nil
	}

	var total atomic.Int64
	conf := &fastwalk.Config{Follow: false}
	err := fastwalk.Walk(conf, s.dir, func(fullPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil // Skip entries removed mid-walk
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			return nil // Skip files we can't stat
		}
		total.Add(info.Size())
		return nil
	})
	if err != nil {
		return "", domain.E(domain.KindIOFailure, "signatures.storage_size", "cannot measure storage", err)
	}

	return humanize.Bytes(uint64(total.Load())), nil
}

func (s *signatureService) removeImages(sigs []models.Signature) {
	for _, sig := range sigs {
		s.removeFile(sig.ImagePath)
	}
}

func (s *signatureService) removeFile(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("failed to remove signature image", "path", path, "error", err)
	}
}

func validateLabel(label string) error {
	return validation.Validate(label,
		validation.Required.Error("label cannot be empty"),
		validation.RuneLength(1, config.MaxSignatureLabelLength),
	)
}
