package docsystem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"scandeck/internal/domain"
	models "scandeck/internal/domain/models/docsystem"
	"scandeck/internal/domain/repositories"
	docsysRepo "scandeck/internal/domain/repositories/docsystem"
	docsysSvc "scandeck/internal/domain/services/docsystem"
)

type folderService struct {
	folderRepo docsysRepo.FolderRepository
	docRepo    docsysRepo.DocumentRepository
	txManager  repositories.TransactionManager
	schema     repositories.SchemaManager
	validator  *ResourceValidator
	ownerID    string
	logger     *slog.Logger
}

// NewFolderService creates the folder service bound to ownerID
func NewFolderService(
	folderRepo docsysRepo.FolderRepository,
	docRepo docsysRepo.DocumentRepository,
	txManager repositories.TransactionManager,
	schema repositories.SchemaManager,
	validator *ResourceValidator,
	ownerID string,
	logger *slog.Logger,
) docsysSvc.FolderService {
	return &folderService{
		folderRepo: folderRepo,
		docRepo:    docRepo,
		txManager:  txManager,
		schema:     schema,
		validator:  validator,
		ownerID:    ownerID,
		logger:     logger.With("owner_id", ownerID),
	}
}

func (s *folderService) Initialize(ctx context.Context) error {
	if err := s.schema.EnsureSchema(ctx); err != nil {
		return domain.E(domain.KindIOFailure, "folders.initialize", "database unavailable", err)
	}
	return nil
}

// GetAllFolders loads the owner's folders into a collection
func (s *folderService) GetAllFolders(ctx context.Context) (*models.FolderCollection, error) {
	folders, err := s.folderRepo.GetAllByOwner(ctx, s.ownerID)
	if err != nil {
		return nil, domain.Wrap("folders.list", err)
	}
	return models.NewFolderCollection(folders), nil
}

func (s *folderService) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	folder, err := s.folderRepo.GetByID(ctx, id, s.ownerID)
	if err != nil {
		return nil, domain.Wrap("folders.get", err)
	}
	return folder, nil
}

// CreateFolder creates a folder. Sibling names must be unique, compared
// case-insensitively.
func (s *folderService) CreateFolder(ctx context.Context, req *docsysSvc.CreateFolderRequest) (*models.Folder, error) {
	// Normalize empty string to nil for root-level folders
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	name := strings.TrimSpace(req.Name)
	if err := ValidateFolderName(name); err != nil {
		return nil, invalid("folders.create", err)
	}
	if err := ValidateColor(req.Color); err != nil {
		return nil, invalid("folders.create", err)
	}
	if err := s.validator.ValidateFolder(ctx, req.ParentID, s.ownerID); err != nil {
		return nil, domain.Wrap("folders.create", err)
	}

	all, err := s.GetAllFolders(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkSiblingName(all, req.ParentID, name, ""); err != nil {
		return nil, domain.Wrap("folders.create", err)
	}

	now := time.Now()
	folder := &models.Folder{
		OwnerID:   s.ownerID,
		ParentID:  req.ParentID,
		Name:      name,
		Color:     req.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return nil, domain.Wrap("folders.create", err)
	}

	s.logger.Info("folder created",
		"id", folder.ID,
		"name", folder.Name,
		"parent_id", folder.ParentID,
	)

	return folder, nil
}

// UpdateFolder renames, recolors or moves a folder
func (s *folderService) UpdateFolder(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	updated := *folder
	updated.OwnerID = s.ownerID
	updated.Name = strings.TrimSpace(updated.Name)

	if err := ValidateFolderName(updated.Name); err != nil {
		return nil, invalid("folders.update", err)
	}
	if err := ValidateColor(updated.Color); err != nil {
		return nil, invalid("folders.update", err)
	}

	all, err := s.GetAllFolders(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := all.Get(updated.ID); !ok {
		return nil, domain.E(domain.KindNotFound, "folders.update", fmt.Sprintf("folder %s", updated.ID), domain.ErrNotFound)
	}
	if err := validateNoCircularReference(all, updated.ID, updated.ParentID); err != nil {
		return nil, invalid("folders.update", err)
	}
	if err := checkSiblingName(all, updated.ParentID, updated.Name, updated.ID); err != nil {
		return nil, domain.Wrap("folders.update", err)
	}

	if err := s.folderRepo.Update(ctx, &updated); err != nil {
		return nil, domain.Wrap("folders.update", err)
	}

	s.logger.Info("folder updated", "id", updated.ID, "name", updated.Name)
	return &updated, nil
}

// DeleteFolders deletes folders and their subfolders. Documents anywhere
// below them are promoted to the root, never deleted.
func (s *folderService) DeleteFolders(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	all, err := s.GetAllFolders(ctx)
	if err != nil {
		return err
	}

	affected := make([]string, 0, len(ids))
	for _, id := range ids {
		affected = append(affected, id)
		for _, d := range all.DescendantsOf(id) {
			affected = append(affected, d.ID)
		}
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.docRepo.ClearFolder(txCtx, affected, s.ownerID); err != nil {
			return err
		}
		return s.folderRepo.DeleteMany(txCtx, ids, s.ownerID)
	})
	if err != nil {
		return domain.Wrap("folders.delete", err)
	}

	s.logger.Info("folders deleted", "ids", ids, "including_subfolders", len(affected))
	return nil
}

func (s *folderService) ToggleFavorite(ctx context.Context, id string) error {
	folder, err := s.folderRepo.GetByID(ctx, id, s.ownerID)
	if err != nil {
		return domain.Wrap("folders.toggle_favorite", err)
	}

	folder.IsFavorite = !folder.IsFavorite
	if err := s.folderRepo.Update(ctx, folder); err != nil {
		return domain.Wrap("folders.toggle_favorite", err)
	}
	return nil
}

// checkSiblingName rejects a name already used by another folder under parentID
func checkSiblingName(all *models.FolderCollection, parentID *string, name, selfID string) error {
	siblings := all.Roots()
	if parentID != nil {
		siblings = all.ChildrenOf(*parentID)
	}

	for _, sibling := range siblings {
		if sibling.ID != selfID && strings.EqualFold(sibling.Name, name) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("a folder named %q already exists in this location", name),
				ResourceType: "folder",
				ResourceID:   sibling.ID,
			}
		}
	}
	return nil
}

// validateNoCircularReference ensures moving a folder won't place it inside itself
func validateNoCircularReference(all *models.FolderCollection, folderID string, newParentID *string) error {
	if newParentID == nil {
		return nil
	}
	if *newParentID == folderID {
		return fmt.Errorf("folder cannot be its own parent")
	}
	for _, d := range all.DescendantsOf(folderID) {
		if d.ID == *newParentID {
			return fmt.Errorf("folder cannot be moved into its own subfolder")
		}
	}
	return nil
}
