// Package session keeps one browser engine and one signatures engine per
// signed-in user, built on the shared repositories.
package session

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"scandeck/internal/browser"
	"scandeck/internal/domain/repositories"
	docsysRepo "scandeck/internal/domain/repositories/docsystem"
	"scandeck/internal/repository/postgres"
	postgresDocsys "scandeck/internal/repository/postgres/docsystem"
	"scandeck/internal/service/clipboard"
	serviceDocsys "scandeck/internal/service/docsystem"
	"scandeck/internal/service/share"
	"scandeck/internal/service/signature"
	"scandeck/internal/signatures"
	"scandeck/internal/utils"
	"scandeck/internal/vault"
)

// Session is the state a single user drives through the API
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	Browser    *browser.Engine
	Signatures *signatures.Engine

	// Clipboard receives text copied from OCR results
	Clipboard *clipboard.MemoryBoard

	// ExportDir is the only directory exports may write into. Empty when
	// exports are disabled.
	ExportDir string

	lastUsed atomic.Int64
}

func (s *Session) touch(now time.Time) { s.lastUsed.Store(now.UnixNano()) }

// LastUsed reports when the session was last handed out
func (s *Session) LastUsed() time.Time { return time.Unix(0, s.lastUsed.Load()) }

func (s *Session) initialize(ctx context.Context) {
	if s.Browser != nil {
		s.Browser.Initialize(ctx)
	}
	if s.Signatures != nil {
		s.Signatures.Initialize(ctx)
	}
}

func (s *Session) dispose() {
	if s.Browser != nil {
		s.Browser.Dispose()
	}
}

// Backend holds the process-wide collaborators every session shares
type Backend struct {
	Documents  docsysRepo.DocumentRepository
	Folders    docsysRepo.FolderRepository
	Tags       docsysRepo.TagRepository
	Signatures repositories.SignatureRepository
	Tx         repositories.TransactionManager
	Schema     repositories.SchemaManager

	// Preferences is optional
	Preferences repositories.PreferencesRepository

	Vault   *vault.Vault
	DataDir string
	TempDir string

	// ExportDir holds one export directory per user
	ExportDir string

	ThumbnailBatch     int
	ClipboardAutoClear time.Duration

	Logger *slog.Logger
}

// NewPostgresBackend wires the pgx repositories for one connection pool
func NewPostgresBackend(cfg *postgres.RepositoryConfig, v *vault.Vault, prefs repositories.PreferencesRepository) *Backend {
	tx := postgres.NewTransactionManager(cfg.Pool, cfg.Logger)
	return &Backend{
		Documents:   postgresDocsys.NewDocumentRepository(cfg),
		Folders:     postgresDocsys.NewFolderRepository(cfg),
		Tags:        postgresDocsys.NewTagRepository(cfg),
		Signatures:  postgres.NewSignatureRepository(cfg, tx),
		Tx:          tx,
		Schema:      postgres.NewSchemaManager(cfg),
		Preferences: prefs,
		Vault:       v,
		Logger:      cfg.Logger,
	}
}

// Build creates an uninitialized session for userID
func (b *Backend) Build(userID string) *Session {
	id := uuid.NewString()
	logger := b.Logger.With("session_id", id, "user_id", userID)

	validator := serviceDocsys.NewResourceValidator(b.Folders)
	storage := serviceDocsys.Storage{DataDir: b.DataDir, TempDir: b.TempDir, Vault: b.Vault}
	board := &clipboard.MemoryBoard{}

	docs := serviceDocsys.NewDocumentService(b.Documents, b.Tags, b.Schema, validator, storage, userID, logger)
	folders := serviceDocsys.NewFolderService(b.Folders, b.Documents, b.Tx, b.Schema, validator, userID, logger)
	sigs := signature.NewService(b.Signatures, b.Schema, b.Vault, b.DataDir, userID, logger)

	var exportDir string
	if b.ExportDir != "" {
		dir, err := utils.ResolveWithin(b.ExportDir, userID)
		if err != nil {
			logger.Warn("exports disabled for session", "error", err)
		}
		exportDir = dir
	}

	return &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: time.Now(),
		Browser: browser.New(browser.Dependencies{
			Documents:   docs,
			Folders:     folders,
			Share:       share.NewService(b.Vault, b.TempDir, logger),
			Clipboard:   clipboard.NewService(board, b.ClipboardAutoClear, logger),
			Preferences: b.Preferences,
			Logger:      logger,
		}, browser.Options{UserID: userID, ThumbnailBatch: b.ThumbnailBatch}),
		Signatures: signatures.New(signatures.Dependencies{
			Signatures:  sigs,
			Preferences: b.Preferences,
			Logger:      logger,
		}, signatures.Options{UserID: userID}),
		Clipboard: board,
		ExportDir: exportDir,
	}
}
