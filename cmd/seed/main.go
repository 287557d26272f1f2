package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"scandeck/internal/config"
	docsysModels "scandeck/internal/domain/models/docsystem"
	docsysSvc "scandeck/internal/domain/services/docsystem"
	"scandeck/internal/repository/postgres"
	"scandeck/internal/service/docsystem"
	"scandeck/internal/service/signature"
	"scandeck/internal/session"
	"scandeck/internal/vault"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
)

var (
	info    = color.New(color.FgCyan)
	success = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
)

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed documents")
	clearData := flag.Bool("clear-data", false, "Clear the user's documents, folders, tags and signatures (keep schema)")
	userID := flag.String("user", config.DevUserID, "Owner of the seeded data")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatal("BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	switch {
	case *clearData:
		info.Printf("Clearing data only (environment: %s, prefix: %s, user: %s)\n", cfg.Environment, cfg.TablePrefix, *userID)
	case *schemaOnly:
		info.Printf("Setting up schema only (environment: %s, prefix: %s)\n", cfg.Environment, cfg.TablePrefix)
	default:
		info.Printf("Seeding database (environment: %s, prefix: %s, user: %s)\n", cfg.Environment, cfg.TablePrefix, *userID)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		warn.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		success.Println("Tables dropped")
	}

	info.Println("Ensuring database schema is up to date...")
	if err := postgres.ApplySchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	success.Println("Schema ready")

	if *schemaOnly {
		return
	}

	// Existing data is always cleared; tag names are unique per owner
	warn.Println("Clearing existing data...")
	if err := clearUserData(ctx, pool, tables, cfg.DataDir, *userID); err != nil {
		log.Fatalf("Failed to clear data: %v", err)
	}
	if *clearData {
		success.Println("Data cleared successfully")
		return
	}

	v, err := vault.NewFromHex(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("Failed to create vault: %v", err)
	}

	backend := session.NewPostgresBackend(&postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}, v, nil)

	if err := seed(ctx, backend, cfg, v, *userID, logger); err != nil {
		log.Fatalf("Failed to seed: %v", err)
	}
	success.Println("Seeding complete")
}

func seed(ctx context.Context, b *session.Backend, cfg *config.Config, v *vault.Vault, userID string, logger *slog.Logger) error {
	validator := docsystem.NewResourceValidator(b.Folders)
	folderService := docsystem.NewFolderService(b.Folders, b.Documents, b.Tx, b.Schema, validator, userID, logger)
	importer := docsystem.NewImporter(b.Documents, b.Tags, validator,
		docsystem.Storage{DataDir: cfg.DataDir, TempDir: cfg.TempDir, Vault: v}, logger)
	signatureService := signature.NewService(b.Signatures, b.Schema, v, cfg.DataDir, userID, logger)

	// Tags
	tagIDs := make(map[string]string, len(seedTags))
	for _, t := range seedTags {
		tag := &docsysModels.Tag{Name: t.Name, Color: t.Color}
		if err := b.Tags.Create(ctx, tag, userID); err != nil {
			return fmt.Errorf("create tag %q: %w", t.Name, err)
		}
		tagIDs[t.Name] = tag.ID
	}
	success.Printf("Created %d tags\n", len(tagIDs))

	// Folders, parents first
	folderIDs := make(map[string]string)
	for _, f := range getSeedFolders() {
		var parentID *string
		if f.ParentKey != "" {
			id := folderIDs[f.ParentKey]
			parentID = &id
		}
		folder, err := folderService.CreateFolder(ctx, &docsysSvc.CreateFolderRequest{
			Name:     f.Name,
			ParentID: parentID,
			Color:    f.Color,
		})
		if err != nil {
			return fmt.Errorf("create folder %q: %w", f.Name, err)
		}
		if f.Favorite {
			if err := folderService.ToggleFavorite(ctx, folder.ID); err != nil {
				return fmt.Errorf("favorite folder %q: %w", f.Name, err)
			}
		}
		folderIDs[f.Key] = folder.ID
	}
	success.Printf("Created %d folders\n", len(folderIDs))

	// Documents
	docs := getSeedDocuments()
	bar := progressbar.Default(int64(len(docs)), "importing documents")
	for _, d := range docs {
		thumb, err := thumbnail(d.Tint)
		if err != nil {
			return fmt.Errorf("render thumbnail for %q: %w", d.Title, err)
		}

		req := &docsystem.ImportRequest{
			OwnerID:   userID,
			Title:     d.Title,
			Content:   documentContent(d),
			Thumbnail: thumb,
			OCRText:   d.OCRText,
			Favorite:  d.Favorite,
		}
		if d.FolderKey != "" {
			id := folderIDs[d.FolderKey]
			req.FolderID = &id
		}
		for _, name := range d.Tags {
			req.TagIDs = append(req.TagIDs, tagIDs[name])
		}

		if _, err := importer.Import(ctx, req); err != nil {
			return fmt.Errorf("import %q: %w", d.Title, err)
		}
		bar.Add(1)
	}

	// Signatures
	for i, s := range seedSignatures {
		img, err := signatureImage(i + 1)
		if err != nil {
			return fmt.Errorf("render signature %q: %w", s.Label, err)
		}
		if _, err := signatureService.SaveSignature(ctx, s.Label, img, s.IsDefault); err != nil {
			return fmt.Errorf("save signature %q: %w", s.Label, err)
		}
	}
	success.Printf("Created %d signatures\n", len(seedSignatures))

	return nil
}

func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	// Children before parents
	for _, name := range []string{tables.DocumentTags, tables.Tags, tables.Documents, tables.Folders, tables.Signatures} {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", name)); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	return nil
}

// clearUserData deletes the user's rows and their encrypted files
func clearUserData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, dataDir, userID string) error {
	for _, name := range []string{tables.Documents, tables.Folders, tables.Tags, tables.Signatures} {
		if _, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE owner_id = $1", name), userID); err != nil {
			return fmt.Errorf("clear %s: %w", name, err)
		}
	}
	if err := os.RemoveAll(filepath.Join(dataDir, userID)); err != nil {
		return fmt.Errorf("remove files: %w", err)
	}
	return nil
}
