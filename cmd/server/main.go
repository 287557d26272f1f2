package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"scandeck/internal/auth"
	"scandeck/internal/config"
	"scandeck/internal/handler"
	"scandeck/internal/httputil"
	"scandeck/internal/middleware"
	"scandeck/internal/repository/postgres"
	"scandeck/internal/repository/sqlite"
	"scandeck/internal/session"
	"scandeck/internal/vault"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging, mirrored to a log file when LOG_DIR is set
	var out io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, cfg.LogMaxFiles)
		if err != nil {
			log.Fatalf("Failed to setup log file: %v", err)
		}
		defer logFile.Close()
		out = io.MultiWriter(os.Stdout, logFile)
	}
	logger := config.NewLogger(cfg.Environment, out)
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Authentication
	var authenticate func(http.Handler) http.Handler
	switch {
	case cfg.JWKSURL != "":
		jwtVerifier, err := auth.NewJWTVerifier(ctx, cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
		authenticate = middleware.Auth(jwtVerifier, logger)
	case cfg.Environment == "dev":
		logger.Warn("DEV MODE: no JWKS_URL, all requests run as the dev user", "user_id", config.DevUserID)
		authenticate = middleware.StaticUser(config.DevUserID)
	default:
		log.Fatal("JWKS_URL is required outside dev")
	}

	// Create pgx connection pool
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", pool.Config().MaxConns,
		"min_conns", pool.Config().MinConns,
	)

	prefs, err := sqlite.Open(cfg.PreferencesDB, logger)
	if err != nil {
		log.Fatalf("Failed to open preferences store: %v", err)
	}
	defer prefs.Close()

	v, err := vault.NewFromHex(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("Failed to create vault: %v", err)
	}

	// Shared collaborators; each user gets its own engines on first request
	backend := session.NewPostgresBackend(&postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}, v, prefs)
	backend.DataDir = cfg.DataDir
	backend.TempDir = cfg.TempDir
	backend.ExportDir = cfg.ExportDir
	backend.ThumbnailBatch = cfg.ThumbnailBatch
	backend.ClipboardAutoClear = config.ClipboardAutoClearSeconds * time.Second

	registry := session.NewRegistry(backend.Build, time.Duration(cfg.SessionIdleMinutes)*time.Minute, logger)
	defer registry.Close()
	go registry.Run(ctx, time.Minute)

	browserHandler := handler.NewBrowserHandler(registry, logger)
	signatureHandler := handler.NewSignatureHandler(registry, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": registry.Len(),
		})
	})

	handler.RegisterRoutes(mux, browserHandler, signatureHandler)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	h = middleware.Public(authenticate, "/health")(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // share and export stream large files
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}
