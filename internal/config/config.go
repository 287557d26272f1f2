package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	DatabaseURL string `yaml:"database_url"`
	TablePrefix string `yaml:"table_prefix"`
	CORSOrigins string `yaml:"cors_origins"`
	JWKSURL     string `yaml:"jwks_url"`
	// Storage
	DataDir        string `yaml:"data_dir"`        // encrypted documents, thumbnails, signatures
	TempDir        string `yaml:"temp_dir"`        // decrypted thumbnails and share files
	ExportDir      string `yaml:"export_dir"`      // plaintext exports, one directory per user
	PreferencesDB  string `yaml:"preferences_db"`  // sqlite file
	EncryptionKey  string `yaml:"encryption_key"`  // hex, 32 bytes
	ThumbnailBatch int    `yaml:"thumbnail_batch"` // initial thumbnail batch per load
	// Sessions
	SessionIdleMinutes int `yaml:"session_idle_minutes"` // unused sessions are disposed after this
	// Logging
	LogDir      string `yaml:"log_dir"`
	LogMaxFiles int    `yaml:"log_max_files"`
	// Debug flags
	Debug bool `yaml:"debug"`
}

// Load reads configuration from the optional YAML file named by
// SCANDECK_CONFIG, then from the environment. Environment variables win.
func Load() (*Config, error) {
	file := &Config{}
	if path := os.Getenv("SCANDECK_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, file); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	env := getEnv("ENVIRONMENT", orDefault(file.Environment, "dev"))
	dataDir := getEnv("DATA_DIR", orDefault(file.DataDir, "./data"))

	cfg := &Config{
		Port:               getEnv("PORT", orDefault(file.Port, "8080")),
		Environment:        env,
		DatabaseURL:        getEnv("DATABASE_URL", file.DatabaseURL),
		TablePrefix:        getTablePrefix(env, file.TablePrefix),
		CORSOrigins:        getEnv("CORS_ORIGINS", orDefault(file.CORSOrigins, "http://localhost:3000")),
		JWKSURL:            getEnv("JWKS_URL", file.JWKSURL),
		DataDir:            dataDir,
		TempDir:            getEnv("TEMP_DIR", orDefault(file.TempDir, os.TempDir())),
		ExportDir:          getEnv("EXPORT_DIR", orDefault(file.ExportDir, dataDir+"/exports")),
		PreferencesDB:      getEnv("PREFERENCES_DB", orDefault(file.PreferencesDB, dataDir+"/preferences.db")),
		EncryptionKey:      getEnv("ENCRYPTION_KEY", file.EncryptionKey),
		ThumbnailBatch:     getEnvInt("THUMBNAIL_BATCH", orDefaultInt(file.ThumbnailBatch, InitialThumbnailBatch)),
		SessionIdleMinutes: getEnvInt("SESSION_IDLE_MINUTES", orDefaultInt(file.SessionIdleMinutes, DefaultSessionIdleMinutes)),
		LogDir:             getEnv("LOG_DIR", file.LogDir),
		LogMaxFiles:        getEnvInt("LOG_MAX_FILES", orDefaultInt(file.LogMaxFiles, 10)),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env, file.Debug)) == "true",
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Match(regexp.MustCompile(`^\d+$`))),
		validation.Field(&c.Environment, validation.Required, validation.In("dev", "test", "prod")),
		validation.Field(&c.DatabaseURL, validation.Required),
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.ExportDir, validation.Required),
		validation.Field(&c.EncryptionKey,
			validation.Required,
			validation.Match(regexp.MustCompile(`^[0-9a-fA-F]{64}$`)).Error("must be 64 hex characters"),
		),
		validation.Field(&c.ThumbnailBatch, validation.Required, validation.Min(1)),
		validation.Field(&c.SessionIdleMinutes, validation.Required, validation.Min(1)),
		validation.Field(&c.LogMaxFiles, validation.Required, validation.Min(1)),
	)
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string, fromFile bool) string {
	if fromFile || env != "prod" {
		return "true" // Enable DEBUG in dev/test by default
	}
	return "false"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env, fromFile string) string {
	// Allow manual override via TABLE_PREFIX env var or the config file
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}
	if fromFile != "" {
		return fromFile
	}

	// Auto-generate based on environment
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orDefaultInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}
