// Package config reads server settings from flags, the environment and an
// optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const (
	defaultPort      = 8080
	defaultDBPath    = "portfolio.db"
	defaultEnvFile   = ".env"
	defaultRetention = 365 * 24 * time.Hour

	devAdminUsername = "admin"
	devAdminPassword = "admin123"
)

var (
	ErrContactURLRequired = errors.New("contact API URL required (use -contact-url or CONTACT_API_URL env)")
	ErrAdminCredentials   = errors.New("ADMIN_USERNAME and ADMIN_PASSWORD required in release mode")
)

type Config struct {
	Port          int
	DatabasePath  string
	ContactAPIURL string
	ContentPath   string
	AdminUsername string
	AdminPassword string
	GinMode       string
	LogLevel      string
	Retention     time.Duration
	// HashSalt keeps visitor hashes stable across restarts. Empty means a
	// random salt per process.
	HashSalt string

	// Warnings collects non-fatal notes for the caller to log once a
	// logger exists.
	Warnings []string
}

// Debug reports whether the server runs in gin's debug mode.
func (c Config) Debug() bool {
	return c.GinMode == gin.DebugMode
}

// Parse reads flags first, then falls back to environment variables. The
// env file is loaded before the fallback and never overrides variables that
// are already set.
func Parse(args []string) (Config, error) {
	var (
		cfg     Config
		envFile string
	)

	flags := flag.NewFlagSet("portfolio", flag.ContinueOnError)
	flags.StringVar(&envFile, "env", defaultEnvFile, "Path to a .env file")
	flags.IntVar(&cfg.Port, "p", 0, "Server port")
	flags.StringVar(&cfg.DatabasePath, "db", "", "SQLite database path")
	flags.StringVar(&cfg.ContactAPIURL, "contact-url", "", "Base URL of the contact mail relay")
	flags.StringVar(&cfg.ContentPath, "content", "", "Portfolio content YAML (defaults to the built-in profile)")
	flags.StringVar(&cfg.GinMode, "mode", "", "gin mode: debug, release or test")
	flags.StringVar(&cfg.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.DurationVar(&cfg.Retention, "retention", 0, "How long visitor records are kept")

	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	if err := loadEnvFile(envFile); err != nil {
		return Config{}, err
	}

	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = defaultPort
		}
	}

	cfg.DatabasePath = firstNonEmpty(cfg.DatabasePath, os.Getenv("DATABASE_PATH"), defaultDBPath)
	cfg.ContactAPIURL = firstNonEmpty(cfg.ContactAPIURL, os.Getenv("CONTACT_API_URL"))
	if cfg.ContactAPIURL == "" {
		return Config{}, ErrContactURLRequired
	}
	cfg.ContentPath = firstNonEmpty(cfg.ContentPath, os.Getenv("CONTENT_PATH"))
	cfg.LogLevel = firstNonEmpty(cfg.LogLevel, os.Getenv("LOG_LEVEL"), "info")

	cfg.GinMode = firstNonEmpty(cfg.GinMode, os.Getenv(gin.EnvGinMode), gin.DebugMode)
	switch cfg.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return Config{}, fmt.Errorf("invalid gin mode %q", cfg.GinMode)
	}

	if cfg.Retention == 0 {
		cfg.Retention = defaultRetention
		if v := os.Getenv("VISITOR_RETENTION"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid VISITOR_RETENTION: %w", err)
			}
			cfg.Retention = d
		}
	}
	if cfg.Retention < 0 {
		return Config{}, errors.New("retention must be positive")
	}

	cfg.HashSalt = os.Getenv("HASH_SALT")
	if cfg.HashSalt == "" && !cfg.Debug() {
		cfg.Warnings = append(cfg.Warnings, "HASH_SALT not set; visitor hashes change on restart")
	}

	cfg.AdminUsername = os.Getenv("ADMIN_USERNAME")
	cfg.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		if !cfg.Debug() {
			return Config{}, ErrAdminCredentials
		}
		if cfg.AdminUsername == "" {
			cfg.AdminUsername = devAdminUsername
			cfg.Warnings = append(cfg.Warnings, "using default admin username; set ADMIN_USERNAME")
		}
		if cfg.AdminPassword == "" {
			cfg.AdminPassword = devAdminPassword
			cfg.Warnings = append(cfg.Warnings, "using default admin password; set ADMIN_PASSWORD")
		}
	}

	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
