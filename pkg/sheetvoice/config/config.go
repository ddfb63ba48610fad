// Package config loads sheetvoice configuration from YAML files with
// environment variable expansion and .env autoloading.
package config

import (
	"path/filepath"

	"github.com/sheetvoice/sheetvoice/pkg/sheetvoice/match"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Matching MatchingConfig `yaml:"matching"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Address is the listen address (default ":8080").
	Address string `yaml:"address"`

	// BaseURL is the public prefix used to derive script links.
	BaseURL string `yaml:"base_url"`

	// MaxUploadBytes caps the multipart upload body.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// StorageConfig holds file and database locations. Relative file settings
// resolve against DataDir.
type StorageConfig struct {
	// Backend selects the record store: "json" (default) or "sqlite".
	Backend string `yaml:"backend"`

	DataDir     string `yaml:"data_dir"`
	RecordsFile string `yaml:"records_file"`
	SQLiteFile  string `yaml:"sqlite_file"`
	UploadsDir  string `yaml:"uploads_dir"`
	LinkLogFile string `yaml:"link_log_file"`
}

// MatchingConfig holds fuzzy-match settings.
type MatchingConfig struct {
	// Threshold is the maximum normalized distance (0-1) for a match.
	Threshold float64 `yaml:"threshold"`

	FallbackAnswer string `yaml:"fallback_answer"`
	NoDataAnswer   string `yaml:"no_data_answer"`
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	// Level is "debug" or "info".
	Level string `yaml:"level"`

	// Format is "json" (default) or "text".
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        ":8080",
			BaseURL:        "http://localhost:8080",
			MaxUploadBytes: 10 * 1024 * 1024, // 10MB
		},
		Storage: StorageConfig{
			Backend:     "json",
			DataDir:     "./data",
			RecordsFile: "scripts.json",
			SQLiteFile:  "scripts.db",
			UploadsDir:  "uploads",
			LinkLogFile: "script-links.log",
		},
		Matching: MatchingConfig{
			Threshold: match.DefaultThreshold,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// RecordsPath returns the resolved location of the store file for the
// configured backend.
func (s StorageConfig) RecordsPath() string {
	if s.Backend == "sqlite" {
		return s.resolve(s.SQLiteFile)
	}
	return s.resolve(s.RecordsFile)
}

// UploadsPath returns the resolved upload directory.
func (s StorageConfig) UploadsPath() string { return s.resolve(s.UploadsDir) }

// LinkLogPath returns the resolved link log location.
func (s StorageConfig) LinkLogPath() string { return s.resolve(s.LinkLogFile) }

func (s StorageConfig) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.DataDir, p)
}
