package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the working directory when no --config
// flag is given.
const DefaultFileName = "sheetvoice.yaml"

// Load reads the YAML config at path, overlaying it on Default. An empty
// path falls back to DefaultFileName in the working directory; if that file
// does not exist either, defaults are returned. A .env file next to the
// process is loaded first so ${VAR} references in the YAML resolve.
func Load(path string) (*Config, error) {
	// .env is optional; ignore a missing file.
	_ = godotenv.Load()

	if path == "" {
		path = DefaultFileName
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand $VAR and ${VAR} references before parsing.
	expanded := os.Expand(string(data), os.Getenv)

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	return cfg, nil
}
