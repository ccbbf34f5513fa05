// Package config provides the per-repository cadlink configuration record.
// A record is loaded once per operation and never mutated; a changed
// configuration is a new record.
package config

import (
	"compress/flate"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cadlink-project/cadlink/pkg/errclass"
)

// FileName is the repository-root configuration file.
const FileName = ".cadlink.yaml"

// Config holds all recognized layout and policy settings.
type Config struct {
	UncompressedPrefix string `yaml:"uncompressed_prefix"`
	UncompressedSuffix string `yaml:"uncompressed_suffix"`

	SubdirectoryMode bool   `yaml:"subdirectory_mode"`
	SubdirectoryName string `yaml:"subdirectory_name"`

	IncludeThumbnails bool `yaml:"include_thumbnails"`

	CompressBinaries bool     `yaml:"compress_binaries"`
	BinaryPatterns   []string `yaml:"binary_patterns"`
	CompressionLevel int      `yaml:"compression_level"`

	ContainerPatterns []string `yaml:"container_patterns"`

	RequireLock bool `yaml:"require_lock"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		UncompressedPrefix: "",
		UncompressedSuffix: "_uncompressed",
		SubdirectoryMode:   false,
		SubdirectoryName:   ".cadlink",
		IncludeThumbnails:  true,
		CompressBinaries:   false,
		BinaryPatterns:     []string{"*.brp", "*.bin"},
		CompressionLevel:   6,
		ContainerPatterns:  []string{"*.FCStd"},
		RequireLock:        false,
	}
}

// Load reads .cadlink.yaml from the repository root. A missing file is not
// an error; defaults apply.
func Load(repoRoot string) (*Config, error) {
	cfg := Default()
	path := filepath.Join(repoRoot, FileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errclass.ErrConfigInvalid.WithMessagef("parse %s: %v", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the repository root.
func Save(repoRoot string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(repoRoot, FileName), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate rejects values the codec or resolver cannot act on.
func (c *Config) Validate() error {
	if c.CompressionLevel < flate.NoCompression || c.CompressionLevel > flate.BestCompression {
		return errclass.ErrConfigInvalid.WithMessagef(
			"compression_level must be %d..%d, got %d",
			flate.NoCompression, flate.BestCompression, c.CompressionLevel)
	}
	if c.SubdirectoryMode && c.SubdirectoryName == "" {
		return errclass.ErrConfigInvalid.WithMessage("subdirectory_mode requires subdirectory_name")
	}
	if len(c.ContainerPatterns) == 0 {
		return errclass.ErrConfigInvalid.WithMessage("container_patterns must not be empty")
	}
	return nil
}
