// Package config loads analyzer configuration from a TOML file,
// falling back to defaults when no file is present.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the recognized configuration for the analysis core.
type Config struct {
	// Image holds preprocessing settings.
	Image ImageConfig `toml:"image"`

	// Analysis holds scoring settings.
	Analysis AnalysisConfig `toml:"analysis"`

	// Model holds classifier persistence settings.
	Model ModelConfig `toml:"model"`

	// Log holds logging settings.
	Log LogConfig `toml:"log"`
}

// ImageConfig holds preprocessing settings.
type ImageConfig struct {
	// TargetWidth and TargetHeight are the fixed resolution every
	// signature is normalized to before feature extraction.
	TargetWidth  int `toml:"target_width"`
	TargetHeight int `toml:"target_height"`

	// MaxFileSize is the largest accepted raw image in bytes.
	MaxFileSize int64 `toml:"max_file_size"`
}

// AnalysisConfig holds scoring settings.
type AnalysisConfig struct {
	// ConfidenceThreshold is the score at or above which a signature
	// is reported authentic.
	ConfidenceThreshold float64 `toml:"confidence_threshold"`

	// MaxFeatures is the size of the canonical descriptor vector.
	MaxFeatures int `toml:"max_features"`
}

// ModelConfig holds classifier persistence settings.
type ModelConfig struct {
	// Path is the directory holding the persisted model document.
	Path string `toml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Image: ImageConfig{
			TargetWidth:  224,
			TargetHeight: 224,
			MaxFileSize:  10 * 1024 * 1024,
		},
		Analysis: AnalysisConfig{
			ConfidenceThreshold: 0.7,
			MaxFeatures:         17,
		},
		Model: ModelConfig{
			Path: defaultModelDir(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// defaultModelDir returns the model directory under the user config dir,
// or a relative fallback when it cannot be determined.
func defaultModelDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "models"
	}
	return filepath.Join(configDir, "signature-analyzer", "models")
}

// Load reads configuration from path, layered over defaults. A missing
// file is not an error; a malformed file is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Image.TargetWidth <= 0 || c.Image.TargetHeight <= 0 {
		return fmt.Errorf("invalid target resolution %dx%d", c.Image.TargetWidth, c.Image.TargetHeight)
	}
	if c.Analysis.ConfidenceThreshold < 0 || c.Analysis.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence threshold %.2f out of [0,1]", c.Analysis.ConfidenceThreshold)
	}
	if c.Analysis.MaxFeatures <= 0 {
		return fmt.Errorf("max features must be positive, got %d", c.Analysis.MaxFeatures)
	}
	return nil
}
