package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 224, cfg.Image.TargetWidth)
	assert.Equal(t, 224, cfg.Image.TargetHeight)
	assert.Equal(t, int64(10*1024*1024), cfg.Image.MaxFileSize)
	assert.Equal(t, 0.7, cfg.Analysis.ConfidenceThreshold)
	assert.Equal(t, 17, cfg.Analysis.MaxFeatures)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Analysis.ConfidenceThreshold, cfg.Analysis.ConfidenceThreshold)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	doc := `
[image]
target_width = 128
target_height = 128

[analysis]
confidence_threshold = 0.85

[model]
path = "/tmp/sig-models"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 128, cfg.Image.TargetWidth)
	assert.Equal(t, 128, cfg.Image.TargetHeight)
	assert.Equal(t, 0.85, cfg.Analysis.ConfidenceThreshold)
	assert.Equal(t, "/tmp/sig-models", cfg.Model.Path)
	// Untouched sections keep defaults
	assert.Equal(t, 17, cfg.Analysis.MaxFeatures)
}

func TestLoadRejectsInvalidThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[analysis]\nconfidence_threshold = 1.5\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}
