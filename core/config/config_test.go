package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "reverie.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 0.7, cfg.Classifier.FuzzyThreshold)
	assert.Equal(t, 0.6, cfg.Knowledge.ConfidenceFloor)
	assert.Equal(t, 2048, cfg.Assembly.MaxTokens)
	assert.Equal(t, 50, cfg.Assembly.MinFragmentTokens)
	assert.Equal(t, 20, cfg.Session.WindowSize)
	assert.Equal(t, 300*time.Millisecond, cfg.Engine.SearchTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
assembly:
  max_tokens: 4096
knowledge:
  confidence_floor: 0.5
  staleness_days:
    works_at: 90
gate:
  recall_keywords:
    - don't forget
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4096, cfg.Assembly.MaxTokens)
	assert.Equal(t, 0.5, cfg.Knowledge.ConfidenceFloor)
	assert.Equal(t, 90, cfg.Knowledge.StalenessDays["works_at"])
	assert.Equal(t, []string{"don't forget"}, cfg.Gate.RecallKeywords)

	// Untouched settings keep their defaults.
	assert.Equal(t, 0.7, cfg.Classifier.FuzzyThreshold)
	assert.Equal(t, 50, cfg.Assembly.MinFragmentTokens)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAMLErrors(t *testing.T) {
	path := writeConfig(t, "assembly: [not a map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"fuzzy threshold above one", func(c *Config) { c.Classifier.FuzzyThreshold = 1.5 }},
		{"negative confidence floor", func(c *Config) { c.Knowledge.ConfidenceFloor = -0.1 }},
		{"zero max tokens", func(c *Config) { c.Assembly.MaxTokens = 0 }},
		{"floor above ceiling", func(c *Config) {
			c.Assembly.MaxTokens = 40
			c.Assembly.MinFragmentTokens = 80
		}},
		{"negative retrieval limit", func(c *Config) { c.Engine.RetrievalLimit = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
