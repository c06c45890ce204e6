// Package config loads the engine's yaml configuration. File values overlay
// defaults, so a config file only needs the settings it changes.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Classifier ClassifierConfig `yaml:"classifier"`
	Gate       GateConfig       `yaml:"gate"`
	Knowledge  KnowledgeConfig  `yaml:"knowledge"`
	Assembly   AssemblyConfig   `yaml:"assembly"`
	Session    SessionConfig    `yaml:"session"`
	Search     SearchConfig     `yaml:"search"`
	Engine     EngineConfig     `yaml:"engine"`
}

type ClassifierConfig struct {
	// FuzzyThreshold is the confidence below which the fuzzy exemplar
	// fallback runs.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
}

type GateConfig struct {
	// RecallKeywords extend the built-in recall signal list.
	RecallKeywords []string `yaml:"recall_keywords"`
}

type KnowledgeConfig struct {
	// Path locates the fact database. Empty selects in-memory.
	Path string `yaml:"path"`

	// ConfidenceFloor is the weighted-confidence cutoff for usable facts.
	ConfidenceFloor float64 `yaml:"confidence_floor"`

	// StalenessDays overrides per-relation staleness thresholds.
	StalenessDays map[string]int `yaml:"staleness_days"`

	// OpposingPairs extends the opposing relation table. Keys and values
	// are relation types.
	OpposingPairs map[string]string `yaml:"opposing_pairs"`
}

type AssemblyConfig struct {
	// MaxTokens is the hard prompt ceiling.
	MaxTokens int `yaml:"max_tokens"`

	// MinFragmentTokens is the floor a required fragment shrinks to under
	// overflow.
	MinFragmentTokens int `yaml:"min_fragment_tokens"`
}

type SessionConfig struct {
	WindowSize       int `yaml:"window_size"`
	MaxConversations int `yaml:"max_conversations"`
}

type SearchConfig struct {
	// IndexPath locates the bleve index. Empty selects in-memory.
	IndexPath string `yaml:"index_path"`

	// DocCacheSize bounds the recently-indexed item cache.
	DocCacheSize int `yaml:"doc_cache_size"`
}

type EngineConfig struct {
	SearchTimeout  time.Duration `yaml:"search_timeout"`
	RetrievalLimit int           `yaml:"retrieval_limit"`

	// CacheTTL is the query cache entry lifetime. Zero disables caching.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Classifier: ClassifierConfig{
			FuzzyThreshold: 0.7,
		},
		Knowledge: KnowledgeConfig{
			ConfidenceFloor: 0.6,
		},
		Assembly: AssemblyConfig{
			MaxTokens:         2048,
			MinFragmentTokens: 50,
		},
		Session: SessionConfig{
			WindowSize:       20,
			MaxConversations: 512,
		},
		Engine: EngineConfig{
			SearchTimeout:  300 * time.Millisecond,
			RetrievalLimit: 8,
			CacheTTL:       time.Minute,
		},
	}
}

// Load reads the yaml file at path over the defaults. An empty path returns
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings outside their usable ranges.
func (c *Config) Validate() error {
	if c.Classifier.FuzzyThreshold < 0 || c.Classifier.FuzzyThreshold > 1 {
		return fmt.Errorf("classifier.fuzzy_threshold must be in [0,1], got %v", c.Classifier.FuzzyThreshold)
	}
	if c.Knowledge.ConfidenceFloor < 0 || c.Knowledge.ConfidenceFloor > 1 {
		return fmt.Errorf("knowledge.confidence_floor must be in [0,1], got %v", c.Knowledge.ConfidenceFloor)
	}
	if c.Assembly.MaxTokens <= 0 {
		return fmt.Errorf("assembly.max_tokens must be positive, got %d", c.Assembly.MaxTokens)
	}
	if c.Assembly.MinFragmentTokens < 0 {
		return fmt.Errorf("assembly.min_fragment_tokens must not be negative, got %d", c.Assembly.MinFragmentTokens)
	}
	if c.Assembly.MinFragmentTokens > c.Assembly.MaxTokens {
		return fmt.Errorf("assembly.min_fragment_tokens %d exceeds max_tokens %d",
			c.Assembly.MinFragmentTokens, c.Assembly.MaxTokens)
	}
	if c.Session.WindowSize < 0 || c.Session.MaxConversations < 0 {
		return fmt.Errorf("session sizes must not be negative")
	}
	if c.Engine.RetrievalLimit < 0 {
		return fmt.Errorf("engine.retrieval_limit must not be negative, got %d", c.Engine.RetrievalLimit)
	}
	return nil
}
