// Package config loads and validates docport configuration.
//
// Configuration hierarchy, lowest to highest priority:
//  1. Hardcoded defaults (NewConfig)
//  2. Config file (docport.yaml in the data directory, or --config path)
//  3. Environment variables (DOCPORT_*)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete docport configuration.
type Config struct {
	Paths      PathsConfig      `yaml:"paths"`
	Search     SearchConfig     `yaml:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Completion CompletionConfig `yaml:"completion"`
	Logging    LoggingConfig    `yaml:"logging"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// PathsConfig configures the on-disk document layout.
type PathsConfig struct {
	// DataDir is the root data directory. Defaults to ./data.
	DataDir string `yaml:"data_dir"`
	// DocsDir holds the shared (global scope) corpus. Defaults to <data_dir>/docs.
	DocsDir string `yaml:"docs_dir"`
	// UploadsDir holds per-tenant upload trees. Defaults to <data_dir>/uploads.
	UploadsDir string `yaml:"uploads_dir"`
}

// SearchConfig configures the hybrid retrieval pipeline.
type SearchConfig struct {
	// LexicalWeight is the weight for BM25 keyword matching (0.0-1.0).
	// Must sum to 1.0 with SemanticWeight.
	LexicalWeight float64 `yaml:"lexical_weight"`

	// SemanticWeight is the weight for semantic similarity (0.0-1.0).
	SemanticWeight float64 `yaml:"semantic_weight"`

	// RRFConstant is the RRF fusion smoothing parameter (k).
	// Default: 60 (industry standard used by Azure AI Search, OpenSearch).
	RRFConstant int `yaml:"rrf_constant"`

	// ChunkSize is the chunk length in characters.
	ChunkSize int `yaml:"chunk_size"`

	// ChunkOverlap is the overlap between consecutive chunks in characters.
	ChunkOverlap int `yaml:"chunk_overlap"`

	// MaxResults caps the k a caller may request.
	MaxResults int `yaml:"max_results"`

	// ScoreThreshold filters answer-synthesis context on the normalized
	// distance scale (0-1, lower is better).
	ScoreThreshold float64 `yaml:"score_threshold"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider selects the embedder: "ollama" (default) or "static" (offline).
	Provider string `yaml:"provider"`
	// Model is the embedding model name.
	Model string `yaml:"model"`
	// OllamaHost is the Ollama API endpoint.
	OllamaHost string `yaml:"ollama_host"`
	// Dimensions overrides auto-detection when non-zero.
	Dimensions int `yaml:"dimensions"`
	// BatchSize for batch embedding requests.
	BatchSize int `yaml:"batch_size"`
	// Timeout for embedding API requests.
	Timeout time.Duration `yaml:"timeout"`
	// CacheSize is the number of query embeddings kept in the LRU cache.
	CacheSize int `yaml:"cache_size"`
}

// CompletionConfig configures the opaque text-completion service used by
// answer synthesis and the prompt hub.
type CompletionConfig struct {
	// BaseURL is the OpenAI-compatible API root (e.g. https://api.groq.com/openai/v1).
	BaseURL string `yaml:"base_url"`
	// Model is the completion model name.
	Model string `yaml:"model"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `yaml:"api_key_env"`
	// Temperature for generation.
	Temperature float64 `yaml:"temperature"`
	// Timeout for completion requests.
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	FilePath  string `yaml:"file_path"`
	MaxSizeMB int    `yaml:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files"`
}

// TelemetryConfig configures local query telemetry.
type TelemetryConfig struct {
	// Enabled toggles query metric collection. All data stays local.
	Enabled bool `yaml:"enabled"`
	// DBPath is the SQLite file for persisted metrics. Empty keeps metrics
	// in memory only.
	DBPath string `yaml:"db_path"`
}

// Defaults mirrored from the retrieval pipeline contract.
const (
	DefaultLexicalWeight  = 0.4
	DefaultSemanticWeight = 0.6
	DefaultRRFConstant    = 60
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 150
	DefaultMaxResults     = 10
	DefaultScoreThreshold = 0.75
)

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir: "data",
		},
		Search: SearchConfig{
			LexicalWeight:  DefaultLexicalWeight,
			SemanticWeight: DefaultSemanticWeight,
			RRFConstant:    DefaultRRFConstant,
			ChunkSize:      DefaultChunkSize,
			ChunkOverlap:   DefaultChunkOverlap,
			MaxResults:     DefaultMaxResults,
			ScoreThreshold: DefaultScoreThreshold,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "ollama",
			Model:      "nomic-embed-text",
			OllamaHost: "http://localhost:11434",
			BatchSize:  32,
			Timeout:    60 * time.Second,
			CacheSize:  1000,
		},
		Completion: CompletionConfig{
			BaseURL:     "https://api.groq.com/openai/v1",
			Model:       "llama-3.3-70b-versatile",
			APIKeyEnv:   "GROQ_API_KEY",
			Temperature: 0.3,
			Timeout:     30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  5,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
	}
}

// Load reads configuration from the given file path (optional), applies
// environment overrides, fills derived paths, and validates.
// An empty path or a missing file falls back to defaults silently.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.fillDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config values from DOCPORT_* environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("DOCPORT_DATA_DIR"); v != "" {
		c.Paths.DataDir = v
	}
	if v := os.Getenv("DOCPORT_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("DOCPORT_EMBED_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("DOCPORT_COMPLETION_URL"); v != "" {
		c.Completion.BaseURL = v
	}
	if v := os.Getenv("DOCPORT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DOCPORT_LEXICAL_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.LexicalWeight = f
		}
	}
	if v := os.Getenv("DOCPORT_SEMANTIC_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.SemanticWeight = f
		}
	}
	if v := os.Getenv("DOCPORT_RRF_CONSTANT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.RRFConstant = n
		}
	}
}

// fillDerived fills paths derived from DataDir when unset.
func (c *Config) fillDerived() {
	if c.Paths.DocsDir == "" {
		c.Paths.DocsDir = filepath.Join(c.Paths.DataDir, "docs")
	}
	if c.Paths.UploadsDir == "" {
		c.Paths.UploadsDir = filepath.Join(c.Paths.DataDir, "uploads")
	}
	if c.Telemetry.DBPath == "" && c.Telemetry.Enabled {
		c.Telemetry.DBPath = filepath.Join(c.Paths.DataDir, "telemetry.db")
	}
}

// Validate checks invariants. Weight mismatches and bad chunking parameters
// are configuration bugs and fail loudly.
func (c *Config) Validate() error {
	const weightTolerance = 1e-9

	sum := c.Search.LexicalWeight + c.Search.SemanticWeight
	if sum < 1.0-weightTolerance || sum > 1.0+weightTolerance {
		return fmt.Errorf("search weights must sum to 1.0, got %.3f", sum)
	}
	if c.Search.LexicalWeight < 0 || c.Search.SemanticWeight < 0 {
		return fmt.Errorf("search weights must be non-negative")
	}
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}
	if c.Search.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.Search.ChunkSize)
	}
	if c.Search.ChunkOverlap < 0 || c.Search.ChunkOverlap >= c.Search.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", c.Search.ChunkOverlap)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Search.ScoreThreshold < 0 || c.Search.ScoreThreshold > 1 {
		return fmt.Errorf("score_threshold must be in [0, 1], got %.3f", c.Search.ScoreThreshold)
	}
	switch c.Embeddings.Provider {
	case "ollama", "static":
	default:
		return fmt.Errorf("unknown embeddings provider %q", c.Embeddings.Provider)
	}
	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
