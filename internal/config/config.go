// Package config loads the application configuration from YAML.
// Credentials never live here; they come from the environment.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EmbedderConfig configures the embedding client.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// CompletionConfig configures the chat completion client. Temperature is a
// pointer because 0 is a valid, deliberate setting; only an absent key gets
// the default.
type CompletionConfig struct {
	BaseURL     string   `yaml:"base_url"`
	APIKeyEnv   string   `yaml:"api_key_env"`
	Model       string   `yaml:"model"`
	TimeoutSecs int      `yaml:"timeout_secs"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature *float64 `yaml:"temperature"`
}

// ChunkerConfig configures token-window chunking. Overlap is a pointer:
// overlap 0 means non-overlapping windows, which is distinct from "unset".
type ChunkerConfig struct {
	Encoding  string `yaml:"encoding"`
	Size      int    `yaml:"size"`
	Overlap   *int   `yaml:"overlap"`
	MaxTokens int    `yaml:"max_tokens"`
}

// PineconeConfig contains connection details for the Pinecone index.
type PineconeConfig struct {
	Host        string `yaml:"host"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Namespace   string `yaml:"namespace"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type     string          `yaml:"type"`
	Pinecone *PineconeConfig `yaml:"pinecone,omitempty"`
}

// IngestConfig tunes the ingestion run. PaceMillis is a pointer so that an
// explicit 0 disables pacing instead of falling back to the default.
type IngestConfig struct {
	SourceDir   string `yaml:"source_dir"`
	CatalogPath string `yaml:"catalog_path"`
	BatchSize   int    `yaml:"batch_size"`
	PaceMillis  *int   `yaml:"pace_ms"`
	MaxRetries  int    `yaml:"max_retries"`
}

// RetrievalConfig bounds query-time retrieval.
type RetrievalConfig struct {
	TopK     int `yaml:"top_k"`
	LocalCap int `yaml:"local_cap"`
	Budget   int `yaml:"context_budget"`
}

// PromptConfig selects the tone store and formatting variant.
type PromptConfig struct {
	TemplatesPath string `yaml:"templates_path"`
	DefaultTone   string `yaml:"default_tone"`
	Strictness    string `yaml:"strictness"`
	Preamble      string `yaml:"preamble"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder    EmbedderConfig    `yaml:"embedder"`
	Completion  CompletionConfig  `yaml:"completion"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	Prompt      PromptConfig      `yaml:"prompt"`
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/pdfrag/config.yaml.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pdfrag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-ada-002"
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.Completion.BaseURL == "" {
		cfg.Completion.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Completion.APIKeyEnv == "" {
		cfg.Completion.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Completion.Model == "" {
		cfg.Completion.Model = "gpt-4"
	}
	if cfg.Completion.TimeoutSecs == 0 {
		cfg.Completion.TimeoutSecs = 120
	}
	if cfg.Completion.MaxTokens == 0 {
		cfg.Completion.MaxTokens = 600
	}
	if cfg.Completion.Temperature == nil {
		cfg.Completion.Temperature = floatPtr(0.1)
	}
	if cfg.Chunker.Encoding == "" {
		cfg.Chunker.Encoding = "cl100k_base"
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = 300
	}
	if cfg.Chunker.Overlap == nil {
		cfg.Chunker.Overlap = intPtr(30)
	}
	if cfg.Chunker.MaxTokens == 0 {
		cfg.Chunker.MaxTokens = 512
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "memory"
	}
	if cfg.VectorStore.Type == "pinecone" && cfg.VectorStore.Pinecone != nil {
		if cfg.VectorStore.Pinecone.APIKeyEnv == "" {
			cfg.VectorStore.Pinecone.APIKeyEnv = "PINECONE_API_KEY"
		}
		if cfg.VectorStore.Pinecone.TimeoutSecs == 0 {
			cfg.VectorStore.Pinecone.TimeoutSecs = 30
		}
	}
	if cfg.Ingest.SourceDir == "" {
		cfg.Ingest.SourceDir = "./pdfs"
	}
	if cfg.Ingest.CatalogPath == "" {
		cfg.Ingest.CatalogPath = "tags.yaml"
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 25
	}
	if cfg.Ingest.PaceMillis == nil {
		cfg.Ingest.PaceMillis = intPtr(500)
	}
	if cfg.Ingest.MaxRetries == 0 {
		cfg.Ingest.MaxRetries = 5
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.Budget == 0 {
		cfg.Retrieval.Budget = 3000
	}
	if cfg.Prompt.TemplatesPath == "" {
		cfg.Prompt.TemplatesPath = "prompt_templates.json"
	}
	if cfg.Prompt.DefaultTone == "" {
		cfg.Prompt.DefaultTone = "scriptural"
	}
	if cfg.Prompt.Strictness == "" {
		cfg.Prompt.Strictness = "plain"
	}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
