package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL   = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultAPIKeyEnv = "GEMINI_API_KEY"
)

var (
	ErrInvalidTemperature = errors.New("temperature must be within [0, 1]")
	ErrInvalidTopK        = errors.New("retrieval top_k must be positive")
	ErrInvalidWindow      = errors.New("conversation history_window must be positive")
	ErrUnknownEmbedder    = errors.New("unknown embedder type")
	ErrUnknownPolicy      = errors.New("unknown embedding on_failure policy")
	ErrInvalidDimension   = errors.New("embedding dimension must not be negative")
	ErrDimensionRequired  = errors.New("openai embedding needs a positive dimension")
)

// OpenAIConfig holds connection details for an OpenAI-compatible API.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Timeout converts TimeoutSecs; zero means no client timeout.
func (c OpenAIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// SourceConfig locates the document file.
type SourceConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig selects and configures the text embedder implementation.
type EmbeddingConfig struct {
	Type      string       `yaml:"type"`
	Model     string       `yaml:"model"`
	Dimension int          `yaml:"dimension"`
	OnFailure string       `yaml:"on_failure"`
	OpenAI    OpenAIConfig `yaml:"openai"`
}

// GenerationConfig configures the answer generation service.
type GenerationConfig struct {
	Model           string       `yaml:"model"`
	Temperature     float32      `yaml:"temperature"`
	MaxOutputTokens int          `yaml:"max_output_tokens"`
	OpenAI          OpenAIConfig `yaml:"openai"`
}

type RetrievalConfig struct {
	TopK        int     `yaml:"top_k"`
	MaxDistance float64 `yaml:"max_distance"`
}

type ConversationConfig struct {
	HistoryWindow int `yaml:"history_window"`
}

type PersonaConfig struct {
	Name          string `yaml:"name"`
	Institution   string `yaml:"institution"`
	DeclinePhrase string `yaml:"decline_phrase"`
}

// SummaryConfig configures the corpus summary shown on startup.
type SummaryConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// LogConfig configures zap. An empty File logs to stderr.
type LogConfig struct {
	File        string `yaml:"file"`
	Development bool   `yaml:"development"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Source       SourceConfig       `yaml:"source"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	Generation   GenerationConfig   `yaml:"generation"`
	Retrieval    RetrievalConfig    `yaml:"retrieval"`
	Conversation ConversationConfig `yaml:"conversation"`
	Persona      PersonaConfig      `yaml:"persona"`
	Summary      SummaryConfig      `yaml:"summary"`
	Log          LogConfig          `yaml:"log"`
	HTTP         HTTPConfig         `yaml:"http"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/rani/config.yaml.
// If neither exists, it writes defaults to ~/.config/rani/config.yaml and returns them.
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

// Validate rejects settings the assistant cannot start with.
func (cfg *AppConfig) Validate() error {
	switch cfg.Embedding.Type {
	case "openai", "tfidf":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEmbedder, cfg.Embedding.Type)
	}

	switch cfg.Embedding.OnFailure {
	case "zero", "exclude":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPolicy, cfg.Embedding.OnFailure)
	}

	if cfg.Embedding.Dimension < 0 {
		return ErrInvalidDimension
	}
	// only TF-IDF learns its dimension from the corpus
	if cfg.Embedding.Type == "openai" && cfg.Embedding.Dimension == 0 {
		return ErrDimensionRequired
	}
	if t := cfg.Generation.Temperature; t < 0 || t > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidTemperature, t)
	}
	if cfg.Retrieval.TopK <= 0 {
		return ErrInvalidTopK
	}
	if cfg.Conversation.HistoryWindow <= 0 {
		return ErrInvalidWindow
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "rani", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Source: SourceConfig{Path: "sumber.txt"},
		Embedding: EmbeddingConfig{
			Type:      "openai",
			Model:     "gemini-embedding-exp-03-07",
			Dimension: 768,
			OnFailure: "zero",
			OpenAI: OpenAIConfig{
				BaseURL:   DefaultBaseURL,
				APIKeyEnv: DefaultAPIKeyEnv,
			},
		},
		Generation: GenerationConfig{
			Model:           "gemini-2.5-flash",
			Temperature:     0.9,
			MaxOutputTokens: 4096,
			OpenAI: OpenAIConfig{
				BaseURL:   DefaultBaseURL,
				APIKeyEnv: DefaultAPIKeyEnv,
			},
		},
		Retrieval:    RetrievalConfig{TopK: 3},
		Conversation: ConversationConfig{HistoryWindow: 5},
		Persona: PersonaConfig{
			Name:          "RANI",
			Institution:   "Pengadilan Agama Medan",
			DeclinePhrase: "Hmm, kayaknya kamu langsung datang aja deh ke Pengadilan Agama Medan.",
		},
		Summary: SummaryConfig{MaxSentences: 3},
		Log:     LogConfig{File: "rani.log", Development: true},
		HTTP:    HTTPConfig{Addr: ":8080"},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedding.Type == "" {
		cfg.Embedding.Type = "openai"
	}
	if cfg.Embedding.Type == "openai" && cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "gemini-embedding-exp-03-07"
	}
	if cfg.Embedding.OnFailure == "" {
		cfg.Embedding.OnFailure = "zero"
	}
	fillOpenAI(&cfg.Embedding.OpenAI)
	fillOpenAI(&cfg.Generation.OpenAI)
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "gemini-2.5-flash"
	}
	if cfg.Generation.MaxOutputTokens == 0 {
		cfg.Generation.MaxOutputTokens = 4096
	}
	if cfg.Summary.MaxSentences == 0 {
		cfg.Summary.MaxSentences = 3
	}
}

func fillOpenAI(c *OpenAIConfig) {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = DefaultAPIKeyEnv
	}
}
