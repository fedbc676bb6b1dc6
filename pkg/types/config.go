// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// ModelProvider identifies a language model backend.
type ModelProvider string

const (
	ProviderGemini ModelProvider = "gemini"
	ProviderClaude ModelProvider = "claude"
	ProviderOllama ModelProvider = "ollama"
)

// EmbeddingProvider identifies an embedding backend. EmbeddingNone keeps the
// store on full-text ranking only.
type EmbeddingProvider string

const (
	EmbeddingNone   EmbeddingProvider = "none"
	EmbeddingOllama EmbeddingProvider = "ollama"
	EmbeddingGemini EmbeddingProvider = "gemini"
)

// SessionBackend selects where session state lives.
type SessionBackend string

const (
	SessionMemory SessionBackend = "memory"
	SessionRedis  SessionBackend = "redis"
)

// ModelConfig holds settings for the language model client.
type ModelConfig struct {
	// Provider selects the backend: gemini, claude, or ollama.
	Provider ModelProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Name is the model identifier (e.g. "gemini-2.5-flash").
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Temperature is the sampling temperature (default 0.3).
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// MaxTokens bounds the generated output (default 4096).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// Timeout is the HTTP timeout for one generation call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// EmbeddingConfig holds settings for the query and chunk embedder.
type EmbeddingConfig struct {
	Provider EmbeddingProvider `json:"provider" yaml:"provider" mapstructure:"provider"`
	Model    string            `json:"model,omitempty" yaml:"model,omitempty" mapstructure:"model"`
	BaseURL  string            `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
}

// AnswerConfig holds settings for open question answering.
type AnswerConfig struct {
	// TopK is the number of passages retrieved per question (default 10).
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`

	// Locale selects the prompt wording: en or sv.
	Locale string `json:"locale" yaml:"locale" mapstructure:"locale"`

	// RefusalPrefix overrides the locale's refusal opening. The prompt and
	// the citation gate always use the same value.
	RefusalPrefix string `json:"refusal_prefix,omitempty" yaml:"refusal_prefix,omitempty" mapstructure:"refusal_prefix"`

	// Instruction overrides the locale's task instruction for open Q&A.
	Instruction string `json:"instruction,omitempty" yaml:"instruction,omitempty" mapstructure:"instruction"`
}

// DraftConfig holds settings for draft generation.
type DraftConfig struct {
	// TopK is the number of passages retrieved per section (default 10).
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`

	// InterCallDelay is the minimum time between the two section calls
	// (default 2s).
	InterCallDelay time.Duration `json:"inter_call_delay" yaml:"inter_call_delay" mapstructure:"inter_call_delay"`

	// Title is the document title.
	Title string `json:"title" yaml:"title" mapstructure:"title"`

	// OutputDir is where the CLI writes rendered drafts.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
}

// SessionConfig holds settings for session storage.
type SessionConfig struct {
	Backend   SessionBackend `json:"backend" yaml:"backend" mapstructure:"backend"`
	TTL       time.Duration  `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
	RedisAddr string         `json:"redis_addr" yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisDB   int            `json:"redis_db" yaml:"redis_db" mapstructure:"redis_db"`

	// RedisPassword is read from the environment or secrets, never logged.
	RedisPassword string `json:"-" yaml:"-" mapstructure:"redis_password"`
}

// LogConfig holds settings for the process logger.
type LogConfig struct {
	File       string `json:"file" yaml:"file" mapstructure:"file"`
	Production bool   `json:"production" yaml:"production" mapstructure:"production"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// Config is resolved once at startup and injected into every constructor.
type Config struct {
	// StoreLocation is the SQLite index file, or a postgres:// DSN for the
	// pgvector store.
	StoreLocation string `json:"store_location" yaml:"store_location" mapstructure:"store_location"`

	// ModelCredential is the API key for the configured model provider.
	ModelCredential string `json:"-" yaml:"-" mapstructure:"model_credential"`

	// CorpusRoot is the directory holding the source documents.
	CorpusRoot string `json:"corpus_root" yaml:"corpus_root" mapstructure:"corpus_root"`

	Model     ModelConfig     `json:"model" yaml:"model" mapstructure:"model"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Answer    AnswerConfig    `json:"answer" yaml:"answer" mapstructure:"answer"`
	Draft     DraftConfig     `json:"draft" yaml:"draft" mapstructure:"draft"`
	Session   SessionConfig   `json:"session" yaml:"session" mapstructure:"session"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		StoreLocation: "index/solaris.db",
		CorpusRoot:    "corpus",
		Model: ModelConfig{
			Provider:    ProviderGemini,
			Name:        "gemini-2.5-flash",
			Temperature: 0.3,
			MaxTokens:   4096,
			Timeout:     2 * time.Minute,
		},
		Embedding: EmbeddingConfig{Provider: EmbeddingNone},
		Answer:    AnswerConfig{TopK: 10, Locale: "en"},
		Draft: DraftConfig{
			TopK:           10,
			InterCallDelay: 2 * time.Second,
			Title:          "CONSULTATION NOTICE - DRAFT",
			OutputDir:      "output/drafts",
		},
		Session: SessionConfig{
			Backend:   SessionMemory,
			TTL:       time.Hour,
			RedisAddr: "localhost:6379",
		},
		Log:    LogConfig{File: "logs/solaris.log"},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// UsesPostgres reports whether StoreLocation names a PostgreSQL database.
func (c Config) UsesPostgres() bool {
	return strings.HasPrefix(c.StoreLocation, "postgres://") ||
		strings.HasPrefix(c.StoreLocation, "postgresql://")
}
