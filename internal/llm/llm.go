// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm holds the language model clients. Each client turns one
// composed prompt into generated text with a single HTTP call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/solaris/pkg/types"
)

// ErrMissingCredential is returned by New when a hosted provider has no API
// key. Callers treat it as "model not configured".
var ErrMissingCredential = errors.New("model credential not configured")

// Model generates text for a prompt. Implementations are safe for
// concurrent use.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// New builds the client for cfg.Provider. A nil client uses an http.Client
// with cfg.Timeout.
func New(cfg types.ModelConfig, credential string, client *http.Client) (Model, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	switch cfg.Provider {
	case types.ProviderGemini, "":
		if credential == "" {
			return nil, fmt.Errorf("gemini: %w", ErrMissingCredential)
		}
		return &GeminiModel{
			APIKey:      credential,
			Model:       valueOr(cfg.Name, "gemini-2.5-flash"),
			Temperature: cfg.Temperature,
			MaxTokens:   maxTokens,
			BaseURL:     valueOr(cfg.BaseURL, geminiBaseURL),
			Client:      client,
		}, nil
	case types.ProviderClaude:
		if credential == "" {
			return nil, fmt.Errorf("claude: %w", ErrMissingCredential)
		}
		return &ClaudeModel{
			APIKey:      credential,
			Model:       valueOr(cfg.Name, "claude-sonnet-4-5-20250929"),
			Temperature: cfg.Temperature,
			MaxTokens:   maxTokens,
			URL:         valueOr(cfg.BaseURL, claudeAPIURL),
			Client:      client,
		}, nil
	case types.ProviderOllama:
		return &OllamaModel{
			Model:       valueOr(cfg.Name, "llama3.1"),
			Temperature: cfg.Temperature,
			BaseURL:     valueOr(cfg.BaseURL, ollamaBaseURL),
			Client:      client,
		}, nil
	default:
		return nil, fmt.Errorf("unknown model provider %q: use gemini, claude, or ollama", cfg.Provider)
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
