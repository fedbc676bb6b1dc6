// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed turns text into unit-length vectors for similarity search.
package embed

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/solaris/internal/httputil"
	"github.com/pdiddy/solaris/pkg/types"
)

// Embedder maps text to a vector. Implementations return normalized
// vectors so cosine similarity reduces to a dot product.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

var (
	ollamaBaseURL = "http://localhost:11434"
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// New builds the embedder for cfg. It returns (nil, nil) for
// EmbeddingNone so callers fall back to full-text ranking.
func New(cfg types.EmbeddingConfig, credential string, client *http.Client) (Embedder, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	switch cfg.Provider {
	case types.EmbeddingNone, "":
		return nil, nil
	case types.EmbeddingOllama:
		return &Ollama{
			BaseURL: orDefault(cfg.BaseURL, ollamaBaseURL),
			Model:   orDefault(cfg.Model, "nomic-embed-text"),
			Client:  client,
		}, nil
	case types.EmbeddingGemini:
		if credential == "" {
			return nil, fmt.Errorf("gemini embeddings: API key not configured")
		}
		return &Gemini{
			APIKey:  credential,
			BaseURL: orDefault(cfg.BaseURL, geminiBaseURL),
			Model:   orDefault(cfg.Model, "text-embedding-004"),
			Client:  client,
		}, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q: use none, ollama, or gemini", cfg.Provider)
	}
}

// Ollama calls a local Ollama server's embeddings endpoint.
type Ollama struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp ollamaResponse
	url := strings.TrimRight(o.BaseURL, "/") + "/api/embeddings"
	if err := httputil.PostJSON(ctx, o.Client, "Ollama embeddings", url, nil,
		ollamaRequest{Model: o.Model, Prompt: text}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("Ollama embeddings returned an empty vector")
	}
	vec := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		vec[i] = float32(v)
	}
	return Normalize(vec), nil
}

// Gemini calls the Generative Language embedContent endpoint.
type Gemini struct {
	APIKey  string
	BaseURL string
	Model   string
	Client  *http.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiEmbedRequest struct {
	Model   string `json:"model"`
	Content struct {
		Parts []geminiPart `json:"parts"`
	} `json:"content"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	req := geminiEmbedRequest{Model: "models/" + g.Model}
	req.Content.Parts = []geminiPart{{Text: text}}

	var resp geminiEmbedResponse
	url := fmt.Sprintf("%s/models/%s:embedContent", strings.TrimRight(g.BaseURL, "/"), g.Model)
	if err := httputil.PostJSON(ctx, g.Client, "Gemini embeddings", url,
		map[string]string{"x-goog-api-key": g.APIKey}, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("Gemini embeddings returned an empty vector")
	}
	return Normalize(resp.Embedding.Values), nil
}

// Normalize scales vec to unit length. A zero vector is returned unchanged.
func Normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	mag := math.Sqrt(sum)
	if mag == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / mag)
	}
	return out
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
