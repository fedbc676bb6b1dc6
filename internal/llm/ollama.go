// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/solaris/internal/httputil"
)

var ollamaBaseURL = "http://localhost:11434"

// OllamaModel calls a local Ollama server's chat endpoint without streaming.
type OllamaModel struct {
	Model       string
	Temperature float64
	BaseURL     string
	Client      *http.Client
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

func (o *OllamaModel) Generate(ctx context.Context, prompt string) (string, error) {
	req := ollamaChatRequest{
		Model:    o.Model,
		Messages: []ollamaMessage{{Role: "user", Content: prompt}},
		Options:  map[string]any{"temperature": o.Temperature},
	}

	var resp ollamaChatResponse
	url := strings.TrimRight(o.BaseURL, "/") + "/api/chat"
	if err := httputil.PostJSON(ctx, o.Client, "Ollama", url, nil, req, &resp); err != nil {
		return "", err
	}
	if resp.Message.Content == "" {
		return "", fmt.Errorf("Ollama returned empty content")
	}
	return resp.Message.Content, nil
}
