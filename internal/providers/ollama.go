package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docrag/internal/metrics"
	"docrag/internal/util"
)

const (
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultEmbedModel    = "nomic-embed-text"
	DefaultChatModel     = "llama3.1:8b-instruct-q4_K_M"
	DefaultTimeout       = 120 * time.Second
)

type OllamaConfig struct {
	BaseURL    string
	EmbedModel string
	ChatModel  string
	Timeout    time.Duration
}

type ollamaClient struct {
	baseURL string
	client  *http.Client
}

func newOllamaClient(cfg OllamaConfig) ollamaClient {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return ollamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// post sends payload as JSON and decodes a 2xx response into out. Any
// failure is a dependency error prefixed with "ollama <op> failed".
func (c ollamaClient) post(ctx context.Context, op, path string, payload, out any) error {
	start := time.Now()
	defer metrics.ObserveBackend("ollama", op, start)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode ollama %s request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build ollama %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return util.Dependency(op, err, "ollama %s request failed", op)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return util.Dependency(op, nil, "ollama %s failed: %d %s", op, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return util.Dependency(op, err, "decode ollama %s response", op)
	}
	return nil
}

// IsModelSet reports whether model names a real model.
func IsModelSet(model string) bool {
	m := strings.TrimSpace(model)
	return m != "" && m != PlaceholderModel
}

type OllamaEmbedder struct {
	ollamaClient
	model string
}

func NewOllamaEmbedder(cfg OllamaConfig) *OllamaEmbedder {
	return &OllamaEmbedder{ollamaClient: newOllamaClient(cfg), model: strings.TrimSpace(cfg.EmbedModel)}
}

func (o *OllamaEmbedder) Model() string { return o.model }

func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if !IsModelSet(o.model) {
		return nil, util.Validation("embed", "embedding model is not set")
	}
	var parsed struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	payload := map[string]any{"model": o.model, "input": text}
	if err := o.post(ctx, "embed", "/api/embed", payload, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Embeddings) == 0 || len(parsed.Embeddings[0]) == 0 {
		return nil, util.Dependency("embed", nil, "ollama embed returned no embeddings")
	}
	return parsed.Embeddings[0], nil
}

type OllamaChat struct {
	ollamaClient
	model string
}

func NewOllamaChat(cfg OllamaConfig) *OllamaChat {
	return &OllamaChat{ollamaClient: newOllamaClient(cfg), model: strings.TrimSpace(cfg.ChatModel)}
}

func (o *OllamaChat) Model() string { return o.model }

func (o *OllamaChat) Chat(ctx context.Context, messages []Message) (ChatResult, error) {
	if !IsModelSet(o.model) {
		return ChatResult{}, util.Validation("chat", "chat model is not set")
	}
	var parsed struct {
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
		Response        string `json:"response"`
		PromptEvalCount int    `json:"prompt_eval_count"`
		EvalCount       int    `json:"eval_count"`
	}
	payload := map[string]any{"model": o.model, "messages": messages, "stream": false}
	if err := o.post(ctx, "chat", "/api/chat", payload, &parsed); err != nil {
		return ChatResult{}, err
	}

	res := ChatResult{PromptTokens: parsed.PromptEvalCount, CompletionTokens: parsed.EvalCount}
	switch {
	case parsed.Message != nil && parsed.Message.Content != "":
		res.Text = parsed.Message.Content
	case parsed.Response != "":
		res.Text = parsed.Response
	default:
		return ChatResult{}, util.Dependency("chat", nil, "ollama chat returned no content")
	}
	return res, nil
}
