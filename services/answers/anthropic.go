package answers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tippgeber/tippgeber/services/config"
)

const (
	anthropicAPIVersion  = "2023-06-01"
	anthropicDefaultURL  = "https://api.anthropic.com/v1/messages"
	anthropicHTTPTimeout = 60 * time.Second
)

type anthropicRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	System    string             `json:"system,omitempty"`
	MaxTokens int                `json:"max_tokens"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// anthropicProvider speaks the Messages API directly over REST: a top-level
// system prompt plus a single user message.
type anthropicProvider struct {
	httpClient *http.Client
	cfg        config.ProviderConfig
	baseURL    string
}

func newAnthropicProvider(cfg config.ProviderConfig) *anthropicProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicDefaultURL
	}
	return &anthropicProvider{
		httpClient: &http.Client{Timeout: anthropicHTTPTimeout},
		cfg:        cfg,
		baseURL:    baseURL,
	}
}

func (p *anthropicProvider) Generate(ctx context.Context, req GenerationRequest) ([]string, error) {
	apiKey, err := resolveKey(p.cfg.APIKeyEnv)
	if err != nil {
		return nil, err
	}
	return generateWithRetry(ctx, "anthropic", func(ctx context.Context) ([]string, error) {
		raw, err := p.message(ctx, apiKey, req)
		if err != nil {
			return nil, err
		}
		return ParseResponse(raw)
	})
}

func (p *anthropicProvider) message(ctx context.Context, apiKey string, req GenerationRequest) (string, error) {
	payload := anthropicRequest{
		Model:     p.cfg.Model,
		System:    req.System,
		MaxTokens: maxOutputTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.User},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)
	httpReq.Header.Set("content-type", "application/json")

	slog.Debug("sending request to Anthropic", "model", p.cfg.Model)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic API returned status %d: %s", resp.StatusCode, respBody)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response JSON: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("anthropic API error: %s - %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	text := ""
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("received empty content from Anthropic")
	}
	return text, nil
}
