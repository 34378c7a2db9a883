package answers

import (
	"context"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tippgeber/tippgeber/services/config"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// chatCompletion runs one system+user chat completion against any
// OpenAI-compatible backend and returns the raw reply text.
func chatCompletion(ctx context.Context, client *openai.Client, model string, req GenerationRequest) (string, error) {
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: maxOutputTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// openaiProvider targets the hosted OpenAI API.
type openaiProvider struct {
	cfg config.ProviderConfig
}

func newOpenAIProvider(cfg config.ProviderConfig) *openaiProvider {
	return &openaiProvider{cfg: cfg}
}

func (p *openaiProvider) Generate(ctx context.Context, req GenerationRequest) ([]string, error) {
	apiKey, err := resolveKey(p.cfg.APIKeyEnv)
	if err != nil {
		return nil, err
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if p.cfg.BaseURL != "" {
		clientCfg.BaseURL = p.cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientCfg)
	return generateWithRetry(ctx, "openai", func(ctx context.Context) ([]string, error) {
		raw, err := chatCompletion(ctx, client, p.cfg.Model, req)
		if err != nil {
			return nil, err
		}
		return ParseResponse(raw)
	})
}

// openrouterProvider targets the hosted OpenRouter gateway. OpenRouter asks
// callers to identify themselves via HTTP-Referer and X-Title headers.
type openrouterProvider struct {
	cfg config.ProviderConfig
}

func newOpenRouterProvider(cfg config.ProviderConfig) *openrouterProvider {
	return &openrouterProvider{cfg: cfg}
}

func (p *openrouterProvider) Generate(ctx context.Context, req GenerationRequest) ([]string, error) {
	apiKey, err := resolveKey(p.cfg.APIKeyEnv)
	if err != nil {
		return nil, err
	}
	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = openRouterBaseURL
	if p.cfg.BaseURL != "" {
		clientCfg.BaseURL = p.cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{
		Transport: &headerTransport{
			base:    http.DefaultTransport,
			referer: valueOr(p.cfg.SiteURL, "http://localhost:5000"),
			title:   valueOr(p.cfg.SiteName, "Tippgeber"),
		},
	}
	client := openai.NewClientWithConfig(clientCfg)
	return generateWithRetry(ctx, "openrouter", func(ctx context.Context) ([]string, error) {
		raw, err := chatCompletion(ctx, client, p.cfg.Model, req)
		if err != nil {
			return nil, err
		}
		return ParseResponse(raw)
	})
}

// compatProvider targets any OpenAI-compatible endpoint (Ollama, LM Studio,
// Mistral, DeepSeek, xAI, ...). Local backends need no real credential, so
// the key resolution substitutes a placeholder instead of failing.
type compatProvider struct {
	cfg config.ProviderConfig
}

func newCompatProvider(cfg config.ProviderConfig) *compatProvider {
	return &compatProvider{cfg: cfg}
}

func (p *compatProvider) Generate(ctx context.Context, req GenerationRequest) ([]string, error) {
	clientCfg := openai.DefaultConfig(resolveOptionalKey(p.cfg.APIKeyEnv))
	clientCfg.BaseURL = p.cfg.BaseURL
	client := openai.NewClientWithConfig(clientCfg)
	return generateWithRetry(ctx, "openai_compat", func(ctx context.Context) ([]string, error) {
		raw, err := chatCompletion(ctx, client, p.cfg.Model, req)
		if err != nil {
			return nil, err
		}
		return ParseResponse(raw)
	})
}

// headerTransport injects OpenRouter's attribution headers into every
// request.
type headerTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("HTTP-Referer", t.referer)
	req.Header.Set("X-Title", t.title)
	return t.base.RoundTrip(req)
}

func valueOr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
