package answers

import (
	"context"
	"log/slog"
	"os"

	"github.com/tippgeber/tippgeber/services/config"
)

// Provider is the uniform capability every generation backend implements.
// Adapters own their transport, auth and retry policy; callers only see a
// parsed, normalized list of answers or an error from the engine taxonomy.
type Provider interface {
	Generate(ctx context.Context, req GenerationRequest) ([]string, error)
}

// newProvider selects the adapter variant for a provider config entry.
// Unrecognized types fall back to the anthropic-style single-message
// adapter, matching the engine's historical default.
func newProvider(cfg config.ProviderConfig) Provider {
	switch cfg.Type {
	case "openai":
		return newOpenAIProvider(cfg)
	case "openrouter":
		return newOpenRouterProvider(cfg)
	case "openai_compat":
		return newCompatProvider(cfg)
	case "anthropic":
		return newAnthropicProvider(cfg)
	default:
		slog.Warn("unknown provider type, using anthropic adapter", "type", cfg.Type)
		return newAnthropicProvider(cfg)
	}
}

// resolveKey reads the provider credential from its configured environment
// variable. Required-and-absent fails before any network traffic happens.
func resolveKey(envVar string) (string, error) {
	key := os.Getenv(envVar)
	if key == "" {
		return "", credentialError(envVar)
	}
	return key, nil
}

// resolveOptionalKey is the openai_compat variant: local backends such as
// Ollama accept any bearer token, so a missing credential becomes a
// placeholder instead of an error.
func resolveOptionalKey(envVar string) string {
	if envVar == "" {
		return "no-key"
	}
	if key := os.Getenv(envVar); key != "" {
		return key
	}
	return "no-key"
}
