package answers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tippgeber/tippgeber/services/config"
)

// GenerateAnswers produces count answers through the configured primary
// provider. When the primary fails for any reason, a distinct, declared
// fallback provider gets exactly one shot; there is no deeper fallback
// chain. An undeclared primary is a configuration error and skips the
// fallback entirely, since a config broken for the primary cannot be
// trusted for the fallback either.
func GenerateAnswers(ctx context.Context, cfg *config.Config, count int) ([]string, error) {
	primaryName := cfg.AI.Provider
	fallbackName := cfg.AI.FallbackProvider

	primaryCfg, ok := cfg.Providers[primaryName]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not declared under providers", ErrConfig, primaryName)
	}

	req := BuildRequest(cfg.Speech.Prompt, count)

	result, primaryErr := newProvider(primaryCfg).Generate(ctx, req)
	if primaryErr == nil {
		return result, nil
	}

	fallbackCfg, declared := cfg.Providers[fallbackName]
	if fallbackName == "" || fallbackName == primaryName || !declared {
		return nil, primaryErr
	}

	slog.Warn("primary provider failed, switching to fallback",
		"provider", primaryName,
		"fallback", fallbackName,
		"error", primaryErr)

	result, fallbackErr := newProvider(fallbackCfg).Generate(ctx, req)
	if fallbackErr != nil {
		return nil, fmt.Errorf("fallback %q failed after primary %q: %w", fallbackName, primaryName, fallbackErr)
	}
	return result, nil
}
