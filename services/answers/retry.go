package answers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
)

// Retry policy shared by all provider adapters: three attempts total,
// exponential backoff starting at two seconds and capped at ten.
const (
	retryAttempts       = 3
	retryInitialBackoff = 2 * time.Second
	retryMaxBackoff     = 10 * time.Second
)

// generateWithRetry runs one provider attempt function under the shared
// retry policy and wraps the final failure as a ProviderError. Transport
// hiccups and unparseable replies are both retried (models are
// nondeterministic, the next reply may be clean); a missing credential is
// permanent because waiting cannot conjure a key.
func generateWithRetry(ctx context.Context, name string, attempt func(ctx context.Context) ([]string, error)) ([]string, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = retryInitialBackoff
	expo.MaxInterval = retryMaxBackoff
	expo.MaxElapsedTime = 0

	var result []string
	op := func() error {
		out, err := attempt(ctx)
		if err != nil {
			if errors.Is(err, ErrCredential) {
				return backoff.Permanent(err)
			}
			slog.Warn("provider attempt failed", "provider", name, "error", err)
			return err
		}
		result = out
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(expo, retryAttempts-1), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		if errors.Is(err, ErrCredential) || errors.Is(err, ErrParse) {
			return nil, err
		}
		return nil, providerError(name, err)
	}
	return result, nil
}
