package answers

import (
	"errors"
	"fmt"
)

// Error taxonomy for the generation engine. Callers branch on these with
// errors.Is; the dispatcher treats credential, provider and parse failures
// the same way (try the fallback provider once), while configuration errors
// are fatal because the fallback cannot be resolved either.
var (
	// ErrCredential marks a required API key that is not present in the
	// environment. Surfaced before any network call is made.
	ErrCredential = errors.New("credential missing")

	// ErrProvider marks a transport or API failure that survived the retry
	// policy.
	ErrProvider = errors.New("provider request failed")

	// ErrParse marks a provider reply from which no JSON array could be
	// recovered.
	ErrParse = errors.New("unparseable provider response")

	// ErrConfig marks a provider name that is not declared in the
	// configuration.
	ErrConfig = errors.New("provider not configured")
)

// ParseError carries the offending raw text alongside ErrParse so operators
// can see what the model actually returned.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	raw := e.Raw
	if len(raw) > 200 {
		raw = raw[:200] + "…"
	}
	return fmt.Sprintf("%s: %q", e.Reason, raw)
}

func (e *ParseError) Unwrap() error { return ErrParse }

func credentialError(envVar string) error {
	return fmt.Errorf("%w: environment variable %q is not set", ErrCredential, envVar)
}

func providerError(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrProvider, name, err)
}
