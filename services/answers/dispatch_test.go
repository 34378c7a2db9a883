package answers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tippgeber/tippgeber/services/config"
)

// missingKeyProvider is a declared provider whose credential is absent, so
// it fails instantly without touching the network or the retry waits.
func missingKeyProvider() config.ProviderConfig {
	return config.ProviderConfig{
		Type:      "openai",
		Model:     "gpt-4o-mini",
		APIKeyEnv: "TIPPGEBER_TEST_KEY_THAT_DOES_NOT_EXIST",
	}
}

func dispatchConfig(primary, fallback string, providers map[string]config.ProviderConfig) *config.Config {
	cfg := config.Default()
	cfg.AI.Provider = primary
	cfg.AI.FallbackProvider = fallback
	cfg.Providers = providers
	cfg.Speech.Prompt = "Du bist ein hilfsbereiter Assistent."
	return cfg
}

func TestGenerateAnswers_PrimaryNotDeclared(t *testing.T) {
	cfg := dispatchConfig("ghost", "", map[string]config.ProviderConfig{})

	_, err := GenerateAnswers(context.Background(), cfg, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "ghost")
}

func TestGenerateAnswers_PrimarySucceeds(t *testing.T) {
	srv := chatCompletionStub(t, `["Trinke Wasser.", "Mache Pausen."]`, nil)
	defer srv.Close()

	cfg := dispatchConfig("local", "", map[string]config.ProviderConfig{
		"local": {Type: "openai_compat", Model: "llama3.2", BaseURL: srv.URL + "/v1"},
	})

	got, err := GenerateAnswers(context.Background(), cfg, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Trinke Wasser.", "Mache Pausen."}, got)
}

func TestGenerateAnswers_NoFallbackConfigured(t *testing.T) {
	cfg := dispatchConfig("primary", "", map[string]config.ProviderConfig{
		"primary": missingKeyProvider(),
	})

	_, err := GenerateAnswers(context.Background(), cfg, 3)
	assert.ErrorIs(t, err, ErrCredential)
}

func TestGenerateAnswers_FallbackSameAsPrimary(t *testing.T) {
	// The fallback must be a different backend; retrying the same one
	// would just fail the same way.
	cfg := dispatchConfig("primary", "primary", map[string]config.ProviderConfig{
		"primary": missingKeyProvider(),
	})

	_, err := GenerateAnswers(context.Background(), cfg, 3)
	assert.ErrorIs(t, err, ErrCredential)
}

func TestGenerateAnswers_FallbackNotDeclared(t *testing.T) {
	cfg := dispatchConfig("primary", "ghost", map[string]config.ProviderConfig{
		"primary": missingKeyProvider(),
	})

	_, err := GenerateAnswers(context.Background(), cfg, 3)
	assert.ErrorIs(t, err, ErrCredential)
}

func TestGenerateAnswers_FallbackRescues(t *testing.T) {
	srv := chatCompletionStub(t, `["Der Ersatz antwortet."]`, nil)
	defer srv.Close()

	cfg := dispatchConfig("primary", "local", map[string]config.ProviderConfig{
		"primary": missingKeyProvider(),
		"local":   {Type: "openai_compat", Model: "llama3.2", BaseURL: srv.URL + "/v1"},
	})

	got, err := GenerateAnswers(context.Background(), cfg, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Der Ersatz antwortet."}, got)
}

func TestGenerateAnswers_FallbackAlsoFails(t *testing.T) {
	cfg := dispatchConfig("primary", "secondary", map[string]config.ProviderConfig{
		"primary":   missingKeyProvider(),
		"secondary": missingKeyProvider(),
	})

	_, err := GenerateAnswers(context.Background(), cfg, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCredential)
	assert.Contains(t, err.Error(), "secondary")
	assert.Contains(t, err.Error(), "primary")
}
