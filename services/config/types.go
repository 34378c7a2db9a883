// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads and validates the tippgeber.yaml configuration.
//
// The configuration is an explicit object handed to the engine's operations;
// there is no package-level singleton. Callers that need hot reload keep
// their own pointer and swap it when the Watcher fires.
package config

import "time"

// ProviderConfig identifies one generation backend.
type ProviderConfig struct {
	// Type selects the adapter variant: anthropic, openai, openrouter or
	// openai_compat. Unknown types fall back to anthropic.
	Type string `yaml:"type" validate:"omitempty,oneof=anthropic openai openrouter openai_compat"`

	// Model is the backend-specific model identifier.
	Model string `yaml:"model" validate:"required"`

	// APIKeyEnv names the environment variable holding the credential.
	// Empty is allowed for local no-auth backends (openai_compat only).
	APIKeyEnv string `yaml:"api_key_env"`

	// BaseURL is the transport endpoint for openai_compat backends
	// (Ollama, LM Studio, Mistral, DeepSeek, ...).
	BaseURL string `yaml:"base_url"`

	// SiteURL and SiteName fill OpenRouter's attribution headers.
	SiteURL  string `yaml:"site_url"`
	SiteName string `yaml:"site_name"`
}

// PoolConfig bounds the answer pool and its maintenance cycles.
type PoolConfig struct {
	MinSize           int `yaml:"min_size" validate:"min=1"`
	MaxSize           int `yaml:"max_size" validate:"gtfield=MinSize"`
	AnswersPerRequest int `yaml:"answers_per_request" validate:"min=1,ltefield=MaxSize"`

	// DedupThreshold is the Jaccard similarity above which two answers are
	// duplicates.
	DedupThreshold float64 `yaml:"dedup_threshold" validate:"gt=0,lte=1"`

	// MaxDedupFailures bounds consecutive zero-survivor batches before the
	// replenisher and rotator force-accept raw answers to stay live.
	MaxDedupFailures int `yaml:"max_dedup_failures" validate:"min=1"`
}

// SpeechConfig controls prompt content and delivery cadence.
type SpeechConfig struct {
	// PromptFile points at a text file next to the config; when set its
	// contents override Prompt at load time.
	PromptFile string `yaml:"prompt_file"`
	Prompt     string `yaml:"prompt"`

	// AutoRefreshSeconds is the SSE push interval.
	AutoRefreshSeconds int `yaml:"auto_refresh_seconds" validate:"min=5"`

	// GenerateOnStartup triggers a pool fill when the server boots.
	GenerateOnStartup bool `yaml:"generate_on_startup"`

	// AutoRotateHours enables timer-driven rotation; 0 disables it.
	AutoRotateHours int `yaml:"auto_rotate_hours" validate:"min=0"`

	Pool PoolConfig `yaml:"pool"`
}

// AIConfig selects the active provider and its optional fallback.
type AIConfig struct {
	Provider         string `yaml:"provider" validate:"required"`
	FallbackProvider string `yaml:"fallback_provider"`
}

// MascotConfig is presentation metadata for the public UI.
type MascotConfig struct {
	Name  string `yaml:"name"`
	Image string `yaml:"image"`
}

// Config is the root configuration object.
type Config struct {
	Mascot    MascotConfig              `yaml:"mascot"`
	Speech    SpeechConfig              `yaml:"speech"`
	AI        AIConfig                  `yaml:"ai"`
	Providers map[string]ProviderConfig `yaml:"providers" validate:"dive"`
}

// RotateInterval converts AutoRotateHours to a duration; zero means the
// rotation scheduler stays off.
func (c *Config) RotateInterval() time.Duration {
	return time.Duration(c.Speech.AutoRotateHours) * time.Hour
}

// RefreshInterval is the SSE push cadence.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Speech.AutoRefreshSeconds) * time.Second
}

// Default returns the configuration used when no file exists yet. The
// values mirror the documented defaults in tippgeber.yaml.
func Default() *Config {
	return &Config{
		Mascot: MascotConfig{
			Name:  "KI mit Bedacht",
			Image: "images/robot3.png",
		},
		Speech: SpeechConfig{
			AutoRefreshSeconds: 25,
			GenerateOnStartup:  true,
			AutoRotateHours:    0,
			Pool: PoolConfig{
				MinSize:           25,
				MaxSize:           100,
				AnswersPerRequest: 10,
				DedupThreshold:    0.6,
				MaxDedupFailures:  5,
			},
		},
		AI: AIConfig{
			Provider: "anthropic",
		},
		Providers: map[string]ProviderConfig{
			"anthropic": {
				Type:      "anthropic",
				Model:     "claude-3-5-haiku-latest",
				APIKeyEnv: "ANTHROPIC_API_KEY",
			},
		},
	}
}
