// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Load reads and validates the configuration at path. Unset pool tuning
// fields inherit the defaults, so older config files keep working when new
// knobs are introduced. A prompt_file reference is resolved relative to the
// config file and, when present, replaces the inline prompt.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	if cfg.Speech.Pool.DedupThreshold == 0 {
		cfg.Speech.Pool.DedupThreshold = 0.6
	}
	if cfg.Speech.Pool.MaxDedupFailures == 0 {
		cfg.Speech.Pool.MaxDedupFailures = 5
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", filepath.Base(path), err)
	}

	if cfg.Speech.PromptFile != "" {
		promptPath := filepath.Join(filepath.Dir(path), cfg.Speech.PromptFile)
		content, err := os.ReadFile(promptPath)
		if err != nil {
			// A broken prompt_file reference is survivable: the server can
			// still serve the existing pool, it just cannot generate well.
			slog.Warn("prompt_file not readable, using empty prompt",
				"prompt_file", cfg.Speech.PromptFile, "error", err)
		} else {
			cfg.Speech.Prompt = string(content)
		}
	}

	return cfg, nil
}

// WriteDefault creates a default config file at path, including parent
// directories. Used on first run.
func WriteDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadOrCreate loads the config at path, writing the default file first if
// none exists yet.
func LoadOrCreate(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("no config file found, creating default", "path", path)
		if err := WriteDefault(path); err != nil {
			return nil, err
		}
	}
	return Load(path)
}
