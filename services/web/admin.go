// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tippgeber/tippgeber/services/config"
)

// envVarPattern restricts which variable names the key editor may set.
var envVarPattern = regexp.MustCompile(`^[A-Z][A-Z_0-9]*$`)

func (s *Server) handleLogin(c *gin.Context) {
	var body struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body"})
		return
	}
	if !passwordMatches(body.Password, s.adminPassword()) {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "wrong password"})
		return
	}
	token := s.sessions.Issue()
	audit("login", "")
	c.JSON(http.StatusOK, gin.H{"status": "ok", "token": token})
}

func (s *Server) handleLogout(c *gin.Context) {
	if token := bearerToken(c); token != "" {
		s.sessions.Revoke(token)
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleAdminPool lists the full pool for the editor view.
func (s *Server) handleAdminPool(c *gin.Context) {
	answers := s.pool.Answers()
	status := s.pool.Status()
	c.JSON(http.StatusOK, gin.H{
		"answers":      answers,
		"count":        len(answers),
		"last_updated": status.LastUpdated,
	})
}

// handleAdminPoolDelete removes a single answer by index.
func (s *Server) handleAdminPoolDelete(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "index must be an integer"})
		return
	}
	total, err := s.pool.DeleteAt(index)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	audit("pool_delete", fmt.Sprintf("index=%d total=%d", index, total))
	c.JSON(http.StatusOK, gin.H{"status": "ok", "total": total})
}

// handleAdminGenerate appends one raw batch, trimming the pool to the
// newest max_size answers.
func (s *Server) handleAdminGenerate(c *gin.Context) {
	added, total, err := s.pool.AppendBatch(c.Request.Context(), s.Config())
	s.recordMaintenance("replenish", err)
	if err != nil {
		slog.Error("admin generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "generation failed"})
		return
	}
	audit("manual_generate", fmt.Sprintf("generated=%d total=%d", added, total))
	c.JSON(http.StatusOK, gin.H{"status": "ok", "generated": added, "total": total})
}

func (s *Server) handleAdminRotate(c *gin.Context) {
	result, err := s.pool.Rotate(c.Request.Context(), s.Config())
	s.recordMaintenance("rotate", err)
	if err != nil {
		slog.Error("admin rotation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "rotation failed"})
		return
	}
	audit("manual_rotate", fmt.Sprintf("removed=%d added=%d", result.Removed, result.Added))
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"removed": result.Removed,
		"added":   result.Added,
		"total":   result.Total,
	})
}

// handleAdminProvider switches the active provider and persists the choice
// into the YAML file without clobbering its comments.
func (s *Server) handleAdminProvider(c *gin.Context) {
	var body struct {
		Provider string `json:"provider"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body"})
		return
	}
	cfg := s.Config()
	if _, ok := cfg.Providers[body.Provider]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "unknown provider: " + body.Provider})
		return
	}

	updated := *cfg
	updated.AI.Provider = body.Provider
	s.setConfig(&updated)

	if err := config.PatchValue(s.configPath, "ai", "provider", body.Provider); err != nil {
		slog.Error("failed to persist provider change", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to persist change"})
		return
	}
	audit("provider_change", body.Provider)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "provider": body.Provider})
}

// handleAdminFallback sets or clears the fallback provider.
func (s *Server) handleAdminFallback(c *gin.Context) {
	var body struct {
		Provider string `json:"provider"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body"})
		return
	}
	cfg := s.Config()
	if body.Provider != "" {
		if _, ok := cfg.Providers[body.Provider]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "unknown provider: " + body.Provider})
			return
		}
	}

	updated := *cfg
	updated.AI.FallbackProvider = body.Provider
	s.setConfig(&updated)

	var value any
	if body.Provider != "" {
		value = body.Provider
	}
	if err := config.PatchValue(s.configPath, "ai", "fallback_provider", value); err != nil {
		slog.Error("failed to persist fallback change", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to persist change"})
		return
	}
	detail := body.Provider
	if detail == "" {
		detail = "(disabled)"
	}
	audit("fallback_change", detail)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "fallback_provider": body.Provider})
}

// handleAdminKeys sets a provider credential in the running process and
// persists it to the .env file so it survives restarts.
func (s *Server) handleAdminKeys(c *gin.Context) {
	var body struct {
		EnvVar string `json:"env_var"`
		Value  string `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body"})
		return
	}
	if body.EnvVar == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "env_var missing"})
		return
	}
	if !envVarPattern.MatchString(body.EnvVar) {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid variable name"})
		return
	}

	os.Setenv(body.EnvVar, body.Value)
	if err := persistEnvVar(s.envPath, body.EnvVar, body.Value); err != nil {
		slog.Error("failed to persist key", "env_var", body.EnvVar, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to persist key"})
		return
	}
	audit("key_update", body.EnvVar)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleAdminPromptGet returns the current system prompt text.
func (s *Server) handleAdminPromptGet(c *gin.Context) {
	cfg := s.Config()
	promptFile := cfg.Speech.PromptFile
	if promptFile == "" {
		promptFile = "prompt.txt"
	}
	path, err := s.promptPath(promptFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	text := cfg.Speech.Prompt
	if content, err := os.ReadFile(path); err == nil {
		text = string(content)
	}
	c.JSON(http.StatusOK, gin.H{"prompt": text})
}

// handleAdminPromptSet replaces the prompt file and the in-memory prompt.
func (s *Server) handleAdminPromptSet(c *gin.Context) {
	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body"})
		return
	}
	cfg := s.Config()
	promptFile := cfg.Speech.PromptFile
	if promptFile == "" {
		promptFile = "prompt.txt"
	}
	path, err := s.promptPath(promptFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if err := os.WriteFile(path, []byte(body.Prompt), 0o644); err != nil {
		slog.Error("failed to write prompt file", "path", path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to write prompt file"})
		return
	}

	updated := *cfg
	updated.Speech.Prompt = body.Prompt
	s.setConfig(&updated)
	audit("prompt_update", "")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// promptPath resolves a prompt file name next to the config file, rejecting
// path traversal out of the config directory.
func (s *Server) promptPath(name string) (string, error) {
	baseDir, err := filepath.Abs(filepath.Dir(s.configPath))
	if err != nil {
		return "", err
	}
	resolved, err := filepath.Abs(filepath.Join(baseDir, name))
	if err != nil {
		return "", err
	}
	if resolved != baseDir && !strings.HasPrefix(resolved, baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid prompt file path")
	}
	return resolved, nil
}

// handleAdminConfigGet exposes the editable display and pool settings.
func (s *Server) handleAdminConfigGet(c *gin.Context) {
	cfg := s.Config()
	c.JSON(http.StatusOK, gin.H{
		"auto_refresh_seconds": cfg.Speech.AutoRefreshSeconds,
		"auto_rotate_hours":    cfg.Speech.AutoRotateHours,
		"pool": gin.H{
			"min_size":            cfg.Speech.Pool.MinSize,
			"max_size":            cfg.Speech.Pool.MaxSize,
			"answers_per_request": cfg.Speech.Pool.AnswersPerRequest,
		},
	})
}

// handleAdminConfigSet validates and applies display and pool settings,
// persists them into the YAML file and reconfigures the rotation timer.
func (s *Server) handleAdminConfigSet(c *gin.Context) {
	cfg := s.Config()
	body := struct {
		AutoRefreshSeconds *int `json:"auto_refresh_seconds"`
		AutoRotateHours    *int `json:"auto_rotate_hours"`
		PoolMinSize        *int `json:"pool_min_size"`
		PoolMaxSize        *int `json:"pool_max_size"`
		PoolPerRequest     *int `json:"pool_answers_per_request"`
	}{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body"})
		return
	}

	next := *cfg
	if body.AutoRefreshSeconds != nil {
		next.Speech.AutoRefreshSeconds = *body.AutoRefreshSeconds
	}
	if body.AutoRotateHours != nil {
		next.Speech.AutoRotateHours = *body.AutoRotateHours
	}
	if body.PoolMinSize != nil {
		next.Speech.Pool.MinSize = *body.PoolMinSize
	}
	if body.PoolMaxSize != nil {
		next.Speech.Pool.MaxSize = *body.PoolMaxSize
	}
	if body.PoolPerRequest != nil {
		next.Speech.Pool.AnswersPerRequest = *body.PoolPerRequest
	}

	var errs []string
	if next.Speech.AutoRefreshSeconds < 5 {
		errs = append(errs, "refresh must be >= 5s.")
	}
	if next.Speech.AutoRotateHours < 0 {
		errs = append(errs, "rotation must be >= 0h.")
	}
	if next.Speech.Pool.MinSize < 1 {
		errs = append(errs, "pool min must be >= 1.")
	}
	if next.Speech.Pool.MaxSize <= next.Speech.Pool.MinSize {
		errs = append(errs, "pool max must be > min.")
	}
	if next.Speech.Pool.AnswersPerRequest < 1 || next.Speech.Pool.AnswersPerRequest > next.Speech.Pool.MaxSize {
		errs = append(errs, "per request must be >= 1 and <= max.")
	}
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": strings.Join(errs, " ")})
		return
	}

	s.setConfig(&next)

	patches := []struct {
		section string
		key     string
		value   any
	}{
		{"speech", "auto_refresh_seconds", next.Speech.AutoRefreshSeconds},
		{"speech", "auto_rotate_hours", next.Speech.AutoRotateHours},
		{"speech.pool", "min_size", next.Speech.Pool.MinSize},
		{"speech.pool", "max_size", next.Speech.Pool.MaxSize},
		{"speech.pool", "answers_per_request", next.Speech.Pool.AnswersPerRequest},
	}
	for _, p := range patches {
		if err := config.PatchValue(s.configPath, p.section, p.key, p.value); err != nil {
			slog.Error("failed to persist config change", "section", p.section, "key", p.key, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to persist config"})
			return
		}
	}

	if s.scheduler != nil {
		s.scheduler.Reconfigure(c.Request.Context(), next.RotateInterval())
	}

	audit("config_update", fmt.Sprintf("refresh=%ds rotate=%dh min=%d max=%d per_request=%d",
		next.Speech.AutoRefreshSeconds, next.Speech.AutoRotateHours,
		next.Speech.Pool.MinSize, next.Speech.Pool.MaxSize, next.Speech.Pool.AnswersPerRequest))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleAdminReload re-reads the config file from disk.
func (s *Server) handleAdminReload(c *gin.Context) {
	cfg, err := s.Reload(c.Request.Context())
	if err != nil {
		slog.Error("config reload failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "reload failed"})
		return
	}
	audit("config_reload", "provider="+cfg.AI.Provider)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "provider": cfg.AI.Provider})
}

// handleAdminLogs returns the recent log entries from the ring buffer.
func (s *Server) handleAdminLogs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"logs": s.ring.Entries()})
}

// persistEnvVar updates or appends VAR="value" in the .env file. The value
// is quoted with backslash and quote escaping; newlines are stripped so a
// pasted key cannot break the file format.
func persistEnvVar(envPath, envVar, value string) error {
	safe := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", "", "\r", "").Replace(value)
	line := fmt.Sprintf(`%s="%s"`, envVar, safe)

	var lines []string
	if content, err := os.ReadFile(envPath); err == nil {
		if trimmed := strings.TrimRight(string(content), "\n"); trimmed != "" {
			lines = strings.Split(trimmed, "\n")
		}
	}
	updated := false
	for i, l := range lines {
		if strings.HasPrefix(l, envVar+"=") {
			lines[i] = line
			updated = true
			break
		}
	}
	if !updated {
		lines = append(lines, line)
	}
	return os.WriteFile(envPath, []byte(strings.Join(lines, "\n")+"\n"), 0o600)
}
