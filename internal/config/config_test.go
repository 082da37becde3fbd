package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DefaultProvider != "gemini" {
		t.Errorf("DefaultProvider = %s, want gemini", cfg.DefaultProvider)
	}
	if cfg.EditInstruction != DefaultEditInstruction {
		t.Errorf("EditInstruction = %q, want default template", cfg.EditInstruction)
	}
	if cfg.RequestTimeoutSecs != 120 {
		t.Errorf("RequestTimeoutSecs = %d, want 120", cfg.RequestTimeoutSecs)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := map[string]any{
		"default_provider":     "openai",
		"request_timeout_secs": 45,
		"disabled_tools":       []string{"history_clear"},
	}
	data, _ := json.Marshal(content)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DefaultProvider != "openai" {
		t.Errorf("DefaultProvider = %s, want openai", cfg.DefaultProvider)
	}
	if cfg.RequestTimeoutSecs != 45 {
		t.Errorf("RequestTimeoutSecs = %d, want 45", cfg.RequestTimeoutSecs)
	}
	if len(cfg.DisabledTools) != 1 || cfg.DisabledTools[0] != "history_clear" {
		t.Errorf("DisabledTools = %v", cfg.DisabledTools)
	}
	// Unset fields still get defaults.
	if cfg.EditInstruction != DefaultEditInstruction {
		t.Errorf("EditInstruction = %q, want default template", cfg.EditInstruction)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Error("Load() expected error for invalid JSON")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := map[string]any{
		"openai_api_key": "file-key",
		"gemini_api_key": "file-key",
	}
	data, _ := json.Marshal(content)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:9999/v1")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.OpenAIAPIKey != "env-key" {
		t.Errorf("OpenAIAPIKey = %s, want env-key", cfg.OpenAIAPIKey)
	}
	// Empty env vars do not clobber file values.
	if cfg.GeminiAPIKey != "file-key" {
		t.Errorf("GeminiAPIKey = %s, want file-key", cfg.GeminiAPIKey)
	}
	if cfg.OpenAIBaseURL != "http://localhost:9999/v1" {
		t.Errorf("OpenAIBaseURL = %s", cfg.OpenAIBaseURL)
	}
}
