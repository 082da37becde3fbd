package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// DefaultEditInstruction is prepended to every edit-mode prompt. User text is
// appended as additional instructions, so an edit never dispatches with an
// empty prompt.
const DefaultEditInstruction = "Composite the requested subject into this image. " +
	"Match the exact art style, lighting, color palette, and aesthetic of the " +
	"original image so the result looks naturally integrated and stylistically cohesive."

// Config holds application configuration.
type Config struct {
	// DefaultProvider is used when a submission does not name one ("openai" or "gemini").
	DefaultProvider string `json:"default_provider,omitempty"`

	// EditInstruction overrides the fixed instruction template for edits.
	EditInstruction string `json:"edit_instruction,omitempty"`

	// OpenAIAPIKey authenticates the OpenAI provider. The OPENAI_API_KEY
	// environment variable takes precedence.
	OpenAIAPIKey string `json:"openai_api_key,omitempty"`

	// OpenAIBaseURL overrides the OpenAI endpoint (router/proxy setups).
	OpenAIBaseURL string `json:"openai_base_url,omitempty"`

	// GeminiAPIKey authenticates the Gemini provider. The GEMINI_API_KEY
	// environment variable takes precedence.
	GeminiAPIKey string `json:"gemini_api_key,omitempty"`

	// RequestTimeoutSecs bounds a single provider call. 0 means the default.
	RequestTimeoutSecs int `json:"request_timeout_secs,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is
	// locked" errors). 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits idle database connections. 0 means default.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultProvider:    "gemini",
		EditInstruction:    DefaultEditInstruction,
		RequestTimeoutSecs: 120,
	}
}

// Load loads configuration from baseDir/config.json, applies defaults for
// unset fields, then environment overrides for API keys. Returns defaults if
// the file doesn't exist. The baseDir parameter allows tests to use
// t.TempDir() instead of ~/.brushup.
func Load(baseDir string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

// applyDefaults fills unset scalar fields from DefaultConfig.
func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = def.DefaultProvider
	}
	if cfg.EditInstruction == "" {
		cfg.EditInstruction = def.EditInstruction
	}
	if cfg.RequestTimeoutSecs <= 0 {
		cfg.RequestTimeoutSecs = def.RequestTimeoutSecs
	}
}

// applyEnv lets environment variables override file-provided credentials.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.GeminiAPIKey = v
	}
}
