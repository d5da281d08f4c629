// Package config persists the tool's settings: the selected model and the
// per-provider API keys. The file lives at ~/.kicad/kicad_llm_config.json so
// that the KiCad plugin and this tool share one configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultModel is used when no configuration exists yet.
const DefaultModel = "openai/gpt-4o-mini"

// Error reports a configuration problem: a malformed file or an unknown
// provider in a model identifier.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Msg, e.Err)
	}
	return "config: " + e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Config mirrors the on-disk JSON document.
type Config struct {
	SelectedModel   string            `json:"selected_model"`
	ProviderAPIKeys map[string]string `json:"provider_api_keys"`
	LastUpdated     string            `json:"last_updated,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		SelectedModel:   DefaultModel,
		ProviderAPIKeys: map[string]string{},
	}
}

// DefaultPath returns ~/.kicad/kicad_llm_config.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".kicad", "kicad_llm_config.json"), nil
}

// Load reads the configuration from path. A missing file yields the defaults
// with no error; a malformed file yields the defaults plus an *Error so the
// caller can warn without aborting.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), &Error{Msg: "read " + path, Err: err}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), &Error{Msg: "malformed " + path, Err: err}
	}
	if cfg.SelectedModel == "" {
		cfg.SelectedModel = DefaultModel
	}
	if cfg.ProviderAPIKeys == nil {
		cfg.ProviderAPIKeys = map[string]string{}
	}
	return &cfg, nil
}

// Save writes the configuration as indented JSON, creating the parent
// directory if needed and stamping LastUpdated.
func Save(path string, cfg *Config) error {
	cfg.LastUpdated = time.Now().Format(time.RFC3339)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// APIKeyFor returns the key stored for the provider implied by the model
// identifier ("openai/gpt-4o" looks up "openai"). Empty when not configured.
func (c *Config) APIKeyFor(model string) string {
	provider := model
	if i := strings.IndexByte(model, '/'); i >= 0 {
		provider = model[:i]
	}
	return c.ProviderAPIKeys[provider]
}

// SetAPIKey stores the key for a provider.
func (c *Config) SetAPIKey(provider, key string) {
	if c.ProviderAPIKeys == nil {
		c.ProviderAPIKeys = map[string]string{}
	}
	c.ProviderAPIKeys[provider] = key
}

// RemoveAPIKey deletes the key for a provider.
func (c *Config) RemoveAPIKey(provider string) {
	delete(c.ProviderAPIKeys, provider)
}

// ProvidersWithKeys lists the providers that have a key configured.
func (c *Config) ProvidersWithKeys() []string {
	out := make([]string, 0, len(c.ProviderAPIKeys))
	for p, k := range c.ProviderAPIKeys {
		if k != "" {
			out = append(out, p)
		}
	}
	return out
}
