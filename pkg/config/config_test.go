package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for a missing file", err)
	}
	if cfg.SelectedModel != DefaultModel {
		t.Errorf("SelectedModel = %q, want %q", cfg.SelectedModel, DefaultModel)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kicad_llm_config.json")

	cfg := Default()
	cfg.SelectedModel = "anthropic/claude-sonnet-4-5"
	cfg.SetAPIKey("anthropic", "sk-test")

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if cfg.LastUpdated == "" {
		t.Error("Save() did not stamp LastUpdated")
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.SelectedModel != cfg.SelectedModel {
		t.Errorf("SelectedModel = %q, want %q", got.SelectedModel, cfg.SelectedModel)
	}
	if got.ProviderAPIKeys["anthropic"] != "sk-test" {
		t.Errorf("ProviderAPIKeys = %v", got.ProviderAPIKeys)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".kicad", "kicad_llm_config.json")
	if err := Save(path, Default()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err == nil {
		t.Error("Load() returned nil error for malformed JSON")
	}
	if cfg == nil || cfg.SelectedModel != DefaultModel {
		t.Errorf("malformed file must still yield defaults, got %+v", cfg)
	}
}

func TestAPIKeyFor(t *testing.T) {
	cfg := Default()
	cfg.SetAPIKey("openai", "sk-openai")

	if got := cfg.APIKeyFor("openai/gpt-4o"); got != "sk-openai" {
		t.Errorf("APIKeyFor(openai/gpt-4o) = %q", got)
	}
	if got := cfg.APIKeyFor("google/gemini-2.5-flash"); got != "" {
		t.Errorf("APIKeyFor(google/...) = %q, want empty", got)
	}
}

func TestParseModelRef(t *testing.T) {
	tests := []struct {
		in      string
		want    ModelRef
		wantErr bool
	}{
		{"openai/gpt-4o-mini", ModelRef{"openai", "gpt-4o-mini"}, false},
		{"anthropic/claude-sonnet-4-5", ModelRef{"anthropic", "claude-sonnet-4-5"}, false},
		{"gpt-4o-mini", ModelRef{}, true},
		{"openai/", ModelRef{}, true},
		{"mistral/large", ModelRef{}, true},
		{"", ModelRef{}, true},
	}

	for _, tt := range tests {
		got, err := ParseModelRef(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseModelRef(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseModelRef(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestModelsWithKeys(t *testing.T) {
	cfg := Default()
	cfg.SetAPIKey("google", "key")

	models := cfg.ModelsWithKeys()
	if len(models) == 0 {
		t.Fatal("no models returned for a configured provider")
	}
	for _, m := range models {
		if m.Ref.Provider != "google" {
			t.Errorf("unexpected provider %q", m.Ref.Provider)
		}
	}
}
