package ui

import (
	"path/filepath"
	"testing"

	"github.com/OpenTraceLab/OpenTraceCheck/pkg/checker"
	"github.com/OpenTraceLab/OpenTraceCheck/pkg/config"
)

func TestSaveWritesLoadedConfigPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom", "config.json")

	a := &App{
		State:      NewState(),
		Checker:    &checker.Checker{Config: config.Default()},
		configPath: path,
	}
	v := newConfigView(a)

	a.State.SetSelectedModel("anthropic/claude-sonnet-4-5")
	v.keyEditors["openai"].SetText("sk-test")
	v.save()

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%s) error = %v", path, err)
	}
	if loaded.SelectedModel != "anthropic/claude-sonnet-4-5" {
		t.Errorf("SelectedModel = %q, want anthropic/claude-sonnet-4-5", loaded.SelectedModel)
	}
	if loaded.ProviderAPIKeys["openai"] != "sk-test" {
		t.Errorf("openai key = %q, want sk-test", loaded.ProviderAPIKeys["openai"])
	}
	if got := v.storePath(); got != path {
		t.Errorf("storePath() = %q, want %q", got, path)
	}
}

func TestSaveRemovesClearedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := config.Default()
	cfg.SetAPIKey("google", "old-key")

	a := &App{
		State:      NewState(),
		Checker:    &checker.Checker{Config: cfg},
		configPath: path,
	}
	v := newConfigView(a)

	v.keyEditors["google"].SetText("")
	v.save()

	loaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%s) error = %v", path, err)
	}
	if _, ok := loaded.ProviderAPIKeys["google"]; ok {
		t.Error("cleared google key survived the save")
	}
}
