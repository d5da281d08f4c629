package config

import (
	"fmt"
	"strings"
)

// KnownProviders is the fixed set of provider prefixes a model identifier may
// use. An unknown prefix is rejected at selection time, not at run time.
var KnownProviders = []string{"openai", "google", "anthropic"}

// ModelRef is a parsed "provider/model" identifier.
type ModelRef struct {
	Provider string
	Model    string
}

func (m ModelRef) String() string { return m.Provider + "/" + m.Model }

// ParseModelRef splits and validates a "provider/model" identifier. The
// provider must be in KnownProviders and the model part must be non-empty.
func ParseModelRef(s string) (ModelRef, error) {
	provider, model, ok := strings.Cut(s, "/")
	if !ok || model == "" {
		return ModelRef{}, &Error{Msg: fmt.Sprintf("model %q is not of the form provider/model", s)}
	}
	for _, known := range KnownProviders {
		if provider == known {
			return ModelRef{Provider: provider, Model: model}, nil
		}
	}
	return ModelRef{}, &Error{Msg: fmt.Sprintf("unknown provider %q in model %q", provider, s)}
}

// Model describes one selectable model in the catalog.
type Model struct {
	Ref           ModelRef
	Name          string
	ContextTokens int
}

// AvailableModels is the catalog offered in the configuration dialog and the
// --all-models batch mode.
var AvailableModels = []Model{
	{Ref: ModelRef{"openai", "gpt-4o-mini"}, Name: "GPT-4o Mini", ContextTokens: 128000},
	{Ref: ModelRef{"openai", "gpt-4o"}, Name: "GPT-4o", ContextTokens: 128000},
	{Ref: ModelRef{"openai", "gpt-5"}, Name: "GPT-5", ContextTokens: 400000},
	{Ref: ModelRef{"google", "gemini-2.5-flash-lite"}, Name: "Gemini 2.5 Flash Lite", ContextTokens: 1000000},
	{Ref: ModelRef{"google", "gemini-2.5-flash"}, Name: "Gemini 2.5 Flash", ContextTokens: 1000000},
	{Ref: ModelRef{"anthropic", "claude-sonnet-4-5"}, Name: "Claude Sonnet 4.5", ContextTokens: 200000},
}

// LookupModel finds a catalog entry by its "provider/model" identifier.
func LookupModel(id string) (Model, bool) {
	for _, m := range AvailableModels {
		if m.Ref.String() == id {
			return m, true
		}
	}
	return Model{}, false
}

// ModelsWithKeys returns the catalog entries whose provider has an API key in
// the configuration.
func (c *Config) ModelsWithKeys() []Model {
	out := make([]Model, 0, len(AvailableModels))
	for _, m := range AvailableModels {
		if c.ProviderAPIKeys[m.Ref.Provider] != "" {
			out = append(out, m)
		}
	}
	return out
}
