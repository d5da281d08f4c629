// Package llm contains the provider adapters that send a netlist to a remote
// model and decode the structured findings it returns.
package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/OpenTraceLab/OpenTraceCheck/pkg/analysis"
)

// HTTPClient is the subset of *http.Client the adapters need; it exists so
// tests can inject a fake transport.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

var _ HTTPClient = (*http.Client)(nil)

// Request carries one analysis request to a provider. The call is a single
// blocking round trip; there is no streaming and no retry here.
type Request struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int
}

// Result is what a provider returns: the validated findings plus the token
// usage the API reported.
type Result struct {
	Findings []analysis.Finding
	Usage    analysis.Usage
}

// Provider is implemented by each remote LLM vendor adapter.
type Provider interface {
	ID() string
	Name() string
	Analyze(ctx context.Context, req Request) (*Result, error)
}

// ProviderError wraps any failure from a provider adapter: transport errors,
// authentication rejections, and responses that do not match the findings
// schema.
type ProviderError struct {
	Provider string
	Op       string // "request", "auth", or "decode"
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// New returns the adapter for a provider ID. The set of IDs mirrors
// config.KnownProviders.
func New(id, apiKey string) (Provider, error) {
	return NewWithClient(id, apiKey, &http.Client{})
}

// NewWithClient is New with an injectable HTTP client.
func NewWithClient(id, apiKey string, client HTTPClient) (Provider, error) {
	switch id {
	case "openai":
		return NewOpenAIWithClient(apiKey, "", client), nil
	case "google":
		return NewGoogleWithClient(apiKey, "", client), nil
	case "anthropic":
		return NewAnthropicWithClient(apiKey, "", client), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", id)
	}
}

// usageFromCounts builds a Usage, computing the total when the API did not
// report one.
func usageFromCounts(input, output, total int) analysis.Usage {
	if total == 0 {
		total = input + output
	}
	return analysis.Usage{InputTokens: input, OutputTokens: output, TotalTokens: total}
}

// Registry holds constructed providers keyed by ID.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

func (r *Registry) Register(p Provider) {
	r.providers[p.ID()] = p
}

func (r *Registry) Get(id string) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

func (r *Registry) List() []Provider {
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	return out
}
