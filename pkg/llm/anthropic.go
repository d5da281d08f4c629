package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
)

const (
	anthropicAPIURL  = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
)

// Anthropic calls the messages API. There is no schema parameter, so the
// system prompt describes the required JSON shape and decodeFindings enforces
// it on the way back.
type Anthropic struct {
	apiKey  string
	baseURL string
	client  HTTPClient
}

func NewAnthropic(apiKey string) *Anthropic {
	return NewAnthropicWithClient(apiKey, "", &http.Client{})
}

func NewAnthropicWithClient(apiKey, baseURLOverride string, client HTTPClient) *Anthropic {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	baseURL := baseURLOverride
	if baseURL == "" {
		baseURL = anthropicAPIURL
	}
	return &Anthropic{apiKey: apiKey, baseURL: baseURL, client: client}
}

func (a *Anthropic) ID() string   { return "anthropic" }
func (a *Anthropic) Name() string { return "Anthropic" }

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *Anthropic) Analyze(ctx context.Context, req Request) (*Result, error) {
	if a.apiKey == "" {
		return nil, &ProviderError{Provider: a.ID(), Op: "auth", Err: fmt.Errorf("no API key configured")}
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		// max_tokens is mandatory on this API.
		maxTokens = 8192
	}
	body := anthropicRequest{
		Model:     req.Model,
		MaxTokens: maxTokens,
		System:    req.System,
		Messages: []anthropicMessage{
			{Role: "user", Content: req.Prompt},
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, &ProviderError{Provider: a.ID(), Op: "request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewReader(data))
	if err != nil {
		return nil, &ProviderError{Provider: a.ID(), Op: "request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: a.ID(), Op: "request", Err: err}
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: a.ID(), Op: "request", Err: err}
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &ProviderError{Provider: a.ID(), Op: "auth", Err: fmt.Errorf("status %d: %s", resp.StatusCode, respData)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: a.ID(), Op: "request", Err: fmt.Errorf("status %d: %s", resp.StatusCode, respData)}
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respData, &parsed); err != nil {
		return nil, &ProviderError{Provider: a.ID(), Op: "decode", Err: err}
	}
	if parsed.Error != nil {
		return nil, &ProviderError{Provider: a.ID(), Op: "request", Err: fmt.Errorf("%s: %s", parsed.Error.Type, parsed.Error.Message)}
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, &ProviderError{Provider: a.ID(), Op: "decode", Err: fmt.Errorf("response has no text content")}
	}

	findings, err := decodeFindings(text)
	if err != nil {
		return nil, &ProviderError{Provider: a.ID(), Op: "decode", Err: err}
	}

	return &Result{
		Findings: findings,
		Usage:    usageFromCounts(parsed.Usage.InputTokens, parsed.Usage.OutputTokens, 0),
	}, nil
}
