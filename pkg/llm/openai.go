package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const openaiAPIURL = "https://api.openai.com/v1/chat/completions"

// OpenAI calls the chat completions API with a strict JSON schema response
// format so the findings come back machine-parseable.
type OpenAI struct {
	apiKey  string
	baseURL string
	client  HTTPClient
}

func NewOpenAI(apiKey string) *OpenAI {
	return NewOpenAIWithClient(apiKey, "", &http.Client{})
}

func NewOpenAIWithClient(apiKey, baseURLOverride string, client HTTPClient) *OpenAI {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	baseURL := baseURLOverride
	if baseURL == "" {
		baseURL = openaiAPIURL
	}
	return &OpenAI{apiKey: apiKey, baseURL: baseURL, client: client}
}

func (o *OpenAI) ID() string   { return "openai" }
func (o *OpenAI) Name() string { return "OpenAI" }

type openaiRequest struct {
	Model               string             `json:"model"`
	Messages            []openaiMessage    `json:"messages"`
	MaxTokens           int                `json:"max_tokens,omitempty"`
	MaxCompletionTokens int                `json:"max_completion_tokens,omitempty"`
	ResponseFormat      *openaiRespFormat  `json:"response_format,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRespFormat struct {
	Type       string            `json:"type"`
	JSONSchema *openaiJSONSchema `json:"json_schema,omitempty"`
}

type openaiJSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// usesCompletionTokens reports whether the model family rejects max_tokens in
// favor of max_completion_tokens.
func usesCompletionTokens(model string) bool {
	return strings.HasPrefix(model, "o1") ||
		strings.HasPrefix(model, "o3") ||
		strings.HasPrefix(model, "gpt-5")
}

func (o *OpenAI) Analyze(ctx context.Context, req Request) (*Result, error) {
	if o.apiKey == "" {
		return nil, &ProviderError{Provider: o.ID(), Op: "auth", Err: fmt.Errorf("no API key configured")}
	}

	body := openaiRequest{
		Model: req.Model,
		Messages: []openaiMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		ResponseFormat: &openaiRespFormat{
			Type: "json_schema",
			JSONSchema: &openaiJSONSchema{
				Name:   "schematic_findings",
				Strict: true,
				Schema: findingsSchema,
			},
		},
	}
	if usesCompletionTokens(req.Model) {
		body.MaxCompletionTokens = req.MaxTokens
	} else {
		body.MaxTokens = req.MaxTokens
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, &ProviderError{Provider: o.ID(), Op: "request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(data))
	if err != nil {
		return nil, &ProviderError{Provider: o.ID(), Op: "request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: o.ID(), Op: "request", Err: err}
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: o.ID(), Op: "request", Err: err}
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &ProviderError{Provider: o.ID(), Op: "auth", Err: fmt.Errorf("status %d: %s", resp.StatusCode, respData)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: o.ID(), Op: "request", Err: fmt.Errorf("status %d: %s", resp.StatusCode, respData)}
	}

	var parsed openaiResponse
	if err := json.Unmarshal(respData, &parsed); err != nil {
		return nil, &ProviderError{Provider: o.ID(), Op: "decode", Err: err}
	}
	if parsed.Error != nil {
		return nil, &ProviderError{Provider: o.ID(), Op: "request", Err: fmt.Errorf("%s: %s", parsed.Error.Type, parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ProviderError{Provider: o.ID(), Op: "decode", Err: fmt.Errorf("response has no choices")}
	}

	findings, err := decodeFindings(parsed.Choices[0].Message.Content)
	if err != nil {
		return nil, &ProviderError{Provider: o.ID(), Op: "decode", Err: err}
	}

	return &Result{
		Findings: findings,
		Usage: usageFromCounts(
			parsed.Usage.PromptTokens,
			parsed.Usage.CompletionTokens,
			parsed.Usage.TotalTokens,
		),
	}, nil
}
