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

const googleAPIURL = "https://generativelanguage.googleapis.com/v1beta/models"

// Google calls the generateContent API. The findings schema is passed through
// generationConfig.responseSchema so the reply is constrained JSON.
type Google struct {
	apiKey  string
	baseURL string
	client  HTTPClient
}

func NewGoogle(apiKey string) *Google {
	return NewGoogleWithClient(apiKey, "", &http.Client{})
}

func NewGoogleWithClient(apiKey, baseURLOverride string, client HTTPClient) *Google {
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	baseURL := baseURLOverride
	if baseURL == "" {
		baseURL = googleAPIURL
	}
	return &Google{apiKey: apiKey, baseURL: baseURL, client: client}
}

func (g *Google) ID() string   { return "google" }
func (g *Google) Name() string { return "Google" }

type googleRequest struct {
	Contents          []googleContent  `json:"contents"`
	SystemInstruction *googleContent   `json:"systemInstruction,omitempty"`
	GenerationConfig  *googleGenConfig `json:"generationConfig,omitempty"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text string `json:"text"`
}

type googleGenConfig struct {
	MaxOutputTokens  int            `json:"maxOutputTokens,omitempty"`
	ResponseMIMEType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type googleResponse struct {
	Candidates []struct {
		Content struct {
			Parts []googlePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (g *Google) Analyze(ctx context.Context, req Request) (*Result, error) {
	if g.apiKey == "" {
		return nil, &ProviderError{Provider: g.ID(), Op: "auth", Err: fmt.Errorf("no API key configured")}
	}

	body := googleRequest{
		Contents: []googleContent{
			{Role: "user", Parts: []googlePart{{Text: req.Prompt}}},
		},
		SystemInstruction: &googleContent{Parts: []googlePart{{Text: req.System}}},
		GenerationConfig: &googleGenConfig{
			MaxOutputTokens:  req.MaxTokens,
			ResponseMIMEType: "application/json",
			ResponseSchema:   googleSchema,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, &ProviderError{Provider: g.ID(), Op: "request", Err: err}
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.baseURL, req.Model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, &ProviderError{Provider: g.ID(), Op: "request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: g.ID(), Op: "request", Err: err}
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: g.ID(), Op: "request", Err: err}
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &ProviderError{Provider: g.ID(), Op: "auth", Err: fmt.Errorf("status %d: %s", resp.StatusCode, respData)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: g.ID(), Op: "request", Err: fmt.Errorf("status %d: %s", resp.StatusCode, respData)}
	}

	var parsed googleResponse
	if err := json.Unmarshal(respData, &parsed); err != nil {
		return nil, &ProviderError{Provider: g.ID(), Op: "decode", Err: err}
	}
	if parsed.Error != nil {
		return nil, &ProviderError{Provider: g.ID(), Op: "request", Err: fmt.Errorf("%s: %s", parsed.Error.Status, parsed.Error.Message)}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, &ProviderError{Provider: g.ID(), Op: "decode", Err: fmt.Errorf("response has no candidates")}
	}

	var text string
	for _, part := range parsed.Candidates[0].Content.Parts {
		text += part.Text
	}
	findings, err := decodeFindings(text)
	if err != nil {
		return nil, &ProviderError{Provider: g.ID(), Op: "decode", Err: err}
	}

	return &Result{
		Findings: findings,
		Usage: usageFromCounts(
			parsed.UsageMetadata.PromptTokenCount,
			parsed.UsageMetadata.CandidatesTokenCount,
			parsed.UsageMetadata.TotalTokenCount,
		),
	}, nil
}
