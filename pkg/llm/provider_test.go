package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OpenTraceLab/OpenTraceCheck/pkg/analysis"
)

const sampleFindingsJSON = `{"findings":[
	{"id":"F1","level":"Fatal","description":"U1 VCC pin unconnected","recommendation":"Connect pin 8 to +3V3","reference":"U1"},
	{"id":"F2","level":"Minor","description":"No decoupling cap near U2","recommendation":"Add 100nF at pin 4","reference":"U2"}
]}`

func TestOpenAIAnalyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("Missing or wrong Authorization header")
		}
		var req openaiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.ResponseFormat == nil || req.ResponseFormat.Type != "json_schema" {
			t.Error("request did not ask for json_schema output")
		}
		if req.MaxTokens == 0 {
			t.Error("max_tokens not set for gpt-4o")
		}

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": sampleFindingsJSON}},
			},
			"usage": map[string]int{"prompt_tokens": 1200, "completion_tokens": 300, "total_tokens": 1500},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewOpenAIWithClient("test-key", server.URL, server.Client())
	result, err := p.Analyze(context.Background(), Request{
		Model: "gpt-4o-mini", System: "review", Prompt: "netlist", MaxTokens: 4096,
	})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(result.Findings) != 2 {
		t.Fatalf("got %d findings, want 2", len(result.Findings))
	}
	if result.Findings[0].Severity != analysis.SeverityFatal {
		t.Errorf("Severity = %q, want Fatal", result.Findings[0].Severity)
	}
	if result.Usage.TotalTokens != 1500 {
		t.Errorf("TotalTokens = %d, want 1500", result.Usage.TotalTokens)
	}
}

func TestOpenAIMaxCompletionTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.MaxTokens != 0 {
			t.Error("max_tokens set for gpt-5, want max_completion_tokens")
		}
		if req.MaxCompletionTokens != 4096 {
			t.Errorf("max_completion_tokens = %d, want 4096", req.MaxCompletionTokens)
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"findings":[]}`}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewOpenAIWithClient("test-key", server.URL, server.Client())
	if _, err := p.Analyze(context.Background(), Request{Model: "gpt-5", MaxTokens: 4096}); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
}

func TestOpenAIAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	p := NewOpenAIWithClient("wrong-key", server.URL, server.Client())
	_, err := p.Analyze(context.Background(), Request{Model: "gpt-4o-mini"})
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
	if perr.Op != "auth" {
		t.Errorf("Op = %q, want auth", perr.Op)
	}
}

func TestOpenAIMalformedFindings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"findings":[{"id":"","level":"Fatal","description":"x","recommendation":"y"}]}`}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewOpenAIWithClient("test-key", server.URL, server.Client())
	_, err := p.Analyze(context.Background(), Request{Model: "gpt-4o-mini"})
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
	if perr.Op != "decode" {
		t.Errorf("Op = %q, want decode", perr.Op)
	}
}

func TestGoogleAnalyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Error("API key missing from query string")
		}
		var req googleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.GenerationConfig == nil || req.GenerationConfig.ResponseMIMEType != "application/json" {
			t.Error("request did not ask for JSON output")
		}

		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": sampleFindingsJSON}}}},
			},
			"usageMetadata": map[string]int{"promptTokenCount": 900, "candidatesTokenCount": 200, "totalTokenCount": 1100},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewGoogleWithClient("test-key", server.URL, server.Client())
	result, err := p.Analyze(context.Background(), Request{Model: "gemini-2.5-flash", Prompt: "netlist"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(result.Findings) != 2 {
		t.Fatalf("got %d findings, want 2", len(result.Findings))
	}
	if result.Usage.InputTokens != 900 || result.Usage.OutputTokens != 200 {
		t.Errorf("Usage = %+v, want 900 in / 200 out", result.Usage)
	}
}

func TestAnthropicAnalyze(t *testing.T) {
	// Anthropic has no schema parameter, so the reply often arrives fenced.
	fenced := "```json\n" + sampleFindingsJSON + "\n```"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Error("Missing or wrong x-api-key header")
		}
		if r.Header.Get("anthropic-version") != anthropicVersion {
			t.Error("Missing anthropic-version header")
		}
		var req anthropicRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.MaxTokens == 0 {
			t.Error("max_tokens is mandatory but was zero")
		}

		resp := map[string]any{
			"content": []map[string]any{{"type": "text", "text": fenced}},
			"usage":   map[string]int{"input_tokens": 1000, "output_tokens": 250},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewAnthropicWithClient("test-key", server.URL, server.Client())
	result, err := p.Analyze(context.Background(), Request{Model: "claude-sonnet-4-5", Prompt: "netlist"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(result.Findings) != 2 {
		t.Fatalf("got %d findings, want 2", len(result.Findings))
	}
	if result.Usage.TotalTokens != 1250 {
		t.Errorf("TotalTokens = %d, want 1250", result.Usage.TotalTokens)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New("mistral", "key"); err == nil {
		t.Error("New() accepted an unknown provider")
	}
}

func TestDecodeFindingsBareArray(t *testing.T) {
	findings, err := decodeFindings(`[{"id":"F1","level":"Major","description":"d","recommendation":"r"}]`)
	if err != nil {
		t.Fatalf("decodeFindings() error = %v", err)
	}
	if len(findings) != 1 || findings[0].Severity != analysis.SeverityMajor {
		t.Errorf("findings = %+v", findings)
	}
}

func TestDecodeFindingsBadSeverity(t *testing.T) {
	_, err := decodeFindings(`{"findings":[{"id":"F1","level":"Critical","description":"d","recommendation":"r"}]}`)
	if err == nil {
		t.Error("decodeFindings() accepted an unknown severity")
	}
}
