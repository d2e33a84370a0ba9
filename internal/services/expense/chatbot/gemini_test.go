package chatbot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestNewGeminiClientDefaults(t *testing.T) {
	t.Parallel()

	client := NewGeminiClient(GeminiConfig{BaseURL: " https://example.test/ "})
	if client.cfg.HTTPClient == nil {
		t.Fatal("expected non-nil HTTP client")
	}
	if client.cfg.BaseURL != "https://example.test" {
		t.Fatalf("base_url = %q", client.cfg.BaseURL)
	}
	if client.cfg.Model != DefaultGeminiModel {
		t.Fatalf("model = %q, want %q", client.cfg.Model, DefaultGeminiModel)
	}
}

func TestGeminiGenerateSendsRequest(t *testing.T) {
	t.Parallel()

	var gotBody geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "secret" {
			t.Errorf("api key header = %q, want secret", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"You spent "},{"text":"a lot."}]}}]}`)
	}))
	t.Cleanup(server.Close)

	client := NewGeminiClient(GeminiConfig{BaseURL: server.URL, Model: "gemini-test", HTTPClient: server.Client()})
	text, err := client.Generate(context.Background(), "secret", "How much?")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "You spent a lot." {
		t.Fatalf("text = %q", text)
	}

	if len(gotBody.Contents) != 1 || gotBody.Contents[0].Parts[0].Text != "How much?" {
		t.Fatalf("contents = %+v", gotBody.Contents)
	}
	if gotBody.GenerationConfig != defaultGenerationConfig {
		t.Fatalf("generation config = %+v", gotBody.GenerationConfig)
	}
	if len(gotBody.SafetySettings) != 4 {
		t.Fatalf("safety settings = %d, want 4", len(gotBody.SafetySettings))
	}
	for _, setting := range gotBody.SafetySettings {
		if setting.Threshold != "BLOCK_MEDIUM_AND_ABOVE" {
			t.Fatalf("threshold for %s = %q", setting.Category, setting.Threshold)
		}
	}
}

func TestGeminiGenerateValidation(t *testing.T) {
	t.Parallel()

	client := NewGeminiClient(GeminiConfig{HTTPClient: &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			t.Fatalf("round trip should not execute for validation failure: %v", req.URL)
			return nil, nil
		}),
	}})
	if _, err := client.Generate(context.Background(), " ", "prompt"); err == nil {
		t.Fatal("expected missing key error")
	}
	if _, err := client.Generate(context.Background(), "key", " "); err == nil {
		t.Fatal("expected missing prompt error")
	}
}

func TestGeminiGenerateStatusError(t *testing.T) {
	t.Parallel()

	client := NewGeminiClient(GeminiConfig{HTTPClient: &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusBadRequest,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(`{"error":{"message":"API key not valid"}}`)),
			}, nil
		}),
	}})
	_, err := client.Generate(context.Background(), "bad-key", "prompt")
	if err == nil {
		t.Fatal("expected status error")
	}
	if !strings.Contains(err.Error(), "status 400") || !strings.Contains(err.Error(), "API key not valid") {
		t.Fatalf("error = %v", err)
	}
	if strings.Contains(err.Error(), "bad-key") {
		t.Fatalf("error leaks api key: %v", err)
	}
}

func TestGeminiGenerateBlockedPrompt(t *testing.T) {
	t.Parallel()

	client := NewGeminiClient(GeminiConfig{HTTPClient: &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(`{"promptFeedback":{"blockReason":"SAFETY"}}`)),
			}, nil
		}),
	}})
	_, err := client.Generate(context.Background(), "key", "prompt")
	if err == nil || !strings.Contains(err.Error(), "SAFETY") {
		t.Fatalf("error = %v, want blocked prompt", err)
	}
}

func TestGeminiGenerateNoCandidates(t *testing.T) {
	t.Parallel()

	client := NewGeminiClient(GeminiConfig{HTTPClient: &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     make(http.Header),
				Body:       io.NopCloser(strings.NewReader(`{"candidates":[]}`)),
			}, nil
		}),
	}})
	text, err := client.Generate(context.Background(), "key", "prompt")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "" {
		t.Fatalf("text = %q, want empty", text)
	}
}
