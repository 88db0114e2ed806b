package llm_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"streamwatch/internal/services/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...llm.Option) *llm.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := llm.Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test-model",
	}
	opts = append(opts, llm.WithSleeper(func(time.Duration) {}))
	return llm.NewClient(cfg, opts...)
}

func TestClassifyCandidateParsesPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"risk_score\":0.85,\"label\":\"PIRACY\",\"reason\":\"free live sports restream\"}"}}]}`))
	})

	classification, err := client.ClassifyCandidate(context.Background(), "youtube", "https://youtube.com/watch?v=abc", "FREE LIVE Cricket Final HD")
	if err != nil {
		t.Fatalf("ClassifyCandidate failed: %v", err)
	}
	if classification.RiskScore != 0.85 {
		t.Fatalf("expected risk score 0.85, got %f", classification.RiskScore)
	}
	if classification.Label != "piracy" {
		t.Fatalf("expected normalized label, got %q", classification.Label)
	}
	if classification.Reason == "" {
		t.Fatal("expected reason to be populated")
	}
}

func TestClassifyCandidateClampsScore(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"risk_score\":1.7,\"label\":\"piracy\",\"reason\":\"x\"}"}}]}`))
	})

	classification, err := client.ClassifyCandidate(context.Background(), "youtube", "https://example.com", "")
	if err != nil {
		t.Fatalf("ClassifyCandidate failed: %v", err)
	}
	if classification.RiskScore != 1.0 {
		t.Fatalf("expected clamped score 1.0, got %f", classification.RiskScore)
	}
}

func TestClassifyCandidateRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream unavailable", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"risk_score\":0.2,\"label\":\"benign\",\"reason\":\"x\"}"}}]}`))
	}, llm.WithRetryMaxAttempts(3), llm.WithRetryBackoff(time.Millisecond, 5*time.Millisecond))

	classification, err := client.ClassifyCandidate(context.Background(), "youtube", "https://example.com", "cat videos")
	if err != nil {
		t.Fatalf("ClassifyCandidate failed: %v", err)
	}
	if classification.Label != "benign" {
		t.Fatalf("unexpected classification: %#v", classification)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 requests, got %d", calls.Load())
	}
}

func TestClassifyCandidateRequiresAPIKey(t *testing.T) {
	client := llm.NewClient(llm.Config{BaseURL: "http://127.0.0.1:0", Model: "m"})
	if _, err := client.ClassifyCandidate(context.Background(), "youtube", "https://example.com", "title"); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestDecodeLLMJSONStripsCodeFences(t *testing.T) {
	var payload struct {
		RiskScore float64 `json:"risk_score"`
	}
	content := "```json\n{\"risk_score\": 0.5}\n```"
	if err := llm.DecodeLLMJSON(content, &payload); err != nil {
		t.Fatalf("DecodeLLMJSON failed: %v", err)
	}
	if payload.RiskScore != 0.5 {
		t.Fatalf("unexpected payload: %#v", payload)
	}

	prose := "Here is the result: {\"risk_score\": 0.25} as requested."
	if err := llm.DecodeLLMJSON(prose, &payload); err != nil {
		t.Fatalf("DecodeLLMJSON with prose failed: %v", err)
	}
	if payload.RiskScore != 0.25 {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}
