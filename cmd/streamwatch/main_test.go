package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"streamwatch/internal/api"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCommand()
	expected := []string{
		"status", "health", "report", "detections",
		"capture", "match", "enforce", "references",
		"test-notify", "config",
	}
	registered := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		registered[sub.Name()] = true
	}
	for _, name := range expected {
		if !registered[name] {
			t.Fatalf("expected %q command to be registered", name)
		}
	}
}

func TestReportCommandAgainstStubAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/candidates" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req api.CandidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Platform != "youtube" || req.Title != "Cup Final" {
			t.Fatalf("unexpected request payload: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(api.CandidateResponse{
			Detection: api.Detection{ID: 5, Platform: "youtube", Status: "found"},
			Created:   true,
		})
	}))
	defer server.Close()

	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"report", "youtube", "https://youtube.com/watch?v=abc", "--title", "Cup Final", "--api", server.URL})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "Detection 5 queued for capture") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestReferencesLoadCommandUpsertsCatalog(t *testing.T) {
	var received []api.ReferenceRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/references" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req api.ReferenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		received = append(received, req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(api.ReferenceResponse{Item: api.Reference{
			ID:       int64(len(received)),
			Platform: req.Platform,
			Title:    req.Title,
		}})
	}))
	defer server.Close()

	catalog := filepath.Join(t.TempDir(), "catalog.json")
	payload := `[
		{"platform":"youtube","title":"Cup Final","contentType":"sports","videoFingerprint":"aabb"},
		{"platform":"twitch","title":"Derby Night","contentType":"sports","audioFingerprint":"ccdd"}
	]`
	if err := os.WriteFile(catalog, []byte(payload), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"references", "load", catalog, "--api", server.URL})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(received) != 2 {
		t.Fatalf("expected 2 upserts, got %d", len(received))
	}
	if received[1].Platform != "twitch" || received[1].AudioFingerprint != "ccdd" {
		t.Fatalf("unexpected second upsert: %+v", received[1])
	}
	if !strings.Contains(out.String(), "Loaded 2 of 2 catalog entries") {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

func TestDetectionsListRendersTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/detections" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.DetectionListResponse{Items: []api.Detection{
			{ID: 1, Platform: "youtube", Title: "Cup Final", Status: "matched", Decision: "approve", RiskScore: 0.91, URL: "https://youtube.com/watch?v=abc"},
		}})
	}))
	defer server.Close()

	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs([]string{"detections", "list", "--api", server.URL})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	rendered := out.String()
	for _, want := range []string{"youtube", "Cup Final", "matched", "approve", "0.91"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, rendered)
		}
	}
}

func TestBuildDetectionRowsTruncatesLongValues(t *testing.T) {
	long := strings.Repeat("x", 100)
	rows := buildDetectionRows([]api.Detection{{ID: 2, Platform: "telegram", Title: long, URL: "https://t.me/" + long}})
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if got := rows[0][2]; len(got) != 32 || !strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected truncated title: %q", got)
	}
	if got := rows[0][6]; len(got) != 48 {
		t.Fatalf("unexpected truncated url length: %d", len(got))
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("unexpected: %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "ab..." {
		t.Fatalf("unexpected: %q", got)
	}
}
