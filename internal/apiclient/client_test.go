package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"streamwatch/internal/api"
)

func TestClientSendsBearerTokenAndDecodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/candidates" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected auth header: %q", got)
		}
		var req api.CandidateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Platform != "youtube" {
			t.Fatalf("unexpected platform: %q", req.Platform)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(api.CandidateResponse{
			Detection: api.Detection{ID: 12, Platform: "youtube", Status: "found"},
			Created:   true,
		})
	}))
	defer server.Close()

	client := New(server.URL, "secret")
	resp, err := client.Enqueue(context.Background(), api.CandidateRequest{
		Platform: "youtube",
		URL:      "https://youtube.com/watch?v=abc",
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if !resp.Created || resp.Detection.ID != 12 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestClientAssumesHTTPScheme(t *testing.T) {
	client := New("127.0.0.1:7519", "")
	if client.baseURL != "http://127.0.0.1:7519" {
		t.Fatalf("unexpected base url: %q", client.baseURL)
	}
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "stage capture requires status found"})
	}))
	defer server.Close()

	client := New(server.URL, "")
	_, err := client.RunStage(context.Background(), 7, "capture")
	if err == nil {
		t.Fatal("expected error for conflict response")
	}
	if !IsConflict(err) {
		t.Fatalf("expected conflict classification, got %v", err)
	}
	statusErr := err.(*StatusError)
	if statusErr.Message != "stage capture requires status found" {
		t.Fatalf("unexpected message: %q", statusErr.Message)
	}
}

func TestClientNotFoundClassification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "")
	_, err := client.Describe(context.Background(), 404)
	if !IsNotFound(err) {
		t.Fatalf("expected not-found classification, got %v", err)
	}
}

func TestClientListDetectionsStatusQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		values := r.URL.Query()["status"]
		if len(values) != 2 || values[0] != "review" || values[1] != "error" {
			t.Fatalf("unexpected status query: %v", values)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.DetectionListResponse{Items: []api.Detection{{ID: 1}}})
	}))
	defer server.Close()

	client := New(server.URL, "")
	items, err := client.ListDetections(context.Background(), "review", "error")
	if err != nil {
		t.Fatalf("ListDetections: %v", err)
	}
	if len(items) != 1 || items[0].ID != 1 {
		t.Fatalf("unexpected items: %+v", items)
	}
}
