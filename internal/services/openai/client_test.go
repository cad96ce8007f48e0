package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vidflow/internal/services"
	"vidflow/internal/services/openai"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := openai.New(server.URL, "key", "2024-06-01", "embed-dep", "chat-dep")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client
}

func TestGenerateEmbeddings(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "embed-dep") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("api-key"); got != "key" {
			t.Errorf("missing api-key header, got %q", got)
		}
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := map[string]any{"data": []map[string]any{}}
		for i := range req.Input {
			resp["data"] = append(resp["data"].([]map[string]any), map[string]any{
				"index":     i,
				"embedding": []float64{0.1, 0.2, 0.3},
			})
		}
		json.NewEncoder(w).Encode(resp)
	})

	result, err := client.GenerateEmbeddings(context.Background(), map[string]string{
		"transcript": "hello world",
		"topics":     "demo",
		"empty":      "   ",
	})
	if err != nil {
		t.Fatalf("GenerateEmbeddings failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 embeddings (empty fragment skipped), got %d", len(result))
	}
	if result["transcript"].Dimension != 3 {
		t.Fatalf("unexpected dimension: %+v", result["transcript"])
	}
}

func TestGenerateEmbeddingsRejectsEmptyInput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	})
	_, err := client.GenerateEmbeddings(context.Background(), map[string]string{"a": " "})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGenerateVideoInsights(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "chat-dep") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		inner, _ := json.Marshal(map[string]any{
			"summary":         "a demo video",
			"key_takeaways":   []string{"short"},
			"content_type":    "demo",
			"target_audience": "developers",
		})
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": string(inner)}},
			},
		})
	})

	insights, err := client.GenerateVideoInsights(context.Background(), openai.InsightContext{
		VideoName:  "demo.mp4",
		Transcript: "hello",
	})
	if err != nil {
		t.Fatalf("GenerateVideoInsights failed: %v", err)
	}
	if insights.Summary != "a demo video" || len(insights.KeyTakeaways) != 1 {
		t.Fatalf("unexpected insights: %+v", insights)
	}
}

func TestServerErrorClassification(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})
	_, err := client.GenerateEmbeddings(context.Background(), map[string]string{"t": "text"})
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service classification, got %v", err)
	}
}
