package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"reviewpulse/internal/adapters/openai"
	"reviewpulse/internal/domain"
)

func completionBody(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
}

func TestClient_Complete_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode(completionBody("0.8"))
		}
	}))
	defer ts.Close()

	cl, err := openai.New(ts.URL, "test-key", "gpt-3.5-turbo", 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := cl.Complete(ctx, domain.CompletionRequest{System: "sys", Prompt: "score this"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != "0.8" {
		t.Fatalf("unexpected content: %q", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_Complete_RequestShape(t *testing.T) {
	var captured map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer auth, got %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		w.WriteHeader(200)
		_ = json.NewEncoder(w).Encode(completionBody(`{"summary":"s","keyPoints":["a","b","c"]}`))
	}))
	defer ts.Close()

	cl, _ := openai.New(ts.URL, "test-key", "gpt-3.5-turbo", 100)
	_, err := cl.Complete(context.Background(), domain.CompletionRequest{
		System:      "sys",
		Prompt:      "analyze",
		MaxTokens:   1000,
		Temperature: 0.5,
		JSONObject:  true,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if captured["model"] != "gpt-3.5-turbo" {
		t.Fatalf("model not set: %v", captured["model"])
	}
	msgs, _ := captured["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system+user messages, got %v", captured["messages"])
	}
	rf, _ := captured["response_format"].(map[string]any)
	if rf["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", captured["response_format"])
	}
}

func TestClient_Complete_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(401)
	}))
	defer ts.Close()

	cl, _ := openai.New(ts.URL, "bad-key", "", 100)
	_, err := cl.Complete(context.Background(), domain.CompletionRequest{Prompt: "x"})
	if !errors.Is(err, openai.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClient_Complete_EmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	cl, _ := openai.New(ts.URL, "test-key", "", 100)
	_, err := cl.Complete(context.Background(), domain.CompletionRequest{Prompt: "x"})
	if !errors.Is(err, openai.ErrEmptyChoice) {
		t.Fatalf("expected ErrEmptyChoice, got %v", err)
	}
}

func TestClient_New_RequiresKey(t *testing.T) {
	if _, err := openai.New("http://localhost", "", "", 1); err == nil {
		t.Fatalf("expected error for missing key")
	}
}
