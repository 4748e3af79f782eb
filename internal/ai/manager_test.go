package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func generationServer(t *testing.T, text string, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(Response{Text: text})
	}))
}

func failingServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
}

func TestGenerateUsesFirstProvider(t *testing.T) {
	srv := generationServer(t, "generated text", nil)
	defer srv.Close()

	m := NewManager([]*HTTPProvider{
		NewHTTPProvider("primary", srv.URL, "", time.Second),
	})

	resp, err := m.Generate(context.Background(), Request{Prompt: "continue the story"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.Text != "generated text" {
		t.Errorf("text = %q", resp.Text)
	}
	if resp.Provider != "primary" {
		t.Errorf("provider = %q, want primary", resp.Provider)
	}
	if resp.Cached {
		t.Error("first response should not be cached")
	}
}

func TestGenerateFallsBack(t *testing.T) {
	bad := failingServer(t)
	defer bad.Close()
	good := generationServer(t, "fallback text", nil)
	defer good.Close()

	m := NewManager([]*HTTPProvider{
		NewHTTPProvider("primary", bad.URL, "", time.Second),
		NewHTTPProvider("secondary", good.URL, "", time.Second),
	})

	resp, err := m.Generate(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.Provider != "secondary" {
		t.Errorf("provider = %q, want secondary", resp.Provider)
	}

	stats := m.Stats()
	if stats.Fallbacks != 1 {
		t.Errorf("fallbacks = %d, want 1", stats.Fallbacks)
	}
}

func TestGenerateCachesByPrompt(t *testing.T) {
	var calls atomic.Int64
	srv := generationServer(t, "cached text", &calls)
	defer srv.Close()

	m := NewManager([]*HTTPProvider{
		NewHTTPProvider("primary", srv.URL, "", time.Second),
	})

	ctx := context.Background()
	if _, err := m.Generate(ctx, Request{Prompt: "same"}); err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}
	resp, err := m.Generate(ctx, Request{Prompt: "same"})
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if !resp.Cached {
		t.Error("second response should be cached")
	}
	if calls.Load() != 1 {
		t.Errorf("provider called %d times, want 1", calls.Load())
	}

	// Different context misses the cache
	if _, err := m.Generate(ctx, Request{Prompt: "same", Context: "doc"}); err != nil {
		t.Fatalf("third Generate failed: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("provider called %d times, want 2", calls.Load())
	}
}

func TestGenerateAllProvidersFail(t *testing.T) {
	bad := failingServer(t)
	defer bad.Close()

	m := NewManager([]*HTTPProvider{
		NewHTTPProvider("only", bad.URL, "", time.Second),
	})

	if _, err := m.Generate(context.Background(), Request{Prompt: "p"}); err == nil {
		t.Fatal("expected error when all providers fail")
	}
	if m.Healthy() {
		t.Error("manager should be unhealthy after provider failure")
	}
	if m.Stats().Failures != 1 {
		t.Errorf("failures = %d, want 1", m.Stats().Failures)
	}
}

func TestGenerateNoProviders(t *testing.T) {
	m := NewManager(nil)
	if _, err := m.Generate(context.Background(), Request{Prompt: "p"}); err == nil {
		t.Fatal("expected error with no providers")
	}
}

func TestGenerateText(t *testing.T) {
	srv := generationServer(t, "plain text", nil)
	defer srv.Close()

	m := NewManager([]*HTTPProvider{
		NewHTTPProvider("primary", srv.URL, "", time.Second),
	})

	text, err := m.GenerateText(context.Background(), "prompt", "context")
	if err != nil {
		t.Fatalf("GenerateText failed: %v", err)
	}
	if text != "plain text" {
		t.Errorf("text = %q", text)
	}
}
