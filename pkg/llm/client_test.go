package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aislice/aislice-backend/pkg/config"
	apperrors "github.com/aislice/aislice-backend/pkg/errors"
)

func newTestClient(t *testing.T, baseURL string, retries int, timeout time.Duration) *Client {
	t.Helper()
	client, err := New(config.LLMConfig{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Model:      "test-model",
		Timeout:    timeout,
		MaxRetries: retries,
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestCompleteSuccess(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "test-model",
			"choices": [{"message": {"role": "assistant", "content": "Margherita is our most loved pizza."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 12, "total_tokens": 22}
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0, 5*time.Second)
	resp, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "What is the best pizza?"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "Margherita is our most loved pizza." {
		t.Fatalf("unexpected content %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 22 {
		t.Fatalf("unexpected usage %+v", resp.Usage)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("expected bearer auth header, got %q", gotAuth)
	}
}

func TestCompleteRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"test-model","choices":[{"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 2, 5*time.Second)
	resp, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "ok" {
		t.Fatalf("unexpected content %q", resp.Content)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestCompleteDoesNotRetryBadRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad prompt"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3, 5*time.Second)
	_, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected single call, got %d", calls.Load())
	}
}

func TestCompleteTimeoutSurfacesTimeoutCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0, 20*time.Millisecond)
	_, err := client.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeTimeout {
		t.Fatalf("expected TIMEOUT code, got %v", err)
	}
}

func TestCompleteValidatesMessages(t *testing.T) {
	client := newTestClient(t, "http://localhost:0", 0, time.Second)
	_, err := client.Complete(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	typed := apperrors.As(err)
	if typed == nil || typed.Code() != apperrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}
