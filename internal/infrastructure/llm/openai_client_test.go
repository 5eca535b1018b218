package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap/zaptest"

	"mailsort/internal/domain/email"
)

const chatCompletionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Promotions"}}]
}`

func TestOpenAIClientRetriesAndAuthenticates(t *testing.T) {
	var (
		hits   atomic.Int32
		mu     sync.Mutex
		auth   string
		prompt string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		var body struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)

		mu.Lock()
		auth = r.Header.Get("Authorization")
		if len(body.Messages) > 0 {
			prompt = body.Messages[0].Content
		}
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"error":{"message":"overloaded","type":"server_error"}}`)
			return
		}
		_, _ = io.WriteString(w, chatCompletionBody)
	}))
	defer srv.Close()

	clock := &fakeClock{}
	logger := zaptest.NewLogger(t)
	retrier := NewRetrier(DefaultPolicy, logger, WithSleep(clock.Sleep), WithJitter(func() float64 { return 0 }))
	client := NewOpenAIClient("gpt-4o-mini", srv.URL, nil, retrier, logger)

	text, err := client.Complete(context.Background(), "sk-test", "hello prompt")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != "Promotions" {
		t.Fatalf("expected Promotions, got %q", text)
	}
	if hits.Load() != 2 || len(clock.sleeps) != 1 {
		t.Fatalf("expected 2 attempts and 1 sleep, got %d/%d", hits.Load(), len(clock.sleeps))
	}

	mu.Lock()
	defer mu.Unlock()
	if auth != "Bearer sk-test" {
		t.Fatalf("unexpected authorization header %q", auth)
	}
	if prompt != "hello prompt" {
		t.Fatalf("unexpected prompt %q", prompt)
	}
}

func TestOpenAIClientUnauthorizedIsFatal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
	}))
	defer srv.Close()

	clock := &fakeClock{}
	retrier := NewRetrier(DefaultPolicy, nil, WithSleep(clock.Sleep))
	client := NewOpenAIClient("", srv.URL, nil, retrier, zaptest.NewLogger(t))

	_, err := client.Complete(context.Background(), "bad", "p")
	if email.KindOf(err) != email.KindAuth {
		t.Fatalf("expected auth error, got %v", err)
	}
	if hits.Load() != 1 || len(clock.sleeps) != 0 {
		t.Fatalf("expected a single attempt without backoff")
	}
}
