package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeatlas/pkg/llm"
)

func TestAnthropicChat(t *testing.T) {
	var gotReq anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(anthropicResponse{
			Content: []anthropicContent{{Type: "text", Text: "MATCH (n) RETURN n"}},
			Usage:   anthropicUsage{InputTokens: 10, OutputTokens: 5},
		})
	}))
	defer server.Close()

	client, err := llm.NewClient(llm.Config{
		Provider: "anthropic",
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	resp, err := client.Chat(context.Background(), "system prompt", []llm.Message{
		{Role: llm.RoleUser, Content: "how many files?"},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "MATCH (n) RETURN n" {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Usage.InputTokens != 10 || resp.Usage.OutputTokens != 5 {
		t.Errorf("usage = %+v", resp.Usage)
	}
	if gotReq.System != "system prompt" || gotReq.Model != "test-model" {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestAnthropicChatAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad model"}}`))
	}))
	defer server.Close()

	client, err := llm.NewClient(llm.Config{Provider: "anthropic", APIKey: "k", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	if _, err := client.Chat(context.Background(), "", nil); err == nil {
		t.Fatal("expected API error")
	}
}

func TestAnthropicRequiresAPIKey(t *testing.T) {
	if _, err := llm.NewClient(llm.Config{Provider: "anthropic"}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestOllamaChat(t *testing.T) {
	var gotReq ollamaRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ollamaResponse{
			Message:         ollamaMessage{Role: "assistant", Content: "hello"},
			PromptEvalCount: 7,
			EvalCount:       3,
		})
	}))
	defer server.Close()

	client, err := llm.NewClient(llm.Config{Provider: "ollama", BaseURL: server.URL, Model: "llama3"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	resp, err := client.Chat(context.Background(), "be terse", []llm.Message{
		{Role: llm.RoleUser, Content: "hi"},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "hello" {
		t.Errorf("content = %q", resp.Content)
	}
	if gotReq.Stream {
		t.Error("streaming should be disabled")
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("system prompt should lead the message list: %+v", gotReq.Messages)
	}
}

func TestOllamaChatServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	client, err := llm.NewClient(llm.Config{Provider: "ollama", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	if _, err := client.Chat(context.Background(), "", nil); err == nil {
		t.Fatal("expected API error")
	}
}
