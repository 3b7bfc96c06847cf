package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"codeatlas/pkg/llm"
)

// fakeClient replays scripted Chat outcomes in order.
type fakeClient struct {
	replies []string
	errs    []error
	calls   int
}

func (f *fakeClient) Chat(ctx context.Context, systemPrompt string, messages []llm.Message) (*llm.Response, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	reply := ""
	if i < len(f.replies) {
		reply = f.replies[i]
	}
	return &llm.Response{Content: reply}, nil
}

func (f *fakeClient) Model() string    { return "fake" }
func (f *fakeClient) Provider() string { return "fake" }
func (f *fakeClient) Close() error     { return nil }

func TestSanitizeCompletion(t *testing.T) {
	tests := []struct {
		name       string
		completion string
		want       string
	}{
		{
			name:       "bare query",
			completion: "MATCH (f:File) RETURN f.path",
			want:       "MATCH (f:File) RETURN f.path",
		},
		{
			name:       "preamble before query",
			completion: "Here is the query you asked for:\nMATCH (c:Class)\nRETURN c.name",
			want:       "MATCH (c:Class) RETURN c.name",
		},
		{
			name:       "stops at blank line",
			completion: "MATCH (n)\nRETURN n\n\nThis query lists every node.",
			want:       "MATCH (n) RETURN n",
		},
		{
			name:       "fenced block",
			completion: "```cypher\nMATCH (f:File) RETURN count(f) AS count\n```",
			want:       "MATCH (f:File) RETURN count(f) AS count",
		},
		{
			name:       "no query at all",
			completion: "I don't know how to answer that.",
			want:       "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeCompletion(tt.completion); got != tt.want {
				t.Errorf("sanitizeCompletion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTranslatorUsesLLMFirst(t *testing.T) {
	client := &fakeClient{replies: []string{"MATCH (c:Class) RETURN c.name"}}
	tr := NewTranslator(client, nil)

	query, params := tr.Translate(context.Background(), "what classes exist?")
	if query != "MATCH (c:Class) RETURN c.name" {
		t.Errorf("query = %q", query)
	}
	if params != nil {
		t.Errorf("LLM path should not produce params, got %v", params)
	}
	if tr.Degraded() {
		t.Error("translator should not be degraded after a success")
	}
}

func TestTranslatorDegradesPermanently(t *testing.T) {
	client := &fakeClient{errs: []error{errors.New("backend down")}}
	tr := NewTranslator(client, nil)

	query, _ := tr.Translate(context.Background(), "how many files?")
	if !strings.Contains(query, "count(f)") {
		t.Errorf("expected rule-table query after backend failure, got %q", query)
	}
	if !tr.Degraded() {
		t.Fatal("translator should be degraded after a backend failure")
	}

	tr.Translate(context.Background(), "what classes are there?")
	if client.calls != 1 {
		t.Errorf("degraded translator must not retry the backend, calls = %d", client.calls)
	}
}

func TestTranslatorEmptyCompletionFallsBackOnce(t *testing.T) {
	client := &fakeClient{replies: []string{"no idea", "MATCH (n) RETURN n"}}
	tr := NewTranslator(client, nil)

	query, _ := tr.Translate(context.Background(), "how many files?")
	if !strings.Contains(query, "count(f)") {
		t.Errorf("unusable completion should fall back to rules, got %q", query)
	}
	if tr.Degraded() {
		t.Error("an unusable completion is not a backend failure")
	}

	query, _ = tr.Translate(context.Background(), "anything")
	if query != "MATCH (n) RETURN n" {
		t.Errorf("backend should be tried again, got %q", query)
	}
}

func TestTranslatorWithoutClientUsesRules(t *testing.T) {
	tr := NewTranslator(nil, nil)
	query, _ := tr.Translate(context.Background(), "what classes are there?")
	if query != "MATCH (c:Class) RETURN c.name, c.file_path" {
		t.Errorf("query = %q", query)
	}
}
