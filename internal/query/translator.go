package query

import (
	"context"
	"strings"
	"sync/atomic"

	"codeatlas/pkg/llm"
)

// Translator maps natural-language questions to graph queries. When an LLM
// client is configured it is tried first; the first backend failure degrades
// the translator to the rule table permanently (no flapping back).
type Translator struct {
	client   llm.Client
	degraded atomic.Bool
	logf     func(format string, args ...any)
}

// NewTranslator creates a translator. client may be nil, in which case only
// the rule table is used.
func NewTranslator(client llm.Client, logf func(format string, args ...any)) *Translator {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Translator{client: client, logf: logf}
}

// Degraded reports whether the LLM backend has been abandoned for this
// translator's lifetime.
func (t *Translator) Degraded() bool {
	return t.degraded.Load()
}

// Translate maps a question to a query string and parameters.
func (t *Translator) Translate(ctx context.Context, question string) (string, map[string]any) {
	if t.client != nil && !t.degraded.Load() {
		if query, ok := t.translateLLM(ctx, question); ok {
			return query, nil
		}
	}
	return translateWithRules(question)
}

func (t *Translator) translateLLM(ctx context.Context, question string) (string, bool) {
	resp, err := t.client.Chat(ctx, translatorSystemPrompt, []llm.Message{
		{Role: llm.RoleUser, Content: question},
	})
	if err != nil {
		t.degraded.Store(true)
		t.logf("LLM translation failed, using rule table from now on: %v", err)
		return "", false
	}
	query := sanitizeCompletion(resp.Content)
	if query == "" {
		// The completion held no query; fall back for this question only.
		return "", false
	}
	return query, true
}

// queryKeywords start a query line in a completion.
var queryKeywords = map[string]bool{
	"MATCH": true, "RETURN": true, "WHERE": true,
	"WITH": true, "CREATE": true, "MERGE": true,
}

// sanitizeCompletion pulls the query out of a raw LLM completion: capture
// begins at the first line whose leading token is a query keyword and stops
// at the first blank line after that. Captured lines are joined with spaces.
// Markdown fence lines are ignored.
func sanitizeCompletion(completion string) string {
	var captured []string
	capturing := false
	for _, line := range strings.Split(completion, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			continue
		}
		if !capturing {
			fields := strings.Fields(trimmed)
			if len(fields) > 0 && queryKeywords[strings.ToUpper(fields[0])] {
				capturing = true
				captured = append(captured, trimmed)
			}
			continue
		}
		if trimmed == "" {
			break
		}
		captured = append(captured, trimmed)
	}
	return strings.Join(captured, " ")
}
