package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"codeatlas/internal/graph"
	"codeatlas/pkg/llm"
)

// Synthesizer turns result rows into a textual answer. Like the translator,
// it degrades one-way to the deterministic template once the LLM backend
// fails.
type Synthesizer struct {
	client   llm.Client
	degraded atomic.Bool
	logf     func(format string, args ...any)
}

// NewSynthesizer creates a synthesizer. client may be nil.
func NewSynthesizer(client llm.Client, logf func(format string, args ...any)) *Synthesizer {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Synthesizer{client: client, logf: logf}
}

// Respond produces the answer text for a question given its result rows.
// execErr carries the last store error when every query attempt failed.
func (s *Synthesizer) Respond(ctx context.Context, question string, rows []graph.Row, execErr string) string {
	if s.client != nil && !s.degraded.Load() {
		resp, err := s.client.Chat(ctx, synthesizerSystemPrompt, []llm.Message{
			{Role: llm.RoleUser, Content: synthesizerUserPrompt(question, rows)},
		})
		if err == nil && strings.TrimSpace(resp.Content) != "" {
			return strings.TrimSpace(resp.Content)
		}
		if err != nil {
			s.degraded.Store(true)
			s.logf("LLM synthesis failed, using template from now on: %v", err)
		}
	}
	return templateResponse(question, rows, execErr)
}

// NodeIDs harvests referenced node identifiers from result rows, preserving
// first-seen order and dropping duplicates. Map values contribute through an
// "id" key (direct, suffixed, or nested); list values contribute id-like
// strings (containing "/" or "_").
func NodeIDs(rows []graph.Row) []string {
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, row := range rows {
		for _, key := range sortedKeys(row) {
			val := row[key]
			if key == "id" || strings.HasSuffix(key, ".id") {
				if s, ok := val.(string); ok {
					add(s)
				}
				continue
			}
			if id, ok := nestedID(val); ok {
				add(id)
				continue
			}
			if list, ok := val.([]any); ok {
				for _, item := range list {
					if s, ok := item.(string); ok && strings.ContainsAny(s, "/_") {
						add(s)
					}
				}
			}
		}
	}
	return ids
}

func nestedID(val any) (string, bool) {
	switch m := val.(type) {
	case graph.Row:
		id, ok := m["id"].(string)
		return id, ok
	case map[string]any:
		id, ok := m["id"].(string)
		return id, ok
	}
	return "", false
}

// templateResponse is the deterministic fallback answer: classify what the
// rows hold, state the count, and list the rows with internal fields
// suppressed.
func templateResponse(question string, rows []graph.Row, execErr string) string {
	if len(rows) == 0 {
		if execErr != "" {
			return fmt.Sprintf("I couldn't answer that: the graph query failed (%s).", execErr)
		}
		return "I couldn't find anything in the code graph for that question."
	}

	if len(rows) == 1 {
		if count, ok := rows[0]["count"]; ok && len(rows[0]) == 1 {
			return fmt.Sprintf("There are %v %s.", count, countSubject(question))
		}
	}

	kind := classifyRows(rows)
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s:\n", len(rows), kind)
	for _, row := range rows {
		line := formatRow(row)
		if line == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", line)
	}
	return strings.TrimRight(b.String(), "\n")
}

// countSubject names what a count query counted, sniffed from the question.
func countSubject(question string) string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "file"):
		return "files"
	case strings.Contains(q, "class"):
		return "classes"
	case strings.Contains(q, "function"), strings.Contains(q, "method"):
		return "functions"
	}
	return "matching records"
}

// classifyRows sniffs the result shape from the first row's keys. Indicator
// groups are checked in precedence order across all keys, so a file overview
// row reads as files even when it also carries class counts.
func classifyRows(rows []graph.Row) string {
	keys := strings.ToLower(strings.Join(sortedKeys(rows[0]), " "))
	switch {
	case strings.Contains(keys, "caller"), strings.Contains(keys, "callee"):
		return "callers"
	case strings.Contains(keys, "f.path"), strings.Contains(keys, "language"):
		return "files"
	case strings.Contains(keys, "c.name"), strings.Contains(keys, "class"):
		return "classes"
	case strings.Contains(keys, "fn."), strings.Contains(keys, "args"), strings.Contains(keys, "docstring"):
		return "functions"
	}
	return "results"
}

// formatRow renders one row, hiding id fields and unwrapping whole-node
// values to their name or path.
func formatRow(row graph.Row) string {
	var parts []string
	for _, key := range sortedKeys(row) {
		if key == "id" || strings.HasSuffix(key, ".id") {
			continue
		}
		val := row[key]
		if m, ok := asMap(val); ok {
			if name, ok := m["name"].(string); ok {
				parts = append(parts, name)
			} else if path, ok := m["path"].(string); ok {
				parts = append(parts, path)
			}
			continue
		}
		if val == nil || val == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", key, val))
	}
	return strings.Join(parts, ", ")
}

func asMap(val any) (map[string]any, bool) {
	switch m := val.(type) {
	case graph.Row:
		return m, true
	case map[string]any:
		return m, true
	}
	return nil, false
}

func sortedKeys(row graph.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
