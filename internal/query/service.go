// Package query answers natural-language questions against the knowledge
// graph: a translator maps the question to a graph query (rule table, with
// optional LLM assistance), an executor runs it with bounded retry, and a
// synthesizer writes the answer.
package query

import (
	"context"

	"codeatlas/internal/graph"
	"codeatlas/pkg/llm"
)

// Answer is the result of answering one question.
type Answer struct {
	// Response is the textual answer.
	Response string `json:"response"`
	// NodeIDs lists the graph nodes the answer references.
	NodeIDs []string `json:"node_ids"`
	// Query is the final graph query that was executed (or last attempted).
	Query string `json:"query"`
}

// Service wires translator, executor, and synthesizer together.
type Service struct {
	translator  *Translator
	executor    *Executor
	synthesizer *Synthesizer
}

// Options configures a Service.
type Options struct {
	// Client is the optional LLM backend shared by translator and
	// synthesizer. Nil selects rules and templates only.
	Client llm.Client
	// MaxRetries bounds query re-translation; negative selects the default.
	MaxRetries int
	// Logf receives diagnostic output. Nil discards it.
	Logf func(format string, args ...any)
}

// NewService creates a question-answering service over the store.
func NewService(store graph.Store, opts Options) *Service {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	return &Service{
		translator:  NewTranslator(opts.Client, opts.Logf),
		executor:    NewExecutor(store, opts.MaxRetries, opts.Logf),
		synthesizer: NewSynthesizer(opts.Client, opts.Logf),
	}
}

// Answer runs the full pipeline for one question. It never fails outright:
// exhausted retries yield a best-effort textual explanation.
func (s *Service) Answer(ctx context.Context, question string) *Answer {
	result := s.executor.Execute(ctx, func(q string) (string, map[string]any) {
		return s.translator.Translate(ctx, q)
	}, question)

	response := s.synthesizer.Respond(ctx, question, result.Rows, result.Err)
	return &Answer{
		Response: response,
		NodeIDs:  NodeIDs(result.Rows),
		Query:    result.Query,
	}
}

// Degraded reports whether the LLM backend has been permanently abandoned.
func (s *Service) Degraded() bool {
	return s.translator.Degraded()
}
