package query

import (
	"context"
	"fmt"

	"codeatlas/internal/graph"
)

// defaultMaxRetries bounds re-translation after a failed query execution.
// Total attempts = maxRetries + 1.
const defaultMaxRetries = 2

// Attempt is the state of one translation/execution cycle. Question carries
// the accumulated error feedback from earlier attempts; the translator itself
// stays stateless.
type Attempt struct {
	Index     int
	Question  string
	LastError string
}

// next returns the follow-up attempt, appending the failure text and a
// correction instruction to the question.
func (a Attempt) next(err error) Attempt {
	return Attempt{
		Index: a.Index + 1,
		Question: fmt.Sprintf("%s\nPrevious query failed with error: %v. Please generate a corrected query.",
			a.Question, err),
		LastError: err.Error(),
	}
}

// Result is the outcome of a bounded execution run. Err holds the last error
// message when every attempt failed; Rows is empty in that case.
type Result struct {
	Rows     []graph.Row
	Query    string
	Err      string
	Attempts int
}

// translateFunc produces a query and parameters for a (possibly mutated)
// question.
type translateFunc func(question string) (string, map[string]any)

// Executor runs translated queries against the store with bounded retry.
type Executor struct {
	store      graph.Store
	maxRetries int
	logf       func(format string, args ...any)
}

// NewExecutor creates an executor. maxRetries < 0 selects the default.
func NewExecutor(store graph.Store, maxRetries int, logf func(format string, args ...any)) *Executor {
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Executor{store: store, maxRetries: maxRetries, logf: logf}
}

// Execute translates and runs the question until a query succeeds or the
// attempt budget is spent. Store errors are treated opaquely: whatever the
// store rejects is fed back into the next attempt's question.
func (e *Executor) Execute(ctx context.Context, translate translateFunc, question string) *Result {
	attempt := Attempt{Question: question}
	var lastQuery string

	for attempt.Index <= e.maxRetries {
		query, params := translate(attempt.Question)
		lastQuery = query

		rows, err := e.store.ExecuteQuery(ctx, query, params)
		if err == nil {
			return &Result{Rows: rows, Query: query, Attempts: attempt.Index + 1}
		}
		e.logf("query attempt %d failed: %v", attempt.Index+1, err)
		attempt = attempt.next(err)
	}

	return &Result{Query: lastQuery, Err: attempt.LastError, Attempts: attempt.Index}
}
