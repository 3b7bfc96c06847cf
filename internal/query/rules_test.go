package query

import (
	"strings"
	"testing"
)

func TestCountRules(t *testing.T) {
	tests := []struct {
		question string
		want     string
	}{
		{"How many files are in the repo?", "MATCH (f:File) RETURN count(f) AS count"},
		{"how many classes do we have", "MATCH (c:Class) RETURN count(c) AS count"},
		{"How many functions are there?", "MATCH (fn:Function) RETURN count(fn) AS count"},
		{"count methods", "MATCH (fn:Function) RETURN count(fn) AS count"},
	}
	for _, tt := range tests {
		query, params := translateWithRules(tt.question)
		if query != tt.want {
			t.Errorf("%q => %q, want %q", tt.question, query, tt.want)
		}
		if params != nil {
			t.Errorf("%q should not produce params, got %v", tt.question, params)
		}
	}
}

func TestScopedListingRule(t *testing.T) {
	query, params := translateWithRules("What methods does the Foo class have?")
	if !strings.Contains(query, "[:DEFINES]") || !strings.Contains(query, "c.name CONTAINS $name") {
		t.Errorf("unexpected query %q", query)
	}
	if params["name"] != "foo" {
		t.Errorf("params = %v, want name=foo", params)
	}
}

func TestScopedListingRuleFileScope(t *testing.T) {
	query, params := translateWithRules("what functions are in app.py")
	if !strings.Contains(query, "[:CONTAINS_FUNCTION]") || !strings.Contains(query, "f.path CONTAINS $path") {
		t.Errorf("unexpected query %q", query)
	}
	if params["path"] != "app.py" {
		t.Errorf("params = %v, want path=app.py", params)
	}
}

func TestScopedClassListingRule(t *testing.T) {
	tests := []struct {
		question string
		wantPath string
	}{
		{"what classes are in app.py", "app.py"},
		{"which classes are defined in the parser module", "parser"},
	}
	for _, tt := range tests {
		query, params := translateWithRules(tt.question)
		if !strings.Contains(query, "[:CONTAINS_CLASS]") || !strings.Contains(query, "f.path CONTAINS $path") {
			t.Errorf("%q => %q, want file-scoped class listing", tt.question, query)
		}
		if params["path"] != tt.wantPath {
			t.Errorf("%q => params %v, want path=%s", tt.question, params, tt.wantPath)
		}
	}
}

func TestUnscopedListingRules(t *testing.T) {
	tests := []struct {
		question string
		want     string
	}{
		{"what classes are there?", "MATCH (c:Class) RETURN c.name, c.file_path"},
		{"list all files", "MATCH (f:File) RETURN f.path, f.language"},
		{"show functions", "MATCH (fn:Function) RETURN fn.name, fn.file_path"},
	}
	for _, tt := range tests {
		query, _ := translateWithRules(tt.question)
		if query != tt.want {
			t.Errorf("%q => %q, want %q", tt.question, query, tt.want)
		}
	}
}

func TestCallsRule(t *testing.T) {
	tests := []struct {
		question string
		wantName string
	}{
		{"which functions call helper?", "helper"},
		{"what calls the validate function", "validate"},
		{"where is process_data called", "process_data"},
	}
	for _, tt := range tests {
		query, params := translateWithRules(tt.question)
		if !strings.Contains(query, "[:CALLS]") {
			t.Errorf("%q => %q, want CALLS traversal", tt.question, query)
		}
		if params["name"] != tt.wantName {
			t.Errorf("%q => params %v, want name=%s", tt.question, params, tt.wantName)
		}
	}
}

func TestStructureRule(t *testing.T) {
	for _, question := range []string{
		"give me an overview of the project",
		"what is the structure of this repo?",
		"summary please",
	} {
		query, _ := translateWithRules(question)
		if !strings.Contains(query, "OPTIONAL MATCH") || !strings.Contains(query, "count(DISTINCT c)") {
			t.Errorf("%q => %q, want structure query", question, query)
		}
	}
}

func TestFallbackRule(t *testing.T) {
	query, params := translateWithRules("tell me something interesting")
	if query != fallbackQuery {
		t.Errorf("fallback = %q, want %q", query, fallbackQuery)
	}
	if params != nil {
		t.Errorf("fallback should have no params, got %v", params)
	}
}

func TestRulePriorityCountBeforeListing(t *testing.T) {
	// "how many classes" mentions an entity keyword, but the count rule
	// must win over the listing rules.
	query, _ := translateWithRules("how many classes are in the project?")
	if !strings.Contains(query, "count(c)") {
		t.Errorf("count should take priority, got %q", query)
	}
}

func TestCallQuestionNotSwallowedByListing(t *testing.T) {
	query, params := translateWithRules("which functions call main")
	if !strings.Contains(query, "[:CALLS]") {
		t.Errorf("call question should hit the calls rule, got %q", query)
	}
	if params["name"] != "main" {
		t.Errorf("params = %v, want name=main", params)
	}
}
