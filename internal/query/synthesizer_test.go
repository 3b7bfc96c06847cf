package query

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"codeatlas/internal/graph"
)

func TestNodeIDs(t *testing.T) {
	rows := []graph.Row{
		{"id": "file:app.py", "path": "app.py"},
		{"fn.id": "func:app.py:main:11", "fn.name": "main"},
		{"n": graph.Row{"id": "class:app.py:Foo:2", "name": "Foo"}},
		{"id": "file:app.py"}, // duplicate
		{"values": []any{"util/helper.py", "plain", "snake_case"}},
	}
	want := []string{
		"file:app.py",
		"func:app.py:main:11",
		"class:app.py:Foo:2",
		"util/helper.py",
		"snake_case",
	}
	if got := NodeIDs(rows); !reflect.DeepEqual(got, want) {
		t.Errorf("NodeIDs = %v, want %v", got, want)
	}
}

func TestNodeIDsEmpty(t *testing.T) {
	if got := NodeIDs(nil); len(got) != 0 {
		t.Errorf("NodeIDs(nil) = %v", got)
	}
	if got := NodeIDs([]graph.Row{{"fn.name": "main"}}); len(got) != 0 {
		t.Errorf("rows without ids should yield none, got %v", got)
	}
}

func TestTemplateResponseCount(t *testing.T) {
	got := templateResponse("how many files are there?", []graph.Row{{"count": int64(4)}}, "")
	if got != "There are 4 files." {
		t.Errorf("response = %q", got)
	}
}

func TestTemplateResponseListing(t *testing.T) {
	rows := []graph.Row{
		{"fn.name": "a", "fn.args": "self", "fn.id": "func:app.py:a:5"},
		{"fn.name": "b", "fn.args": "self, x", "fn.id": "func:app.py:b:9"},
	}
	got := templateResponse("what methods does Foo have?", rows, "")
	if !strings.HasPrefix(got, "Found 2 functions:") {
		t.Errorf("response = %q", got)
	}
	if strings.Contains(got, "func:app.py") {
		t.Errorf("ids must be suppressed in the listing: %q", got)
	}
	if !strings.Contains(got, "fn.name: a") || !strings.Contains(got, "fn.args: self, x") {
		t.Errorf("listing missing fields: %q", got)
	}
}

func TestTemplateResponseWholeNodes(t *testing.T) {
	rows := []graph.Row{
		{"n": graph.Row{"id": "file:app.py", "path": "app.py"}},
		{"n": graph.Row{"id": "func:app.py:main:11", "name": "main"}},
	}
	got := templateResponse("show me everything", rows, "")
	if !strings.Contains(got, "app.py") || !strings.Contains(got, "main") {
		t.Errorf("whole-node rows should unwrap to names/paths: %q", got)
	}
}

func TestTemplateResponseEmpty(t *testing.T) {
	got := templateResponse("anything?", nil, "")
	if !strings.Contains(got, "couldn't find anything") {
		t.Errorf("response = %q", got)
	}

	got = templateResponse("anything?", nil, "store offline")
	if !strings.Contains(got, "store offline") {
		t.Errorf("terminal failure should surface the last error: %q", got)
	}
}

func TestSynthesizerDegradesPermanently(t *testing.T) {
	client := &fakeClient{errs: []error{errors.New("backend down")}}
	s := NewSynthesizer(client, nil)
	rows := []graph.Row{{"count": int64(1)}}

	got := s.Respond(context.Background(), "how many files?", rows, "")
	if got != "There are 1 files." {
		t.Errorf("response = %q", got)
	}

	s.Respond(context.Background(), "how many files?", rows, "")
	if client.calls != 1 {
		t.Errorf("degraded synthesizer must not retry the backend, calls = %d", client.calls)
	}
}

func TestSynthesizerUsesLLMAnswer(t *testing.T) {
	client := &fakeClient{replies: []string{"There are four files in this project."}}
	s := NewSynthesizer(client, nil)

	got := s.Respond(context.Background(), "how many files?", []graph.Row{{"count": int64(4)}}, "")
	if got != "There are four files in this project." {
		t.Errorf("response = %q", got)
	}
}

func TestServiceAnswer(t *testing.T) {
	store := &scriptedStore{rows: [][]graph.Row{{{"count": int64(3)}}}}
	svc := NewService(store, Options{})

	answer := svc.Answer(context.Background(), "how many files are there?")
	if answer.Query != "MATCH (f:File) RETURN count(f) AS count" {
		t.Errorf("query = %q", answer.Query)
	}
	if answer.Response != "There are 3 files." {
		t.Errorf("response = %q", answer.Response)
	}
	if len(answer.NodeIDs) != 0 {
		t.Errorf("count rows carry no ids, got %v", answer.NodeIDs)
	}
}
