package embedded

import (
	"context"
	"testing"

	"codeatlas/internal/graph"
)

// seedStore loads a small two-file graph:
//
//	app.py:  class Foo { a, b }, function main, main calls helper
//	util.py: function helper
func seedStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewInMemoryStore()
	if err != nil {
		t.Fatalf("NewInMemoryStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	files := []*graph.FileNode{
		{ID: graph.FileID("app.py"), Path: "app.py", Language: "python"},
		{ID: graph.FileID("util.py"), Path: "util.py", Language: "python"},
	}
	for _, f := range files {
		if err := s.InsertFile(ctx, f); err != nil {
			t.Fatalf("InsertFile(%s): %v", f.Path, err)
		}
	}

	foo := &graph.ClassNode{
		ID: graph.ClassID("app.py", "Foo", 0), Name: "Foo",
		StartLine: 1, EndLine: 10, FilePath: "app.py",
	}
	if err := s.InsertClass(ctx, foo); err != nil {
		t.Fatalf("InsertClass: %v", err)
	}

	funcs := []*graph.FunctionNode{
		{ID: graph.FunctionID("app.py", "a", 1), Name: "a", Args: "self",
			Docstring: "Method a.", StartLine: 2, EndLine: 4, FilePath: "app.py"},
		{ID: graph.FunctionID("app.py", "b", 5), Name: "b", Args: "self, x",
			StartLine: 6, EndLine: 8, FilePath: "app.py"},
		{ID: graph.FunctionID("app.py", "main", 11), Name: "main", Args: "",
			StartLine: 12, EndLine: 14, FilePath: "app.py"},
		{ID: graph.FunctionID("util.py", "helper", 0), Name: "helper", Args: "n",
			StartLine: 1, EndLine: 3, FilePath: "util.py"},
	}
	for _, fn := range funcs {
		if err := s.InsertFunction(ctx, fn); err != nil {
			t.Fatalf("InsertFunction(%s): %v", fn.Name, err)
		}
	}

	edges := []struct {
		src string
		typ graph.EdgeType
		tgt string
	}{
		{files[0].ID, graph.EdgeContainsClass, foo.ID},
		{foo.ID, graph.EdgeDefines, funcs[0].ID},
		{foo.ID, graph.EdgeDefines, funcs[1].ID},
		{files[0].ID, graph.EdgeContainsFunction, funcs[2].ID},
		{files[1].ID, graph.EdgeContainsFunction, funcs[3].ID},
		{funcs[2].ID, graph.EdgeCalls, funcs[3].ID},
	}
	for _, e := range edges {
		edge := &graph.Edge{
			ID:     graph.EdgeID(e.src, e.typ, e.tgt),
			Source: e.src, Target: e.tgt, Type: e.typ,
		}
		if err := s.InsertEdge(ctx, edge); err != nil {
			t.Fatalf("InsertEdge(%s): %v", edge.ID, err)
		}
	}
	return s
}

func TestExecuteQueryCount(t *testing.T) {
	s := seedStore(t)
	rows, err := s.ExecuteQuery(context.Background(),
		"MATCH (f:File) RETURN count(f) AS count", nil)
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if got := rows[0]["count"]; got != int64(2) {
		t.Errorf("count = %v, want 2", got)
	}
}

func TestExecuteQueryCountEmptyGraph(t *testing.T) {
	s, err := NewInMemoryStore()
	if err != nil {
		t.Fatalf("NewInMemoryStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	rows, err := s.ExecuteQuery(context.Background(),
		"MATCH (fn:Function) RETURN count(fn) AS count", nil)
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a single zero row, got %d rows", len(rows))
	}
	if got := rows[0]["count"]; got != int64(0) {
		t.Errorf("count = %v, want 0", got)
	}
}

func TestExecuteQueryScopedFunctions(t *testing.T) {
	s := seedStore(t)
	rows, err := s.ExecuteQuery(context.Background(),
		"MATCH (c:Class)-[:DEFINES]->(fn:Function) WHERE c.name CONTAINS $name RETURN fn.name, fn.args, fn.docstring",
		map[string]any{"name": "foo"})
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
	names := map[any]bool{rows[0]["fn.name"]: true, rows[1]["fn.name"]: true}
	if !names["a"] || !names["b"] {
		t.Errorf("expected methods a and b, got %v", names)
	}
}

func TestExecuteQueryListing(t *testing.T) {
	s := seedStore(t)
	rows, err := s.ExecuteQuery(context.Background(),
		"MATCH (c:Class) RETURN c.name, c.file_path", nil)
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0]["c.name"] != "Foo" || rows[0]["c.file_path"] != "app.py" {
		t.Errorf("unexpected row: %v", rows[0])
	}
}

func TestExecuteQueryCallers(t *testing.T) {
	s := seedStore(t)
	rows, err := s.ExecuteQuery(context.Background(),
		"MATCH (caller:Function)-[:CALLS]->(callee:Function {name: $name}) RETURN caller.name, caller.file_path",
		map[string]any{"name": "helper"})
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0]["caller.name"] != "main" {
		t.Errorf("caller = %v, want main", rows[0]["caller.name"])
	}
}

func TestExecuteQueryStructureOverview(t *testing.T) {
	s := seedStore(t)
	rows, err := s.ExecuteQuery(context.Background(),
		"MATCH (f:File) "+
			"OPTIONAL MATCH (f)-[:CONTAINS_CLASS]->(c:Class) "+
			"OPTIONAL MATCH (f)-[:CONTAINS_FUNCTION]->(fn:Function) "+
			"RETURN f.path, count(DISTINCT c) AS classes, count(DISTINCT fn) AS functions",
		nil)
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(rows), rows)
	}
	byPath := make(map[any]graph.Row)
	for _, row := range rows {
		byPath[row["f.path"]] = row
	}
	app := byPath["app.py"]
	if app == nil || app["classes"] != int64(1) || app["functions"] != int64(1) {
		t.Errorf("app.py overview = %v, want 1 class and 1 top-level function", app)
	}
	util := byPath["util.py"]
	if util == nil || util["classes"] != int64(0) || util["functions"] != int64(1) {
		t.Errorf("util.py overview = %v, want 0 classes and 1 function", util)
	}
}

func TestExecuteQueryFallbackLimit(t *testing.T) {
	s := seedStore(t)
	rows, err := s.ExecuteQuery(context.Background(), "MATCH (n) RETURN n LIMIT 3", nil)
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected LIMIT to cap at 3 rows, got %d", len(rows))
	}
	for _, row := range rows {
		node, ok := row["n"].(graph.Row)
		if !ok {
			t.Fatalf("whole-node return should yield a property map, got %T", row["n"])
		}
		if _, ok := node["id"]; !ok {
			t.Errorf("node properties missing id: %v", node)
		}
	}
}

func TestExecuteQueryErrors(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()
	cases := []struct {
		name   string
		query  string
		params map[string]any
	}{
		{"syntax error", "FROB (n) RETURN n", nil},
		{"missing param", "MATCH (f:Function {name: $name}) RETURN f.name", nil},
		{"undefined variable", "MATCH (f:File) RETURN x.name", nil},
		{"unterminated string", "MATCH (f:File {path: 'app.py}) RETURN f", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.ExecuteQuery(ctx, tc.query, tc.params); err == nil {
				t.Errorf("expected error for %q", tc.query)
			}
		})
	}
}

func TestDeleteByFile(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()
	if err := s.DeleteByFile(ctx, "app.py"); err != nil {
		t.Fatalf("DeleteByFile: %v", err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	// util.py and helper survive; everything rooted in app.py is gone,
	// including the CALLS edge whose caller lived there.
	if stats.NodeCount != 2 {
		t.Errorf("NodeCount = %d, want 2", stats.NodeCount)
	}
	if stats.EdgeCount != 1 {
		t.Errorf("EdgeCount = %d, want 1", stats.EdgeCount)
	}
	if stats.EdgesByType[graph.EdgeCalls] != 0 {
		t.Errorf("CALLS edge should be removed with its caller")
	}
}

func TestClearAndStats(t *testing.T) {
	s := seedStore(t)
	ctx := context.Background()
	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.NodeCount != 7 || stats.EdgeCount != 6 {
		t.Fatalf("stats = %d nodes / %d edges, want 7 / 6", stats.NodeCount, stats.EdgeCount)
	}
	if stats.NodesByLabel[graph.LabelFunction] != 4 {
		t.Errorf("function count = %d, want 4", stats.NodesByLabel[graph.LabelFunction])
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	stats, err = s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats after clear: %v", err)
	}
	if stats.NodeCount != 0 || stats.EdgeCount != 0 {
		t.Errorf("store not empty after Clear: %+v", stats)
	}
}
