package parser

import "codeatlas/internal/graph"

// resolve turns raw extraction facts into graph nodes and edges for one file.
//
// Edge derivation:
//   - CONTAINS_CLASS / CONTAINS_FUNCTION: file to each top-level entity.
//   - DEFINES: class to every function strictly nested in its line range
//     (fn.start > class.start and fn.end <= class.end). Overlapping classes
//     can each claim the same function; resolution is purely line-based.
//   - CALLS: the caller is the first function in extraction order whose line
//     range contains the call site; the callee is the first function with the
//     exact called name. Unresolved callees are dropped, self-calls are
//     suppressed, and repeated caller/callee pairs collapse to one edge.
func resolve(path string, lang Language, facts *sourceFacts) *Extraction {
	file := &graph.FileNode{
		ID:       graph.FileID(path),
		Path:     path,
		Language: string(lang),
	}
	ex := &Extraction{File: file, Language: lang}

	for _, c := range facts.classes {
		node := &graph.ClassNode{
			ID:        graph.ClassID(path, c.name, c.startRow),
			Name:      c.name,
			StartLine: c.startLine,
			EndLine:   c.endLine,
			FilePath:  path,
		}
		ex.Classes = append(ex.Classes, node)
		if c.topLevel {
			ex.Edges = append(ex.Edges, newEdge(file.ID, graph.EdgeContainsClass, node.ID))
		}
	}

	for _, fn := range facts.functions {
		node := &graph.FunctionNode{
			ID:        graph.FunctionID(path, fn.name, fn.startRow),
			Name:      fn.name,
			Args:      fn.args,
			Docstring: fn.docstring,
			StartLine: fn.startLine,
			EndLine:   fn.endLine,
			FilePath:  path,
		}
		ex.Functions = append(ex.Functions, node)
		if fn.topLevel {
			ex.Edges = append(ex.Edges, newEdge(file.ID, graph.EdgeContainsFunction, node.ID))
		}
	}

	for _, c := range ex.Classes {
		for _, fn := range ex.Functions {
			if fn.StartLine > c.StartLine && fn.EndLine <= c.EndLine {
				ex.Edges = append(ex.Edges, newEdge(c.ID, graph.EdgeDefines, fn.ID))
			}
		}
	}

	seenCalls := make(map[string]bool)
	for _, call := range facts.calls {
		caller := enclosingFunction(ex.Functions, call.line)
		callee := functionByName(ex.Functions, call.name)
		if caller == nil || callee == nil || caller.ID == callee.ID {
			continue
		}
		edge := newEdge(caller.ID, graph.EdgeCalls, callee.ID)
		if seenCalls[edge.ID] {
			continue
		}
		seenCalls[edge.ID] = true
		ex.Edges = append(ex.Edges, edge)
	}

	return ex
}

func newEdge(source string, edgeType graph.EdgeType, target string) *graph.Edge {
	return &graph.Edge{
		ID:     graph.EdgeID(source, edgeType, target),
		Source: source,
		Target: target,
		Type:   edgeType,
	}
}

// enclosingFunction returns the first function in extraction order whose line
// range contains line. When definitions nest, extraction order puts the outer
// function first, so the outer one wins.
func enclosingFunction(funcs []*graph.FunctionNode, line int) *graph.FunctionNode {
	for _, fn := range funcs {
		if line >= fn.StartLine && line <= fn.EndLine {
			return fn
		}
	}
	return nil
}

func functionByName(funcs []*graph.FunctionNode, name string) *graph.FunctionNode {
	for _, fn := range funcs {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}
