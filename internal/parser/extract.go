package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// classEntity and functionEntity are raw extraction records before resolution
// into graph nodes. Rows are zero-based as reported by the syntax tree; lines
// are 1-indexed and inclusive.
type classEntity struct {
	name      string
	startRow  int
	startLine int
	endLine   int
	topLevel  bool
}

type functionEntity struct {
	name      string
	args      string
	docstring string
	startRow  int
	startLine int
	endLine   int
	topLevel  bool
}

type callSite struct {
	name string
	line int
}

// sourceFacts holds everything the capture queries found in one file, in
// document order.
type sourceFacts struct {
	classes   []classEntity
	functions []functionEntity
	calls     []callSite
}

func extractFacts(ctx context.Context, g Grammar, content []byte) (*sourceFacts, error) {
	sp := sitter.NewParser()
	sp.SetLanguage(g.Sitter())
	tree, err := sp.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse source: %w", err)
	}
	root := tree.RootNode()
	facts := &sourceFacts{}

	err = runQuery(g.Sitter(), g.ClassQuery(), root, func(caps map[string]*sitter.Node) {
		def, name := caps["class.def"], caps["class.name"]
		if def == nil || name == nil {
			return
		}
		facts.classes = append(facts.classes, classEntity{
			name:      name.Content(content),
			startRow:  int(def.StartPoint().Row),
			startLine: int(def.StartPoint().Row) + 1,
			endLine:   int(def.EndPoint().Row) + 1,
			topLevel:  isTopLevel(def),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("class query: %w", err)
	}

	err = runQuery(g.Sitter(), g.FunctionQuery(), root, func(caps map[string]*sitter.Node) {
		def, name := caps["func.def"], caps["func.name"]
		if def == nil || name == nil {
			return
		}
		args := ""
		if params := caps["func.params"]; params != nil {
			args = trimParens(params.Content(content))
		}
		facts.functions = append(facts.functions, functionEntity{
			name:      name.Content(content),
			args:      args,
			docstring: g.Docstring(def, content),
			startRow:  int(def.StartPoint().Row),
			startLine: int(def.StartPoint().Row) + 1,
			endLine:   int(def.EndPoint().Row) + 1,
			topLevel:  isTopLevel(def),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("function query: %w", err)
	}

	err = runQuery(g.Sitter(), g.CallQuery(), root, func(caps map[string]*sitter.Node) {
		name := caps["call.name"]
		if name == nil {
			return
		}
		facts.calls = append(facts.calls, callSite{
			name: name.Content(content),
			line: int(name.StartPoint().Row) + 1,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("call query: %w", err)
	}

	return facts, nil
}

// runQuery executes a capture query against root and invokes fn once per
// match with captures keyed by capture name.
func runQuery(lang *sitter.Language, pattern string, root *sitter.Node, fn func(map[string]*sitter.Node)) error {
	query, err := sitter.NewQuery([]byte(pattern), lang)
	if err != nil {
		return fmt.Errorf("compile query: %w", err)
	}
	defer query.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)

	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		caps := make(map[string]*sitter.Node, len(m.Captures))
		for _, c := range m.Captures {
			caps[query.CaptureNameForId(c.Index)] = c.Node
		}
		fn(caps)
	}
	return nil
}

// isTopLevel reports whether a definition node is a direct child of the
// tree's root. Entities nested inside classes, functions, or any other
// top-level statement (conditionals, wrappers) are excluded.
func isTopLevel(node *sitter.Node) bool {
	parent := node.Parent()
	return parent != nil && parent.Parent() == nil
}

func trimParens(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	return strings.TrimSpace(s)
}
