// Package python provides the Python grammar for the extraction service.
package python

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"codeatlas/internal/parser"
)

// Grammar extracts classes, functions, and call sites from Python source.
type Grammar struct{}

// New creates the Python grammar.
func New() *Grammar {
	return &Grammar{}
}

func (g *Grammar) Language() parser.Language {
	return parser.LangPython
}

func (g *Grammar) Extensions() []string {
	return []string{".py", ".pyi"}
}

func (g *Grammar) Sitter() *sitter.Language {
	return python.GetLanguage()
}

func (g *Grammar) ClassQuery() string {
	return `(class_definition name: (identifier) @class.name) @class.def`
}

func (g *Grammar) FunctionQuery() string {
	return `(function_definition
		name: (identifier) @func.name
		parameters: (parameters) @func.params) @func.def`
}

func (g *Grammar) CallQuery() string {
	return `
		(call function: (identifier) @call.name)
		(call function: (attribute attribute: (identifier) @call.name))
	`
}

// Docstring returns the definition's docstring: the string expression that
// opens its body, with quoting stripped.
func (g *Grammar) Docstring(def *sitter.Node, content []byte) string {
	body := def.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	expr := first.NamedChild(0)
	if expr.Type() != "string" {
		return ""
	}
	return cleanDocstring(expr.Content(content))
}

func cleanDocstring(raw string) string {
	s := raw
	for _, prefix := range []string{`r"""`, `r'''`, `"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimPrefix(s, prefix)
			quote := prefix
			if strings.HasPrefix(quote, "r") {
				quote = quote[1:]
			}
			s = strings.TrimSuffix(s, quote)
			break
		}
	}
	return strings.TrimSpace(s)
}
