// Package javascript provides the JavaScript grammar for the extraction
// service. TypeScript files are routed through it as well; type-only syntax
// parses with errors but plain declarations still extract.
package javascript

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"codeatlas/internal/parser"
)

// Grammar extracts classes, functions, methods, and call sites from
// JavaScript source.
type Grammar struct{}

// New creates the JavaScript grammar.
func New() *Grammar {
	return &Grammar{}
}

func (g *Grammar) Language() parser.Language {
	return parser.LangJavaScript
}

func (g *Grammar) Extensions() []string {
	return []string{".js", ".jsx", ".ts", ".tsx", ".mjs"}
}

func (g *Grammar) Sitter() *sitter.Language {
	return javascript.GetLanguage()
}

func (g *Grammar) ClassQuery() string {
	return `(class_declaration name: (identifier) @class.name) @class.def`
}

func (g *Grammar) FunctionQuery() string {
	return `
		(function_declaration
			name: (identifier) @func.name
			parameters: (formal_parameters) @func.params) @func.def
		(method_definition
			name: (property_identifier) @func.name
			parameters: (formal_parameters) @func.params) @func.def
	`
}

func (g *Grammar) CallQuery() string {
	return `
		(call_expression function: (identifier) @call.name)
		(call_expression function: (member_expression property: (property_identifier) @call.name))
	`
}

// Docstring returns the comment that opens the definition's body, with
// comment markers stripped. JSDoc blocks above the definition are not
// considered.
func (g *Grammar) Docstring(def *sitter.Node, content []byte) string {
	body := def.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "comment" {
		return ""
	}
	return cleanComment(first.Content(content))
}

func cleanComment(raw string) string {
	lines := strings.Split(raw, "\n")
	var cleaned []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "//")
		l = strings.TrimPrefix(l, "/*")
		l = strings.TrimSuffix(l, "*/")
		l = strings.TrimPrefix(l, "*")
		l = strings.TrimSpace(l)
		if l != "" {
			cleaned = append(cleaned, l)
		}
	}
	return strings.Join(cleaned, "\n")
}
